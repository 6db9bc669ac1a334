// Command remotedom runs a demo server around the remote-call endpoint
// and manages its configuration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/remotedom/remotedom/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "remotedom",
		Short:         "Remote-call dispatch demo server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addGlobalFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(), newRoutesCmd(), newInitCmd())

	return cmd
}

// addGlobalFlags registers the flags shared by every subcommand.
// Retrieve the values with cmd.Flags().GetString("config") and
// cmd.Flags().GetString("log-level").
func addGlobalFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "remotedom.toml", "config file path")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
}

// newLogger builds the process logger from the log-level flag. LOG_FORMAT
// set to console or human switches to the development encoder.
func newLogger(cmd *cobra.Command) (logger.Logger, error) {
	levelStr, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	var level zapcore.Level
	if err := level.Set(levelStr); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	if os.Getenv("LOG_FORMAT") == "console" || os.Getenv("LOG_FORMAT") == "human" {
		return logger.NewWith(func(config *zap.Config) {
			config.Level.SetLevel(level)
			config.Development = true
			config.DisableStacktrace = true
			config.Encoding = "console"
			config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		})
	}

	cfg := logger.Config{Level: level}

	return cfg.New()
}
