package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remotedom/remotedom/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			if err := config.WriteFile(config.Default(), path); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)

			return nil
		},
	}
}
