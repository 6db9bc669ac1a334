// Package config carries the settings an embedding application hands to
// the dispatcher and session layer, loadable from a file, from
// environment variables, or both.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// Session backends selectable in SessionConfig.
const (
	SessionBackendCookie = "cookie"
	SessionBackendSQL    = "sql"
	SessionBackendMemory = "memory"
)

// SessionConfig configures the session store backing CSRF tokens and
// per-visitor state.
type SessionConfig struct {
	// Backend selects the store: cookie, sql or memory.
	Backend string `mapstructure:"backend" yaml:"backend" toml:"backend"`
	// CookieName overrides the session cookie name.
	CookieName string `mapstructure:"cookie_name" yaml:"cookie_name" toml:"cookie_name"`
	// AuthKey signs session cookies. Secret: prefer setting it via
	// environment over file configuration.
	AuthKey string `mapstructure:"auth_key" yaml:"auth_key" toml:"auth_key"`
	// DSN is the database connection string for the sql backend.
	DSN string `mapstructure:"dsn" yaml:"dsn" toml:"dsn"`
}

// Config wraps the settings of the remote-call endpoint.
type Config struct {
	// Addr is the listen address of the serve command.
	Addr string `mapstructure:"addr" yaml:"addr" toml:"addr"`
	// Encoding is the charset advertised on replies.
	Encoding string `mapstructure:"encoding" yaml:"encoding" toml:"encoding"`
	// CSRF requires a valid session token on every call.
	CSRF bool `mapstructure:"csrf" yaml:"csrf" toml:"csrf"`
	// ErrorReporting sends failure detail to clients.
	ErrorReporting bool `mapstructure:"error_reporting" yaml:"error_reporting" toml:"error_reporting"`
	// AutoTypecast converts numeric-looking arguments to numbers.
	AutoTypecast bool `mapstructure:"auto_typecast" yaml:"auto_typecast" toml:"auto_typecast"`
	// Compress gzips replies for clients that accept it.
	Compress bool `mapstructure:"compress" yaml:"compress" toml:"compress"`
	// AllowGet additionally accepts GET remote calls.
	AllowGet bool `mapstructure:"allow_get" yaml:"allow_get" toml:"allow_get"`
	// Session configures the session store.
	Session SessionConfig `mapstructure:"session" yaml:"session" toml:"session"`
}

// Default returns the configuration a fresh project starts from.
func Default() *Config {
	return &Config{
		Addr:         ":8080",
		Encoding:     "utf-8",
		AutoTypecast: true,
		Session: SessionConfig{
			Backend:    SessionBackendCookie,
			CookieName: "remotedom_session",
		},
	}
}

// Load loads the config from the file path, falling back to env vars if the
// file does not exist. If the file exists, any env vars that are set will
// override the values loaded from the file.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)
	setDefaults(v)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	// If the config file exists, we continue to read it, otherwise we
	// fall back to using environment variables.
	if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// LoadFile loads the config from a file, with no environment overrides and
// no defaults filled in.
func LoadFile(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	err := v.Unmarshal(cfg)

	return cfg, err
}

// WriteFile writes cfg as TOML, the format the init command generates.
func WriteFile(cfg *Config, filePath string) error {
	b, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(filePath, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate checks for values the server cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("empty addr")
	}

	switch c.Session.Backend {
	case "", SessionBackendCookie, SessionBackendSQL, SessionBackendMemory:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}

	if c.Session.Backend == SessionBackendSQL && c.Session.DSN == "" {
		return errors.New("sql session backend needs a dsn")
	}

	return nil
}

// envBindings defines how environment variables map to configuration keys
// used by Viper. Each entry maps a config key to the environment variable
// names that can provide its value, checked in order.
var envBindings = map[string][]string{
	"addr":                {"REMOTEDOM_ADDR"},
	"encoding":            {"REMOTEDOM_ENCODING"},
	"csrf":                {"REMOTEDOM_CSRF"},
	"error_reporting":     {"REMOTEDOM_ERROR_REPORTING"},
	"auto_typecast":       {"REMOTEDOM_AUTO_TYPECAST"},
	"compress":            {"REMOTEDOM_COMPRESS"},
	"allow_get":           {"REMOTEDOM_ALLOW_GET"},
	"session.backend":     {"REMOTEDOM_SESSION_BACKEND"},
	"session.cookie_name": {"REMOTEDOM_SESSION_COOKIE_NAME"},
	"session.auth_key":    {"REMOTEDOM_SESSION_AUTH_KEY"},
	"session.dsn":         {"REMOTEDOM_SESSION_DSN"},
}

// bindEnvs binds the environment variable mappings to the viper instance.
func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(envs, 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("addr", def.Addr)
	v.SetDefault("encoding", def.Encoding)
	v.SetDefault("auto_typecast", def.AutoTypecast)
	v.SetDefault("session.backend", def.Session.Backend)
	v.SetDefault("session.cookie_name", def.Session.CookieName)
}
