// Package config loads taskmirror configuration from file and environment.
//
// Settings resolve in viper's usual order: explicit config file values,
// then TASKMIRROR_* environment variables, then defaults. The Todoist
// token additionally binds to the conventional TODOIST_API_TOKEN variable.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds process configuration.
type Config struct {
	// ListenPort is the HTTP port for the webhook/REST/dashboard server.
	ListenPort int `mapstructure:"listen_port"`

	// DatabasePath is the SQLite database file location.
	DatabasePath string `mapstructure:"database_path"`

	// LogPath enables rotating file logging when non-empty.
	LogPath string `mapstructure:"log_path"`

	// Todoist configures the remote client.
	Todoist TodoistConfig `mapstructure:"todoist"`
}

// TodoistConfig holds remote client settings.
type TodoistConfig struct {
	// Token is the API credential; required for any remote call.
	Token string `mapstructure:"token"`

	// BaseURL overrides the API endpoint (tests, proxies).
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds each remote HTTP attempt.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxAttempts caps transient retries.
	MaxAttempts int `mapstructure:"max_attempts"`
}

// Loader wraps a viper instance so config can be reloaded on change.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader reading the optional config file at path.
// If path is empty, taskmirror.yaml is searched in the working directory.
func NewLoader(path string) *Loader {
	v := viper.New()

	v.SetDefault("listen_port", 8080)
	v.SetDefault("database_path", "taskmirror.db")
	v.SetDefault("todoist.timeout", 5*time.Second)
	v.SetDefault("todoist.max_attempts", 3)

	v.SetEnvPrefix("TASKMIRROR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Conventional variable name used by the Todoist ecosystem.
	_ = v.BindEnv("todoist.token", "TODOIST_API_TOKEN", "TASKMIRROR_TODOIST_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("taskmirror")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	return &Loader{v: v}
}

// Load reads and decodes the configuration.
// A missing config file is not an error; env and defaults still apply.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// Watch re-reads the config file on change and invokes onChange with the
// fresh configuration. Decode failures are reported to onError and the
// previous configuration stays in effect.
func (l *Loader) Watch(onChange func(*Config), onError func(error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err != nil {
			if onError != nil {
				onError(fmt.Errorf("failed to decode config after %s: %w", e.Name, err))
			}
			return
		}
		onChange(&cfg)
	})
	l.v.WatchConfig()
}

// Validate checks settings needed to run the server.
func (c *Config) Validate() error {
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port must be between 1 and 65535 (got %d)", c.ListenPort)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.Todoist.Token == "" {
		return fmt.Errorf("todoist token is required (set TODOIST_API_TOKEN)")
	}
	return nil
}
