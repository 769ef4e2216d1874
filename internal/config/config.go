// This file defines the configuration structure for the application.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
	Reporting      struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"reporting"`
	Plugins struct {
		Path          string `mapstructure:"path"`
		Watch         bool   `mapstructure:"watch"`
		CallTimeoutMs int    `mapstructure:"call_timeout_ms"`
	} `mapstructure:"plugins"`
	Cover struct {
		ProbeTimeout  int    `mapstructure:"probe_timeout"` // seconds
		ThumbnailBase string `mapstructure:"thumbnail_base"`
	} `mapstructure:"cover"`
	Jellyfin struct {
		Hosts []string `mapstructure:"hosts"`
	} `mapstructure:"jellyfin"`
}

// PollInterval returns the poll period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// CallTimeout returns the bound on a single plugin call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Plugins.CallTimeoutMs) * time.Millisecond
}

// ProbeTimeout returns the bound on one cover-art probe.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Cover.ProbeTimeout) * time.Second
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load with config.yml looked up in dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("yml")
	v.AddConfigPath(dir)

	// --- Environment Variable Overrides ---
	// e.g., NOWPLAYING_PLUGINS_PATH will override the `plugins.path` key.
	v.SetEnvPrefix("NOWPLAYING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("poll_interval_ms", 1000)
	v.SetDefault("reporting.enabled", true)
	v.SetDefault("plugins.path", "./adapters")
	v.SetDefault("plugins.watch", false)
	v.SetDefault("plugins.call_timeout_ms", 250)
	v.SetDefault("cover.probe_timeout", 10)
	v.SetDefault("cover.thumbnail_base", "https://i.ytimg.com")
	v.SetDefault("jellyfin.hosts", []string{})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.PollIntervalMs <= 0 {
		return nil, errors.New("poll_interval_ms must be positive")
	}

	return &config, nil
}
