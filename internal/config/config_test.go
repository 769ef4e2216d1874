package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults when no config file", func(t *testing.T) {
		cfg, err := LoadFrom(t.TempDir())
		if err != nil {
			t.Fatalf("LoadFrom() returned an error: %v", err)
		}

		if cfg.PollInterval() != time.Second {
			t.Errorf("Expected default poll interval 1s, got %v", cfg.PollInterval())
		}
		if !cfg.Reporting.Enabled {
			t.Error("Expected reporting to be enabled by default")
		}
		if cfg.Plugins.Path != "./adapters" {
			t.Errorf("Expected default plugins path './adapters', got '%s'", cfg.Plugins.Path)
		}
		if cfg.Plugins.Watch {
			t.Error("Expected plugin watching to be off by default")
		}
		if cfg.CallTimeout() != 250*time.Millisecond {
			t.Errorf("Expected default call timeout 250ms, got %v", cfg.CallTimeout())
		}
		if cfg.ProbeTimeout() != 10*time.Second {
			t.Errorf("Expected default probe timeout 10s, got %v", cfg.ProbeTimeout())
		}
		if cfg.Cover.ThumbnailBase != "https://i.ytimg.com" {
			t.Errorf("Expected default thumbnail base, got '%s'", cfg.Cover.ThumbnailBase)
		}
		if len(cfg.Jellyfin.Hosts) != 0 {
			t.Errorf("Expected no jellyfin hosts, got %v", cfg.Jellyfin.Hosts)
		}
	})

	t.Run("Loads from config file", func(t *testing.T) {
		dir := t.TempDir()
		configContent := `
poll_interval_ms: 500
reporting:
  enabled: false
plugins:
  path: "/tmp/adapters"
  watch: true
jellyfin:
  hosts:
    - media.home.lan
unknown_setting: "should be ignored"
`
		if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(configContent), 0644); err != nil {
			t.Fatalf("Failed to write test config file: %v", err)
		}

		cfg, err := LoadFrom(dir)
		if err != nil {
			t.Fatalf("LoadFrom() returned an error: %v", err)
		}

		if cfg.PollIntervalMs != 500 {
			t.Errorf("Expected poll interval 500, got %d", cfg.PollIntervalMs)
		}
		if cfg.Reporting.Enabled {
			t.Error("Expected reporting to be disabled")
		}
		if cfg.Plugins.Path != "/tmp/adapters" || !cfg.Plugins.Watch {
			t.Errorf("Unexpected plugins section: %+v", cfg.Plugins)
		}
		if len(cfg.Jellyfin.Hosts) != 1 || cfg.Jellyfin.Hosts[0] != "media.home.lan" {
			t.Errorf("Expected jellyfin hosts [media.home.lan], got %v", cfg.Jellyfin.Hosts)
		}
		if cfg.Plugins.CallTimeoutMs != 250 {
			t.Errorf("Expected default call timeout 250, got %d", cfg.Plugins.CallTimeoutMs)
		}
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("NOWPLAYING_PLUGINS_PATH", "/env/adapters")
		t.Setenv("NOWPLAYING_POLL_INTERVAL_MS", "250")

		cfg, err := LoadFrom(t.TempDir())
		if err != nil {
			t.Fatalf("LoadFrom() returned an error: %v", err)
		}
		if cfg.Plugins.Path != "/env/adapters" {
			t.Errorf("Expected env plugins path, got '%s'", cfg.Plugins.Path)
		}
		if cfg.PollIntervalMs != 250 {
			t.Errorf("Expected env poll interval 250, got %d", cfg.PollIntervalMs)
		}
	})

	t.Run("Invalid file", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("poll_interval_ms: [1"), 0644); err != nil {
			t.Fatalf("Failed to write test config file: %v", err)
		}
		if _, err := LoadFrom(dir); err == nil {
			t.Error("Expected an error for malformed config.yml")
		}
	})

	t.Run("Non-positive poll interval", func(t *testing.T) {
		t.Setenv("NOWPLAYING_POLL_INTERVAL_MS", "0")
		if _, err := LoadFrom(t.TempDir()); err == nil {
			t.Error("Expected an error for a zero poll interval")
		}
	})
}
