package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// PluginManifest is the subset of plugin.json that tests usually vary.
type PluginManifest struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	APIVersion string   `json:"api_version"`
	Matches    []string `json:"matches"`
	EntryPoint string   `json:"entry_point,omitempty"`
}

// WritePlugin is a helper function that creates a plugin directory under
// dir with a plugin.json and an index.js. Empty manifest fields get working
// defaults. It returns the plugin directory.
func WritePlugin(t *testing.T, dir string, manifest PluginManifest, script string) string {
	t.Helper()
	if manifest.Name == "" {
		manifest.Name = manifest.ID
	}
	if manifest.Version == "" {
		manifest.Version = "1.0.0"
	}
	if manifest.APIVersion == "" {
		manifest.APIVersion = "1.0"
	}
	if manifest.EntryPoint == "" {
		manifest.EntryPoint = "index.js"
	}

	pluginDir := filepath.Join(dir, manifest.ID)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("Failed to create plugin dir: %v", err)
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		t.Fatalf("Failed to encode plugin.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("Failed to write plugin.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, manifest.EntryPoint), []byte(script), 0644); err != nil {
		t.Fatalf("Failed to write plugin script: %v", err)
	}
	return pluginDir
}
