package plugins

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// PluginManifest represents the plugin.json structure.
type PluginManifest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`
	APIVersion  string `json:"api_version"`
	EntryPoint  string `json:"entry_point"`
	// Matches lists the pages the adapter handles, as "host" or
	// "host/path-prefix". A host of "*.example.com" also matches example.com.
	Matches []string `json:"matches"`
}

// LoadManifest loads and parses a plugin.json file.
func LoadManifest(pluginDir string) (*PluginManifest, error) {
	manifestPath := filepath.Join(pluginDir, "plugin.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin.json: %w", err)
	}

	var manifest PluginManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse plugin.json: %w", err)
	}

	// Validate required fields
	if manifest.ID == "" {
		return nil, fmt.Errorf("plugin.json missing required field: id")
	}
	if manifest.Name == "" {
		return nil, fmt.Errorf("plugin.json missing required field: name")
	}
	if manifest.Version == "" {
		return nil, fmt.Errorf("plugin.json missing required field: version")
	}
	if !IsValidVersion(manifest.Version) {
		return nil, fmt.Errorf("plugin.json has invalid version: %s", manifest.Version)
	}
	if manifest.APIVersion == "" {
		return nil, fmt.Errorf("plugin.json missing required field: api_version")
	}
	if len(manifest.Matches) == 0 {
		return nil, fmt.Errorf("plugin.json missing required field: matches")
	}

	if manifest.EntryPoint == "" {
		manifest.EntryPoint = "index.js"
	}

	return &manifest, nil
}

// MatchesURL reports whether any of the manifest patterns matches u.
func (m *PluginManifest) MatchesURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range m.Matches {
		patternHost, prefix, _ := strings.Cut(pattern, "/")
		if !matchHost(strings.ToLower(patternHost), host) {
			continue
		}
		if strings.HasPrefix(path, "/"+prefix) {
			return true
		}
	}
	return false
}

func matchHost(pattern, host string) bool {
	if base, ok := strings.CutPrefix(pattern, "*."); ok {
		return host == base || strings.HasSuffix(host, "."+base)
	}
	return host == pattern
}
