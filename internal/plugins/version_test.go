package plugins_test

import (
	"testing"

	"github.com/vrsandeep/nowplaying-go/internal/plugins"
)

// Reloads compare the version on disk against the loaded one.
func TestVersionOrdering(t *testing.T) {
	tests := []struct {
		name    string
		loaded  string
		onDisk  string
		cmp     int
		newer   bool
		wantErr bool
	}{
		{"Patch bump", "1.4.2", "1.4.3", -1, true, false},
		{"Minor beats patch", "1.4.9", "1.10.0", -1, true, false},
		{"Downgrade", "2.0.0", "1.9.9", 1, false, false},
		{"Release after its pre-release", "1.2.0-rc.1", "1.2.0", -1, true, false},
		{"Build metadata is ignored", "1.2.0+a", "1.2.0+b", 0, false, false},
		{"Tagged version", "v1.2.0", "1.2.0", 0, false, false},
		{"Broken manifest version", "1.0.0", "latest", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp, err := plugins.CompareVersions(tt.loaded, tt.onDisk)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CompareVersions(%q, %q) error = %v, wantErr %v", tt.loaded, tt.onDisk, err, tt.wantErr)
			}
			if cmp != tt.cmp {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.loaded, tt.onDisk, cmp, tt.cmp)
			}
			newer, _ := plugins.IsNewerVersion(tt.loaded, tt.onDisk)
			if newer != tt.newer {
				t.Errorf("IsNewerVersion(%q, %q) = %v, want %v", tt.loaded, tt.onDisk, newer, tt.newer)
			}
		})
	}
}

func TestManifestVersions(t *testing.T) {
	for version, want := range map[string]bool{
		"0.1.0":         true,
		"v3.0.0-beta.2": true,
		"1.0":           true,
		"":              false,
		"one.two":       false,
	} {
		if got := plugins.IsValidVersion(version); got != want {
			t.Errorf("IsValidVersion(%q) = %v, want %v", version, got, want)
		}
	}
}

func TestValidateAPIVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr bool
	}{
		{"Exact", "1.0.0", false},
		{"Short form", "1.0", false},
		{"Later minor", "1.3.2", false},
		{"Leading v", "v1.0.0", false},
		{"Next major", "2.0.0", true},
		{"Pre 1.0", "0.9.0", true},
		{"Invalid", "one", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := plugins.ValidateAPIVersion(tt.version)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIVersion(%q) error = %v, wantErr %v", tt.version, err, tt.wantErr)
			}
		})
	}
}
