package plugins

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// APIVersion is the scripting API version this build provides.
	APIVersion = "1.0.0"
	// SupportedAPIRange is the range of api_version values plugins may declare.
	SupportedAPIRange = "^1.0.0"
)

// CompareVersions compares two version strings semantically.
// Returns:
// - -1 if v1 < v2
// - 0 if v1 == v2
// - 1 if v1 > v2
// - error if either version string is invalid
func CompareVersions(v1, v2 string) (int, error) {
	version1, err := parseVersion(v1)
	if err != nil {
		return 0, err
	}
	version2, err := parseVersion(v2)
	if err != nil {
		return 0, err
	}
	return version1.Compare(version2), nil
}

// IsNewerVersion checks if v2 is newer than v1.
func IsNewerVersion(v1, v2 string) (bool, error) {
	comparison, err := CompareVersions(v1, v2)
	if err != nil {
		return false, err
	}
	return comparison < 0, nil
}

// IsValidVersion checks if a version string is valid semantic version.
func IsValidVersion(version string) bool {
	_, err := parseVersion(version)
	return err == nil
}

// ValidateAPIVersion checks that a plugin's api_version falls inside
// SupportedAPIRange. Short forms such as "1.0" are accepted.
func ValidateAPIVersion(pluginAPIVersion string) error {
	v, err := parseVersion(pluginAPIVersion)
	if err != nil {
		return err
	}
	constraint, err := semver.NewConstraint(SupportedAPIRange)
	if err != nil {
		return fmt.Errorf("invalid api range %s: %w", SupportedAPIRange, err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("plugin requires API version %s, but this build provides %s", pluginAPIVersion, APIVersion)
	}
	return nil
}

func parseVersion(s string) (*semver.Version, error) {
	// Strip leading 'v' if present (common in version strings)
	s = strings.TrimPrefix(s, "v")
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %s: %w", s, err)
	}
	return v, nil
}
