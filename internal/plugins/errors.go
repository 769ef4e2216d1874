package plugins

import (
	"errors"
	"fmt"
)

// PluginError represents an error raised while loading or calling a plugin.
// Function is the exported name that was called, such as "info.title", or
// "load" for failures while evaluating the script.
type PluginError struct {
	PluginID  string
	Function  string
	Message   string
	Cause     error
	IsTimeout bool
	IsPanic   bool
}

func (e *PluginError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("plugin %s: function %s: %s: %v", e.PluginID, e.Function, e.Message, e.Cause)
	}
	return fmt.Sprintf("plugin %s: function %s: %s", e.PluginID, e.Function, e.Message)
}

func (e *PluginError) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err is a plugin call that was interrupted for
// running past its deadline.
func IsTimeout(err error) bool {
	var pe *PluginError
	return errors.As(err, &pe) && pe.IsTimeout
}
