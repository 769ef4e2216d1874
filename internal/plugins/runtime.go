package plugins

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dop251/goja"
	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/query"
)

// Runtime is one goja VM bound to one page session. It is not safe for
// concurrent use.
type Runtime struct {
	vm       *goja.Runtime
	manifest *PluginManifest
	exports  *goja.Object
	timeout  time.Duration
	closed   bool
}

var errInterrupted = errors.New("call deadline exceeded")

// CompileScript reads and compiles a plugin's entry point. The script is
// wrapped in a CommonJS-like function so top-level declarations stay
// private to each page session.
func CompileScript(manifest *PluginManifest, pluginDir string) (*goja.Program, error) {
	scriptPath := filepath.Join(pluginDir, manifest.EntryPoint)
	scriptData, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugin script: %w", err)
	}

	src := fmt.Sprintf("(function(exports, np) {\n%s\n})", scriptData)
	program, err := goja.Compile(manifest.EntryPoint, src, false)
	if err != nil {
		return nil, &PluginError{
			PluginID: manifest.ID,
			Function: "load",
			Message:  "failed to compile plugin script",
			Cause:    err,
		}
	}
	return program, nil
}

// NewRuntime evaluates program against doc. Each call into the script,
// including evaluation itself, is bounded by timeout; zero disables the
// bound.
func NewRuntime(manifest *PluginManifest, program *goja.Program, doc dom.Document, reporter *query.Reporter, timeout time.Duration) (*Runtime, error) {
	vm := goja.New()
	r := &Runtime{
		vm:       vm,
		manifest: manifest,
		timeout:  timeout,
	}

	np := newPageAPI(vm, manifest.ID, doc, reporter).inject()

	wrapper, err := vm.RunProgram(program)
	if err != nil {
		return nil, r.wrapError("load", err)
	}
	module, ok := goja.AssertFunction(wrapper)
	if !ok {
		return nil, r.newError("load", "plugin script did not evaluate to a module")
	}

	exports := vm.NewObject()
	if _, err := r.call("load", module, exports, np); err != nil {
		return nil, err
	}
	r.exports = exports

	// Verify required exports
	if r.Func("", "ready") == nil {
		return nil, r.newError("load", "plugin missing required export: ready")
	}
	if r.group("info") == nil {
		return nil, r.newError("load", "plugin missing required export: info")
	}
	return r, nil
}

// Manifest returns the plugin manifest.
func (r *Runtime) Manifest() *PluginManifest {
	return r.manifest
}

// Value returns exports[name] or, with a group, exports[group][name]. It
// returns nil when the value is missing, null or undefined.
func (r *Runtime) Value(group, name string) goja.Value {
	obj := r.exports
	if group != "" {
		obj = r.group(group)
	}
	if obj == nil {
		return nil
	}
	v := obj.Get(name)
	if isNullish(v) {
		return nil
	}
	return v
}

// Func is Value narrowed to callables.
func (r *Runtime) Func(group, name string) goja.Callable {
	v := r.Value(group, name)
	if v == nil {
		return nil
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil
	}
	return fn
}

// Call invokes fn with Go arguments converted to JavaScript values. name
// labels errors.
func (r *Runtime) Call(name string, fn goja.Callable, args ...interface{}) (goja.Value, error) {
	jsArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		jsArgs[i] = r.vm.ToValue(arg)
	}
	return r.call(name, fn, jsArgs...)
}

// Close stops the runtime. Later calls fail without entering the VM.
func (r *Runtime) Close() {
	if r.closed {
		return
	}
	r.closed = true
	r.vm.Interrupt("runtime closed")
}

func (r *Runtime) call(name string, fn goja.Callable, args ...goja.Value) (val goja.Value, err error) {
	if r.closed {
		return nil, r.newError(name, "runtime closed")
	}

	// A deadline that fired after the previous call returned must not
	// interrupt this one.
	r.vm.ClearInterrupt()
	if r.timeout > 0 {
		timer := time.AfterFunc(r.timeout, func() { r.vm.Interrupt(errInterrupted) })
		defer timer.Stop()
	}

	defer func() {
		if panicVal := recover(); panicVal != nil {
			val = nil
			err = &PluginError{
				PluginID: r.manifest.ID,
				Function: name,
				Message:  fmt.Sprintf("panic: %v", panicVal),
				IsPanic:  true,
			}
		}
	}()

	val, err = fn(goja.Undefined(), args...)
	if err != nil {
		return nil, r.wrapError(name, err)
	}
	return val, nil
}

func (r *Runtime) group(name string) *goja.Object {
	if r.exports == nil {
		return nil
	}
	v := r.exports.Get(name)
	if isNullish(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	return obj
}

func (r *Runtime) wrapError(name string, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &PluginError{
			PluginID:  r.manifest.ID,
			Function:  name,
			Message:   fmt.Sprintf("timeout after %v", r.timeout),
			Cause:     err,
			IsTimeout: true,
		}
	}
	return &PluginError{
		PluginID: r.manifest.ID,
		Function: name,
		Message:  "call failed",
		Cause:    err,
	}
}

func (r *Runtime) newError(name, msg string) error {
	return &PluginError{
		PluginID: r.manifest.ID,
		Function: name,
		Message:  msg,
	}
}

func isNullish(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
