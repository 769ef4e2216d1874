package plugins

import (
	"log"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/models"
	"github.com/vrsandeep/nowplaying-go/internal/query"
	"github.com/vrsandeep/nowplaying-go/internal/sites"
)

// PluginProvider adapts a scripted plugin to the sites.Provider interface.
// Every page session gets a fresh Runtime, so script state never outlives a
// navigation.
type PluginProvider struct {
	manifest *PluginManifest
	program  *goja.Program
	timeout  time.Duration
}

// NewPluginProvider creates a provider for a compiled plugin.
func NewPluginProvider(manifest *PluginManifest, program *goja.Program, timeout time.Duration) *PluginProvider {
	return &PluginProvider{
		manifest: manifest,
		program:  program,
		timeout:  timeout,
	}
}

// GetInfo returns plugin information from the manifest.
func (p *PluginProvider) GetInfo() models.SiteInfo {
	name := p.manifest.Name
	if name == "" {
		name = p.manifest.ID
	}
	return models.SiteInfo{
		ID:   p.manifest.ID,
		Name: name,
	}
}

func (p *PluginProvider) Matches(u *url.URL) bool {
	return p.manifest.MatchesURL(u)
}

// NewSite starts a runtime for doc. A script that fails to evaluate yields
// a site that never becomes ready.
func (p *PluginProvider) NewSite(doc dom.Document, reporter *query.Reporter) *sites.Site {
	rt, err := NewRuntime(p.manifest, p.program, doc, reporter, p.timeout)
	if err != nil {
		log.Printf("[%s] Failed to start plugin: %v", p.manifest.ID, err)
		return &sites.Site{Ready: func() bool { return false }}
	}
	return newScriptedSite(rt)
}

func newScriptedSite(rt *Runtime) *sites.Site {
	ready := rt.Func("", "ready")
	site := &sites.Site{
		Ready: func() bool {
			v, ok := invoke(rt, "ready", ready)
			return ok && v.ToBoolean()
		},
		Info: sites.Info{
			Player:   accessor(rt, "player", "", toString),
			State:    accessor(rt, "state", models.StateStopped, toState),
			Title:    accessor(rt, "title", "", toString),
			Artist:   accessor(rt, "artist", "", toString),
			Album:    accessor(rt, "album", "", toString),
			Cover:    accessor(rt, "cover", "", toString),
			Duration: accessor(rt, "duration", "0:00", toString),
			Position: accessor(rt, "position", "0:00", toString),
			Volume:   accessor(rt, "volume", 0, toInt),
			Rating:   accessor(rt, "rating", 0, toInt),
			Repeat:   accessor(rt, "repeat", models.RepeatNone, toRepeat),
			Shuffle:  accessor(rt, "shuffle", false, toBool),
		},
		Events: sites.Events{
			TogglePlaying:         handler(rt, "togglePlaying"),
			Next:                  handler(rt, "next"),
			Previous:              handler(rt, "previous"),
			SetPositionSeconds:    valueHandler[float64](rt, "setPositionSeconds"),
			SetPositionPercentage: valueHandler[float64](rt, "setPositionPercentage"),
			SetVolume:             valueHandler[int](rt, "setVolume"),
			ToggleRepeat:          handler(rt, "toggleRepeat"),
			ToggleShuffle:         handler(rt, "toggleShuffle"),
			ToggleThumbsUp:        handler(rt, "toggleThumbsUp"),
			ToggleThumbsDown:      handler(rt, "toggleThumbsDown"),
			SetRating:             valueHandler[int](rt, "setRating"),
		},
		Close: rt.Close,
	}

	// setRating may name one of the built-in emulations instead of being a
	// function.
	if v := rt.Value("events", "setRating"); v != nil {
		if _, isFunc := goja.AssertFunction(v); !isFunc {
			switch v.String() {
			case "like":
				site.Events.SetRating = func(rating int) bool { return sites.Like(site, rating) }
			case "likeDislike":
				site.Events.SetRating = func(rating int) bool { return sites.LikeDislike(site, rating) }
			default:
				log.Printf("[%s] Unknown setRating emulation %q", rt.Manifest().ID, v.String())
			}
		}
	}
	return site
}

// invoke calls fn and reports whether it returned a usable value. Errors
// are logged and never reach the caller.
func invoke(rt *Runtime, name string, fn goja.Callable, args ...interface{}) (goja.Value, bool) {
	if fn == nil {
		return nil, false
	}
	v, err := rt.Call(name, fn, args...)
	if err != nil {
		log.Printf("[%s] %v", rt.Manifest().ID, err)
		return nil, false
	}
	if isNullish(v) {
		return nil, false
	}
	return v, true
}

// accessor builds a total info accessor. A missing export, a failing call,
// null, undefined and unconvertible values all read as def.
func accessor[T comparable](rt *Runtime, name string, def T, convert func(goja.Value) (T, bool)) func() T {
	fn := rt.Func("info", name)
	if fn == nil {
		return func() T { return def }
	}
	return func() T {
		v, ok := invoke(rt, "info."+name, fn)
		if !ok {
			return def
		}
		out, ok := convert(v)
		if !ok || query.IsUnset(out) {
			return def
		}
		return out
	}
}

// handler returns nil for a missing export so the command reads as
// unsupported. A handler returning nothing counts as performed.
func handler(rt *Runtime, name string) func() bool {
	fn := rt.Func("events", name)
	if fn == nil {
		return nil
	}
	return func() bool {
		return performed(rt, "events."+name, fn)
	}
}

func valueHandler[T int | float64](rt *Runtime, name string) func(T) bool {
	fn := rt.Func("events", name)
	if fn == nil {
		return nil
	}
	return func(value T) bool {
		return performed(rt, "events."+name, fn, value)
	}
}

func performed(rt *Runtime, name string, fn goja.Callable, args ...interface{}) bool {
	v, err := rt.Call(name, fn, args...)
	if err != nil {
		log.Printf("[%s] %v", rt.Manifest().ID, err)
		return false
	}
	if isNullish(v) {
		return true
	}
	return v.ToBoolean()
}

func toString(v goja.Value) (string, bool) {
	return v.String(), true
}

func toInt(v goja.Value) (int, bool) {
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// Out of range floats have no defined int conversion.
	f = math.Max(math.MinInt32, math.Min(math.MaxInt32, math.Round(f)))
	return int(f), true
}

func toBool(v goja.Value) (bool, bool) {
	return v.ToBoolean(), true
}

func toState(v goja.Value) (models.StateMode, bool) {
	s := models.StateMode(strings.ToUpper(v.String()))
	switch s {
	case models.StatePlaying, models.StatePaused, models.StateStopped:
		return s, true
	}
	return "", false
}

func toRepeat(v goja.Value) (models.RepeatMode, bool) {
	r := models.RepeatMode(strings.ToUpper(v.String()))
	switch r {
	case models.RepeatNone, models.RepeatOne, models.RepeatAll:
		return r, true
	}
	return "", false
}
