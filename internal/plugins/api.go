package plugins

import (
	"fmt"
	"log"

	"github.com/dop251/goja"
	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/query"
	"github.com/vrsandeep/nowplaying-go/internal/util"
)

// pageAPI is the np object scripts receive. It gives read and click access
// to the host page and nothing else: no network, no filesystem.
type pageAPI struct {
	vm       *goja.Runtime
	pluginID string
	doc      dom.Document
	reporter *query.Reporter
}

func newPageAPI(vm *goja.Runtime, pluginID string, doc dom.Document, reporter *query.Reporter) *pageAPI {
	return &pageAPI{
		vm:       vm,
		pluginID: pluginID,
		doc:      doc,
		reporter: reporter,
	}
}

// inject builds the np object.
func (a *pageAPI) inject() *goja.Object {
	vm := a.vm
	np := vm.NewObject()

	np.Set("apiVersion", APIVersion)

	// DOM access
	np.Set("query", a.query)
	np.Set("queryAll", a.queryAll)
	np.Set("xpath", a.xpath)
	np.Set("media", a.media)
	np.Set("location", a.location)
	np.Set("mediaSession", a.mediaSession)
	np.Set("report", func(key, selector string) { a.reporter.Report(key, selector) })

	// Formatting
	np.Set("formatTime", util.TimeInSecondsToString)
	volumeObj := vm.NewObject()
	volumeObj.Set("linear", a.curve(util.LinearCurve))
	volumeObj.Set("cubic", a.curve(util.CubicCurve))
	np.Set("volume", volumeObj)

	// Logging
	logObj := vm.NewObject()
	logObj.Set("info", a.logger("INFO"))
	logObj.Set("warn", a.logger("WARN"))
	logObj.Set("error", a.logger("ERROR"))
	logObj.Set("debug", a.logger("DEBUG"))
	np.Set("log", logObj)

	return np
}

// query returns the first element matching selector, or null. When a
// report key is passed as second argument, a miss is reported once.
func (a *pageAPI) query(call goja.FunctionCall) goja.Value {
	selector := call.Argument(0).String()
	el := a.doc.Query(selector)
	if el == nil {
		if key := call.Argument(1); !isNullish(key) {
			a.reporter.Report(key.String(), selector)
		}
		return goja.Null()
	}
	return a.element(el)
}

func (a *pageAPI) queryAll(selector string) goja.Value {
	return a.elements(a.doc.QueryAll(selector))
}

func (a *pageAPI) xpath(expr string) goja.Value {
	return a.elements(a.doc.XPath(expr))
}

// media returns the first media element matching selector, or null when
// nothing matches or the match is not a <video>/<audio>.
func (a *pageAPI) media(call goja.FunctionCall) goja.Value {
	selector := call.Argument(0).String()
	m := dom.AsMedia(a.doc.Query(selector))
	if m == nil {
		if key := call.Argument(1); !isNullish(key) {
			a.reporter.Report(key.String(), selector)
		}
		return goja.Null()
	}
	return a.element(m)
}

func (a *pageAPI) location() goja.Value {
	u := a.doc.Location()
	if u == nil {
		return goja.Null()
	}
	obj := a.vm.NewObject()
	obj.Set("href", u.String())
	obj.Set("host", u.Host)
	obj.Set("hostname", u.Hostname())
	obj.Set("pathname", u.Path)
	obj.Set("search", u.RawQuery)
	obj.Set("hash", u.Fragment)
	obj.Set("param", func(name string) string { return u.Query().Get(name) })
	return obj
}

func (a *pageAPI) mediaSession() goja.Value {
	meta := a.doc.MediaSession()
	if meta == nil {
		return goja.Null()
	}
	obj := a.vm.NewObject()
	obj.Set("title", meta.Title)
	obj.Set("artist", meta.Artist)
	obj.Set("album", meta.Album)
	obj.Set("cover", util.MediaSessionCover(meta))
	return obj
}

func (a *pageAPI) curve(c util.VolumeCurve) *goja.Object {
	obj := a.vm.NewObject()
	obj.Set("toMedia", c.ToMedia)
	obj.Set("fromMedia", c.FromMedia)
	return obj
}

func (a *pageAPI) logger(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		args := make([]interface{}, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.Export()
		}
		log.Printf("[%s] %s: %v", a.pluginID, level, fmt.Sprint(args...))
		return goja.Undefined()
	}
}

func (a *pageAPI) elements(els []dom.Element) goja.Value {
	values := make([]interface{}, len(els))
	for i, el := range els {
		values[i] = a.element(el)
	}
	return a.vm.NewArray(values...)
}

// element wraps el as a plain JS object. Media elements get the playback
// methods as well.
func (a *pageAPI) element(el dom.Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	obj := a.vm.NewObject()
	obj.Set("tag", el.Tag())
	obj.Set("text", el.Text)
	obj.Set("attr", func(name string) goja.Value {
		v, ok := el.Attr(name)
		if !ok {
			return goja.Null()
		}
		return a.vm.ToValue(v)
	})
	obj.Set("setAttr", el.SetAttr)
	obj.Set("hasClass", el.HasClass)
	obj.Set("click", el.Click)
	obj.Set("query", func(selector string) goja.Value { return a.element(el.Query(selector)) })
	obj.Set("queryAll", func(selector string) goja.Value { return a.elements(el.QueryAll(selector)) })
	obj.Set("children", func() goja.Value { return a.elements(el.Children()) })

	if m := dom.AsMedia(el); m != nil {
		obj.Set("paused", m.Paused)
		obj.Set("play", m.Play)
		obj.Set("pause", m.Pause)
		obj.Set("played", m.Played)
		obj.Set("currentTime", m.CurrentTime)
		obj.Set("setCurrentTime", m.SetCurrentTime)
		obj.Set("duration", m.Duration)
		obj.Set("volume", m.Volume)
		obj.Set("setVolume", m.SetVolume)
		obj.Set("muted", m.Muted)
		obj.Set("setMuted", m.SetMuted)
		obj.Set("loop", m.Loop)
		obj.Set("setLoop", m.SetLoop)
	}
	return obj
}
