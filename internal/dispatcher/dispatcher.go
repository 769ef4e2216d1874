// Package dispatcher owns the active site for a page and routes polls and
// commands to it. Adapters assume a single thread, so every call into the
// active site is made with the dispatcher lock held.
package dispatcher

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/go-co-op/gocron"
	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/models"
	"github.com/vrsandeep/nowplaying-go/internal/query"
	"github.com/vrsandeep/nowplaying-go/internal/sites"
)

var (
	// ErrNoActiveSite is returned when no provider matched the attached page.
	ErrNoActiveSite = errors.New("no active site")
	// ErrUnknownCommand is returned for command names outside models.Commands.
	ErrUnknownCommand = errors.New("unknown command")
)

// Options configures a Dispatcher.
type Options struct {
	// Reporting forwards selector reports to the sink. When false, adapters
	// get a nil reporter.
	Reporting bool
}

// Dispatcher binds one page to the provider that matches it.
type Dispatcher struct {
	registry *sites.Registry
	sink     Sink
	opts     Options

	mu        sync.Mutex
	doc       dom.Document
	info      models.SiteInfo
	site      *sites.Site
	reporter  *query.Reporter
	scheduler *gocron.Scheduler
	// schedulerDone is closed when scheduler stops.
	schedulerDone chan struct{}
}

// New creates a dispatcher. A nil sink discards everything.
func New(registry *sites.Registry, sink Sink, opts Options) *Dispatcher {
	if sink == nil {
		sink = DiscardSink{}
	}
	return &Dispatcher{
		registry: registry,
		sink:     sink,
		opts:     opts,
	}
}

// Attach selects the provider matching doc's location and starts a new
// site session for it. The previous session, and all its adapter-local
// state, is discarded. It reports whether a provider matched.
func (d *Dispatcher) Attach(doc dom.Document) (models.SiteInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attachLocked(doc)
}

// Reattach starts a new session for the current page. Call it after the
// page navigated or the registry changed.
func (d *Dispatcher) Reattach() (models.SiteInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return models.SiteInfo{}, false
	}
	return d.attachLocked(d.doc)
}

// Detach ends the current session.
func (d *Dispatcher) Detach() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeLocked()
	d.doc = nil
}

func (d *Dispatcher) attachLocked(doc dom.Document) (models.SiteInfo, bool) {
	d.closeLocked()
	d.doc = doc

	provider, ok := d.registry.Match(doc.Location())
	if !ok {
		log.Printf("[dispatcher] No site matches %v", doc.Location())
		return models.SiteInfo{}, false
	}

	d.info = provider.GetInfo()
	if d.opts.Reporting {
		d.reporter = query.NewReporter(d.info.ID, d.sink.PublishReport)
	}
	d.site = provider.NewSite(doc, d.reporter)
	log.Printf("[dispatcher] Attached %s to %v", d.info.ID, doc.Location())
	return d.info, true
}

func (d *Dispatcher) closeLocked() {
	if d.site != nil && d.site.Close != nil {
		d.site.Close()
	}
	d.site = nil
	d.reporter = nil
	d.info = models.SiteInfo{}
}

// Active returns the active site's identity.
func (d *Dispatcher) Active() (models.SiteInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info, d.site != nil
}

// Poll reads a snapshot of the active site. It returns false while the
// site is not ready, so consumers never see default-only snapshots.
func (d *Dispatcher) Poll() (models.Snapshot, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.site == nil {
		return models.Snapshot{}, false, ErrNoActiveSite
	}

	var snap models.Snapshot
	ready := false
	guard(d.info.ID, "poll", func() {
		if d.site.Ready == nil || !d.site.Ready() {
			return
		}
		snap = sites.TakeSnapshot(d.info.ID, d.site)
		ready = true
	})
	return snap, ready, nil
}

// Execute routes cmd to the active site's handler.
func (d *Dispatcher) Execute(cmd models.Command) (models.CommandResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.site == nil {
		return models.CommandResult{}, ErrNoActiveSite
	}

	run, err := bind(d.site.Events, cmd)
	if err != nil {
		return models.CommandResult{}, err
	}

	result := models.CommandResult{SiteID: d.info.ID, Command: cmd.Name}
	if run == nil {
		result.Status = models.CommandUnsupported
		return result, nil
	}

	performed := false
	guard(d.info.ID, string(cmd.Name), func() { performed = run() })
	if performed {
		result.Status = models.CommandOK
	} else {
		result.Status = models.CommandNotFound
	}
	return result, nil
}

// Supported lists the commands the active site has handlers for.
func (d *Dispatcher) Supported() []models.CommandName {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.site == nil {
		return nil
	}
	var names []models.CommandName
	for _, name := range models.Commands {
		if run, _ := bind(d.site.Events, models.Command{Name: name}); run != nil {
			names = append(names, name)
		}
	}
	return names
}

// bind resolves cmd to a call of the matching handler. It returns a nil
// func when the site has no handler for cmd.
func bind(e sites.Events, cmd models.Command) (func() bool, error) {
	switch cmd.Name {
	case models.CommandTogglePlaying:
		return e.TogglePlaying, nil
	case models.CommandNext:
		return e.Next, nil
	case models.CommandPrevious:
		return e.Previous, nil
	case models.CommandToggleRepeat:
		return e.ToggleRepeat, nil
	case models.CommandToggleShuffle:
		return e.ToggleShuffle, nil
	case models.CommandToggleThumbsUp:
		return e.ToggleThumbsUp, nil
	case models.CommandToggleThumbsDown:
		return e.ToggleThumbsDown, nil
	case models.CommandSetPositionSeconds:
		return withValue(e.SetPositionSeconds, cmd.Value), nil
	case models.CommandSetPositionPercentage:
		return withValue(e.SetPositionPercentage, cmd.Value), nil
	case models.CommandSetVolume:
		return withValue(e.SetVolume, roundInt(cmd.Value)), nil
	case models.CommandSetRating:
		return withValue(e.SetRating, roundInt(cmd.Value)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
}

func withValue[T any](fn func(T) bool, v T) func() bool {
	if fn == nil {
		return nil
	}
	return func() bool { return fn(v) }
}

func roundInt(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

// guard runs fn and recovers a panic escaping the adapter.
func guard(siteID, what string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] Recovered panic in %s: %v", siteID, what, r)
			ok = false
		}
	}()
	fn()
	return true
}
