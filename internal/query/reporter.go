package query

import (
	"log"
	"sync"

	"github.com/vrsandeep/nowplaying-go/internal/models"
)

// ReportSink receives selector reports.
type ReportSink func(models.SelectorReport)

// Reporter is the side channel for selectors that are expected to exist but
// matched nothing. Each key is reported at most once per Reporter, and a
// Reporter lives as long as one page session. A nil *Reporter is valid and
// discards everything, which is how reporting is switched off.
type Reporter struct {
	siteID string
	sink   ReportSink

	mu       sync.Mutex
	reported map[string]bool
}

// NewReporter returns a Reporter for siteID. A nil sink logs the report.
func NewReporter(siteID string, sink ReportSink) *Reporter {
	if sink == nil {
		sink = LogSink
	}
	return &Reporter{
		siteID:   siteID,
		sink:     sink,
		reported: make(map[string]bool),
	}
}

// LogSink writes a report to the standard logger.
func LogSink(r models.SelectorReport) {
	log.Printf("[%s] selector for %q not found: %s", r.SiteID, r.Key, r.Selector)
}

// Report emits a report for key unless one was already emitted.
func (r *Reporter) Report(key, selector string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	if r.reported[key] {
		r.mu.Unlock()
		return
	}
	r.reported[key] = true
	r.mu.Unlock()

	r.sink(models.SelectorReport{SiteID: r.siteID, Key: key, Selector: selector})
}

// Reported returns the keys reported so far.
func (r *Reporter) Reported() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.reported))
	for k := range r.reported {
		keys = append(keys, k)
	}
	return keys
}
