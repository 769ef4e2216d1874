package dispatcher

import (
	"log"

	"github.com/vrsandeep/nowplaying-go/internal/models"
)

// Sink receives what the dispatcher publishes. Reports are published while
// the dispatcher lock is held, so a sink must not call back into the
// dispatcher.
type Sink interface {
	PublishSnapshot(models.Snapshot)
	PublishReport(models.SelectorReport)
}

// DiscardSink drops everything.
type DiscardSink struct{}

func (DiscardSink) PublishSnapshot(models.Snapshot)     {}
func (DiscardSink) PublishReport(models.SelectorReport) {}

// LogSink writes everything to the standard logger.
type LogSink struct{}

func (LogSink) PublishSnapshot(s models.Snapshot) {
	log.Printf("[%s] %s: %s - %s (%s/%s)", s.SiteID, s.State, s.Artist, s.Title, s.Position, s.Duration)
}

func (LogSink) PublishReport(r models.SelectorReport) {
	log.Printf("[%s] selector for %q not found: %s", r.SiteID, r.Key, r.Selector)
}

// ChannelSink forwards to buffered channels. When a channel is full the
// value is dropped rather than blocking the poll loop.
type ChannelSink struct {
	Snapshots chan models.Snapshot
	Reports   chan models.SelectorReport
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{
		Snapshots: make(chan models.Snapshot, buffer),
		Reports:   make(chan models.SelectorReport, buffer),
	}
}

func (c *ChannelSink) PublishSnapshot(s models.Snapshot) {
	select {
	case c.Snapshots <- s:
	default:
	}
}

func (c *ChannelSink) PublishReport(r models.SelectorReport) {
	select {
	case c.Reports <- r:
	default:
		log.Printf("[%s] Dropped selector report for %q", r.SiteID, r.Key)
	}
}
