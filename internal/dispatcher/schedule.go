package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Start polls the active site every interval and publishes each ready
// snapshot to the sink. Polls never overlap: a slow poll delays the next
// one instead of running beside it. Polling stops when ctx is done or Stop
// is called.
func (d *Dispatcher) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", interval)
	}

	d.mu.Lock()
	if d.scheduler != nil {
		d.mu.Unlock()
		return errors.New("dispatcher already started")
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	done := make(chan struct{})
	d.scheduler = s
	d.schedulerDone = done
	d.mu.Unlock()

	jobID := "poll"
	log.Printf("[dispatcher] Scheduling job: '%s' to run every %v.", jobID, interval)
	if _, err := s.Every(interval).Do(d.tick); err != nil {
		d.stopScheduler(s)
		return fmt.Errorf("error scheduling '%s' job: %w", jobID, err)
	}

	s.StartAsync()
	go func() {
		select {
		case <-ctx.Done():
			d.stopScheduler(s)
		case <-done:
		}
	}()
	return nil
}

// Stop stops polling. It is safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	s := d.scheduler
	d.mu.Unlock()
	if s != nil {
		d.stopScheduler(s)
	}
}

// stopScheduler stops s if it is still the running scheduler.
func (d *Dispatcher) stopScheduler(s *gocron.Scheduler) {
	d.mu.Lock()
	if d.scheduler != s {
		d.mu.Unlock()
		return
	}
	d.scheduler = nil
	close(d.schedulerDone)
	d.schedulerDone = nil
	d.mu.Unlock()

	s.Stop()
	log.Println("[dispatcher] Polling stopped")
}

func (d *Dispatcher) tick() {
	snap, ready, err := d.Poll()
	if err != nil || !ready {
		return
	}
	d.sink.PublishSnapshot(snap)
}
