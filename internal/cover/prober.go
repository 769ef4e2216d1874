// Package cover resolves cover art for sites that only expose a media
// identifier. Some image hosts have no existence-check API, so a candidate
// URL is probed by downloading it before it is trusted.
package cover

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"sync"
	"time"

	_ "golang.org/x/image/webp"
)

// ProbeFunc resolves the cover URL for id. It runs in the background and
// must honour ctx.
type ProbeFunc func(ctx context.Context, id string) string

// Prober keeps a single cover slot for one page session. Each Request for a
// new identifier cancels the probe in flight and advances a token; a probe
// only writes the slot while its token is still the latest, so a slow probe
// for an earlier track can never overwrite the cover of a newer one.
type Prober struct {
	probe   ProbeFunc
	timeout time.Duration

	mu      sync.Mutex
	token   uint64
	lastID  string
	current string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewProber returns a Prober. A zero timeout means probes never time out.
func NewProber(probe ProbeFunc, timeout time.Duration) *Prober {
	return &Prober{probe: probe, timeout: timeout}
}

// Request starts probing id unless id is empty or already requested. It
// never blocks; Current keeps returning the previous cover until the probe
// finishes.
func (p *Prober) Request(id string) {
	if id == "" {
		return
	}

	p.mu.Lock()
	if id == p.lastID {
		p.mu.Unlock()
		return
	}
	p.lastID = id
	p.token++
	token := p.token
	if p.cancel != nil {
		p.cancel()
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), p.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()
		url := p.probe(ctx, id)
		p.mu.Lock()
		defer p.mu.Unlock()
		if token == p.token && url != "" {
			p.current = url
		}
	}()
}

// Current returns the most recently resolved cover URL, or "".
func (p *Prober) Current() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Wait blocks until every started probe has returned.
func (p *Prober) Wait() {
	p.wg.Wait()
}

// Close cancels the probe in flight. The slot keeps its last value.
func (p *Prober) Close() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.token++
	p.mu.Unlock()
}

// ImageHeight downloads url and decodes just enough of it to return its
// height in pixels.
func ImageHeight(ctx context.Context, client *http.Client, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	cfg, _, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to decode image %s: %w", url, err)
	}
	return cfg.Height, nil
}
