// A mock site for development and testing purposes. It reads a small,
// stable markup so the dispatcher and registry can be exercised without a
// real streaming page.
package mocksite

import (
	"net/url"

	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/models"
	"github.com/vrsandeep/nowplaying-go/internal/query"
	"github.com/vrsandeep/nowplaying-go/internal/sites"
	"github.com/vrsandeep/nowplaying-go/internal/util"
)

// Host is the page host the mock site answers for.
const Host = "mock.local"

// Markup is a ready, paused page the mock site understands.
const Markup = `
<div class="mock-player">
  <span class="mock-title">Mock Song</span>
  <span class="mock-artist">Mock Artist</span>
  <button class="mock-play">play</button>
  <button class="mock-next">next</button>
  <button class="mock-prev">prev</button>
</div>
<audio class="mock-audio" src="/song.mp3" data-duration="200" data-current-time="5" data-volume="0.4"></audio>
`

type MockSiteProvider struct{}

func New() *MockSiteProvider {
	return &MockSiteProvider{}
}

func (p *MockSiteProvider) GetInfo() models.SiteInfo {
	return models.SiteInfo{
		ID:   "mocksite",
		Name: "Mock Site",
	}
}

func (p *MockSiteProvider) Matches(u *url.URL) bool {
	return u.Hostname() == Host
}

func (p *MockSiteProvider) NewSite(doc dom.Document, reporter *query.Reporter) *sites.Site {
	audio := func() dom.Media { return dom.AsMedia(doc.Query("audio.mock-audio")) }
	withAudio := func(fn func(dom.Media)) bool {
		m := audio()
		if m == nil {
			return false
		}
		fn(m)
		return true
	}
	click := func(selector, key string) func() bool {
		return func() bool {
			return query.EventReport(doc, reporter, selector, func(el dom.Element) { el.Click() }, key)
		}
	}

	return &sites.Site{
		Ready: func() bool { return audio() != nil && doc.Query(".mock-title") != nil },
		Info: sites.Info{
			Player: func() string { return "Mock Site" },
			State: func() models.StateMode {
				m := audio()
				return query.Value(m, m != nil, func(m dom.Media) models.StateMode {
					if m.Paused() {
						return models.StatePaused
					}
					return models.StatePlaying
				}, models.StateStopped)
			},
			Title: func() string {
				return query.SelectReport(doc, reporter, ".mock-title", dom.Element.Text, "", "title")
			},
			Artist: func() string { return query.Select(doc, ".mock-artist", dom.Element.Text, "") },
			Album:  func() string { return "" },
			Cover:  func() string { return "" },
			Duration: func() string {
				m := audio()
				return query.Value(m, m != nil, func(m dom.Media) string { return util.TimeInSecondsToString(m.Duration()) }, "0:00")
			},
			Position: func() string {
				m := audio()
				return query.Value(m, m != nil, func(m dom.Media) string { return util.TimeInSecondsToString(m.CurrentTime()) }, "0:00")
			},
			Volume: func() int {
				m := audio()
				return query.Value(m, m != nil, func(m dom.Media) int { return util.LinearCurve.FromMedia(m.Volume(), m.Muted()) }, 0)
			},
			Rating:  func() int { return 0 },
			Repeat:  func() models.RepeatMode { return models.RepeatNone },
			Shuffle: func() bool { return false },
		},
		Events: sites.Events{
			TogglePlaying: func() bool {
				return withAudio(func(m dom.Media) {
					if m.Paused() {
						m.Play()
					} else {
						m.Pause()
					}
				})
			},
			Next:     click(".mock-next", "next"),
			Previous: click(".mock-prev", "previous"),
			SetPositionSeconds: func(seconds float64) bool {
				return withAudio(func(m dom.Media) { m.SetCurrentTime(seconds) })
			},
			SetPositionPercentage: func(percentage float64) bool {
				return withAudio(func(m dom.Media) { m.SetCurrentTime(m.Duration() * percentage / 100) })
			},
			SetVolume: func(volume int) bool {
				return withAudio(func(m dom.Media) {
					m.SetMuted(volume == 0)
					m.SetVolume(util.LinearCurve.ToMedia(volume))
				})
			},
		},
	}
}
