// Package jellyfin adapts the Jellyfin web client. Jellyfin publishes
// media session metadata, so scraped values are only a fallback.
package jellyfin

import (
	"net/url"
	"strings"

	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/models"
	"github.com/vrsandeep/nowplaying-go/internal/query"
	"github.com/vrsandeep/nowplaying-go/internal/sites"
	"github.com/vrsandeep/nowplaying-go/internal/util"
)

const (
	selPageTitle    = ".pageTitle"
	selFavorite     = ".nowPlayingBarUserDataButtons > button[data-isfavorite]"
	selRepeatButton = ".toggleRepeatButton"
	selShuffle      = ".btnShuffleQueue"
	selNext         = ".btnNextTrack"
	selPrevious     = ".btnPreviousTrack"
)

// JellyfinProvider implements sites.Provider. Jellyfin is self-hosted, so
// pages are recognised by host names the user configures, or by the
// /web/ path the client is always served from.
type JellyfinProvider struct {
	hosts map[string]bool
}

// New returns a provider for the given Jellyfin hosts. With no hosts it
// matches any page served under /web/ that names itself Jellyfin in the
// URL, which covers the common jellyfin.<domain> deployments.
func New(hosts ...string) *JellyfinProvider {
	p := &JellyfinProvider{hosts: make(map[string]bool)}
	for _, h := range hosts {
		p.hosts[strings.ToLower(h)] = true
	}
	return p
}

func (p *JellyfinProvider) GetInfo() models.SiteInfo {
	return models.SiteInfo{
		ID:   "jellyfin",
		Name: "Jellyfin",
	}
}

func (p *JellyfinProvider) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if p.hosts[host] {
		return true
	}
	return strings.Contains(host, "jellyfin") && strings.HasPrefix(u.Path, "/web")
}

func (p *JellyfinProvider) NewSite(doc dom.Document, reporter *query.Reporter) *sites.Site {
	j := &client{doc: doc}
	site := &sites.Site{
		Ready: func() bool { return j.player() != nil },
		Info: sites.Info{
			Player: func() string { return "Jellyfin" },
			State: func() models.StateMode {
				return queryPlayer(j, func(m dom.Media) models.StateMode {
					if m.Paused() {
						return models.StatePaused
					}
					return models.StatePlaying
				}, models.StateStopped)
			},
			Title:  j.title,
			Artist: func() string { return j.session().Artist },
			Album:  func() string { return j.session().Album },
			Cover:  j.cover,
			Duration: func() string {
				return queryPlayer(j, func(m dom.Media) string { return util.TimeInSecondsToString(m.Duration()) }, "0:00")
			},
			Position: func() string {
				return queryPlayer(j, func(m dom.Media) string { return util.TimeInSecondsToString(m.CurrentTime()) }, "0:00")
			},
			Volume: func() int {
				return queryPlayer(j, func(m dom.Media) int { return util.CubicCurve.FromMedia(m.Volume(), m.Muted()) }, 100)
			},
			Rating: func() int {
				return query.Select(doc, selFavorite, func(el dom.Element) int {
					if v, _ := el.Attr("data-isfavorite"); v == "true" {
						return models.MaxRating
					}
					return 0
				}, 0)
			},
			Repeat:  j.repeat,
			Shuffle: func() bool { return query.Select(doc, selShuffle, func(el dom.Element) bool { return el.HasClass("buttonActive") }, false) },
		},
		Events: sites.Events{
			TogglePlaying: func() bool {
				return j.playerEvent(func(m dom.Media) {
					if m.Paused() {
						m.Play()
					} else {
						m.Pause()
					}
				})
			},
			Next:               click(doc, selNext),
			Previous:           click(doc, selPrevious),
			SetPositionSeconds: func(seconds float64) bool { return j.playerEvent(func(m dom.Media) { m.SetCurrentTime(seconds) }) },
			SetVolume: func(volume int) bool {
				return j.playerEvent(func(m dom.Media) {
					m.SetVolume(util.CubicCurve.ToMedia(volume))
					m.SetMuted(volume <= 0)
				})
			},
			ToggleRepeat:   click(doc, selRepeatButton),
			ToggleShuffle:  click(doc, selShuffle),
			ToggleThumbsUp: click(doc, selFavorite),
		},
	}
	site.Events.SetRating = func(rating int) bool { return sites.Like(site, rating) }
	return site
}

type client struct {
	doc dom.Document
}

// player returns the active media element: a video, or an audio element
// that has a source.
func (j *client) player() dom.Media {
	if m := dom.AsMedia(j.doc.Query("video")); m != nil {
		return m
	}
	return dom.AsMedia(j.doc.Query("audio[src]"))
}

func (j *client) session() dom.MediaMetadata {
	if meta := j.doc.MediaSession(); meta != nil {
		return *meta
	}
	return dom.MediaMetadata{}
}

func (j *client) title() string {
	if t := j.session().Title; t != "" {
		return t
	}
	return query.Select(j.doc, selPageTitle, dom.Element.Text, "")
}

// cover prefers media session artwork and falls back to the video poster.
// Not every video has a poster, so this can still be empty.
func (j *client) cover() string {
	if c := util.MediaSessionCover(j.doc.MediaSession()); c != "" {
		return c
	}
	m := j.player()
	if m == nil {
		return ""
	}
	poster, ok := m.Attr("poster")
	if !ok || poster == "" {
		return ""
	}
	return util.ResolveURL(j.doc.Location(), poster)
}

func (j *client) repeat() models.RepeatMode {
	button := j.doc.Query(selRepeatButton)
	if button == nil {
		return models.RepeatNone
	}
	span := button.Query("span")
	if span == nil {
		return models.RepeatNone
	}
	if span.HasClass("repeat_one") {
		return models.RepeatOne
	}
	if button.HasClass("buttonActive") {
		return models.RepeatAll
	}
	return models.RepeatNone
}

func (j *client) playerEvent(action func(dom.Media)) bool {
	m := j.player()
	if m == nil {
		return false
	}
	action(m)
	return true
}

func queryPlayer[T comparable](j *client, extract func(dom.Media) T, def T) T {
	m := j.player()
	return query.Value(m, m != nil, extract, def)
}

func click(doc dom.Document, selector string) func() bool {
	return func() bool {
		return query.Event(doc, selector, func(el dom.Element) { el.Click() })
	}
}
