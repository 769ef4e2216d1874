// Package youtubeembed adapts the embedded YouTube player
// (youtube.com/embed/...). The embed has no native shuffle, so shuffle is
// emulated by clicking a random entry of the rendered playlist panel.
package youtubeembed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vrsandeep/nowplaying-go/internal/cover"
	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/models"
	"github.com/vrsandeep/nowplaying-go/internal/query"
	"github.com/vrsandeep/nowplaying-go/internal/sites"
	"github.com/vrsandeep/nowplaying-go/internal/util"
)

const (
	selTitle          = ".ytp-title-text"
	selTitleLink      = ".ytp-title-link"
	selArtist         = ".ytp-title-expanded-title"
	selAlbum          = ".ytp-playlist-menu-title"
	selPlayer         = ".html5-video-player"
	selVideo          = ".html5-main-video"
	selPlayButton     = ".ytp-play-button"
	selNextButton     = ".ytp-next-button"
	selPrevButton     = ".ytp-prev-button"
	selPlaylist       = ".ytp-playlist-menu-items"
	selPlaylistButton = ".ytp-playlist-menu-button"

	// restartThreshold is how far into a track previous restarts it instead
	// of going back.
	restartThreshold = 3.0
	// placeholderHeight is the height of the image served when a video has
	// no maxres thumbnail.
	placeholderHeight = 90
)

// Options configures the provider.
type Options struct {
	// ThumbnailBase is the thumbnail host, https://i.ytimg.com by default.
	ThumbnailBase string
	Client        *http.Client
	ProbeTimeout  time.Duration
	// Seed seeds shuffle selection. Zero seeds from the clock.
	Seed int64
}

// YoutubeEmbedProvider implements sites.Provider for the embedded player.
type YoutubeEmbedProvider struct {
	opts Options
}

func New(opts Options) *YoutubeEmbedProvider {
	if opts.ThumbnailBase == "" {
		opts.ThumbnailBase = "https://i.ytimg.com"
	}
	opts.ThumbnailBase = strings.TrimSuffix(opts.ThumbnailBase, "/")
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &YoutubeEmbedProvider{opts: opts}
}

func (p *YoutubeEmbedProvider) GetInfo() models.SiteInfo {
	return models.SiteInfo{
		ID:   "youtube-embed",
		Name: "Youtube Embed",
	}
}

func (p *YoutubeEmbedProvider) Matches(u *url.URL) bool {
	switch strings.TrimPrefix(u.Hostname(), "www.") {
	case "youtube.com", "youtube-nocookie.com":
		return strings.HasPrefix(u.Path, "/embed/")
	}
	return false
}

func (p *YoutubeEmbedProvider) NewSite(doc dom.Document, reporter *query.Reporter) *sites.Site {
	seed := p.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &embed{
		doc:      doc,
		reporter: reporter,
		rng:      rand.New(rand.NewSource(seed)),
		prober:   cover.NewProber(p.probeThumbnail, p.opts.ProbeTimeout),
	}
	return &sites.Site{
		Ready: e.ready,
		Info: sites.Info{
			Player:   func() string { return "Youtube Embed" },
			State:    e.state,
			Title:    e.title,
			Artist:   e.artist,
			Album:    e.album,
			Cover:    e.cover,
			Duration: e.duration,
			Position: e.position,
			Volume:   e.volume,
			Rating:   func() int { return 0 },
			Repeat:   e.repeat,
			Shuffle:  func() bool { return e.shuffle },
		},
		Events: sites.Events{
			TogglePlaying:      e.togglePlaying,
			Next:               e.next,
			Previous:           e.previous,
			SetPositionSeconds: e.setPositionSeconds,
			SetVolume:          e.setVolume,
			ToggleRepeat:       e.toggleRepeat,
			ToggleShuffle:      e.toggleShuffle,
		},
		Close: e.prober.Close,
	}
}

// probeThumbnail prefers the maxres thumbnail. YouTube answers a missing
// maxres with a 120x90 placeholder, so anything not taller than that falls
// back to the medium thumbnail, which always exists.
func (p *YoutubeEmbedProvider) probeThumbnail(ctx context.Context, videoID string) string {
	maxres := fmt.Sprintf("%s/vi/%s/maxresdefault.jpg", p.opts.ThumbnailBase, videoID)
	medium := fmt.Sprintf("%s/vi/%s/mqdefault.jpg", p.opts.ThumbnailBase, videoID)

	height, err := cover.ImageHeight(ctx, p.opts.Client, maxres)
	if err != nil {
		// Cancelled means superseded or closed. A timeout is just a failed probe.
		if errors.Is(ctx.Err(), context.Canceled) {
			return ""
		}
		return medium
	}
	if height > placeholderHeight {
		return maxres
	}
	return medium
}

// embed is the adapter state for one page session.
type embed struct {
	doc      dom.Document
	reporter *query.Reporter
	rng      *rand.Rand
	prober   *cover.Prober

	shuffle        bool
	playlistLoaded bool
}

func (e *embed) ready() bool {
	return query.Select(e.doc, selTitle, func(el dom.Element) bool { return len(el.Text()) > 0 }, false) &&
		query.Select(e.doc, selPlayer, func(el dom.Element) bool { return !el.HasClass("unstarted-mode") }, false) &&
		dom.AsMedia(e.doc.Query(selVideo)) != nil
}

func (e *embed) state() models.StateMode {
	state := query.SelectMedia(e.doc, e.reporter, selVideo, func(m dom.Media) models.StateMode {
		if m.Paused() {
			return models.StatePaused
		}
		return models.StatePlaying
	}, models.StatePaused, "state")
	// The video can be unpaused without having started playing.
	if state == models.StatePlaying && query.SelectMedia(e.doc, nil, selVideo, func(m dom.Media) bool { return m.Played() <= 0 }, false, "") {
		state = models.StatePaused
	}
	return state
}

func (e *embed) title() string {
	return query.SelectReport(e.doc, e.reporter, selTitle, dom.Element.Text, "", "title")
}

// artist is not reported: the expanded title renders empty until it loads.
func (e *embed) artist() string {
	return query.Select(e.doc, selArtist, dom.Element.Text, "")
}

func (e *embed) album() string {
	return query.Select(e.doc, selAlbum, dom.Element.Text, "")
}

func (e *embed) cover() string {
	e.prober.Request(e.videoID())
	return e.prober.Current()
}

func (e *embed) duration() string {
	return query.SelectMedia(e.doc, e.reporter, selVideo, func(m dom.Media) string {
		return util.TimeInSecondsToString(m.Duration())
	}, "0:00", "duration")
}

func (e *embed) position() string {
	return query.SelectMedia(e.doc, e.reporter, selVideo, func(m dom.Media) string {
		return util.TimeInSecondsToString(m.CurrentTime())
	}, "0:00", "position")
}

func (e *embed) volume() int {
	return query.SelectMedia(e.doc, e.reporter, selVideo, func(m dom.Media) int {
		return util.LinearCurve.FromMedia(m.Volume(), m.Muted())
	}, 0, "volume")
}

func (e *embed) repeat() models.RepeatMode {
	return query.SelectMedia(e.doc, e.reporter, selVideo, func(m dom.Media) models.RepeatMode {
		if m.Loop() {
			return models.RepeatOne
		}
		return models.RepeatNone
	}, models.RepeatNone, "repeat")
}

func (e *embed) togglePlaying() bool {
	return query.EventReport(e.doc, e.reporter, selPlayButton, func(el dom.Element) { el.Click() }, "togglePlaying")
}

func (e *embed) next() bool {
	if e.shuffle && e.playlistID() != "" {
		return e.playRandom()
	}
	return query.Event(e.doc, selNextButton, func(el dom.Element) {
		if !disabled(el) {
			el.Click()
		}
	})
}

func (e *embed) previous() bool {
	video := dom.AsMedia(e.doc.Query(selVideo))
	if video == nil {
		return false
	}
	withinThreshold := video.CurrentTime() <= restartThreshold

	if e.shuffle && e.playlistID() != "" {
		if withinThreshold {
			return e.playRandom()
		}
		video.SetCurrentTime(0)
		return true
	}

	if withinThreshold {
		if prev := e.doc.Query(selPrevButton); prev != nil && !disabled(prev) {
			prev.Click()
			return true
		}
	}
	video.SetCurrentTime(0)
	return true
}

func (e *embed) setPositionSeconds(seconds float64) bool {
	return query.MediaEvent(e.doc, e.reporter, selVideo, func(m dom.Media) { m.SetCurrentTime(seconds) }, "setPositionSeconds")
}

func (e *embed) setVolume(volume int) bool {
	return query.MediaEvent(e.doc, e.reporter, selVideo, func(m dom.Media) {
		m.SetVolume(util.LinearCurve.ToMedia(volume))
		m.SetMuted(volume <= 0)
	}, "setVolume")
}

func (e *embed) toggleRepeat() bool {
	return query.MediaEvent(e.doc, e.reporter, selVideo, func(m dom.Media) { m.SetLoop(!m.Loop()) }, "toggleRepeat")
}

// toggleShuffle only enables shuffle inside a playlist; outside one it
// always turns shuffle off.
func (e *embed) toggleShuffle() bool {
	if e.playlistID() == "" {
		e.shuffle = false
		return false
	}
	e.shuffle = !e.shuffle
	return true
}

// playRandom clicks a random playlist entry. The panel renders its entries
// lazily, so an empty panel is opened and closed once per page session to
// populate it.
func (e *embed) playRandom() bool {
	playlist := e.doc.Query(selPlaylist)
	if playlist == nil {
		return false
	}
	if !e.playlistLoaded && len(playlist.Children()) == 0 {
		if open := e.doc.Query(selPlaylistButton); open != nil {
			open.Click()
			open.Click()
		}
		e.playlistLoaded = true
	}
	items := playlist.Children()
	if len(items) == 0 {
		return false
	}
	items[e.rng.Intn(len(items))].Click()
	return true
}

func (e *embed) videoID() string {
	return dom.QueryParam(e.doc, selTitleLink, "v")
}

func (e *embed) playlistID() string {
	return dom.QueryParam(e.doc, selTitleLink, "list")
}

func disabled(el dom.Element) bool {
	v, _ := el.Attr("aria-disabled")
	return v == "true"
}
