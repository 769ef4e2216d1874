package youtubeembed

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/models"
	"github.com/vrsandeep/nowplaying-go/internal/query"
	"github.com/vrsandeep/nowplaying-go/internal/sites"
)

const embedURL = "https://www.youtube.com/embed/vid1?list=PL1"

func embedMarkup(link, video string) string {
	return fmt.Sprintf(`
<div class="html5-video-player paused-mode">
  %s
  <div class="ytp-chrome-top">
    <a class="ytp-title-link" href="%s"><span class="ytp-title-text">Video Title</span></a>
    <span class="ytp-title-expanded-title">Channel Name</span>
  </div>
  <span class="ytp-playlist-menu-title">Road Trip Mix</span>
  <button class="ytp-play-button"></button>
  <button class="ytp-prev-button" aria-disabled="false"></button>
  <button class="ytp-next-button" aria-disabled="false"></button>
  <button class="ytp-playlist-menu-button"></button>
  <div class="ytp-playlist-menu-items"></div>
</div>`, video, link)
}

const defaultVideo = `<video class="html5-main-video" data-duration="3661" data-current-time="1.5" data-volume="0.5" muted></video>`

type fixture struct {
	page    *dom.Page
	site    *sites.Site
	reports []models.SelectorReport
	clicks  map[string]int
}

func newFixture(t *testing.T, markup string, opts Options) *fixture {
	t.Helper()
	page, err := dom.NewPageFromString(markup, embedURL)
	require.NoError(t, err)
	f := &fixture{page: page, clicks: map[string]int{}}
	for _, sel := range []string{selPlayButton, selNextButton, selPrevButton, selPlaylistButton} {
		sel := sel
		page.OnClick(sel, func(dom.Element) { f.clicks[sel]++ })
	}
	page.OnClick(selPlaylist+" > *", func(el dom.Element) {
		idx, _ := el.Attr("data-index")
		f.clicks["item-"+idx]++
	})
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	reporter := query.NewReporter("youtube-embed", func(r models.SelectorReport) { f.reports = append(f.reports, r) })
	f.site = New(opts).NewSite(page, reporter)
	t.Cleanup(f.site.Close)
	return f
}

func playlistFixture(t *testing.T) *fixture {
	return newFixture(t, embedMarkup("https://www.youtube.com/watch?v=vid1&list=PL1", defaultVideo), Options{})
}

func soloFixture(t *testing.T) *fixture {
	return newFixture(t, embedMarkup("https://www.youtube.com/watch?v=vid1", defaultVideo), Options{})
}

// renderPlaylistOnOpen makes the playlist button populate an empty panel,
// the way the embed renders its entries lazily.
func (f *fixture) renderPlaylistOnOpen(items int) {
	f.page.OnClick(selPlaylistButton, func(dom.Element) {
		panel := f.page.Document().Find(selPlaylist)
		if panel.Children().Length() > 0 {
			return
		}
		for i := 0; i < items; i++ {
			panel.AppendHtml(fmt.Sprintf(`<a class="ytp-playlist-menu-item" data-index="%d"></a>`, i))
		}
	})
}

func (f *fixture) itemClicks() int {
	total := 0
	for k, v := range f.clicks {
		if len(k) > 5 && k[:5] == "item-" {
			total += v
		}
	}
	return total
}

func (f *fixture) video() dom.Media {
	return f.page.Media(selVideo)
}

func TestMatches(t *testing.T) {
	p := New(Options{})
	for raw, want := range map[string]bool{
		"https://www.youtube.com/embed/abc":         true,
		"https://youtube.com/embed/abc?list=x":      true,
		"https://www.youtube-nocookie.com/embed/ab": true,
		"https://www.youtube.com/watch?v=abc":       false,
		"https://music.youtube.com/embed/abc":       false,
		"https://example.com/embed/abc":             false,
	} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, p.Matches(u), raw)
	}
	assert.Equal(t, "youtube-embed", p.GetInfo().ID)
}

func TestReady(t *testing.T) {
	t.Run("Empty page", func(t *testing.T) {
		f := newFixture(t, `<div></div>`, Options{})
		assert.False(t, f.site.Ready())
	})

	t.Run("Unstarted player", func(t *testing.T) {
		f := playlistFixture(t)
		f.page.Document().Find(selPlayer).AddClass("unstarted-mode")
		assert.False(t, f.site.Ready())
		f.page.Document().Find(selPlayer).RemoveClass("unstarted-mode")
		assert.True(t, f.site.Ready())
	})

	t.Run("No video element", func(t *testing.T) {
		f := newFixture(t, embedMarkup("https://www.youtube.com/watch?v=vid1", ""), Options{})
		assert.False(t, f.site.Ready())
	})

	t.Run("Title not rendered yet", func(t *testing.T) {
		f := playlistFixture(t)
		f.page.Document().Find(selTitle).SetText("")
		assert.False(t, f.site.Ready())
	})
}

func TestDefaultsWithoutMarkup(t *testing.T) {
	f := newFixture(t, `<div></div>`, Options{})
	info := f.site.Info

	assert.Equal(t, "Youtube Embed", info.Player())
	assert.Equal(t, models.StatePaused, info.State())
	assert.Equal(t, "", info.Title())
	assert.Equal(t, "", info.Artist())
	assert.Equal(t, "", info.Album())
	assert.Equal(t, "", info.Cover())
	assert.Equal(t, "0:00", info.Duration())
	assert.Equal(t, "0:00", info.Position())
	assert.Equal(t, 0, info.Volume())
	assert.Equal(t, 0, info.Rating())
	assert.Equal(t, models.RepeatNone, info.Repeat())
	assert.False(t, info.Shuffle())

	events := f.site.Events
	assert.False(t, events.TogglePlaying())
	assert.False(t, events.Next())
	assert.False(t, events.Previous())
	assert.False(t, events.SetPositionSeconds(10))
	assert.False(t, events.SetVolume(50))
	assert.False(t, events.ToggleRepeat())
	assert.False(t, events.ToggleShuffle())

	assert.Nil(t, events.SetPositionPercentage)
	assert.Nil(t, events.ToggleThumbsUp)
	assert.Nil(t, events.ToggleThumbsDown)
	assert.Nil(t, events.SetRating)

	keys := map[string]bool{}
	for _, r := range f.reports {
		assert.False(t, keys[r.Key], "key %s reported twice", r.Key)
		keys[r.Key] = true
	}
	assert.True(t, keys["state"])
	assert.True(t, keys["title"])
	assert.True(t, keys["togglePlaying"])
	assert.False(t, keys["artist"], "artist is optional")
}

func TestInfo(t *testing.T) {
	f := playlistFixture(t)
	info := f.site.Info

	assert.Equal(t, "Video Title", info.Title())
	assert.Equal(t, "Channel Name", info.Artist())
	assert.Equal(t, "Road Trip Mix", info.Album())
	assert.Equal(t, "1:01:01", info.Duration())
	assert.Equal(t, "0:01", info.Position())
	assert.Equal(t, models.RepeatNone, info.Repeat())
	assert.Empty(t, f.reports)
}

func TestState(t *testing.T) {
	f := playlistFixture(t)
	assert.Equal(t, models.StatePaused, f.site.Info.State())

	f.video().Play()
	assert.Equal(t, models.StatePlaying, f.site.Info.State())

	t.Run("Unpaused but never played", func(t *testing.T) {
		video := `<video class="html5-main-video" data-paused="false" data-played="0"></video>`
		g := newFixture(t, embedMarkup("https://www.youtube.com/watch?v=v", video), Options{})
		assert.Equal(t, models.StatePaused, g.site.Info.State())
	})
}

func TestVolume(t *testing.T) {
	f := playlistFixture(t)

	assert.Equal(t, 0, f.site.Info.Volume(), "muted reads as 0")

	require.True(t, f.site.Events.SetVolume(50))
	assert.False(t, f.video().Muted())
	assert.InDelta(t, 0.5, f.video().Volume(), 1e-9)
	assert.Equal(t, 50, f.site.Info.Volume())

	require.True(t, f.site.Events.SetVolume(0))
	assert.True(t, f.video().Muted())
	assert.Equal(t, 0, f.site.Info.Volume())

	for ui := 0; ui <= 100; ui += 7 {
		f.site.Events.SetVolume(ui)
		assert.Equal(t, ui, f.site.Info.Volume())
	}
}

func TestRepeatAndSeek(t *testing.T) {
	f := playlistFixture(t)

	require.True(t, f.site.Events.ToggleRepeat())
	assert.Equal(t, models.RepeatOne, f.site.Info.Repeat())
	require.True(t, f.site.Events.ToggleRepeat())
	assert.Equal(t, models.RepeatNone, f.site.Info.Repeat())

	require.True(t, f.site.Events.SetPositionSeconds(125))
	assert.Equal(t, "2:05", f.site.Info.Position())

	require.True(t, f.site.Events.TogglePlaying())
	assert.Equal(t, 1, f.clicks[selPlayButton])
}

func TestPreviousWithoutShuffle(t *testing.T) {
	t.Run("Navigates back within threshold", func(t *testing.T) {
		for _, pos := range []float64{0, 1.5, 3} {
			f := playlistFixture(t)
			f.video().SetCurrentTime(pos)
			require.True(t, f.site.Events.Previous())
			assert.Equal(t, 1, f.clicks[selPrevButton], "position %v", pos)
		}
	})

	t.Run("Restarts past threshold", func(t *testing.T) {
		for _, pos := range []float64{3.01, 10, 3000} {
			f := playlistFixture(t)
			f.video().SetCurrentTime(pos)
			require.True(t, f.site.Events.Previous())
			assert.Equal(t, 0, f.clicks[selPrevButton], "position %v", pos)
			assert.Equal(t, 0.0, f.video().CurrentTime())
		}
	})

	t.Run("Disabled button restarts", func(t *testing.T) {
		f := playlistFixture(t)
		f.page.Query(selPrevButton).SetAttr("aria-disabled", "true")
		f.video().SetCurrentTime(1)
		require.True(t, f.site.Events.Previous())
		assert.Equal(t, 0, f.clicks[selPrevButton])
		assert.Equal(t, 0.0, f.video().CurrentTime())
	})
}

func TestNextWithoutShuffle(t *testing.T) {
	f := playlistFixture(t)
	require.True(t, f.site.Events.Next())
	assert.Equal(t, 1, f.clicks[selNextButton])

	f.page.Query(selNextButton).SetAttr("aria-disabled", "true")
	require.True(t, f.site.Events.Next())
	assert.Equal(t, 1, f.clicks[selNextButton], "disabled next is not clicked")
}

func TestShuffle(t *testing.T) {
	t.Run("Next picks a playlist entry and loads the panel once", func(t *testing.T) {
		f := playlistFixture(t)
		f.renderPlaylistOnOpen(4)

		require.True(t, f.site.Events.ToggleShuffle())
		assert.True(t, f.site.Info.Shuffle())

		require.True(t, f.site.Events.Next())
		assert.Equal(t, 2, f.clicks[selPlaylistButton], "panel opened and closed")
		assert.Equal(t, 1, f.itemClicks())
		assert.Equal(t, 0, f.clicks[selNextButton])

		require.True(t, f.site.Events.Next())
		assert.Equal(t, 2, f.clicks[selPlaylistButton], "panel is only forced once")
		assert.Equal(t, 2, f.itemClicks())
	})

	t.Run("Panel is forced at most once even if it stays empty", func(t *testing.T) {
		f := playlistFixture(t)
		require.True(t, f.site.Events.ToggleShuffle())
		assert.False(t, f.site.Events.Next())
		assert.False(t, f.site.Events.Next())
		assert.Equal(t, 2, f.clicks[selPlaylistButton])
	})

	t.Run("Previous within threshold picks an entry", func(t *testing.T) {
		f := playlistFixture(t)
		f.renderPlaylistOnOpen(3)
		f.site.Events.ToggleShuffle()
		f.video().SetCurrentTime(2)

		require.True(t, f.site.Events.Previous())
		assert.Equal(t, 1, f.itemClicks())
		assert.Equal(t, 0, f.clicks[selPrevButton])
	})

	t.Run("Previous past threshold restarts", func(t *testing.T) {
		f := playlistFixture(t)
		f.renderPlaylistOnOpen(3)
		f.site.Events.ToggleShuffle()
		f.video().SetCurrentTime(30)

		require.True(t, f.site.Events.Previous())
		assert.Equal(t, 0, f.itemClicks())
		assert.Equal(t, 0.0, f.video().CurrentTime())
	})

	t.Run("Toggle twice turns it off", func(t *testing.T) {
		f := playlistFixture(t)
		f.site.Events.ToggleShuffle()
		f.site.Events.ToggleShuffle()
		assert.False(t, f.site.Info.Shuffle())
	})

	t.Run("No playlist falls back to native next", func(t *testing.T) {
		f := soloFixture(t)
		f.renderPlaylistOnOpen(3)

		assert.False(t, f.site.Events.ToggleShuffle())
		assert.False(t, f.site.Info.Shuffle())

		require.True(t, f.site.Events.Next())
		assert.Equal(t, 1, f.clicks[selNextButton])
		assert.Equal(t, 0, f.itemClicks())
		assert.Equal(t, 0, f.clicks[selPlaylistButton])
	})

	t.Run("Leaving the playlist disables shuffle", func(t *testing.T) {
		f := playlistFixture(t)
		f.site.Events.ToggleShuffle()
		f.page.Query(selTitleLink).SetAttr("href", "https://www.youtube.com/watch?v=other")
		f.site.Events.ToggleShuffle()
		assert.False(t, f.site.Info.Shuffle())
	})
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestCover(t *testing.T) {
	large := pngOf(t, 16, 720)
	placeholder := pngOf(t, 120, 90)
	mux := http.NewServeMux()
	mux.HandleFunc("/vi/vid1/maxresdefault.jpg", func(w http.ResponseWriter, r *http.Request) { w.Write(large) })
	mux.HandleFunc("/vi/vid2/maxresdefault.jpg", func(w http.ResponseWriter, r *http.Request) { w.Write(placeholder) })
	server := httptest.NewServer(mux)
	defer server.Close()

	f := newFixture(t, embedMarkup("https://www.youtube.com/watch?v=vid1", defaultVideo), Options{
		ThumbnailBase: server.URL + "/",
		Client:        server.Client(),
		ProbeTimeout:  5 * time.Second,
	})

	coverIs := func(want string) {
		t.Helper()
		assert.Eventually(t, func() bool { return f.site.Info.Cover() == want }, 2*time.Second, 10*time.Millisecond)
	}

	coverIs(server.URL + "/vi/vid1/maxresdefault.jpg")

	f.page.Query(selTitleLink).SetAttr("href", "https://www.youtube.com/watch?v=vid2")
	coverIs(server.URL + "/vi/vid2/mqdefault.jpg")

	// Missing maxres thumbnail (404) falls back to the medium one.
	f.page.Query(selTitleLink).SetAttr("href", "https://www.youtube.com/watch?v=vid3")
	coverIs(server.URL + "/vi/vid3/mqdefault.jpg")
}

func TestCoverTimeout(t *testing.T) {
	large := pngOf(t, 16, 720)
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/vi/vid1/maxresdefault.jpg", func(w http.ResponseWriter, r *http.Request) { w.Write(large) })
	mux.HandleFunc("/vi/vid2/maxresdefault.jpg", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	defer close(release)

	f := newFixture(t, embedMarkup("https://www.youtube.com/watch?v=vid1", defaultVideo), Options{
		ThumbnailBase: server.URL,
		Client:        server.Client(),
		ProbeTimeout:  200 * time.Millisecond,
	})

	vid1 := server.URL + "/vi/vid1/maxresdefault.jpg"
	assert.Eventually(t, func() bool { return f.site.Info.Cover() == vid1 }, 2*time.Second, 10*time.Millisecond)

	// A hanging maxres download times out and falls back to the medium one.
	f.page.Query(selTitleLink).SetAttr("href", "https://www.youtube.com/watch?v=vid2")
	vid2 := server.URL + "/vi/vid2/mqdefault.jpg"
	assert.Eventually(t, func() bool { return f.site.Info.Cover() == vid2 }, 3*time.Second, 20*time.Millisecond)
}
