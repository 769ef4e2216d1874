package dom

import (
	"math"
	"strconv"
)

// mediaState is the playback state of one media element. It is seeded from
// markup the first time the element is touched:
//
//	autoplay or data-paused="false"  starts unpaused
//	data-played="N"                  number of played ranges
//	data-current-time, data-duration seconds (duration defaults to NaN)
//	data-volume                      volume in [0, 1] (defaults to 1)
//	muted, loop                      boolean attributes
type mediaState struct {
	paused      bool
	played      int
	currentTime float64
	duration    float64
	volume      float64
	muted       bool
	loop        bool
}

func newMediaState(n *node) *mediaState {
	st := &mediaState{
		paused:   true,
		duration: math.NaN(),
		volume:   1,
	}
	if _, ok := n.Attr("autoplay"); ok {
		st.paused = false
	}
	if v, ok := n.Attr("data-paused"); ok {
		st.paused = v != "false"
	}
	if v, ok := n.Attr("data-played"); ok {
		if played, err := strconv.Atoi(v); err == nil && played >= 0 {
			st.played = played
		}
	}
	if v, ok := n.Attr("data-current-time"); ok {
		if t, err := strconv.ParseFloat(v, 64); err == nil && t >= 0 {
			st.currentTime = t
		}
	}
	if v, ok := n.Attr("data-duration"); ok {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			st.duration = d
		}
	}
	if v, ok := n.Attr("data-volume"); ok {
		if vol, err := strconv.ParseFloat(v, 64); err == nil {
			st.volume = clampUnit(vol)
		}
	}
	_, st.muted = n.Attr("muted")
	_, st.loop = n.Attr("loop")
	return st
}

type mediaNode struct {
	*node
}

func (m *mediaNode) state() *mediaState {
	key := m.htmlNode()
	st, ok := m.page.media[key]
	if !ok {
		st = newMediaState(m.node)
		m.page.media[key] = st
	}
	return st
}

func (m *mediaNode) Paused() bool { return m.state().paused }

func (m *mediaNode) Play() {
	st := m.state()
	st.paused = false
	if st.played == 0 {
		st.played = 1
	}
}

func (m *mediaNode) Pause() { m.state().paused = true }

func (m *mediaNode) Played() int { return m.state().played }

func (m *mediaNode) CurrentTime() float64 { return m.state().currentTime }

func (m *mediaNode) SetCurrentTime(seconds float64) {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	st := m.state()
	if !math.IsNaN(st.duration) && !math.IsInf(st.duration, 0) && seconds > st.duration {
		seconds = st.duration
	}
	st.currentTime = seconds
}

func (m *mediaNode) Duration() float64 { return m.state().duration }

func (m *mediaNode) Volume() float64 { return m.state().volume }

func (m *mediaNode) SetVolume(v float64) { m.state().volume = clampUnit(v) }

func (m *mediaNode) Muted() bool { return m.state().muted }

func (m *mediaNode) SetMuted(muted bool) { m.state().muted = muted }

func (m *mediaNode) Loop() bool { return m.state().loop }

func (m *mediaNode) SetLoop(loop bool) { m.state().loop = loop }

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
