// Package dom describes the part of a host page that site adapters read and
// mutate. Markup on third-party sites is an unstable external API, so every
// lookup may return nil and callers must treat that as "not rendered yet".
package dom

import (
	"net/url"
	"strings"
)

// Element is a single node of the host page.
type Element interface {
	// Tag returns the lowercase tag name.
	Tag() string
	// Text returns the rendered text with whitespace collapsed, which is what
	// a browser exposes as innerText.
	Text() string
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	HasClass(name string) bool
	// Click dispatches a click to every handler whose selector matches.
	Click()
	// Query returns the first descendant matching selector, or nil.
	Query(selector string) Element
	QueryAll(selector string) []Element
	// Children returns the direct element children.
	Children() []Element
}

// Media is a <video> or <audio> element.
type Media interface {
	Element
	Paused() bool
	Play()
	Pause()
	// Played returns the number of played time ranges. Zero means playback
	// never started, even if the element is not paused.
	Played() int
	CurrentTime() float64
	SetCurrentTime(seconds float64)
	// Duration is NaN until metadata is loaded and +Inf for live streams.
	Duration() float64
	// Volume is the element volume in [0, 1].
	Volume() float64
	SetVolume(v float64)
	Muted() bool
	SetMuted(muted bool)
	Loop() bool
	SetLoop(loop bool)
}

// Artwork is one image advertised through the media session.
type Artwork struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes,omitempty"`
	Type  string `json:"type,omitempty"`
}

// MediaMetadata mirrors the platform level "now playing" metadata a page may
// publish. It is preferred over scraped values when non-empty.
type MediaMetadata struct {
	Title   string    `json:"title"`
	Artist  string    `json:"artist"`
	Album   string    `json:"album"`
	Artwork []Artwork `json:"artwork"`
}

// Document is the whole host page.
type Document interface {
	Query(selector string) Element
	QueryAll(selector string) []Element
	// XPath returns the element nodes selected by expr. Invalid expressions
	// select nothing.
	XPath(expr string) []Element
	Location() *url.URL
	// MediaSession returns nil when the page publishes no metadata.
	MediaSession() *MediaMetadata
}

// AsMedia returns el as a Media element, or nil when el is nil or is not a
// <video>/<audio> element.
func AsMedia(el Element) Media {
	if el == nil || !IsMediaTag(el.Tag()) {
		return nil
	}
	m, ok := el.(Media)
	if !ok {
		return nil
	}
	return m
}

// IsMediaTag reports whether tag names a media element.
func IsMediaTag(tag string) bool {
	switch strings.ToLower(tag) {
	case "video", "audio":
		return true
	}
	return false
}

// QueryParam returns a query parameter from the href of the first element
// matching selector. Missing elements and unparsable links yield "".
func QueryParam(doc Document, selector, param string) string {
	el := doc.Query(selector)
	if el == nil {
		return ""
	}
	href, ok := el.Attr("href")
	if !ok {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get(param)
}
