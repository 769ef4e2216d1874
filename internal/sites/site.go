// Package sites defines the contract every site adapter implements and the
// registry the dispatcher selects adapters from.
package sites

import (
	"net/url"

	"github.com/vrsandeep/nowplaying-go/internal/dom"
	"github.com/vrsandeep/nowplaying-go/internal/models"
	"github.com/vrsandeep/nowplaying-go/internal/query"
	"github.com/vrsandeep/nowplaying-go/internal/util"
)

// Info holds the state accessors of a site. Every accessor must be total:
// whatever the page looks like, it returns a typed default instead of
// failing.
type Info struct {
	Player   func() string
	State    func() models.StateMode
	Title    func() string
	Artist   func() string
	Album    func() string
	Cover    func() string
	Duration func() string
	Position func() string
	Volume   func() int
	Rating   func() int
	Repeat   func() models.RepeatMode
	Shuffle  func() bool
}

// Events holds the command handlers of a site. A nil handler means the site
// does not support the command; callers check before invoking. Handlers
// return whether their target element was found.
type Events struct {
	TogglePlaying         func() bool
	Next                  func() bool
	Previous              func() bool
	SetPositionSeconds    func(seconds float64) bool
	SetPositionPercentage func(percentage float64) bool
	SetVolume             func(volume int) bool
	ToggleRepeat          func() bool
	ToggleShuffle         func() bool
	ToggleThumbsUp        func() bool
	ToggleThumbsDown      func() bool
	SetRating             func(rating int) bool
}

// Site is one adapter bound to one page session. Adapter-local state lives
// in the closures and is discarded with the Site on navigation.
type Site struct {
	// Ready reports whether the page rendered enough to trust Info. It is
	// re-evaluated on every poll.
	Ready  func() bool
	Info   Info
	Events Events
	// Close releases background work, such as cover probes. May be nil.
	Close func()
}

// Provider builds sites for the pages it recognises.
type Provider interface {
	GetInfo() models.SiteInfo
	// Matches reports whether the provider handles the page at u.
	Matches(u *url.URL) bool
	// NewSite binds a new adapter to doc. reporter may be nil.
	NewSite(doc dom.Document, reporter *query.Reporter) *Site
}

// TakeSnapshot reads every accessor once. Numeric fields are clamped to
// their documented ranges whatever the page exposes, and accessors a site
// left nil read as their zero default.
func TakeSnapshot(id string, s *Site) models.Snapshot {
	snap := models.Snapshot{
		SiteID:   id,
		State:    models.StateStopped,
		Duration: "0:00",
		Position: "0:00",
		Repeat:   models.RepeatNone,
	}
	info := s.Info
	if info.Player != nil {
		snap.Player = info.Player()
	}
	if info.State != nil {
		snap.State = info.State()
	}
	if info.Title != nil {
		snap.Title = info.Title()
	}
	if info.Artist != nil {
		snap.Artist = info.Artist()
	}
	if info.Album != nil {
		snap.Album = info.Album()
	}
	if info.Cover != nil {
		snap.Cover = info.Cover()
	}
	if info.Duration != nil {
		snap.Duration = info.Duration()
	}
	if info.Position != nil {
		snap.Position = info.Position()
	}
	if info.Volume != nil {
		snap.Volume = util.Clamp(info.Volume(), 0, 100)
	}
	if info.Rating != nil {
		snap.Rating = util.Clamp(info.Rating(), 0, models.MaxRating)
	}
	if info.Repeat != nil {
		snap.Repeat = info.Repeat()
	}
	if info.Shuffle != nil {
		snap.Shuffle = info.Shuffle()
	}
	return snap
}

// Like emulates a graded rating on a site that only has a favourite toggle:
// ratings of 3 and up mean favourite, lower ratings mean not favourite. It
// toggles only when the current state differs.
func Like(s *Site, rating int) bool {
	if s.Events.ToggleThumbsUp == nil || s.Info.Rating == nil {
		return false
	}
	liked := s.Info.Rating() == models.MaxRating
	if (rating >= 3) != liked {
		return s.Events.ToggleThumbsUp()
	}
	return true
}

// LikeDislike emulates a graded rating on a thumbs up/down site, where the
// site reports 5 for thumbs up, 1 for thumbs down and 0 for neither. Ratings
// of 3 and up mean thumbs up, 1 and 2 thumbs down, 0 clears both.
func LikeDislike(s *Site, rating int) bool {
	if s.Events.ToggleThumbsUp == nil || s.Events.ToggleThumbsDown == nil || s.Info.Rating == nil {
		return false
	}
	current := s.Info.Rating()
	switch {
	case rating >= 3:
		if current != models.MaxRating {
			return s.Events.ToggleThumbsUp()
		}
	case rating > 0:
		if current != 1 {
			return s.Events.ToggleThumbsDown()
		}
	default:
		if current == models.MaxRating {
			return s.Events.ToggleThumbsUp()
		}
		if current == 1 {
			return s.Events.ToggleThumbsDown()
		}
	}
	return true
}
