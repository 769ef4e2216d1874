package models

// SiteInfo contains static information about a site adapter.
type SiteInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StateMode is the playback state reported by a site.
type StateMode string

const (
	StatePlaying StateMode = "PLAYING"
	StatePaused  StateMode = "PAUSED"
	StateStopped StateMode = "STOPPED"
)

// RepeatMode is the repeat setting reported by a site.
type RepeatMode string

const (
	RepeatNone RepeatMode = "NONE"
	RepeatOne  RepeatMode = "ONE"
	RepeatAll  RepeatMode = "ALL"
)

// MaxRating is the top of the rating scale. Sites with a binary favourite
// report either 0 or MaxRating.
const MaxRating = 5

// Snapshot is a point-in-time copy of every info accessor of a site.
type Snapshot struct {
	SiteID   string     `json:"site_id"`
	Player   string     `json:"player"`
	State    StateMode  `json:"state"`
	Title    string     `json:"title"`
	Artist   string     `json:"artist"`
	Album    string     `json:"album"`
	Cover    string     `json:"cover"`
	Duration string     `json:"duration"`
	Position string     `json:"position"`
	Volume   int        `json:"volume"`
	Rating   int        `json:"rating"`
	Repeat   RepeatMode `json:"repeat"`
	Shuffle  bool       `json:"shuffle"`
}

// SelectorReport is emitted when a selector that should exist on a ready
// page matched nothing. It signals upstream markup changes.
type SelectorReport struct {
	SiteID   string `json:"site_id"`
	Key      string `json:"key"`
	Selector string `json:"selector"`
}
