package models

// CommandName identifies one of the control events a site may support.
type CommandName string

const (
	CommandTogglePlaying         CommandName = "togglePlaying"
	CommandNext                  CommandName = "next"
	CommandPrevious              CommandName = "previous"
	CommandSetPositionSeconds    CommandName = "setPositionSeconds"
	CommandSetPositionPercentage CommandName = "setPositionPercentage"
	CommandSetVolume             CommandName = "setVolume"
	CommandToggleRepeat          CommandName = "toggleRepeat"
	CommandToggleShuffle         CommandName = "toggleShuffle"
	CommandToggleThumbsUp        CommandName = "toggleThumbsUp"
	CommandToggleThumbsDown      CommandName = "toggleThumbsDown"
	CommandSetRating             CommandName = "setRating"
)

// Commands lists every known command in a stable order.
var Commands = []CommandName{
	CommandTogglePlaying,
	CommandNext,
	CommandPrevious,
	CommandSetPositionSeconds,
	CommandSetPositionPercentage,
	CommandSetVolume,
	CommandToggleRepeat,
	CommandToggleShuffle,
	CommandToggleThumbsUp,
	CommandToggleThumbsDown,
	CommandSetRating,
}

// Command is an inbound control request. Value is only read by commands
// that take an argument.
type Command struct {
	Name  CommandName `json:"name"`
	Value float64     `json:"value,omitempty"`
}

// CommandStatus describes what happened to a routed command.
type CommandStatus string

const (
	// CommandOK means the handler ran and found its target.
	CommandOK CommandStatus = "ok"
	// CommandUnsupported means the active site declares no handler.
	CommandUnsupported CommandStatus = "unsupported"
	// CommandNotFound means the handler ran but its target was absent.
	CommandNotFound CommandStatus = "not_found"
)

// CommandResult is returned by the dispatcher for every routed command.
type CommandResult struct {
	SiteID  string        `json:"site_id"`
	Command CommandName   `json:"command"`
	Status  CommandStatus `json:"status"`
}
