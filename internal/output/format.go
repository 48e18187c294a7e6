// Package output renders CLI results as text tables or JSON.
package output

import "sync/atomic"

// Mode is the global output mode used by the CLI.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

var mode atomic.Value

func init() {
	mode.Store(ModeText)
}

// SetMode selects JSON output when json is true.
func SetMode(json bool) {
	if json {
		mode.Store(ModeJSON)
		return
	}
	mode.Store(ModeText)
}

// CurrentMode returns the global output mode.
func CurrentMode() Mode {
	if v, ok := mode.Load().(Mode); ok {
		return v
	}
	return ModeText
}

// IsJSON reports whether the global mode is JSON.
func IsJSON() bool {
	return CurrentMode() == ModeJSON
}
