package ui

import "sync/atomic"

// Preferences controls runtime UI settings that are not part of the
// persisted appearance.
type Preferences struct {
	Dense   bool
	NoColor bool
}

var currentPreferences atomic.Value

func loadPreferences() Preferences {
	p, _ := currentPreferences.Load().(Preferences)
	return p
}

// CurrentPreferences returns the active preferences.
func CurrentPreferences() Preferences {
	return loadPreferences()
}

// ApplyPreferences updates UI preferences and rebuilds the styles.
func ApplyPreferences(p Preferences) {
	currentPreferences.Store(p)
	rebuild()
}
