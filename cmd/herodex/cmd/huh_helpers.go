package cmd

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/huh"
)

// newHuhBackKeyMap keeps the default form bindings and lets esc leave a
// form. q is left alone so it can be typed into text fields.
func newHuhBackKeyMap() *huh.KeyMap {
	keyMap := huh.NewDefaultKeyMap()
	keyMap.Quit = key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "back"),
	)
	return keyMap
}
