package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/iiroan/herodex/internal/theme"
)

// Brand colors shared by both modes.
const (
	brandRed        = "#ED1D24"
	brandRedPressed = "#C4151B"
)

// Palette is the terminal color palette. The neutral roles come from the
// active theme palette, the accents are fixed per mode.
type Palette struct {
	Name       string
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Accent     lipgloss.Color
	Info       lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color
	Foreground lipgloss.Color
	Border     lipgloss.Color
	Highlight  lipgloss.Color
	Disabled   bool
}

// PaletteFrom derives the terminal palette from a theme palette.
func PaletteFrom(p theme.Palette, darkMode bool) Palette {
	out := Palette{
		Name:       p.Name,
		Primary:    lipgloss.Color(brandRed),
		Secondary:  lipgloss.Color(brandRedPressed),
		Muted:      lipgloss.Color(p.TextSecondary),
		Background: lipgloss.Color(p.Background),
		Surface:    lipgloss.Color(p.Surface),
		Foreground: lipgloss.Color(p.Text),
		Border:     lipgloss.Color(p.Border),
	}
	if darkMode {
		out.Accent = lipgloss.Color("#FF5A5F")
		out.Info = lipgloss.Color("#60A5FA")
		out.Success = lipgloss.Color("#34D399")
		out.Warning = lipgloss.Color("#FBBF24")
		out.Error = lipgloss.Color("#F87171")
		out.Highlight = lipgloss.Color("#FFFFFF")
	} else {
		out.Accent = lipgloss.Color(brandRed)
		out.Info = lipgloss.Color("#1D4ED8")
		out.Success = lipgloss.Color("#15803D")
		out.Warning = lipgloss.Color("#B45309")
		out.Error = lipgloss.Color(brandRedPressed)
		out.Highlight = lipgloss.Color(brandRed)
	}
	return out
}

// withoutColor blanks every color so styles render plain text.
func (p Palette) withoutColor() Palette {
	return Palette{Name: p.Name, Disabled: true}
}
