// Package ui provides Charm-based UI components for herodex
package ui

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"

	"github.com/iiroan/herodex/internal/theme"
)

// Density is how much whitespace views use. It follows the font tier.
type Density int

const (
	DensityCompact Density = iota
	DensityNormal
	DensityRoomy
)

// DensityFor maps a font tier to a layout density.
func DensityFor(tier theme.FontTier) Density {
	switch tier {
	case theme.FontTierSmall:
		return DensityCompact
	case theme.FontTierLarge:
		return DensityRoomy
	default:
		return DensityNormal
	}
}

func (d Density) String() string {
	switch d {
	case DensityCompact:
		return "compact"
	case DensityRoomy:
		return "roomy"
	default:
		return "normal"
	}
}

// Styles is the set of styles built from one palette and density.
type Styles struct {
	Palette  Palette
	Density  Density
	DarkMode bool
	FontTier theme.FontTier
	Width    int

	Bold         lipgloss.Style
	Title        lipgloss.Style
	Subtitle     lipgloss.Style
	Tagline      lipgloss.Style
	HeaderStyle  lipgloss.Style
	PrimaryStyle lipgloss.Style
	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	MutedStyle   lipgloss.Style
	HintStyle    lipgloss.Style

	InfoBox  lipgloss.Style
	ErrorBox lipgloss.Style
	Card     lipgloss.Style

	TableHeader lipgloss.Style
	TableCell   lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusError   lipgloss.Style
	StatusPending lipgloss.Style
}

func newStyles(p Palette, density Density) *Styles {
	width := 60
	pad := 1
	margin := 1
	switch density {
	case DensityCompact:
		width, pad, margin = 48, 0, 0
	case DensityRoomy:
		width, pad, margin = 72, 2, 1
	}

	s := &Styles{Palette: p, Density: density, Width: width}

	s.Bold = lipgloss.NewStyle().Bold(true)
	s.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		MarginBottom(margin)
	s.Subtitle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Italic(true)
	s.Tagline = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)
	s.HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Surface).
		Background(p.Primary).
		Padding(0, pad).
		Bold(true).
		Width(width).
		Align(lipgloss.Center)
	s.PrimaryStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	s.SuccessStyle = lipgloss.NewStyle().
		Foreground(p.Success).
		Bold(true)
	s.WarningStyle = lipgloss.NewStyle().
		Foreground(p.Warning)
	s.ErrorStyle = lipgloss.NewStyle().
		Foreground(p.Error).
		Bold(true)
	s.MutedStyle = lipgloss.NewStyle().
		Foreground(p.Muted)
	s.HintStyle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Faint(true)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, pad).
		MarginTop(margin).
		MarginBottom(margin)
	s.InfoBox = box.BorderForeground(p.Border)
	s.ErrorBox = box.BorderForeground(p.Error)
	s.Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Foreground(p.Foreground).
		Padding(pad/2, pad+1).
		Width(width)

	s.TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Border)
	s.TableCell = lipgloss.NewStyle().
		Padding(0, 1)

	s.StatusSuccess = lipgloss.NewStyle().
		Foreground(p.Success).
		SetString("✓")
	s.StatusError = lipgloss.NewStyle().
		Foreground(p.Error).
		SetString("✗")
	s.StatusPending = lipgloss.NewStyle().
		Foreground(p.Muted).
		SetString("○")

	return s
}

var (
	applyMu  sync.Mutex
	lastSnap = theme.DefaultSnapshot()
	current  atomic.Pointer[Styles]
)

func init() {
	rebuild()
}

// Current returns the active styles. Safe to call from any goroutine.
func Current() *Styles {
	return current.Load()
}

// ApplySnapshot rebuilds the active styles from a registry snapshot. It is
// meant to be passed to theme.Registry.Subscribe.
func ApplySnapshot(snap theme.Snapshot) {
	applyMu.Lock()
	defer applyMu.Unlock()
	lastSnap = snap
	rebuildLocked()
}

func rebuild() {
	applyMu.Lock()
	defer applyMu.Unlock()
	rebuildLocked()
}

func rebuildLocked() {
	prefs := loadPreferences()

	p := PaletteFrom(lastSnap.Palette, lastSnap.DarkMode)
	if prefs.NoColor {
		p = p.withoutColor()
	}
	density := DensityFor(lastSnap.FontTier)
	if prefs.Dense {
		density = DensityCompact
	}

	s := newStyles(p, density)
	s.DarkMode = lastSnap.DarkMode
	s.FontTier = lastSnap.FontTier
	current.Store(s)
}

// Header renders a full-width title bar.
func Header(title string) string {
	return Current().HeaderStyle.Render(strings.ToUpper(title))
}

// Banner returns the herodex banner
func Banner() string {
	banner := `
 █ █ █▀▀ █▀█ █▀█ █▀▄ █▀▀ ▀▄▀
 █▀█ ██▄ █▀▄ █▄█ █▄▀ ██▄ █ █`
	return Current().PrimaryStyle.Render(banner)
}
