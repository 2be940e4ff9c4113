package ui

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	teav1 "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iiroan/herodex/internal/storage"
	"github.com/iiroan/herodex/internal/theme"
)

func resetUI(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		ApplyPreferences(Preferences{})
		ApplySnapshot(theme.DefaultSnapshot())
	})
}

func TestDefaultsBeforeAnySnapshot(t *testing.T) {
	s := Current()
	require.NotNil(t, s)
	assert.False(t, s.DarkMode)
	assert.Equal(t, theme.FontTierMedium, s.FontTier)
	assert.Equal(t, DensityNormal, s.Density)
}

func TestApplySnapshotFollowsRegistry(t *testing.T) {
	resetUI(t)

	reg := theme.New(storage.NewMemoryStore())
	snap, unsubscribe := reg.Subscribe(ApplySnapshot)
	defer unsubscribe()
	ApplySnapshot(snap)

	assert.Equal(t, lipgloss.Color("#F5F5F5"), Current().Palette.Background)

	reg.SetDarkMode(true)
	s := Current()
	assert.True(t, s.DarkMode)
	assert.Equal(t, lipgloss.Color("#121212"), s.Palette.Background)
	assert.Equal(t, lipgloss.Color("#1E1E1E"), s.Palette.Surface)
	assert.Equal(t, lipgloss.Color("#FFFFFF"), s.Palette.Foreground)
	assert.Equal(t, lipgloss.Color("#AAAAAA"), s.Palette.Muted)
	assert.Equal(t, lipgloss.Color("#333333"), s.Palette.Border)

	require.NoError(t, reg.SetFontTier(theme.FontTierLarge))
	assert.Equal(t, DensityRoomy, Current().Density)
	assert.Equal(t, 72, Current().Width)

	require.NoError(t, reg.SetFontTier(theme.FontTierSmall))
	assert.Equal(t, DensityCompact, Current().Density)
}

func TestPreferencesOverrideSnapshot(t *testing.T) {
	resetUI(t)

	ApplySnapshot(theme.Snapshot{
		Palette:  theme.PaletteFor(true),
		DarkMode: true,
		FontTier: theme.FontTierLarge,
	})
	ApplyPreferences(Preferences{NoColor: true, Dense: true})

	s := Current()
	assert.True(t, s.Palette.Disabled)
	assert.Equal(t, lipgloss.Color(""), s.Palette.Primary)
	assert.Equal(t, DensityCompact, s.Density)
	assert.True(t, s.DarkMode)
	assert.True(t, CurrentPreferences().NoColor)

	ApplyPreferences(Preferences{})
	assert.Equal(t, DensityRoomy, Current().Density)
	assert.Equal(t, lipgloss.Color(brandRed), Current().Palette.Primary)
}

func TestDensityFor(t *testing.T) {
	assert.Equal(t, DensityCompact, DensityFor(theme.FontTierSmall))
	assert.Equal(t, DensityNormal, DensityFor(theme.FontTierMedium))
	assert.Equal(t, DensityRoomy, DensityFor(theme.FontTierLarge))
	assert.Equal(t, DensityNormal, DensityFor("huge"))
	assert.Equal(t, "roomy", DensityRoomy.String())
}

func TestHuhThemeBuilds(t *testing.T) {
	resetUI(t)
	assert.NotNil(t, HuhTheme())
	ApplyPreferences(Preferences{NoColor: true})
	assert.NotNil(t, HuhTheme())
}

func TestMenuLayoutFor(t *testing.T) {
	tests := []struct {
		name        string
		width       int
		height      int
		wantStacked bool
	}{
		{name: "wide", width: 140, height: 40, wantStacked: false},
		{name: "narrow", width: 80, height: 30, wantStacked: true},
		{name: "tiny", width: 10, height: 5, wantStacked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := menuLayoutFor(tt.width, tt.height)
			assert.Equal(t, tt.wantStacked, layout.stacked)
			assert.GreaterOrEqual(t, layout.listHeight, 5)
			assert.GreaterOrEqual(t, layout.detailHeight, 5)
			assert.GreaterOrEqual(t, layout.listWidth, 20)
			if !layout.stacked {
				assert.Equal(t, tt.width-2, layout.listWidth+layout.detailWidth)
				assert.GreaterOrEqual(t, layout.detailWidth, 20)
			}
		})
	}
}

func TestMenuSelectByNumber(t *testing.T) {
	items := []MenuItem{
		{ID: "search", TitleText: "Search"},
		{ID: "favorites", TitleText: "Favorites"},
		{ID: "settings", TitleText: "Settings"},
	}
	m := newMenuModel("Herodex", "", items, defaultMenuConfig())
	m.list.SetSize(40, 10)

	assert.True(t, m.selectByNumber("2"))
	assert.Equal(t, "favorites", m.choice)
	assert.False(t, m.selectByNumber("7"))
	assert.False(t, m.selectByNumber("x"))
}

func TestMenuInitialSelectionAndOptions(t *testing.T) {
	items := []MenuItem{
		{ID: "1009368", TitleText: "Iron Man", Meta: []string{"comics: 3"}},
		{ID: "1009610", TitleText: "Spider-Man"},
	}
	cfg := defaultMenuConfig()
	for _, opt := range []MenuOption{
		WithInitialSelectionID("1009610"),
		WithBackNavigation("Main menu"),
		WithDetailTitle("Character"),
		WithInfo("User", "peter@dailybugle.com"),
	} {
		opt(&cfg)
	}

	m := newMenuModel("Results", "", items, cfg)
	selected, ok := m.list.SelectedItem().(MenuItem)
	require.True(t, ok)
	assert.Equal(t, "1009610", selected.ID)
	assert.True(t, m.keys.back)
	assert.Equal(t, "Character", m.detailTitle)

	panel := m.renderRightPanel(40, 20)
	assert.Contains(t, panel, "Spider-Man")
	assert.Contains(t, panel, "peter@dailybugle.com")
}

func TestMenuItemFilterValue(t *testing.T) {
	item := MenuItem{ID: "7", TitleText: "Thor", Details: "God of Thunder"}
	assert.Equal(t, "Thor God of Thunder 7", item.FilterValue())
}

func TestMenuLeaveKeys(t *testing.T) {
	items := []MenuItem{{ID: "search", TitleText: "Search"}}

	root := newMenuModel("Herodex", "", items, defaultMenuConfig())
	next, _ := root.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Equal(t, MenuActionQuit, next.(menuModel).choice)

	cfg := defaultMenuConfig()
	WithBackNavigation("Back")(&cfg)
	sub := newMenuModel("Settings", "", items, cfg)
	next, _ = sub.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Equal(t, MenuActionBack, next.(menuModel).choice)

	next, _ = sub.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Equal(t, "search", next.(menuModel).choice)
	assert.True(t, next.(menuModel).done)
}

func TestSpinnerModelReportsWorkResult(t *testing.T) {
	failure := errors.New("catalog unreachable")
	m := newSpinnerModel("Searching", func() error { return failure })

	next, cmd := m.Update(workDoneMsg{err: failure})
	require.NotNil(t, cmd)
	done := next.(spinnerModel)
	assert.True(t, done.finished)
	assert.ErrorIs(t, done.err, failure)
	assert.Contains(t, done.View(), "Searching")

	next, _ = m.Update(teav1.KeyMsg{Type: teav1.KeyCtrlC})
	assert.ErrorIs(t, next.(spinnerModel).err, ErrInterrupted)
}
