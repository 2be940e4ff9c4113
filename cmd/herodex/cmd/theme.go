package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/iiroan/herodex/internal/theme"
	"github.com/iiroan/herodex/internal/ui"
)

var themeJSON bool

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show the active palette and font scale",
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := herodex.theme.Snapshot()
		if themeJSON {
			return printThemeJSON(snap)
		}
		fmt.Println(renderTheme(snap))
		return nil
	},
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch between the light and dark palette",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dark := herodex.theme.ToggleDarkMode()
		mode := "light"
		if dark {
			mode = "dark"
		}
		fmt.Println(ui.Current().SuccessStyle.Render("Switched to the " + mode + " palette"))
		return nil
	},
}

func init() {
	themeCmd.Flags().BoolVar(&themeJSON, "json", false, "Print as JSON")
	themeCmd.AddCommand(themeToggleCmd)
}

type themeOutput struct {
	DarkMode  bool              `json:"darkMode"`
	FontSize  string            `json:"fontSize"`
	Ready     bool              `json:"ready"`
	Colors    map[string]string `json:"colors"`
	FontSizes map[string]int    `json:"fontSizes"`
}

func printThemeJSON(snap theme.Snapshot) error {
	data, err := json.MarshalIndent(themeOutput{
		DarkMode:  snap.DarkMode,
		FontSize:  snap.FontTier.String(),
		Ready:     snap.Ready,
		Colors:    snap.Palette.Colors(),
		FontSizes: snap.FontScale.Sizes(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding theme: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

var colorRoles = []string{"background", "surface", "text", "textSecondary", "border"}
var sizeRoles = []string{"xs", "sm", "md", "lg", "xl", "xxl"}

func renderTheme(snap theme.Snapshot) string {
	s := ui.Current()
	colors := snap.Palette.Colors()
	sizes := snap.FontScale.Sizes()

	lines := []string{
		s.TableHeader.Render(fmt.Sprintf("%s palette, %s text", strings.ToUpper(snap.Palette.Name[:1])+snap.Palette.Name[1:], snap.FontTier)),
	}
	for _, role := range colorRoles {
		swatch := "  "
		if !s.Palette.Disabled {
			swatch = lipgloss.NewStyle().Background(lipgloss.Color(colors[role])).Render("  ")
		}
		lines = append(lines, fmt.Sprintf("%s %-14s %s", swatch, role, colors[role]))
	}

	lines = append(lines, "")
	pairs := make([]string, 0, len(sizes))
	for _, role := range sizeRoles {
		pairs = append(pairs, fmt.Sprintf("%s=%d", role, sizes[role]))
	}
	lines = append(lines, s.MutedStyle.Render("font sizes: "+strings.Join(pairs, " ")))
	lines = append(lines, s.MutedStyle.Render("layout:     "+s.Density.String()))

	return s.InfoBox.Render(strings.Join(lines, "\n"))
}
