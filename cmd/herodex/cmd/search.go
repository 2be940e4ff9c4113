package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/iiroan/herodex/internal/catalog"
	"github.com/iiroan/herodex/internal/ui"
)

var (
	searchBrowse bool
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [QUERY]",
	Short: "Search characters by the start of their name",
	Long: `Search characters by the start of their name.

Without a query the first page of the catalog is listed. API keys are read
from the config file or from HERODEX_PUBLIC_KEY and HERODEX_PRIVATE_KEY.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		return runSearch(cmd.Context(), query, searchBrowse)
	},
}

func init() {
	searchCmd.Flags().BoolVarP(&searchBrowse, "browse", "b", false, "Open the results in the interactive browser")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Print results as JSON")
}

func runSearchPrompt(ctx context.Context) error {
	var query string
	err := huh.NewInput().
		Title("Search Characters").
		Description("Leave empty to browse the catalog").
		Placeholder("spider").
		Value(&query).
		WithTheme(ui.HuhTheme()).
		Run()
	if err != nil {
		return err
	}
	return runSearch(ctx, query, true)
}

func runSearch(ctx context.Context, query string, browse bool) error {
	var page *catalog.Page
	label := "Searching the catalog"
	if strings.TrimSpace(query) != "" {
		label = fmt.Sprintf("Searching for %q", strings.TrimSpace(query))
	}

	err := ui.RunWithSpinner(label, func() error {
		var err error
		page, err = herodex.catalog.Search(ctx, query)
		return err
	})
	if err != nil {
		if errors.Is(err, catalog.ErrMissingCredentials) {
			return fmt.Errorf("%w: set catalog.public_key and catalog.private_key or export %s", err, "HERODEX_PUBLIC_KEY/HERODEX_PRIVATE_KEY")
		}
		return err
	}

	if searchJSON {
		data, err := json.MarshalIndent(page.Results, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding results: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(page.Results) == 0 {
		fmt.Println(ui.Current().WarningStyle.Render("No characters found"))
		return nil
	}

	if browse {
		err := browseCharacters(ctx, page)
		if !errors.Is(err, ui.ErrNonInteractive) {
			return err
		}
	}

	fmt.Println(renderCharacterTable(page))
	return nil
}

func browseCharacters(ctx context.Context, page *catalog.Page) error {
	byID := make(map[string]catalog.Character, len(page.Results))
	selected := ""

	for {
		items := make([]ui.MenuItem, 0, len(page.Results))
		for _, c := range page.Results {
			id := strconv.Itoa(c.ID)
			byID[id] = c
			items = append(items, characterMenuItem(ctx, c))
		}

		subtitle := fmt.Sprintf("%d of %d characters", page.Count, page.Total)
		choice, err := ui.RunMenuWithOptions("CHARACTERS", subtitle, items,
			ui.WithBackNavigation("Back"),
			ui.WithDetailTitle("Character"),
			ui.WithInitialSelectionID(selected),
		)
		if err != nil {
			return err
		}

		c, ok := byID[choice]
		if !ok {
			return nil
		}
		selected = choice

		if err := showCharacter(ctx, c); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				continue
			}
			return err
		}
	}
}

func characterMenuItem(ctx context.Context, c catalog.Character) ui.MenuItem {
	title := c.Name
	if fav, err := herodex.favorites.Contains(ctx, c.ID); err == nil && fav {
		title = "★ " + title
	}
	return ui.MenuItem{
		ID:        strconv.Itoa(c.ID),
		TitleText: title,
		Details:   c.Description,
		Meta: []string{
			fmt.Sprintf("comics: %d  series: %d  stories: %d", c.Comics.Available, c.Series.Available, c.Stories.Available),
			"id: " + strconv.Itoa(c.ID),
		},
	}
}

func showCharacter(ctx context.Context, c catalog.Character) error {
	ui.ClearScreen()
	fmt.Println(renderCharacterCard(c))

	fav, err := herodex.favorites.Contains(ctx, c.ID)
	if err != nil {
		return err
	}
	prompt := "Add to favorites?"
	if fav {
		prompt = "Remove from favorites?"
	}

	var toggle bool
	if err := huh.NewConfirm().
		Title(prompt).
		Value(&toggle).
		WithTheme(ui.HuhTheme()).
		Run(); err != nil {
		return err
	}
	if !toggle {
		return nil
	}
	return toggleFavorite(ctx, c)
}

func renderCharacterCard(c catalog.Character) string {
	s := ui.Current()
	lines := []string{s.PrimaryStyle.Render(c.Name)}
	if c.Description != "" {
		lines = append(lines, "", c.Description)
	} else {
		lines = append(lines, "", s.MutedStyle.Render("No description available."))
	}

	sections := []struct {
		label string
		list  catalog.List
	}{
		{"Comics", c.Comics},
		{"Series", c.Series},
		{"Stories", c.Stories},
	}
	for _, section := range sections {
		if len(section.list.Items) == 0 {
			continue
		}
		lines = append(lines, "", s.Bold.Render(fmt.Sprintf("%s (%d)", section.label, section.list.Available)))
		for i, item := range section.list.Items {
			if i == 3 {
				break
			}
			lines = append(lines, "  "+item.Name)
		}
	}

	if img := c.ImageURL(); img != "" {
		lines = append(lines, "", s.MutedStyle.Render(img))
	}
	for _, link := range c.URLs {
		lines = append(lines, s.MutedStyle.Render(link.Type+": "+link.URL))
	}
	return s.Card.Render(strings.Join(lines, "\n"))
}

func renderCharacterTable(page *catalog.Page) string {
	s := ui.Current()
	var b strings.Builder
	b.WriteString(s.TableHeader.Render(fmt.Sprintf("%-8s %-32s %s", "ID", "NAME", "COMICS")))
	b.WriteString("\n")
	for _, c := range page.Results {
		fmt.Fprintf(&b, "%-8d %-32s %d\n", c.ID, truncate(c.Name, 32), c.Comics.Available)
	}
	b.WriteString(s.MutedStyle.Render(fmt.Sprintf("%d of %d shown", page.Count, page.Total)))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
