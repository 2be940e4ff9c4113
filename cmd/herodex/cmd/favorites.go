package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iiroan/herodex/internal/catalog"
	"github.com/iiroan/herodex/internal/favorites"
	"github.com/iiroan/herodex/internal/ui"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"favs"},
	Short:   "List and manage favorite characters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFavorites(cmd.Context())
	},
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite characters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listFavorites(cmd.Context())
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:   "toggle ID",
	Short: "Add a character to favorites, or remove it if already there",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseCharacterID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		fav, err := herodex.favorites.Contains(ctx, id)
		if err != nil {
			return err
		}
		if fav {
			if err := herodex.favorites.Remove(ctx, id); err != nil {
				return err
			}
			fmt.Println(ui.Current().SuccessStyle.Render(fmt.Sprintf("Removed %d from favorites", id)))
			return nil
		}

		var c *catalog.Character
		err = ui.RunWithSpinner("Looking up character", func() error {
			var err error
			c, err = herodex.catalog.Character(ctx, id)
			return err
		})
		if err != nil {
			return err
		}
		return toggleFavorite(ctx, *c)
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a character from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseCharacterID(args[0])
		if err != nil {
			return err
		}
		return herodex.favorites.Remove(cmd.Context(), id)
	},
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
}

func parseCharacterID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid character id %q", raw)
	}
	return id, nil
}

func toggleFavorite(ctx context.Context, c catalog.Character) error {
	added, err := herodex.favorites.Toggle(ctx, c)
	if err != nil {
		return err
	}
	s := ui.Current()
	if added {
		fmt.Println(s.SuccessStyle.Render("★ " + c.Name + " added to favorites"))
	} else {
		fmt.Println(s.MutedStyle.Render(c.Name + " removed from favorites"))
	}
	return nil
}

func listFavorites(ctx context.Context) error {
	list, err := herodex.favorites.List(ctx)
	if err != nil {
		return err
	}
	fmt.Println(renderFavorites(list))
	return nil
}

func renderFavorites(list []favorites.Favorite) string {
	s := ui.Current()
	if len(list) == 0 {
		return s.MutedStyle.Render("No favorites yet. Search for a character and star it.")
	}
	var b strings.Builder
	b.WriteString(s.TableHeader.Render(fmt.Sprintf("%-8s %s", "ID", "NAME")))
	b.WriteString("\n")
	for _, f := range list {
		fmt.Fprintf(&b, "%-8d %s\n", f.ID, f.Name)
	}
	b.WriteString(s.MutedStyle.Render(fmt.Sprintf("%d favorites", len(list))))
	return b.String()
}

func runFavoritesBrowser(ctx context.Context) error {
	for {
		list, err := herodex.favorites.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println(renderFavorites(list))
			return nil
		}

		items := make([]ui.MenuItem, 0, len(list))
		for _, f := range list {
			items = append(items, ui.MenuItem{
				ID:        strconv.Itoa(f.ID),
				TitleText: f.Name,
				Meta:      []string{"id: " + strconv.Itoa(f.ID), "enter removes from favorites"},
			})
		}

		choice, err := ui.RunMenuWithOptions("FAVORITES", fmt.Sprintf("%d starred characters", len(list)), items,
			ui.WithBackNavigation("Back"),
			ui.WithDetailTitle("Favorite"),
		)
		if errors.Is(err, ui.ErrNonInteractive) {
			fmt.Println(renderFavorites(list))
			return nil
		}
		if err != nil {
			return err
		}
		if choice == ui.MenuActionBack || choice == ui.MenuActionQuit || choice == "" {
			return nil
		}

		id, err := parseCharacterID(choice)
		if err != nil {
			return err
		}
		if err := herodex.favorites.Remove(ctx, id); err != nil {
			return err
		}
	}
}
