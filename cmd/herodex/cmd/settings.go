package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/iiroan/herodex/internal/settings"
	"github.com/iiroan/herodex/internal/theme"
	"github.com/iiroan/herodex/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Edit appearance and notification preferences",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSettings(cmd.Context())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY=VALUE...",
	Short: "Change settings without the interactive form",
	Long: `Change settings without the interactive form.

Keys:
  dark          true|false
  font          small|medium|large
  push          true|false
  email         true|false
  new_heroes    true|false
  updates       true|false
  newsletters   true|false`,
	Example: "  herodex settings set dark=true font=large push=false\n  herodex settings set dark=false,font=small",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseKeyValueCSV(strings.Join(args, ","))
		if err != nil {
			return err
		}
		if err := applySettingValues(cmd.Context(), herodex, values); err != nil {
			return err
		}
		fmt.Println(ui.Current().SuccessStyle.Render("Updated " + formatKeyValuePairs(values)))
		return nil
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := currentSettingValues(cmd.Context(), herodex)
		if err != nil {
			return err
		}
		fmt.Println(renderSettingValues(values))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsShowCmd)
}

var notificationKeys = []string{"push", "email", "new_heroes", "updates", "newsletters"}

func notificationField(n *settings.Notifications, key string) *bool {
	switch key {
	case "push":
		return &n.PushEnabled
	case "email":
		return &n.EmailEnabled
	case "new_heroes":
		return &n.NewHeroes
	case "updates":
		return &n.Updates
	case "newsletters":
		return &n.Newsletters
	default:
		return nil
	}
}

// applySettingValues validates every value before changing anything.
func applySettingValues(ctx context.Context, a *app, values map[string]string) error {
	var (
		dark      *bool
		tier      theme.FontTier
		notify    settings.Notifications
		notifySet bool
	)

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := values[key]
		switch strings.ToLower(key) {
		case "dark", "dark_mode":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%s: expected true or false, got %q", key, raw)
			}
			dark = &b
		case "font", "font_size":
			t, ok := theme.ParseFontTier(raw)
			if !ok {
				return fmt.Errorf("%s: %w: %q (expected small, medium or large)", key, theme.ErrInvalidTier, raw)
			}
			tier = t
		default:
			if !notifySet {
				current, err := a.notifications.Get(ctx)
				if err != nil {
					return err
				}
				notify = current
				notifySet = true
			}
			field := notificationField(&notify, strings.ToLower(key))
			if field == nil {
				return fmt.Errorf("unknown setting %q", key)
			}
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return fmt.Errorf("%s: expected true or false, got %q", key, raw)
			}
			*field = b
		}
	}

	if dark != nil {
		a.theme.SetDarkMode(*dark)
	}
	if tier != "" {
		if err := a.theme.SetFontTier(tier); err != nil {
			return err
		}
	}
	if notifySet {
		if err := a.notifications.Update(notify); err != nil {
			return fmt.Errorf("saving notifications: %w", err)
		}
	}
	return nil
}

func currentSettingValues(ctx context.Context, a *app) (map[string]string, error) {
	snap := a.theme.Snapshot()
	values := map[string]string{
		"dark": strconv.FormatBool(snap.DarkMode),
		"font": snap.FontTier.String(),
	}
	n, err := a.notifications.Get(ctx)
	if err != nil {
		return nil, err
	}
	for _, key := range notificationKeys {
		values[key] = strconv.FormatBool(*notificationField(&n, key))
	}
	return values, nil
}

func renderSettingValues(values map[string]string) string {
	s := ui.Current()
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%-12s %s", key, s.Bold.Render(values[key])))
	}
	return s.InfoBox.Render(strings.Join(lines, "\n"))
}

func runSettings(ctx context.Context) error {
	ui.StartScreen("SETTINGS", "Select a settings section to edit")

	for {
		choice, err := ui.RunMenuWithOptions("SETTINGS", "Changes apply immediately", []ui.MenuItem{
			{ID: "appearance", TitleText: "Appearance", Details: "Dark mode and text size"},
			{ID: "notifications", TitleText: "Notifications", Details: "Push, email and newsletter preferences"},
			{ID: "show", TitleText: "Show Current", Details: "Print every setting"},
			{ID: "back", TitleText: "Back", Details: "Return to the main menu"},
		}, ui.WithBackNavigation("Back"))
		if errors.Is(err, ui.ErrNonInteractive) {
			values, err := currentSettingValues(ctx, herodex)
			if err != nil {
				return err
			}
			fmt.Println(renderSettingValues(values))
			fmt.Println(ui.Current().HintStyle.Render("Use `herodex settings set KEY=VALUE` to change a setting."))
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case ui.MenuActionBack, ui.MenuActionQuit, "back":
			return nil
		case "appearance":
			if err := runAppearanceForm(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					continue
				}
				return err
			}
		case "notifications":
			if err := runNotificationsForm(ctx); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					continue
				}
				return err
			}
		case "show":
			values, err := currentSettingValues(ctx, herodex)
			if err != nil {
				return err
			}
			fmt.Println(renderSettingValues(values))
			if err := waitForEnter("Press enter to return to Settings"); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func runAppearanceForm() error {
	snap := herodex.theme.Snapshot()
	dark := snap.DarkMode
	tier := snap.FontTier.String()

	tierOptions := make([]huh.Option[string], 0, 3)
	for _, t := range theme.FontTiers() {
		scale := theme.ScaleFor(t)
		label := fmt.Sprintf("%s (body %dpt)", strings.ToUpper(t.String()[:1])+t.String()[1:], scale.MD)
		tierOptions = append(tierOptions, huh.NewOption(label, t.String()))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Dark Mode").
				Description("Use the dark palette").
				Value(&dark),
			huh.NewSelect[string]().
				Title("Text Size").
				Description("Larger sizes also add spacing").
				Options(tierOptions...).
				Value(&tier),
		),
	).WithTheme(ui.HuhTheme()).WithKeyMap(newHuhBackKeyMap())

	if err := form.Run(); err != nil {
		return err
	}

	if dark != snap.DarkMode {
		herodex.theme.SetDarkMode(dark)
	}
	if tier != snap.FontTier.String() {
		if err := herodex.theme.SetFontTier(theme.FontTier(tier)); err != nil {
			return err
		}
	}
	fmt.Println(ui.Current().SuccessStyle.Render("Appearance updated"))
	return nil
}

func runNotificationsForm(ctx context.Context) error {
	prefs, err := herodex.notifications.Get(ctx)
	if err != nil {
		return err
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Push Notifications").
				Description("Alerts on this device").
				Value(&prefs.PushEnabled),
			huh.NewConfirm().
				Title("Email Notifications").
				Description("Summaries sent to your inbox").
				Value(&prefs.EmailEnabled),
			huh.NewConfirm().
				Title("New Heroes").
				Description("When new characters are added").
				Value(&prefs.NewHeroes),
			huh.NewConfirm().
				Title("Updates").
				Description("App and catalog updates").
				Value(&prefs.Updates),
			huh.NewConfirm().
				Title("Newsletters").
				Description("Occasional news and offers").
				Value(&prefs.Newsletters),
		),
	).WithTheme(ui.HuhTheme()).WithKeyMap(newHuhBackKeyMap())

	if err := form.Run(); err != nil {
		return err
	}
	if err := herodex.notifications.Update(prefs); err != nil {
		return fmt.Errorf("saving notifications: %w", err)
	}
	fmt.Println(ui.Current().SuccessStyle.Render("Notification preferences saved"))
	return nil
}
