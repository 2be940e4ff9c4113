package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/iiroan/herodex/internal/config"
	"github.com/iiroan/herodex/internal/theme"
	"github.com/iiroan/herodex/internal/ui"
)

var (
	verbose   bool
	quiet     bool
	noColor   bool
	ephemeral bool
	cfgFile   string
	logger    *log.Logger
	cfg       *config.Config
	herodex   *app
)

var rootCmd = &cobra.Command{
	Use:   "herodex",
	Short: "Browse the character catalog from your terminal",
	Long: ui.Banner() + `
herodex searches the character catalog, keeps your favorites and
remembers how you like things to look.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		cfg, err = config.Load(path)
		if err != nil {
			logger.Warn("could not load config, using defaults", "error", err)
			cfg = config.DefaultConfig()
		}
		if ephemeral {
			cfg.Store.Backend = config.BackendMemory
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", path, err)
		}

		applyUISettings()

		herodex, err = openApp(cmd.Context(), cfg, logger, onThemeChange)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runRootTUI(cmd.Context())
		}
		return cmd.Help()
	},
}

func onThemeChange(snap theme.Snapshot) {
	ui.ApplySnapshot(snap)
	if logger != nil {
		applyLoggerStyles(logger)
	}
}

var rootMenuItems = []ui.MenuItem{
	{ID: "search", TitleText: "Search", Details: "Find characters by the start of their name"},
	{ID: "browse", TitleText: "Browse", Details: "Page through the first characters in the catalog"},
	{ID: "favorites", TitleText: "Favorites", Details: "Characters you starred"},
	{ID: "settings", TitleText: "Settings", Details: "Appearance and notification preferences"},
	{ID: "account", TitleText: "Account", Details: "Log in, register or log out"},
	{ID: "exit", TitleText: "Exit", Details: "Close herodex"},
}

func runRootTUI(ctx context.Context) error {
	for {
		choice, err := ui.RunMenuWithOptions("HERODEX", "Choose what to do next.", rootMenuItems,
			ui.WithInfo("User", currentUserLabel(ctx)),
		)
		if err != nil {
			return runRootFallback(ctx)
		}

		if choice == ui.MenuActionQuit || choice == "exit" || choice == "" {
			return nil
		}

		if err := runRootChoice(ctx, choice); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				continue
			}
			return err
		}

		if err := waitForEnter("Press enter to return to the main menu"); err != nil {
			return err
		}
	}
}

func runRootChoice(ctx context.Context, choice string) error {
	switch choice {
	case "search":
		return runSearchPrompt(ctx)
	case "browse":
		return runSearch(ctx, "", true)
	case "favorites":
		return runFavoritesBrowser(ctx)
	case "settings":
		return runSettings(ctx)
	case "account":
		return runAccountMenu(ctx)
	case "exit", ui.MenuActionQuit, ui.MenuActionBack, "":
		return nil
	default:
		return nil
	}
}

func runRootFallback(ctx context.Context) error {
	ui.StartScreen("MAIN MENU", "Choose what to do next.")
	options := make([]huh.Option[string], 0, len(rootMenuItems))
	for _, item := range rootMenuItems {
		options = append(options, huh.NewOption(item.TitleText, item.ID))
	}

	var fallbackChoice string
	fallbackErr := huh.NewSelect[string]().
		Title("Herodex").
		Description("What would you like to do?").
		Options(options...).
		Value(&fallbackChoice).
		WithTheme(ui.HuhTheme()).
		Run()
	if fallbackErr != nil {
		if errors.Is(fallbackErr, huh.ErrUserAborted) {
			return nil
		}
		return fallbackErr
	}
	return runRootChoice(ctx, fallbackChoice)
}

func waitForEnter(prompt string) error {
	if !ui.IsInteractiveTerminal() {
		return nil
	}
	fmt.Println()
	fmt.Println(ui.Current().HintStyle.Render(prompt))
	reader := bufio.NewReader(os.Stdin)
	_, err := reader.ReadString('\n')
	return err
}

func currentUserLabel(ctx context.Context) string {
	user, err := herodex.sessions.CurrentUser(ctx)
	if err != nil {
		return "guest"
	}
	return user.Email
}

// Execute runs the root command and closes the app afterwards.
func Execute() error {
	err := rootCmd.ExecuteContext(context.Background())
	if closeErr := herodex.Close(); closeErr != nil {
		if logger != nil {
			logger.Error("shutting down", "error", closeErr)
		}
		if err == nil {
			err = closeErr
		}
	}
	if err != nil && logger != nil {
		logger.Error(err.Error())
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep everything in memory for this run")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/herodex/herodex.yaml)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(versionCmd)
}

func applyUISettings() {
	if cfg == nil {
		ui.ApplyPreferences(ui.Preferences{NoColor: noColor})
		return
	}
	ui.ApplyPreferences(ui.Preferences{
		Dense:   cfg.UI.Dense,
		NoColor: cfg.UI.NoColor || noColor,
	})
}

func colorEnabled() bool {
	return !noColor && os.Getenv("NO_COLOR") == "" && (cfg == nil || !cfg.UI.NoColor)
}

func setupLogger() {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.WarnLevel
	}

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: verbose,
		TimeFormat:      time.Kitchen,
		Level:           level,
	})
	applyLoggerStyles(logger)
}

func applyLoggerStyles(l *log.Logger) {
	styles := log.DefaultStyles()
	if colorEnabled() {
		p := ui.Current().Palette
		styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
			SetString("DEBUG").
			Foreground(p.Muted).
			Bold(true)
		styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
			SetString("INFO").
			Foreground(p.Primary).
			Bold(true)
		styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
			SetString("WARN").
			Foreground(p.Warning).
			Bold(true)
		styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
			SetString("ERROR").
			Foreground(p.Error).
			Bold(true)
	}
	l.SetStyles(styles)
}
