package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/iiroan/herodex/internal/session"
	"github.com/iiroan/herodex/internal/ui"
)

var (
	accountName     string
	accountEmail    string
	accountPassword string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a local account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := session.Registration{
			Name:            accountName,
			Email:           accountEmail,
			Password:        accountPassword,
			ConfirmPassword: accountPassword,
		}
		if ui.IsInteractiveTerminal() && (reg.Email == "" || reg.Password == "") {
			if err := runRegisterForm(&reg); err != nil {
				return err
			}
		}
		return register(cmd.Context(), reg)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to a local account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password := accountEmail, accountPassword
		if ui.IsInteractiveTerminal() && (email == "" || password == "") {
			if err := runLoginForm(&email, &password); err != nil {
				return err
			}
		}
		return login(cmd.Context(), email, password)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of the current account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := herodex.sessions.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(ui.Current().MutedStyle.Render("Logged out"))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := herodex.sessions.CurrentUser(cmd.Context())
		if errors.Is(err, session.ErrNotAuthenticated) {
			fmt.Println(ui.Current().MutedStyle.Render("Not logged in"))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(renderUser(user))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{registerCmd, loginCmd} {
		c.Flags().StringVar(&accountEmail, "email", "", "Account email")
		c.Flags().StringVar(&accountPassword, "password", "", "Account password")
	}
	registerCmd.Flags().StringVar(&accountName, "name", "", "Display name")
}

func register(ctx context.Context, reg session.Registration) error {
	user, err := herodex.sessions.Register(ctx, reg)
	if err != nil {
		return err
	}
	logger.Debug("registered account", "id", user.ID)
	fmt.Println(ui.Current().SuccessStyle.Render("Account created for " + user.Email + ". You can log in now."))
	return nil
}

func login(ctx context.Context, email, password string) error {
	user, err := herodex.sessions.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Println(ui.Current().SuccessStyle.Render("Welcome back, " + user.Name))
	return nil
}

func runRegisterForm(reg *session.Registration) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&reg.Name),
			huh.NewInput().
				Title("Email").
				Value(&reg.Email),
			huh.NewInput().
				Title("Password").
				Description(fmt.Sprintf("At least %d characters", session.MinPasswordLength)).
				EchoMode(huh.EchoModePassword).
				Value(&reg.Password),
			huh.NewInput().
				Title("Confirm Password").
				EchoMode(huh.EchoModePassword).
				Value(&reg.ConfirmPassword),
		).Title("Create Account"),
	).WithTheme(ui.HuhTheme()).WithKeyMap(newHuhBackKeyMap())
	return form.Run()
}

func runLoginForm(email, password *string) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(email),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(password),
		).Title("Log In"),
	).WithTheme(ui.HuhTheme()).WithKeyMap(newHuhBackKeyMap())
	return form.Run()
}

func renderUser(user *session.CurrentUser) string {
	s := ui.Current()
	lines := fmt.Sprintf("%s\n%s\n%s",
		s.PrimaryStyle.Render(user.Name),
		user.Email,
		s.MutedStyle.Render("logged in "+user.LoginTime.Local().Format("Jan 2 15:04")),
	)
	return s.Card.Render(lines)
}

func runAccountMenu(ctx context.Context) error {
	user, err := herodex.sessions.CurrentUser(ctx)
	if err != nil && !errors.Is(err, session.ErrNotAuthenticated) {
		return err
	}

	var items []ui.MenuItem
	subtitle := "Not logged in"
	if user != nil {
		subtitle = "Logged in as " + user.Email
		items = []ui.MenuItem{
			{ID: "whoami", TitleText: "Profile", Details: "Show the logged-in user"},
			{ID: "logout", TitleText: "Log Out", Details: "End the current session"},
		}
	} else {
		items = []ui.MenuItem{
			{ID: "login", TitleText: "Log In", Details: "Use an existing local account"},
			{ID: "register", TitleText: "Register", Details: "Create a new local account"},
		}
	}

	choice, err := ui.RunMenuWithOptions("ACCOUNT", subtitle, items,
		ui.WithBackNavigation("Back"),
	)
	if err != nil {
		return err
	}

	switch choice {
	case "whoami":
		fmt.Println(renderUser(user))
	case "logout":
		if err := herodex.sessions.Logout(ctx); err != nil {
			return err
		}
		fmt.Println(ui.Current().MutedStyle.Render("Logged out"))
	case "login":
		var email, password string
		if err := runLoginForm(&email, &password); err != nil {
			return err
		}
		return login(ctx, email, password)
	case "register":
		var reg session.Registration
		if err := runRegisterForm(&reg); err != nil {
			return err
		}
		return register(ctx, reg)
	}
	return nil
}
