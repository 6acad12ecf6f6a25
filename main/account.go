package main

import (
	"context"
	"errors"
	"flag"
	"strconv"
	"strings"

	"cityconnect/alerts"
	"cityconnect/app"
	"cityconnect/auth"
	"cityconnect/events"
	"cityconnect/i18n"
	"cityconnect/types"
)

var errUsage = errors.New("invalid arguments")

// errReported means the alert was already shown.
var errReported = errors.New("reported")

// fail shows a failed call as an alert of the given kind.
func fail(a *app.App, err error, kind alerts.Kind) error {
	if isValidation(err) {
		kind = alerts.KindValidation
	}
	a.Reporter.Report(alerts.FromError(err, kind))
	return errReported
}

func isValidation(err error) bool {
	for _, target := range []error{
		auth.ErrMissingField, auth.ErrInvalidRating,
		events.ErrMissingID, events.ErrNoChanges,
		i18n.ErrUnsupportedLanguage,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func runLogin(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.Auth.Login(ctx, types.LoginRequest{
		Email:    orPrompt(*email, "Email: "),
		Password: orPrompt(*password, "Password: "),
	})
	if err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	reportSignedIn(a, resp)
	return nil
}

func runRegister(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("username", "", "public name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.Auth.Register(ctx, types.RegisterRequest{
		Username: orPrompt(*username, "Username: "),
		Email:    orPrompt(*email, "Email: "),
		Password: orPrompt(*password, "Password: "),
	})
	if err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	reportSignedIn(a, resp)
	return nil
}

func runGoogle(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("google", flag.ContinueOnError)
	idToken := fs.String("id-token", "", "ID token from Google sign-in")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := a.Auth.LoginWithGoogle(ctx, orPrompt(*idToken, "Google ID token: "))
	if err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	reportSignedIn(a, resp)
	return nil
}

func reportSignedIn(a *app.App, resp *types.AuthResponse) {
	name := ""
	if resp.User != nil {
		name = resp.User.Username
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeySignedIn, name)))
}

func runLogout(ctx context.Context, a *app.App, args []string) error {
	if err := a.Auth.Logout(ctx); err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeySignedOut)))
	return nil
}

// runWhoami is the launch check: it verifies the stored token once and
// signs out if the backend rejects it.
func runWhoami(ctx context.Context, a *app.App, args []string) error {
	if a.Auth.Resolve(ctx) != auth.StateAuthenticated {
		a.Reporter.Report(alerts.Alert{Kind: alerts.KindUnauthorized, Message: a.Text.T(i18n.KeyNotSignedIn)})
		return nil
	}
	newPrinter(stdout()).User(a.Auth.Profile())
	return nil
}

func runPassword(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("password", flag.ContinueOnError)
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	err := a.Auth.ChangePassword(ctx, orPrompt(*current, "Current password: "), orPrompt(*next, "New password: "))
	if err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyPasswordChanged)))
	return nil
}

func runUsername(ctx context.Context, a *app.App, args []string) error {
	name := orPrompt(strings.TrimSpace(strings.Join(args, " ")), "New username: ")
	if err := a.Auth.ChangeUsername(ctx, name); err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyUsernameChanged, name)))
	return nil
}

func runDeleteAccount(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("delete-account", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes && strings.ToLower(promptInput("Delete your account for good? [y/N] ")) != "y" {
		return nil
	}
	if err := a.Auth.DeleteAccount(ctx); err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyAccountDeleted)))
	return nil
}

func runRate(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return errUsage
	}
	resp, err := a.Auth.Rate(ctx, args[0], rating)
	if err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyRated, resp.Rating)))
	return nil
}

func runUser(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	user, err := a.Users.Get(ctx, args[0])
	if err != nil {
		return fail(a, err, alerts.KindRead)
	}
	p := newPrinter(stdout())
	p.User(user)

	activities, err := a.Users.Activities(ctx, args[0])
	if err != nil {
		a.Reporter.Report(alerts.FromError(err, alerts.KindRead))
		return nil
	}
	p.Title(a.Text.T(i18n.KeyActivities))
	p.Activities(activities)
	return nil
}

func runBio(ctx context.Context, a *app.App, args []string) error {
	bio := strings.TrimSpace(strings.Join(args, " "))
	if _, err := a.Users.UpdateBio(ctx, bio); err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyBioUpdated)))
	return nil
}

func runLang(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		newPrinter(stdout()).Line("%s", a.Text.Language())
		return nil
	}
	if err := a.Text.SetLanguage(ctx, args[0]); err != nil {
		return fail(a, err, alerts.KindWrite)
	}
	a.Reporter.Report(alerts.Success(a.Text.T(i18n.KeyLanguageChanged)))
	return nil
}
