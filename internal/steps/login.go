package steps

import (
	"context"
	"strings"

	"github.com/cucumber/godog"

	"github.com/nbenliogludev/go-bdd-suite/internal/pages"
)

func (w *world) registerLogin(sc *godog.ScenarioContext) {
	sc.Step(`^user navigates to the login page$`, w.navigateToLogin)
	sc.Step(`^user enters valid username and password$`, w.loginAs("standard-user"))
	sc.Step(`^user enters locked out username and password$`, w.loginAs("locked-out-user"))
	sc.Step(`^user enters invalid username and password$`, w.login("invalid_user", "invalid_password"))
	sc.Step(`^user leaves username and password fields empty$`, w.login("", ""))
	sc.Step(`^user is logged in as "([^"]*)"$`, w.loggedInAs)
	sc.Step(`^user should be redirected to the inventory page$`, w.onInventoryPage)
	sc.Step(`^user should see an error message$`, w.seeLoginError("invalid"))
	sc.Step(`^user should see an error message for "([^"]*)" credentials$`, w.seeLoginErrorFor)
	sc.Step(`^user should remain on the login page$`, w.onLoginPage)
}

func (w *world) navigateToLogin(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	e.Logger.Info().Str("url", e.Config.BaseURL).Msg("Navigating to the login page")
	return e.Session.Navigate(e.Config.BaseURL)
}

func (w *world) loginAs(role string) func(context.Context) error {
	return func(ctx context.Context) error {
		e, err := envFrom(ctx)
		if err != nil {
			return err
		}
		username, err := e.Config.Username(role)
		if err != nil {
			return err
		}
		e.Logger.Info().Str("role", role).Msg("Entering username and password")
		return submitLogin(e, username, e.Config.Credentials.Password)
	}
}

func (w *world) login(username, password string) func(context.Context) error {
	return func(ctx context.Context) error {
		e, err := envFrom(ctx)
		if err != nil {
			return err
		}
		e.Logger.Info().Str("user", username).Msg("Entering credentials")
		return submitLogin(e, username, password)
	}
}

func submitLogin(e *env, username, password string) error {
	lp := pages.NewLoginPage(e.page)
	if err := lp.EnterCredentials(username, password); err != nil {
		return err
	}
	return lp.Submit()
}

func (w *world) loggedInAs(ctx context.Context, role string) error {
	if err := w.navigateToLogin(ctx); err != nil {
		return err
	}
	if err := w.loginAs(role)(ctx); err != nil {
		return err
	}
	return w.onInventoryPage(ctx)
}

func (w *world) onInventoryPage(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	return e.waitForURLIs(ctx, "inventory.html")
}

func (w *world) seeLoginError(kind string) func(context.Context) error {
	return func(ctx context.Context) error { return w.seeLoginErrorFor(ctx, kind) }
}

func (w *world) seeLoginErrorFor(ctx context.Context, kind string) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	want, err := pages.LoginErrorText(strings.ToLower(kind))
	if err != nil {
		return err
	}
	e.Logger.Info().Str("kind", kind).Msg("Checking the login error message")

	got, err := pages.NewLoginPage(e.page).FormError()
	if err != nil {
		return err
	}
	return assertEqual(want, got)
}

func (w *world) onLoginPage(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	u, err := e.Session.URL()
	if err != nil {
		return err
	}
	return assertEqual(e.Config.BaseURL, u)
}
