package steps

import (
	"context"

	"github.com/cucumber/godog"

	"github.com/nbenliogludev/go-bdd-suite/internal/pages"
)

const (
	thankYouHeader    = "Thank you for your order!"
	thankYouSubHeader = "Your order has been dispatched, and will arrive just as fast as the pony can get there!"
)

func (w *world) registerCheckout(sc *godog.ScenarioContext) {
	sc.Step(`^user selects the checkout option$`, w.startCheckout)
	sc.Step(`^the checkout form should validate all user entered inputs$`, w.formValidates)
	sc.Step(`^user enters their information on the checkout form$`, w.enterInformation)
	sc.Step(`^user navigates to checkout overview page$`, w.toOverview)
	sc.Step(`^user should see correct product information on the overview page$`, w.overviewCorrect)
	sc.Step(`^user finishes checkout process$`, w.finish)
	sc.Step(`^user should be navigated to the thank you page$`, w.onThankYouPage)
}

func (w *world) startCheckout(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	if err := pages.NewCartPage(e.page).Checkout(); err != nil {
		return err
	}
	return e.waitForURLIs(ctx, "checkout-step-one.html")
}

// formCase is one round of the checkout form validation.
type formCase struct {
	first, last, zip string
	want             string
}

var formCases = []formCase{
	{"", "", "", "Error: First Name is required"},
	{"TestFN", "TestLN", "", "Error: Postal Code is required"},
	{"TestFN", "", "12333", "Error: Last Name is required"},
	{"", "TestLN", "12333", "Error: First Name is required"},
	{"TestFN", "TestLN", "ab1c", "Error: Postal Code must be 5 alpha-numeric characters long"},
	{"TestFN", "TestLN", "ab@1c", "Error: Postal Code must be alpha-numeric"},
}

func (w *world) formValidates(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	co := pages.NewCheckoutPage(e.page)
	for _, c := range formCases {
		e.Logger.Info().Str("first", c.first).Str("last", c.last).Str("zip", c.zip).Msg("Submitting checkout form")
		if err := co.Fill(c.first, c.last, c.zip); err != nil {
			return err
		}
		if err := co.Continue(); err != nil {
			return err
		}
		got, err := co.FormError()
		if err != nil {
			return err
		}
		if err := assertEqual(c.want, got); err != nil {
			return err
		}
	}
	return nil
}

func (w *world) enterInformation(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	c := e.Config.Checkout
	e.Logger.Info().Str("zip", c.Zip).Msg("Entering checkout information")
	return pages.NewCheckoutPage(e.page).Fill(c.FirstName, c.LastName, c.Zip)
}

func (w *world) toOverview(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	if err := pages.NewCheckoutPage(e.page).Continue(); err != nil {
		return err
	}
	return e.waitForURLIs(ctx, "checkout-step-two.html")
}

func (w *world) overviewCorrect(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	co := pages.NewCheckoutPage(e.page)

	shown, err := co.Products()
	if err != nil {
		return err
	}
	if err := assertEqual(w.added, shown); err != nil {
		return err
	}

	want, err := pages.ExpectedTotals(w.added)
	if err != nil {
		return err
	}
	for _, l := range []struct {
		want string
		get  func() (string, error)
	}{
		{want.ItemTotal, co.ItemTotal},
		{want.Tax, co.Tax},
		{want.Total, co.Total},
	} {
		got, err := l.get()
		if err != nil {
			return err
		}
		if err := assertEqual(l.want, got); err != nil {
			return err
		}
	}
	return nil
}

func (w *world) finish(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	return pages.NewCheckoutPage(e.page).Finish()
}

func (w *world) onThankYouPage(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	if err := e.waitForURLIs(ctx, "checkout-complete.html"); err != nil {
		return err
	}
	co := pages.NewCheckoutPage(e.page)
	header, err := co.Header()
	if err != nil {
		return err
	}
	sub, err := co.SubHeader()
	if err != nil {
		return err
	}
	if err := assertEqual(thankYouHeader, header); err != nil {
		return err
	}
	return assertEqual(thankYouSubHeader, sub)
}
