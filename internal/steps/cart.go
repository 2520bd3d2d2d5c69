package steps

import (
	"context"
	"slices"

	"github.com/cucumber/godog"

	"github.com/nbenliogludev/go-bdd-suite/internal/pages"
)

func (w *world) registerCart(sc *godog.ScenarioContext) {
	sc.Step(`^user should see the added product\(s\) on the cart page$`, w.seeAddedProducts)
	sc.Step(`^user removes the product\(s\) from the cart$`, w.removeAll)
	sc.Step(`^there should not be any products on the cart page$`, w.cartEmpty)
	sc.Step(`^user removes some products from the cart page$`, w.removeSome)
	sc.Step(`^the cart should contain product\(s\) that are not removed$`, w.seeRemaining)
}

func (w *world) seeAddedProducts(ctx context.Context) error {
	return w.cartHolds(ctx, w.added)
}

func (w *world) seeRemaining(ctx context.Context) error {
	return w.cartHolds(ctx, w.remaining)
}

func (w *world) cartHolds(ctx context.Context, want []pages.Product) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	e.Logger.Info().Int("expected", len(want)).Msg("Checking the products on the cart page")
	got, err := pages.NewCartPage(e.page).Products()
	if err != nil {
		return err
	}
	return assertEqual(want, got)
}

func (w *world) removeAll(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	e.Logger.Info().Msg("Removing all the products from cart")
	return pages.NewCartPage(e.page).RemoveAll()
}

func (w *world) cartEmpty(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	n, err := pages.NewCartPage(e.page).Count()
	if err != nil {
		return err
	}
	return assertTrue(n == 0, "products left on the cart page: %d", n)
}

// removeSome removes the products at positions 1 and 2. Positions shift
// after each removal, so the first and third added products go.
func (w *world) removeSome(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	e.Logger.Info().Msg("Removing products 1 and 2 from the cart")

	cart := pages.NewCartPage(e.page)
	remaining := slices.Clone(w.added)
	for _, n := range []int{1, 2} {
		if err := cart.Remove(n); err != nil {
			return err
		}
		if n <= len(remaining) {
			remaining = slices.Delete(remaining, n-1, n)
		}
	}
	w.remaining = remaining
	return nil
}
