package steps

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/nbenliogludev/go-bdd-suite/internal/pages"
)

func (w *world) registerInventory(sc *godog.ScenarioContext) {
	sc.Step(`^user clicks on the title link for product "(\d+)"$`, w.openProduct)
	sc.Step(`^user should be redirected to inventory item detail page$`, w.onDetailPage)
	sc.Step(`^user should see the product details$`, w.seeProductDetails)
	sc.Step(`^user selects the option to sort the products by "([^"]*)" in "([^"]*)" order$`, w.sortProducts)
	sc.Step(`^the products on the inventory page should get sorted by "([^"]*)" in "([^"]*)" order$`, w.productsSorted)
	sc.Step(`^user adds products? "([^"]*)" to the cart$`, w.addToCart)
	sc.Step(`^the cart button of product "(\d+)" should read "([^"]*)"$`, w.cartButtonReads)
	sc.Step(`^user opens the cart$`, w.openCart)
}

func (w *world) openProduct(ctx context.Context, n int) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	inv := pages.NewInventoryPage(e.page)
	if w.detail, err = inv.Product(n); err != nil {
		return err
	}
	e.Logger.Info().Int("product", n).Str("name", w.detail.Name).Msg("Opening product")
	return inv.OpenProduct(n)
}

func (w *world) onDetailPage(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	return e.waitForURL(ctx, "inventory-item.html", func(u string) bool {
		return strings.Contains(u, "/inventory-item.html?")
	})
}

func (w *world) seeProductDetails(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	got, err := pages.NewProductDetailPage(e.page).Product()
	if err != nil {
		return err
	}
	return assertEqual(w.detail, got)
}

func (w *world) sortProducts(ctx context.Context, by, order string) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	e.Logger.Info().Str("by", by).Str("order", order).Msg("Sorting products")
	return pages.NewInventoryPage(e.page).SortBy(by, order)
}

func (w *world) productsSorted(ctx context.Context, by, order string) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	shown, err := pages.NewInventoryPage(e.page).Products()
	if err != nil {
		return err
	}
	want, err := sortProducts(shown, by, order)
	if err != nil {
		return err
	}
	return assertEqual(names(want), names(shown), "products not sorted by %s in %s order", by, order)
}

// sortProducts returns a sorted copy of ps.
func sortProducts(ps []pages.Product, by, order string) ([]pages.Product, error) {
	var cmp func(a, b pages.Product) int
	switch by {
	case "name":
		cmp = func(a, b pages.Product) int { return strings.Compare(a.Name, b.Name) }
	case "price":
		prices := make(map[string]decimal.Decimal, len(ps))
		for _, p := range ps {
			d, err := pages.ParsePrice(p.Price)
			if err != nil {
				return nil, err
			}
			prices[p.Price] = d
		}
		cmp = func(a, b pages.Product) int { return prices[a.Price].Cmp(prices[b.Price]) }
	default:
		return nil, fmt.Errorf("invalid sort field %q", by)
	}

	switch order {
	case "ascending":
	case "descending":
		asc := cmp
		cmp = func(a, b pages.Product) int { return asc(b, a) }
	default:
		return nil, fmt.Errorf("invalid sort order %q", order)
	}

	out := slices.Clone(ps)
	slices.SortStableFunc(out, cmp)
	return out, nil
}

func (w *world) addToCart(ctx context.Context, list string) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	ns, err := positions(list)
	if err != nil {
		return err
	}
	inv := pages.NewInventoryPage(e.page)
	for _, n := range ns {
		p, err := inv.Product(n)
		if err != nil {
			return err
		}
		e.Logger.Info().Int("product", n).Str("name", p.Name).Msg("Adding product to cart")
		if err := inv.AddToCart(n); err != nil {
			return err
		}
		w.added = append(w.added, p)
	}
	return nil
}

func (w *world) cartButtonReads(ctx context.Context, n int, want string) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	got, err := pages.NewInventoryPage(e.page).CartButtonText(n)
	if err != nil {
		return err
	}
	return assertEqual(want, got)
}

func (w *world) openCart(ctx context.Context) error {
	e, err := envFrom(ctx)
	if err != nil {
		return err
	}
	if err := pages.NewInventoryPage(e.page).OpenCart(); err != nil {
		return err
	}
	return e.waitForURLIs(ctx, "cart.html")
}
