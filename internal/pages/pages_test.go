package pages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser"
	"github.com/nbenliogludev/go-bdd-suite/internal/browser/browsertest"
)

var fastWait = Wait{Timeout: 60 * time.Millisecond, Interval: 5 * time.Millisecond}

func setProducts(s *browsertest.Session, scope string, products ...Product) {
	var names, descs, prices, buttons []string
	for _, p := range products {
		names = append(names, p.Name)
		descs = append(descs, p.Description)
		prices = append(prices, p.Price)
		buttons = append(buttons, "Add to cart")
	}
	s.SetTexts(scope+" .inventory_item_name", names...)
	s.SetTexts(scope+" .inventory_item_desc", descs...)
	s.SetTexts(scope+" .inventory_item_price", prices...)
	s.SetTexts(scope+" button", buttons...)
}

var (
	backpack = Product{Name: "Sauce Labs Backpack", Description: "carry.allTheThings()", Price: "$29.99"}
	light    = Product{Name: "Sauce Labs Bike Light", Description: "A red light", Price: "$9.99"}
	onesie   = Product{Name: "Sauce Labs Onesie", Description: "Rib snap infant onesie", Price: "$7.99"}
)

func TestPollEventuallyFinds(t *testing.T) {
	calls := 0
	r := Poll(context.Background(), fastWait, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errNotReady
		}
		return 42, nil
	})
	require.True(t, r.Found)
	assert.Equal(t, 42, r.Value)
	assert.NoError(t, r.Err())
}

func TestPollTimesOut(t *testing.T) {
	r := Poll(context.Background(), fastWait, func() (string, error) {
		return "", errNotReady
	})
	assert.False(t, r.Found)
	assert.ErrorIs(t, r.Reason, ErrTimeout)
	assert.Contains(t, r.Reason.Error(), "not ready")
}

func TestPollStopsOnClosedSession(t *testing.T) {
	calls := 0
	start := time.Now()
	r := Poll(context.Background(), Wait{Timeout: time.Second, Interval: 5 * time.Millisecond}, func() (string, error) {
		calls++
		return "", browser.ErrSessionClosed
	})
	assert.ErrorIs(t, r.Err(), browser.ErrSessionClosed)
	assert.NotErrorIs(t, r.Err(), ErrTimeout)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestLoginPage(t *testing.T) {
	s := browsertest.New()
	s.VisibleBy["#user-name"] = true
	s.VisibleBy["#password"] = true
	s.VisibleBy["#login-button"] = true

	login := NewLoginPage(New(s, nil, fastWait))
	require.NoError(t, login.EnterCredentials("standard_user", "secret_sauce"))
	require.NoError(t, login.Submit())

	assert.Equal(t, "standard_user", s.Value("#user-name"))
	assert.Equal(t, "secret_sauce", s.Value("#password"))
	assert.Equal(t, []string{"#login-button[0]"}, s.ClickLog())

	_, err := login.FormError()
	assert.ErrorIs(t, err, ErrTimeout)

	s.SetTexts(`h3[data-test="error"]`, ErrTextLockedOut)
	msg, err := login.FormError()
	require.NoError(t, err)
	assert.Equal(t, ErrTextLockedOut, msg)
}

func TestLoginEnterCredentialsNeedsVisibleFields(t *testing.T) {
	s := browsertest.New()
	err := NewLoginPage(New(s, nil, fastWait)).EnterCredentials("u", "p")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Empty(t, s.Value("#user-name"))
}

func TestLoginErrorText(t *testing.T) {
	msg, err := LoginErrorText("empty")
	require.NoError(t, err)
	assert.Equal(t, ErrTextUsernameRequired, msg)

	_, err = LoginErrorText("expired")
	assert.Error(t, err)
}

func TestInventoryPage(t *testing.T) {
	s := browsertest.New()
	setProducts(s, ".inventory_item", backpack, light, onesie)
	s.SetTexts(".inventory_item_label a", backpack.Name, light.Name, onesie.Name)
	s.VisibleBy[".product_sort_container"] = true

	inv := NewInventoryPage(New(s, nil, fastWait))

	all, err := inv.Products()
	require.NoError(t, err)
	assert.Equal(t, []Product{backpack, light, onesie}, all)

	p, err := inv.Product(2)
	require.NoError(t, err)
	assert.Equal(t, light, p)

	_, err = inv.Product(4)
	assert.ErrorIs(t, err, browser.ErrNoSuchElement)

	require.NoError(t, inv.AddToCart(3))
	require.NoError(t, inv.OpenProduct(1))
	assert.Equal(t, []string{".inventory_item button[2]", ".inventory_item_label a[0]"}, s.ClickLog())

	txt, err := inv.CartButtonText(1)
	require.NoError(t, err)
	assert.Equal(t, "Add to cart", txt)

	require.NoError(t, inv.SortBy("price", "descending"))
	assert.Equal(t, "hilo", s.Value(".product_sort_container"))

	assert.Error(t, inv.SortBy("color", "ascending"))
}

func TestInventoryMismatchedColumns(t *testing.T) {
	s := browsertest.New()
	setProducts(s, ".inventory_item", backpack, light)
	s.SetTexts(".inventory_item .inventory_item_price", "$29.99")

	_, err := NewInventoryPage(New(s, nil, fastWait)).Products()
	assert.ErrorContains(t, err, "2 names, 2 descriptions, 1 prices")
}

func TestSortOption(t *testing.T) {
	cases := map[[2]string]string{
		{"name", "ascending"}:   "az",
		{"name", "descending"}:  "za",
		{"price", "ascending"}:  "lohi",
		{"Price", "Descending"}: "hilo",
	}
	for in, want := range cases {
		got, err := SortOption(in[0], in[1])
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCartRemoveAll(t *testing.T) {
	s := browsertest.New()
	s.VisibleBy[".cart_list"] = true
	items := []Product{backpack, light, onesie}
	setProducts(s, ".cart_item", items...)
	s.OnClick = func(s *browsertest.Session, selector string, n int) error {
		if selector != ".cart_item button" {
			return errors.New("unexpected click")
		}
		items = append(items[:n:n], items[n+1:]...)
		setProducts(s, ".cart_item", items...)
		return nil
	}

	cart := NewCartPage(New(s, nil, fastWait))
	n, err := cart.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, cart.Remove(2))
	left, err := cart.Products()
	require.NoError(t, err)
	assert.Equal(t, []Product{backpack, onesie}, left)

	require.NoError(t, cart.RemoveAll())
	n, err = cart.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCheckoutForm(t *testing.T) {
	s := browsertest.New()
	for _, sel := range []string{"#first-name", "#last-name", "#postal-code", "#continue", "#finish"} {
		s.VisibleBy[sel] = true
	}
	s.SetTexts(`[data-test="subtotal-label"]`, "Item total: $39.98")
	s.SetTexts(".complete-header", "Thank you for your order!")

	co := NewCheckoutPage(New(s, nil, fastWait))
	require.NoError(t, co.Fill("Jane", "Doe", "10001"))
	require.NoError(t, co.Continue())
	require.NoError(t, co.Finish())

	assert.Equal(t, "Jane", s.Value("#first-name"))
	assert.Equal(t, "10001", s.Value("#postal-code"))
	assert.Equal(t, []string{"#continue[0]", "#finish[0]"}, s.ClickLog())

	sub, err := co.ItemTotal()
	require.NoError(t, err)
	assert.Equal(t, "Item total: $39.98", sub)

	hdr, err := co.Header()
	require.NoError(t, err)
	assert.Equal(t, "Thank you for your order!", hdr)

	_, err = co.Tax()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExpectedTotals(t *testing.T) {
	got, err := ExpectedTotals([]Product{backpack, light})
	require.NoError(t, err)
	assert.Equal(t, Totals{
		ItemTotal: "Item total: $39.98",
		Tax:       "Tax: $3.20",
		Total:     "Total: $43.18",
	}, got)

	_, err = ExpectedTotals([]Product{{Price: "free"}})
	assert.Error(t, err)
}

func TestProductDetailPage(t *testing.T) {
	s := browsertest.New()
	s.SetTexts(`[data-test="inventory-item-name"]`, backpack.Name)
	s.SetTexts(`[data-test="inventory-item-desc"]`, backpack.Description)
	s.SetTexts(`[data-test="inventory-item-price"]`, backpack.Price)

	p, err := NewProductDetailPage(New(s, nil, fastWait)).Product()
	require.NoError(t, err)
	assert.Equal(t, backpack, p)
}
