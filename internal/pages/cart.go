package pages

import "fmt"

const (
	cartScope        = ".cart_item"
	cartList         = ".cart_list"
	cartRemoveButton = ".cart_item button"
	continueShopping = "#continue-shopping"
	checkoutButton   = "#checkout"
)

type CartPage struct{ Page }

func NewCartPage(p Page) *CartPage { return &CartPage{p} }

func (c *CartPage) Product(n int) (Product, error) {
	pr, err := c.product(cartScope, n)
	if err != nil {
		c.log.Error().Err(err).Int("product", n).Msg("Failed to get the cart product details")
		return Product{}, fmt.Errorf("cart product %d: %w", n, err)
	}
	return pr, nil
}

func (c *CartPage) Products() ([]Product, error) {
	all, err := c.products(cartScope)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to get all cart product details")
		return nil, fmt.Errorf("cart products: %w", err)
	}
	return all, nil
}

// Remove removes the product at position n. Later products move up.
func (c *CartPage) Remove(n int) error {
	if err := c.clickNth(cartRemoveButton, n); err != nil {
		c.log.Error().Err(err).Int("product", n).Msg("Failed to remove product")
		return fmt.Errorf("remove product %d: %w", n, err)
	}
	return nil
}

func (c *CartPage) RemoveAll() error {
	n, err := c.Count()
	if err != nil {
		return err
	}
	for range n {
		if err := c.Remove(1); err != nil {
			c.log.Error().Err(err).Msg("Failed to remove all the products from the cart")
			return err
		}
	}
	return nil
}

// Count returns the number of products in the cart. An empty cart is not
// an error.
func (c *CartPage) Count() (int, error) {
	if err := c.visible(cartList); err != nil {
		return 0, fmt.Errorf("cart list: %w", err)
	}
	names, err := c.s.Texts(cartScope + " .inventory_item_name")
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

func (c *CartPage) ContinueShopping() error {
	if err := c.click(continueShopping); err != nil {
		c.log.Error().Err(err).Msg("Failed to click Continue Shopping")
		return fmt.Errorf("continue shopping: %w", err)
	}
	return nil
}

func (c *CartPage) Checkout() error {
	if err := c.click(checkoutButton); err != nil {
		c.log.Error().Err(err).Msg("Failed to click Checkout")
		return fmt.Errorf("checkout: %w", err)
	}
	return nil
}
