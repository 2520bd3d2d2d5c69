package pages

import (
	"fmt"
	"strings"
)

const (
	inventoryScope = ".inventory_item"
	productLink    = ".inventory_item_label a"
	productButton  = ".inventory_item button"
	sortSelect     = ".product_sort_container"
	cartLink       = ".shopping_cart_link"
)

type InventoryPage struct{ Page }

func NewInventoryPage(p Page) *InventoryPage { return &InventoryPage{p} }

// Product returns the product at the 1-based position n.
func (i *InventoryPage) Product(n int) (Product, error) {
	pr, err := i.product(inventoryScope, n)
	if err != nil {
		i.log.Error().Err(err).Int("product", n).Msg("Failed to get the product details")
		return Product{}, fmt.Errorf("inventory product %d: %w", n, err)
	}
	return pr, nil
}

func (i *InventoryPage) Products() ([]Product, error) {
	all, err := i.products(inventoryScope)
	if err != nil {
		i.log.Error().Err(err).Msg("Failed to get all product details")
		return nil, fmt.Errorf("inventory products: %w", err)
	}
	return all, nil
}

func (i *InventoryPage) OpenProduct(n int) error {
	if err := i.clickNth(productLink, n); err != nil {
		i.log.Error().Err(err).Int("product", n).Msg("Failed to click the product title link")
		return fmt.Errorf("open product %d: %w", n, err)
	}
	return nil
}

// SortOption maps a sort field ("name" or "price") and order ("ascending"
// or "descending") to the value of the sort select.
func SortOption(by, order string) (string, error) {
	switch strings.ToLower(order) + "/" + strings.ToLower(by) {
	case "ascending/name":
		return "az", nil
	case "descending/name":
		return "za", nil
	case "ascending/price":
		return "lohi", nil
	case "descending/price":
		return "hilo", nil
	default:
		return "", fmt.Errorf("invalid sort: by %q in %q order", by, order)
	}
}

func (i *InventoryPage) SortBy(by, order string) error {
	value, err := SortOption(by, order)
	if err != nil {
		return err
	}
	if err := i.visible(sortSelect); err != nil {
		return fmt.Errorf("sort products: %w", err)
	}
	if err := i.s.SelectOption(sortSelect, value); err != nil {
		i.log.Error().Err(err).Str("by", by).Str("order", order).Msg("Failed to sort the products")
		return fmt.Errorf("sort products: %w", err)
	}
	return nil
}

func (i *InventoryPage) AddToCart(n int) error {
	if err := i.clickNth(productButton, n); err != nil {
		i.log.Error().Err(err).Int("product", n).Msg("Failed to click Add to cart")
		return fmt.Errorf("add product %d to cart: %w", n, err)
	}
	return nil
}

// CartButtonText is the label of the product's cart button ("Add to cart"
// or "Remove").
func (i *InventoryPage) CartButtonText(n int) (string, error) {
	txt, err := i.nth(productButton, n)
	if err != nil {
		i.log.Error().Err(err).Int("product", n).Msg("Failed to get the cart button text")
		return "", fmt.Errorf("cart button of product %d: %w", n, err)
	}
	return txt, nil
}

func (i *InventoryPage) OpenCart() error {
	if err := i.click(cartLink); err != nil {
		i.log.Error().Err(err).Msg("Failed to navigate to the cart page")
		return fmt.Errorf("open cart: %w", err)
	}
	return nil
}
