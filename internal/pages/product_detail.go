package pages

import "fmt"

const (
	detailName  = `[data-test="inventory-item-name"]`
	detailDesc  = `[data-test="inventory-item-desc"]`
	detailPrice = `[data-test="inventory-item-price"]`
)

type ProductDetailPage struct{ Page }

func NewProductDetailPage(p Page) *ProductDetailPage { return &ProductDetailPage{p} }

func (d *ProductDetailPage) Product() (Product, error) {
	var pr Product
	for _, f := range []struct {
		sel string
		dst *string
	}{
		{detailName, &pr.Name},
		{detailDesc, &pr.Description},
		{detailPrice, &pr.Price},
	} {
		v, err := d.text(f.sel)
		if err != nil {
			d.log.Error().Err(err).Msg("Failed to get the product details")
			return Product{}, fmt.Errorf("product detail: %w", err)
		}
		*f.dst = v
	}
	return pr, nil
}
