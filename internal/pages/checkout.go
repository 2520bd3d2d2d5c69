package pages

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	checkoutFirstName = "#first-name"
	checkoutLastName  = "#last-name"
	checkoutZip       = "#postal-code"
	checkoutContinue  = "#continue"
	checkoutFinish    = "#finish"
	subtotalLabel     = `[data-test="subtotal-label"]`
	taxLabel          = `[data-test="tax-label"]`
	totalLabel        = `[data-test="total-label"]`
	completeHeader    = ".complete-header"
	completeText      = ".complete-text"
)

// TaxRate is the shop's flat sales tax.
var TaxRate = decimal.RequireFromString("0.08")

type CheckoutPage struct{ Page }

func NewCheckoutPage(p Page) *CheckoutPage { return &CheckoutPage{p} }

func (c *CheckoutPage) EnterFirstName(v string) error {
	return c.enter(checkoutFirstName, "first name", v)
}

func (c *CheckoutPage) EnterLastName(v string) error {
	return c.enter(checkoutLastName, "last name", v)
}

func (c *CheckoutPage) EnterZip(v string) error {
	return c.enter(checkoutZip, "zip", v)
}

// Fill enters all three form fields.
func (c *CheckoutPage) Fill(first, last, zip string) error {
	if err := c.EnterFirstName(first); err != nil {
		return err
	}
	if err := c.EnterLastName(last); err != nil {
		return err
	}
	return c.EnterZip(zip)
}

func (c *CheckoutPage) enter(selector, field, v string) error {
	if err := c.fill(selector, v); err != nil {
		c.log.Error().Err(err).Str("field", field).Msg("Failed to fill the checkout form")
		return fmt.Errorf("enter %s: %w", field, err)
	}
	return nil
}

func (c *CheckoutPage) Continue() error {
	if err := c.click(checkoutContinue); err != nil {
		c.log.Error().Err(err).Msg("Failed to click Continue")
		return fmt.Errorf("continue: %w", err)
	}
	return nil
}

func (c *CheckoutPage) FormError() (string, error) {
	msg, err := c.text(formError)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to get the form error")
		return "", fmt.Errorf("checkout form error: %w", err)
	}
	return msg, nil
}

func (c *CheckoutPage) Products() ([]Product, error) {
	all, err := c.products(cartScope)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to get all product details")
		return nil, fmt.Errorf("overview products: %w", err)
	}
	return all, nil
}

func (c *CheckoutPage) ItemTotal() (string, error) { return c.label(subtotalLabel, "item total") }
func (c *CheckoutPage) Tax() (string, error)       { return c.label(taxLabel, "tax") }
func (c *CheckoutPage) Total() (string, error)     { return c.label(totalLabel, "total") }

func (c *CheckoutPage) label(selector, name string) (string, error) {
	v, err := c.text(selector)
	if err != nil {
		c.log.Error().Err(err).Str("label", name).Msg("Failed to read the order summary")
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func (c *CheckoutPage) Finish() error {
	if err := c.click(checkoutFinish); err != nil {
		c.log.Error().Err(err).Msg("Failed to click Finish")
		return fmt.Errorf("finish: %w", err)
	}
	return nil
}

func (c *CheckoutPage) Header() (string, error)    { return c.label(completeHeader, "complete header") }
func (c *CheckoutPage) SubHeader() (string, error) { return c.label(completeText, "complete text") }

// Totals are the order summary labels expected for a set of products.
type Totals struct {
	ItemTotal string
	Tax       string
	Total     string
}

// ExpectedTotals computes the summary labels the overview page should
// show for products.
func ExpectedTotals(products []Product) (Totals, error) {
	sum := decimal.Zero
	for _, p := range products {
		price, err := ParsePrice(p.Price)
		if err != nil {
			return Totals{}, err
		}
		sum = sum.Add(price)
	}
	tax := sum.Mul(TaxRate).Round(2)
	return Totals{
		ItemTotal: "Item total: $" + sum.StringFixed(2),
		Tax:       "Tax: $" + tax.StringFixed(2),
		Total:     "Total: $" + sum.Add(tax).StringFixed(2),
	}, nil
}

// ParsePrice parses a displayed price such as "$29.99".
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}
