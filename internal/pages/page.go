// Package pages holds the page objects of the demo shop.
package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser"
)

type Product struct {
	Name        string
	Description string
	Price       string
}

// Page is what every page object is built on.
type Page struct {
	s    browser.Session
	log  *log.Logger
	wait Wait
}

func New(s browser.Session, logger *log.Logger, wait Wait) Page {
	if logger == nil {
		logger = &log.DefaultLogger
	}
	return Page{s: s, log: logger, wait: wait}
}

func (p Page) poll(probe func() (string, error)) Result[string] {
	return Poll(context.Background(), p.wait, probe)
}

// visible waits until selector is displayed.
func (p Page) visible(selector string) error {
	return Poll(context.Background(), p.wait, func() (bool, error) {
		ok, err := p.s.Visible(selector)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("%s is %w", selector, errNotReady)
		}
		return true, nil
	}).Err()
}

// text waits for selector and returns the text of its first match.
func (p Page) text(selector string) (string, error) {
	return p.poll(func() (string, error) {
		texts, err := p.s.Texts(selector)
		if err != nil {
			return "", err
		}
		if len(texts) == 0 {
			return "", fmt.Errorf("no %s: %w", selector, browser.ErrNoSuchElement)
		}
		return strings.TrimSpace(texts[0]), nil
	}).Get()
}

// texts waits until selector matches at least one element.
func (p Page) texts(selector string) ([]string, error) {
	r := Poll(context.Background(), p.wait, func() ([]string, error) {
		texts, err := p.s.Texts(selector)
		if err != nil {
			return nil, err
		}
		if len(texts) == 0 {
			return nil, fmt.Errorf("no %s: %w", selector, browser.ErrNoSuchElement)
		}
		return texts, nil
	})
	return r.Value, r.Err()
}

func (p Page) click(selector string) error {
	if err := p.visible(selector); err != nil {
		return err
	}
	return p.s.Click(selector)
}

// clickNth clicks the n-th (1-based) match of selector.
func (p Page) clickNth(selector string, n int) error {
	if _, err := p.nth(selector, n); err != nil {
		return err
	}
	return p.s.ClickNth(selector, n-1)
}

// nth waits until selector has at least n matches and returns the text
// of the n-th (1-based).
func (p Page) nth(selector string, n int) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("position %d: positions start at 1", n)
	}
	return p.poll(func() (string, error) {
		texts, err := p.s.Texts(selector)
		if err != nil {
			return "", err
		}
		if len(texts) < n {
			return "", fmt.Errorf("%s has %d matches, want position %d: %w", selector, len(texts), n, browser.ErrNoSuchElement)
		}
		return strings.TrimSpace(texts[n-1]), nil
	}).Get()
}

func (p Page) fill(selector, value string) error {
	if err := p.visible(selector); err != nil {
		return err
	}
	return p.s.Fill(selector, value)
}

// products zips the name, description and price texts found under scope.
func (p Page) products(scope string) ([]Product, error) {
	names, err := p.texts(scope + " .inventory_item_name")
	if err != nil {
		return nil, err
	}
	descs, err := p.s.Texts(scope + " .inventory_item_desc")
	if err != nil {
		return nil, err
	}
	prices, err := p.s.Texts(scope + " .inventory_item_price")
	if err != nil {
		return nil, err
	}
	if len(descs) != len(names) || len(prices) != len(names) {
		return nil, fmt.Errorf("%s: %d names, %d descriptions, %d prices", scope, len(names), len(descs), len(prices))
	}

	out := make([]Product, len(names))
	for i := range names {
		out[i] = Product{
			Name:        strings.TrimSpace(names[i]),
			Description: strings.TrimSpace(descs[i]),
			Price:       strings.TrimSpace(prices[i]),
		}
	}
	return out, nil
}

// product returns the n-th (1-based) product under scope.
func (p Page) product(scope string, n int) (Product, error) {
	all, err := p.products(scope)
	if err != nil {
		return Product{}, err
	}
	if n < 1 || n > len(all) {
		return Product{}, fmt.Errorf("product %d of %d: %w", n, len(all), browser.ErrNoSuchElement)
	}
	return all[n-1], nil
}
