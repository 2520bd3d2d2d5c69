// Package steps holds the godog step definitions for the demo shop.
package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"

	"github.com/nbenliogludev/go-bdd-suite/internal/lifecycle"
	"github.com/nbenliogludev/go-bdd-suite/internal/pages"
)

// world is the state one scenario's steps share. A new one is made for
// every scenario.
type world struct {
	added     []pages.Product
	remaining []pages.Product
	detail    pages.Product
}

// Register adds every step definition to sc.
func Register(sc *godog.ScenarioContext) {
	w := &world{}
	w.registerLogin(sc)
	w.registerInventory(sc)
	w.registerCart(sc)
	w.registerCheckout(sc)
}

// env is what a step works with.
type env struct {
	*lifecycle.Services
	page pages.Page
}

func envFrom(ctx context.Context) (*env, error) {
	svc, err := lifecycle.ServicesFrom(ctx)
	if err != nil {
		return nil, err
	}
	return &env{
		Services: svc,
		page:     pages.New(svc.Session, svc.Logger, pages.WaitFor(svc.Config.OperationTimeout())),
	}, nil
}

func (e *env) url(path string) string {
	return strings.TrimSuffix(e.Config.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// waitForURL polls until the current URL satisfies match or ctx ends.
func (e *env) waitForURL(ctx context.Context, what string, match func(string) bool) error {
	r := pages.Poll(ctx, pages.WaitFor(e.Config.OperationTimeout()), func() (string, error) {
		u, err := e.Session.URL()
		if err != nil {
			return "", err
		}
		if !match(u) {
			return u, fmt.Errorf("url is %s, want %s", u, what)
		}
		return u, nil
	})
	return r.Err()
}

func (e *env) waitForURLIs(ctx context.Context, path string) error {
	want := e.url(path)
	return e.waitForURL(ctx, want, func(u string) bool { return u == want })
}

// asserter turns a failed testify assertion into a step error.
type asserter struct {
	err error
}

func (a *asserter) Errorf(format string, args ...any) {
	a.err = fmt.Errorf(format, args...)
}

func assertEqual(expected, actual any, msgAndArgs ...any) error {
	var t asserter
	assert.Equal(&t, expected, actual, msgAndArgs...)
	return t.err
}

func assertTrue(value bool, msgAndArgs ...any) error {
	var t asserter
	assert.True(&t, value, msgAndArgs...)
	return t.err
}

// positions parses a product list such as "1, 3,4" into 1-based positions.
func positions(list string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(f, "%d", &n); err != nil || n < 1 {
			return nil, fmt.Errorf("invalid product position %q", f)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no product positions in %q", list)
	}
	return out, nil
}

func names(ps []pages.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}
