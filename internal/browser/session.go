package browser

import (
	"encoding/json"
	"errors"
)

var (
	ErrSessionClosed      = errors.New("browser session is closed")
	ErrUnsupportedBrowser = errors.New("unsupported browser")
	ErrNoSuchElement      = errors.New("no such element")
)

// Session is one browser window driven by a scenario. Selectors are CSS.
// A session is used by a single scenario at a time.
type Session interface {
	Navigate(url string) error
	URL() (string, error)
	Click(selector string) error
	// ClickNth clicks the n-th (0-based) element matching selector.
	ClickNth(selector string, n int) error
	Fill(selector, value string) error
	SelectOption(selector, value string) error
	// Texts returns the inner text of every element matching selector.
	Texts(selector string) ([]string, error)
	Visible(selector string) (bool, error)
	// Screenshot returns a full-page PNG.
	Screenshot() ([]byte, error)
	Quit() error
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
