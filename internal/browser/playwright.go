package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// playwrightSession drives Chromium, Firefox or WebKit through playwright.
type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	mu     sync.Mutex
	closed bool
}

func newPlaywrightSession(opts Options) (*playwrightSession, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start pw failed: %w", err)
	}

	var bt playwright.BrowserType
	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)}
	switch opts.Name {
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		bt = pw.Chromium
		launch.Args = []string{"--start-maximized"}
		if opts.ExecPath != "" {
			launch.ExecutablePath = playwright.String(opts.ExecPath)
		}
	}

	b, err := bt.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch %s failed: %w", opts.Name, err)
	}

	p, err := b.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: 1920, Height: 1080},
	})
	if err != nil {
		_ = b.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	p.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	p.SetDefaultNavigationTimeout(float64(opts.Timeout.Milliseconds()))

	return &playwrightSession{pw: pw, browser: b, page: p}, nil
}

func (s *playwrightSession) alive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

func (s *playwrightSession) Navigate(url string) error {
	if err := s.alive(); err != nil {
		return err
	}
	_, err := s.page.Goto(url)
	return err
}

func (s *playwrightSession) URL() (string, error) {
	if err := s.alive(); err != nil {
		return "", err
	}
	return s.page.URL(), nil
}

func (s *playwrightSession) Click(selector string) error {
	if err := s.alive(); err != nil {
		return err
	}
	return s.page.Locator(selector).First().Click()
}

func (s *playwrightSession) ClickNth(selector string, n int) error {
	if err := s.alive(); err != nil {
		return err
	}
	return s.page.Locator(selector).Nth(n).Click()
}

func (s *playwrightSession) Fill(selector, value string) error {
	if err := s.alive(); err != nil {
		return err
	}
	return s.page.Locator(selector).First().Fill(value)
}

func (s *playwrightSession) SelectOption(selector, value string) error {
	if err := s.alive(); err != nil {
		return err
	}
	_, err := s.page.Locator(selector).First().SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	})
	return err
}

func (s *playwrightSession) Texts(selector string) ([]string, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	return s.page.Locator(selector).AllInnerTexts()
}

func (s *playwrightSession) Visible(selector string) (bool, error) {
	if err := s.alive(); err != nil {
		return false, err
	}
	return s.page.Locator(selector).First().IsVisible()
}

func (s *playwrightSession) Screenshot() ([]byte, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	return s.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
	})
}

func (s *playwrightSession) Quit() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var firstErr error
	if s.browser != nil {
		firstErr = s.browser.Close()
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
