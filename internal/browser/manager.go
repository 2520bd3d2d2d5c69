package browser

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/playwright-community/playwright-go"
)

type Options struct {
	Name     string // chrome, edge, chromium, firefox, webkit
	Headless bool
	ExecPath string
	Timeout  time.Duration
	Logger   *log.Logger
}

// Manager opens a fresh session per scenario for the configured browser.
type Manager struct {
	opts Options

	installOnce sync.Once
	installErr  error
}

func NewManager(opts Options) (*Manager, error) {
	opts.Name = strings.ToLower(opts.Name)
	switch opts.Name {
	case "chrome", "edge", "chromium", "firefox", "webkit":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBrowser, opts.Name)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = &log.DefaultLogger
	}
	return &Manager{opts: opts}, nil
}

func (m *Manager) Name() string { return m.opts.Name }

// NewSession launches a browser window.
func (m *Manager) NewSession() (Session, error) {
	m.opts.Logger.Debug().Str("browser", m.opts.Name).Bool("headless", m.opts.Headless).Msg("Launching browser")

	switch m.opts.Name {
	case "chrome":
		return newChromedpSession(m.opts.ExecPath, m.opts)
	case "edge":
		exec := m.opts.ExecPath
		if exec == "" {
			exec = "microsoft-edge"
		}
		return newChromedpSession(exec, m.opts)
	default:
		if err := m.install(); err != nil {
			return nil, err
		}
		return newPlaywrightSession(m.opts)
	}
}

// install fetches the playwright driver and the browser once per manager.
func (m *Manager) install() error {
	m.installOnce.Do(func() {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{m.opts.Name}}); err != nil {
			m.installErr = fmt.Errorf("install pw failed: %w", err)
		}
	})
	return m.installErr
}
