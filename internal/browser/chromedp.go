package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// chromedpSession drives Chrome or Edge over the DevTools protocol.
type chromedpSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration

	mu     sync.Mutex
	closed bool
}

func newChromedpSession(execPath string, opts Options) (*chromedpSession, error) {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("start-maximized", true),
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Headless)
	}
	if execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &chromedpSession{ctx: ctx, cancel: cancel, allocCancel: allocCancel, timeout: opts.Timeout}

	// the first Run allocates the browser and binds it to ctx, so it must
	// not carry the per-operation timeout
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start %s failed: %w", opts.Name, err)
	}
	return s, nil
}

func (s *chromedpSession) run(actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (s *chromedpSession) Navigate(url string) error {
	return s.run(chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery))
}

func (s *chromedpSession) URL() (string, error) {
	var u string
	err := s.run(chromedp.Location(&u))
	return u, err
}

func (s *chromedpSession) Click(selector string) error {
	return s.run(chromedp.Click(selector, chromedp.ByQuery))
}

func (s *chromedpSession) ClickNth(selector string, n int) error {
	var nodes []*cdp.Node
	if err := s.run(chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return err
	}
	if n < 0 || n >= len(nodes) {
		return fmt.Errorf("%w: %s[%d] (found %d)", ErrNoSuchElement, selector, n, len(nodes))
	}
	return s.run(chromedp.MouseClickNode(nodes[n]))
}

func (s *chromedpSession) Fill(selector, value string) error {
	return s.run(
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

// SelectOption sets the value through the native setter so React sees
// the change event.
func (s *chromedpSession) SelectOption(selector, value string) error {
	var ok bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const setter = Object.getOwnPropertyDescriptor(HTMLSelectElement.prototype, 'value').set;
		setter.call(el, %s);
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return el.value === %s;
	})()`, jsString(selector), jsString(value), jsString(value))
	if err := s.run(chromedp.WaitVisible(selector, chromedp.ByQuery), chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: option %q in %s", ErrNoSuchElement, value, selector)
	}
	return nil
}

func (s *chromedpSession) Texts(selector string) ([]string, error) {
	var texts []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(e => e.innerText.trim())`, jsString(selector))
	if err := s.run(chromedp.Evaluate(script, &texts)); err != nil {
		return nil, err
	}
	return texts, nil
}

func (s *chromedpSession) Visible(selector string) (bool, error) {
	var visible bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0 && getComputedStyle(el).visibility !== 'hidden';
	})()`, jsString(selector))
	err := s.run(chromedp.Evaluate(script, &visible))
	return visible, err
}

func (s *chromedpSession) Screenshot() ([]byte, error) {
	var buf []byte
	err := s.run(chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithFromSurface(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *chromedpSession) Quit() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := chromedp.Cancel(s.ctx)
	s.cancel()
	s.allocCancel()
	return err
}
