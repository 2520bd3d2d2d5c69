// Package browsertest provides an in-memory browser.Session for tests.
package browsertest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"sync"

	"github.com/nbenliogludev/go-bdd-suite/internal/browser"
)

// Session is a scriptable fake. Page state lives in the exported maps;
// OnClick lets a test react to clicks (navigate, change texts, ...).
type Session struct {
	mu sync.Mutex

	CurrentURL string
	TextsBy    map[string][]string
	VisibleBy  map[string]bool
	Values     map[string]string // last Fill / SelectOption per selector
	Clicks     []string
	PNG        []byte

	OnClick func(s *Session, selector string, n int) error
	Quits   int
	ShotErr error
	closed  bool
}

var _ browser.Session = (*Session)(nil)

func New() *Session {
	return &Session{
		TextsBy:   map[string][]string{},
		VisibleBy: map[string]bool{},
		Values:    map[string]string{},
		PNG:       NoisePNG(64, 48),
	}
}

func (s *Session) check() error {
	if s.closed {
		return browser.ErrSessionClosed
	}
	return nil
}

func (s *Session) Navigate(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	s.CurrentURL = url
	return nil
}

func (s *Session) URL() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.CurrentURL, s.check()
}

func (s *Session) Click(selector string) error {
	return s.ClickNth(selector, 0)
}

func (s *Session) ClickNth(selector string, n int) error {
	s.mu.Lock()
	if err := s.check(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.Clicks = append(s.Clicks, fmt.Sprintf("%s[%d]", selector, n))
	hook := s.OnClick
	s.mu.Unlock()

	if hook != nil {
		return hook(s, selector, n)
	}
	return nil
}

func (s *Session) Fill(selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	s.Values[selector] = value
	return nil
}

func (s *Session) SelectOption(selector, value string) error {
	return s.Fill(selector, value)
}

func (s *Session) Texts(selector string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	out := make([]string, len(s.TextsBy[selector]))
	copy(out, s.TextsBy[selector])
	return out, nil
}

func (s *Session) Visible(selector string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return false, err
	}
	if v, ok := s.VisibleBy[selector]; ok {
		return v, nil
	}
	return len(s.TextsBy[selector]) > 0, nil
}

func (s *Session) Screenshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.ShotErr != nil {
		return nil, s.ShotErr
	}
	return s.PNG, nil
}

func (s *Session) Quit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Quits++
	s.closed = true
	return nil
}

// SetTexts replaces the texts of selector under the session lock.
func (s *Session) SetTexts(selector string, texts ...string) {
	s.mu.Lock()
	s.TextsBy[selector] = texts
	s.mu.Unlock()
}

func (s *Session) SetURL(url string) {
	s.mu.Lock()
	s.CurrentURL = url
	s.mu.Unlock()
}

func (s *Session) ClickLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.Clicks))
	copy(out, s.Clicks)
	return out
}

func (s *Session) Value(selector string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Values[selector]
}

func (s *Session) QuitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Quits
}

// Factory hands out fake sessions and remembers them.
type Factory struct {
	mu       sync.Mutex
	Sessions []*Session
	Err      error
	Setup    func(*Session)
}

func (f *Factory) NewSession() (browser.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	s := New()
	if f.Setup != nil {
		f.Setup(s)
	}
	f.Sessions = append(f.Sessions, s)
	return s, nil
}

func (f *Factory) All() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Session, len(f.Sessions))
	copy(out, f.Sessions)
	return out
}

// NoisePNG returns a deterministic random-pixel PNG.
func NoisePNG(w, h int) []byte {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
