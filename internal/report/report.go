package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var ErrAlreadyFlushed = errors.New("report already flushed")

//go:embed template.html
var templateHTML string

// Report is the HTML report of one run. Features may be created from any
// goroutine; Flush writes the file once.
type Report struct {
	path    string
	title   string
	started time.Time
	md      goldmark.Markdown
	tmpl    *template.Template

	mu       sync.Mutex
	features []*Node
	flushed  bool
}

func New(path, title string) (*Report, error) {
	r := &Report{
		path:    path,
		title:   title,
		started: time.Now(),
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"render":     r.renderEntry,
		"screenshot": screenshotURL,
	}).Parse(templateHTML)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

func (r *Report) Path() string { return r.path }

func (r *Report) CreateFeature(name string) *Node {
	n := newNode(KindFeature, name, Key{Feature: name})
	r.mu.Lock()
	r.features = append(r.features, n)
	r.mu.Unlock()
	return n
}

func (r *Report) Features() []*Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Node, len(r.features))
	copy(out, r.features)
	return out
}

type pageData struct {
	Title    string
	Started  time.Time
	Finished time.Time
	Stats    Stats
	Features []*Node
}

// Flush renders the report to its path. Only the first call writes.
func (r *Report) Flush() error {
	r.mu.Lock()
	if r.flushed {
		r.mu.Unlock()
		return ErrAlreadyFlushed
	}
	r.flushed = true
	r.mu.Unlock()

	var buf bytes.Buffer
	data := pageData{
		Title:    r.title,
		Started:  r.started,
		Finished: time.Now(),
		Stats:    r.Stats(),
		Features: r.Features(),
	}
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(r.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (r *Report) renderEntry(e Entry) template.HTML {
	switch e.Kind {
	case EntryCode:
		return r.markdown(fence(e.Text))
	case EntryMarkdown:
		return r.markdown(e.Text)
	default:
		return template.HTML(template.HTMLEscapeString(e.Text))
	}
}

func (r *Report) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	// goldmark drops raw HTML unless configured otherwise
	return template.HTML(buf.String())
}

// fence wraps text in a code fence longer than any backtick run it contains.
func fence(text string) string {
	longest, run := 0, 0
	for _, c := range text {
		if c == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	f := strings.Repeat("`", max(3, longest+1))
	return f + "\n" + text + "\n" + f + "\n"
}

func screenshotURL(b64 string) template.URL {
	return template.URL("data:image/png;base64," + b64)
}
