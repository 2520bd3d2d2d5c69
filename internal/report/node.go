package report

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindFeature  Kind = "Feature"
	KindScenario Kind = "Scenario"
	KindGiven    Kind = "Given"
	KindWhen     Kind = "When"
	KindThen     Kind = "Then"
	KindAnd      Kind = "And"
)

type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

type EntryKind string

const (
	EntryInfo       EntryKind = "info"
	EntryCode       EntryKind = "code"
	EntryMarkdown   EntryKind = "markdown"
	EntryFail       EntryKind = "fail"
	EntryScreenshot EntryKind = "screenshot"
)

type Entry struct {
	Kind EntryKind
	Text string
	Time time.Time
}

// Key identifies a node by the feature and scenario it belongs to.
// Feature nodes carry an empty Scenario.
type Key struct {
	Feature  string
	Scenario string
}

// Node is one element of the report tree. All methods are safe for
// concurrent use.
type Node struct {
	ID      string
	Kind    Kind
	Name    string
	Key     Key
	Started time.Time

	mu       sync.Mutex
	entries  []Entry
	children []*Node
	failed   bool
}

func newNode(kind Kind, name string, key Key) *Node {
	return &Node{
		ID:      uuid.NewString(),
		Kind:    kind,
		Name:    name,
		Key:     key,
		Started: time.Now(),
	}
}

// CreateNode appends a child. A scenario child takes its own name as the
// scenario part of its key; every other child inherits the parent's key.
func (n *Node) CreateNode(kind Kind, name string) *Node {
	key := n.Key
	if kind == KindScenario {
		key.Scenario = name
	}
	child := newNode(kind, name, key)

	n.mu.Lock()
	n.children = append(n.children, child)
	n.mu.Unlock()
	return child
}

func (n *Node) add(kind EntryKind, text string) {
	n.mu.Lock()
	n.entries = append(n.entries, Entry{Kind: kind, Text: text, Time: time.Now()})
	n.mu.Unlock()
}

func (n *Node) Log(msg string) { n.add(EntryInfo, msg) }

// CodeBlock adds a preformatted block.
func (n *Node) CodeBlock(text string) { n.add(EntryCode, text) }

// Markdown adds a block rendered as markdown. Raw HTML is not rendered.
func (n *Node) Markdown(md string) { n.add(EntryMarkdown, md) }

// Screenshot embeds a base64 PNG.
func (n *Node) Screenshot(b64 string) { n.add(EntryScreenshot, b64) }

// Fail marks the node failed and records msg.
func (n *Node) Fail(msg string) {
	n.mu.Lock()
	n.failed = true
	n.entries = append(n.entries, Entry{Kind: EntryFail, Text: msg, Time: time.Now()})
	n.mu.Unlock()
}

// Status is fail if this node or any descendant failed.
func (n *Node) Status() Status {
	n.mu.Lock()
	failed := n.failed
	children := n.children
	n.mu.Unlock()

	if failed {
		return StatusFail
	}
	for _, c := range children {
		if c.Status() == StatusFail {
			return StatusFail
		}
	}
	return StatusPass
}

func (n *Node) Entries() []Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Entry, len(n.entries))
	copy(out, n.entries)
	return out
}

func (n *Node) Children() []*Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// StepKind maps a gherkin keyword to a step node kind. Unknown keywords
// ("*", "But", localized ones) become And.
func StepKind(keyword string) Kind {
	switch keyword {
	case "Given":
		return KindGiven
	case "When":
		return KindWhen
	case "Then":
		return KindThen
	default:
		return KindAnd
	}
}
