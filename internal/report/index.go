package report

import (
	"errors"
	"fmt"
	"sync"
)

var ErrDuplicateNode = errors.New("duplicate failed node")

// FailedIndex maps (feature, scenario) to the failed step node of that
// scenario. Each key can be indexed once.
type FailedIndex struct {
	mu    sync.Mutex
	nodes map[Key]*Node
}

func NewFailedIndex() *FailedIndex {
	return &FailedIndex{nodes: make(map[Key]*Node)}
}

func (i *FailedIndex) Add(n *Node) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.nodes[n.Key]; ok {
		return fmt.Errorf("%w: feature %q scenario %q", ErrDuplicateNode, n.Key.Feature, n.Key.Scenario)
	}
	i.nodes[n.Key] = n
	return nil
}

func (i *FailedIndex) Lookup(feature, scenario string) (*Node, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	n, ok := i.nodes[Key{Feature: feature, Scenario: scenario}]
	return n, ok
}

func (i *FailedIndex) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.nodes)
}
