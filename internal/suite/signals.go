package suite

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// Interrupt turns the first Ctrl+C into a sticky flag. Scenarios that have
// not started yet are skipped once it is set; the run still ends normally.
type Interrupt struct {
	ch   chan os.Signal
	set  atomic.Bool
	done chan struct{}
	once sync.Once
}

func NewInterrupt() *Interrupt {
	i := &Interrupt{
		ch:   make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(i.ch, os.Interrupt)
	go i.watch()
	return i
}

func (i *Interrupt) watch() {
	select {
	case <-i.ch:
		i.set.Store(true)
	case <-i.done:
	}
}

func (i *Interrupt) Interrupted() bool {
	return i != nil && i.set.Load()
}

// Trigger sets the flag as if Ctrl+C had been pressed.
func (i *Interrupt) Trigger() {
	i.set.Store(true)
}

func (i *Interrupt) Close() {
	i.once.Do(func() {
		signal.Stop(i.ch)
		close(i.done)
	})
}
