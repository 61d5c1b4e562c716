// internal/pin/sim/sim.go
package sim

import (
	"context"
	"sync"
)

// maxPending bounds the latched edges of a pin nobody waits on.
const maxPending = 256

// Pin is a simulated input line. Level changes made with Set are latched as
// edges until a wait reports them, like an interrupt flag.
type Pin struct {
	mu     sync.Mutex
	high   bool
	edges  []bool // level after each unreported transition
	notify chan struct{}
	err    error
	reads  int
}

// New returns a pin resting at the given level.
func New(high bool) *Pin {
	return &Pin{high: high, notify: make(chan struct{})}
}

// Set drives the line. Setting the current level is a no-op.
func (p *Pin) Set(high bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.high == high {
		return
	}
	p.high = high
	if len(p.edges) == maxPending {
		p.edges = p.edges[1:]
	}
	p.edges = append(p.edges, high)
	p.wake()
}

// Toggle inverts the line.
func (p *Pin) Toggle() {
	p.mu.Lock()
	high := !p.high
	p.mu.Unlock()
	p.Set(high)
}

// Level returns the driven level.
func (p *Pin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

// Fail makes reads and waits return err until cleared with Fail(nil).
func (p *Pin) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	p.wake()
}

// Reads returns how many times IsHigh was called.
func (p *Pin) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

// Pending returns the number of latched, unreported edges.
func (p *Pin) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.edges)
}

func (p *Pin) IsHigh() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reads++
	if p.err != nil {
		return false, p.err
	}
	return p.high, nil
}

func (p *Pin) WaitForRisingEdge(ctx context.Context) error {
	return p.wait(ctx, true)
}

func (p *Pin) WaitForFallingEdge(ctx context.Context) error {
	return p.wait(ctx, false)
}

// wait consumes latched edges until one ends at the wanted level.
// A latched edge is always reported, even if ctx is already done.
func (p *Pin) wait(ctx context.Context, high bool) error {
	for {
		p.mu.Lock()
		if p.err != nil {
			err := p.err
			p.mu.Unlock()
			return err
		}
		for len(p.edges) > 0 {
			level := p.edges[0]
			p.edges = p.edges[1:]
			if level == high {
				p.mu.Unlock()
				return nil
			}
		}
		ch := p.notify
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// wake releases current waiters. Caller holds p.mu.
func (p *Pin) wake() {
	close(p.notify)
	p.notify = make(chan struct{})
}
