// internal/pin/cdev/cdev.go
package cdev

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// eventBuffer is the number of edge events queued per line before new ones
// are dropped.
const eventBuffer = 64

// ErrNoEdges is returned by the wait methods of a line opened without Edges.
var ErrNoEdges = errors.New("cdev: line opened without edge detection")

// Options configures a GPIO character device line.
type Options struct {
	Pull     string
	Debounce time.Duration
	Consumer string
	// Edges requests both-edge events for the wait methods. Sampled-only
	// lines leave it off so no events queue up.
	Edges bool
}

// line is the subset of *gpiocdev.Line the adapter uses.
type line interface {
	Value() (int, error)
	Close() error
}

// Pin adapts a gpiocdev line to pin.Edge. With edge detection, events are
// delivered by the kernel, queued, and consumed by the wait methods in order.
type Pin struct {
	line    line
	events  chan gpiocdev.LineEventType // nil without edge detection
	dropped atomic.Uint64
}

// Open requests one input line.
func Open(chip string, offset int, opts Options) (*Pin, error) {
	p := newPin(nil, opts.Edges)

	lopts, err := p.requestOptions(opts)
	if err != nil {
		return nil, err
	}

	l, err := gpiocdev.RequestLine(chip, offset, lopts...)
	if err != nil {
		return nil, fmt.Errorf("cdev: %s:%d: %w", chip, offset, err)
	}
	p.line = l
	return p, nil
}

func newPin(l line, edges bool) *Pin {
	p := &Pin{line: l}
	if edges {
		p.events = make(chan gpiocdev.LineEventType, eventBuffer)
	}
	return p
}

func (p *Pin) requestOptions(opts Options) ([]gpiocdev.LineReqOption, error) {
	bias, err := biasOption(opts.Pull)
	if err != nil {
		return nil, err
	}

	lopts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	if p.events != nil {
		lopts = append(lopts, gpiocdev.WithBothEdges, gpiocdev.WithEventHandler(p.handle))
	}
	if bias != nil {
		lopts = append(lopts, bias)
	}
	if opts.Debounce > 0 {
		lopts = append(lopts, gpiocdev.WithDebounce(opts.Debounce))
	}
	if opts.Consumer != "" {
		lopts = append(lopts, gpiocdev.WithConsumer(opts.Consumer))
	}
	return lopts, nil
}

// handle runs on the gpiocdev event goroutine and must not block.
func (p *Pin) handle(evt gpiocdev.LineEvent) {
	select {
	case p.events <- evt.Type:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns the number of edges lost to a full queue.
func (p *Pin) Dropped() uint64 { return p.dropped.Load() }

func (p *Pin) IsHigh() (bool, error) {
	if p.line == nil {
		return false, errors.New("cdev: line closed")
	}
	v, err := p.line.Value()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (p *Pin) WaitForRisingEdge(ctx context.Context) error {
	return p.wait(ctx, gpiocdev.LineEventRisingEdge)
}

func (p *Pin) WaitForFallingEdge(ctx context.Context) error {
	return p.wait(ctx, gpiocdev.LineEventFallingEdge)
}

func (p *Pin) wait(ctx context.Context, want gpiocdev.LineEventType) error {
	if p.events == nil {
		return ErrNoEdges
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case got := <-p.events:
			if got == want {
				return nil
			}
		}
	}
}

// Close releases the line back to the kernel.
func (p *Pin) Close() error {
	if p.line == nil {
		return nil
	}
	err := p.line.Close()
	p.line = nil
	return err
}

func biasOption(pull string) (gpiocdev.LineReqOption, error) {
	switch pull {
	case "":
		return nil, nil
	case "up":
		return gpiocdev.WithPullUp, nil
	case "down":
		return gpiocdev.WithPullDown, nil
	case "none":
		return gpiocdev.WithBiasDisabled, nil
	default:
		return nil, fmt.Errorf("cdev: unknown pull %q", pull)
	}
}
