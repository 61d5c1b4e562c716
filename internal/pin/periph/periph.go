// internal/pin/periph/periph.go
package periph

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// DefaultPollInterval bounds how long a wait blocks in the driver before
// checking its context again.
const DefaultPollInterval = 50 * time.Millisecond

// Options configures a local GPIO line.
type Options struct {
	Pull gpio.Pull
	// Edges enables edge detection; required for the wait methods.
	Edges bool
	// PollInterval is the WaitForEdge slice; zero means DefaultPollInterval.
	PollInterval time.Duration
}

// Pin adapts a periph.io GPIO line to pin.Edge.
type Pin struct {
	p    gpio.PinIO
	poll time.Duration
}

// Open initializes the host drivers and configures the named line as input.
func Open(name string, opts Options) (*Pin, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph: host init: %w", err)
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("periph: no gpio named %q", name)
	}

	edge := gpio.NoEdge
	if opts.Edges {
		edge = gpio.BothEdges
	}
	if err := p.In(opts.Pull, edge); err != nil {
		return nil, fmt.Errorf("periph: %s: %w", name, err)
	}

	return Wrap(p, opts.PollInterval), nil
}

// Wrap adapts an already configured line.
func Wrap(p gpio.PinIO, poll time.Duration) *Pin {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Pin{p: p, poll: poll}
}

func (p *Pin) String() string { return p.p.Name() }

func (p *Pin) IsHigh() (bool, error) {
	return p.p.Read() == gpio.High, nil
}

func (p *Pin) WaitForRisingEdge(ctx context.Context) error {
	return p.wait(ctx, gpio.High)
}

func (p *Pin) WaitForFallingEdge(ctx context.Context) error {
	return p.wait(ctx, gpio.Low)
}

// wait slices WaitForEdge so ctx is honoured. An edge that leaves the line
// at the other level is skipped.
func (p *Pin) wait(ctx context.Context, want gpio.Level) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.p.WaitForEdge(p.poll) {
			continue
		}
		if p.p.Read() == want {
			return nil
		}
	}
}

// Close stops edge detection on the line.
func (p *Pin) Close() error {
	if err := p.p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return fmt.Errorf("periph: %s: %w", p.p.Name(), err)
	}
	return nil
}

// ParsePull maps a config name to a periph pull setting.
func ParsePull(name string) (gpio.Pull, error) {
	switch name {
	case "":
		return gpio.PullNoChange, nil
	case "up":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	case "none":
		return gpio.Float, nil
	default:
		return gpio.PullNoChange, fmt.Errorf("periph: unknown pull %q", name)
	}
}
