// internal/poller/builder.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/exp/constraints"

	cfg "github.com/tamzrod/quadrature-replicator/internal/config"
	"github.com/tamzrod/quadrature-replicator/internal/decoder"
	"github.com/tamzrod/quadrature-replicator/internal/encoder"
	"github.com/tamzrod/quadrature-replicator/internal/pin"
	"github.com/tamzrod/quadrature-replicator/internal/pin/cdev"
	pmodbus "github.com/tamzrod/quadrature-replicator/internal/pin/modbus"
	"github.com/tamzrod/quadrature-replicator/internal/pin/periph"
	"github.com/tamzrod/quadrature-replicator/internal/pin/sim"
)

// simSweepCycles is how far the sim source turns before reversing.
const simSweepCycles = 6

// Build opens the unit's lines, constructs its encoder and wraps it in a
// Poller. The returned closer releases the encoder and closes the lines.
// Config must be validated and normalized.
func Build(u cfg.UnitConfig) (*Poller, func() error, error) {
	lines, err := openLines(u)
	if err != nil {
		return nil, nil, fmt.Errorf("poller: unit %s: %w", u.ID, err)
	}

	enc, err := newEncoder(u, lines)
	if err != nil {
		_ = lines.close()
		return nil, nil, fmt.Errorf("poller: unit %s: %w", u.ID, err)
	}

	p, err := New(
		Config{
			UnitID:   u.ID,
			Model:    u.Poll.Model,
			Interval: time.Duration(u.Poll.IntervalMs) * time.Millisecond,
		},
		enc,
	)
	if err != nil {
		_ = enc.Close()
		return nil, nil, err
	}

	slog.Info("encoder ready",
		"unit", u.ID,
		"source", u.Source.Kind,
		"model", u.Poll.Model,
		"mode", u.Encoder.Mode,
		"step_mode", u.Encoder.StepMode,
		"indexed", u.Indexed(),
		"reversed", u.Encoder.Reversed,
	)

	return p, p.Close, nil
}

// lines are the opened pins of one unit. idx is nil without an index line.
type lines struct {
	clk, dt, idx pin.Input
	closers      []func() error
}

func (l *lines) close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}

// edges returns the lines as edge-capable pins.
func (l *lines) edges() (clk, dt, idx pin.Edge, err error) {
	var ok bool
	if clk, ok = l.clk.(pin.Edge); !ok {
		return nil, nil, nil, errors.New("clock line cannot wait for edges")
	}
	if dt, ok = l.dt.(pin.Edge); !ok {
		return nil, nil, nil, errors.New("data line cannot wait for edges")
	}
	if l.idx != nil {
		if idx, ok = l.idx.(pin.Edge); !ok {
			return nil, nil, nil, errors.New("index line cannot wait for edges")
		}
	}
	return clk, dt, idx, nil
}

func openLines(u cfg.UnitConfig) (*lines, error) {
	switch u.Source.Kind {
	case cfg.SourcePeriph:
		return openPeriph(u)
	case cfg.SourceCdev:
		return openCdev(u)
	case cfg.SourceModbus:
		return openModbus(u)
	case cfg.SourceSim:
		return openSim(u), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", u.Source.Kind)
	}
}

// open runs fn for clock, data and (if configured) index, closing what was
// opened on the first failure.
func open(u cfg.UnitConfig, fn func(name string) (pin.Input, func() error, error)) (*lines, error) {
	l := &lines{}
	names := []string{u.Pins.Clock, u.Pins.Data}
	if u.Indexed() {
		names = append(names, u.Pins.Index)
	}

	out := make([]pin.Input, len(names))
	for i, name := range names {
		p, closer, err := fn(name)
		if err != nil {
			_ = l.close()
			return nil, fmt.Errorf("%s pin %q: %w", pin.Channel(i), name, err)
		}
		out[i] = p
		if closer != nil {
			l.closers = append(l.closers, closer)
		}
	}

	l.clk, l.dt = out[0], out[1]
	if len(out) == 3 {
		l.idx = out[2]
	}
	return l, nil
}

func openPeriph(u cfg.UnitConfig) (*lines, error) {
	pull, err := periph.ParsePull(u.Source.Pull)
	if err != nil {
		return nil, err
	}
	opts := periph.Options{
		Pull:  pull,
		Edges: u.Poll.Model == cfg.ModelEvent,
	}
	return open(u, func(name string) (pin.Input, func() error, error) {
		p, err := periph.Open(name, opts)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	})
}

func openCdev(u cfg.UnitConfig) (*lines, error) {
	opts := cdev.Options{
		Pull:     u.Source.Pull,
		Debounce: time.Duration(u.Source.DebounceUs) * time.Microsecond,
		Consumer: "encoderd-" + u.ID,
		Edges:    u.Poll.Model == cfg.ModelEvent,
	}
	return open(u, func(name string) (pin.Input, func() error, error) {
		offset, err := strconv.Atoi(name)
		if err != nil {
			return nil, nil, err
		}
		p, err := cdev.Open(u.Source.Chip, offset, opts)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	})
}

func openModbus(u cfg.UnitConfig) (*lines, error) {
	client, err := pmodbus.New(pmodbus.Config{
		Endpoint: u.Source.Endpoint,
		UnitID:   u.Source.UnitID,
		Timeout:  time.Duration(u.Source.TimeoutMs) * time.Millisecond,
		FC:       u.Source.FC,
	})
	if err != nil {
		return nil, err
	}

	l, err := open(u, func(name string) (pin.Input, func() error, error) {
		addr, err := strconv.ParseUint(name, 10, 16)
		if err != nil {
			return nil, nil, err
		}
		return client.Input(uint16(addr)), nil, nil
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	l.closers = append(l.closers, client.Close)
	return l, nil
}

// openSim drives simulated lines from a background sweep. The sweep runs
// four times slower than sampling so the blocking model sees every step.
func openSim(u cfg.UnitConfig) *lines {
	d := sim.Driver{Clock: sim.New(true), Data: sim.New(true)}
	l := &lines{clk: d.Clock, dt: d.Data}
	if u.Indexed() {
		d.Index = sim.New(false)
		l.idx = d.Index
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.Run(ctx, simSweepCycles, 4*time.Duration(u.Poll.IntervalMs)*time.Millisecond)
	}()

	l.closers = append(l.closers, func() error {
		cancel()
		<-done
		return nil
	})
	return l
}

func newEncoder(u cfg.UnitConfig, l *lines) (Encoder, error) {
	steps, err := decoder.ParseStepMode(u.Encoder.StepMode)
	if err != nil {
		return nil, err
	}
	if u.Encoder.Mode == cfg.ModeLinear {
		return withCounter[encoder.LinearMovement](encoder.Linear{}, u, steps, l)
	}
	return withCounter[encoder.RotaryMovement](encoder.Rotary{}, u, steps, l)
}

func withCounter[M encoder.Movement[M]](mode encoder.Mode[M], u cfg.UnitConfig, steps decoder.StepMode, l *lines) (Encoder, error) {
	if u.Encoder.Counter == cfg.CounterInt16 {
		return build[M, int16](mode, u, steps, l)
	}
	return build[M, int32](mode, u, steps, l)
}

func build[M encoder.Movement[M], T constraints.Signed](mode encoder.Mode[M], u cfg.UnitConfig, steps decoder.StepMode, l *lines) (Encoder, error) {
	var dec encoder.Decoder[T] = decoder.New[T](steps)
	if l.idx != nil {
		dec = decoder.NewIndexed[T](steps)
	}

	if u.Poll.Model == cfg.ModelEvent {
		clk, dt, idx, err := l.edges()
		if err != nil {
			return nil, err
		}

		var e *encoder.AsyncEncoder[M, T]
		if idx != nil {
			e, err = encoder.NewAsyncIndexed[M, T](mode, dec, clk, dt, idx)
		} else {
			e, err = encoder.NewAsync[M, T](mode, dec, clk, dt)
		}
		if err != nil {
			return nil, err
		}
		if u.Encoder.Reversed {
			e.Reversed()
		}
		return newEventEncoder(e, l.close), nil
	}

	var (
		e   *encoder.Encoder[M, T]
		err error
	)
	if l.idx != nil {
		e, err = encoder.NewIndexed[M, T](mode, dec, l.clk, l.dt, l.idx)
	} else {
		e, err = encoder.New[M, T](mode, dec, l.clk, l.dt)
	}
	if err != nil {
		return nil, err
	}
	if u.Encoder.Reversed {
		e.Reversed()
	}
	return newBlockingEncoder(e, l.close), nil
}
