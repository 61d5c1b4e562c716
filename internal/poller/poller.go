// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/quadrature-replicator/internal/decoder"
)

// Encoder abstracts one decoding pipeline (pins, decoder, movement mode).
// The poller depends on movement counts only.
type Encoder interface {
	// Step polls once. It returns +1, -1, or 0.
	// Blocking encoders sample and return; event encoders wait for an edge.
	Step(ctx context.Context) (int, error)
	Position() int32
	RawState() uint8
	IndexPulses() uint32
	// Close releases the pins and closes the lines behind them.
	Close() error
}

// Models.
const (
	ModelBlocking = "blocking"
	ModelEvent    = "event"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	UnitID string
	Model  string
	// Interval is the sampling period (blocking) or the back-off after a
	// failed wait (event).
	Interval time.Duration
}

// Poller owns exactly one encoder; all Steps happen on the Run goroutine.
type Poller struct {
	cfg Config
	enc Encoder

	forward  uint32
	backward uint32
	invalid  uint32

	last   PollResult
	primed bool
}

// New creates a poller with immutable config.
func New(cfg Config, enc Encoder) (*Poller, error) {
	if cfg.UnitID == "" {
		return nil, errors.New("poller: unit id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	switch cfg.Model {
	case ModelBlocking, ModelEvent:
	default:
		return nil, errors.New("poller: unknown model " + cfg.Model)
	}
	if enc == nil {
		return nil, errors.New("poller: encoder required")
	}
	return &Poller{cfg: cfg, enc: enc}, nil
}

// PollOnce performs exactly one poll cycle.
// The encoder state is reported even when the cycle failed.
func (p *Poller) PollOnce(ctx context.Context) PollResult {
	delta, err := p.enc.Step(ctx)

	switch {
	case delta > 0:
		p.forward++
	case delta < 0:
		p.backward++
	}
	if errors.Is(err, decoder.ErrInvalidTransition) {
		p.invalid++
	}
	return p.result(delta, err)
}

// Current reports the encoder state without polling.
func (p *Poller) Current() PollResult { return p.result(0, nil) }

func (p *Poller) result(delta int, err error) PollResult {
	return PollResult{
		UnitID:             p.cfg.UnitID,
		At:                 time.Now(),
		Movement:           delta,
		Position:           p.enc.Position(),
		Forward:            p.forward,
		Backward:           p.backward,
		InvalidTransitions: p.invalid,
		IndexPulses:        p.enc.IndexPulses(),
		RawState:           p.enc.RawState(),
		Err:                err,
	}
}

// changed reports whether res carries anything the last emitted result did
// not. Errors, and the first result after one, are always emitted.
func (p *Poller) changed(res PollResult) bool {
	if !p.primed || res.Err != nil || p.last.Err != nil {
		return true
	}
	return res.Movement != 0 ||
		res.RawState != p.last.RawState ||
		res.IndexPulses != p.last.IndexPulses ||
		res.Position != p.last.Position
}

// Close releases the encoder.
func (p *Poller) Close() error { return p.enc.Close() }
