// internal/encoder/encoder.go
package encoder

import (
	"errors"

	"golang.org/x/exp/constraints"

	"github.com/tamzrod/quadrature-replicator/internal/decoder"
	"github.com/tamzrod/quadrature-replicator/internal/pin"
)

// ErrReleased is returned by Poll after Release.
var ErrReleased = errors.New("encoder: released")

// Decoder is the decode engine an encoder delegates to.
// *decoder.Decoder and *decoder.IndexedDecoder implement it.
type Decoder[T constraints.Signed] interface {
	// Update decodes one sample; see decoder.Decoder.Update.
	Update(clk, dt, idx bool) (decoder.Direction, bool, error)
	// Sync adopts the given levels as the current raw state.
	Sync(clk, dt, idx bool)
	Counter() T
	SetCounter(v T)
	Reset()
	RawState() uint8
	StepMode() decoder.StepMode
}

// Pins are the handles returned by Release. Index is nil for two-pin encoders.
type Pins[P pin.Input] struct {
	Clock P
	Data  P
	Index P
}

// state is shared by the blocking and event-driven encoders.
// Cached levels always equal the last sampled or awaited level of each pin.
// It has no locking: callers serialize Poll on one instance.
type state[P pin.Input, M Movement[M], T constraints.Signed] struct {
	mode    Mode[M]
	decoder Decoder[T]

	clk, dt, idx P
	indexed      bool

	clkHigh, dtHigh, idxHigh bool

	reversed bool
	released bool
}

// init samples every pin once. Construction fails on the first read error.
func (s *state[P, M, T]) init(mode Mode[M], d Decoder[T], pins Pins[P], indexed bool) error {
	if mode == nil {
		return errors.New("encoder: mode required")
	}
	if d == nil {
		return errors.New("encoder: decoder required")
	}
	if any(pins.Clock) == nil || any(pins.Data) == nil || (indexed && any(pins.Index) == nil) {
		return errors.New("encoder: nil pin")
	}

	s.mode = mode
	s.decoder = d
	s.clk, s.dt, s.idx = pins.Clock, pins.Data, pins.Index
	s.indexed = indexed

	// index is fixed high without an index pin
	s.idxHigh = true
	if err := s.sample(); err != nil {
		return err
	}
	s.decoder.Sync(s.clkHigh, s.dtHigh, s.idxHigh)
	return nil
}

// sample reads every owned pin into the cached levels.
func (s *state[P, M, T]) sample() error {
	var err error
	if s.clkHigh, err = s.clk.IsHigh(); err != nil {
		return &pin.Error{Channel: pin.Clock, Err: err}
	}
	if s.dtHigh, err = s.dt.IsHigh(); err != nil {
		return &pin.Error{Channel: pin.Data, Err: err}
	}
	if !s.indexed {
		return nil
	}
	if s.idxHigh, err = s.idx.IsHigh(); err != nil {
		return &pin.Error{Channel: pin.Index, Err: err}
	}
	return nil
}

// decode runs the cached levels through the decoder and the mode mapping.
func (s *state[P, M, T]) decode() (M, bool, error) {
	var none M

	dir, ok, err := s.decoder.Update(s.clkHigh, s.dtHigh, s.idxHigh)
	if err != nil || !ok {
		return none, false, err
	}

	m := s.mode.Movement(dir)
	if s.reversed {
		m = m.Flipped()
	}
	return m, true, nil
}

func (s *state[P, M, T]) flip(ch pin.Channel) {
	switch ch {
	case pin.Clock:
		s.clkHigh = !s.clkHigh
	case pin.Data:
		s.dtHigh = !s.dtHigh
	case pin.Index:
		s.idxHigh = !s.idxHigh
	}
}

func (s *state[P, M, T]) release() Pins[P] {
	pins := Pins[P]{Clock: s.clk, Data: s.dt}
	if s.indexed {
		pins.Index = s.idx
	}

	var zero P
	s.clk, s.dt, s.idx = zero, zero, zero
	s.released = true
	return pins
}

// IsReversed reports whether movements and position are flipped.
func (s *state[P, M, T]) IsReversed() bool { return s.reversed }

// Indexed reports whether the encoder owns an index pin.
func (s *state[P, M, T]) Indexed() bool { return s.indexed }

// Pins returns the clock and data pins for diagnostics. ok is false after
// Release, when the encoder no longer owns them. Only use the pins while no
// Poll is in flight.
func (s *state[P, M, T]) Pins() (clk, dt P, ok bool) {
	if s.released {
		return clk, dt, false
	}
	return s.clk, s.dt, true
}

// Reset zeroes the decoder's counter. Cached levels are kept.
func (s *state[P, M, T]) Reset() { s.decoder.Reset() }

// Position returns the position counter, negated while reversed.
func (s *state[P, M, T]) Position() T {
	v := s.decoder.Counter()
	if s.reversed {
		return decoder.SaturatingNeg(v)
	}
	return v
}

// SetPosition stages the counter directly; no movement is reported.
// While reversed, the minimum of T reads back as -max.
func (s *state[P, M, T]) SetPosition(v T) {
	if s.reversed {
		v = decoder.SaturatingNeg(v)
	}
	s.decoder.SetCounter(v)
}

// RawState returns the decoder's raw channel state (diagnostic).
func (s *state[P, M, T]) RawState() uint8 { return s.decoder.RawState() }

// PulsesPerCycle is the number of movements per full quadrature cycle.
func (s *state[P, M, T]) PulsesPerCycle() int {
	return s.decoder.StepMode().PulsesPerCycle()
}

// TransitionsPerPulse is the number of raw transitions per movement.
func (s *state[P, M, T]) TransitionsPerPulse() int {
	return s.decoder.StepMode().TransitionsPerPulse()
}

// IndexPulses returns the decoder's index count, or 0 if it has none.
func (s *state[P, M, T]) IndexPulses() uint32 {
	if ip, ok := s.decoder.(interface{ IndexPulses() uint32 }); ok {
		return ip.IndexPulses()
	}
	return 0
}

// Encoder is the blocking encoder: Poll samples every pin synchronously.
type Encoder[M Movement[M], T constraints.Signed] struct {
	state[pin.Input, M, T]
}

// New creates a two-pin blocking encoder.
func New[M Movement[M], T constraints.Signed](mode Mode[M], d Decoder[T], clk, dt pin.Input) (*Encoder[M, T], error) {
	e := &Encoder[M, T]{}
	if err := e.init(mode, d, Pins[pin.Input]{Clock: clk, Data: dt}, false); err != nil {
		return nil, err
	}
	return e, nil
}

// NewIndexed creates a three-pin blocking encoder.
func NewIndexed[M Movement[M], T constraints.Signed](mode Mode[M], d Decoder[T], clk, dt, idx pin.Input) (*Encoder[M, T], error) {
	e := &Encoder[M, T]{}
	if err := e.init(mode, d, Pins[pin.Input]{Clock: clk, Data: dt, Index: idx}, true); err != nil {
		return nil, err
	}
	return e, nil
}

// Reversed flips reported movements and position.
func (e *Encoder[M, T]) Reversed() *Encoder[M, T] {
	e.reversed = true
	return e
}

// Poll samples the pins and returns the movement, if one completed.
// Pin failures are *pin.Error; glitches match decoder.ErrInvalidTransition.
func (e *Encoder[M, T]) Poll() (M, bool, error) {
	var none M
	if e.released {
		return none, false, ErrReleased
	}
	if err := e.sample(); err != nil {
		return none, false, err
	}
	return e.decode()
}

// Release hands the pins back. Afterwards Poll returns ErrReleased and Pins
// reports false; the counter (Position, SetPosition, Reset) stays readable
// since it touches no pin.
func (e *Encoder[M, T]) Release() Pins[pin.Input] {
	return e.release()
}
