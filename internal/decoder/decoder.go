// internal/decoder/decoder.go
package decoder

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Direction is the sign of a decoded change.
type Direction int8

const (
	Positive Direction = 1
	Negative Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "none"
	}
}

// ErrInvalidTransition reports a raw state change that is not reachable on
// the Gray-code cycle from the previous state (glitch or missed sample).
var ErrInvalidTransition = errors.New("decoder: invalid transition")

// TransitionError carries the raw states of a rejected transition.
// It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From uint8
	To   uint8
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("decoder: invalid transition %02b -> %02b", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// step values for the transition table.
const (
	none    int8 = 0
	invalid int8 = 2
)

// transitions is indexed by prev<<2 | next, with raw state clk<<1 | dt.
// Positive (clock leads): 11 -> 01 -> 00 -> 10 -> 11.
var transitions = [16]int8{
	// prev 00
	none, -1, +1, invalid,
	// prev 01
	+1, none, invalid, -1,
	// prev 10
	-1, invalid, none, +1,
	// prev 11
	invalid, +1, -1, none,
}

func raw(clk, dt bool) uint8 {
	var s uint8
	if clk {
		s |= 0b10
	}
	if dt {
		s |= 0b01
	}
	return s
}

// Decoder is a two-channel incremental decoder with a saturating counter.
// The zero value is not usable; use New.
type Decoder[T constraints.Signed] struct {
	steps   StepMode
	state   uint8
	acc     int
	counter T
}

// New returns a decoder resting in state 11.
func New[T constraints.Signed](steps StepMode) *Decoder[T] {
	if steps == nil {
		steps = FullStep
	}
	return &Decoder[T]{steps: steps, state: 0b11}
}

// Sync sets the raw state from observed levels without counting anything.
// The index level is ignored.
func (d *Decoder[T]) Sync(clk, dt, _ bool) {
	d.state = raw(clk, dt)
	d.acc = 0
}

// Update feeds one sample. It returns the direction and true when a movement
// completed, false when nothing was reported, or a *TransitionError when
// both channels changed at once. After an error the decoder resynchronizes
// to the observed state and keeps accepting updates.
func (d *Decoder[T]) Update(clk, dt, _ bool) (Direction, bool, error) {
	next := raw(clk, dt)
	prev := d.state
	d.state = next

	switch step := transitions[prev<<2|next]; step {
	case none:
		return 0, false, nil
	case invalid:
		d.acc = 0
		return 0, false, &TransitionError{From: prev, To: next}
	default:
		d.acc += int(step)
	}

	n := d.steps.TransitionsPerPulse()
	switch {
	case d.acc >= n:
		d.acc -= n
		d.counter = SaturatingAdd(d.counter, Positive)
		return Positive, true, nil
	case d.acc <= -n:
		d.acc += n
		d.counter = SaturatingAdd(d.counter, Negative)
		return Negative, true, nil
	}
	return 0, false, nil
}

// Counter returns the position counter.
func (d *Decoder[T]) Counter() T { return d.counter }

// SetCounter overwrites the counter; no transitions are replayed.
func (d *Decoder[T]) SetCounter(v T) { d.counter = v }

// Reset zeroes the counter and any partial step. The raw state is kept.
func (d *Decoder[T]) Reset() {
	d.counter = 0
	d.acc = 0
}

// RawState returns the last observed clk<<1 | dt.
func (d *Decoder[T]) RawState() uint8 { return d.state }

// StepMode returns the decoder's step mode.
func (d *Decoder[T]) StepMode() StepMode { return d.steps }
