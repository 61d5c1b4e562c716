// internal/decoder/indexed.go
package decoder

import "golang.org/x/exp/constraints"

// IndexedDecoder adds an index (home) channel to Decoder.
//
// A rising edge on the index channel is the absolute reference: it zeroes the
// counter and any partial step, after the clock/data sample of the same update
// has been decoded. The index channel never produces a movement or an error.
type IndexedDecoder[T constraints.Signed] struct {
	Decoder[T]
	index  bool
	pulses uint32
}

// NewIndexed returns an indexed decoder resting in state 011.
func NewIndexed[T constraints.Signed](steps StepMode) *IndexedDecoder[T] {
	return &IndexedDecoder[T]{Decoder: *New[T](steps)}
}

// Sync sets the raw state, index level included, without counting anything.
func (d *IndexedDecoder[T]) Sync(clk, dt, idx bool) {
	d.Decoder.Sync(clk, dt, idx)
	d.index = idx
}

// Update decodes clock/data and applies the index reference.
func (d *IndexedDecoder[T]) Update(clk, dt, idx bool) (Direction, bool, error) {
	rising := idx && !d.index
	d.index = idx

	dir, ok, err := d.Decoder.Update(clk, dt, idx)
	if rising {
		d.pulses++
		d.counter = 0
		d.acc = 0
	}
	return dir, ok, err
}

// RawState returns idx<<2 | clk<<1 | dt.
func (d *IndexedDecoder[T]) RawState() uint8 {
	s := d.Decoder.RawState()
	if d.index {
		s |= 0b100
	}
	return s
}

// IndexPulses counts index rising edges seen since construction.
func (d *IndexedDecoder[T]) IndexPulses() uint32 { return d.pulses }
