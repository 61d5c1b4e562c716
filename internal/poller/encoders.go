// internal/poller/encoders.go
package poller

import (
	"context"

	"golang.org/x/exp/constraints"

	"github.com/tamzrod/quadrature-replicator/internal/encoder"
)

// view is what both encoder flavours expose besides Poll.
type view[T constraints.Signed] interface {
	Position() T
	RawState() uint8
	IndexPulses() uint32
}

type common[T constraints.Signed] struct {
	v      view[T]
	closer func() error
}

func (c common[T]) Position() int32     { return int32(c.v.Position()) }
func (c common[T]) RawState() uint8     { return c.v.RawState() }
func (c common[T]) IndexPulses() uint32 { return c.v.IndexPulses() }

func (c common[T]) close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// blockingEncoder samples on every Step.
type blockingEncoder[M encoder.Movement[M], T constraints.Signed] struct {
	common[T]
	enc *encoder.Encoder[M, T]
}

func newBlockingEncoder[M encoder.Movement[M], T constraints.Signed](e *encoder.Encoder[M, T], closer func() error) *blockingEncoder[M, T] {
	return &blockingEncoder[M, T]{common: common[T]{v: e, closer: closer}, enc: e}
}

func (b *blockingEncoder[M, T]) Step(context.Context) (int, error) {
	m, ok, err := b.enc.Poll()
	if err != nil || !ok {
		return 0, err
	}
	return m.Delta(), nil
}

func (b *blockingEncoder[M, T]) Close() error {
	b.enc.Release()
	return b.close()
}

// eventEncoder waits for an edge on every Step.
type eventEncoder[M encoder.Movement[M], T constraints.Signed] struct {
	common[T]
	enc *encoder.AsyncEncoder[M, T]
}

func newEventEncoder[M encoder.Movement[M], T constraints.Signed](e *encoder.AsyncEncoder[M, T], closer func() error) *eventEncoder[M, T] {
	return &eventEncoder[M, T]{common: common[T]{v: e, closer: closer}, enc: e}
}

func (e *eventEncoder[M, T]) Step(ctx context.Context) (int, error) {
	m, ok, err := e.enc.Poll(ctx)
	if err != nil || !ok {
		return 0, err
	}
	return m.Delta(), nil
}

func (e *eventEncoder[M, T]) Close() error {
	e.enc.Release()
	return e.close()
}
