// internal/encoder/async.go
package encoder

import (
	"context"
	"sync"

	"golang.org/x/exp/constraints"

	"github.com/tamzrod/quadrature-replicator/internal/pin"
)

// AsyncEncoder is the event-driven encoder: Poll suspends until a pin reports
// an edge instead of re-sampling.
//
// Edge waits must never fire spuriously. Edges that coalesce across pins
// within one Poll are all applied at once, so the decoder's invalid
// transition check is what catches them.
type AsyncEncoder[M Movement[M], T constraints.Signed] struct {
	state[pin.Edge, M, T]
}

// NewAsync creates a two-pin event-driven encoder.
func NewAsync[M Movement[M], T constraints.Signed](mode Mode[M], d Decoder[T], clk, dt pin.Edge) (*AsyncEncoder[M, T], error) {
	e := &AsyncEncoder[M, T]{}
	if err := e.init(mode, d, Pins[pin.Edge]{Clock: clk, Data: dt}, false); err != nil {
		return nil, err
	}
	return e, nil
}

// NewAsyncIndexed creates a three-pin event-driven encoder.
func NewAsyncIndexed[M Movement[M], T constraints.Signed](mode Mode[M], d Decoder[T], clk, dt, idx pin.Edge) (*AsyncEncoder[M, T], error) {
	e := &AsyncEncoder[M, T]{}
	if err := e.init(mode, d, Pins[pin.Edge]{Clock: clk, Data: dt, Index: idx}, true); err != nil {
		return nil, err
	}
	return e, nil
}

// Reversed flips reported movements and position.
func (e *AsyncEncoder[M, T]) Reversed() *AsyncEncoder[M, T] {
	e.reversed = true
	return e
}

// Poll waits for the next edge on any owned pin, flips that pin's cached
// level without re-reading it, then decodes like the blocking Poll.
//
// There is no timeout; cancel ctx to abort. On cancellation Poll returns
// ctx.Err() and no wait goroutine outlives the call.
//
// An edge that was consumed is always decoded, even when another wait failed
// or ctx ended in the same call. The failure then surfaces on the next Poll.
func (e *AsyncEncoder[M, T]) Poll(ctx context.Context) (M, bool, error) {
	var none M
	if e.released {
		return none, false, ErrReleased
	}
	applied, err := e.await(ctx)
	if !applied {
		return none, false, err
	}
	return e.decode()
}

// Release hands the pins back. Afterwards Poll returns ErrReleased and Pins
// reports false; the counter stays readable.
func (e *AsyncEncoder[M, T]) Release() Pins[pin.Edge] {
	return e.release()
}

type watch struct {
	ch   pin.Channel
	p    pin.Edge
	high bool
}

type edge struct {
	ch  pin.Channel
	err error
}

// await races one edge wait per pin. The first result ends the race; the
// others are cancelled and joined. Every wait that completed flips its pin's
// cached level, since its edge was consumed. applied reports whether any did.
// err is only meaningful when nothing was applied.
func (e *AsyncEncoder[M, T]) await(ctx context.Context) (applied bool, err error) {
	watches := []watch{
		{ch: pin.Clock, p: e.clk, high: e.clkHigh},
		{ch: pin.Data, p: e.dt, high: e.dtHigh},
	}
	if e.indexed {
		watches = append(watches, watch{ch: pin.Index, p: e.idx, high: e.idxHigh})
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan edge, len(watches))
	var wg sync.WaitGroup
	for _, w := range watches {
		wg.Add(1)
		go func(w watch) {
			defer wg.Done()
			var err error
			// high waits for falling, low waits for rising
			if w.high {
				err = w.p.WaitForFallingEdge(waitCtx)
			} else {
				err = w.p.WaitForRisingEdge(waitCtx)
			}
			results <- edge{ch: w.ch, err: err}
		}(w)
	}

	first := <-results
	cancel()
	wg.Wait()
	close(results)

	for r := range results {
		if r.err == nil {
			e.flip(r.ch)
			applied = true
		}
	}
	if first.err == nil {
		e.flip(first.ch)
		applied = true
	}

	if applied {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return false, &pin.Error{Channel: first.ch, Err: first.err}
}
