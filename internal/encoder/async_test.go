// internal/encoder/async_test.go
package encoder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/quadrature-replicator/internal/decoder"
	"github.com/tamzrod/quadrature-replicator/internal/pin"
	"github.com/tamzrod/quadrature-replicator/internal/pin/sim"
)

func newAsyncRotary(t *testing.T, steps decoder.StepMode, drv sim.Driver) *AsyncEncoder[RotaryMovement, int32] {
	t.Helper()
	e, err := NewAsync[RotaryMovement, int32](Rotary{}, decoder.New[int32](steps), drv.Clock, drv.Data)
	if err != nil {
		t.Fatalf("NewAsync() err=%v", err)
	}
	return e
}

func TestAsyncEncoder_SweepPerStepMode(t *testing.T) {
	for _, steps := range []decoder.StepMode{decoder.FullStep, decoder.HalfStep, decoder.QuadStep} {
		t.Run(steps.String(), func(t *testing.T) {
			drv := restDriver()
			e := newAsyncRotary(t, steps, drv)
			p := e.PulsesPerCycle()
			expected := p * (cwCycles + ccwCycles)

			ctx := context.Background()
			sweep := func(dir decoder.Direction, cycles int) {
				for i := 0; i < cycles*4; i++ {
					drv.Step(dir)
					m, ok, err := e.Poll(ctx)
					if err != nil {
						t.Fatalf("Poll err=%v", err)
					}
					if ok {
						if m.Delta() != int(dir) {
							t.Fatalf("movement %v for direction %v", m, dir)
						}
						expected--
					}
				}
			}
			sweep(decoder.Positive, cwCycles)
			sweep(decoder.Negative, ccwCycles)

			if expected != 0 {
				t.Fatalf("unreported movements: %d", expected)
			}
			want := int32((cwCycles - ccwCycles) * p)
			if e.Position() != want {
				t.Fatalf("position got=%d want=%d", e.Position(), want)
			}
			if drv.Clock.Pending() != 0 || drv.Data.Pending() != 0 {
				t.Fatalf("edges left unconsumed: clk=%d dt=%d", drv.Clock.Pending(), drv.Data.Pending())
			}
		})
	}
}

func TestAsyncEncoder_DoesNotReadPins(t *testing.T) {
	drv := restDriver()
	e := newAsyncRotary(t, decoder.QuadStep, drv)
	reads := drv.Clock.Reads() + drv.Data.Reads()

	for i := 0; i < 8; i++ {
		drv.Step(decoder.Positive)
		if _, _, err := e.Poll(context.Background()); err != nil {
			t.Fatalf("Poll err=%v", err)
		}
	}

	if got := drv.Clock.Reads() + drv.Data.Reads(); got != reads {
		t.Fatalf("async poll re-read pins: %d reads after construction", got-reads)
	}
}

func TestAsyncEncoder_WaitsForEdge(t *testing.T) {
	drv := restDriver()
	e := newAsyncRotary(t, decoder.QuadStep, drv)

	type result struct {
		m   RotaryMovement
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		m, ok, err := e.Poll(context.Background())
		done <- result{m, ok, err}
	}()

	select {
	case r := <-done:
		t.Fatalf("Poll returned without an edge: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}

	drv.Step(decoder.Negative)

	select {
	case r := <-done:
		if r.err != nil || !r.ok || r.m != CounterClockwise {
			t.Fatalf("got %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatalf("Poll did not return after edge")
	}
}

func TestAsyncEncoder_CancelLeavesNoWaiters(t *testing.T) {
	drv := restDriver()
	e := newAsyncRotary(t, decoder.QuadStep, drv)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := e.Poll(ctx)
	if ok || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got ok=%v err=%v", ok, err)
	}

	// nothing is waiting any more, so a new edge stays latched
	drv.Step(decoder.Positive)
	time.Sleep(10 * time.Millisecond)
	if drv.Clock.Pending() != 1 {
		t.Fatalf("edge consumed after Poll returned: pending=%d", drv.Clock.Pending())
	}

	m, ok, err := e.Poll(context.Background())
	if err != nil || !ok || m != Clockwise {
		t.Fatalf("next poll: m=%v ok=%v err=%v", m, ok, err)
	}
}

func TestAsyncEncoder_CoalescedEdgesAreRejected(t *testing.T) {
	drv := restDriver()
	e := newAsyncRotary(t, decoder.QuadStep, drv)

	// two edges on different pins land before one Poll: their order is lost
	drv.Clock.Set(false)
	drv.Data.Set(false)

	_, ok, err := e.Poll(context.Background())
	if ok || !errors.Is(err, decoder.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got ok=%v err=%v", ok, err)
	}

	// both edges were applied, so the cache matches the lines again
	if e.RawState() != 0b00 {
		t.Fatalf("raw state got=%02b want=00", e.RawState())
	}
	drv.Step(decoder.Positive)
	if m, ok, err := e.Poll(context.Background()); err != nil || !ok || m != Clockwise {
		t.Fatalf("after glitch: m=%v ok=%v err=%v", m, ok, err)
	}
}

func TestAsyncEncoder_EdgeKeptWhenContextEnds(t *testing.T) {
	drv := restDriver()
	e := newAsyncRotary(t, decoder.QuadStep, drv)

	done, cancel := context.WithCancel(context.Background())
	cancel()

	const rounds = 50
	for i := 0; i < rounds; i++ {
		// a latched edge is reported even though ctx is already over
		drv.Step(decoder.Positive)
		m, ok, err := e.Poll(done)
		if err != nil || !ok || m != Clockwise {
			t.Fatalf("round %d cancelled poll: m=%v ok=%v err=%v", i, m, ok, err)
		}

		drv.Step(decoder.Positive)
		m, ok, err = e.Poll(context.Background())
		if err != nil || !ok || m != Clockwise {
			t.Fatalf("round %d next poll: m=%v ok=%v err=%v", i, m, ok, err)
		}
	}

	if e.Position() != 2*rounds {
		t.Fatalf("position got=%d want=%d", e.Position(), 2*rounds)
	}
	if _, _, err := e.Poll(done); !errors.Is(err, context.Canceled) {
		t.Fatalf("no edge and cancelled ctx: err=%v", err)
	}
}

func TestAsyncEncoder_EdgeKeptWhenOtherPinFails(t *testing.T) {
	drv := restDriver()
	e := newAsyncRotary(t, decoder.QuadStep, drv)
	boom := errors.New("line revoked")

	const rounds = 50
	for i := 0; i < rounds; i++ {
		// clock edge latched while the data line is failing
		drv.Step(decoder.Positive)
		drv.Data.Fail(boom)

		m, ok, err := e.Poll(context.Background())
		if err != nil || !ok || m != Clockwise {
			t.Fatalf("round %d: m=%v ok=%v err=%v", i, m, ok, err)
		}

		// the failure shows up once no edge is left to apply
		_, _, err = e.Poll(context.Background())
		var pe *pin.Error
		if !errors.As(err, &pe) || pe.Channel != pin.Data || !errors.Is(err, boom) {
			t.Fatalf("round %d: expected data pin error, got %v", i, err)
		}

		drv.Data.Fail(nil)
		drv.Step(decoder.Positive)
		m, ok, err = e.Poll(context.Background())
		if err != nil || !ok || m != Clockwise {
			t.Fatalf("round %d after recovery: m=%v ok=%v err=%v", i, m, ok, err)
		}
	}

	if e.Position() != 2*rounds {
		t.Fatalf("position got=%d want=%d", e.Position(), 2*rounds)
	}
}

func TestAsyncEncoder_WaitErrorNamesChannel(t *testing.T) {
	drv := restDriver()
	e := newAsyncRotary(t, decoder.FullStep, drv)

	boom := errors.New("line revoked")
	drv.Clock.Fail(boom)

	_, _, err := e.Poll(context.Background())
	var pe *pin.Error
	if !errors.As(err, &pe) || pe.Channel != pin.Clock || !errors.Is(err, boom) {
		t.Fatalf("expected clock pin error, got %v", err)
	}
}

func TestAsyncEncoder_Indexed(t *testing.T) {
	drv := restDriver()
	idx := sim.New(false)

	e, err := NewAsyncIndexed[RotaryMovement, int32](Rotary{}, decoder.NewIndexed[int32](decoder.QuadStep), drv.Clock, drv.Data, idx)
	if err != nil {
		t.Fatalf("NewAsyncIndexed() err=%v", err)
	}
	e.Reversed()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		drv.Step(decoder.Positive)
		m, ok, err := e.Poll(ctx)
		if err != nil || !ok || m != CounterClockwise {
			t.Fatalf("step %d: m=%v ok=%v err=%v", i, m, ok, err)
		}
	}
	if e.Position() != -3 {
		t.Fatalf("position got=%d want=-3", e.Position())
	}

	idx.Set(true)
	if _, ok, err := e.Poll(ctx); ok || err != nil {
		t.Fatalf("index edge: ok=%v err=%v", ok, err)
	}
	if e.Position() != 0 || e.IndexPulses() != 1 {
		t.Fatalf("after index: position=%d pulses=%d", e.Position(), e.IndexPulses())
	}

	// index falls: cached level must follow
	idx.Set(false)
	if _, _, err := e.Poll(ctx); err != nil {
		t.Fatalf("index fall err=%v", err)
	}
	if e.RawState()&0b100 != 0 {
		t.Fatalf("index bit still set: %03b", e.RawState())
	}

	pins := e.Release()
	if pins.Index != pin.Edge(idx) {
		t.Fatalf("Release must return the index pin")
	}
	if _, _, err := e.Poll(ctx); !errors.Is(err, ErrReleased) {
		t.Fatalf("Poll after Release err=%v", err)
	}
}
