// internal/decoder/decoder_test.go
package decoder

import (
	"errors"
	"math"
	"testing"
)

// one full cycle from rest (11), clock leading
var positiveCycle = [][2]bool{
	{false, true},
	{false, false},
	{true, false},
	{true, true},
}

var negativeCycle = [][2]bool{
	{true, false},
	{false, false},
	{false, true},
	{true, true},
}

func feed[T int8 | int16 | int32 | int64](t *testing.T, d *Decoder[T], cycle [][2]bool) (pos, neg int) {
	t.Helper()
	for _, s := range cycle {
		dir, ok, err := d.Update(s[0], s[1], true)
		if err != nil {
			t.Fatalf("Update(%v,%v) err=%v", s[0], s[1], err)
		}
		if !ok {
			continue
		}
		switch dir {
		case Positive:
			pos++
		case Negative:
			neg++
		}
	}
	return pos, neg
}

func TestDecoder_CyclesPerStepMode(t *testing.T) {
	tests := []struct {
		mode  StepMode
		pulse int
	}{
		{FullStep, 1},
		{HalfStep, 2},
		{QuadStep, 4},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			d := New[int32](tt.mode)

			const n = 5
			var pos int
			for i := 0; i < n; i++ {
				p, neg := feed(t, d, positiveCycle)
				if neg != 0 {
					t.Fatalf("unexpected negative movement")
				}
				pos += p
			}

			if pos != n*tt.pulse {
				t.Fatalf("movements got=%d want=%d", pos, n*tt.pulse)
			}
			if got := d.Counter(); got != int32(n*tt.pulse) {
				t.Fatalf("counter got=%d want=%d", got, n*tt.pulse)
			}
			if d.RawState() != 0b11 {
				t.Fatalf("raw state got=%02b want=11", d.RawState())
			}
		})
	}
}

func TestDecoder_ForwardThenBack(t *testing.T) {
	d := New[int32](QuadStep)

	for i := 0; i < 6; i++ {
		feed(t, d, positiveCycle)
	}
	for i := 0; i < 9; i++ {
		feed(t, d, negativeCycle)
	}

	want := int32((6 - 9) * QuadStep.PulsesPerCycle())
	if d.Counter() != want {
		t.Fatalf("counter got=%d want=%d", d.Counter(), want)
	}
}

func TestDecoder_JitterDoesNotCount(t *testing.T) {
	d := New[int32](FullStep)

	// bounce between 11 and 01 without completing a cycle
	for i := 0; i < 10; i++ {
		if _, ok, err := d.Update(false, true, true); ok || err != nil {
			t.Fatalf("bounce down: ok=%v err=%v", ok, err)
		}
		if _, ok, err := d.Update(true, true, true); ok || err != nil {
			t.Fatalf("bounce up: ok=%v err=%v", ok, err)
		}
	}
	if d.Counter() != 0 {
		t.Fatalf("counter got=%d want=0", d.Counter())
	}
}

func TestDecoder_InvalidTransition(t *testing.T) {
	d := New[int32](QuadStep)

	_, ok, err := d.Update(false, false, true) // 11 -> 00
	if ok {
		t.Fatalf("invalid transition must not report a movement")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	var te *TransitionError
	if !errors.As(err, &te) || te.From != 0b11 || te.To != 0b00 {
		t.Fatalf("unexpected transition error: %v", err)
	}

	// resynchronized to 00: next valid step counts
	dir, ok, err := d.Update(true, false, true) // 00 -> 10
	if err != nil || !ok || dir != Positive {
		t.Fatalf("after resync: dir=%v ok=%v err=%v", dir, ok, err)
	}
}

func TestDecoder_SaturatesAtUpperBound(t *testing.T) {
	d := New[int8](QuadStep)
	d.SetCounter(math.MaxInt8)

	for i := 0; i < 3; i++ {
		_, ok, err := d.Update(positiveCycle[i][0], positiveCycle[i][1], true)
		if err != nil || !ok {
			t.Fatalf("step %d: ok=%v err=%v", i, ok, err)
		}
		if d.Counter() != math.MaxInt8 {
			t.Fatalf("counter got=%d want=%d", d.Counter(), math.MaxInt8)
		}
	}
}

func TestDecoder_SaturatesAtLowerBound(t *testing.T) {
	d := New[int16](QuadStep)
	d.SetCounter(math.MinInt16)

	feed(t, d, negativeCycle)
	if d.Counter() != math.MinInt16 {
		t.Fatalf("counter got=%d want=%d", d.Counter(), math.MinInt16)
	}
}

func TestDecoder_ResetKeepsRawState(t *testing.T) {
	d := New[int32](QuadStep)
	d.Update(false, true, true)
	d.Reset()

	if d.Counter() != 0 {
		t.Fatalf("counter got=%d want=0", d.Counter())
	}
	if d.RawState() != 0b01 {
		t.Fatalf("raw state got=%02b want=01", d.RawState())
	}
}

func TestBounds(t *testing.T) {
	lo8, hi8 := Bounds[int8]()
	if lo8 != math.MinInt8 || hi8 != math.MaxInt8 {
		t.Fatalf("int8 bounds got=%d..%d", lo8, hi8)
	}
	lo64, hi64 := Bounds[int64]()
	if lo64 != math.MinInt64 || hi64 != math.MaxInt64 {
		t.Fatalf("int64 bounds got=%d..%d", lo64, hi64)
	}
	if SaturatingNeg[int8](math.MinInt8) != math.MaxInt8 {
		t.Fatalf("negating min must clamp to max")
	}
}

func TestParseStepMode(t *testing.T) {
	for name, want := range map[string]StepMode{"": FullStep, "full": FullStep, "half": HalfStep, "quad": QuadStep} {
		got, err := ParseStepMode(name)
		if err != nil || got != want {
			t.Fatalf("ParseStepMode(%q) got=%v err=%v", name, got, err)
		}
	}
	if _, err := ParseStepMode("eighth"); err == nil {
		t.Fatalf("expected error for unknown step mode")
	}
}
