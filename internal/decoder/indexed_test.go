// internal/decoder/indexed_test.go
package decoder

import "testing"

func TestIndexedDecoder_RisingIndexZeroesCounter(t *testing.T) {
	d := NewIndexed[int32](QuadStep)
	d.Sync(true, true, false)

	for _, s := range positiveCycle {
		if _, _, err := d.Update(s[0], s[1], false); err != nil {
			t.Fatalf("Update err=%v", err)
		}
	}
	if d.Counter() != 4 {
		t.Fatalf("counter got=%d want=4", d.Counter())
	}

	// index rises together with a valid step: step is reported, then homed
	dir, ok, err := d.Update(false, true, true)
	if err != nil || !ok || dir != Positive {
		t.Fatalf("step with index: dir=%v ok=%v err=%v", dir, ok, err)
	}
	if d.Counter() != 0 {
		t.Fatalf("counter after index got=%d want=0", d.Counter())
	}
	if d.IndexPulses() != 1 {
		t.Fatalf("index pulses got=%d want=1", d.IndexPulses())
	}
	if d.RawState() != 0b101 {
		t.Fatalf("raw state got=%03b want=101", d.RawState())
	}

	// index held high is not a new reference
	d.Update(false, false, true)
	if d.Counter() != 1 {
		t.Fatalf("counter got=%d want=1", d.Counter())
	}
	if d.IndexPulses() != 1 {
		t.Fatalf("index pulses got=%d want=1", d.IndexPulses())
	}
}

func TestIndexedDecoder_IndexAloneIsNotAMovement(t *testing.T) {
	d := NewIndexed[int32](FullStep)
	d.Sync(true, true, false)
	d.SetCounter(42)

	_, ok, err := d.Update(true, true, true)
	if ok || err != nil {
		t.Fatalf("index only: ok=%v err=%v", ok, err)
	}
	if d.Counter() != 0 {
		t.Fatalf("counter got=%d want=0", d.Counter())
	}

	_, ok, err = d.Update(true, true, false)
	if ok || err != nil {
		t.Fatalf("index falling: ok=%v err=%v", ok, err)
	}
	if d.IndexPulses() != 1 {
		t.Fatalf("falling edge must not count: got=%d", d.IndexPulses())
	}
}
