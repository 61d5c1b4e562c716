// internal/pin/modbus/modbus_test.go
package modbus

import (
	"errors"
	"testing"
)

type readCall struct {
	fc   uint8
	addr uint16
	qty  uint16
}

type fakeReader struct {
	bits  map[uint16]bool
	err   error
	calls []readCall
}

func (f *fakeReader) read(fc uint8, addr, qty uint16) ([]byte, error) {
	f.calls = append(f.calls, readCall{fc: fc, addr: addr, qty: qty})
	if f.err != nil {
		return nil, f.err
	}
	var b byte
	if f.bits[addr] {
		b = 1
	}
	// unused high bits must be ignored
	return []byte{b | 0xF0}, nil
}

func (f *fakeReader) ReadCoils(addr, qty uint16) ([]byte, error) {
	return f.read(FCCoils, addr, qty)
}

func (f *fakeReader) ReadDiscreteInputs(addr, qty uint16) ([]byte, error) {
	return f.read(FCDiscreteInputs, addr, qty)
}

func TestInput_ReadsOneDiscreteInput(t *testing.T) {
	fr := &fakeReader{bits: map[uint16]bool{10: true}}
	c := &Client{r: fr, fc: FCDiscreteInputs}

	clk, dt := c.Input(10), c.Input(11)

	if high, err := clk.IsHigh(); err != nil || !high {
		t.Fatalf("clock IsHigh() = %v, %v", high, err)
	}
	if high, err := dt.IsHigh(); err != nil || high {
		t.Fatalf("data IsHigh() = %v, %v", high, err)
	}

	want := []readCall{{FCDiscreteInputs, 10, 1}, {FCDiscreteInputs, 11, 1}}
	if len(fr.calls) != len(want) {
		t.Fatalf("calls got=%v want=%v", fr.calls, want)
	}
	for i := range want {
		if fr.calls[i] != want[i] {
			t.Fatalf("call %d got=%+v want=%+v", i, fr.calls[i], want[i])
		}
	}
}

func TestInput_Coils(t *testing.T) {
	fr := &fakeReader{bits: map[uint16]bool{3: true}}
	c := &Client{r: fr, fc: FCCoils}

	if high, err := c.Input(3).IsHigh(); err != nil || !high {
		t.Fatalf("IsHigh() = %v, %v", high, err)
	}
	if fr.calls[0].fc != FCCoils {
		t.Fatalf("expected coil read, got fc=%d", fr.calls[0].fc)
	}
}

func TestInput_WrapsTransportError(t *testing.T) {
	boom := errors.New("i/o timeout")
	c := &Client{r: &fakeReader{err: boom}, fc: FCDiscreteInputs}

	_, err := c.Input(0).IsHigh()
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	if _, err := New(Config{Endpoint: "127.0.0.1:502", FC: 3}); err == nil {
		t.Fatalf("expected error for register function code")
	}
}
