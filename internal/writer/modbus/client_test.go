// internal/writer/modbus/client_test.go
package modbus

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"
)

type request struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

// serveFC16 answers write-multiple-registers requests on one connection and
// reports what it received.
func serveFC16(t *testing.T, ln net.Listener, got chan<- request) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		hdr := make([]byte, 7)
		if _, err := io.ReadFull(conn, hdr); err != nil {
			return
		}
		pdu := make([]byte, int(binary.BigEndian.Uint16(hdr[4:]))-1)
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return
		}

		qty := binary.BigEndian.Uint16(pdu[3:])
		req := request{unitID: hdr[6], addr: binary.BigEndian.Uint16(pdu[1:])}
		for i := 0; i < int(qty); i++ {
			req.regs = append(req.regs, binary.BigEndian.Uint16(pdu[6+2*i:]))
		}
		got <- req

		resp := make([]byte, 12)
		copy(resp, hdr[:4])
		binary.BigEndian.PutUint16(resp[4:], 6)
		resp[6] = hdr[6]
		copy(resp[7:], pdu[:5])
		if _, err := conn.Write(resp); err != nil {
			return
		}
	}
}

func TestEndpointClient_WriteRegisters(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	got := make(chan request, 1)
	go serveFC16(t, ln, got)

	c, err := NewEndpointClient(Config{Endpoint: ln.Addr().String(), Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewEndpointClient: %v", err)
	}
	defer c.Close()

	if err := c.WriteRegisters(7, 100, []uint16{0xFFFF, 0xFFFD, 3}); err != nil {
		t.Fatalf("WriteRegisters: %v", err)
	}

	select {
	case r := <-got:
		if r.unitID != 7 || r.addr != 100 {
			t.Fatalf("request unit=%d addr=%d", r.unitID, r.addr)
		}
		if len(r.regs) != 3 || r.regs[0] != 0xFFFF || r.regs[1] != 0xFFFD || r.regs[2] != 3 {
			t.Fatalf("regs got=%v", r.regs)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server saw no request")
	}

	// empty writes never reach the wire
	if err := c.WriteRegisters(7, 0, nil); err != nil {
		t.Fatalf("empty write: %v", err)
	}
}

func TestNewEndpointClient_Errors(t *testing.T) {
	if _, err := NewEndpointClient(Config{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	if _, err := NewEndpointClient(Config{Endpoint: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatalf("expected dial error for %s", addr)
	}
}
