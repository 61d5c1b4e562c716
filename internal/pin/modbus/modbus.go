// internal/pin/modbus/modbus.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Function codes usable as pin sources.
const (
	FCCoils          uint8 = 1
	FCDiscreteInputs uint8 = 2
)

// bitReader is the subset of modbus.Client the pins read through.
type bitReader interface {
	ReadCoils(address, quantity uint16) ([]byte, error)
	ReadDiscreteInputs(address, quantity uint16) ([]byte, error)
}

// Client is one TCP connection to a remote I/O unit.
// Every pin created from it shares the connection; reads are serialized.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	r       bitReader
	fc      uint8
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
	// FC selects coils (1) or discrete inputs (2); zero means 2.
	FC uint8
}

// New creates a connected client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("pin modbus: endpoint required")
	}
	fc := cfg.FC
	if fc == 0 {
		fc = FCDiscreteInputs
	}
	if fc != FCCoils && fc != FCDiscreteInputs {
		return nil, fmt.Errorf("pin modbus: unsupported function code %d", fc)
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{handler: h, r: modbus.NewClient(h), fc: fc}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// Input returns a pin reading one bit at addr.
func (c *Client) Input(addr uint16) *Input {
	return &Input{c: c, addr: addr}
}

func (c *Client) readBit(addr uint16) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		data []byte
		err  error
	)
	switch c.fc {
	case FCCoils:
		data, err = c.r.ReadCoils(addr, 1)
	default:
		data, err = c.r.ReadDiscreteInputs(addr, 1)
	}
	if err != nil {
		return false, fmt.Errorf("pin modbus: fc=%d addr=%d: %w", c.fc, addr, err)
	}
	if len(data) < 1 {
		return false, fmt.Errorf("pin modbus: fc=%d addr=%d: empty response", c.fc, addr)
	}
	return data[0]&1 != 0, nil
}

// Input is a remote bit. It cannot wait for edges; use the blocking model.
type Input struct {
	c    *Client
	addr uint16
}

func (in *Input) IsHigh() (bool, error) { return in.c.readBit(in.addr) }

func (in *Input) String() string { return fmt.Sprintf("modbus:%d", in.addr) }
