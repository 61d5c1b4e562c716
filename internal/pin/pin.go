// internal/pin/pin.go
package pin

import (
	"context"
	"fmt"
)

// Input is a digital input line that can be sampled.
type Input interface {
	IsHigh() (bool, error)
}

// Edge is an input that can also suspend until a transition.
// A wait returns on the next unreported transition in the requested
// direction, never on the current level alone, and returns ctx.Err()
// promptly once the context is done.
type Edge interface {
	Input
	WaitForRisingEdge(ctx context.Context) error
	WaitForFallingEdge(ctx context.Context) error
}

// Channel names an encoder signal line.
type Channel uint8

const (
	Clock Channel = iota
	Data
	Index
)

func (c Channel) String() string {
	switch c {
	case Clock:
		return "clock"
	case Data:
		return "data"
	case Index:
		return "index"
	default:
		return fmt.Sprintf("channel(%d)", uint8(c))
	}
}

// Error is a read or wait failure on one channel.
type Error struct {
	Channel Channel
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pin %s: %v", e.Channel, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
