// internal/encoder/movement.go
package encoder

import "github.com/tamzrod/quadrature-replicator/internal/decoder"

// Movement is one reported step in a mode-specific direction.
type Movement[M any] interface {
	comparable
	// Flipped returns the opposite direction (used for reversal).
	Flipped() M
	// Delta is +1 or -1, matching the counter's change.
	Delta() int
	String() string
}

// Mode maps a decoded direction to a mode-specific movement.
type Mode[M any] interface {
	Movement(dir decoder.Direction) M
}

// RotaryMovement is a rotary encoder step.
type RotaryMovement int8

const (
	Clockwise        RotaryMovement = 1
	CounterClockwise RotaryMovement = -1
)

func (m RotaryMovement) Flipped() RotaryMovement { return -m }
func (m RotaryMovement) Delta() int              { return int(m) }

func (m RotaryMovement) String() string {
	switch m {
	case Clockwise:
		return "Clockwise"
	case CounterClockwise:
		return "Counter Clockwise"
	default:
		return "Unknown"
	}
}

// LinearMovement is a linear encoder step.
type LinearMovement int8

const (
	Forward  LinearMovement = 1
	Backward LinearMovement = -1
)

func (m LinearMovement) Flipped() LinearMovement { return -m }
func (m LinearMovement) Delta() int              { return int(m) }

func (m LinearMovement) String() string {
	switch m {
	case Forward:
		return "Forward"
	case Backward:
		return "Backward"
	default:
		return "Unknown"
	}
}

// Rotary reports Clockwise for positive changes.
type Rotary struct{}

func (Rotary) Movement(dir decoder.Direction) RotaryMovement {
	if dir == decoder.Positive {
		return Clockwise
	}
	return CounterClockwise
}

// Linear reports Forward for positive changes.
type Linear struct{}

func (Linear) Movement(dir decoder.Direction) LinearMovement {
	if dir == decoder.Positive {
		return Forward
	}
	return Backward
}
