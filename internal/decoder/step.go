// internal/decoder/step.go
package decoder

import "fmt"

// transitionsPerCycle is the number of raw Gray-code transitions in one
// full quadrature cycle (11 -> 01 -> 00 -> 10 -> 11).
const transitionsPerCycle = 4

// StepMode decides how many raw transitions make one reported movement.
// A decoder is built with one step mode and keeps it for its lifetime.
type StepMode interface {
	// PulsesPerCycle is the number of movements reported per full cycle.
	PulsesPerCycle() int
	// TransitionsPerPulse is the number of raw transitions per movement.
	TransitionsPerPulse() int
	String() string
}

type stepMode struct {
	name   string
	pulses int
}

func (s stepMode) PulsesPerCycle() int      { return s.pulses }
func (s stepMode) TransitionsPerPulse() int { return transitionsPerCycle / s.pulses }
func (s stepMode) String() string           { return s.name }

var (
	// FullStep reports one movement per full cycle.
	FullStep StepMode = stepMode{name: "full", pulses: 1}
	// HalfStep reports one movement every two transitions.
	HalfStep StepMode = stepMode{name: "half", pulses: 2}
	// QuadStep reports every valid transition.
	QuadStep StepMode = stepMode{name: "quad", pulses: 4}
)

// ParseStepMode maps a config name to a step mode.
func ParseStepMode(name string) (StepMode, error) {
	switch name {
	case "full", "":
		return FullStep, nil
	case "half":
		return HalfStep, nil
	case "quad":
		return QuadStep, nil
	default:
		return nil, fmt.Errorf("decoder: unknown step mode %q", name)
	}
}
