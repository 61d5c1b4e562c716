// internal/poller/types.go
package poller

import "time"

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	UnitID string
	At     time.Time

	// Movement is +1, -1, or 0 when no step completed.
	Movement int
	Position int32

	// cumulative since start
	Forward            uint32
	Backward           uint32
	InvalidTransitions uint32

	IndexPulses uint32
	RawState    uint8

	Err error // non-nil means the poll cycle failed
}
