// internal/status/snapshot.go
package status

// Snapshot represents exactly what the status writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health             uint16
	LastErrorCode      uint16
	SecondsInError     uint16
	InvalidTransitions uint16
}

// Position is the content of one position block.
type Position struct {
	Value       int32
	Forward     uint32
	Backward    uint32
	IndexPulses uint32
	RawState    uint8
}
