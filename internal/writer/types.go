// internal/writer/types.go
package writer

import "github.com/tamzrod/quadrature-replicator/internal/poller"

// TargetEndpoint is one position block destination.
type TargetEndpoint struct {
	Endpoint string
	UnitID   uint8
	Address  uint16
}

// StatusPlan is one device status block destination.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built write plan for one unit.
type Plan struct {
	UnitID  string
	Targets []TargetEndpoint
	Status  []StatusPlan // empty: status disabled
}

// Writer writes poll snapshots into targets.
type Writer interface {
	Write(res poller.PollResult) error
}
