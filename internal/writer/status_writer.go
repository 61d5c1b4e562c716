// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/quadrature-replicator/internal/status"
)

// StatusWriter delivers status snapshots. It never decides health.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// deviceStatusWriter owns one status block on one endpoint.
//
// The first write, and the first write after any failure, asserts the whole
// block including the device name. Otherwise only the span of live slots that
// differ from what was last delivered is written, as one request.
type deviceStatusWriter struct {
	plan StatusPlan
	cli  endpointClient

	synced    bool
	delivered []uint16 // live slots as last written
}

// NewDeviceStatusWriter returns a writer for every status destination in
// plan, or false when the unit has status disabled.
func NewDeviceStatusWriter(plan Plan, clients map[string]endpointClient) (StatusWriter, bool) {
	switch len(plan.Status) {
	case 0:
		return nil, false
	case 1:
		sp := plan.Status[0]
		return &deviceStatusWriter{plan: sp, cli: clients[sp.Endpoint]}, true
	}

	ws := make(multiStatusWriter, 0, len(plan.Status))
	for _, sp := range plan.Status {
		ws = append(ws, &deviceStatusWriter{plan: sp, cli: clients[sp.Endpoint]})
	}
	return ws, true
}

func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw.cli == nil {
		return fmt.Errorf("status writer: no client for %s", sw.plan.Endpoint)
	}
	base := sw.plan.BaseSlot * status.SlotsPerDevice

	if !sw.synced {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, status.Encode(s, sw.plan.DeviceName)); err != nil {
			return fmt.Errorf("status writer: block %d: %w", sw.plan.BaseSlot, err)
		}
		sw.synced = true
		sw.delivered = s.Slots()
		return nil
	}

	next := s.Slots()
	lo, hi := -1, -1
	for i := range next {
		if next[i] != sw.delivered[i] {
			if lo < 0 {
				lo = i
			}
			hi = i
		}
	}
	if lo < 0 {
		return nil
	}

	if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+uint16(lo), next[lo:hi+1]); err != nil {
		// target memory is now uncertain
		sw.synced = false
		return fmt.Errorf("status writer: slots %d-%d: %w", lo, hi, err)
	}
	sw.delivered = next
	return nil
}

// multiStatusWriter fans one snapshot out to several status blocks.
type multiStatusWriter []*deviceStatusWriter

func (ws multiStatusWriter) WriteStatus(s status.Snapshot) error {
	var errs []error
	for _, w := range ws {
		if err := w.WriteStatus(s); err != nil {
			errs = append(errs, fmt.Errorf("%s/%d: %w", w.plan.Endpoint, w.plan.UnitID, err))
		}
	}
	return errors.Join(errs...)
}
