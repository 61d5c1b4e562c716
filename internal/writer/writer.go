// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/quadrature-replicator/internal/poller"
	"github.com/tamzrod/quadrature-replicator/internal/status"
)

// endpointClient is the exact contract the writers use.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

type positionWriter struct {
	plan    Plan
	clients map[string]endpointClient
}

func New(plan Plan, clients map[string]endpointClient) Writer {
	return &positionWriter{
		plan:    plan,
		clients: clients,
	}
}

// Write publishes the position block of a successful poll to every target.
// Failed polls are not written; status carries them.
func (w *positionWriter) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	regs := status.EncodePosition(status.Position{
		Value:       res.Position,
		Forward:     res.Forward,
		Backward:    res.Backward,
		IndexPulses: res.IndexPulses,
		RawState:    res.RawState,
	})

	var errs []string
	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf("writer: missing client for endpoint %s", tgt.Endpoint))
			continue
		}

		if err := cli.WriteRegisters(tgt.UnitID, tgt.Address, regs); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: ep=%s unit=%d addr=%d err=%v",
				tgt.Endpoint, tgt.UnitID, tgt.Address, err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
