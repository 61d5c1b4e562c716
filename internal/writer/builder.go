// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/quadrature-replicator/internal/config"
	wmodbus "github.com/tamzrod/quadrature-replicator/internal/writer/modbus"
)

// BuildPlan converts one unit config into a Writer Plan.
// Assumes config has already passed conflict validation.
func BuildPlan(u cfg.UnitConfig) (Plan, error) {
	if u.ID == "" {
		return Plan{}, errors.New("writer: unit.id required")
	}

	plan := Plan{UnitID: u.ID}

	for _, t := range u.Targets {
		plan.Targets = append(plan.Targets, TargetEndpoint{
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
			Address:  t.Address,
		})

		if u.Source.StatusSlot == nil {
			continue
		}
		if t.StatusUnitID == nil {
			return Plan{}, errors.New("writer: status_slot set but target has no status_unit_id")
		}
		plan.Status = append(plan.Status, StatusPlan{
			Endpoint:   t.Endpoint,
			UnitID:     *t.StatusUnitID,
			BaseSlot:   *u.Source.StatusSlot,
			DeviceName: u.Source.DeviceName,
		})
	}

	return plan, nil
}

// BuildEndpointClients creates one TCP client per unique endpoint.
func BuildEndpointClients(u cfg.UnitConfig) (map[string]endpointClient, func() error, error) {
	clients := make(map[string]endpointClient)
	var closers []func() error

	closeAll := func() error {
		var errs []error
		for _, fn := range closers {
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, t := range u.Targets {
		if _, ok := clients[t.Endpoint]; ok {
			continue
		}

		c, err := wmodbus.NewEndpointClient(wmodbus.Config{
			Endpoint: t.Endpoint,
			Timeout:  time.Duration(u.Source.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		clients[t.Endpoint] = c
		closers = append(closers, c.Close)
	}

	return clients, closeAll, nil
}
