// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tamzrod/quadrature-replicator/internal/decoder"
	"github.com/tamzrod/quadrature-replicator/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	if len(cfg.Encoders.Units) == 0 {
		return errors.New("config: at least one unit required")
	}

	// ------------------------------------------------------------
	// PER-UNIT VALIDATION
	// ------------------------------------------------------------

	seen := make(map[string]struct{})

	for _, u := range cfg.Encoders.Units {
		if u.ID == "" {
			return errors.New("config: unit id required")
		}
		if _, dup := seen[u.ID]; dup {
			return fmt.Errorf("config: duplicate unit id %q", u.ID)
		}
		seen[u.ID] = struct{}{}

		if err := validateSource(u); err != nil {
			return err
		}
		if err := validatePins(u); err != nil {
			return err
		}
		if err := validateEncoder(u); err != nil {
			return err
		}
		if err := validatePoll(u); err != nil {
			return err
		}

		for _, t := range u.Targets {
			if t.Endpoint == "" {
				return fmt.Errorf("unit %q: target endpoint required", u.ID)
			}
			if int(t.Address)+status.PositionBlockRegisters > 0x10000 {
				return fmt.Errorf("unit %q: target %s address %d leaves no room for the position block", u.ID, t.Endpoint, t.Address)
			}
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK VALIDATION (PER-TARGET, OPT-IN)
	// ------------------------------------------------------------

	// key = endpoint | status_unit_id | status_slot
	statusOwner := make(map[string]string)

	for _, u := range cfg.Encoders.Units {
		// device_name sanity (ASCII only)
		for i := 0; i < len(u.Source.DeviceName); i++ {
			if u.Source.DeviceName[i] > 0x7F {
				return fmt.Errorf("unit %q: device_name must contain ASCII characters only", u.ID)
			}
		}

		// status is opt-in
		if u.Source.StatusSlot == nil {
			continue
		}

		if len(u.Targets) == 0 {
			return fmt.Errorf("unit %q: status_slot is set but no targets are defined", u.ID)
		}

		slot := *u.Source.StatusSlot
		if (int(slot)+1)*status.SlotsPerDevice > 0x10000 {
			return fmt.Errorf("unit %q: status_slot %d out of range", u.ID, slot)
		}

		for _, t := range u.Targets {
			if t.StatusUnitID == nil {
				return fmt.Errorf("unit %q: status_slot is set but target %q has no status_unit_id", u.ID, t.Endpoint)
			}

			key := fmt.Sprintf("%s|%d|%d", t.Endpoint, *t.StatusUnitID, slot)
			if prev, exists := statusOwner[key]; exists {
				return fmt.Errorf(
					"status_slot collision: endpoint=%s status_unit_id=%d slot=%d used by units %q and %q",
					t.Endpoint, *t.StatusUnitID, slot, prev, u.ID,
				)
			}
			statusOwner[key] = u.ID
		}
	}

	// ------------------------------------------------------------
	// POSITION BLOCK GEOMETRY VALIDATION
	// ------------------------------------------------------------

	type span struct {
		start uint16
		end   uint16
		unit  string
	}

	// key = endpoint | unit_id
	spans := make(map[string][]span)

	for _, u := range cfg.Encoders.Units {
		for _, t := range u.Targets {
			start := t.Address
			end := start + status.PositionBlockRegisters - 1

			key := fmt.Sprintf("%s|%d", t.Endpoint, t.UnitID)
			for _, s := range spans[key] {
				// overlap check (inclusive)
				if !(end < s.start || start > s.end) {
					return fmt.Errorf(
						"memory overlap: endpoint=%s unit_id=%d range=%d-%d overlaps with unit=%s range=%d-%d",
						t.Endpoint, t.UnitID, start, end, s.unit, s.start, s.end,
					)
				}
			}
			spans[key] = append(spans[key], span{start: start, end: end, unit: u.ID})
		}
	}

	return nil
}

func validateSource(u UnitConfig) error {
	s := u.Source
	switch s.Kind {
	case SourcePeriph, SourceSim:
	case SourceCdev:
		if s.Chip == "" {
			return fmt.Errorf("unit %q: cdev source requires chip", u.ID)
		}
	case SourceModbus:
		if s.Endpoint == "" {
			return fmt.Errorf("unit %q: modbus source requires endpoint", u.ID)
		}
		if s.FC != 0 && s.FC != 1 && s.FC != 2 {
			return fmt.Errorf("unit %q: modbus source fc must be 1 or 2, got %d", u.ID, s.FC)
		}
	case "":
		return fmt.Errorf("unit %q: source kind required", u.ID)
	default:
		return fmt.Errorf("unit %q: unknown source kind %q", u.ID, s.Kind)
	}

	switch s.Pull {
	case "", "up", "down", "none":
	default:
		return fmt.Errorf("unit %q: unknown pull %q", u.ID, s.Pull)
	}
	if s.DebounceUs < 0 {
		return fmt.Errorf("unit %q: debounce_us must be >= 0", u.ID)
	}
	if s.TimeoutMs < 0 {
		return fmt.Errorf("unit %q: timeout_ms must be >= 0", u.ID)
	}
	return nil
}

func validatePins(u UnitConfig) error {
	p := u.Pins
	if u.Source.Kind == SourceSim {
		// sim lines are internal; names are labels only
		return nil
	}
	if p.Clock == "" || p.Data == "" {
		return fmt.Errorf("unit %q: clock and data pins required", u.ID)
	}

	names := []string{p.Clock, p.Data}
	if p.Index != "" {
		names = append(names, p.Index)
	}

	used := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := used[n]; dup {
			return fmt.Errorf("unit %q: pin %q used twice", u.ID, n)
		}
		used[n] = struct{}{}

		switch u.Source.Kind {
		case SourceCdev:
			if _, err := strconv.ParseUint(n, 10, 31); err != nil {
				return fmt.Errorf("unit %q: cdev pin %q must be a line offset", u.ID, n)
			}
		case SourceModbus:
			if _, err := strconv.ParseUint(n, 10, 16); err != nil {
				return fmt.Errorf("unit %q: modbus pin %q must be a bit address", u.ID, n)
			}
		}
	}
	return nil
}

func validateEncoder(u UnitConfig) error {
	e := u.Encoder
	switch e.Mode {
	case "", ModeRotary, ModeLinear:
	default:
		return fmt.Errorf("unit %q: unknown encoder mode %q", u.ID, e.Mode)
	}
	if _, err := decoder.ParseStepMode(e.StepMode); err != nil {
		return fmt.Errorf("unit %q: %w", u.ID, err)
	}
	switch e.Counter {
	case "", CounterInt16, CounterInt32:
	default:
		return fmt.Errorf("unit %q: unknown counter type %q", u.ID, e.Counter)
	}
	return nil
}

func validatePoll(u UnitConfig) error {
	switch u.Poll.Model {
	case "", ModelBlocking:
	case ModelEvent:
		if u.Source.Kind == SourceModbus {
			return fmt.Errorf("unit %q: modbus source cannot wait for edges; use the blocking model", u.ID)
		}
	default:
		return fmt.Errorf("unit %q: unknown poll model %q", u.ID, u.Poll.Model)
	}
	if u.Poll.IntervalMs < 0 {
		return fmt.Errorf("unit %q: interval_ms must be >= 0", u.ID)
	}
	return nil
}
