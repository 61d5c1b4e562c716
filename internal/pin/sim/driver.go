// internal/pin/sim/driver.go
package sim

import (
	"context"
	"time"

	"github.com/tamzrod/quadrature-replicator/internal/decoder"
)

// Driver moves a pair of simulated pins along the quadrature cycle.
// Every Step changes exactly one pin. Index is optional and only used by Run.
type Driver struct {
	Clock *Pin
	Data  *Pin
	Index *Pin
}

// Step advances one transition in the given direction. Positive is clock
// leading: 11 -> 01 -> 00 -> 10 -> 11.
func (d Driver) Step(dir decoder.Direction) {
	same := d.Clock.Level() == d.Data.Level()
	if (dir == decoder.Positive) == same {
		d.Clock.Toggle()
	} else {
		d.Data.Toggle()
	}
}

// Cycle advances one full cycle (four transitions).
func (d Driver) Cycle(dir decoder.Direction) {
	for i := 0; i < 4; i++ {
		d.Step(dir)
	}
}

// Run sweeps cycles full cycles forward then back until ctx is done, one
// transition per interval. With an Index pin, the index is held high for
// the first transition of every forward sweep.
func (d Driver) Run(ctx context.Context, cycles int, interval time.Duration) {
	if cycles <= 0 {
		cycles = 1
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dir := decoder.Positive
	steps := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.Index != nil {
				d.Index.Set(dir == decoder.Positive && steps == 0)
			}
			d.Step(dir)
			steps++
			if steps == cycles*4 {
				steps = 0
				dir = -dir
			}
		}
	}
}
