// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/quadrature-replicator/internal/decoder"
)

// Run polls until ctx is done and emits every result that changed
// something. One goroutine per unit. No overlap. No retries.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	if p.cfg.Model == ModelEvent {
		p.runEvent(ctx, out)
		return
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.emit(ctx, out, p.PollOnce(ctx)) {
				return
			}
		}
	}
}

// runEvent waits for edges back to back. A pin failure backs off for one
// interval so a dead line does not spin. The state read at construction is
// emitted first, so a unit that never moves still reports in.
func (p *Poller) runEvent(ctx context.Context, out chan<- PollResult) {
	if !p.emit(ctx, out, p.Current()) {
		return
	}
	for {
		res := p.PollOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if !p.emit(ctx, out, res) {
			return
		}

		if res.Err == nil || errors.Is(res.Err, decoder.ErrInvalidTransition) {
			continue
		}
		slog.Debug("edge wait failed, backing off", "unit", p.cfg.UnitID, "delay", p.cfg.Interval, "err", res.Err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.Interval):
		}
	}
}

// emit sends res if it changed anything. It returns false once ctx is done.
func (p *Poller) emit(ctx context.Context, out chan<- PollResult, res PollResult) bool {
	if !p.changed(res) {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case out <- res:
		p.last = res
		p.primed = true
		return true
	}
}
