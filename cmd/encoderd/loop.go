// cmd/encoderd/loop.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/quadrature-replicator/internal/decoder"
	"github.com/tamzrod/quadrature-replicator/internal/poller"
	"github.com/tamzrod/quadrature-replicator/internal/status"
	"github.com/tamzrod/quadrature-replicator/internal/writer"
)

// unitLoop is the per-unit orchestrator: it owns the status snapshot and
// delivers poll results to the writers.
type unitLoop struct {
	unitID string
	data   writer.Writer
	status writer.StatusWriter // nil: status disabled

	snap status.Snapshot
}

func newUnitLoop(unitID string, data writer.Writer) *unitLoop {
	return &unitLoop{
		unitID: unitID,
		data:   data,
		snap:   status.Snapshot{Health: status.HealthUnknown},
	}
}

// run consumes results until ctx is done. tick drives seconds_in_error.
func (l *unitLoop) run(ctx context.Context, in <-chan poller.PollResult, tick <-chan time.Time) {
	// Full block write on start (identity re-assert) if enabled.
	l.writeStatus()

	for {
		select {
		case <-ctx.Done():
			return
		case res := <-in:
			l.handle(res)
		case <-tick:
			l.tick()
		}
	}
}

// handle delivers one result and updates the snapshot.
// Glitches only count; pin failures flip health to error.
func (l *unitLoop) handle(res poller.PollResult) {
	// --- data delivery ---
	if err := l.data.Write(res); err != nil {
		slog.Warn("writer error", "unit", l.unitID, "err", err)
	}

	next := l.snap
	next.InvalidTransitions = saturate16(res.InvalidTransitions)

	switch {
	case res.Err == nil:
		if next.Health != status.HealthOK {
			if next.Health == status.HealthError {
				slog.Info("unit recovered", "unit", l.unitID, "position", res.Position)
			}
			next.Health = status.HealthOK
		}
		next.LastErrorCode = status.CodeOK
		next.SecondsInError = 0

	case errors.Is(res.Err, decoder.ErrInvalidTransition):
		slog.Debug("invalid transition", "unit", l.unitID, "raw", res.RawState, "err", res.Err)

	default:
		code := status.ErrorCode(res.Err)
		if next.Health != status.HealthError || next.LastErrorCode != code {
			slog.Warn("poll failed", "unit", l.unitID, "code", code, "err", res.Err)
		}
		next.Health = status.HealthError
		next.LastErrorCode = code
		// seconds_in_error increments on the 1Hz tick only.
	}

	if next != l.snap {
		l.snap = next
		l.writeStatus()
	}
}

// tick counts seconds in error. A unit with no result yet is not in error.
func (l *unitLoop) tick() {
	if l.snap.Health != status.HealthError || l.snap.SecondsInError == 0xFFFF {
		return
	}
	l.snap.SecondsInError++
	l.writeStatus()
}

func (l *unitLoop) writeStatus() {
	if l.status == nil {
		return
	}
	if err := l.status.WriteStatus(l.snap); err != nil {
		slog.Warn("status write failed", "unit", l.unitID, "err", err)
	}
}

func saturate16(v uint32) uint16 {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}
