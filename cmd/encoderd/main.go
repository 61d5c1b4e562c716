// cmd/encoderd/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dikkadev/prettyslog"

	"github.com/tamzrod/quadrature-replicator/internal/config"
	"github.com/tamzrod/quadrature-replicator/internal/poller"
	"github.com/tamzrod/quadrature-replicator/internal/writer"
)

func main() {
	slog.SetDefault(slog.New(prettyslog.NewPrettyslogHandler("encoderd",
		prettyslog.WithLevel(logLevel(os.Getenv("ENCODERD_LOG"))),
	)))

	if len(os.Args) < 2 {
		fatal("usage: encoderd <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal("config load failed", "path", cfgPath, "err", err)
	}

	if err := config.Validate(cfg); err != nil {
		fatal("config validation failed", "err", err)
	}
	config.Normalize(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		wg      sync.WaitGroup
		closers []func() error
	)

	// --------------------
	// Build per-unit pipelines
	// --------------------

	for _, unit := range cfg.Encoders.Units {

		// ---- poller (owns the pins) ----
		p, closePoller, err := poller.Build(unit)
		if err != nil {
			fatal("poller build failed", "unit", unit.ID, "err", err)
		}
		closers = append(closers, closePoller)

		// ---- writer plan ----
		plan, err := writer.BuildPlan(unit)
		if err != nil {
			fatal("writer plan failed", "unit", unit.ID, "err", err)
		}

		// ---- writer clients (DATA + STATUS) ----
		clients, closeWriters, err := writer.BuildEndpointClients(unit)
		if err != nil {
			fatal("writer clients failed", "unit", unit.ID, "err", err)
		}
		closers = append(closers, closeWriters)

		loop := newUnitLoop(unit.ID, writer.New(plan, clients))
		if sw, enabled := writer.NewDeviceStatusWriter(plan, clients); enabled {
			loop.status = sw
		}

		// ---- channel between poller and writer ----
		out := make(chan poller.PollResult)

		wg.Add(2)
		go func() {
			defer wg.Done()
			secTicker := time.NewTicker(time.Second)
			defer secTicker.Stop()
			loop.run(ctx, out, secTicker.C)
		}()
		go func() {
			defer wg.Done()
			p.Run(ctx, out)
		}()

		slog.Info("unit started", "unit", unit.ID, "targets", len(plan.Targets), "status", loop.status != nil)
	}

	slog.Info("encoderd running", "units", len(cfg.Encoders.Units))
	<-ctx.Done()
	slog.Info("shutting down")

	wg.Wait()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
