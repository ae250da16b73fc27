package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/devicebill/internal/config"
	"github.com/gyaneshwarpardhi/devicebill/internal/eventlog"
	"github.com/gyaneshwarpardhi/devicebill/internal/export"
	"github.com/gyaneshwarpardhi/devicebill/internal/invoice"
	"github.com/gyaneshwarpardhi/devicebill/internal/metrics"
	"github.com/gyaneshwarpardhi/devicebill/internal/validation"
)

// bill performs one complete run: read, validate, assemble, write.
func bill(ctx context.Context, inputPath string, cfg *config.Config, logger *slog.Logger) (*invoice.Invoice, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := logger.With("run_id", runID)

	// Fail on a bad output path before doing any work.
	if _, err := export.FormatFor(cfg.Output.Path); err != nil {
		return nil, err
	}

	events, err := eventlog.ReadFile(inputPath, eventlog.Options{Delimiter: cfg.Delimiter()})
	if err != nil {
		return nil, err
	}

	cycle, err := cfg.Cycle.Resolve()
	if err != nil {
		return nil, err
	}

	checks := validation.Validate(events, cycle.Month)
	if path := cfg.Output.ValidationReport; path != "" {
		if err := export.WriteValidationReportFile(path, events, checks); err != nil {
			return nil, fmt.Errorf("validation report: %w", err)
		}
		log.Info("validation report written", "path", path)
	}

	m := metrics.NewRun()
	asm := invoice.New(invoice.Options{
		RunID:   runID,
		Cycle:   cycle,
		Workers: cfg.Engine.Workers,
		Logger:  logger,
		Metrics: m,
	})
	inv, err := asm.Run(ctx, events, checks)
	if err != nil {
		return nil, err
	}

	if err := export.WriteFile(cfg.Output.Path, inv); err != nil {
		return nil, err
	}
	m.RunDuration.Set(time.Since(started).Seconds())

	if url := cfg.Metrics.PushgatewayURL; url != "" {
		if err := m.Push(ctx, url, cfg.Metrics.Job, runID); err != nil {
			log.Warn("metrics push failed", "err", err)
		}
	}

	log.Info("invoice written",
		"path", cfg.Output.Path,
		"devices", len(inv.Lines),
		"total", inv.Total.StringFixed(2),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return inv, nil
}
