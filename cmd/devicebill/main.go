package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gyaneshwarpardhi/devicebill/internal/config"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s <events-file>\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Configuration is read from $%s (YAML) and DEVICEBILL_* variables.\n", config.PathEnv)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	input := flag.Arg(0)

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.FromEnv()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.LogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Bill ─────────────────────────────────────────────────────────────────
	if _, err := bill(ctx, input, cfg, logger); err != nil {
		slog.Error("billing run failed", "input", input, "err", err)
		stop()
		os.Exit(1)
	}
	if !cfg.Watch {
		return
	}

	// ── Watch mode ───────────────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		if err := config.Validate(newCfg); err != nil {
			slog.Warn("re-run skipped: config invalid", "err", err)
			return
		}
		level.Set(newCfg.LogLevel())
		if _, err := bill(ctx, input, newCfg, logger); err != nil {
			slog.Warn("re-run failed", "err", err)
		}
	})
	loader.OnError(func(err error) {
		slog.Warn("config reload failed, keeping previous config", "err", err)
	})
	stopWatch, err := loader.Watch(input)
	if err != nil {
		slog.Error("watch unavailable", "err", err)
		os.Exit(1)
	}
	defer stopWatch()
	slog.Info("watching for changes", "input", input, "config", loader.Path())

	<-ctx.Done()
	slog.Info("goodbye")
}
