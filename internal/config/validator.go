package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gyaneshwarpardhi/devicebill/internal/billing"
	"github.com/gyaneshwarpardhi/devicebill/internal/eventlog"
)

// referenceYear is used when neither the config nor the log fixes the cycle year.
const referenceYear = 2021

// Validate checks the config for:
//   - A processing month in 1..12 and a parseable closing date
//   - A single-character input delimiter
//   - A non-negative worker count and a known log level
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Cycle.Month < 1 || cfg.Cycle.Month > 12 {
		errs = append(errs, fmt.Sprintf("cycle.month must be in 1..12, got %d", cfg.Cycle.Month))
	}
	if cfg.Cycle.Year < 0 {
		errs = append(errs, fmt.Sprintf("cycle.year must not be negative, got %d", cfg.Cycle.Year))
	}
	if cfg.Cycle.ClosingDate != "" {
		if _, err := eventlog.ParseDate(cfg.Cycle.ClosingDate); err != nil {
			errs = append(errs, fmt.Sprintf("cycle.closing_date: %s", err))
		}
	}
	if utf8.RuneCountInString(cfg.Input.Delimiter) != 1 {
		errs = append(errs, fmt.Sprintf("input.delimiter must be a single character, got %q", cfg.Input.Delimiter))
	}
	if cfg.Output.Path == "" {
		errs = append(errs, "output.path is required")
	}
	if cfg.Engine.Workers < 0 {
		errs = append(errs, fmt.Sprintf("engine.workers must not be negative, got %d", cfg.Engine.Workers))
	}
	if _, err := parseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Delimiter returns the input delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

// LogLevel returns the configured slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	lvl, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: unknown level %q", s)
	}
	return lvl, nil
}

// Resolve returns the billing cycle. An explicit closing date wins; otherwise
// the cycle is the configured month of the configured year, or of
// referenceYear when no year is set. The log's own dates never move the cycle.
func (c CycleConf) Resolve() (billing.Cycle, error) {
	if c.ClosingDate != "" {
		closing, err := eventlog.ParseDate(c.ClosingDate)
		if err != nil {
			return billing.Cycle{}, fmt.Errorf("cycle.closing_date: %w", err)
		}
		return billing.CycleClosingOn(closing), nil
	}
	year := c.Year
	if year == 0 {
		year = referenceYear
	}
	return billing.NewCycle(year, time.Month(c.Month))
}
