package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devicebill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	l, err := NewLoader("")
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, 1, cfg.Cycle.Month)
	assert.Equal(t, ",", cfg.Input.Delimiter)
	assert.Equal(t, "invoice.csv", cfg.Output.Path)
	assert.Equal(t, runtime.NumCPU(), cfg.Engine.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "devicebill", cfg.Metrics.Job)
	assert.NoError(t, Validate(cfg))
}

func TestLoader_File(t *testing.T) {
	path := writeConfig(t, `
cycle:
  month: 3
  year: 2022
input:
  delimiter: ";"
output:
  path: out/fatura.xlsx
  validation_report: out/checks.csv
engine:
  workers: 4
log:
  level: debug
watch: true
`)
	l, err := NewLoader(path)
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, 3, cfg.Cycle.Month)
	assert.Equal(t, ';', cfg.Delimiter())
	assert.Equal(t, "out/fatura.xlsx", cfg.Output.Path)
	assert.Equal(t, "out/checks.csv", cfg.Output.ValidationReport)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	assert.True(t, cfg.Watch)
	assert.Equal(t, path, l.Path())
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("DEVICEBILL_CYCLE_MONTH", "2")
	t.Setenv("DEVICEBILL_OUTPUT", "fatura.pdf")
	t.Setenv("DEVICEBILL_WORKERS", "3")

	l, err := NewLoader(writeConfig(t, "cycle:\n  month: 5\n"))
	require.NoError(t, err)
	cfg := l.Config()
	assert.Equal(t, 2, cfg.Cycle.Month)
	assert.Equal(t, "fatura.pdf", cfg.Output.Path)
	assert.Equal(t, 3, cfg.Engine.Workers)
}

func TestLoader_BadEnv(t *testing.T) {
	t.Setenv("DEVICEBILL_WORKERS", "many")
	_, err := NewLoader("")
	assert.Error(t, err)
}

func TestLoader_Errors(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = NewLoader(writeConfig(t, "cycle: [1, 2"))
	assert.Error(t, err)
}

func TestLoader_ReloadNotifies(t *testing.T) {
	path := writeConfig(t, "cycle:\n  month: 1\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	var got []int
	l.OnChange(func(c *Config) { got = append(got, c.Cycle.Month) })

	require.NoError(t, os.WriteFile(path, []byte("cycle:\n  month: 7\n"), 0o644))
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cycle.Month)
	assert.Equal(t, []int{7}, got)
	assert.Equal(t, 7, l.Config().Cycle.Month)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoader_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEVICEBILL_WORKERS=6\n"), 0o644))
	chdir(t, dir)
	// Restored on cleanup; unset so .env is allowed to fill it in.
	t.Setenv("DEVICEBILL_WORKERS", "")
	require.NoError(t, os.Unsetenv("DEVICEBILL_WORKERS"))

	l, err := NewLoader("")
	require.NoError(t, err)
	assert.Equal(t, 6, l.Config().Engine.Workers)
}

func TestLoader_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEVICEBILL-WORKERS=6\n"), 0o644))
	chdir(t, dir)

	_, err := NewLoader("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".env")

	_, err = FromEnv()
	assert.Error(t, err)
}

func TestLoader_ReloadFailureIsReported(t *testing.T) {
	path := writeConfig(t, "cycle:\n  month: 4\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	var errs []error
	l.OnError(func(err error) { errs = append(errs, err) })

	require.NoError(t, os.WriteFile(path, []byte("cycle: [1, 2"), 0o644))
	l.reloadOrReport()

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), path)
	assert.Equal(t, 4, l.Config().Cycle.Month, "previous config stays current")
}

func TestLoader_WatchReportsReloadFailure(t *testing.T) {
	path := writeConfig(t, "cycle:\n  month: 4\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	errs := make(chan error, 8)
	l.OnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	stop, err := l.Watch()
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte("cycle: [1, 2"), 0o644))
	select {
	case err := <-errs:
		assert.Contains(t, err.Error(), "parse config")
	case <-time.After(5 * time.Second):
		t.Fatal("reload failure was not reported")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Cycle:  CycleConf{Month: 13, ClosingDate: "2021-01-31"},
		Input:  InputConf{Delimiter: ";;"},
		Engine: EngineConf{Workers: -1},
		Log:    LogConf{Level: "loud"},
	}
	err := Validate(cfg)
	require.Error(t, err)
	for _, want := range []string{"cycle.month", "cycle.closing_date", "input.delimiter", "output.path", "engine.workers", "log.level"} {
		assert.True(t, strings.Contains(err.Error(), want), "missing %q in %v", want, err)
	}
}

func TestCycleConf_Resolve(t *testing.T) {
	c, err := CycleConf{Month: 1}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, time.Date(referenceYear, time.January, 31, 0, 0, 0, 0, time.UTC), c.Closing)
	assert.Equal(t, time.January, c.Month)

	c, err = CycleConf{Month: 2, Year: 2024}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), c.Closing)

	c, err = CycleConf{Month: 1, ClosingDate: "30-04-2021"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, time.April, c.Month)
	assert.Equal(t, 30, c.Closing.Day())

	_, err = CycleConf{Month: 13}.Resolve()
	assert.Error(t, err)
}
