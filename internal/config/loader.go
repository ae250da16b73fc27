package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "DEVICEBILL_CONFIG"

// Loader reads a YAML config file and watches it, and any extra files, for changes.
// An empty path yields the defaults plus environment overrides.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
	onError  []func(error)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load. A .env file in
// the working directory, if present, is loaded into the environment first.
func NewLoader(path string) (*Loader, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// FromEnv creates a Loader for the file named by DEVICEBILL_CONFIG.
func FromEnv() (*Loader, error) {
	// .env may itself set DEVICEBILL_CONFIG.
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return NewLoader(os.Getenv(PathEnv))
}

// loadDotEnv loads .env from the working directory. A missing file is fine;
// an unreadable or malformed one is not.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Path returns the config file path, empty when running on defaults.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// OnError registers a callback invoked when a watch-triggered reload fails.
// The previous config stays current.
func (l *Loader) OnError(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onError = append(l.onError, fn)
}

// Watch starts a background goroutine that reloads the config whenever the
// config file or one of extra changes, then notifies OnChange callbacks.
// Call the returned stop function to clean up.
func (l *Loader) Watch(extra ...string) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	paths := extra
	if l.path != "" {
		paths = append([]string{l.path}, extra...)
	}
	for _, p := range paths {
		if err := w.Add(p); err != nil {
			w.Close()
			return nil, fmt.Errorf("config watcher add %s: %w", p, err)
		}
	}
	l.watcher = w

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					l.reloadOrReport()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.report(fmt.Errorf("config watcher: %w", err))
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*Config, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*Config), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

// reloadOrReport reloads and hands any failure to the OnError callbacks.
func (l *Loader) reloadOrReport() {
	if _, err := l.Reload(); err != nil {
		l.report(err)
	}
}

func (l *Loader) report(err error) {
	l.mu.RLock()
	callbacks := make([]func(error), len(l.onError))
	copy(callbacks, l.onError)
	l.mu.RUnlock()
	for _, fn := range callbacks {
		fn(err)
	}
}

func (l *Loader) load() (*Config, error) {
	var cfg Config
	if l.path != "" {
		data, err := os.ReadFile(l.path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", l.path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", l.path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	// Apply defaults.
	if cfg.Cycle.Month == 0 {
		cfg.Cycle.Month = 1
	}
	if cfg.Input.Delimiter == "" {
		cfg.Input.Delimiter = ","
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = "invoice.csv"
	}
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = runtime.NumCPU()
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = "devicebill"
	}
	return &cfg, nil
}

// applyEnv overlays DEVICEBILL_* variables onto cfg.
func applyEnv(cfg *Config) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"DEVICEBILL_CYCLE_MONTH", &cfg.Cycle.Month},
		{"DEVICEBILL_CYCLE_YEAR", &cfg.Cycle.Year},
		{"DEVICEBILL_WORKERS", &cfg.Engine.Workers},
	}
	for _, v := range ints {
		s, ok := os.LookupEnv(v.key)
		if !ok || s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("env %s: %w", v.key, err)
		}
		*v.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"DEVICEBILL_CLOSING_DATE", &cfg.Cycle.ClosingDate},
		{"DEVICEBILL_OUTPUT", &cfg.Output.Path},
		{"DEVICEBILL_LOG_LEVEL", &cfg.Log.Level},
		{"DEVICEBILL_PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL},
	}
	for _, v := range strs {
		if s := os.Getenv(v.key); s != "" {
			*v.dst = s
		}
	}
	return nil
}
