package config

// Config is the top-level YAML structure.
type Config struct {
	Cycle   CycleConf   `yaml:"cycle"`
	Input   InputConf   `yaml:"input"`
	Output  OutputConf  `yaml:"output"`
	Engine  EngineConf  `yaml:"engine"`
	Log     LogConf     `yaml:"log"`
	Metrics MetricsConf `yaml:"metrics"`
	Watch   bool        `yaml:"watch"` // re-run on config or input changes
}

// CycleConf selects the processing month.
type CycleConf struct {
	Month       int    `yaml:"month"`
	Year        int    `yaml:"year"`         // 0 = reference year 2021
	ClosingDate string `yaml:"closing_date"` // dd-mm-yyyy; overrides month and year
}

// InputConf describes the event log file.
type InputConf struct {
	Delimiter string `yaml:"delimiter"`
}

// OutputConf describes where the invoice goes.
type OutputConf struct {
	Path             string `yaml:"path"` // format follows the extension
	ValidationReport string `yaml:"validation_report"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	Workers int `yaml:"workers"`
}

// LogConf configures slog.
type LogConf struct {
	Level string `yaml:"level"`
}

// MetricsConf configures the Pushgateway export of run metrics.
type MetricsConf struct {
	PushgatewayURL string `yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}
