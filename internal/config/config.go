// Package config defines service configuration structures and loading hooks.
//
// Keys are flat and snake_case so the same names work in the YAML file and
// as OCTAGON_ environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Dataset source kinds.
const (
	SourceCSV = "csv"
	SourceSQL = "sql"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the inference job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of inference workers.
	WorkerCount int `koanf:"worker_count"`

	// RequestTimeoutMS bounds how long a request waits for its job.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// MaxSearchLimit caps GET /fighters?limit and GET /referees?limit.
	MaxSearchLimit int `koanf:"max_search_limit"`

	// RateLimitRPS and RateLimitBurst shape the predict and explain routes.
	// A zero rate disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// DatasetSource is "csv" or "sql".
	DatasetSource string `koanf:"dataset_source"`

	FightersCSV string `koanf:"fighters_csv"`
	BoutsCSV    string `koanf:"bouts_csv"`

	// SQLDriver is "sqlite" or "postgres".
	SQLDriver     string `koanf:"sql_driver"`
	SQLDSN        string `koanf:"sql_dsn"`
	FightersTable string `koanf:"fighters_table"`
	BoutsTable    string `koanf:"bouts_table"`

	// Classifier artifacts and their optional schema contracts.
	WinnerModel       string `koanf:"winner_model"`
	WinnerSchema      string `koanf:"winner_schema"`
	SideAMethodModel  string `koanf:"fighter_1_method_model"`
	SideAMethodSchema string `koanf:"fighter_1_method_schema"`
	SideBMethodModel  string `koanf:"fighter_2_method_model"`
	SideBMethodSchema string `koanf:"fighter_2_method_schema"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        1024,
		WorkerCount:      runtime.NumCPU(),
		RequestTimeoutMS: 5000,
		MaxSearchLimit:   100,
		RateLimitRPS:     50,
		RateLimitBurst:   100,
		DatasetSource:    SourceCSV,
		FightersCSV:      "data/fighters.csv",
		BoutsCSV:         "data/bouts.csv",
		SQLDriver:        "sqlite",
		FightersTable:    "fighters",
		BoutsTable:       "bouts",
		WinnerModel:      "models/winner.json",
		SideAMethodModel: "models/fighter_1_method.json",
		SideBMethodModel: "models/fighter_2_method.json",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.MaxSearchLimit <= 0:
		return fmt.Errorf("%w: max_search_limit must be positive", ErrInvalidConfig)
	case c.RateLimitRPS < 0 || c.RateLimitBurst < 0:
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	case c.WinnerModel == "" || c.SideAMethodModel == "" || c.SideBMethodModel == "":
		return fmt.Errorf("%w: all three model paths are required", ErrInvalidConfig)
	}

	switch strings.ToLower(c.DatasetSource) {
	case SourceCSV:
		if c.FightersCSV == "" || c.BoutsCSV == "" {
			return fmt.Errorf("%w: fighters_csv and bouts_csv are required", ErrInvalidConfig)
		}
	case SourceSQL:
		if c.SQLDriver == "" || c.SQLDSN == "" {
			return fmt.Errorf("%w: sql_driver and sql_dsn are required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown dataset_source %q", ErrInvalidConfig, c.DatasetSource)
	}
	return nil
}
