// Package config defines the pipeline configuration and its loader.
//
// Conventions:
// - Keys are flat snake_case, shared by the YAML file and CUBERANK_ env vars.
// - New() builds a Config with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"time"

	"github.com/Octave-byte/cube-ranking/internal/domain/model"
)

// Input drivers.
const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// InputDriver selects where the input tables come from.
	InputDriver string `koanf:"input_driver" validate:"oneof=json postgres"`
	// InputDir holds competitions.json, persons.json and results.json.
	InputDir string `koanf:"input_dir" validate:"required_if=InputDriver json"`
	// DatabaseURL is a PostgreSQL connection string.
	DatabaseURL string `koanf:"database_url" validate:"required_if=InputDriver postgres"`
	// DatabaseMaxConns caps the connection pool.
	DatabaseMaxConns int `koanf:"database_max_conns" validate:"gte=0"`

	// OutputDir receives the derived tables.
	OutputDir string `koanf:"output_dir" validate:"required"`

	// ReferenceEvent is the event code an eligible competition must hold.
	ReferenceEvent string `koanf:"reference_event" validate:"required"`
	// HistoryStart drops competitions before this date (YYYY-MM-DD).
	HistoryStart string `koanf:"history_start" validate:"required,datetime=2006-01-02"`
	// CompetitionCutoff is the first date scored by the competition stage.
	CompetitionCutoff string `koanf:"competition_cutoff" validate:"required,datetime=2006-01-02"`
	// WeeklyFrom optionally drops earlier weeks from the weekly output.
	WeeklyFrom string `koanf:"weekly_from" validate:"omitempty,datetime=2006-01-02"`

	// PopulationCap keeps the best N persons by mean average; 0 keeps all.
	PopulationCap int `koanf:"population_cap" validate:"gte=0"`
	// ShortWindowDays and LongWindowDays size the rolling windows.
	ShortWindowDays int `koanf:"short_window_days" validate:"gt=0"`
	LongWindowDays  int `koanf:"long_window_days" validate:"gtefield=ShortWindowDays"`
	// TopN is the number of participants each competition mean covers.
	TopN int `koanf:"top_n" validate:"gt=0"`
	// WorkerCount sets the width of the competition worker pool.
	WorkerCount int `koanf:"worker_count" validate:"gt=0,lte=1024"`
	// Strict fails the run on the first malformed input row.
	Strict bool `koanf:"strict"`

	// Schedule is the cron expression of the schedule command.
	Schedule string `koanf:"schedule" validate:"required"`
	// MetricsAddr is the /metrics listen address of the schedule command.
	MetricsAddr string `koanf:"metrics_addr"`
	// LatestTTLSeconds is how long the latest views stay cached.
	LatestTTLSeconds int `koanf:"latest_ttl_seconds" validate:"gte=0"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		InputDriver:       DriverJSON,
		InputDir:          "./data",
		DatabaseMaxConns:  4,
		OutputDir:         "./out",
		ReferenceEvent:    "333",
		HistoryStart:      "2010-01-01",
		CompetitionCutoff: "2011-01-01",
		PopulationCap:     20_000,
		ShortWindowDays:   90,
		LongWindowDays:    365,
		TopN:              10,
		WorkerCount:       10,
		Strict:            true,
		Schedule:          "@daily",
		MetricsAddr:       ":9090",
		LatestTTLSeconds:  3600,
	}
}

// HistoryStartDate returns HistoryStart as a date.
func (c *Config) HistoryStartDate() time.Time { return mustDate(c.HistoryStart) }

// CompetitionCutoffDate returns CompetitionCutoff as a date.
func (c *Config) CompetitionCutoffDate() time.Time { return mustDate(c.CompetitionCutoff) }

// WeeklyFromDate returns WeeklyFrom as a date, zero when unset.
func (c *Config) WeeklyFromDate() time.Time { return mustDate(c.WeeklyFrom) }

// LatestTTL returns LatestTTLSeconds as a duration.
func (c *Config) LatestTTL() time.Duration {
	return time.Duration(c.LatestTTLSeconds) * time.Second
}

// mustDate parses a date already checked by Validate. Unset dates are zero.
func mustDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return d
}
