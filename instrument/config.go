package instrument

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config controls trace logging. Load one from the environment with
// FromEnv, or build it directly.
type Config struct {
	// Enabled turns trace logging on. FromConfig returns a nil trace
	// func when it is false.
	Enabled bool `env:"BEACON_TRACE"`

	// Level is the zerolog level trace lines are written at. Records
	// carrying an error always log at error level.
	Level string `env:"BEACON_TRACE_LEVEL" envDefault:"debug" validate:"oneof=trace debug info warn error"`

	// Format selects the output encoding, machine-readable JSON or the
	// human console form.
	Format string `env:"BEACON_TRACE_FORMAT" envDefault:"json" validate:"oneof=json console"`

	// Events limits tracing to the named events. Empty traces all.
	Events []string `env:"BEACON_TRACE_EVENTS" envSeparator:","`
}

var validate = validator.New()

// FromEnv loads and validates a Config from BEACON_TRACE_* variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
