// Package config holds the configuration of the ddflow runtime: the number of workers, trace
// merge settings, durability and the synthetic workload driven by the CLI.
package config

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"

	"github.com/l7mp/ddflow/pkg/trace"
)

// Config is the top-level configuration loaded from file.
type Config struct {
	Workers    int        `json:"workers"`
	MergeFuel  int        `json:"mergeFuel"`
	LogLevel   int8       `json:"logLevel"`
	Durability Durability `json:"durability"`
	Workload   Workload   `json:"workload"`
}

// Durability configures the persistence of sealed batches.
type Durability struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir"`
	// NoSync disables syncing writes, for tests.
	NoSync bool `json:"noSync,omitempty"`
	// Reset drops previously persisted batches instead of recovering them.
	Reset bool `json:"reset,omitempty"`
}

// Workload is the synthetic update stream: every round touches Updates random (key, value)
// pairs drawn from Keys keys and Values values, then advances the time by one.
type Workload struct {
	Keys    int   `json:"keys"`
	Values  int   `json:"values"`
	Rounds  int   `json:"rounds"`
	Updates int   `json:"updates"`
	Seed    int64 `json:"seed"`
}

// ConfigError is returned for invalid configurations.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid config: %s: %s", e.Field, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Workers:   1,
		MergeFuel: trace.DefaultMergeFuel,
		Durability: Durability{
			Dir: "ddflow-data",
		},
		Workload: Workload{
			Keys:    16,
			Values:  4,
			Rounds:  10,
			Updates: 32,
			Seed:    1,
		},
	}
}

// Parse reads a YAML (or JSON) configuration over the defaults and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, &ConfigError{Field: "<document>", Message: "malformed", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads configuration from a file. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(b)
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return &ConfigError{Field: "workers", Message: "must be positive"}
	case c.MergeFuel < 0:
		return &ConfigError{Field: "mergeFuel", Message: "must not be negative"}
	case c.LogLevel < 0:
		return &ConfigError{Field: "logLevel", Message: "must not be negative"}
	case c.Durability.Enabled && c.Durability.Dir == "":
		return &ConfigError{Field: "durability.dir", Message: "required when durability is enabled"}
	case c.Workload.Keys < 1:
		return &ConfigError{Field: "workload.keys", Message: "must be positive"}
	case c.Workload.Values < 1:
		return &ConfigError{Field: "workload.values", Message: "must be positive"}
	case c.Workload.Rounds < 0:
		return &ConfigError{Field: "workload.rounds", Message: "must not be negative"}
	case c.Workload.Updates < 0:
		return &ConfigError{Field: "workload.updates", Message: "must not be negative"}
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
