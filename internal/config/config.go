// Package config handles configuration loading for the tracktime demo.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so workload files can use values like
// "25ms" or "1.5s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)

	return nil
}

// Workload describes one simulated task the demo runs.
type Workload struct {
	Name       string   `yaml:"name"`
	Level      string   `yaml:"level"`
	Iterations int      `yaml:"iterations"`
	Duration   Duration `yaml:"duration"`
	Jitter     Duration `yaml:"jitter"`
	// FailEvery injects a failure on every Nth iteration; zero disables it.
	FailEvery int `yaml:"fail_every"`
}

// Config holds the demo application configuration.
type Config struct {
	LogLevel     string
	EmitEach     bool
	TimeUnit     string
	SummaryLevel string
	SinkPath     string
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// It's okay if the file doesn't exist
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		TimeUnit:     getEnv("TRACKTIME_UNIT", "s"),
		SummaryLevel: getEnv("TRACKTIME_SUMMARY_LEVEL", "info"),
		SinkPath:     getEnv("TRACKTIME_SINK", ""),
	}

	emitEach, err := strconv.ParseBool(getEnv("TRACKTIME_EMIT_EACH", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRACKTIME_EMIT_EACH: %w", err)
	}
	cfg.EmitEach = emitEach

	return cfg, nil
}

// LoadWorkloads parses the YAML workload definitions the demo runs.
func LoadWorkloads(path string) ([]Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload file: %w", err)
	}

	var doc struct {
		Workloads []Workload `yaml:"workloads"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing workload file: %w", err)
	}
	if len(doc.Workloads) == 0 {
		return nil, fmt.Errorf("workload file %s defines no workloads", path)
	}

	for i := range doc.Workloads {
		w := &doc.Workloads[i]
		if w.Name == "" {
			return nil, fmt.Errorf("workload %d is missing a name", i)
		}
		if w.Level == "" {
			w.Level = "info"
		}
		if w.Iterations <= 0 {
			w.Iterations = 1
		}
	}

	return doc.Workloads, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}
