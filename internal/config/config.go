package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/jzx17/juiceplant/pkg/item"
	"github.com/jzx17/juiceplant/pkg/types"
)

// Environment variables consulted by ApplyEnv.
const (
	EnvWorkers        = "JUICE_WORKERS"
	EnvPlants         = "JUICE_PLANTS"
	EnvRunDurationMS  = "JUICE_RUN_DURATION_MS"
	EnvItemsPerBottle = "JUICE_ITEMS_PER_BOTTLE"
	EnvFinalizeStage  = "JUICE_FINALIZE_STAGE"
	EnvLogLevel       = "JUICE_LOG_LEVEL"
	EnvLogFormat      = "JUICE_LOG_FORMAT"
)

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates every knob of a juiceplant run.
type Config struct {
	Workers        int    `toml:"workers"`
	Plants         int    `toml:"plants"`
	RunDurationMS  int    `toml:"run_duration_ms"`
	ItemsPerBottle int    `toml:"items_per_bottle"`
	FinalizeStage  string `toml:"finalize_stage"`

	// StageDurations overrides the default work time of a stage, keyed by
	// stage name, in milliseconds
	StageDurations map[string]int `toml:"stage_durations"`

	Logging Logging `toml:"logging"`
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	table := item.DefaultStageTable()
	durations := make(map[string]int, len(table.Stages()))
	for _, s := range table.Stages() {
		durations[strings.ToLower(s.String())] = int(table.Duration(s) / time.Millisecond)
	}

	return Config{
		Workers:        15,
		Plants:         2,
		RunDurationMS:  5000,
		ItemsPerBottle: 3,
		FinalizeStage:  strings.ToLower(item.StageBottled.String()),
		StageDurations: durations,
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, the TOML file at path (when
// path is not empty) and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for callers that layer more overrides
// (command line flags) before calling Validate themselves.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding existing ones. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: parse config %s: %s", types.ErrInvalidConfig, path, strict.String())
		}
		return fmt.Errorf("%w: parse config %s: %v", types.ErrInvalidConfig, path, err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{EnvWorkers, &c.Workers},
		{EnvPlants, &c.Plants},
		{EnvRunDurationMS, &c.RunDurationMS},
		{EnvItemsPerBottle, &c.ItemsPerBottle},
	}
	for _, e := range ints {
		raw, ok := lookup(e.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer, got %q", types.ErrInvalidConfig, e.key, raw)
		}
		*e.dst = v
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvFinalizeStage, &c.FinalizeStage},
		{EnvLogLevel, &c.Logging.Level},
		{EnvLogFormat, &c.Logging.Format},
	}
	for _, e := range strs {
		if raw, ok := lookup(e.key); ok && strings.TrimSpace(raw) != "" {
			*e.dst = strings.TrimSpace(raw)
		}
	}
	return nil
}

// StageTable builds the stage table described by StageDurations.
func (c *Config) StageTable() (*item.StageTable, error) {
	overrides := make(map[item.Stage]time.Duration, len(c.StageDurations))
	for name, ms := range c.StageDurations {
		stage, err := item.ParseStage(name)
		if err != nil {
			return nil, fmt.Errorf("stage_durations: %w", err)
		}
		if ms < 0 {
			return nil, fmt.Errorf("%w: stage_durations.%s must not be negative, got %d", types.ErrInvalidConfig, name, ms)
		}
		overrides[stage] = time.Duration(ms) * time.Millisecond
	}
	return item.NewStageTable(overrides)
}

// Finalize returns the stage at which an item is counted and replaced.
func (c *Config) Finalize() (item.Stage, error) {
	return item.ParseStage(c.FinalizeStage)
}

// RunDuration returns how long plants run.
func (c *Config) RunDuration() time.Duration {
	return time.Duration(c.RunDurationMS) * time.Millisecond
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
