package config

import (
	"fmt"
	"strings"

	"github.com/jzx17/juiceplant/internal/logging"
	"github.com/jzx17/juiceplant/pkg/types"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCounts(); err != nil {
		return err
	}
	if err := c.validateStages(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCounts() error {
	checks := []struct {
		name  string
		value int
	}{
		{"workers", c.Workers},
		{"plants", c.Plants},
		{"run_duration_ms", c.RunDurationMS},
		{"items_per_bottle", c.ItemsPerBottle},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", types.ErrInvalidConfig, check.name, check.value)
		}
	}
	return nil
}

func (c *Config) validateStages() error {
	c.normalizeStageNames()

	table, err := c.StageTable()
	if err != nil {
		return err
	}
	finalize, err := c.Finalize()
	if err != nil {
		return fmt.Errorf("finalize_stage: %w", err)
	}
	if finalize == table.Initial() {
		return fmt.Errorf("%w: finalize_stage must come after %s", types.ErrInvalidConfig, strings.ToLower(table.Initial().String()))
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", types.ErrInvalidConfig, err)
	}
	if !logging.ValidFormat(c.Logging.Format) {
		return fmt.Errorf("%w: logging.format must be console or json, got %q", types.ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

// normalizeStageNames lower-cases stage keys so "Peeled" and "peeled" name
// the same entry. A key written in another case replaces the default one.
func (c *Config) normalizeStageNames() {
	for name, ms := range c.StageDurations {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == name {
			continue
		}
		delete(c.StageDurations, name)
		c.StageDurations[lower] = ms
	}
	c.FinalizeStage = strings.ToLower(strings.TrimSpace(c.FinalizeStage))
}
