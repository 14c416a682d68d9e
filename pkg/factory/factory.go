// Package factory runs several plants side by side for a fixed duration and
// aggregates their final counters
package factory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jzx17/juiceplant/pkg/plant"
	"github.com/jzx17/juiceplant/pkg/types"
	"go.uber.org/zap"
)

// Config defines configuration for a factory run
type Config struct {
	// Plants is the number of independent plants
	Plants int

	// Duration is how long the plants run before being stopped
	Duration time.Duration

	// Plant builds the configuration of the i-th plant (0-based).
	// Each call must return a fresh *plant.Config; nil means
	// plant.DefaultConfig.
	Plant func(i int) *plant.Config

	// Clock times the run (optional, defaults to the clock in ctx)
	Clock types.Clock

	// Logger receives lifecycle messages (optional)
	Logger *zap.Logger
}

// Summary aggregates the reports of every plant
type Summary struct {
	Provided  int64
	Processed int64
	Bottles   int64
	Wasted    int64
	Elapsed   time.Duration
	Plants    []plant.Report
}

// Balanced reports whether every plant processed what it was provided
func (s Summary) Balanced() bool {
	return s.Provided == s.Processed
}

func (c *Config) validate() error {
	if c.Plants <= 0 {
		return fmt.Errorf("%w: plant count must be positive, got %d", types.ErrInvalidConfig, c.Plants)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: run duration must be positive, got %v", types.ErrInvalidConfig, c.Duration)
	}
	if c.Plant == nil {
		return fmt.Errorf("%w: plant config builder is required", types.ErrInvalidConfig)
	}
	return nil
}

// Run starts every plant, lets them work for cfg.Duration (or until ctx is
// done), stops them all and returns the aggregated summary. Counters are only
// read after every worker of every plant has exited.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	if err := cfg.validate(); err != nil {
		return Summary{}, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = types.ClockFromContext(ctx)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	plants := make([]*plant.Plant, 0, cfg.Plants)
	for i := 0; i < cfg.Plants; i++ {
		pc := cfg.Plant(i)
		if pc == nil {
			pc = plant.DefaultConfig()
		}
		if pc.Name == "" {
			pc.Name = fmt.Sprintf("plant-%d", i+1)
		}
		p, err := plant.New(pc)
		if err != nil {
			return Summary{}, fmt.Errorf("create plant %d: %w", i+1, err)
		}
		plants = append(plants, p)
	}

	start := clock.Now()
	for i, p := range plants {
		if err := p.Start(ctx); err != nil {
			_ = stopAll(plants[:i])
			return Summary{}, fmt.Errorf("start %s: %w", p.Name(), err)
		}
	}
	logger.Info("plants started",
		zap.Int("plants", len(plants)),
		zap.Duration("duration", cfg.Duration))

	timer := clock.NewTimer(cfg.Duration)
	select {
	case <-timer.C():
	case <-ctx.Done():
		timer.Stop()
		logger.Warn("run interrupted", zap.Error(ctx.Err()))
	}

	stopErr := stopAll(plants)

	summary := Summary{Elapsed: clock.Since(start)}
	for _, p := range plants {
		report, err := p.Report()
		if err != nil {
			return summary, fmt.Errorf("report %s: %w", p.Name(), err)
		}
		summary.Provided += report.Provided
		summary.Processed += report.Processed
		summary.Bottles += report.Bottles
		summary.Wasted += report.Wasted
		summary.Plants = append(summary.Plants, report)
	}

	logger.Info("plants stopped",
		zap.Int64("provided", summary.Provided),
		zap.Int64("processed", summary.Processed),
		zap.Int64("bottles", summary.Bottles),
		zap.Int64("wasted", summary.Wasted))

	return summary, stopErr
}

// stopAll signals every plant before waiting on any of them, so no plant
// keeps working while another one finishes its last step
func stopAll(plants []*plant.Plant) error {
	var errs []error
	for _, p := range plants {
		if err := p.Shutdown(); err != nil && !errors.Is(err, types.ErrPlantClosed) {
			errs = append(errs, fmt.Errorf("stop %s: %w", p.Name(), err))
		}
	}
	for _, p := range plants {
		p.Wait()
	}
	return errors.Join(errs...)
}
