package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jzx17/juiceplant/internal/config"
	plerrors "github.com/jzx17/juiceplant/internal/errors"
	"github.com/jzx17/juiceplant/internal/logging"
	"github.com/jzx17/juiceplant/internal/metrics"
	"github.com/jzx17/juiceplant/pkg/factory"
	"github.com/jzx17/juiceplant/pkg/plant"
)

func runPlants(ctx context.Context, out io.Writer, cfg *config.Config, dumpMetrics bool) error {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	collector := metrics.New()
	summary, err := execute(ctx, cfg, logger, collector)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderSummary(summary, tableStyle(out)))
	fmt.Fprintf(out, "Total provided/processed = %d/%d\n", summary.Provided, summary.Processed)
	fmt.Fprintf(out, "Created %d, wasted %d oranges\n", summary.Bottles, summary.Wasted)

	if dumpMetrics {
		fmt.Fprintln(out)
		if err := collector.WriteText(out); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// execute runs the plants described by cfg and returns their summary
func execute(ctx context.Context, cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) (factory.Summary, error) {
	stages, err := cfg.StageTable()
	if err != nil {
		return factory.Summary{}, err
	}
	finalize, err := cfg.Finalize()
	if err != nil {
		return factory.Summary{}, err
	}

	logger.Debug("stage table",
		zap.Duration("cycle", stages.CycleDuration(finalize)),
		zap.Stringer("finalize", finalize))

	return factory.Run(ctx, factory.Config{
		Plants:   cfg.Plants,
		Duration: cfg.RunDuration(),
		Logger:   logger,
		Plant: func(i int) *plant.Config {
			name := fmt.Sprintf("plant-%d", i+1)
			return &plant.Config{
				Name:           name,
				Workers:        cfg.Workers,
				ItemsPerBottle: cfg.ItemsPerBottle,
				Stages:         stages,
				FinalizeStage:  finalize,
				Logger:         logger,
				Metrics:        collector.ForPlant(name),
				ErrorHandler: plerrors.NewHandler(plerrors.LogAndContinueStrategy,
					logger.With(zap.String("plant", name))),
			}
		},
	})
}
