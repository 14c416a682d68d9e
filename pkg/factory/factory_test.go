package factory

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/juiceplant/internal/testutils"
	"github.com/jzx17/juiceplant/pkg/item"
	"github.com/jzx17/juiceplant/pkg/plant"
	"github.com/jzx17/juiceplant/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroStages(t *testing.T) *item.StageTable {
	t.Helper()
	table, err := item.NewStageTable(map[item.Stage]time.Duration{
		item.StageFetched:   0,
		item.StagePeeled:    0,
		item.StageSqueezed:  0,
		item.StageBottled:   0,
		item.StageProcessed: 0,
	})
	require.NoError(t, err)
	return table
}

func plantBuilder(t *testing.T, workers int) func(int) *plant.Config {
	stages := zeroStages(t)
	return func(int) *plant.Config {
		return &plant.Config{
			Workers:        workers,
			ItemsPerBottle: 3,
			Stages:         stages,
			FinalizeStage:  item.StageBottled,
		}
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no plants", Config{Plants: 0, Duration: time.Second, Plant: plantBuilder(t, 1)}},
		{"zero duration", Config{Plants: 1, Duration: 0, Plant: plantBuilder(t, 1)}},
		{"no builder", Config{Plants: 1, Duration: time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, types.ErrInvalidConfig)
		})
	}
}

func TestRun_InvalidPlantConfig(t *testing.T) {
	_, err := Run(context.Background(), Config{
		Plants:   2,
		Duration: time.Second,
		Plant: func(int) *plant.Config {
			return &plant.Config{Workers: 0, ItemsPerBottle: 3, FinalizeStage: item.StageBottled}
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "create plant 1")
}

func TestRun_AggregatesPlants(t *testing.T) {
	summary, err := Run(testutils.Context(t), Config{
		Plants:   3,
		Duration: 50 * time.Millisecond,
		Plant:    plantBuilder(t, 4),
	})
	require.NoError(t, err)

	require.Len(t, summary.Plants, 3)
	assert.True(t, summary.Balanced())

	var provided, processed, bottles, wasted int64
	for i, report := range summary.Plants {
		assert.Equal(t, fmt.Sprintf("plant-%d", i+1), report.Name)
		assert.True(t, report.Balanced())
		assert.Positive(t, report.Processed)
		provided += report.Provided
		processed += report.Processed
		bottles += report.Bottles
		wasted += report.Wasted
	}

	assert.Equal(t, provided, summary.Provided)
	assert.Equal(t, processed, summary.Processed)
	assert.Equal(t, bottles, summary.Bottles)
	assert.Equal(t, wasted, summary.Wasted)
	assert.GreaterOrEqual(t, summary.Elapsed, 50*time.Millisecond)
}

func TestRun_KeepsExplicitNames(t *testing.T) {
	stages := zeroStages(t)
	names := []string{"north", "south"}

	summary, err := Run(testutils.Context(t), Config{
		Plants:   2,
		Duration: 10 * time.Millisecond,
		Plant: func(i int) *plant.Config {
			return &plant.Config{
				Name:           names[i],
				Workers:        2,
				ItemsPerBottle: 3,
				Stages:         stages,
				FinalizeStage:  item.StageBottled,
			}
		},
	})
	require.NoError(t, err)
	require.Len(t, summary.Plants, 2)
	assert.Equal(t, "north", summary.Plants[0].Name)
	assert.Equal(t, "south", summary.Plants[1].Name)
}

func TestRun_MockClockDrivesDuration(t *testing.T) {
	ctx := testutils.Context(t)
	mock := testutils.NewMockClock(t)

	type result struct {
		summary Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := Run(ctx, Config{
			Plants:   2,
			Duration: time.Hour,
			Plant:    plantBuilder(t, 2),
			Clock:    testutils.NewClockWrapper(mock),
		})
		done <- result{s, err}
	}()

	// stage durations are zero, so the run timer is the only one registered
	advanced := testutils.FireNextTimer(ctx, t, mock)
	assert.Equal(t, time.Hour, advanced)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, time.Hour, r.summary.Elapsed)
		assert.True(t, r.summary.Balanced())
		assert.Len(t, r.summary.Plants, 2)
	case <-ctx.Done():
		t.Fatal("run did not finish after the mock clock fired")
	}
}

func TestRun_ContextCancellationEndsRunEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(testutils.Context(t))

	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, Config{
			Plants:   2,
			Duration: time.Hour,
			Plant:    plantBuilder(t, 2),
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(testutils.DefaultTimeout):
		t.Fatal("run ignored context cancellation")
	}
}

func TestRun_UsesClockFromContext(t *testing.T) {
	base := testutils.Context(t)
	mock := testutils.NewMockClock(t)
	ctx := testutils.WithMockClock(base, mock)

	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, Config{
			Plants:   1,
			Duration: time.Minute,
			Plant:    plantBuilder(t, 1),
		})
		done <- err
	}()

	assert.Equal(t, time.Minute, testutils.FireNextTimer(base, t, mock))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-base.Done():
		t.Fatal("run did not pick up the context clock")
	}
}

func TestRun_SignalsEveryPlantBeforeWaiting(t *testing.T) {
	const runFor = 100 * time.Millisecond

	slow, err := item.NewStageTable(map[item.Stage]time.Duration{
		item.StageFetched:   0,
		item.StagePeeled:    300 * time.Millisecond,
		item.StageSqueezed:  0,
		item.StageBottled:   0,
		item.StageProcessed: 0,
	})
	require.NoError(t, err)
	fast := zeroStages(t)

	var lastFastStep atomic.Int64
	start := time.Now()

	_, err = Run(testutils.Context(t), Config{
		Plants:   2,
		Duration: runFor,
		Plant: func(i int) *plant.Config {
			cfg := &plant.Config{
				Workers:        1,
				ItemsPerBottle: 3,
				Stages:         slow,
				FinalizeStage:  item.StageBottled,
			}
			if i == 1 {
				cfg.Stages = fast
				cfg.OnStep = func(plant.StepEvent) {
					lastFastStep.Store(int64(time.Since(start)))
				}
			}
			return cfg
		},
	})
	require.NoError(t, err)

	// the slow plant is still inside its 300ms stage at the deadline; the
	// fast plant must not keep stepping while that stage finishes
	last := time.Duration(lastFastStep.Load())
	assert.Positive(t, last)
	assert.Less(t, last, runFor+150*time.Millisecond,
		"fast plant kept working until %v", last)
}

func TestRun_NilPlantConfigUsesDefaults(t *testing.T) {
	summary, err := Run(testutils.Context(t), Config{
		Plants:   1,
		Duration: 20 * time.Millisecond,
		Plant:    func(int) *plant.Config { return nil },
	})
	require.NoError(t, err)
	require.Len(t, summary.Plants, 1)
	assert.Equal(t, "plant-1", summary.Plants[0].Name)
	assert.Len(t, summary.Plants[0].PerWorker, plant.DefaultConfig().Workers)
}
