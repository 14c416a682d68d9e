package item

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jzx17/juiceplant/pkg/types"
	"go.uber.org/zap"
)

// WorkItem is one orange moving through the stage table.
//
// A WorkItem is not safe for concurrent use; the plant only touches it while
// holding its mutex.
type WorkItem struct {
	id     string
	table  *StageTable
	clock  types.Clock
	logger *zap.Logger

	stage         Stage
	elapsed       time.Duration
	interruptions int
	fresh         bool
}

// Option configures a WorkItem
type Option func(*WorkItem)

// WithStageTable sets the stage table, defaults to DefaultStageTable
func WithStageTable(table *StageTable) Option {
	return func(w *WorkItem) {
		if table != nil {
			w.table = table
		}
	}
}

// WithClock sets the clock driving simulated work
func WithClock(clock types.Clock) Option {
	return func(w *WorkItem) {
		if clock != nil {
			w.clock = clock
		}
	}
}

// WithLogger sets the logger used for interruption diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(w *WorkItem) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Fresh skips the work of the initial stage at construction
func Fresh() Option {
	return func(w *WorkItem) {
		w.fresh = true
	}
}

// NewWorkItem creates an item in the initial stage. Unless Fresh is given,
// it performs the initial stage's work before returning, so a new orange
// arrives already fetched.
func NewWorkItem(ctx context.Context, opts ...Option) *WorkItem {
	w := &WorkItem{
		id:     uuid.NewString(),
		table:  DefaultStageTable(),
		clock:  types.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.stage = w.table.Initial()
	w.logger = w.logger.With(zap.String("item_id", w.id))

	if !w.fresh {
		w.work(ctx)
	}
	return w
}

// ID returns the item identifier
func (w *WorkItem) ID() string {
	return w.id
}

// CurrentStage returns the stage the item is in
func (w *WorkItem) CurrentStage() Stage {
	return w.stage
}

// Table returns the stage table driving this item
func (w *WorkItem) Table() *StageTable {
	return w.table
}

// IsComplete reports whether the item reached the finalize stage
func (w *WorkItem) IsComplete(finalize Stage) bool {
	return w.stage == finalize
}

// Elapsed returns the total simulated work performed on the item
func (w *WorkItem) Elapsed() time.Duration {
	return w.elapsed
}

// Interruptions returns how many stage works were cut short
func (w *WorkItem) Interruptions() int {
	return w.interruptions
}

// Advance performs the work of the current stage and moves to the next one.
//
// At the terminal stage it returns a *types.PlantError matching
// types.ErrIllegalState and changes nothing. If ctx is done while the work is
// in progress the interruption is logged and the transition still happens.
func (w *WorkItem) Advance(ctx context.Context) error {
	next, ok := w.table.Next(w.stage)
	if !ok {
		return types.NewPlantError("advance", w.stage.String(), types.ErrIllegalState).
			WithContext("item_id", w.id)
	}

	w.work(ctx)
	w.stage = next
	return nil
}

// work blocks for the current stage's duration
func (w *WorkItem) work(ctx context.Context) {
	d := w.table.Duration(w.stage)
	start := w.clock.Now()

	if err := types.Sleep(ctx, w.clock, d); err != nil {
		w.interruptions++
		w.elapsed += w.clock.Since(start)
		w.logger.Warn("incomplete orange processing, juice may be bad",
			zap.Stringer("stage", w.stage),
			zap.Duration("planned", d),
			zap.Error(err))
		return
	}
	w.elapsed += d
}
