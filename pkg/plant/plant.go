package plant

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	plerrors "github.com/jzx17/juiceplant/internal/errors"
	"github.com/jzx17/juiceplant/pkg/item"
	"github.com/jzx17/juiceplant/pkg/mutex"
	"github.com/jzx17/juiceplant/pkg/types"
	"go.uber.org/zap"
)

// plant lifecycle states
const (
	stateIdle int32 = iota
	stateRunning
	stateClosed
)

// StepEvent describes one pass of a worker through the critical section
type StepEvent struct {
	// Worker is the id of the worker holding the mutex
	Worker int
	// ItemID identifies the item the worker found in the slot
	ItemID string
	// Stage is the stage the item was in when the worker picked it up
	Stage item.Stage
	// Replaced is true when the item was finalized and swapped for a new one
	Replaced bool
}

// Recorder receives plant metrics
type Recorder interface {
	ItemCompleted()
	StageAdvanced(stage string)
	Interrupted()
	Failed()
	MutexWait(d time.Duration)
	WorkerStarted()
	WorkerStopped()
}

// Config defines configuration for a plant
type Config struct {
	// Name labels logs and metrics, defaults to "plant-" plus a short id
	Name string

	// Workers is the number of worker goroutines
	Workers int

	// ItemsPerBottle is how many processed oranges fill a bottle
	ItemsPerBottle int

	// Stages drives every item, defaults to item.DefaultStageTable
	Stages *item.StageTable

	// FinalizeStage is the stage at which an item is counted and replaced
	FinalizeStage item.Stage

	// Clock for simulated work and wait timing (optional, defaults to real clock)
	Clock types.Clock

	// Logger receives progress and diagnostics (optional)
	Logger *zap.Logger

	// Metrics receives counters (optional)
	Metrics Recorder

	// ErrorHandler absorbs errors raised inside the critical section
	// (optional, defaults to log and continue)
	ErrorHandler plerrors.ErrorHandler

	// OnStep is called inside the critical section after every step (optional)
	OnStep func(StepEvent)
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:        15,
		ItemsPerBottle: 3,
		Stages:         item.DefaultStageTable(),
		FinalizeStage:  item.StageBottled,
		Clock:          types.NewRealClock(),
	}
}

// Plant owns one mutex, one in-flight item and a fixed set of workers
// advancing that item.
type Plant struct {
	id     string
	config *Config
	logger *zap.Logger

	mu *mutex.BlockingMutex

	// guarded by mu
	current   *item.WorkItem
	provided  int64
	processed int64

	// holder is the id of the worker inside the critical section, -1 if none
	holder     int32
	violations int64

	workers []*Worker

	lifecycle sync.Mutex
	state     int32
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
}

// New creates a plant, nil config means DefaultConfig
func New(config *Config) (*Plant, error) {
	if config == nil {
		config = DefaultConfig()
	}

	cfg := *config
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("%w: worker count must be positive, got %d", types.ErrInvalidConfig, cfg.Workers)
	}
	if cfg.ItemsPerBottle <= 0 {
		return nil, fmt.Errorf("%w: items per bottle must be positive, got %d", types.ErrInvalidConfig, cfg.ItemsPerBottle)
	}
	if cfg.Stages == nil {
		cfg.Stages = item.DefaultStageTable()
	}
	if !cfg.Stages.Reaches(cfg.FinalizeStage) {
		return nil, fmt.Errorf("%w: finalize stage %s is not part of the stage table", types.ErrInvalidConfig, cfg.FinalizeStage)
	}
	if cfg.FinalizeStage == cfg.Stages.Initial() {
		return nil, fmt.Errorf("%w: finalize stage must come after %s", types.ErrInvalidConfig, cfg.Stages.Initial())
	}
	if cfg.Clock == nil {
		cfg.Clock = types.NewRealClock()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopRecorder{}
	}

	id := uuid.NewString()
	if cfg.Name == "" {
		cfg.Name = "plant-" + id[:8]
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("plant", cfg.Name))

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = plerrors.NewLogAndContinueHandler(logger)
	}

	p := &Plant{
		id:      id,
		config:  &cfg,
		logger:  logger,
		mu:      mutex.New(),
		holder:  -1,
		workers: make([]*Worker, cfg.Workers),
		done:    make(chan struct{}),
	}
	for i := range p.workers {
		p.workers[i] = newWorker(i+1, p)
	}
	return p, nil
}

// ID returns the plant identifier
func (p *Plant) ID() string {
	return p.id
}

// Name returns the plant name
func (p *Plant) Name() string {
	return p.config.Name
}

// Size returns the number of workers
func (p *Plant) Size() int {
	return p.config.Workers
}

// Start fetches the first orange and launches the workers.
//
// Cancelling ctx interrupts any stage work in progress and makes the workers
// exit; Stop is the cooperative way to end a run.
func (p *Plant) Start(ctx context.Context) error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if !atomic.CompareAndSwapInt32(&p.state, stateIdle, stateRunning) {
		if atomic.LoadInt32(&p.state) == stateRunning {
			return fmt.Errorf("plant %s is already running", p.config.Name)
		}
		return types.ErrPlantClosed
	}

	// stop signal for the loop top and the mutex wait only, stage work
	// keeps the caller's context so Stop never cuts a step short
	stopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.mu.Acquire()
	p.current = p.newItem(ctx)
	p.mu.Release()

	p.logger.Info("plant started", zap.Int("workers", len(p.workers)))

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.run(ctx, stopCtx)
		}(w)
	}

	go func() {
		p.wg.Wait()
		p.logger.Info("plant stopped")
		close(p.done)
	}()

	return nil
}

// Stop signals every worker to finish its current step and waits until all
// of them have exited
func (p *Plant) Stop() error {
	if err := p.Shutdown(); err != nil {
		return err
	}
	p.Wait()
	return nil
}

// Shutdown signals every worker to finish its current step and returns
// without waiting. Use Wait or Done to learn when the workers are gone.
func (p *Plant) Shutdown() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if !atomic.CompareAndSwapInt32(&p.state, stateRunning, stateClosed) {
		if atomic.LoadInt32(&p.state) == stateIdle {
			return types.ErrPlantStopped
		}
		return types.ErrPlantClosed
	}
	p.cancel()
	p.logger.Info("plant stopping")
	return nil
}

// Wait blocks until every worker has exited. It returns immediately for a
// plant that was never started.
func (p *Plant) Wait() {
	if atomic.LoadInt32(&p.state) == stateIdle {
		return
	}
	<-p.done
}

// Done is closed once every worker has exited
func (p *Plant) Done() <-chan struct{} {
	return p.done
}

// IsRunning reports whether workers may still be running
func (p *Plant) IsRunning() bool {
	if atomic.LoadInt32(&p.state) == stateIdle {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Violations returns how many times two workers were observed inside the
// critical section at once
func (p *Plant) Violations() int64 {
	return atomic.LoadInt64(&p.violations)
}

// Holder returns the id of the worker inside the critical section, or -1
func (p *Plant) Holder() int {
	return int(atomic.LoadInt32(&p.holder))
}

// MutexStats returns statistics of the plant mutex
func (p *Plant) MutexStats() types.MutexStats {
	return p.mu.Stats()
}

// Report returns the final counters. It fails with types.ErrPlantRunning
// while any worker may still be running.
func (p *Plant) Report() (Report, error) {
	if p.IsRunning() {
		return Report{}, types.ErrPlantRunning
	}

	// no worker is left, the lock only orders us after the last release
	p.mu.Acquire()
	counters := types.PlantCounters{Provided: p.provided, Processed: p.processed}
	p.mu.Release()

	perWorker := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		perWorker[i] = w.Stats()
	}

	return Report{
		Name:      p.config.Name,
		Provided:  counters.Provided,
		Processed: counters.Processed,
		Bottles:   counters.Bottles(p.config.ItemsPerBottle),
		Wasted:    counters.Wasted(p.config.ItemsPerBottle),
		PerWorker: perWorker,
		Mutex:     p.mu.Stats(),
	}, nil
}

// step runs one pass of worker w through the critical section.
// It must be called with p.mu held.
func (p *Plant) step(ctx context.Context, w *Worker) (StepEvent, error) {
	if !atomic.CompareAndSwapInt32(&p.holder, -1, int32(w.id)) {
		atomic.AddInt64(&p.violations, 1)
		p.logger.Error("mutual exclusion violated",
			zap.Int("worker", w.id),
			zap.Int("holder", int(atomic.LoadInt32(&p.holder))))
	}
	defer atomic.StoreInt32(&p.holder, -1)

	cur := p.current
	ev := StepEvent{
		Worker: w.id,
		ItemID: cur.ID(),
		Stage:  cur.CurrentStage(),
	}

	if cur.IsComplete(p.config.FinalizeStage) {
		p.provided++
		p.processed++
		p.config.Metrics.ItemCompleted()

		p.current = p.newItem(ctx)
		ev.Replaced = true
	} else {
		before := cur.Interruptions()
		if err := cur.Advance(ctx); err != nil {
			return ev, types.NewPlantError("step", ev.Stage.String(), err).
				WithWorker(w.id).
				WithContext("item_id", ev.ItemID)
		}
		p.config.Metrics.StageAdvanced(ev.Stage.String())
		if cur.Interruptions() > before {
			p.config.Metrics.Interrupted()
		}
	}

	if p.config.OnStep != nil {
		p.config.OnStep(ev)
	}
	return ev, nil
}

// newItem fetches a fresh orange for the slot
func (p *Plant) newItem(ctx context.Context) *item.WorkItem {
	w := item.NewWorkItem(ctx,
		item.WithStageTable(p.config.Stages),
		item.WithClock(p.config.Clock),
		item.WithLogger(p.logger))
	if w.Interruptions() > 0 {
		p.config.Metrics.Interrupted()
	}
	return w
}

// handleError hands an absorbed error to the configured handler
func (p *Plant) handleError(ctx context.Context, err error, workerID int) {
	p.config.Metrics.Failed()

	errCtx := plerrors.NewErrorContext(err, "step").
		WithPlant(p.config.Name).
		WithWorker(workerID)
	if handledErr := p.config.ErrorHandler.HandleError(ctx, errCtx); handledErr != nil {
		// the pool never stops on a worker-local error, surface it and move on
		p.logger.Error("unhandled worker error", errCtx.Fields()...)
	}
}

type noopRecorder struct{}

func (noopRecorder) ItemCompleted()          {}
func (noopRecorder) StageAdvanced(string)    {}
func (noopRecorder) Interrupted()            {}
func (noopRecorder) Failed()                 {}
func (noopRecorder) MutexWait(time.Duration) {}
func (noopRecorder) WorkerStarted()          {}
func (noopRecorder) WorkerStopped()          {}
