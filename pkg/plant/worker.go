package plant

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jzx17/juiceplant/pkg/types"
	"go.uber.org/zap"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents a worker outside the critical section
	WorkerStateIdle WorkerState = iota
	// WorkerStateWaiting represents a worker blocked on the plant mutex
	WorkerStateWaiting
	// WorkerStateWorking represents a worker holding the plant mutex
	WorkerStateWorking
	// WorkerStateStopped represents a worker that left its loop
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWaiting:
		return "waiting"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker repeatedly takes the plant mutex and moves the shared item one step
type Worker struct {
	id    int
	plant *Plant
	state int32 // atomic state

	// statistics
	steps     int64
	advances  int64
	replaced  int64
	failures  int64
	waitNanos int64
	lastStep  int64 // Unix nanosecond timestamp

	logger *zap.Logger
}

func newWorker(id int, p *Plant) *Worker {
	return &Worker{
		id:     id,
		plant:  p,
		state:  int32(WorkerStateIdle),
		logger: p.logger.With(zap.Int("worker", id)),
	}
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// run loops until stopCtx is done. The stop signal is only checked at the
// top of the loop and while waiting for the mutex, never inside a step.
func (w *Worker) run(workCtx, stopCtx context.Context) {
	metrics := w.plant.config.Metrics
	metrics.WorkerStarted()
	defer func() {
		atomic.StoreInt32(&w.state, int32(WorkerStateStopped))
		metrics.WorkerStopped()
		w.logger.Debug("worker stopped")
	}()

	w.logger.Debug("processing oranges")

	for stopCtx.Err() == nil {
		if !w.once(workCtx, stopCtx) {
			return
		}
		// let another worker have a go at the mutex
		runtime.Gosched()
	}
}

// once performs a single acquire, step, release cycle.
// It returns false when the stop signal arrived while waiting.
func (w *Worker) once(workCtx, stopCtx context.Context) bool {
	p := w.plant
	clock := p.config.Clock

	atomic.StoreInt32(&w.state, int32(WorkerStateWaiting))
	waitStart := clock.Now()
	if err := p.mu.AcquireContext(stopCtx); err != nil {
		w.logger.Debug("stop requested while waiting for mutex", zap.Error(err))
		return false
	}
	waited := clock.Since(waitStart)
	atomic.AddInt64(&w.waitNanos, int64(waited))
	p.config.Metrics.MutexWait(waited)

	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	ev, err := w.stepLocked(workCtx)

	atomic.AddInt64(&w.steps, 1)
	atomic.StoreInt64(&w.lastStep, clock.Now().UnixNano())
	if err != nil {
		atomic.AddInt64(&w.failures, 1)
		p.handleError(workCtx, err, w.id)
		return true
	}

	if ev.Replaced {
		atomic.AddInt64(&w.replaced, 1)
		w.logger.Debug("orange bottled, fetched a new one", zap.String("item_id", ev.ItemID))
	} else {
		atomic.AddInt64(&w.advances, 1)
		w.logger.Debug("worker finished stage", zap.Stringer("stage", ev.Stage), zap.String("item_id", ev.ItemID))
	}
	return true
}

// stepLocked runs the plant step while holding the mutex. The mutex is
// released on every path, including a panic inside the step.
func (w *Worker) stepLocked(ctx context.Context) (_ StepEvent, err error) {
	p := w.plant
	defer p.mu.Release()

	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = types.NewPlantError("step", "", cause).
				WithWorker(w.id).
				WithContext("stack_trace", string(buf[:n]))
		}
	}()

	return p.step(ctx, w)
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	var last time.Time
	if ns := atomic.LoadInt64(&w.lastStep); ns != 0 {
		last = time.Unix(0, ns)
	}
	return WorkerStats{
		ID:          w.id,
		State:       w.State(),
		Steps:       atomic.LoadInt64(&w.steps),
		Advances:    atomic.LoadInt64(&w.advances),
		Replaced:    atomic.LoadInt64(&w.replaced),
		Failures:    atomic.LoadInt64(&w.failures),
		WaitingTime: time.Duration(atomic.LoadInt64(&w.waitNanos)),
		LastStep:    last,
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID          int
	State       WorkerState
	Steps       int64
	Advances    int64
	Replaced    int64
	Failures    int64
	WaitingTime time.Duration
	LastStep    time.Time
}

// IsStarved reports whether the worker never got through the critical section
func (ws WorkerStats) IsStarved() bool {
	return ws.Steps == 0
}
