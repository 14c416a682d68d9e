// Package errors provides the error handling strategies used by plant workers
package errors

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jzx17/juiceplant/pkg/types"
	"go.uber.org/zap"
)

// ErrorHandler defines how worker-local errors are absorbed
type ErrorHandler interface {
	// HandleError handles the error, returns processed error or nil if handled
	HandleError(ctx context.Context, errCtx *ErrorContext) error

	// Name returns the name of the error handler
	Name() string
}

// ErrorContext defines context information when error occurs
type ErrorContext struct {
	// Error that occurred
	Error error

	// OperationName is the name of the operation where error occurred
	OperationName string

	// Plant is the name of the plant the worker belongs to
	Plant string

	// WorkerID is the worker that hit the error, -1 when unknown
	WorkerID int

	// Stage is the item stage at the time of the error
	Stage string

	// Timestamp when the error occurred
	Timestamp time.Time

	// Metadata contains additional metadata information
	Metadata map[string]interface{}
}

// NewErrorContext creates a new error context
func NewErrorContext(err error, operationName string) *ErrorContext {
	errCtx := &ErrorContext{
		Error:         err,
		OperationName: operationName,
		WorkerID:      -1,
		Timestamp:     time.Now(),
		Metadata:      make(map[string]interface{}),
	}

	var pe *types.PlantError
	if errors.As(err, &pe) {
		errCtx.Stage = pe.Stage
		errCtx.WorkerID = pe.Worker
		for k, v := range pe.Context {
			errCtx.Metadata[k] = v
		}
	}
	return errCtx
}

// WithPlant records the plant name
func (ec *ErrorContext) WithPlant(name string) *ErrorContext {
	ec.Plant = name
	return ec
}

// WithWorker records the worker id
func (ec *ErrorContext) WithWorker(id int) *ErrorContext {
	ec.WorkerID = id
	return ec
}

// Fields renders the context as zap fields
func (ec *ErrorContext) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("operation", ec.OperationName),
		zap.Error(ec.Error),
	}
	if ec.Plant != "" {
		fields = append(fields, zap.String("plant", ec.Plant))
	}
	if ec.WorkerID >= 0 {
		fields = append(fields, zap.Int("worker", ec.WorkerID))
	}
	if ec.Stage != "" {
		fields = append(fields, zap.String("stage", ec.Stage))
	}
	for k, v := range ec.Metadata {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

// ErrorHandlerStrategy defines error handling strategy types
type ErrorHandlerStrategy int

const (
	// LogAndContinueStrategy reports the error and keeps the worker running
	LogAndContinueStrategy ErrorHandlerStrategy = iota
	// FailFastStrategy hands the error back to the caller
	FailFastStrategy
)

// String returns the string representation of the strategy
func (s ErrorHandlerStrategy) String() string {
	switch s {
	case LogAndContinueStrategy:
		return "LogAndContinue"
	case FailFastStrategy:
		return "FailFast"
	default:
		return "Unknown"
	}
}

// NewHandler creates the handler for a strategy
func NewHandler(strategy ErrorHandlerStrategy, logger *zap.Logger) ErrorHandler {
	if strategy == FailFastStrategy {
		return NewFailFastHandler()
	}
	return NewLogAndContinueHandler(logger)
}

// FailFastHandler implements fail-fast error handling
type FailFastHandler struct {
	name string
}

// NewFailFastHandler creates a new fail-fast handler
func NewFailFastHandler() *FailFastHandler {
	return &FailFastHandler{
		name: "FailFast",
	}
}

// HandleError implements the ErrorHandler interface
func (h *FailFastHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	return errCtx.Error
}

// Name returns the handler name
func (h *FailFastHandler) Name() string {
	return h.name
}

// LogAndContinueHandler logs every error and reports it as handled.
// Interruptions are expected during shutdown and are logged at warn level,
// everything else at error level.
type LogAndContinueHandler struct {
	name   string
	logger *zap.Logger

	interrupted int64
	failed      int64
}

// NewLogAndContinueHandler creates a log-and-continue handler
func NewLogAndContinueHandler(logger *zap.Logger) *LogAndContinueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogAndContinueHandler{
		name:   "LogAndContinue",
		logger: logger,
	}
}

// HandleError implements the ErrorHandler interface
func (h *LogAndContinueHandler) HandleError(ctx context.Context, errCtx *ErrorContext) error {
	if errCtx == nil || errCtx.Error == nil {
		return nil
	}

	if types.IsInterrupted(errCtx.Error) {
		atomic.AddInt64(&h.interrupted, 1)
		h.logger.Warn("worker interrupted", errCtx.Fields()...)
		return nil
	}

	atomic.AddInt64(&h.failed, 1)
	h.logger.Error("worker error absorbed", errCtx.Fields()...)
	return nil
}

// Name returns the handler name
func (h *LogAndContinueHandler) Name() string {
	return h.name
}

// Interrupted returns the number of interruptions handled
func (h *LogAndContinueHandler) Interrupted() int64 {
	return atomic.LoadInt64(&h.interrupted)
}

// Failed returns the number of non-interruption errors handled
func (h *LogAndContinueHandler) Failed() int64 {
	return atomic.LoadInt64(&h.failed)
}
