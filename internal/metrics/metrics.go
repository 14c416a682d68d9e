// Package metrics exposes plant activity as prometheus collectors on a
// private registry
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "juiceplant"

// Collector owns the registry and every plant metric
type Collector struct {
	registry *prometheus.Registry

	itemsProvided  *prometheus.CounterVec
	itemsProcessed *prometheus.CounterVec
	stageAdvances  *prometheus.CounterVec
	interruptions  *prometheus.CounterVec
	failures       *prometheus.CounterVec
	mutexWait      *prometheus.HistogramVec
	activeWorkers  *prometheus.GaugeVec
}

// New creates a collector with its own registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		itemsProvided: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_provided_total",
				Help:      "Oranges handed to the plant",
			},
			[]string{"plant"},
		),
		itemsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_processed_total",
				Help:      "Oranges that reached the finalize stage",
			},
			[]string{"plant"},
		),
		stageAdvances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_advances_total",
				Help:      "Stage transitions, labelled by the stage that was completed",
			},
			[]string{"plant", "stage"},
		),
		interruptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interruptions_total",
				Help:      "Stage work cut short by cancellation",
			},
			[]string{"plant"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_failures_total",
				Help:      "Errors and panics absorbed inside the critical section",
			},
			[]string{"plant"},
		),
		mutexWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mutex_wait_seconds",
				Help:      "Time workers spent blocked acquiring the plant mutex",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"plant"},
		),
		activeWorkers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_workers",
				Help:      "Workers currently looping",
			},
			[]string{"plant"},
		),
	}

	c.registry.MustRegister(
		c.itemsProvided,
		c.itemsProcessed,
		c.stageAdvances,
		c.interruptions,
		c.failures,
		c.mutexWait,
		c.activeWorkers,
	)
	return c
}

// Registry returns the registry holding the plant metrics
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ForPlant returns a recorder bound to one plant label
func (c *Collector) ForPlant(plant string) *PlantRecorder {
	return &PlantRecorder{
		provided:      c.itemsProvided.WithLabelValues(plant),
		processed:     c.itemsProcessed.WithLabelValues(plant),
		advances:      c.stageAdvances.MustCurryWith(prometheus.Labels{"plant": plant}),
		interruptions: c.interruptions.WithLabelValues(plant),
		failures:      c.failures.WithLabelValues(plant),
		mutexWait:     c.mutexWait.WithLabelValues(plant),
		active:        c.activeWorkers.WithLabelValues(plant),
	}
}

// Gather collects the current metric families
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}

// WriteText writes every metric family in the prometheus text format
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// PlantRecorder records metrics for a single plant
type PlantRecorder struct {
	provided      prometheus.Counter
	processed     prometheus.Counter
	advances      *prometheus.CounterVec
	interruptions prometheus.Counter
	failures      prometheus.Counter
	mutexWait     prometheus.Observer
	active        prometheus.Gauge
}

// ItemCompleted counts one provided and processed orange
func (r *PlantRecorder) ItemCompleted() {
	r.provided.Inc()
	r.processed.Inc()
}

// StageAdvanced counts a transition out of stage
func (r *PlantRecorder) StageAdvanced(stage string) {
	r.advances.WithLabelValues(stage).Inc()
}

// Interrupted counts an interrupted stage work
func (r *PlantRecorder) Interrupted() {
	r.interruptions.Inc()
}

// Failed counts an absorbed worker error
func (r *PlantRecorder) Failed() {
	r.failures.Inc()
}

// MutexWait observes time spent waiting for the mutex
func (r *PlantRecorder) MutexWait(d time.Duration) {
	r.mutexWait.Observe(d.Seconds())
}

// WorkerStarted increments the active worker gauge
func (r *PlantRecorder) WorkerStarted() {
	r.active.Inc()
}

// WorkerStopped decrements the active worker gauge
func (r *PlantRecorder) WorkerStopped() {
	r.active.Dec()
}
