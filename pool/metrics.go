package pool

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Pool.
//
// A nil *Metrics is valid and records nothing, which is what a pool built
// without WithMetrics uses.
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksRejected  prometheus.Counter
	TasksCompleted prometheus.Counter
	TasksFailed    prometheus.Counter
	TaskPanics     prometheus.Counter
	TaskRetries    prometheus.Counter
	QueueDepth     prometheus.Gauge
	ActiveWorkers  prometheus.Gauge
	QueueWait      prometheus.Histogram
	TaskLatency    prometheus.Histogram
}

// NewMetrics creates (but does not register) the pool collectors.
func NewMetrics(namespace, subsystem string) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	histogram := func(name, help string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   prometheus.DefBuckets,
		})
	}

	return &Metrics{
		TasksSubmitted: counter("tasks_submitted_total", "Total number of tasks accepted by the pool"),
		TasksRejected:  counter("tasks_rejected_total", "Total number of submissions rejected after shutdown began"),
		TasksCompleted: counter("tasks_completed_total", "Total number of tasks that completed successfully"),
		TasksFailed:    counter("tasks_failed_total", "Total number of tasks whose outcome was an error"),
		TaskPanics:     counter("task_panics_total", "Total number of task panics recovered by workers"),
		TaskRetries:    counter("task_retries_total", "Total number of retry attempts"),
		QueueDepth:     gauge("queue_depth", "Number of tasks waiting in the queue"),
		ActiveWorkers:  gauge("active_workers", "Number of workers currently executing a task"),
		QueueWait:      histogram("task_queue_wait_seconds", "Time tasks spent queued before a worker picked them up"),
		TaskLatency:    histogram("task_latency_seconds", "Histogram of task execution latency"),
	}
}

// Collectors returns every collector, for custom registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.TasksSubmitted,
		m.TasksRejected,
		m.TasksCompleted,
		m.TasksFailed,
		m.TaskPanics,
		m.TaskRetries,
		m.QueueDepth,
		m.ActiveWorkers,
		m.QueueWait,
		m.TaskLatency,
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (m *Metrics) MustRegister(reg prometheus.Registerer) *Metrics {
	reg.MustRegister(m.Collectors()...)
	return m
}

func (m *Metrics) submitted() {
	if m == nil {
		return
	}
	m.TasksSubmitted.Inc()
}

func (m *Metrics) queued(delta float64) {
	if m == nil {
		return
	}
	m.QueueDepth.Add(delta)
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.TasksRejected.Inc()
}

func (m *Metrics) dequeued(wait time.Duration) {
	if m == nil {
		return
	}
	m.QueueDepth.Dec()
	m.ActiveWorkers.Inc()
	m.QueueWait.Observe(wait.Seconds())
}

func (m *Metrics) retried() {
	if m == nil {
		return
	}
	m.TaskRetries.Inc()
}

func (m *Metrics) finished(latency time.Duration, err error) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
	m.TaskLatency.Observe(latency.Seconds())
	switch {
	case err == nil:
		m.TasksCompleted.Inc()
	case IsPanic(err):
		m.TaskPanics.Inc()
		m.TasksFailed.Inc()
	default:
		m.TasksFailed.Inc()
	}
}
