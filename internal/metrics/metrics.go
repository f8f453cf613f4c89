// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sleeqtechnologies/rechef/internal/slot"
)

const namespace = "rechef"

type Metrics struct {
	// Job metrics
	JobsSubmitted *prometheus.CounterVec
	JobsFinished  *prometheus.CounterVec
	JobDuration   *prometheus.HistogramVec
	JobsRecovered prometheus.Counter

	// Processing slot metrics
	SlotWait    prometheus.Histogram
	SlotWaiters prometheus.Gauge

	// Frame pipeline metrics
	FramesSampled    prometheus.Counter
	FramesClassified *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := NewWithRegisterer(reg)
	m.registry = reg
	return m
}

// NewWithRegisterer registers the pipeline collectors on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}

	m.JobsSubmitted = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_submitted_total",
		Help:      "Total submissions accepted, by source.",
	}, []string{"source"})

	m.JobsFinished = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_finished_total",
		Help:      "Total jobs that reached a terminal state, by source and status.",
	}, []string{"source", "status"})

	m.JobDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Wall time from processing start to terminal state.",
		Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300, 600},
	}, []string{"source", "status"})

	m.JobsRecovered = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_recovered_total",
		Help:      "Processing jobs failed by the startup recovery sweep.",
	})

	m.SlotWait = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "slot_wait_seconds",
		Help:      "Time spent waiting for the media processing slot.",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	m.SlotWaiters = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "slot_waiters",
		Help:      "Jobs currently queued for the media processing slot.",
	})

	m.FramesSampled = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_sampled_total",
		Help:      "Frames extracted from staged videos.",
	})

	m.FramesClassified = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_classified_total",
		Help:      "Frames classified, by whether they showed food.",
	}, []string{"food"})

	return m
}

// Handler serves the registry created by New, or the default gatherer.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) JobSubmitted(source string) {
	if m == nil {
		return
	}
	m.JobsSubmitted.WithLabelValues(source).Inc()
}

func (m *Metrics) JobFinished(source, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.JobsFinished.WithLabelValues(source, status).Inc()
	m.JobDuration.WithLabelValues(source, status).Observe(elapsed.Seconds())
}

func (m *Metrics) Recovered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.JobsRecovered.Add(float64(n))
}

func (m *Metrics) FrameSampled() {
	if m == nil {
		return
	}
	m.FramesSampled.Inc()
}

func (m *Metrics) FrameClassified(relevant bool) {
	if m == nil {
		return
	}
	m.FramesClassified.WithLabelValues(strconv.FormatBool(relevant)).Inc()
}

// SlotObserver reports slot waits and queue depth.
func (m *Metrics) SlotObserver() slot.Observer {
	if m == nil {
		return slot.Observer{}
	}
	return slot.Observer{
		Waited:  func(d time.Duration) { m.SlotWait.Observe(d.Seconds()) },
		Waiters: func(n int) { m.SlotWaiters.Set(float64(n)) },
	}
}
