// Package telemetry exposes training and prediction measurements of
// boosters as prometheus metrics.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

const objectiveLabel = "objective"

// Metrics owns a private registry and the booster metrics registered in it.
// It implements gbdt.MetricsRecorder.
type Metrics struct {
	registry *prometheus.Registry

	RoundsTotal        *prometheus.CounterVec
	RoundDuration      *prometheus.HistogramVec
	TrainingLoss       *prometheus.GaugeVec
	TreesTotal         *prometheus.CounterVec
	PredictedRowsTotal *prometheus.CounterVec
}

var _ gbdt.MetricsRecorder = (*Metrics)(nil)

// NewMetrics registers the booster metrics plus the Go runtime and process
// collectors under namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}
	labels := []string{objectiveLabel}

	m.RoundsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "boosting_rounds_total",
		Help:      "Total number of finished boosting rounds",
	}, labels)

	m.RoundDuration = m.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "boosting_round_duration_seconds",
		Help:      "Time spent on one boosting round",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, labels)

	m.TrainingLoss = m.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "training_loss",
		Help:      "Mean training loss after the latest round",
	}, labels)

	m.TreesTotal = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "trees_built_total",
		Help:      "Total number of trees added to ensembles",
	}, labels)

	m.PredictedRowsTotal = m.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predicted_rows_total",
		Help:      "Total number of rows scored",
	}, labels)

	log.GetLoggerWithName("telemetry").Debug("Metrics registry initialized", "namespace", namespace)
	return m
}

// NewCounterVec creates and registers a counter.
func (m *Metrics) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec creates and registers a gauge.
func (m *Metrics) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec creates and registers a histogram.
func (m *Metrics) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRound(objective string, duration time.Duration, loss float64) {
	m.RoundsTotal.WithLabelValues(objective).Inc()
	m.RoundDuration.WithLabelValues(objective).Observe(duration.Seconds())
	m.TrainingLoss.WithLabelValues(objective).Set(loss)
}

func (m *Metrics) AddTrees(objective string, n int) {
	m.TreesTotal.WithLabelValues(objective).Add(float64(n))
}

func (m *Metrics) AddPredictions(objective string, rows int) {
	m.PredictedRowsTotal.WithLabelValues(objective).Add(float64(rows))
}

// Handler returns the HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Expose serves /metrics on addr in a background goroutine. The returned
// function shuts the server down.
func (m *Metrics) Expose(addr string) func() {
	logger := log.GetLoggerWithName("telemetry")
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", err, "addr", addr)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown failed", err)
		}
	}
}
