// Package metrics exposes Prometheus metrics for ladder computation.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjannette/trahn-ladder/internal/strategy"
)

const namespace = "trahn_ladder"

// Build outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidConfig = "invalid_config"
	OutcomeZeroLot       = "zero_lot"
	OutcomeError         = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	LaddersBuilt     *prometheus.CounterVec
	LevelsEmitted    *prometheus.CounterVec
	BuildDuration    prometheus.Histogram
	PriceFetchErrors *prometheus.CounterVec
	LastPrice        prometheus.Gauge
}

// New creates a metrics set on its own registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		LaddersBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ladders_built_total",
			Help:      "Ladder computations by outcome.",
		}, []string{"outcome"}),
		LevelsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "levels_emitted_total",
			Help:      "Ladder levels produced by spacing class.",
		}, []string{"class"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building one ladder.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}),
		PriceFetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fetch_errors_total",
			Help:      "Failed price lookups by source.",
		}, []string{"source"}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_price",
			Help:      "Most recent reference price fetched.",
		}),
	}
	reg.MustRegister(
		m.LaddersBuilt, m.LevelsEmitted, m.BuildDuration, m.PriceFetchErrors, m.LastPrice,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Outcome classifies a BuildLadder error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, strategy.ErrInvalidConfiguration):
		return OutcomeInvalidConfig
	case errors.Is(err, strategy.ErrZeroLot):
		return OutcomeZeroLot
	}
	return OutcomeError
}

// BuildLadder runs strategy.BuildLadder and records its outcome, duration
// and per-class level counts. A nil receiver just builds.
func (m *Metrics) BuildLadder(p strategy.LadderParams) ([]strategy.GridLevel, error) {
	if m == nil {
		return strategy.BuildLadder(p)
	}
	start := time.Now()
	levels, err := strategy.BuildLadder(p)
	m.BuildDuration.Observe(time.Since(start).Seconds())
	m.LaddersBuilt.WithLabelValues(Outcome(err)).Inc()
	for _, l := range levels {
		m.LevelsEmitted.WithLabelValues(l.Class.String()).Inc()
	}
	return levels, err
}

func (m *Metrics) ObservePrice(source string, price float64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PriceFetchErrors.WithLabelValues(source).Inc()
		return
	}
	m.LastPrice.Set(price)
}
