// Package metrics exposes build and link-preview counters in the
// Prometheus text format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iedon/zine-go/data"
)

const namespace = "zine"

// Metrics owns a private registry so several instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	previews      *prometheus.CounterVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_total",
				Help:      "Builds run, by result.",
			},
			[]string{"result"},
		),
		buildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Wall time of a full build including cache export.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		previews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "url_previews_total",
				Help:      "Link previews resolved, by outcome.",
			},
			[]string{"result"},
		),
	}
	m.registry.MustRegister(
		m.builds,
		m.buildDuration,
		m.previews,
		collectors.NewGoCollector(),
	)
	return m
}

// TrackStore exports the number of cached previews held by s.
func (m *Metrics) TrackStore(s *data.Store) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_url_previews",
			Help:      "Entries in the url preview cache.",
		},
		func() float64 {
			var n int
			s.View(func(d *data.Data) { n = len(d.URLPreviews) })
			return float64(n)
		},
	))
}

// ObserveBuild records one build.
func (m *Metrics) ObserveBuild(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.builds.WithLabelValues(result).Inc()
	m.buildDuration.Observe(elapsed.Seconds())
}

// ObservePreview implements preview.Observer.
func (m *Metrics) ObservePreview(result string) {
	if m == nil {
		return
	}
	m.previews.WithLabelValues(result).Inc()
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
