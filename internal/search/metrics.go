package search

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records search outcomes. A nil *Metrics records nothing.
type Metrics struct {
	searches *prometheus.CounterVec
	pages    prometheus.Counter
	results  prometheus.Histogram
	duration prometheus.Histogram
}

// NewMetrics registers the search collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		searches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "iwash_search_total",
				Help: "Nearby searches by outcome",
			},
			[]string{"outcome"},
		),
		pages: f.NewCounter(prometheus.CounterOpts{
			Name: "iwash_search_pages_total",
			Help: "Result pages fetched from the places service",
		}),
		results: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "iwash_search_results",
			Help:    "Places returned per successful search",
			Buckets: []float64{0, 1, 5, 10, 20, 40, 60},
		}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "iwash_search_duration_seconds",
			Help:    "Wall time of nearby searches including token delays",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) pageFetched() {
	if m == nil {
		return
	}
	m.pages.Inc()
}

func (m *Metrics) observe(err error, results int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(Outcome(err)).Inc()
	m.duration.Observe(elapsed.Seconds())
	if err == nil {
		m.results.Observe(float64(results))
	}
}
