// Package metrics exposes settlement counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the settlement collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	settlements   *prometheus.CounterVec
	rounds        prometheus.Histogram
	duration      prometheus.Histogram
	removedOffers prometheus.Counter
	journalErrors prometheus.Counter
	feedClients   prometheus.Gauge
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ripplecalc_settlements_total",
			Help: "Settlements by result code and whether they were committed.",
		}, []string{"result", "committed"}),
		rounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ripplecalc_settlement_rounds",
			Help:    "Rounds used by a payment computation.",
			Buckets: []float64{1, 2, 4, 8, 16, 64, 256, 1024, 2000},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ripplecalc_settlement_duration_seconds",
			Help:    "Wall time of a settlement, including the ledger commit.",
			Buckets: prometheus.DefBuckets,
		}),
		removedOffers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripplecalc_removed_offers_total",
			Help: "Offers removed as unfunded, expired or consumed.",
		}),
		journalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripplecalc_journal_errors_total",
			Help: "Settlements that could not be journaled.",
		}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ripplecalc_feed_clients",
			Help: "Connected settlement feed subscribers.",
		}),
	}
	m.registry.MustRegister(
		m.settlements, m.rounds, m.duration, m.removedOffers, m.journalErrors, m.feedClients,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSettlement records one settlement.
func (m *Metrics) ObserveSettlement(result string, committed bool, rounds, removed int, elapsed time.Duration) {
	if m == nil {
		return
	}
	c := "false"
	if committed {
		c = "true"
	}
	m.settlements.WithLabelValues(result, c).Inc()
	m.rounds.Observe(float64(rounds))
	m.duration.Observe(elapsed.Seconds())
	m.removedOffers.Add(float64(removed))
}

func (m *Metrics) JournalError() {
	if m == nil {
		return
	}
	m.journalErrors.Inc()
}

// FeedClients sets the subscriber gauge.
func (m *Metrics) FeedClients(n int) {
	if m == nil {
		return
	}
	m.feedClients.Set(float64(n))
}
