package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics lives on a private registry so tests can build any number of services.
type metrics struct {
	registry *prometheus.Registry

	bucketTotal    *prometheus.GaugeVec
	grandTotal     prometheus.Gauge
	historyEntries prometheus.Gauge
	polls          prometheus.Counter
	pollErrors     prometheus.Counter
	autoTransfers  prometheus.Counter
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &metrics{
		registry: reg,
		bucketTotal: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cashbox_bucket_total",
			Help: "Cash held per bucket, in the smallest currency unit",
		}, []string{"bucket"}),
		grandTotal: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashbox_grand_total",
			Help: "Cash held across both buckets",
		}),
		historyEntries: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashbox_history_entries",
			Help: "Number of recorded weekly-to-general transfers",
		}),
		polls: f.NewCounter(prometheus.CounterOpts{
			Name: "cashbox_daemon_polls_total",
			Help: "Ledger reloads performed by the daemon",
		}),
		pollErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "cashbox_daemon_poll_errors_total",
			Help: "Ledger reloads that failed to read the store",
		}),
		autoTransfers: f.NewCounter(prometheus.CounterOpts{
			Name: "cashbox_auto_transfers_total",
			Help: "Scheduled transfers that moved money and were saved",
		}),
	}
}

func (m *metrics) observe(snap Snapshot) {
	m.bucketTotal.WithLabelValues("general").Set(float64(snap.General))
	m.bucketTotal.WithLabelValues("weekly").Set(float64(snap.Weekly))
	m.grandTotal.Set(float64(snap.Grand))
	m.historyEntries.Set(float64(snap.HistoryLen))
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
