package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Page outcomes used as the "result" label.
const (
	ResultCompleted = "completed"
	ResultFailed    = "failed"
	ResultCancelled = "cancelled"
)

var (
	once sync.Once

	// PagesTotal counts finished page streams by media type and outcome.
	PagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pagegen",
		Subsystem: "http",
		Name:      "pages_total",
		Help:      "Total number of generated pages, labeled by media type and result.",
	}, []string{"media", "result"})

	// RejectedTotal counts requests turned away by content negotiation.
	RejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pagegen",
		Subsystem: "http",
		Name:      "rejected_total",
		Help:      "Total number of requests rejected with an unsupported media type.",
	})

	ChunksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pagegen",
		Subsystem: "http",
		Name:      "chunks_total",
		Help:      "Total number of model text chunks relayed to clients.",
	})

	PagesInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pagegen",
		Subsystem: "http",
		Name:      "pages_in_flight",
		Help:      "Current number of page streams being relayed.",
	})

	// PageDurationSeconds is time from model call to end of stream.
	PageDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pagegen",
		Subsystem: "http",
		Name:      "page_duration_seconds",
		Help:      "Time from the model call until the page stream ended.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
	}, []string{"media", "result"})
)

// Register registers page metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			PagesTotal,
			RejectedTotal,
			ChunksTotal,
			PagesInFlight,
			PageDurationSeconds,
		)
	})
}
