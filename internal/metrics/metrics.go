package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ExportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exports_generated_total",
			Help: "Number of export documents generated, by kind",
		},
		[]string{"kind"},
	)

	ExportFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "export_failures_total",
			Help: "Number of export requests that ended in an error",
		},
	)

	ExportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "export_duration_seconds",
			Help: "Time taken to compose and render an export document",
		},
	)

	StaleDetailDrops = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stale_detail_drops_total",
			Help: "Number of detail responses discarded as stale",
		},
	)
)

func Register() {
	prometheus.MustRegister(ExportsGenerated, ExportFailures, ExportDuration, StaleDetailDrops)
}
