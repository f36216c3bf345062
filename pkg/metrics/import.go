package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics records outcomes of catalog import runs.
type ImportMetrics struct {
	rows     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewImportMetrics registers the import metrics on the provided registerer.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	if reg == nil {
		return &ImportMetrics{}
	}
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Processed import rows by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "import_duration_seconds",
		Help:    "Duration of import runs in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(rows, duration)
	return &ImportMetrics{rows: rows, duration: duration}
}

// IncRows adds processed rows under the given outcome label.
func (m *ImportMetrics) IncRows(outcome string, n int) {
	if m == nil || m.rows == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(normalizeLabel(outcome)).Add(float64(n))
}

// ObserveDuration records the duration of a full import run.
func (m *ImportMetrics) ObserveDuration(duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
