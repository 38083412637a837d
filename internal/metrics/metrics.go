// internal/metrics/metrics.go
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every gradebook collector. The shell has no HTTP listener,
// so metrics are dumped to a node_exporter textfile instead of scraped.
var Registry = prometheus.NewRegistry()

var (
	MutationsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebook_mutations_total",
			Help: "Total number of successful store mutations",
		},
		[]string{"entity", "op"},
	)

	ValidationFailuresTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebook_validation_failures_total",
			Help: "Rejected inputs by error kind",
		},
		[]string{"kind"},
	)

	ExportsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebook_exports_total",
			Help: "Total number of CSV exports",
		},
		[]string{"kind"},
	)

	ExportedRows = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebook_exported_rows_total",
			Help: "Data rows written to CSV exports",
		},
		[]string{"kind"},
	)

	GradeScoreHistogram = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gradebook_grade_score",
			Help:    "Distribution of submitted raw scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"class_id"},
	)
)

func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
