// Package metricsvc exports archival metrics to Prometheus.
package metricsvc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/registro/core/archiving"
)

const namespace = "registro"

// ArchiveRecorder counts archival operations & the records they archived.
type ArchiveRecorder struct {
	operations *prometheus.CounterVec
	records    *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ archiving.Recorder = (*ArchiveRecorder)(nil) // interface compliance check

// NewArchiveRecorder registers the archival collectors on `reg`.
func NewArchiveRecorder(reg prometheus.Registerer) (*ArchiveRecorder, error) {
	r := &ArchiveRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_operations_total",
			Help:      "Archival operations by operation and status.",
		}, []string{"operation", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archived_records_total",
			Help:      "Records archived by committed operations, by kind.",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "archive_duration_seconds",
			Help:      "Time to run an archival operation.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.records, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *ArchiveRecorder) ObserveArchival(op string, rep archiving.Report, err error, elapsed time.Duration) {
	status := "ok"
	switch {
	case err == nil:
	case archiving.IsNotFound(err):
		status = "not_found"
	case archiving.IsTxError(err):
		status = "tx_error"
	default:
		status = "error"
	}
	r.operations.WithLabelValues(op, status).Inc()
	r.duration.WithLabelValues(op).Observe(elapsed.Seconds())

	if err == nil {
		r.records.WithLabelValues("group").Add(float64(rep.Groups))
		r.records.WithLabelValues("student").Add(float64(rep.Students))
		r.records.WithLabelValues("grade").Add(float64(rep.Grades))
	}
}
