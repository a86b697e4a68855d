package reconciler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentstation/fedtrack/pkg/errors"
)

// Metrics are the counters of one run. Each run registers its own
// collectors, so runs in the same process do not share totals.
type Metrics struct {
	registry *prometheus.Registry

	files        *prometheus.CounterVec
	rows         *prometheus.CounterVec
	accepted     *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	malformed    *prometheus.CounterVec
	redacted     *prometheus.CounterVec
	unresolved   prometheus.Counter
	artifacts    prometheus.Counter
	fileDuration *prometheus.HistogramVec
}

// NewMetrics creates a registry and the run's collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fedtrack_source_files_total",
			Help: "Source files ingested, labelled by generation and layout.",
		}, []string{"generation", "layout"}),
		rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fedtrack_rows_read_total",
			Help: "Data rows read from source files.",
		}, []string{"generation"}),
		accepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fedtrack_events_accepted_total",
			Help: "Events accepted into the accumulator.",
		}, []string{"generation"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fedtrack_events_rejected_total",
			Help: "Events rejected by window routing, labelled by reason.",
		}, []string{"generation", "reason"}),
		malformed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fedtrack_rows_malformed_total",
			Help: "Rows skipped as malformed, labelled by reason.",
		}, []string{"generation", "reason"}),
		redacted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fedtrack_redacted_values_total",
			Help: "Values excluded as redacted, labelled by metric.",
		}, []string{"metric"}),
		unresolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedtrack_unresolved_events_total",
			Help: "Events whose sub-entity is missing from the crosswalk.",
		}),
		artifacts: factory.NewCounter(prometheus.CounterOpts{
			Name: "fedtrack_artifacts_written_total",
			Help: "Artifacts committed to the output directory.",
		}),
		fileDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fedtrack_source_file_duration_seconds",
			Help:    "Time spent reading one source file.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"generation"}),
	}
}

// Registry returns the run's registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeFile(r FileReport, d time.Duration) {
	m.files.WithLabelValues(r.Generation, r.Layout).Inc()
	m.rows.WithLabelValues(r.Generation).Add(float64(r.Rows))
	m.accepted.WithLabelValues(r.Generation).Add(float64(r.Accepted))
	for reason, n := range r.Rejected {
		m.rejected.WithLabelValues(r.Generation, reason).Add(float64(n))
	}
	for reason, n := range r.Malformed {
		m.malformed.WithLabelValues(r.Generation, reason).Add(float64(n))
	}
	m.redacted.WithLabelValues("salary").Add(float64(r.RedactedSalary))
	m.redacted.WithLabelValues("service").Add(float64(r.RedactedService))
	m.redacted.WithLabelValues("dimension").Add(float64(r.RedactedTags))
	m.fileDuration.WithLabelValues(r.Generation).Observe(d.Seconds())
}

// ArtifactWritten counts one committed artifact.
func (m *Metrics) ArtifactWritten() {
	m.artifacts.Inc()
}

// WriteTextfile writes the registry in the text exposition format, for
// pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
