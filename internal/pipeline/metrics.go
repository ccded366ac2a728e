package pipeline

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline activity in its own Prometheus registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry  *prometheus.Registry
	documents *prometheus.CounterVec
	tables    prometheus.Counter
	rows      prometheus.Counter
	issues    prometheus.Counter
	fetch     prometheus.Histogram
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "documents_total",
			Help:      "Documents processed, by kind and status.",
		}, []string{"kind", "status"}),
		tables: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "tables_total",
			Help:      "Tables extracted after cleaning.",
		}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "rows_total",
			Help:      "Data rows kept after cleaning.",
		}),
		issues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "docsift",
			Name:      "validation_issues_total",
			Help:      "Schema validation errors.",
		}),
		fetch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "docsift",
			Name:      "fetch_duration_seconds",
			Help:      "Document fetch latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.documents, m.tables, m.rows, m.issues, m.fetch)
	return m
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observe(r Result) {
	if m == nil {
		return
	}
	kind := string(r.Kind)
	if kind == "" {
		kind = "unknown"
	}
	m.documents.WithLabelValues(kind, r.Status()).Inc()
	m.tables.Add(float64(len(r.Tables)))
	m.rows.Add(float64(r.Rows()))
	m.issues.Add(float64(len(r.Validation)))
	m.fetch.Observe(r.FetchDuration.Seconds())
}

// WriteTextfile writes the metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
