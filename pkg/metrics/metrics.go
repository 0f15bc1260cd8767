// Package metrics records merge pass statistics for Prometheus. The job is a
// short-lived batch process, so metrics are written to a node_exporter
// textfile at the end of the pass rather than served over HTTP.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ekaya-inc/author-merge/pkg/models"
)

// Recorder owns a private registry holding the pass metrics.
type Recorder struct {
	registry *prometheus.Registry

	KeysComputed          prometheus.Counter
	DuplicateGroups       prometheus.Gauge
	AuthorsDeleted        prometheus.Counter
	DependenciesRewritten prometheus.Counter
	DependenciesDropped   prometheus.Counter
	PassDuration          prometheus.Histogram
	LastSuccess           prometheus.Gauge
}

// New creates a Recorder. store is attached to every series as a constant label.
func New(store string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"store": store}

	return &Recorder{
		registry: reg,
		KeysComputed: factory.NewCounter(prometheus.CounterOpts{
			Name:        "author_merge_keys_computed_total",
			Help:        "Comparison keys written during the pass",
			ConstLabels: labels,
		}),
		DuplicateGroups: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "author_merge_duplicate_groups",
			Help:        "Duplicate author groups found by the last pass",
			ConstLabels: labels,
		}),
		AuthorsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name:        "author_merge_authors_deleted_total",
			Help:        "Duplicate author records deleted",
			ConstLabels: labels,
		}),
		DependenciesRewritten: factory.NewCounter(prometheus.CounterOpts{
			Name:        "author_merge_dependencies_rewritten_total",
			Help:        "Dependency rows moved to a canonical author",
			ConstLabels: labels,
		}),
		DependenciesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name:        "author_merge_dependencies_dropped_total",
			Help:        "Dependency rows dropped because the canonical author already had the relationship",
			ConstLabels: labels,
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "author_merge_pass_duration_seconds",
			Help:        "Wall-clock duration of a merge pass",
			ConstLabels: labels,
			Buckets:     []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "author_merge_last_success_timestamp_seconds",
			Help:        "Unix time at which the last pass finished successfully",
			ConstLabels: labels,
		}),
	}
}

// Observe records a finished pass.
func (r *Recorder) Observe(stats *models.MergeStats) {
	if stats == nil {
		return
	}
	r.KeysComputed.Add(float64(stats.KeysComputed))
	r.DuplicateGroups.Set(float64(stats.DuplicateGroups))
	r.AuthorsDeleted.Add(float64(stats.AuthorsDeleted))
	r.DependenciesRewritten.Add(float64(stats.DependenciesRewritten))
	r.DependenciesDropped.Add(float64(stats.DependenciesDropped))
	r.PassDuration.Observe(stats.Duration().Seconds())
	if !stats.FinishedAt.IsZero() {
		r.LastSuccess.Set(float64(stats.FinishedAt.Unix()))
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every metric in the text exposition format. The file
// is written atomically so node_exporter never reads a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
