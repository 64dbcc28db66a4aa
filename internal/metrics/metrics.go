// Package metrics collects approval-workflow counters on a private
// prometheus registry. Serving the registry is left to the embedding layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the approval workflow metrics.
type Collector struct {
	registry          *prometheus.Registry
	submissions       prometheus.Counter
	approvals         prometheus.Counter
	rejections        prometheus.Counter
	conflicts         *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		submissions: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "plan_approvals_submissions_total",
			Help: "Total number of drafts submitted for approval",
		}),
		approvals: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "plan_approvals_approved_total",
			Help: "Total number of drafts fully approved and published",
		}),
		rejections: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "plan_approvals_rejected_total",
			Help: "Total number of drafts rejected by an approver",
		}),
		conflicts: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "plan_approvals_version_conflicts_total",
			Help: "Total number of version conflicts detected at approval time",
		}, []string{"conflict_type"}),
		operationDuration: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plan_approvals_operation_duration_seconds",
			Help:    "Duration of orchestrator operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// RecordSubmission increments the submission counter.
func (c *Collector) RecordSubmission() { c.submissions.Inc() }

// RecordApproval increments the approvals counter.
func (c *Collector) RecordApproval() { c.approvals.Inc() }

// RecordRejection increments the rejections counter.
func (c *Collector) RecordRejection() { c.rejections.Inc() }

// RecordConflict increments the conflict counter for a conflict type.
func (c *Collector) RecordConflict(conflictType string) {
	c.conflicts.WithLabelValues(conflictType).Inc()
}

// ObserveOperation records the duration of a named orchestrator operation.
func (c *Collector) ObserveOperation(operation string, d time.Duration) {
	c.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler returns an HTTP handler serving the private registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
