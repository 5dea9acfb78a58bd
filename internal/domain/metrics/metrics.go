// Package metrics holds the Prometheus instruments for domain provisioning.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the provisioning instruments.
type Metrics struct {
	Provisioned     prometheus.Counter
	Failures        *prometheus.CounterVec
	Compensations   prometheus.Counter
	Deprovisioned   prometheus.Counter
	ProvisionTiming prometheus.Histogram
}

// New registers and returns the provisioning metrics.
func New() *Metrics {
	return &Metrics{
		Provisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mngkeeper_domains_provisioned_total",
			Help: "Domains provisioned successfully",
		}),
		Failures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mngkeeper_domain_provisioning_failures_total",
			Help: "Provisioning failures by step",
		}, []string{"step"}),
		Compensations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mngkeeper_domain_compensations_total",
			Help: "Compensation runs after a failed provisioning",
		}),
		Deprovisioned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mngkeeper_domains_deprovisioned_total",
			Help: "Domains deprovisioned",
		}),
		ProvisionTiming: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mngkeeper_domain_provisioning_duration_seconds",
			Help:    "End-to-end duration of domain provisioning",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
