// Package metrics exposes Prometheus counters for project operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the project-domain Prometheus metrics.
type Metrics struct {
	ProjectsCreated    prometheus.Counter
	ProjectsShared     prometheus.Counter
	OwnershipTransfers prometheus.Counter
	AccessDenied       *prometheus.CounterVec
}

// New creates and registers the project metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		ProjectsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_projects_created_total",
			Help: "Total number of projects created",
		}),
		ProjectsShared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_projects_shared_total",
			Help: "Total number of share grants applied to projects",
		}),
		OwnershipTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_project_ownership_transfers_total",
			Help: "Total number of project ownership transfers",
		}),
		AccessDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_project_access_denied_total",
			Help: "Authorization denials by requested capability",
		}, []string{"capability"}),
	}
}
