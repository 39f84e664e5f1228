// Package metrics exposes Prometheus counters for account and session
// activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the account-level Prometheus metrics.
type Metrics struct {
	UsersCreated prometheus.Counter
	Logins       prometheus.Counter
	LoginFailed  prometheus.Counter
	Logouts      prometheus.Counter
}

// New creates and registers the metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_users_created_total",
			Help: "Total number of user accounts created",
		}),
		Logins: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_logins_total",
			Help: "Total number of successful logins",
		}),
		LoginFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		Logouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_logouts_total",
			Help: "Total number of logouts",
		}),
	}
}
