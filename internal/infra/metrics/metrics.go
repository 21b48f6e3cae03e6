// Package metrics exposes account security counters to Prometheus.
package metrics

import (
	"net/http"

	"rachel/internal/domain/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rachel"

// NewRegistry creates the registry the service exports, with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

type accountMetrics struct {
	registrations  *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	loginSuccesses prometheus.Counter
	loginFailures  prometheus.Counter
	lockouts       prometheus.Counter
	resetRequests  *prometheus.CounterVec
	resetCompleted *prometheus.CounterVec
}

// NewAccountMetrics registers the account counters on reg.
func NewAccountMetrics(reg *prometheus.Registry) service.AccountMetrics {
	factory := promauto.With(reg)

	return &accountMetrics{
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Successful registrations by role",
		}, []string{"role"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_rejections_total",
			Help:      "Rejected registrations by role and reason",
		}, []string{"role", "reason"}),
		loginSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_successes_total",
			Help:      "Successful logins",
		}),
		loginFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Failed login attempts recorded in the attempt ledger",
		}),
		lockouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lockouts_total",
			Help:      "Lockouts triggered by repeated failures from one source address",
		}),
		resetRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_requests_total",
			Help:      "Password reset requests by outcome",
		}, []string{"outcome"}),
		resetCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_completions_total",
			Help:      "Password reset completions by outcome",
		}, []string{"outcome"}),
	}
}

func (m *accountMetrics) RegistrationSucceeded(role string) {
	m.registrations.WithLabelValues(role).Inc()
}

func (m *accountMetrics) RegistrationRejected(role, reason string) {
	m.rejections.WithLabelValues(role, reason).Inc()
}

func (m *accountMetrics) LoginSucceeded() { m.loginSuccesses.Inc() }

func (m *accountMetrics) LoginFailed() { m.loginFailures.Inc() }

func (m *accountMetrics) LockoutTriggered() { m.lockouts.Inc() }

func (m *accountMetrics) ResetRequested(outcome string) {
	m.resetRequests.WithLabelValues(outcome).Inc()
}

func (m *accountMetrics) ResetCompleted(outcome string) {
	m.resetCompleted.WithLabelValues(outcome).Inc()
}
