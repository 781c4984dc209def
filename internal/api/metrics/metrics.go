// Package metrics defines and registers all custom Prometheus metrics for
// the account service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at package load;
// the /metrics endpoint is mounted by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// RegistrationsTotal counts registration attempts.
// Label:
//   - result: "ok", "error", or "provisioning_failed"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// LoginsTotal counts credential exchanges with the identity provider.
// Label:
//   - result: "ok", "invalid_credentials", or "provider_error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenVerificationsTotal counts bearer-token introspections.
// Label:
//   - result: "ok", "rejected", or "error"
var TokenVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_verifications_total",
		Help:      "Total number of bearer token introspections, by result.",
	},
	[]string{"result"},
)

// PasswordResetsTotal counts password-reset state transitions.
// Label:
//   - stage: "requested", "completed", or "rejected"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset flow transitions, by stage.",
	},
	[]string{"stage"},
)

// ProviderRequestDuration measures outbound identity-provider call latency.
// Label:
//   - operation: "verify_token", "exchange_password", "provision_account", or "ping"
var ProviderRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_request_duration_seconds",
		Help:      "Duration of outbound identity provider requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// AuditQueueDepth tracks pending audit events per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
