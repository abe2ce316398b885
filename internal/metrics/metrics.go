// Package metrics registers the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Registrations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitecommerce_registrations_total",
			Help: "Total number of registered accounts",
		},
	)

	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitecommerce_logins_total",
			Help: "Login attempts by result",
		},
		[]string{"result"}, // "success", "failure"
	)

	OTPIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vitecommerce_otp_issued_total",
			Help: "Total number of OTP codes issued",
		},
	)

	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitecommerce_otp_verifications_total",
			Help: "OTP verification attempts by result",
		},
		[]string{"result"},
	)

	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitecommerce_cart_mutations_total",
			Help: "Cart mutations by operation",
		},
		[]string{"operation"}, // "upsert", "update", "remove", "clear"
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitecommerce_emails_total",
			Help: "Outgoing emails by result",
		},
		[]string{"result"}, // "sent", "failed", "rejected"
	)
)
