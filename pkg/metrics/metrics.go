package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aircnc", Name: "http_requests_total", Help: "Handled HTTP requests by method, route and status code."},
		[]string{"method", "route", "code"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "aircnc", Name: "http_request_duration_seconds", Help: "HTTP request latency by method and route.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
	AuthRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aircnc", Name: "auth_rejected_total", Help: "Requests rejected by the access gate, by reason."},
		[]string{"reason"},
	)
	TokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "aircnc", Name: "tokens_issued_total", Help: "Access tokens issued by POST /jwt."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aircnc", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aircnc", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	PaymentIntents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aircnc", Name: "payment_intents_total", Help: "Payment intents requested from the processor, by outcome."},
		[]string{"outcome"},
	)
	BookingReservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aircnc", Name: "booking_reservations_total", Help: "Room reservations attempted during booking creation, by mode and outcome."},
		[]string{"mode", "outcome"},
	)
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "aircnc", Name: "events_published_total", Help: "Domain events handed to the publisher, by type and outcome."},
		[]string{"type", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequests,
		HTTPDuration,
		AuthRejected,
		TokensIssued,
		RateLimitAllowed,
		RateLimitRejected,
		PaymentIntents,
		BookingReservations,
		EventsPublished,
	)
}
