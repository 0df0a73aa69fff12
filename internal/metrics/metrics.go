package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaxbooking_booking_transitions_total",
		Help: "Booking state transitions by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	PaymentConfirmationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaxbooking_payment_confirmations_total",
		Help: "Payment confirmations applied to a booking.",
	})

	ReconciliationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaxbooking_payment_reconciliation_failures_total",
		Help: "Confirmed payments that exhausted the transition retry budget.",
	})

	IntentsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaxbooking_payment_intents_expired_total",
		Help: "Payment intents expired by the sweep.",
	})
)
