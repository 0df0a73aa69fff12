package kafka

import "time"

const (
	EventBookingCreated        = "booking_created"
	EventBookingCancelled      = "booking_cancelled"
	EventBookingTransitioned   = "booking_transitioned"
	EventPaymentIntentCreated  = "payment_intent_created"
	EventPaymentConfirmed      = "payment_confirmed"
	EventReconciliationFailed  = "payment_reconciliation_failed"
)

// BookingEvent is the JSON payload published for every lifecycle change.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Trigger    string    `json:"trigger,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
