package domain

import (
	"time"

	"github.com/google/uuid"
)

type LineItemKind string

const (
	LineItemVaccine LineItemKind = "VACCINE"
	LineItemCombo   LineItemKind = "COMBO"
)

// LineItem snapshots the catalog price at order creation time, so total
// computation stays deterministic regardless of later catalog changes.
type LineItem struct {
	ID        uuid.UUID
	Kind      LineItemKind
	RefID     uuid.UUID
	Name      string
	Quantity  int
	UnitPrice int64 // minor currency units
	SaleOff   int   // percent discount, combos only
}

type Order struct {
	ID        uuid.UUID
	BookingID uuid.UUID // set at creation, immutable
	LineItems []LineItem
	Total     int64
	CreatedAt time.Time
}

type IntentStatus string

const (
	IntentStatusCreated   IntentStatus = "CREATED"
	IntentStatusConfirmed IntentStatus = "CONFIRMED"
	IntentStatusFailed    IntentStatus = "FAILED"
	IntentStatusExpired   IntentStatus = "EXPIRED"
)

type PaymentIntent struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Amount         int64
	IdempotencyKey string
	Status         IntentStatus
	ConfirmationID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
