package domain

import (
	"time"

	"github.com/google/uuid"
)

// StaffAssignment is a role-scoped claim on a booking. At most one active
// assignment exists per (booking, role).
type StaffAssignment struct {
	ID           uuid.UUID
	BookingID    uuid.UUID
	Role         Role
	StaffID      uuid.UUID
	AssignedDate time.Time
	Active       bool
	CreatedAt    time.Time
}
