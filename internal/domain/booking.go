package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending         BookingStatus = "PENDING"
	BookingStatusPaid            BookingStatus = "PAID"
	BookingStatusCheckedIn       BookingStatus = "CHECKED_IN"
	BookingStatusAssigned        BookingStatus = "ASSIGNED"
	BookingStatusDiagnosed       BookingStatus = "DIAGNOSED"
	BookingStatusVaccineInjected BookingStatus = "VACCINE_INJECTED"
	BookingStatusCompleted       BookingStatus = "COMPLETED"
	BookingStatusCancelled       BookingStatus = "CANCELLED"
)

type Role string

const (
	RoleSystem   Role = "SYSTEM"
	RoleCustomer Role = "CUSTOMER"
	RoleDoctor   Role = "DOCTOR"
	RoleNurse    Role = "NURSE"
)

// Trigger is a named request to move a booking along its lifecycle.
// Components request a trigger, never a target status.
type Trigger string

const (
	TriggerPaymentConfirmed Trigger = "PAYMENT_CONFIRMED"
	TriggerCheckIn          Trigger = "CHECK_IN"
	TriggerAssignStaff      Trigger = "ASSIGN_STAFF"
	TriggerSubmitDiagnosis  Trigger = "SUBMIT_DIAGNOSIS"
	TriggerRecordInjection  Trigger = "RECORD_INJECTION"
	TriggerComplete         Trigger = "COMPLETE"
	TriggerCancel           Trigger = "CANCEL"
)

// Actor is the pre-authenticated identity attached to every call.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

var SystemActor = Actor{ID: uuid.Nil, Role: RoleSystem}

type Booking struct {
	ID              uuid.UUID
	ChildID         uuid.UUID
	AppointmentDate time.Time
	AppointmentTime string
	Status          BookingStatus
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
