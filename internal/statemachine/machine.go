// Package statemachine is the single authority over booking status. Every
// component that needs to move a booking calls Transition; nothing else is
// allowed to write the status column.
package statemachine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/kafka"
	"github.com/Domenick1991/vaxbooking/internal/metrics"
	"github.com/Domenick1991/vaxbooking/internal/repository"
	"github.com/google/uuid"
)

// guardTable enumerates every legal (status, trigger) edge. CANCELLED is
// reachable only before clinical work starts; AssignStaff re-enters
// ASSIGNED so the second role can be attached without a new state.
var guardTable = map[domain.BookingStatus]map[domain.Trigger]domain.BookingStatus{
	domain.BookingStatusPending: {
		domain.TriggerPaymentConfirmed: domain.BookingStatusPaid,
		domain.TriggerCancel:           domain.BookingStatusCancelled,
	},
	domain.BookingStatusPaid: {
		domain.TriggerCheckIn: domain.BookingStatusCheckedIn,
		domain.TriggerCancel:  domain.BookingStatusCancelled,
	},
	domain.BookingStatusCheckedIn: {
		domain.TriggerAssignStaff: domain.BookingStatusAssigned,
		domain.TriggerCancel:      domain.BookingStatusCancelled,
	},
	domain.BookingStatusAssigned: {
		domain.TriggerAssignStaff:     domain.BookingStatusAssigned,
		domain.TriggerSubmitDiagnosis: domain.BookingStatusDiagnosed,
	},
	domain.BookingStatusDiagnosed: {
		domain.TriggerRecordInjection: domain.BookingStatusVaccineInjected,
	},
	domain.BookingStatusVaccineInjected: {
		domain.TriggerComplete: domain.BookingStatusCompleted,
	},
}

var allowedRoles = map[domain.Trigger][]domain.Role{
	domain.TriggerPaymentConfirmed: {domain.RoleSystem},
	domain.TriggerCheckIn:          {domain.RoleCustomer, domain.RoleSystem},
	domain.TriggerAssignStaff:      {domain.RoleDoctor, domain.RoleNurse},
	domain.TriggerSubmitDiagnosis:  {domain.RoleDoctor},
	domain.TriggerRecordInjection:  {domain.RoleNurse},
	domain.TriggerComplete:         {domain.RoleSystem},
	domain.TriggerCancel:           {domain.RoleCustomer, domain.RoleSystem},
}

// Next resolves the guard table for one edge without touching storage.
func Next(current domain.BookingStatus, trigger domain.Trigger) (domain.BookingStatus, error) {
	edges, ok := guardTable[current]
	if !ok {
		return "", fmt.Errorf("%w: no edges from %s", domain.ErrInvalidTransition, current)
	}
	next, ok := edges[trigger]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, trigger, current)
	}
	return next, nil
}

func roleAllowed(trigger domain.Trigger, role domain.Role) bool {
	for _, r := range allowedRoles[trigger] {
		if r == role {
			return true
		}
	}
	return false
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Machine struct {
	bookings repository.BookingRepository
	producer Producer
	topic    string
}

func NewMachine(bookings repository.BookingRepository, producer Producer, topic string) *Machine {
	return &Machine{bookings: bookings, producer: producer, topic: topic}
}

// Transition validates the trigger against the current status, the caller's
// role and the expected version, then applies the new status and the
// version bump in one compare-and-swap write.
func (m *Machine) Transition(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, trigger domain.Trigger, actor domain.Actor) (*domain.Booking, error) {
	current, err := m.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !roleAllowed(trigger, actor.Role) {
		metrics.TransitionsTotal.WithLabelValues(string(trigger), "forbidden").Inc()
		return nil, fmt.Errorf("%w: role %s may not request %s", domain.ErrForbidden, actor.Role, trigger)
	}

	if current.Version != expectedVersion {
		metrics.TransitionsTotal.WithLabelValues(string(trigger), "stale").Inc()
		return nil, fmt.Errorf("%w: have %d, expected %d", domain.ErrStaleVersion, current.Version, expectedVersion)
	}

	next, err := Next(current.Status, trigger)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(trigger), "invalid").Inc()
		return nil, err
	}

	updated, err := m.bookings.UpdateStatusVersioned(ctx, bookingID, expectedVersion, next)
	if err != nil {
		metrics.TransitionsTotal.WithLabelValues(string(trigger), "stale").Inc()
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(trigger), "applied").Inc()
	m.emit(ctx, current.Status, updated, trigger)
	return updated, nil
}

func (m *Machine) emit(ctx context.Context, from domain.BookingStatus, booking *domain.Booking, trigger domain.Trigger) {
	if m.producer == nil || m.topic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       kafka.EventBookingTransitioned,
		BookingID:  booking.ID.String(),
		From:       string(from),
		To:         string(booking.Status),
		Trigger:    string(trigger),
		OccurredAt: time.Now().UTC(),
	}
	if err := m.producer.Publish(ctx, m.topic, booking.ID.String(), event); err != nil {
		log.Printf("WARNING: failed to publish transition event for booking %s: %v", booking.ID, err)
	}
}
