package staffing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/repository"
	"github.com/Domenick1991/vaxbooking/internal/statemachine"
	"github.com/google/uuid"
)

type StaffingUseCase interface {
	AssignStaff(ctx context.Context, input AssignStaffInput) (*domain.StaffAssignment, error)
	ListAssignments(ctx context.Context, bookingID uuid.UUID) ([]domain.StaffAssignment, error)
}

type Transitioner interface {
	Transition(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, trigger domain.Trigger, actor domain.Actor) (*domain.Booking, error)
}

type AssignStaffInput struct {
	BookingID    uuid.UUID
	Role         domain.Role
	StaffID      uuid.UUID
	AssignedDate time.Time
	Actor        domain.Actor
}

type StaffingService struct {
	bookings    repository.BookingRepository
	assignments repository.StaffAssignmentRepository
	machine     Transitioner
}

func NewStaffingService(
	bookings repository.BookingRepository,
	assignments repository.StaffAssignmentRepository,
	machine Transitioner,
) *StaffingService {
	return &StaffingService{bookings: bookings, assignments: assignments, machine: machine}
}

// AssignStaff claims one role slot on a checked-in booking. Re-assigning
// the same staff member to a slot they already hold is a no-op; a
// different staff member gets ErrAlreadyAssigned.
func (s *StaffingService) AssignStaff(ctx context.Context, input AssignStaffInput) (*domain.StaffAssignment, error) {
	if input.Role != domain.RoleDoctor && input.Role != domain.RoleNurse {
		return nil, fmt.Errorf("role %s cannot be assigned", input.Role)
	}
	if input.Actor.Role != input.Role {
		return nil, fmt.Errorf("%w: %s credential cannot claim the %s slot", domain.ErrForbidden, input.Actor.Role, input.Role)
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if _, err := statemachine.Next(booking.Status, domain.TriggerAssignStaff); err != nil {
		return nil, err
	}

	existing, err := s.assignments.GetActive(ctx, input.BookingID, input.Role)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.StaffID == input.StaffID {
			// Same staff, slot already held. If the booking never left
			// CHECKED_IN the claim's transition was lost; re-drive it so the
			// claim is not an orphan.
			if booking.Status == domain.BookingStatusCheckedIn {
				if _, err := s.machine.Transition(ctx, booking.ID, booking.Version, domain.TriggerAssignStaff, input.Actor); err != nil {
					return nil, err
				}
			}
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %s slot on booking %s is held by another staff member", domain.ErrAlreadyAssigned, input.Role, input.BookingID)
	}

	assignment := &domain.StaffAssignment{
		ID:           uuid.New(),
		BookingID:    input.BookingID,
		Role:         input.Role,
		StaffID:      input.StaffID,
		AssignedDate: input.AssignedDate,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, err
	}

	if _, err := s.machine.Transition(ctx, booking.ID, booking.Version, domain.TriggerAssignStaff, input.Actor); err != nil {
		// The claim only stands if the transition landed.
		if derr := s.assignments.Deactivate(ctx, assignment.ID); derr != nil {
			log.Printf("WARNING: failed to release assignment %s after transition error: %v", assignment.ID, derr)
		}
		return nil, err
	}

	return assignment, nil
}

func (s *StaffingService) ListAssignments(ctx context.Context, bookingID uuid.UUID) ([]domain.StaffAssignment, error) {
	return s.assignments.ListActive(ctx, bookingID)
}

var _ StaffingUseCase = (*StaffingService)(nil)
