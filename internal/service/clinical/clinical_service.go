package clinical

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/Domenick1991/vaxbooking/internal/repository"
	"github.com/google/uuid"
)

type ClinicalUseCase interface {
	SubmitDiagnosis(ctx context.Context, input SubmitDiagnosisInput) (*domain.DiagnosisRecord, error)
	RecordInjection(ctx context.Context, input RecordInjectionInput) (*domain.Booking, error)
}

type Transitioner interface {
	Transition(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, trigger domain.Trigger, actor domain.Actor) (*domain.Booking, error)
}

type DiagnosisItemInput struct {
	LineItemID uuid.UUID              `json:"line_item_id"`
	Result     domain.DiagnosisResult `json:"result"`
	Note       string                 `json:"note"`
}

type SubmitDiagnosisInput struct {
	BookingID uuid.UUID
	DoctorID  uuid.UUID
	Items     []DiagnosisItemInput
	Comment   string
	Actor     domain.Actor
}

type InjectionItemInput struct {
	LineItemID uuid.UUID `json:"line_item_id"`
	Note       string    `json:"note"`
}

type RecordInjectionInput struct {
	BookingID uuid.UUID
	NurseID   uuid.UUID
	Items     []InjectionItemInput
	Actor     domain.Actor
}

type ClinicalService struct {
	bookings    repository.BookingRepository
	orders      repository.OrderRepository
	assignments repository.StaffAssignmentRepository
	records     repository.ClinicalRecordRepository
	machine     Transitioner
}

func NewClinicalService(
	bookings repository.BookingRepository,
	orders repository.OrderRepository,
	assignments repository.StaffAssignmentRepository,
	records repository.ClinicalRecordRepository,
	machine Transitioner,
) *ClinicalService {
	return &ClinicalService{
		bookings:    bookings,
		orders:      orders,
		assignments: assignments,
		records:     records,
		machine:     machine,
	}
}

// SubmitDiagnosis captures the per-line-item clinical decision. Exactly
// one result per order line item; only the doctor holding the DOCTOR
// assignment may submit. The record is persisted before the transition;
// a record whose transition never landed is re-driven on the next call,
// so the booking can never reach DIAGNOSED without a record nor strand a
// record at ASSIGNED.
func (s *ClinicalService) SubmitDiagnosis(ctx context.Context, input SubmitDiagnosisInput) (*domain.DiagnosisRecord, error) {
	if err := s.requireAssignment(ctx, input.BookingID, domain.RoleDoctor, input.DoctorID); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}

	existing, err := s.records.GetDiagnosisByBookingID(ctx, input.BookingID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if booking.Status != domain.BookingStatusAssigned {
			return nil, fmt.Errorf("%w: diagnosis already recorded for booking %s", domain.ErrInvalidTransition, input.BookingID)
		}
		// A previous submission persisted the record but its transition
		// never landed. Re-drive it; the stored decision stands.
		if _, err := s.machine.Transition(ctx, booking.ID, booking.Version, domain.TriggerSubmitDiagnosis, input.Actor); err != nil {
			return nil, err
		}
		return existing, nil
	}

	order, err := s.orders.GetByBookingID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if err := validateDiagnosisCoverage(order, input.Items); err != nil {
		return nil, err
	}

	record := &domain.DiagnosisRecord{
		ID:        uuid.New(),
		BookingID: input.BookingID,
		DoctorID:  input.DoctorID,
		Comment:   input.Comment,
	}
	for _, it := range input.Items {
		record.Items = append(record.Items, domain.DiagnosisItem{
			LineItemID: it.LineItemID,
			Result:     it.Result,
			Note:       it.Note,
		})
	}

	if err := s.records.CreateDiagnosis(ctx, record); err != nil {
		return nil, err
	}
	if _, err := s.machine.Transition(ctx, booking.ID, booking.Version, domain.TriggerSubmitDiagnosis, input.Actor); err != nil {
		// The record only stands once the transition landed.
		if derr := s.records.DeleteDiagnosis(ctx, record.ID); derr != nil {
			log.Printf("WARNING: failed to remove diagnosis %s after transition error: %v", record.ID, derr)
		}
		return nil, err
	}
	return record, nil
}

// RecordInjection captures administered items and drives the terminal
// transitions. Items outside the diagnosis' CAN_INJECT set are rejected;
// once every cleared item is covered the booking completes immediately.
func (s *ClinicalService) RecordInjection(ctx context.Context, input RecordInjectionInput) (*domain.Booking, error) {
	if err := s.requireAssignment(ctx, input.BookingID, domain.RoleNurse, input.NurseID); err != nil {
		return nil, err
	}

	if len(input.Items) == 0 {
		return nil, errors.New("at least one administered item is required")
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}

	diagnosis, err := s.records.GetDiagnosisByBookingID(ctx, input.BookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no diagnosis recorded for booking %s", domain.ErrInvalidTransition, input.BookingID)
		}
		return nil, err
	}

	existing, err := s.records.GetVaccinationByBookingID(ctx, input.BookingID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if booking.Status != domain.BookingStatusDiagnosed {
			return nil, fmt.Errorf("%w: vaccination already recorded for booking %s", domain.ErrInvalidTransition, input.BookingID)
		}
		// Persisted record whose transition never landed: re-drive it and
		// finish from what was actually administered.
		updated, err := s.machine.Transition(ctx, booking.ID, booking.Version, domain.TriggerRecordInjection, input.Actor)
		if err != nil {
			return nil, err
		}
		return s.maybeComplete(ctx, updated, diagnosis, administeredSet(existing))
	}

	now := time.Now().UTC()
	record := &domain.VaccinationRecord{
		ID:        uuid.New(),
		BookingID: input.BookingID,
		NurseID:   input.NurseID,
	}
	administered := make(map[uuid.UUID]bool, len(input.Items))
	for _, it := range input.Items {
		result, ok := diagnosis.ResultFor(it.LineItemID)
		if !ok {
			return nil, fmt.Errorf("%w: line item %s has no diagnosis result", domain.ErrNotApproved, it.LineItemID)
		}
		if result != domain.ResultCanInject {
			return nil, fmt.Errorf("%w: line item %s is %s", domain.ErrNotApproved, it.LineItemID, result)
		}
		if administered[it.LineItemID] {
			return nil, fmt.Errorf("line item %s administered twice", it.LineItemID)
		}
		administered[it.LineItemID] = true
		record.Items = append(record.Items, domain.VaccinationItem{
			LineItemID:     it.LineItemID,
			Note:           it.Note,
			AdministeredAt: now,
		})
	}

	if err := s.records.CreateVaccination(ctx, record); err != nil {
		return nil, err
	}
	updated, err := s.machine.Transition(ctx, booking.ID, booking.Version, domain.TriggerRecordInjection, input.Actor)
	if err != nil {
		// The record only stands once the transition landed.
		if derr := s.records.DeleteVaccination(ctx, record.ID); derr != nil {
			log.Printf("WARNING: failed to remove vaccination %s after transition error: %v", record.ID, derr)
		}
		return nil, err
	}

	return s.maybeComplete(ctx, updated, diagnosis, administered)
}

func (s *ClinicalService) maybeComplete(ctx context.Context, booking *domain.Booking, diagnosis *domain.DiagnosisRecord, administered map[uuid.UUID]bool) (*domain.Booking, error) {
	if !coversAll(diagnosis.CanInjectIDs(), administered) {
		return booking, nil
	}
	completed, err := s.machine.Transition(ctx, booking.ID, booking.Version, domain.TriggerComplete, domain.SystemActor)
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func administeredSet(record *domain.VaccinationRecord) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(record.Items))
	for _, it := range record.Items {
		set[it.LineItemID] = true
	}
	return set
}

func (s *ClinicalService) requireAssignment(ctx context.Context, bookingID uuid.UUID, role domain.Role, staffID uuid.UUID) error {
	assignment, err := s.assignments.GetActive(ctx, bookingID, role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: booking %s has no active %s assignment", domain.ErrForbidden, bookingID, role)
		}
		return err
	}
	if assignment.StaffID != staffID {
		return fmt.Errorf("%w: %s slot on booking %s is held by another staff member", domain.ErrForbidden, role, bookingID)
	}
	return nil
}

func validateDiagnosisCoverage(order *domain.Order, items []DiagnosisItemInput) error {
	seen := make(map[uuid.UUID]bool, len(items))
	for _, it := range items {
		switch it.Result {
		case domain.ResultCanInject, domain.ResultCannotInject, domain.ResultDelayInjection:
		default:
			return fmt.Errorf("unknown diagnosis result %q", it.Result)
		}
		if seen[it.LineItemID] {
			return fmt.Errorf("duplicate result for line item %s", it.LineItemID)
		}
		seen[it.LineItemID] = true
	}

	for _, li := range order.LineItems {
		if !seen[li.ID] {
			return fmt.Errorf("missing diagnosis result for line item %s", li.ID)
		}
		delete(seen, li.ID)
	}
	for id := range seen {
		return fmt.Errorf("line item %s does not belong to the order", id)
	}
	return nil
}

func coversAll(required []uuid.UUID, administered map[uuid.UUID]bool) bool {
	for _, id := range required {
		if !administered[id] {
			return false
		}
	}
	return true
}

var _ ClinicalUseCase = (*ClinicalService)(nil)
