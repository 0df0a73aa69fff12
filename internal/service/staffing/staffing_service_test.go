package staffing

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatusVersioned(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, expectedVersion, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockStaffAssignmentRepository struct {
	mock.Mock
}

func (m *MockStaffAssignmentRepository) Create(ctx context.Context, assignment *domain.StaffAssignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockStaffAssignmentRepository) GetActive(ctx context.Context, bookingID uuid.UUID, role domain.Role) (*domain.StaffAssignment, error) {
	args := m.Called(ctx, bookingID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StaffAssignment), args.Error(1)
}

func (m *MockStaffAssignmentRepository) ListActive(ctx context.Context, bookingID uuid.UUID) ([]domain.StaffAssignment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StaffAssignment), args.Error(1)
}

func (m *MockStaffAssignmentRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTransitioner struct {
	mock.Mock
}

func (m *MockTransitioner) Transition(ctx context.Context, bookingID uuid.UUID, expectedVersion int64, trigger domain.Trigger, actor domain.Actor) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, expectedVersion, trigger, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func assignInput(bookingID uuid.UUID, role domain.Role, staffID uuid.UUID) AssignStaffInput {
	return AssignStaffInput{
		BookingID:    bookingID,
		Role:         role,
		StaffID:      staffID,
		AssignedDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		Actor:        domain.Actor{ID: staffID, Role: role},
	}
}

func TestAssignStaff_Success(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockAssignments := &MockStaffAssignmentRepository{}
	mockMachine := &MockTransitioner{}
	service := NewStaffingService(mockBookings, mockAssignments, mockMachine)

	ctx := context.Background()
	bookingID := uuid.New()
	doctorID := uuid.New()
	checkedIn := &domain.Booking{ID: bookingID, Status: domain.BookingStatusCheckedIn, Version: 3}
	assigned := &domain.Booking{ID: bookingID, Status: domain.BookingStatusAssigned, Version: 4}

	mockBookings.On("GetByID", ctx, bookingID).Return(checkedIn, nil).Once()
	mockAssignments.On("GetActive", ctx, bookingID, domain.RoleDoctor).Return(nil, domain.ErrNotFound).Once()
	mockAssignments.On("Create", ctx, mock.AnythingOfType("*domain.StaffAssignment")).Return(nil).Once()
	mockMachine.On("Transition", ctx, bookingID, int64(3), domain.TriggerAssignStaff, mock.Anything).Return(assigned, nil).Once()

	assignment, err := service.AssignStaff(ctx, assignInput(bookingID, domain.RoleDoctor, doctorID))

	assert.NoError(t, err)
	assert.Equal(t, doctorID, assignment.StaffID)
	assert.Equal(t, domain.RoleDoctor, assignment.Role)
	mockAssignments.AssertExpectations(t)
	mockMachine.AssertExpectations(t)
}

func TestAssignStaff_SecondRoleOnAssignedBooking(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockAssignments := &MockStaffAssignmentRepository{}
	mockMachine := &MockTransitioner{}
	service := NewStaffingService(mockBookings, mockAssignments, mockMachine)

	ctx := context.Background()
	bookingID := uuid.New()
	nurseID := uuid.New()
	// Doctor already claimed; the booking sits in ASSIGNED and stays there.
	assigned := &domain.Booking{ID: bookingID, Status: domain.BookingStatusAssigned, Version: 4}
	still := &domain.Booking{ID: bookingID, Status: domain.BookingStatusAssigned, Version: 5}

	mockBookings.On("GetByID", ctx, bookingID).Return(assigned, nil).Once()
	mockAssignments.On("GetActive", ctx, bookingID, domain.RoleNurse).Return(nil, domain.ErrNotFound).Once()
	mockAssignments.On("Create", ctx, mock.AnythingOfType("*domain.StaffAssignment")).Return(nil).Once()
	mockMachine.On("Transition", ctx, bookingID, int64(4), domain.TriggerAssignStaff, mock.Anything).Return(still, nil).Once()

	assignment, err := service.AssignStaff(ctx, assignInput(bookingID, domain.RoleNurse, nurseID))

	assert.NoError(t, err)
	assert.Equal(t, domain.RoleNurse, assignment.Role)
}

func TestAssignStaff_SameStaffIsIdempotent(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockAssignments := &MockStaffAssignmentRepository{}
	mockMachine := &MockTransitioner{}
	service := NewStaffingService(mockBookings, mockAssignments, mockMachine)

	ctx := context.Background()
	bookingID := uuid.New()
	doctorID := uuid.New()
	assigned := &domain.Booking{ID: bookingID, Status: domain.BookingStatusAssigned, Version: 4}
	existing := &domain.StaffAssignment{ID: uuid.New(), BookingID: bookingID, Role: domain.RoleDoctor, StaffID: doctorID, Active: true}

	mockBookings.On("GetByID", ctx, bookingID).Return(assigned, nil).Once()
	mockAssignments.On("GetActive", ctx, bookingID, domain.RoleDoctor).Return(existing, nil).Once()

	assignment, err := service.AssignStaff(ctx, assignInput(bookingID, domain.RoleDoctor, doctorID))

	assert.NoError(t, err)
	assert.Equal(t, existing, assignment)
	mockAssignments.AssertNotCalled(t, "Create")
	mockMachine.AssertNotCalled(t, "Transition")
}

func TestAssignStaff_SameStaffRedrivesLostTransition(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockAssignments := &MockStaffAssignmentRepository{}
	mockMachine := &MockTransitioner{}
	service := NewStaffingService(mockBookings, mockAssignments, mockMachine)

	ctx := context.Background()
	bookingID := uuid.New()
	doctorID := uuid.New()
	// The claim exists but the booking never left CHECKED_IN: a prior
	// attempt released nothing and moved nothing. The retry must land the
	// transition instead of handing back an orphaned claim.
	checkedIn := &domain.Booking{ID: bookingID, Status: domain.BookingStatusCheckedIn, Version: 3}
	assigned := &domain.Booking{ID: bookingID, Status: domain.BookingStatusAssigned, Version: 4}
	existing := &domain.StaffAssignment{ID: uuid.New(), BookingID: bookingID, Role: domain.RoleDoctor, StaffID: doctorID, Active: true}

	mockBookings.On("GetByID", ctx, bookingID).Return(checkedIn, nil).Once()
	mockAssignments.On("GetActive", ctx, bookingID, domain.RoleDoctor).Return(existing, nil).Once()
	mockMachine.On("Transition", ctx, bookingID, int64(3), domain.TriggerAssignStaff, mock.Anything).Return(assigned, nil).Once()

	assignment, err := service.AssignStaff(ctx, assignInput(bookingID, domain.RoleDoctor, doctorID))

	assert.NoError(t, err)
	assert.Equal(t, existing, assignment)
	mockAssignments.AssertNotCalled(t, "Create")
	mockMachine.AssertExpectations(t)
}

func TestAssignStaff_SlotHeldByAnotherStaff(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockAssignments := &MockStaffAssignmentRepository{}
	service := NewStaffingService(mockBookings, mockAssignments, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	assigned := &domain.Booking{ID: bookingID, Status: domain.BookingStatusAssigned, Version: 4}
	existing := &domain.StaffAssignment{ID: uuid.New(), BookingID: bookingID, Role: domain.RoleDoctor, StaffID: uuid.New(), Active: true}

	mockBookings.On("GetByID", ctx, bookingID).Return(assigned, nil).Once()
	mockAssignments.On("GetActive", ctx, bookingID, domain.RoleDoctor).Return(existing, nil).Once()

	assignment, err := service.AssignStaff(ctx, assignInput(bookingID, domain.RoleDoctor, uuid.New()))

	assert.Nil(t, assignment)
	assert.ErrorIs(t, err, domain.ErrAlreadyAssigned)
	mockAssignments.AssertNotCalled(t, "Create")
}

func TestAssignStaff_WrongCredential(t *testing.T) {
	service := NewStaffingService(nil, nil, nil)

	input := assignInput(uuid.New(), domain.RoleDoctor, uuid.New())
	input.Actor.Role = domain.RoleNurse

	assignment, err := service.AssignStaff(context.Background(), input)

	assert.Nil(t, assignment)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAssignStaff_CustomerRoleNotAssignable(t *testing.T) {
	service := NewStaffingService(nil, nil, nil)

	input := assignInput(uuid.New(), domain.RoleCustomer, uuid.New())

	assignment, err := service.AssignStaff(context.Background(), input)

	assert.Nil(t, assignment)
	assert.Error(t, err)
}

func TestAssignStaff_BookingNotCheckedIn(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockAssignments := &MockStaffAssignmentRepository{}
	service := NewStaffingService(mockBookings, mockAssignments, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	paid := &domain.Booking{ID: bookingID, Status: domain.BookingStatusPaid, Version: 2}

	mockBookings.On("GetByID", ctx, bookingID).Return(paid, nil).Once()

	assignment, err := service.AssignStaff(ctx, assignInput(bookingID, domain.RoleDoctor, uuid.New()))

	assert.Nil(t, assignment)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	mockAssignments.AssertNotCalled(t, "GetActive")
}

func TestAssignStaff_ReleasesClaimWhenTransitionFails(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockAssignments := &MockStaffAssignmentRepository{}
	mockMachine := &MockTransitioner{}
	service := NewStaffingService(mockBookings, mockAssignments, mockMachine)

	ctx := context.Background()
	bookingID := uuid.New()
	checkedIn := &domain.Booking{ID: bookingID, Status: domain.BookingStatusCheckedIn, Version: 3}

	mockBookings.On("GetByID", ctx, bookingID).Return(checkedIn, nil).Once()
	mockAssignments.On("GetActive", ctx, bookingID, domain.RoleDoctor).Return(nil, domain.ErrNotFound).Once()
	mockAssignments.On("Create", ctx, mock.AnythingOfType("*domain.StaffAssignment")).Return(nil).Once()
	mockMachine.On("Transition", ctx, bookingID, int64(3), domain.TriggerAssignStaff, mock.Anything).Return(nil, domain.ErrStaleVersion).Once()
	mockAssignments.On("Deactivate", ctx, mock.AnythingOfType("uuid.UUID")).Return(nil).Once()

	assignment, err := service.AssignStaff(ctx, assignInput(bookingID, domain.RoleDoctor, uuid.New()))

	assert.Nil(t, assignment)
	assert.ErrorIs(t, err, domain.ErrStaleVersion)
	mockAssignments.AssertExpectations(t)
}

func TestListAssignments(t *testing.T) {
	mockAssignments := &MockStaffAssignmentRepository{}
	service := NewStaffingService(nil, mockAssignments, nil)

	ctx := context.Background()
	bookingID := uuid.New()
	active := []domain.StaffAssignment{
		{ID: uuid.New(), BookingID: bookingID, Role: domain.RoleDoctor, Active: true},
		{ID: uuid.New(), BookingID: bookingID, Role: domain.RoleNurse, Active: true},
	}

	mockAssignments.On("ListActive", ctx, bookingID).Return(active, nil).Once()

	got, err := service.ListAssignments(ctx, bookingID)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
}
