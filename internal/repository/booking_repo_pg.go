package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	// UpdateStatusVersioned applies the CAS write behind every accepted
	// transition: status changes and version increments in one statement,
	// guarded by the expected version.
	UpdateStatusVersioned(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.BookingStatus) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	booking.Status = domain.BookingStatusPending
	booking.Version = 1
	return r.db.QueryRow(ctx, `INSERT INTO bookings (id, child_id, appointment_date, appointment_time, status, version)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		booking.ID, booking.ChildID, booking.AppointmentDate, booking.AppointmentTime, booking.Status, booking.Version).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT id, child_id, appointment_date, appointment_time, status, version, created_at, updated_at FROM bookings WHERE id=$1`, id)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.ChildID, &b.AppointmentDate, &b.AppointmentTime, &b.Status, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) UpdateStatusVersioned(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, version=version+1, updated_at=now()
		WHERE id=$2 AND version=$3
		RETURNING id, child_id, appointment_date, appointment_time, status, version, created_at, updated_at`,
		status, id, expectedVersion)
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.ChildID, &b.AppointmentDate, &b.AppointmentTime, &b.Status, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row matched: either the booking is gone or the version moved.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrStaleVersion
		}
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
