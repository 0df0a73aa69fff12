package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type StaffAssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.StaffAssignment) error
	GetActive(ctx context.Context, bookingID uuid.UUID, role domain.Role) (*domain.StaffAssignment, error)
	ListActive(ctx context.Context, bookingID uuid.UUID) ([]domain.StaffAssignment, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type PGStaffAssignmentRepository struct {
	db DB
}

func NewStaffAssignmentRepository(db DB) StaffAssignmentRepository {
	return &PGStaffAssignmentRepository{db: db}
}

func (r *PGStaffAssignmentRepository) Create(ctx context.Context, a *domain.StaffAssignment) error {
	a.Active = true
	return r.db.QueryRow(ctx, `INSERT INTO staff_assignments (id, booking_id, role, staff_id, assigned_date, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		a.ID, a.BookingID, a.Role, a.StaffID, a.AssignedDate, a.Active).
		Scan(&a.CreatedAt)
}

func (r *PGStaffAssignmentRepository) GetActive(ctx context.Context, bookingID uuid.UUID, role domain.Role) (*domain.StaffAssignment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, role, staff_id, assigned_date, active, created_at
		FROM staff_assignments WHERE booking_id=$1 AND role=$2 AND active`, bookingID, role)
	var a domain.StaffAssignment
	if err := row.Scan(&a.ID, &a.BookingID, &a.Role, &a.StaffID, &a.AssignedDate, &a.Active, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGStaffAssignmentRepository) ListActive(ctx context.Context, bookingID uuid.UUID) ([]domain.StaffAssignment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_id, role, staff_id, assigned_date, active, created_at
		FROM staff_assignments WHERE booking_id=$1 AND active ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StaffAssignment
	for rows.Next() {
		var a domain.StaffAssignment
		if err := rows.Scan(&a.ID, &a.BookingID, &a.Role, &a.StaffID, &a.AssignedDate, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PGStaffAssignmentRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `UPDATE staff_assignments SET active=false WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var _ StaffAssignmentRepository = (*PGStaffAssignmentRepository)(nil)
