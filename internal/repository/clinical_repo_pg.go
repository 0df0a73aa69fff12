package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ClinicalRecordRepository interface {
	CreateDiagnosis(ctx context.Context, record *domain.DiagnosisRecord) error
	GetDiagnosisByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.DiagnosisRecord, error)
	// DeleteDiagnosis removes a record whose status transition never
	// landed, so the booking can be re-submitted cleanly.
	DeleteDiagnosis(ctx context.Context, id uuid.UUID) error
	CreateVaccination(ctx context.Context, record *domain.VaccinationRecord) error
	GetVaccinationByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.VaccinationRecord, error)
	DeleteVaccination(ctx context.Context, id uuid.UUID) error
}

type PGClinicalRecordRepository struct {
	db DB
}

func NewClinicalRecordRepository(db DB) ClinicalRecordRepository {
	return &PGClinicalRecordRepository{db: db}
}

func (r *PGClinicalRecordRepository) CreateDiagnosis(ctx context.Context, record *domain.DiagnosisRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO diagnosis_records (id, booking_id, doctor_id, comment)
		VALUES ($1, $2, $3, $4) RETURNING created_at`,
		record.ID, record.BookingID, record.DoctorID, record.Comment).Scan(&record.CreatedAt); err != nil {
		return err
	}

	for _, it := range record.Items {
		if _, err := tx.Exec(ctx, `INSERT INTO diagnosis_items (record_id, line_item_id, result, note)
			VALUES ($1, $2, $3, $4)`,
			record.ID, it.LineItemID, it.Result, it.Note); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGClinicalRecordRepository) GetDiagnosisByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.DiagnosisRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, doctor_id, comment, created_at FROM diagnosis_records WHERE booking_id=$1`, bookingID)
	var rec domain.DiagnosisRecord
	if err := row.Scan(&rec.ID, &rec.BookingID, &rec.DoctorID, &rec.Comment, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT line_item_id, result, note FROM diagnosis_items WHERE record_id=$1`, rec.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.DiagnosisItem
		if err := rows.Scan(&it.LineItemID, &it.Result, &it.Note); err != nil {
			return nil, err
		}
		rec.Items = append(rec.Items, it)
	}
	return &rec, rows.Err()
}

func (r *PGClinicalRecordRepository) DeleteDiagnosis(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM diagnosis_items WHERE record_id=$1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM diagnosis_records WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *PGClinicalRecordRepository) CreateVaccination(ctx context.Context, record *domain.VaccinationRecord) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO vaccination_records (id, booking_id, nurse_id)
		VALUES ($1, $2, $3) RETURNING created_at`,
		record.ID, record.BookingID, record.NurseID).Scan(&record.CreatedAt); err != nil {
		return err
	}

	for _, it := range record.Items {
		if _, err := tx.Exec(ctx, `INSERT INTO vaccination_items (record_id, line_item_id, note, administered_at)
			VALUES ($1, $2, $3, $4)`,
			record.ID, it.LineItemID, it.Note, it.AdministeredAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGClinicalRecordRepository) GetVaccinationByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.VaccinationRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, nurse_id, created_at FROM vaccination_records WHERE booking_id=$1`, bookingID)
	var rec domain.VaccinationRecord
	if err := row.Scan(&rec.ID, &rec.BookingID, &rec.NurseID, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT line_item_id, note, administered_at FROM vaccination_items WHERE record_id=$1`, rec.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.VaccinationItem
		if err := rows.Scan(&it.LineItemID, &it.Note, &it.AdministeredAt); err != nil {
			return nil, err
		}
		rec.Items = append(rec.Items, it)
	}
	return &rec, rows.Err()
}

func (r *PGClinicalRecordRepository) DeleteVaccination(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM vaccination_items WHERE record_id=$1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM vaccination_records WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit(ctx)
}

var _ ClinicalRecordRepository = (*PGClinicalRecordRepository)(nil)
