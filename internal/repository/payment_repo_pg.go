package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *domain.PaymentIntent) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PaymentIntent, error)
	// MarkConfirmed flips CREATED to CONFIRMED for the order's intent.
	// Losing a concurrent race (no CREATED row left) returns ErrNotFound so
	// the caller can fall back to the already-confirmed path.
	MarkConfirmed(ctx context.Context, orderID uuid.UUID, confirmationID string) (*domain.PaymentIntent, error)
	MarkExpired(ctx context.Context, orderID uuid.UUID) (*domain.PaymentIntent, error)
	ExpireCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.PaymentIntent, error)
}

type PGPaymentIntentRepository struct {
	db DB
}

func NewPaymentIntentRepository(db DB) PaymentIntentRepository {
	return &PGPaymentIntentRepository{db: db}
}

const intentColumns = `id, order_id, amount, idempotency_key, status, confirmation_id, created_at, updated_at`

func (r *PGPaymentIntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	intent.Status = domain.IntentStatusCreated
	return r.db.QueryRow(ctx, `INSERT INTO payment_intents (id, order_id, amount, idempotency_key, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		intent.ID, intent.OrderID, intent.Amount, intent.IdempotencyKey, intent.Status).
		Scan(&intent.CreatedAt, &intent.UpdatedAt)
}

func (r *PGPaymentIntentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.PaymentIntent, error) {
	row := r.db.QueryRow(ctx, `SELECT `+intentColumns+` FROM payment_intents WHERE order_id=$1 ORDER BY created_at DESC LIMIT 1`, orderID)
	return scanIntent(row)
}

func (r *PGPaymentIntentRepository) MarkConfirmed(ctx context.Context, orderID uuid.UUID, confirmationID string) (*domain.PaymentIntent, error) {
	row := r.db.QueryRow(ctx, `UPDATE payment_intents SET status=$1, confirmation_id=$2, updated_at=now()
		WHERE order_id=$3 AND status=$4
		RETURNING `+intentColumns,
		domain.IntentStatusConfirmed, confirmationID, orderID, domain.IntentStatusCreated)
	return scanIntent(row)
}

func (r *PGPaymentIntentRepository) MarkExpired(ctx context.Context, orderID uuid.UUID) (*domain.PaymentIntent, error) {
	row := r.db.QueryRow(ctx, `UPDATE payment_intents SET status=$1, updated_at=now()
		WHERE order_id=$2 AND status=$3
		RETURNING `+intentColumns,
		domain.IntentStatusExpired, orderID, domain.IntentStatusCreated)
	return scanIntent(row)
}

func (r *PGPaymentIntentRepository) ExpireCreatedBefore(ctx context.Context, deadline time.Time) ([]domain.PaymentIntent, error) {
	rows, err := r.db.Query(ctx, `UPDATE payment_intents SET status=$1, updated_at=now()
		WHERE status=$2 AND created_at <= $3
		RETURNING `+intentColumns,
		domain.IntentStatusExpired, domain.IntentStatusCreated, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.PaymentIntent
	for rows.Next() {
		var in domain.PaymentIntent
		if err := rows.Scan(&in.ID, &in.OrderID, &in.Amount, &in.IdempotencyKey, &in.Status, &in.ConfirmationID, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, err
		}
		expired = append(expired, in)
	}
	return expired, rows.Err()
}

func scanIntent(row pgx.Row) (*domain.PaymentIntent, error) {
	var in domain.PaymentIntent
	if err := row.Scan(&in.ID, &in.OrderID, &in.Amount, &in.IdempotencyKey, &in.Status, &in.ConfirmationID, &in.CreatedAt, &in.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

var _ PaymentIntentRepository = (*PGPaymentIntentRepository)(nil)
