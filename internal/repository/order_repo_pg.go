package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/vaxbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Order, error)
}

type PGOrderRepository struct {
	db DB
}

func NewOrderRepository(db DB) OrderRepository {
	return &PGOrderRepository{db: db}
}

func (r *PGOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `INSERT INTO orders (id, booking_id, total) VALUES ($1, $2, $3) RETURNING created_at`,
		order.ID, order.BookingID, order.Total).Scan(&order.CreatedAt); err != nil {
		return err
	}

	for i := range order.LineItems {
		it := &order.LineItems[i]
		if _, err := tx.Exec(ctx, `INSERT INTO order_items (id, order_id, kind, ref_id, name, quantity, unit_price, sale_off)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			it.ID, order.ID, it.Kind, it.RefID, it.Name, it.Quantity, it.UnitPrice, it.SaleOff); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PGOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.get(ctx, `WHERE id=$1`, id)
}

func (r *PGOrderRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Order, error) {
	return r.get(ctx, `WHERE booking_id=$1`, bookingID)
}

func (r *PGOrderRepository) get(ctx context.Context, where string, arg any) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT id, booking_id, total, created_at FROM orders `+where, arg)
	var o domain.Order
	if err := row.Scan(&o.ID, &o.BookingID, &o.Total, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, kind, ref_id, name, quantity, unit_price, sale_off FROM order_items WHERE order_id=$1 ORDER BY created_at`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.LineItem
		if err := rows.Scan(&it.ID, &it.Kind, &it.RefID, &it.Name, &it.Quantity, &it.UnitPrice, &it.SaleOff); err != nil {
			return nil, err
		}
		o.LineItems = append(o.LineItems, it)
	}
	return &o, rows.Err()
}

var _ OrderRepository = (*PGOrderRepository)(nil)
