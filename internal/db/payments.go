package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// InsertPaymentOrder records a gateway order handle issued for an online payment.
func (s *Store) InsertPaymentOrder(ctx context.Context, p PaymentOrder) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO payment_orders (id, order_id, amount_paise, currency, receipt, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.OrderID, p.AmountPaise, p.Currency, p.Receipt, p.Status)
	return err
}

// GetPaymentOrder fetches a gateway order handle by its id.
func (s *Store) GetPaymentOrder(ctx context.Context, id string) (PaymentOrder, error) {
	var p PaymentOrder
	err := s.Pool.QueryRow(ctx, `
		SELECT id, order_id, amount_paise, currency, receipt, status, created_at
		FROM payment_orders WHERE id = $1`, id).
		Scan(&p.ID, &p.OrderID, &p.AmountPaise, &p.Currency, &p.Receipt, &p.Status, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PaymentOrder{}, ErrNotFound
	}
	return p, err
}

// MarkPaymentOrderPaid flips a payment order to paid once.
func (s *Store) MarkPaymentOrderPaid(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE payment_orders SET status = 'paid' WHERE id = $1 AND status <> 'paid'`, id)
	return err
}
