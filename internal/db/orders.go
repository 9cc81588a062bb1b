package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const orderColumns = `id, customer_name, phone, email, address, total_paise, payment_method,
	status, payment_status, utr_number, razorpay_order_id, razorpay_payment_id,
	consent_whatsapp, consent_email, consent_sms, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.Phone, &o.Email, &o.Address, &o.TotalPaise, &o.PaymentMethod,
		&o.Status, &o.PaymentStatus, &o.UTRNumber, &o.RazorpayOrderID, &o.RazorpayPaymentID,
		&o.ConsentWhatsApp, &o.ConsentEmail, &o.ConsentSMS, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// CreateOrder inserts an order and its items in one transaction.
func (s *Store) CreateOrder(ctx context.Context, o Order) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, customer_name, phone, email, address, total_paise, payment_method,
			status, payment_status, utr_number, razorpay_order_id, razorpay_payment_id,
			consent_whatsapp, consent_email, consent_sms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		o.ID, o.CustomerName, o.Phone, o.Email, o.Address, o.TotalPaise, o.PaymentMethod,
		o.Status, o.PaymentStatus, o.UTRNumber, o.RazorpayOrderID, o.RazorpayPaymentID,
		o.ConsentWhatsApp, o.ConsentEmail, o.ConsentSMS,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for _, item := range o.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, size, quantity, unit_paise)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, item.ProductID, item.Name, item.Size, item.Quantity, item.UnitPaise,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// GetOrder fetches an order with its items.
func (s *Store) GetOrder(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(s.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, err
	}
	o.Items, err = s.listOrderItems(ctx, o.ID)
	return o, err
}

// GetOrderByRazorpayOrderID fetches the order bound to a gateway order handle.
func (s *Store) GetOrderByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (Order, error) {
	o, err := scanOrder(s.Pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE razorpay_order_id = $1`, razorpayOrderID))
	if err != nil {
		return Order{}, err
	}
	o.Items, err = s.listOrderItems(ctx, o.ID)
	return o, err
}

// ListOrders returns orders newest first, paginated.
func (s *Store) ListOrders(ctx context.Context, limit, offset int) ([]Order, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// ListOrdersByPhone returns a customer's orders newest first.
func (s *Store) ListOrdersByPhone(ctx context.Context, phone string) ([]Order, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE phone = $1 ORDER BY created_at DESC`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// MarkOrderPaid settles an order exactly once. The status precondition makes the
// update a compare-and-set so webhook and client confirmation cannot both win.
func (s *Store) MarkOrderPaid(ctx context.Context, id, razorpayPaymentID string) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders
		SET status = 'Payment_Received',
			payment_status = 'Paid',
			razorpay_payment_id = $2,
			updated_at = now()
		WHERE id = $1 AND status = 'Pending_Payment'`,
		id, razorpayPaymentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// SetRazorpayOrderID binds a gateway order handle to an order awaiting payment.
func (s *Store) SetRazorpayOrderID(ctx context.Context, id, razorpayOrderID string) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE orders SET razorpay_order_id = $2, updated_at = now() WHERE id = $1`,
		id, razorpayOrderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOrderStatus sets the fulfilment status unconditionally. Transition rules
// are enforced by the order service before calling this.
func (s *Store) UpdateOrderStatus(ctx context.Context, id, status string) (Order, error) {
	return scanOrder(s.Pool.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, id, status))
}

// DeleteOrder removes an order and its items.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) listOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, order_id, product_id, name, size, quantity, unit_paise
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Size, &it.Quantity, &it.UnitPaise); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
