package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/events"
	"github.com/babajiachar/storefront-api/internal/obs"
)

// ErrInvalidTransition is returned when a status update would move an order
// backwards or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid status transition")

// Store is the persistence surface the order service needs.
type Store interface {
	CreateOrder(ctx context.Context, o db.Order) error
	GetOrder(ctx context.Context, id string) (db.Order, error)
	GetOrderByRazorpayOrderID(ctx context.Context, razorpayOrderID string) (db.Order, error)
	ListOrders(ctx context.Context, limit, offset int) ([]db.Order, error)
	ListOrdersByPhone(ctx context.Context, phone string) ([]db.Order, error)
	MarkOrderPaid(ctx context.Context, id, razorpayPaymentID string) (bool, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (db.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, productID, size string, qty int) (bool, error)
	InsertPaymentOrder(ctx context.Context, p db.PaymentOrder) error
}

// Outbox enqueues customer notifications for asynchronous delivery.
type Outbox interface {
	EnqueueOrderConfirmation(ctx context.Context, o db.Order) error
	EnqueuePaymentStatus(ctx context.Context, o db.Order) error
	EnqueueOrderDispatched(ctx context.Context, o db.Order) error
}

// GatewayOrders creates payment gateway order handles for online checkouts.
type GatewayOrders interface {
	CreateGatewayOrder(ctx context.Context, amountPaise int64, receipt string) (db.PaymentOrder, error)
}

// Service owns the order lifecycle.
type Service struct {
	Store   Store
	Bus     *events.Bus
	Outbox  Outbox
	Gateway GatewayOrders
	Log     zerolog.Logger
}

// Consent mirrors the customer's marketing opt-ins.
type Consent struct {
	WhatsApp bool `json:"whatsapp"`
	Email    bool `json:"email"`
	SMS      bool `json:"sms"`
}

// ItemInput is one checkout line.
type ItemInput struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Size      string  `json:"size"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unitPrice" validate:"gte=0"`
}

// CreateInput is a checkout submission. Monetary values are rupees.
type CreateInput struct {
	CustomerName  string      `json:"customerName" validate:"required"`
	Phone         string      `json:"phone" validate:"required,min=10"`
	Email         string      `json:"email" validate:"omitempty,email"`
	Address       string      `json:"address" validate:"required"`
	PaymentMethod string      `json:"paymentMethod" validate:"required,oneof=cod online"`
	UTRNumber     string      `json:"utrNumber"`
	Consent       Consent     `json:"marketingConsent"`
	Items         []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreateResult is returned from checkout. RazorpayOrderID is set for online
// orders so the client can open the payment flow.
type CreateResult struct {
	Order           db.Order
	RazorpayOrderID string
}

// Create persists a checkout submission. COD orders are confirmed immediately
// and the payment notification is queued; online orders wait in
// Pending_Payment until a verified settlement arrives.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	var totalPaise int64
	items := make([]db.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		unitPaise := toPaise(item.UnitPrice)
		totalPaise += unitPaise * int64(item.Quantity)
		items = append(items, db.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Size:      item.Size,
			Quantity:  item.Quantity,
			UnitPaise: unitPaise,
		})
	}
	if totalPaise <= 0 {
		return CreateResult{}, common.ValidationError("order total must be greater than zero")
	}

	o := db.Order{
		ID:              newOrderID(),
		CustomerName:    strings.TrimSpace(in.CustomerName),
		Phone:           strings.TrimSpace(in.Phone),
		Email:           strings.TrimSpace(in.Email),
		Address:         strings.TrimSpace(in.Address),
		TotalPaise:      totalPaise,
		PaymentMethod:   in.PaymentMethod,
		Status:          string(StatusPendingPayment),
		PaymentStatus:   PaymentPending,
		UTRNumber:       strings.TrimSpace(in.UTRNumber),
		ConsentWhatsApp: in.Consent.WhatsApp,
		ConsentEmail:    in.Consent.Email,
		ConsentSMS:      in.Consent.SMS,
		Items:           items,
	}
	if in.PaymentMethod == MethodCOD {
		o.Status = string(StatusPaymentReceived)
	}

	result := CreateResult{}
	var gatewayOrder db.PaymentOrder
	if in.PaymentMethod == MethodOnline {
		if s.Gateway == nil {
			return CreateResult{}, common.ConfigurationError("payment gateway is not configured")
		}
		var err error
		gatewayOrder, err = s.Gateway.CreateGatewayOrder(ctx, totalPaise, o.ID)
		if err != nil {
			return CreateResult{}, err
		}
		o.RazorpayOrderID = gatewayOrder.ID
		result.RazorpayOrderID = gatewayOrder.ID
	}

	if err := s.Store.CreateOrder(ctx, o); err != nil {
		return CreateResult{}, fmt.Errorf("create order: %w", err)
	}
	result.Order = o
	if gatewayOrder.ID != "" {
		gatewayOrder.OrderID = o.ID
		if err := s.Store.InsertPaymentOrder(ctx, gatewayOrder); err != nil {
			s.Log.Warn().Err(err).Str("order_id", o.ID).Str("razorpay_order_id", gatewayOrder.ID).Msg("persist payment order failed")
		}
	}

	if obs.OrdersCreatedTotal != nil {
		obs.OrdersCreatedTotal.WithLabelValues(in.PaymentMethod).Inc()
	}
	s.emit(ctx, events.TopicOrderCreated, o)

	if s.Outbox != nil {
		if err := s.Outbox.EnqueueOrderConfirmation(ctx, o); err != nil {
			s.Log.Warn().Err(err).Str("order_id", o.ID).Msg("enqueue order confirmation failed")
		}
	}
	if in.PaymentMethod == MethodCOD {
		s.reserveStock(ctx, o)
		if s.Outbox != nil {
			if err := s.Outbox.EnqueuePaymentStatus(ctx, o); err != nil {
				s.Log.Warn().Err(err).Str("order_id", o.ID).Msg("enqueue cod payment notice failed")
			}
		}
	}
	return result, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (db.Order, error) {
	return s.Store.GetOrder(ctx, id)
}

// ListByPhone returns a customer's order history.
func (s *Service) ListByPhone(ctx context.Context, phone string) ([]db.Order, error) {
	return s.Store.ListOrdersByPhone(ctx, strings.TrimSpace(phone))
}

// List returns orders for the admin view.
func (s *Service) List(ctx context.Context, p common.Pagination) ([]db.Order, error) {
	return s.Store.ListOrders(ctx, p.Limit, p.Offset)
}

// SetStatus applies an admin status change, enforcing forward-only movement.
// Dispatch and delivery emit lifecycle events; Shipped also queues the
// order_dispatched notification.
func (s *Service) SetStatus(ctx context.Context, id string, next Status) (db.Order, error) {
	current, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return db.Order{}, err
	}
	if !CanTransition(Status(current.Status), next) {
		return db.Order{}, ErrInvalidTransition
	}
	updated, err := s.Store.UpdateOrderStatus(ctx, id, string(next))
	if err != nil {
		return db.Order{}, err
	}
	updated.Items = current.Items

	switch next {
	case StatusShipped:
		s.emit(ctx, events.TopicOrderDispatched, updated)
		if s.Outbox != nil {
			if err := s.Outbox.EnqueueOrderDispatched(ctx, updated); err != nil {
				s.Log.Warn().Err(err).Str("order_id", id).Msg("enqueue dispatch notice failed")
			}
		}
	case StatusDelivered:
		s.emit(ctx, events.TopicOrderDelivered, updated)
	case StatusCancelled:
		s.emit(ctx, events.TopicOrderCancelled, updated)
	}
	return updated, nil
}

// OrderByGatewayID resolves the order bound to a payment gateway order handle.
func (s *Service) OrderByGatewayID(ctx context.Context, razorpayOrderID string) (db.Order, error) {
	return s.Store.GetOrderByRazorpayOrderID(ctx, razorpayOrderID)
}

// Settle marks an online order paid exactly once. The database transition is a
// compare-and-set on Pending_Payment, so a webhook and a client confirmation
// racing for the same order produce a single settlement; the loser is a no-op.
func (s *Service) Settle(ctx context.Context, razorpayOrderID, razorpayPaymentID string) (db.Order, bool, error) {
	o, err := s.Store.GetOrderByRazorpayOrderID(ctx, razorpayOrderID)
	if err != nil {
		return db.Order{}, false, err
	}
	won, err := s.Store.MarkOrderPaid(ctx, o.ID, razorpayPaymentID)
	if err != nil {
		return db.Order{}, false, err
	}
	if !won {
		return o, false, nil
	}
	o.Status = string(StatusPaymentReceived)
	o.PaymentStatus = PaymentPaid
	o.RazorpayPaymentID = razorpayPaymentID

	s.reserveStock(ctx, o)
	s.emit(ctx, events.TopicOrderPaid, o)
	if s.Outbox != nil {
		if err := s.Outbox.EnqueuePaymentStatus(ctx, o); err != nil {
			s.Log.Warn().Err(err).Str("order_id", o.ID).Msg("enqueue payment notice failed")
		}
	}
	return o, true, nil
}

// Delete removes an order entirely.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.DeleteOrder(ctx, id)
}

func (s *Service) emit(ctx context.Context, topic string, o db.Order) {
	if s.Bus == nil {
		return
	}
	payload := map[string]any{
		"orderId":       o.ID,
		"status":        o.Status,
		"paymentMethod": o.PaymentMethod,
		"amount":        float64(o.TotalPaise) / 100,
	}
	if _, err := s.Bus.Emit(ctx, topic, o.ID, payload); err != nil {
		s.Log.Warn().Err(err).Str("topic", topic).Str("order_id", o.ID).Msg("emit event failed")
	}
}

func (s *Service) reserveStock(ctx context.Context, o db.Order) {
	for _, item := range o.Items {
		ok, err := s.Store.DecrementStock(ctx, item.ProductID, item.Size, item.Quantity)
		if err != nil {
			s.Log.Warn().Err(err).Str("order_id", o.ID).Str("product_id", item.ProductID).Msg("stock decrement failed")
			continue
		}
		if !ok {
			s.Log.Warn().Str("order_id", o.ID).Str("product_id", item.ProductID).Msg("stock decrement skipped: understocked")
		}
	}
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}

func toPaise(rupees float64) int64 {
	return int64(math.Round(rupees * 100))
}
