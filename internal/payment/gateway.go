package payment

import (
	"context"
	"fmt"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/obs"
)

// GatewayOrder is the subset of a Razorpay order the service consumes.
// Amount is in paise, as returned by the gateway.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status"`
}

// Gateway wraps the Razorpay SDK for order creation.
type Gateway struct {
	client   *razorpay.Client
	currency string
}

// NewGateway constructs a gateway client. Returns nil when credentials are
// absent so callers can fail closed at request time.
func NewGateway(keyID, keySecret, currency string) *Gateway {
	if strings.TrimSpace(keyID) == "" || strings.TrimSpace(keySecret) == "" {
		return nil
	}
	if strings.TrimSpace(currency) == "" {
		currency = "INR"
	}
	return &Gateway{client: razorpay.NewClient(keyID, keySecret), currency: currency}
}

// CreateOrder opens a gateway order for the given amount in paise with
// automatic capture enabled.
func (g *Gateway) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":          amountPaise,
		"currency":        g.currency,
		"payment_capture": 1,
	}
	if strings.TrimSpace(receipt) != "" {
		data["receipt"] = receipt
	}
	raw, err := g.client.Order.Create(data, nil)
	if err != nil {
		if obs.PaymentOrdersTotal != nil {
			obs.PaymentOrdersTotal.WithLabelValues("error").Inc()
		}
		return GatewayOrder{}, common.NewAppError(common.CodeUpstream,
			"payment gateway rejected the order", 502, fmt.Errorf("razorpay order create: %w", err))
	}
	order := GatewayOrder{
		ID:       stringField(raw, "id"),
		Amount:   intField(raw, "amount"),
		Currency: stringField(raw, "currency"),
		Receipt:  stringField(raw, "receipt"),
		Status:   stringField(raw, "status"),
	}
	if order.ID == "" {
		return GatewayOrder{}, common.NewAppError(common.CodeUpstream,
			"payment gateway returned an invalid order", 502, nil)
	}
	if obs.PaymentOrdersTotal != nil {
		obs.PaymentOrdersTotal.WithLabelValues("ok").Inc()
	}
	return order, nil
}

// CreateGatewayOrder adapts CreateOrder for checkout callers, returning the
// handle as a persistable record. OrderID is set to the receipt, which
// checkout passes as the local order id.
func (g *Gateway) CreateGatewayOrder(ctx context.Context, amountPaise int64, receipt string) (db.PaymentOrder, error) {
	order, err := g.CreateOrder(ctx, amountPaise, receipt)
	if err != nil {
		return db.PaymentOrder{}, err
	}
	return db.PaymentOrder{
		ID:          order.ID,
		OrderID:     receipt,
		AmountPaise: order.Amount,
		Currency:    order.Currency,
		Receipt:     order.Receipt,
		Status:      order.Status,
	}, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func intField(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
