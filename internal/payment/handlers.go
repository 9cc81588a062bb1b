package payment

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/obs"
)

// PaymentOrderStore persists gateway order records.
type PaymentOrderStore interface {
	InsertPaymentOrder(ctx context.Context, p db.PaymentOrder) error
	MarkPaymentOrderPaid(ctx context.Context, id string) error
}

// Settler applies a verified payment to the owning order exactly once.
type Settler interface {
	OrderByGatewayID(ctx context.Context, razorpayOrderID string) (db.Order, error)
	Settle(ctx context.Context, razorpayOrderID, razorpayPaymentID string) (db.Order, bool, error)
}

// Handlers exposes the payment endpoints: gateway order creation, client-side
// signature verification, and verified settlement.
type Handlers struct {
	Gateway   *Gateway
	KeySecret string
	Store     PaymentOrderStore
	Settler   Settler
	Log       zerolog.Logger
}

type createOrderRequest struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
	OrderID  string  `json:"orderId"`
}

// CreateOrder handles POST /payments/order. Amount arrives in rupees and is
// converted to paise for the gateway; the response echoes the gateway order
// with the amount still in paise.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if req.Amount <= 0 {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "amount must be greater than zero", nil)
		return
	}
	if h.Gateway == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeConfiguration,
			"Payment gateway configuration error", nil)
		return
	}
	amountPaise := int64(math.Round(req.Amount * 100))
	order, err := h.Gateway.CreateOrder(r.Context(), amountPaise, req.Receipt)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	record := db.PaymentOrder{
		ID:          order.ID,
		OrderID:     strings.TrimSpace(req.OrderID),
		AmountPaise: order.Amount,
		Currency:    order.Currency,
		Receipt:     order.Receipt,
		Status:      order.Status,
	}
	if err := h.Store.InsertPaymentOrder(r.Context(), record); err != nil {
		h.Log.Error().Err(err).Str("razorpay_order_id", order.ID).Msg("persist payment order failed")
	}
	common.JSON(w, http.StatusOK, order)
}

type verifyRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (req verifyRequest) complete() bool {
	return strings.TrimSpace(req.RazorpayOrderID) != "" &&
		strings.TrimSpace(req.RazorpayPaymentID) != "" &&
		strings.TrimSpace(req.RazorpaySignature) != ""
}

// Verify handles POST /payments/verify. The response shape is fixed by the
// storefront client: {"status":"success"} or a 400 with
// {"status":"failed","error":"Invalid signature"}.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeVerify(w, r)
	if !ok {
		return
	}
	if !VerifyPaymentSignature(h.KeySecret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if obs.PaymentVerifyTotal != nil {
			obs.PaymentVerifyTotal.WithLabelValues("invalid").Inc()
		}
		common.JSON(w, http.StatusBadRequest, map[string]string{"status": "failed", "error": "Invalid signature"})
		return
	}
	if obs.PaymentVerifyTotal != nil {
		obs.PaymentVerifyTotal.WithLabelValues("valid").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// Confirm handles POST /payments/confirm: verify the client signature and
// settle the owning order. Settlement races the webhook; whichever path wins
// the compare-and-set records the payment, the other is a no-op.
func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeVerify(w, r)
	if !ok {
		return
	}
	if !VerifyPaymentSignature(h.KeySecret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		if obs.PaymentVerifyTotal != nil {
			obs.PaymentVerifyTotal.WithLabelValues("invalid").Inc()
		}
		common.JSON(w, http.StatusBadRequest, map[string]string{"status": "failed", "error": "Invalid signature"})
		return
	}
	o, settled, err := h.Settler.Settle(r.Context(), req.RazorpayOrderID, req.RazorpayPaymentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"orderId": o.ID,
		"settled": settled,
	})
}

func (h *Handlers) decodeVerify(w http.ResponseWriter, r *http.Request) (verifyRequest, bool) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return req, false
	}
	if !req.complete() {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "missing payment verification fields", nil)
		return req, false
	}
	if strings.TrimSpace(h.KeySecret) == "" {
		common.JSONError(w, http.StatusInternalServerError, common.CodeConfiguration,
			"Payment gateway configuration error", nil)
		return req, false
	}
	return req, true
}
