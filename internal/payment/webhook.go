package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/obs"
)

// SignatureHeader carries the webhook HMAC on Razorpay deliveries.
const SignatureHeader = "X-Razorpay-Signature"

// Events that settle an order. Everything else is acknowledged and ignored.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type paymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
}

// WebhookHandler receives Razorpay webhook deliveries.
type WebhookHandler struct {
	Secret  string
	Settler Settler
	Store   PaymentOrderStore
	Replay  *ReplayGuard
	Log     zerolog.Logger
}

// Handle processes POST /webhooks/razorpay. The raw body is authenticated
// before any parsing; a tampered byte fails the HMAC. Settlement is a
// compare-and-set so retried deliveries are harmless.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(h.Secret) == "" {
		common.JSONError(w, http.StatusInternalServerError, common.CodeConfiguration,
			"Webhook configuration error", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "unreadable body", nil)
		return
	}
	signature := r.Header.Get(SignatureHeader)
	if signature == "" || !VerifyWebhookSignature(h.Secret, body, signature) {
		h.count("invalid_signature")
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid webhook signature", nil)
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.count("malformed")
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "malformed webhook payload", nil)
		return
	}
	if envelope.Event != EventPaymentCaptured && envelope.Event != EventOrderPaid {
		h.count("ignored_event")
		h.ack(w)
		return
	}
	entity := envelope.Payload.Payment.Entity
	if strings.TrimSpace(entity.OrderID) == "" || strings.TrimSpace(entity.ID) == "" {
		h.count("malformed")
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "webhook payment entity incomplete", nil)
		return
	}
	if !h.Replay.FirstDelivery(r.Context(), "razorpay", body) {
		h.count("duplicate")
		h.ack(w)
		return
	}

	// Any failure past the claim releases it, so the provider's retry of the
	// same body is processed instead of being acknowledged as a duplicate.
	o, err := h.Settler.OrderByGatewayID(r.Context(), entity.OrderID)
	if err != nil {
		h.Replay.Release(r.Context(), "razorpay", body)
		if errors.Is(err, db.ErrNotFound) {
			h.count("unknown_order")
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "order not found", nil)
			return
		}
		h.count("error")
		common.WriteError(w, err)
		return
	}
	if entity.Amount != o.TotalPaise {
		h.Replay.Release(r.Context(), "razorpay", body)
		h.count("amount_mismatch")
		h.Log.Warn().
			Str("order_id", o.ID).
			Int64("expected_paise", o.TotalPaise).
			Int64("received_paise", entity.Amount).
			Msg("webhook amount mismatch")
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "amount mismatch", nil)
		return
	}

	settled, won, err := h.Settler.Settle(r.Context(), entity.OrderID, entity.ID)
	if err != nil {
		h.Replay.Release(r.Context(), "razorpay", body)
		h.count("error")
		common.WriteError(w, err)
		return
	}
	if won && h.Store != nil {
		if err := h.Store.MarkPaymentOrderPaid(r.Context(), entity.OrderID); err != nil {
			h.Log.Warn().Err(err).Str("razorpay_order_id", entity.OrderID).Msg("mark payment order paid failed")
		}
	}
	h.count("ok")
	h.Log.Info().
		Str("event", envelope.Event).
		Str("order_id", settled.ID).
		Str("razorpay_payment_id", entity.ID).
		Bool("settled_now", won).
		Msg("webhook processed")
	h.ack(w)
}

func (h *WebhookHandler) ack(w http.ResponseWriter) {
	common.JSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) count(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues(result).Inc()
	}
}
