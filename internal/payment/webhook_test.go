package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/payment"
)

type stubSettler struct {
	orders   map[string]db.Order
	settled  []string
	winFirst bool
	wins     int
	failures int
}

func (s *stubSettler) OrderByGatewayID(_ context.Context, razorpayOrderID string) (db.Order, error) {
	o, ok := s.orders[razorpayOrderID]
	if !ok {
		return db.Order{}, db.ErrNotFound
	}
	return o, nil
}

func (s *stubSettler) Settle(_ context.Context, razorpayOrderID, razorpayPaymentID string) (db.Order, bool, error) {
	if s.failures > 0 {
		s.failures--
		return db.Order{}, false, errors.New("database unavailable")
	}
	o, ok := s.orders[razorpayOrderID]
	if !ok {
		return db.Order{}, false, db.ErrNotFound
	}
	s.settled = append(s.settled, razorpayPaymentID)
	won := s.winFirst && s.wins == 0
	if won {
		s.wins++
		o.Status = "Payment_Received"
		o.PaymentStatus = "Paid"
		o.RazorpayPaymentID = razorpayPaymentID
	}
	return o, won, nil
}

type stubPaymentStore struct {
	inserted []db.PaymentOrder
	paid     []string
}

func (s *stubPaymentStore) InsertPaymentOrder(_ context.Context, p db.PaymentOrder) error {
	s.inserted = append(s.inserted, p)
	return nil
}

func (s *stubPaymentStore) MarkPaymentOrderPaid(_ context.Context, id string) error {
	s.paid = append(s.paid, id)
	return nil
}

const webhookSecret = "webhook_secret"

func newWebhookHandler(t *testing.T, settler *stubSettler, store *stubPaymentStore) *payment.WebhookHandler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	// Assign the interface only for a non-nil pointer so a nil *stubPaymentStore
	// doesn't become a typed-nil interface that defeats the handler's nil guard.
	var ps payment.PaymentOrderStore
	if store != nil {
		ps = store
	}
	return &payment.WebhookHandler{
		Secret:  webhookSecret,
		Settler: settler,
		Store:   ps,
		Replay:  &payment.ReplayGuard{R: client},
		Log:     zerolog.Nop(),
	}
}

func capturedBody(t *testing.T, event, razorpayOrderID, paymentID string, amountPaise int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":       paymentID,
					"order_id": razorpayOrderID,
					"amount":   amountPaise,
				},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func deliver(h *payment.WebhookHandler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(body))
	if signature != "" {
		req.Header.Set(payment.SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestWebhookSettlesOrderOnce(t *testing.T) {
	settler := &stubSettler{
		orders: map[string]db.Order{
			"order_rzp_499": {ID: "ORD-AB12CD34", RazorpayOrderID: "order_rzp_499", TotalPaise: 49900, Status: "Pending_Payment"},
		},
		winFirst: true,
	}
	store := &stubPaymentStore{}
	h := newWebhookHandler(t, settler, store)

	body := capturedBody(t, payment.EventPaymentCaptured, "order_rzp_499", "pay_499", 49900)
	sig := payment.SignWebhook(webhookSecret, body)

	rec := deliver(h, body, sig)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"received":true}`, rec.Body.String())
	require.Equal(t, []string{"pay_499"}, settler.settled)
	require.Equal(t, []string{"order_rzp_499"}, store.paid)

	// retried delivery of the same body is acknowledged without reprocessing
	rec = deliver(h, body, sig)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"received":true}`, rec.Body.String())
	require.Len(t, settler.settled, 1)
	require.Len(t, store.paid, 1)
}

func TestWebhookRetriesAfterSettleFailure(t *testing.T) {
	settler := &stubSettler{
		orders: map[string]db.Order{
			"order_rzp_499": {ID: "ORD-AB12CD34", RazorpayOrderID: "order_rzp_499", TotalPaise: 49900, Status: "Pending_Payment"},
		},
		winFirst: true,
		failures: 1,
	}
	store := &stubPaymentStore{}
	h := newWebhookHandler(t, settler, store)

	body := capturedBody(t, payment.EventPaymentCaptured, "order_rzp_499", "pay_499", 49900)
	sig := payment.SignWebhook(webhookSecret, body)

	rec := deliver(h, body, sig)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, settler.settled)

	// the provider redelivers the identical body; the failed attempt must not
	// have claimed it as seen
	rec = deliver(h, body, sig)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"received":true}`, rec.Body.String())
	require.Equal(t, []string{"pay_499"}, settler.settled)
	require.Equal(t, []string{"order_rzp_499"}, store.paid)
}

func TestWebhookRetriesAfterUnknownOrder(t *testing.T) {
	settler := &stubSettler{orders: map[string]db.Order{}, winFirst: true}
	h := newWebhookHandler(t, settler, nil)

	body := capturedBody(t, payment.EventOrderPaid, "order_rzp_42", "pay_42", 19900)
	sig := payment.SignWebhook(webhookSecret, body)

	rec := deliver(h, body, sig)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// order becomes visible before the redelivery
	settler.orders["order_rzp_42"] = db.Order{ID: "ORD-42", RazorpayOrderID: "order_rzp_42", TotalPaise: 19900, Status: "Pending_Payment"}
	rec = deliver(h, body, sig)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"pay_42"}, settler.settled)
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	settler := &stubSettler{orders: map[string]db.Order{
		"order_rzp_1": {ID: "ORD-1", RazorpayOrderID: "order_rzp_1", TotalPaise: 49900},
	}}
	h := newWebhookHandler(t, settler, nil)

	body := capturedBody(t, payment.EventPaymentCaptured, "order_rzp_1", "pay_1", 49900)
	sig := payment.SignWebhook(webhookSecret, body)

	tampered := bytes.Replace(body, []byte("49900"), []byte("49901"), 1)
	rec := deliver(h, tampered, sig)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, settler.settled)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	settler := &stubSettler{orders: map[string]db.Order{}}
	h := newWebhookHandler(t, settler, nil)

	body := capturedBody(t, payment.EventPaymentCaptured, "order_rzp_1", "pay_1", 49900)
	rec := deliver(h, body, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, settler.settled)
}

func TestWebhookUnknownOrder(t *testing.T) {
	settler := &stubSettler{orders: map[string]db.Order{}}
	h := newWebhookHandler(t, settler, nil)

	body := capturedBody(t, payment.EventOrderPaid, "order_rzp_missing", "pay_9", 10000)
	rec := deliver(h, body, payment.SignWebhook(webhookSecret, body))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, settler.settled)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	settler := &stubSettler{orders: map[string]db.Order{
		"order_rzp_1": {ID: "ORD-1", RazorpayOrderID: "order_rzp_1", TotalPaise: 49900},
	}}
	h := newWebhookHandler(t, settler, nil)

	body := capturedBody(t, "payment.failed", "order_rzp_1", "pay_1", 49900)
	rec := deliver(h, body, payment.SignWebhook(webhookSecret, body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"received":true}`, rec.Body.String())
	require.Empty(t, settler.settled)
}

func TestWebhookRejectsAmountMismatch(t *testing.T) {
	settler := &stubSettler{orders: map[string]db.Order{
		"order_rzp_1": {ID: "ORD-1", RazorpayOrderID: "order_rzp_1", TotalPaise: 49900},
	}}
	h := newWebhookHandler(t, settler, nil)

	body := capturedBody(t, payment.EventPaymentCaptured, "order_rzp_1", "pay_1", 100)
	rec := deliver(h, body, payment.SignWebhook(webhookSecret, body))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, settler.settled)
}

func TestWebhookRequiresSecret(t *testing.T) {
	h := &payment.WebhookHandler{Log: zerolog.Nop()}
	body := capturedBody(t, payment.EventPaymentCaptured, "order_rzp_1", "pay_1", 49900)
	rec := deliver(h, body, "whatever")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
