package payment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/payment"
)

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	h := &payment.Handlers{KeySecret: "secret", Log: zerolog.Nop()}
	for _, body := range []string{
		`{"amount":0}`,
		`{"amount":-5}`,
		`{}`,
	} {
		rec := postJSON(h.CreateOrder, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}

func TestCreateOrderWithoutGateway(t *testing.T) {
	h := &payment.Handlers{KeySecret: "secret", Log: zerolog.Nop()}
	rec := postJSON(h.CreateOrder, `{"amount":499}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "CONFIGURATION_ERROR", resp.Error.Code)
	require.Equal(t, "Payment gateway configuration error", resp.Error.Message)
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	const secret = "key_secret"
	h := &payment.Handlers{KeySecret: secret, Log: zerolog.Nop()}
	sig := payment.SignPayment(secret, "order_rzp_1", "pay_1")
	rec := postJSON(h.Verify,
		`{"razorpay_order_id":"order_rzp_1","razorpay_payment_id":"pay_1","razorpay_signature":"`+sig+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"success"}`, rec.Body.String())
}

func TestVerifyRejectsInvalidSignature(t *testing.T) {
	h := &payment.Handlers{KeySecret: "key_secret", Log: zerolog.Nop()}
	rec := postJSON(h.Verify,
		`{"razorpay_order_id":"order_rzp_1","razorpay_payment_id":"pay_1","razorpay_signature":"deadbeef"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"status":"failed","error":"Invalid signature"}`, rec.Body.String())
}

func TestVerifyRejectsMissingFields(t *testing.T) {
	h := &payment.Handlers{KeySecret: "key_secret", Log: zerolog.Nop()}
	rec := postJSON(h.Verify, `{"razorpay_order_id":"order_rzp_1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "missing payment verification fields")
}

func TestVerifyWithoutSecret(t *testing.T) {
	h := &payment.Handlers{Log: zerolog.Nop()}
	sig := payment.SignPayment("anything", "order_rzp_1", "pay_1")
	rec := postJSON(h.Verify,
		`{"razorpay_order_id":"order_rzp_1","razorpay_payment_id":"pay_1","razorpay_signature":"`+sig+`"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestConfirmSettlesOrder(t *testing.T) {
	const secret = "key_secret"
	settler := &stubSettler{
		orders: map[string]db.Order{
			"order_rzp_1": {ID: "ORD-AB12CD34", RazorpayOrderID: "order_rzp_1", TotalPaise: 49900},
		},
		winFirst: true,
	}
	h := &payment.Handlers{KeySecret: secret, Settler: settler, Log: zerolog.Nop()}

	sig := payment.SignPayment(secret, "order_rzp_1", "pay_1")
	rec := postJSON(h.Confirm,
		`{"razorpay_order_id":"order_rzp_1","razorpay_payment_id":"pay_1","razorpay_signature":"`+sig+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status  string `json:"status"`
		OrderID string `json:"orderId"`
		Settled bool   `json:"settled"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	require.Equal(t, "ORD-AB12CD34", resp.OrderID)
	require.True(t, resp.Settled)
	require.Equal(t, []string{"pay_1"}, settler.settled)
}

func TestConfirmUnknownOrder(t *testing.T) {
	const secret = "key_secret"
	settler := &stubSettler{orders: map[string]db.Order{}}
	h := &payment.Handlers{KeySecret: secret, Settler: settler, Log: zerolog.Nop()}

	sig := payment.SignPayment(secret, "order_rzp_missing", "pay_1")
	rec := postJSON(h.Confirm,
		`{"razorpay_order_id":"order_rzp_missing","razorpay_payment_id":"pay_1","razorpay_signature":"`+sig+`"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, settler.settled)
}

func TestConfirmRejectsBadSignature(t *testing.T) {
	settler := &stubSettler{orders: map[string]db.Order{
		"order_rzp_1": {ID: "ORD-1", RazorpayOrderID: "order_rzp_1"},
	}}
	h := &payment.Handlers{KeySecret: "key_secret", Settler: settler, Log: zerolog.Nop()}
	rec := postJSON(h.Confirm,
		`{"razorpay_order_id":"order_rzp_1","razorpay_payment_id":"pay_1","razorpay_signature":"deadbeef"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"status":"failed","error":"Invalid signature"}`, rec.Body.String())
	require.Empty(t, settler.settled)
}
