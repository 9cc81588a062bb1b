package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayment computes the checkout signature Razorpay sends back to the
// client after a successful payment: hex HMAC-SHA256 over
// "<order_id>|<payment_id>".
func SignPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPaymentSignature checks a client-supplied payment signature in
// constant time.
func VerifyPaymentSignature(secret, orderID, paymentID, signature string) bool {
	expected := SignPayment(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignWebhook computes the webhook signature: hex HMAC-SHA256 over the raw
// request body.
func SignWebhook(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header value against
// the raw body in constant time.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	expected := SignWebhook(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
