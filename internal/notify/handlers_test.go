package notify_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/babajiachar/storefront-api/internal/notify"
)

func trialHandlers() *notify.Handlers {
	return &notify.Handlers{
		WhatsApp: &notify.WhatsAppSender{},
		Email:    &notify.SMTPSender{},
		SMS:      &notify.SMSSender{},
		Log:      zerolog.Nop(),
	}
}

func send(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

type trialResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Trial   bool   `json:"trial"`
}

func TestSendWhatsAppTrialMode(t *testing.T) {
	rec := send(trialHandlers().SendWhatsApp,
		`{"phone":"+919876543210","templateName":"order_confirmation","parameters":{"name":"Asha","order_id":"ORD-1","amount":499,"address":"Prayagraj"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp trialResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.True(t, resp.Trial)
	require.Equal(t, "WhatsApp not configured (Trial Mode)", resp.Message)
}

func TestSendWhatsAppMissingFields(t *testing.T) {
	rec := send(trialHandlers().SendWhatsApp, `{"templateName":"order_confirmation"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Missing required fields")
}

func TestSendWhatsAppInvalidTemplate(t *testing.T) {
	rec := send(trialHandlers().SendWhatsApp,
		`{"phone":"+919876543210","templateName":"order_refunded","parameters":{}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid template name")
}

func TestSendWhatsAppRoundsAmount(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.HBgL"}]}`))
	}))
	t.Cleanup(srv.Close)

	h := &notify.Handlers{
		WhatsApp: whatsAppSender(srv),
		Email:    &notify.SMTPSender{},
		SMS:      &notify.SMSSender{},
		Log:      zerolog.Nop(),
	}
	rec := send(h.SendWhatsApp,
		`{"phone":"+919876543210","templateName":"payment_online","parameters":{"order_id":"ORD-1","amount":499.35}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// 499.35 rupees is 49935 paise, not a truncated 49934
	body := <-received
	require.Contains(t, string(body), `"499.35"`)
}

func TestSendEmailTrialMode(t *testing.T) {
	rec := send(trialHandlers().SendEmail,
		`{"email":"asha@example.com","subject":"Order confirmed","message":"Dhanyavaad!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp trialResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.True(t, resp.Trial)
	require.Equal(t, "Email service not configured (Trial Mode)", resp.Message)
}

func TestSendEmailMissingFields(t *testing.T) {
	rec := send(trialHandlers().SendEmail, `{"email":"asha@example.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendSMSTrialMode(t *testing.T) {
	rec := send(trialHandlers().SendSMS,
		`{"phone":"+919876543210","message":"Order ORD-1 confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp trialResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.True(t, resp.Trial)
	require.Equal(t, "SMS service not configured (Trial Mode)", resp.Message)
}
