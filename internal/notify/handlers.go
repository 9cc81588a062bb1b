package notify

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/common"
	"github.com/babajiachar/storefront-api/internal/db"
)

// Handlers exposes direct send endpoints. They mirror the notification worker
// channels for manual and legacy-client use; when a channel is unconfigured
// they answer 200 with a trial-mode body instead of failing.
type Handlers struct {
	WhatsApp *WhatsAppSender
	Email    *SMTPSender
	SMS      *SMSSender
	Log      zerolog.Logger
}

type whatsappRequest struct {
	Phone        string `json:"phone"`
	TemplateName string `json:"templateName"`
	Parameters   struct {
		Name    string      `json:"name"`
		OrderID string      `json:"order_id"`
		Amount  json.Number `json:"amount"`
		Address string      `json:"address"`
	} `json:"parameters"`
}

// SendWhatsApp handles POST /notify/whatsapp.
func (h *Handlers) SendWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req whatsappRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.TemplateName) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "Missing required fields", nil)
		return
	}
	amountPaise := int64(0)
	if f, err := req.Parameters.Amount.Float64(); err == nil {
		amountPaise = int64(math.Round(f * 100))
	}
	params, ok := TemplateParams(req.TemplateName, db.Order{
		ID:           req.Parameters.OrderID,
		CustomerName: req.Parameters.Name,
		Address:      req.Parameters.Address,
		TotalPaise:   amountPaise,
	})
	if !ok {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "Invalid template name", nil)
		return
	}
	if !h.WhatsApp.Configured() {
		h.Log.Warn().Msg("whatsapp credentials not configured")
		common.JSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "WhatsApp not configured (Trial Mode)",
			"trial":   true,
		})
		return
	}
	messageID, err := h.WhatsApp.SendTemplate(r.Context(), req.Phone, req.TemplateName, params)
	if err != nil {
		h.Log.Error().Err(err).Str("template", req.TemplateName).Msg("whatsapp send failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeUpstream, "WhatsApp API failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"success": true, "messageId": messageID})
}

type emailRequest struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SendEmail handles POST /notify/email.
func (h *Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Subject) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "Missing required fields", nil)
		return
	}
	if !h.Email.Configured() {
		h.Log.Warn().Msg("smtp credentials not configured")
		common.JSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "Email service not configured (Trial Mode)",
			"trial":   true,
		})
		return
	}
	if err := h.Email.Send(r.Context(), req.Email, req.Subject, req.Message); err != nil {
		h.Log.Error().Err(err).Msg("email send failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeUpstream, "Email delivery failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"success": true})
}

type smsRequest struct {
	Phone      string `json:"phone"`
	Message    string `json:"message"`
	TemplateID string `json:"templateId"`
}

// SendSMS handles POST /notify/sms.
func (h *Handlers) SendSMS(w http.ResponseWriter, r *http.Request) {
	var req smsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.Message) == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "Missing required fields", nil)
		return
	}
	if !h.SMS.Configured() {
		h.Log.Warn().Msg("sms gateway credentials not configured")
		common.JSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "SMS service not configured (Trial Mode)",
			"trial":   true,
		})
		return
	}
	if err := h.SMS.Send(r.Context(), req.Phone, req.Message); err != nil {
		h.Log.Error().Err(err).Msg("sms send failed")
		common.JSONError(w, http.StatusInternalServerError, common.CodeUpstream, "SMS delivery failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("SMS queued for %s", req.Phone),
	})
}
