package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/resilience"
)

// WhatsAppSender delivers template messages through the WhatsApp Business API.
type WhatsAppSender struct {
	HTTP          *resilience.HTTPClient
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	Log           zerolog.Logger
}

// Configured reports whether credentials are present. Unconfigured senders
// run in trial mode: sends are skipped, never failed.
func (s *WhatsAppSender) Configured() bool {
	return s != nil && strings.TrimSpace(s.AccessToken) != "" && strings.TrimSpace(s.PhoneNumberID) != ""
}

type waTextParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waComponent struct {
	Type       string        `json:"type"`
	Parameters []waTextParam `json:"parameters"`
}

type waTemplate struct {
	Name       string            `json:"name"`
	Language   map[string]string `json:"language"`
	Components []waComponent     `json:"components"`
}

type waMessage struct {
	MessagingProduct string     `json:"messaging_product"`
	To               string     `json:"to"`
	Type             string     `json:"type"`
	Template         waTemplate `json:"template"`
}

// SendTemplate posts a template message to the Graph API and returns the
// provider message id.
func (s *WhatsAppSender) SendTemplate(ctx context.Context, phone, template string, params []string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("whatsapp sender not configured")
	}
	textParams := make([]waTextParam, 0, len(params))
	for _, p := range params {
		textParams = append(textParams, waTextParam{Type: "text", Text: p})
	}
	msg := waMessage{
		MessagingProduct: "whatsapp",
		To:               phone,
		Type:             "template",
		Template: waTemplate{
			Name:       template,
			Language:   map[string]string{"code": "en"},
			Components: []waComponent{{Type: "body", Parameters: textParams}},
		},
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(s.BaseURL, "/"), s.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("whatsapp api: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("whatsapp api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil && len(decoded.Messages) > 0 {
		return decoded.Messages[0].ID, nil
	}
	return "", nil
}
