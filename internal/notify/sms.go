package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// SMSSender is a placeholder for a DLT-compliant SMS gateway. Until a gateway
// account exists the sender runs in trial mode: messages are logged, not sent.
type SMSSender struct {
	APIKey   string
	SenderID string
	Log      zerolog.Logger
}

// Configured reports whether gateway credentials are present.
func (s *SMSSender) Configured() bool {
	return s != nil && strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.SenderID) != ""
}

// Send queues a message with the gateway. Currently logs and succeeds so the
// outbox pipeline can be exercised end to end before the gateway is live.
func (s *SMSSender) Send(ctx context.Context, phone, message string) error {
	s.Log.Info().
		Str("phone", phone).
		Str("sender_id", s.SenderID).
		Int("length", len(message)).
		Msg("sms queued")
	return nil
}
