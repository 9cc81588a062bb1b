package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/obs"
)

// Worker consumes notification tasks and fans out to the delivery channels.
type Worker struct {
	WhatsApp *WhatsAppSender
	Email    *SMTPSender
	SMS      *SMSSender
	Log      zerolog.Logger
}

// Register binds task handlers onto the asynq mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeNotifyOrder, w.HandleNotifyOrder)
}

// HandleNotifyOrder delivers one notification job across its channels. An
// unconfigured channel is a trial-mode skip, never a failure; a failed send on
// any configured channel returns an error so asynq retries the task.
func (w *Worker) HandleNotifyOrder(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode notification payload: %v: %w", err, asynq.SkipRetry)
	}
	ord := payload.Order()
	var joined error
	for _, channel := range payload.Channels {
		start := time.Now()
		result := "sent"
		var err error
		switch channel {
		case ChannelWhatsApp:
			err = w.sendWhatsApp(ctx, payload)
		case ChannelEmail:
			err = w.sendEmail(ctx, payload)
		case ChannelSMS:
			err = w.sendSMS(ctx, payload)
		default:
			continue
		}
		if errors.Is(err, errTrialMode) {
			result = "trial"
			err = nil
		} else if err != nil {
			result = "failed"
			joined = errors.Join(joined, fmt.Errorf("%s: %w", channel, err))
		}
		if obs.NotificationsTotal != nil {
			obs.NotificationsTotal.WithLabelValues(channel, result).Inc()
		}
		if obs.NotificationAttemptLatency != nil {
			obs.NotificationAttemptLatency.WithLabelValues(channel, result).
				Observe(obs.DurationMillis(time.Since(start)))
		}
		w.Log.Info().
			Str("order_id", ord.ID).
			Str("template", payload.Template).
			Str("channel", channel).
			Str("result", result).
			Msg("notification attempt")
	}
	return joined
}

var errTrialMode = errors.New("notify: channel not configured")

func (w *Worker) sendWhatsApp(ctx context.Context, payload TaskPayload) error {
	if !w.WhatsApp.Configured() {
		return errTrialMode
	}
	params, ok := TemplateParams(payload.Template, payload.Order())
	if !ok {
		return fmt.Errorf("unknown template %q: %w", payload.Template, asynq.SkipRetry)
	}
	_, err := w.WhatsApp.SendTemplate(ctx, payload.Phone, payload.Template, params)
	return err
}

func (w *Worker) sendEmail(ctx context.Context, payload TaskPayload) error {
	if !w.Email.Configured() {
		return errTrialMode
	}
	ord := payload.Order()
	return w.Email.Send(ctx, payload.Email, Subject(payload.Template, ord), FallbackText(payload.Template, ord))
}

func (w *Worker) sendSMS(ctx context.Context, payload TaskPayload) error {
	if !w.SMS.Configured() {
		return errTrialMode
	}
	return w.SMS.Send(ctx, payload.Phone, FallbackText(payload.Template, payload.Order()))
}
