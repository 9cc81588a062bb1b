package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/babajiachar/storefront-api/internal/db"
	"github.com/babajiachar/storefront-api/internal/order"
)

// TaskTypeNotifyOrder is the asynq task type for order lifecycle notifications.
const TaskTypeNotifyOrder = "notify:order"

// QueueNotifications is the asynq queue notifications are routed to.
const QueueNotifications = "notifications"

// Notification channels.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
)

// TaskPayload is the serialized notification job. It snapshots the order
// fields the templates need so the worker never re-reads the database.
type TaskPayload struct {
	Template     string   `json:"template"`
	OrderID      string   `json:"orderId"`
	CustomerName string   `json:"customerName"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email,omitempty"`
	Address      string   `json:"address,omitempty"`
	TotalPaise   int64    `json:"totalPaise"`
	Channels     []string `json:"channels"`
}

// Order rebuilds the order snapshot the template helpers consume.
func (p TaskPayload) Order() db.Order {
	return db.Order{
		ID:           p.OrderID,
		CustomerName: p.CustomerName,
		Phone:        p.Phone,
		Email:        p.Email,
		Address:      p.Address,
		TotalPaise:   p.TotalPaise,
	}
}

// Outbox enqueues notification jobs. Consent is applied here: channels the
// customer did not opt into are never enqueued.
type Outbox struct {
	Client     *asynq.Client
	MaxRetry   int
	RetryDelay time.Duration
	Log        zerolog.Logger
}

// EnqueueOrderConfirmation queues the order_confirmation template.
func (o *Outbox) EnqueueOrderConfirmation(ctx context.Context, ord db.Order) error {
	return o.enqueue(ctx, TemplateOrderConfirmation, ord)
}

// EnqueuePaymentStatus queues payment_cod or payment_online depending on how
// the order is paid.
func (o *Outbox) EnqueuePaymentStatus(ctx context.Context, ord db.Order) error {
	template := TemplatePaymentOnline
	if ord.PaymentMethod == order.MethodCOD {
		template = TemplatePaymentCOD
	}
	return o.enqueue(ctx, template, ord)
}

// EnqueueOrderDispatched queues the order_dispatched template.
func (o *Outbox) EnqueueOrderDispatched(ctx context.Context, ord db.Order) error {
	return o.enqueue(ctx, TemplateOrderDispatched, ord)
}

func (o *Outbox) enqueue(ctx context.Context, template string, ord db.Order) error {
	if o == nil || o.Client == nil {
		return nil
	}
	channels := consentedChannels(ord)
	if len(channels) == 0 {
		o.Log.Debug().Str("order_id", ord.ID).Str("template", template).Msg("no consented channels, skipping")
		return nil
	}
	payload, err := json.Marshal(TaskPayload{
		Template:     template,
		OrderID:      ord.ID,
		CustomerName: ord.CustomerName,
		Phone:        ord.Phone,
		Email:        ord.Email,
		Address:      ord.Address,
		TotalPaise:   ord.TotalPaise,
		Channels:     channels,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	maxRetry := o.MaxRetry
	if maxRetry <= 0 {
		maxRetry = 5
	}
	task := asynq.NewTask(TaskTypeNotifyOrder, payload)
	_, err = o.Client.EnqueueContext(ctx, task,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	return nil
}

func consentedChannels(ord db.Order) []string {
	var channels []string
	if ord.ConsentWhatsApp && ord.Phone != "" {
		channels = append(channels, ChannelWhatsApp)
	}
	if ord.ConsentEmail && ord.Email != "" {
		channels = append(channels, ChannelEmail)
	}
	if ord.ConsentSMS && ord.Phone != "" {
		channels = append(channels, ChannelSMS)
	}
	return channels
}
