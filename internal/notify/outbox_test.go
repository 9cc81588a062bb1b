package notify

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/babajiachar/storefront-api/internal/db"
)

func TestConsentedChannels(t *testing.T) {
	cases := []struct {
		name string
		ord  db.Order
		want []string
	}{
		{
			name: "no consent",
			ord:  db.Order{Phone: "+919876543210", Email: "a@example.com"},
			want: nil,
		},
		{
			name: "whatsapp only",
			ord:  db.Order{Phone: "+919876543210", ConsentWhatsApp: true},
			want: []string{ChannelWhatsApp},
		},
		{
			name: "whatsapp consent without phone",
			ord:  db.Order{ConsentWhatsApp: true},
			want: nil,
		},
		{
			name: "email consent without address",
			ord:  db.Order{Phone: "+919876543210", ConsentEmail: true},
			want: nil,
		},
		{
			name: "all channels",
			ord: db.Order{
				Phone: "+919876543210", Email: "a@example.com",
				ConsentWhatsApp: true, ConsentEmail: true, ConsentSMS: true,
			},
			want: []string{ChannelWhatsApp, ChannelEmail, ChannelSMS},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, consentedChannels(tc.ord))
		})
	}
}

func TestEnqueueHonoursConsent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	outbox := &Outbox{Client: client, Log: zerolog.Nop()}
	ctx := context.Background()

	// opted out: nothing reaches the queue
	err := outbox.EnqueueOrderConfirmation(ctx, db.Order{ID: "ORD-1", Phone: "+919876543210"})
	require.NoError(t, err)
	require.Empty(t, mr.Keys())

	// opted in: the task is enqueued
	err = outbox.EnqueuePaymentStatus(ctx, db.Order{
		ID: "ORD-1", Phone: "+919876543210", ConsentWhatsApp: true, PaymentMethod: "cod",
	})
	require.NoError(t, err)
	require.NotEmpty(t, mr.Keys())
}

func TestEnqueueWithoutClientIsNoop(t *testing.T) {
	outbox := &Outbox{Log: zerolog.Nop()}
	require.NoError(t, outbox.EnqueueOrderDispatched(context.Background(), db.Order{
		ID: "ORD-1", Phone: "+919876543210", ConsentWhatsApp: true,
	}))
}

func TestTaskPayloadSnapshot(t *testing.T) {
	p := TaskPayload{
		Template:     TemplateOrderConfirmation,
		OrderID:      "ORD-1",
		CustomerName: "Asha Verma",
		Phone:        "+919876543210",
		Email:        "asha@example.com",
		Address:      "Prayagraj",
		TotalPaise:   49900,
	}
	o := p.Order()
	require.Equal(t, "ORD-1", o.ID)
	require.Equal(t, "Asha Verma", o.CustomerName)
	require.Equal(t, int64(49900), o.TotalPaise)
	require.Equal(t, "Prayagraj", o.Address)
}
