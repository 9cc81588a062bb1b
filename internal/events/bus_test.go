package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/babajiachar/storefront-api/internal/events"
)

type recordingStore struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (s *recordingStore) InsertDomainEvent(_ context.Context, topic string, payload []byte) error {
	if s.err != nil {
		return s.err
	}
	s.topics = append(s.topics, topic)
	s.payloads = append(s.payloads, payload)
	return nil
}

type recordingNotifier struct {
	events []events.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev events.Event) error {
	n.events = append(n.events, ev)
	return n.err
}

func TestEmitPersistsAndFansOut(t *testing.T) {
	store := &recordingStore{}
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{first, second}}

	ev, err := bus.Emit(context.Background(), events.TopicOrderPaid, "ORD-1", map[string]any{"orderId": "ORD-1"})
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderPaid, ev.Topic)
	require.Equal(t, "ORD-1", ev.AggregateID)
	require.JSONEq(t, `{"orderId":"ORD-1"}`, string(ev.Payload))

	require.Equal(t, []string{events.TopicOrderPaid}, store.topics)
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
}

func TestEmitJoinsNotifierFailures(t *testing.T) {
	store := &recordingStore{}
	failing := &recordingNotifier{err: errors.New("enqueue down")}
	healthy := &recordingNotifier{}
	bus := &events.Bus{Store: store, Notifiers: []events.Notifier{failing, healthy}}

	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, "ORD-1", nil)
	require.Error(t, err)
	// persistence and the healthy notifier still ran
	require.Len(t, store.topics, 1)
	require.Len(t, healthy.events, 1)
}

func TestEmitValidation(t *testing.T) {
	bus := &events.Bus{Store: &recordingStore{}}

	_, err := bus.Emit(context.Background(), "", "ORD-1", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "", nil)
	require.Error(t, err)

	_, err = bus.Emit(context.Background(), events.TopicOrderCreated, "ORD-1", []byte("not-json"))
	require.Error(t, err)
}

func TestEmitStoreFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	bus := &events.Bus{Store: &recordingStore{err: errors.New("db down")}, Notifiers: []events.Notifier{notifier}}

	_, err := bus.Emit(context.Background(), events.TopicOrderCreated, "ORD-1", nil)
	require.Error(t, err)
	require.Empty(t, notifier.events, "handlers must not see unpersisted events")
}
