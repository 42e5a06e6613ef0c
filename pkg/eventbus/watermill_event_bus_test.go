package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reflexhq/reflex/pkg/channels/gochannel"
	"github.com/reflexhq/reflex/pkg/events"
)

func newTestBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	pub, sub := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.Default()))

	return NewWatermillEventBus(pub, sub)
}

func TestPublishAndSubscribe(t *testing.T) {
	bus := newTestBus(t)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ExecutionCompleted, 1)

	bus.Handle(events.ExecutionCompletedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.ExecutionCompleted)

		return nil
	})

	require.NoError(t, bus.Subscribe(ctx))

	published := events.ExecutionCompleted{
		BaseEvent: events.BaseEvent{
			ID:           bus.GenerateID(),
			Type:         events.ExecutionCompletedEvent,
			Timestamp:    time.Now().UTC(),
			AutomationID: "auto_1",
		},
		ExecutionID: "exec_1",
		ActionCount: 2,
	}

	require.NoError(t, bus.Publish(ctx, "auto_1", published))

	select {
	case event := <-received:
		assert.Equal(t, "exec_1", event.ExecutionID)
		assert.Equal(t, "auto_1", event.AutomationID)
		assert.Equal(t, 2, event.ActionCount)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestSubscribe_UnhandledTypesAreAcked(t *testing.T) {
	bus := newTestBus(t)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan struct{}, 1)

	bus.Handle(events.ExecutionFailedEvent, func(_ context.Context, _ any) error {
		received <- struct{}{}

		return nil
	})

	require.NoError(t, bus.Subscribe(ctx))

	// Published type has no handler registered; nothing should arrive.
	triggered := events.AutomationTriggered{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.AutomationTriggeredEvent},
	}
	require.NoError(t, bus.Publish(ctx, "auto_1", triggered))

	select {
	case <-received:
		t.Fatal("handler fired for an unregistered event type")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestGenerateID_Unique(t *testing.T) {
	bus := newTestBus(t)
	defer bus.Close()

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
