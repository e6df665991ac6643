package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	channel "github.com/planweave/planweave/pkg/channels/gochannel"
	"github.com/planweave/planweave/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := channel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func waitForEvent(t *testing.T, received <-chan any) any {
	t.Helper()

	select {
	case event := <-received:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")

		return nil
	}
}

func TestWatermillEventBusPlanAcceptedRoundTrip(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan any, 1)

	err := bus.Handle(events.PlanAcceptedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(context.Background()))

	sent := events.PlanAccepted{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.PlanAcceptedEvent,
			Timestamp: time.Now().UTC(),
			SessionID: "session-1",
		},
		WorkflowID: "wf-1",
		NodeCount:  3,
	}
	require.NoError(t, bus.Publish(context.Background(), "session-1", sent))

	got, ok := waitForEvent(t, received).(*events.PlanAccepted)
	require.True(t, ok)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, 3, got.NodeCount)
	assert.Equal(t, "session-1", got.SessionID)
}

func TestWatermillEventBusPlanRejectedRoundTrip(t *testing.T) {
	bus := newTestBus(t)
	received := make(chan any, 1)

	err := bus.Handle(events.PlanRejectedEvent, func(_ context.Context, event any) error {
		received <- event

		return nil
	})
	require.NoError(t, err)
	require.NoError(t, bus.Subscribe(context.Background()))

	sent := events.PlanRejected{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.PlanRejectedEvent,
			Timestamp: time.Now().UTC(),
			SessionID: "session-2",
		},
		Prompt:  "loop forever",
		Defects: []string{"Circular dependency detected in workflow connections"},
	}
	require.NoError(t, bus.Publish(context.Background(), "session-2", sent))

	got, ok := waitForEvent(t, received).(*events.PlanRejected)
	require.True(t, ok)
	assert.Equal(t, "loop forever", got.Prompt)
	require.Len(t, got.Defects, 1)
}

func TestWatermillEventBusGenerateID(t *testing.T) {
	bus := newTestBus(t)

	first := bus.GenerateID()
	second := bus.GenerateID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
