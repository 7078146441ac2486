package eventbus

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelane/carelane/pkg/channels/gochannel"
	"github.com/carelane/carelane/pkg/events"
)

func newTestBus(t *testing.T) EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NewSlogLogger(slog.Default()))
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)
	received := make(chan *events.CandidatePromoted, 1)

	require.NoError(t, bus.Handle(events.CandidatePromotedEvent, func(_ context.Context, event any) error {
		promoted, ok := event.(*events.CandidatePromoted)
		if !ok {
			t.Errorf("unexpected event type %T", event)

			return nil
		}

		received <- promoted

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.CandidatePromoted{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.CandidatePromotedEvent,
			Timestamp: time.Now().UTC(),
			AgencyID:  "agency-1",
		},
		CandidateID: "cand-1",
		CaregiverID: "cg-1",
	}

	require.NoError(t, bus.Publish(ctx, "agency-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, events.CandidatePromotedEvent, got.Type)
		assert.Equal(t, "agency-1", got.AgencyID)
		assert.Equal(t, "cand-1", got.CandidateID)
		assert.Equal(t, "cg-1", got.CaregiverID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestSubscribeAcksEventsWithoutHandlers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)
	received := make(chan *events.LeadScored, 1)

	require.NoError(t, bus.Handle(events.LeadScoredEvent, func(_ context.Context, event any) error {
		scored, ok := event.(*events.LeadScored)
		if ok {
			received <- scored
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	// The test channel blocks Publish until the subscriber acks, so a
	// returned Publish proves the unhandled event did not wedge the loop.
	unhandled := events.MessageSent{
		BaseEvent: events.BaseEvent{
			ID:       bus.GenerateID(),
			Type:     events.MessageSentEvent,
			AgencyID: "agency-1",
		},
		Channel:   "sms",
		Recipient: "+15551234567",
	}
	require.NoError(t, bus.Publish(ctx, "agency-1", unhandled))

	handled := events.LeadScored{
		BaseEvent: events.BaseEvent{
			ID:       bus.GenerateID(),
			Type:     events.LeadScoredEvent,
			AgencyID: "agency-1",
		},
		CaregiverID: "cg-1",
		Score:       70,
		Tier:        "HOT",
	}
	require.NoError(t, bus.Publish(ctx, "agency-1", handled))

	select {
	case got := <-received:
		assert.Equal(t, "cg-1", got.CaregiverID)
		assert.Equal(t, 70, got.Score)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}
