package flow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHub_FanOut ensures every subscriber receives published events.
func TestHub_FanOut(t *testing.T) {
	t.Parallel()

	hub := NewHub(4)

	first, unsubscribeFirst := hub.Subscribe()
	second, unsubscribeSecond := hub.Subscribe()

	defer unsubscribeSecond()

	require.Equal(t, 2, hub.Len())

	hub.Publish(t.Context(), Event{Kind: EventBusy, Busy: true})

	require.True(t, (<-first).Busy)
	require.True(t, (<-second).Busy)

	unsubscribeFirst()
	unsubscribeFirst()

	_, ok := <-first
	require.False(t, ok)
	require.Equal(t, 1, hub.Len())
}

// TestHub_SlowSubscriber ensures Publish never blocks on a full buffer.
func TestHub_SlowSubscriber(t *testing.T) {
	t.Parallel()

	hub := NewHub(1)

	events, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	hub.Publish(t.Context(), Event{Kind: EventNotice, Text: "first"})
	hub.Publish(t.Context(), Event{Kind: EventNotice, Text: "second"})

	require.Equal(t, "first", (<-events).Text)
	require.Empty(t, events)
}

// TestHub_Close ends open subscriptions and rejects new ones.
func TestHub_Close(t *testing.T) {
	t.Parallel()

	hub := NewHub(0)

	events, unsubscribe := hub.Subscribe()

	hub.Close()
	unsubscribe()

	_, ok := <-events
	require.False(t, ok)

	late, unsubscribeLate := hub.Subscribe()
	defer unsubscribeLate()

	_, ok = <-late
	require.False(t, ok)
	require.Zero(t, hub.Len())

	hub.Publish(t.Context(), Event{Kind: EventBusy})
}
