package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	ch1, cancel1 := bus.Subscribe()
	defer cancel1()
	ch2, cancel2 := bus.Subscribe()
	defer cancel2()

	ev := RefreshCompleted{Timestamp: time.Now(), Type: "scheduled", Success: true}
	bus.Publish(ev)

	for _, ch := range []<-chan RefreshCompleted{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, ev.Type, got.Type)
			assert.True(t, got.Success)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBus_LateSubscriberMissesEarlierEvents(t *testing.T) {
	bus := NewBus()

	bus.Publish(RefreshCompleted{Type: "manual"})

	ch, cancel := bus.Subscribe()
	defer cancel()

	select {
	case <-ch:
		t.Fatal("late subscriber saw an event published before it attached")
	default:
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Cancelling twice is safe, and the bus keeps working
	cancel()
	bus.Publish(RefreshCompleted{Type: "manual"})
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// More events than the subscriber buffer holds
		for i := 0; i < 20; i++ {
			bus.Publish(RefreshCompleted{Type: "scheduled"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}

	// The buffered events are still readable
	require.NotEmpty(t, ch)
}
