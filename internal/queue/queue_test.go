package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)

	var mu sync.Mutex
	var got LifecycleEvent
	require.NoError(t, q.Subscribe(TopicLifecycleEvents, func(payload any) error {
		mu.Lock()
		got = payload.(LifecycleEvent)
		mu.Unlock()
		wg.Done()
		return nil
	}))

	ev := LifecycleEvent{Trigger: "booking_confirmation", AppointmentID: 42}
	require.NoError(t, q.Publish(TopicLifecycleEvents, ev))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ev, got)
}

func TestPublishWithoutSubscriberFails(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())
	assert.Error(t, q.Publish(TopicLifecycleEvents, LifecycleEvent{}))
}

func TestFailedJobIsRetried(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})
	require.NoError(t, q.Subscribe(TopicLifecycleEvents, func(payload any) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}))

	require.NoError(t, q.Publish(TopicLifecycleEvents, LifecycleEvent{Trigger: "follow_up"}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not retried to success")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestLifecycleSubscriberDropsInvalidPayload(t *testing.T) {
	q := NewInMemoryQueue(zap.NewNop())

	handled := make(chan LifecycleEvent, 1)
	StartLifecycleSubscriber(q, zap.NewNop(), func(ev LifecycleEvent) error {
		handled <- ev
		return nil
	})

	// Subscribe runs in a goroutine; wait for registration.
	require.Eventually(t, func() bool {
		return q.Publish(TopicLifecycleEvents, "not-an-event") == nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, q.Publish(TopicLifecycleEvents, LifecycleEvent{Trigger: "no_show", AppointmentID: 7}))

	select {
	case ev := <-handled:
		assert.Equal(t, "no_show", ev.Trigger)
		assert.Equal(t, int64(7), ev.AppointmentID)
	case <-time.After(2 * time.Second):
		t.Fatal("valid event was not handled")
	}
}
