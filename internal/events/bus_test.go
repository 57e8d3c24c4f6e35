package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jordanella.com/clickwatch/internal/logging"
)

func newTestBus() *DefaultEventBus {
	return NewEventBus(16, logging.NewLogger("test"))
}

func waitFor(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	bus := newTestBus()
	defer bus.Stop()

	received := make(chan Event, 1)
	bus.Subscribe(EventTypeClickPerformed, func(e Event) { received <- e })

	bus.Publish(NewClickPerformedEvent("w1", 120, 340, false, true))

	e := waitFor(t, received)
	assert.Equal(t, EventTypeClickPerformed, e.Type)
	assert.Equal(t, "w1", e.Data["window_id"])
	assert.Equal(t, true, e.Data["succeeded"])
	assert.False(t, e.Timestamp.IsZero())
}

func TestSubscribersFilteredByType(t *testing.T) {
	bus := newTestBus()
	defer bus.Stop()

	received := make(chan Event, 2)
	bus.Subscribe(EventTypeFreezeDetected, func(e Event) { received <- e })

	bus.Publish(NewClickPerformedEvent("w1", 0, 0, false, true))
	bus.Publish(NewFreezeDetectedEvent("w2", 30*time.Second, 3))

	e := waitFor(t, received)
	assert.Equal(t, EventTypeFreezeDetected, e.Type)
	assert.Equal(t, "w2", e.Data["window_id"])

	select {
	case extra := <-received:
		t.Fatalf("unexpected extra event %s", extra.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := newTestBus()
	defer bus.Stop()

	var mu sync.Mutex
	count := 0
	id := bus.Subscribe(EventTypeWatcherPaused, func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(NewWatcherPausedEvent("test"))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, 2*time.Second, 10*time.Millisecond)

	bus.Unsubscribe(id)
	assert.Zero(t, bus.GetSubscriberCount(EventTypeWatcherPaused))

	bus.Publish(NewWatcherPausedEvent("again"))
	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	bus := newTestBus()
	defer bus.Stop()

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		bus.Subscribe(EventTypeCycleCompleted, func(e Event) { wg.Done() })
	}
	assert.Equal(t, 3, bus.GetSubscriberCount(EventTypeCycleCompleted))

	bus.Publish(NewCycleCompletedEvent(1, 2, 1, 1, time.Second))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not every subscriber was notified")
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := newTestBus()
	defer bus.Stop()

	received := make(chan Event, 1)
	bus.Subscribe(EventTypeError, func(e Event) { panic("bad handler") })
	bus.Subscribe(EventTypeError, func(e Event) { received <- e })

	bus.Publish(NewErrorEvent("test", "engine", assert.AnError, nil))
	waitFor(t, received)
}

func TestStopDrainsQueue(t *testing.T) {
	bus := newTestBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(EventTypeCandidateDetected, func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		bus.Publish(NewCandidateDetectedEvent("w1", "text", "Continue", 0.9))
	}
	bus.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 10
	}, 2*time.Second, 10*time.Millisecond, "queued events are dispatched before shutdown")
}

func TestPublishAfterStopIsDropped(t *testing.T) {
	bus := newTestBus()
	bus.Stop()

	// Must not block or panic
	bus.Publish(NewWatcherResumedEvent())
}
