package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Detection events
	EventTypeCandidateDetected EventType = "detection.candidate"
	EventTypeClickPerformed    EventType = "detection.click"

	// Freeze/recovery events
	EventTypeFreezeDetected    EventType = "freeze.detected"
	EventTypeRecoveryAttempted EventType = "freeze.recovery_attempted"

	// Lifecycle events
	EventTypeCycleCompleted EventType = "cycle.completed"
	EventTypeWatcherPaused  EventType = "watcher.paused"
	EventTypeWatcherResumed EventType = "watcher.resumed"

	// Error events
	EventTypeError EventType = "error"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType
	Source    string // component that emitted the event
	Timestamp time.Time
	Data      map[string]interface{}
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking)
	Publish(event Event)

	// PublishAsync sends an event asynchronously (non-blocking)
	PublishAsync(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewCandidateDetectedEvent records one ranked detection hit
func NewCandidateDetectedEvent(windowID, strategy, text string, confidence float64) Event {
	return Event{
		Type:      EventTypeCandidateDetected,
		Source:    "orchestrator",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"window_id":  windowID,
			"strategy":   strategy,
			"text":       text,
			"confidence": confidence,
		},
	}
}

// NewClickPerformedEvent records a click (or the dry-run equivalent)
func NewClickPerformedEvent(windowID string, x, y int, dryRun, succeeded bool) Event {
	return Event{
		Type:      EventTypeClickPerformed,
		Source:    "orchestrator",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"window_id": windowID,
			"x":         x,
			"y":         y,
			"dry_run":   dryRun,
			"succeeded": succeeded,
		},
	}
}

// NewFreezeDetectedEvent records a window crossing the freeze threshold
func NewFreezeDetectedEvent(windowID string, unchangedFor time.Duration, unchangedCycles int) Event {
	return Event{
		Type:      EventTypeFreezeDetected,
		Source:    "freeze_tracker",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"window_id":        windowID,
			"unchanged_for":    unchangedFor.String(),
			"unchanged_cycles": unchangedCycles,
		},
	}
}

// NewRecoveryAttemptedEvent records one escalator run and its outcome
func NewRecoveryAttemptedEvent(windowID, method string, succeeded bool) Event {
	return Event{
		Type:      EventTypeRecoveryAttempted,
		Source:    "recovery_escalator",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"window_id": windowID,
			"method":    method,
			"succeeded": succeeded,
		},
	}
}

// NewCycleCompletedEvent records the totals of one polling cycle
func NewCycleCompletedEvent(cycle int64, windows, candidates, clicks int, took time.Duration) Event {
	return Event{
		Type:      EventTypeCycleCompleted,
		Source:    "orchestrator",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"cycle":      cycle,
			"windows":    windows,
			"candidates": candidates,
			"clicks":     clicks,
			"took_ms":    took.Milliseconds(),
		},
	}
}

// NewWatcherPausedEvent records a safety pause with its trigger
func NewWatcherPausedEvent(reason string) Event {
	return Event{
		Type:      EventTypeWatcherPaused,
		Source:    "safety",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reason": reason,
		},
	}
}

// NewWatcherResumedEvent records the end of a safety pause
func NewWatcherResumedEvent() Event {
	return Event{
		Type:      EventTypeWatcherResumed,
		Source:    "safety",
		Timestamp: time.Now(),
		Data:      map[string]interface{}{},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source, component string, err error, metadata map[string]interface{}) Event {
	data := map[string]interface{}{
		"source":    source,
		"component": component,
		"error":     err.Error(),
	}
	for k, v := range metadata {
		data[k] = v
	}

	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}
