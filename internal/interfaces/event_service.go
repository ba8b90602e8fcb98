package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventEvaluationStarted   EventType = "evaluation_started"
	EventEvaluationProgress  EventType = "evaluation_progress"
	EventEvaluationCompleted EventType = "evaluation_completed"
	EventEvaluationFailed    EventType = "evaluation_failed"
	EventTutorialDeleted     EventType = "tutorial_deleted"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// SubscriptionID identifies a registered handler. Function values are not
// comparable, so Subscribe hands out a token and Unsubscribe takes it back.
type SubscriptionID uint64

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type, returning a token for Unsubscribe
	Subscribe(eventType EventType, handler EventHandler) (SubscriptionID, error)

	// Unsubscribe removes the handler registered under the given token
	Unsubscribe(eventType EventType, id SubscriptionID) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
