package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Topic is a dot-separated event type such as "buffer.modified".
type Topic string

// Matches reports whether t satisfies the subscription pattern.
func (t Topic) Matches(pattern Topic) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(string(pattern), ".*"):
		prefix := strings.TrimSuffix(string(pattern), "*")
		return strings.HasPrefix(string(t), prefix)
	default:
		return t == pattern
	}
}

// Event represents an event in the system.
// Events are immutable once created.
type Event[T any] struct {
	Type     Topic
	Payload  T
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	ID        string
	Timestamp time.Time
	Source    string
}

// NewEvent creates a new event with the given type and payload.
func NewEvent[T any](eventType Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    eventType,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// EventTopic returns the event's topic for type-erased handling.
func (e Event[T]) EventTopic() Topic {
	return e.Type
}

// topicCarrier is implemented by every Event[T].
type topicCarrier interface {
	EventTopic() Topic
}
