package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Handler processes an event. The event parameter is type-erased; handlers
// type-assert to the Event[T] they expect.
type Handler func(ctx context.Context, event any) error

// Subscription represents an active event subscription.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic pattern.
	Topic() Topic

	// IsActive returns false once the subscription has been cancelled.
	IsActive() bool
}

type subscription struct {
	id        string
	pattern   Topic
	handler   Handler
	cancelled atomic.Bool
}

func (s *subscription) ID() string     { return s.id }
func (s *subscription) Topic() Topic   { return s.pattern }
func (s *subscription) IsActive() bool { return !s.cancelled.Load() }

// Bus is the event bus interface.
type Bus interface {
	Publish(ctx context.Context, event any) error
	Subscribe(pattern Topic, handler Handler) (Subscription, error)
	Unsubscribe(sub Subscription) error
	Stats() Stats
}

// Stats reports bus counters.
type Stats struct {
	Published     uint64
	Delivered     uint64
	HandlerErrors uint64
	Subscriptions int
}

type bus struct {
	mu   sync.RWMutex
	subs []*subscription

	published atomic.Uint64
	delivered atomic.Uint64
	errored   atomic.Uint64
}

// NewBus creates a new synchronous event bus.
func NewBus() Bus {
	return &bus{}
}

// Subscribe registers handler for every event whose topic matches pattern.
func (b *bus) Subscribe(pattern Topic, handler Handler) (Subscription, error) {
	if pattern == "" {
		return nil, ErrInvalidTopic
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	sub := &subscription{id: uuid.NewString(), pattern: pattern, handler: handler}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub, nil
}

// Unsubscribe cancels a subscription. Handlers already running finish normally.
func (b *bus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == sub.ID() {
			s.cancelled.Store(true)
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriptionNotFound
}

// Publish delivers event to every matching subscription synchronously.
// Handlers may subscribe, unsubscribe or publish from inside a handler.
func (b *bus) Publish(ctx context.Context, event any) error {
	carrier, ok := event.(topicCarrier)
	if !ok || carrier.EventTopic() == "" {
		return ErrInvalidEvent
	}
	t := carrier.EventTopic()

	b.mu.RLock()
	matched := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if t.Matches(s.pattern) {
			matched = append(matched, s)
		}
	}
	b.mu.RUnlock()

	b.published.Add(1)

	var errs []error
	for _, s := range matched {
		if !s.IsActive() {
			continue
		}
		if err := b.dispatch(ctx, s, event); err != nil {
			b.errored.Add(1)
			errs = append(errs, &HandlerError{SubscriptionID: s.id, Topic: t, Err: err})
			continue
		}
		b.delivered.Add(1)
	}
	return errors.Join(errs...)
}

func (b *bus) dispatch(ctx context.Context, s *subscription, event any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return s.handler(ctx, event)
}

// Stats returns a snapshot of the bus counters.
func (b *bus) Stats() Stats {
	b.mu.RLock()
	n := len(b.subs)
	b.mu.RUnlock()
	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerErrors: b.errored.Load(),
		Subscriptions: n,
	}
}
