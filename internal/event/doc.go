// Package event provides the topic-based event bus that connects the editor
// engine to its observers.
//
// Events are published as Event[T] values carrying a hierarchical topic such
// as "buffer.modified". Subscribers register a topic pattern, either an exact
// topic, a prefix pattern ending in ".*", or "*" for everything.
//
// Delivery is synchronous: Publish returns after every matching handler has
// run in the publisher's goroutine, in subscription order. Handler errors are
// collected and returned joined; a panicking handler is recovered and reported
// as ErrHandlerPanic without affecting other handlers.
//
// Example:
//
//	bus := event.NewBus()
//	sub, _ := bus.Subscribe(event.TopicBufferModified, func(ctx context.Context, ev any) error {
//	    e := ev.(event.Event[event.BufferModified])
//	    fmt.Println("modified", e.Payload.BufferID)
//	    return nil
//	})
//	defer bus.Unsubscribe(sub)
package event
