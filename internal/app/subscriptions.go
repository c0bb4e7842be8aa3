package app

import (
	"context"
	"sync"

	"github.com/technocoreai/extcmd/internal/config"
	"github.com/technocoreai/extcmd/internal/event"
)

// subscriptionManager manages event bus subscriptions for the application.
type subscriptionManager struct {
	mu            sync.Mutex
	subscriptions []event.Subscription
	app           *Application
}

// newSubscriptionManager creates a new subscription manager.
func newSubscriptionManager(app *Application) *subscriptionManager {
	return &subscriptionManager{app: app}
}

// setupSubscriptions registers all event subscriptions.
func (sm *subscriptionManager) setupSubscriptions() error {
	if sm.app.eventBus == nil {
		return nil
	}

	handlers := []struct {
		topic event.Topic
		fn    event.Handler
	}{
		{event.TopicBufferModified, sm.handleBufferModified},
		{event.TopicViewClosed, sm.handleViewClosed},
	}
	for _, h := range handlers {
		sub, err := sm.app.eventBus.Subscribe(h.topic, h.fn)
		if err != nil {
			sm.cleanup()
			return err
		}
		sm.addSubscription(sub)
	}
	return nil
}

// addSubscription adds a subscription to the managed list.
func (sm *subscriptionManager) addSubscription(sub event.Subscription) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.subscriptions = append(sm.subscriptions, sub)
}

// cleanup unsubscribes all managed subscriptions.
// Safe to call multiple times (idempotent).
func (sm *subscriptionManager) cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, sub := range sm.subscriptions {
		_ = sm.app.eventBus.Unsubscribe(sub)
	}
	sm.subscriptions = nil
}

// handleBufferModified marks the owning document as modified.
func (sm *subscriptionManager) handleBufferModified(_ context.Context, ev any) error {
	e, ok := ev.(event.Event[event.BufferModified])
	if !ok {
		return nil
	}
	if doc, ok := sm.app.documents.ByBuffer(e.Payload.BufferID); ok {
		doc.SetModified(true)
	}
	return nil
}

// handleViewClosed forgets a closed view.
func (sm *subscriptionManager) handleViewClosed(_ context.Context, ev any) error {
	if e, ok := ev.(event.Event[event.ViewClosed]); ok {
		sm.app.forgetView(e.Payload.ViewID)
	}
	return nil
}

// publishConfigReloaded installs a reloaded configuration and announces it.
func (sm *subscriptionManager) publishConfigReloaded(cfg *config.Config) {
	sm.app.applyConfig(cfg)
	sm.app.logger.Info("configuration reloaded from %s", cfg.Path)

	ev := event.NewEvent(event.TopicConfigReloaded, event.ConfigReloaded{Path: cfg.Path}, "config")
	if err := sm.app.eventBus.Publish(context.Background(), ev); err != nil {
		sm.app.logger.Warn("config reload subscribers: %v", err)
	}
}
