package events

import (
	"sync"
	"time"
)

// Kind identifies a class of event on the bus.
type Kind string

// Core event kinds. Capability-scoped kinds are derived with the
// constructor functions below.
const (
	// KindPropertyUpdated fires when a device property value changes in
	// the directory cache, regardless of capability.
	KindPropertyUpdated Kind = "property_updated"

	// KindDeviceUpdated fires when a device announcement is ingested.
	KindDeviceUpdated Kind = "device_updated"

	// KindDeviceRemoved fires when a device leaves the directory.
	KindDeviceRemoved Kind = "device_removed"

	// KindSceneExecuted fires after a scene run completes.
	KindSceneExecuted Kind = "scene_executed"
)

// StateChanged is the kind emitted when a space's aggregated state for a
// capability has been recomputed after the debounce window.
func StateChanged(capability string) Kind {
	return Kind(capability + "_state_changed")
}

// TargetCreated is the kind emitted when a role assignment is created.
func TargetCreated(capability string) Kind {
	return Kind(capability + "_target_created")
}

// TargetUpdated is the kind emitted when an existing role assignment changes.
func TargetUpdated(capability string) Kind {
	return Kind(capability + "_target_updated")
}

// TargetDeleted is the kind emitted when a role assignment is removed.
func TargetDeleted(capability string) Kind {
	return Kind(capability + "_target_deleted")
}

// Event is a single occurrence published on the bus.
type Event struct {
	Kind    Kind           `json:"kind"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Handler consumes a published event. Handlers run synchronously on the
// publisher's goroutine and must not block for long.
type Handler func(Event)

// Bus is a synchronous in-process publish/subscribe hub.
//
// Handlers for a kind are invoked in registration order, on the caller's
// goroutine. This keeps event ordering deterministic; anything slow should
// hand off to its own goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Kind][]Handler)}
}

// Subscribe registers a handler for a kind. Subscriptions cannot be removed;
// wiring happens once at startup.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Publish delivers an event to all handlers registered for its kind.
// The event timestamp is set if the caller left it zero.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := b.handlers[evt.Kind]
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}

// HandlerCount returns how many handlers are registered for a kind.
func (b *Bus) HandlerCount(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[kind])
}
