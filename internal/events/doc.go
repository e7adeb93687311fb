// Package events provides the in-process event bus that connects the
// orchestration core's modules without direct coupling.
//
// The bus is deliberately synchronous: publishing invokes every handler in
// registration order on the publisher's goroutine, so causally related
// events cannot reorder. Consumers that do slow work (the debounced change
// listener, the MQTT mirror) absorb it on their own side.
package events
