// Package bridge connects the MQTT namespace to the in-process core.
//
// Inbound, it subscribes to retained device announcements, removals and
// telemetry reports, keeps the directory registry current and publishes the
// property-updated events that drive the change listeners. Outbound, it
// mirrors selected core events to the event topic namespace for external
// subscribers.
package bridge
