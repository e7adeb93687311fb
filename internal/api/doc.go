// Package api implements the HTTP REST API and WebSocket server for Atrium Core.
//
// This package provides:
//   - REST endpoints for capability state, role assignments, and scene execution
//   - WebSocket hub for real-time event broadcasts
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The API server sits between user interfaces and the device directory +
// event bus. Role edits and scene executions flow through the domain services,
// which publish events onto the bus; the server relays those events to
// WebSocket clients subscribed to the matching channel.
//
// # Graceful Degradation
//
// The server operates without a time-series backend or MQTT broker — reads,
// role management, and WebSocket connections keep working.
package api
