package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
	"github.com/atrium-home/atrium-core/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the Bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Broker is the narrow MQTT surface the bridge consumes. The infrastructure
// client satisfies it.
type Broker interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// deviceAnnouncement is the retained directory document for one device.
// The announcement may carry the owning space inline.
type deviceAnnouncement struct {
	directory.Device
	Space *directory.Space `json:"space,omitempty"`
}

// propertyReport is one telemetry value report.
type propertyReport struct {
	Value any `json:"value"`
}

// Bridge connects the MQTT namespace to the in-process world: retained
// device announcements and telemetry feed the directory registry and the
// event bus, and emitted core events are mirrored back out for external
// subscribers.
type Bridge struct {
	broker   Broker
	registry *directory.Registry
	bus      *events.Bus
	qos      byte
	topics   mqtt.Topics
	logger   Logger
}

// New creates a bridge between the broker and the registry/bus pair.
func New(broker Broker, registry *directory.Registry, bus *events.Bus, qos byte) *Bridge {
	return &Bridge{
		broker:   broker,
		registry: registry,
		bus:      bus,
		qos:      qos,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Start subscribes to the directory and telemetry topics. Retained
// announcements replay immediately, rebuilding the registry on startup.
func (b *Bridge) Start() error {
	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{b.topics.AllDeviceAnnounce(), b.handleDeviceAnnounce},
		{b.topics.AllDeviceRemoved(), b.handleDeviceRemoved},
		{b.topics.AllPropertyState(), b.handlePropertyState},
	}
	for _, s := range subs {
		if err := b.broker.Subscribe(s.topic, b.qos, s.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", s.topic, err)
		}
	}
	return nil
}

// MirrorEvents republishes the given event kinds to the MQTT event
// namespace so external subscribers see core emissions.
func (b *Bridge) MirrorEvents(kinds ...events.Kind) {
	for _, kind := range kinds {
		b.bus.Subscribe(kind, b.mirror)
	}
}

func (b *Bridge) mirror(evt events.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		b.logger.Error("event not serialisable", "kind", string(evt.Kind), "error", err)
		return
	}
	if err := b.broker.Publish(b.topics.Event(string(evt.Kind)), payload, b.qos, false); err != nil {
		b.logger.Warn("event mirror publish failed", "kind", string(evt.Kind), "error", err)
	}
}

// handleDeviceAnnounce ingests a retained device announcement.
func (b *Bridge) handleDeviceAnnounce(topic string, payload []byte) error {
	deviceID := lastSegment(topic)

	var ann deviceAnnouncement
	if err := json.Unmarshal(payload, &ann); err != nil {
		return fmt.Errorf("decoding announcement for %s: %w", deviceID, err)
	}
	if ann.ID == "" {
		ann.ID = deviceID
	}

	if ann.Space != nil {
		b.registry.UpsertSpace(*ann.Space)
	}
	b.registry.UpsertDevice(&ann.Device)

	b.bus.Publish(events.Event{
		Kind: events.KindDeviceUpdated,
		Payload: map[string]any{
			events.PayloadDeviceID: ann.ID,
		},
	})
	b.logger.Debug("device announced", "device_id", ann.ID)
	return nil
}

// handleDeviceRemoved drops a device from the registry.
func (b *Bridge) handleDeviceRemoved(topic string, _ []byte) error {
	deviceID := lastSegment(topic)
	b.registry.RemoveDevice(deviceID)

	b.bus.Publish(events.Event{
		Kind: events.KindDeviceRemoved,
		Payload: map[string]any{
			events.PayloadDeviceID: deviceID,
		},
	})
	b.logger.Info("device removed", "device_id", deviceID)
	return nil
}

// handlePropertyState ingests one telemetry report and publishes the
// property-updated event that feeds the change listeners.
func (b *Bridge) handlePropertyState(topic string, payload []byte) error {
	parts := strings.Split(topic, "/")
	if len(parts) < 5 {
		return fmt.Errorf("malformed telemetry topic %q", topic)
	}
	propertyID := parts[len(parts)-1]

	var report propertyReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("decoding report for %s: %w", propertyID, err)
	}

	if err := b.registry.SetPropertyValue(propertyID, report.Value); err != nil {
		// Telemetry for devices not yet announced is expected during startup.
		b.logger.Debug("report for unknown property", "property_id", propertyID)
		return nil
	}

	payload2 := map[string]any{
		events.PayloadPropertyID: propertyID,
		events.PayloadValue:      report.Value,
	}
	if ref, err := b.registry.ResolveProperty(context.Background(), propertyID); err == nil {
		payload2[events.PayloadCategory] = string(ref.Property.Category)
	}

	b.bus.Publish(events.Event{
		Kind:    events.KindPropertyUpdated,
		Payload: payload2,
	})
	return nil
}

func lastSegment(topic string) string {
	idx := strings.LastIndexByte(topic, '/')
	if idx < 0 {
		return topic
	}
	return topic[idx+1:]
}
