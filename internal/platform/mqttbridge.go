package platform

import (
	"context"
	"encoding/json"

	"github.com/atrium-home/atrium-core/internal/infrastructure/mqtt"
)

// Publisher is the narrow MQTT surface the adapter needs. The
// infrastructure client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTPlatform drives devices whose bridges listen on the command topic
// namespace. Commands are fire-and-forget JSON documents; delivery
// guarantees come from the broker QoS.
type MQTTPlatform struct {
	publisher Publisher
	qos       byte
	topics    mqtt.Topics
	logger    Logger
}

// NewMQTTPlatform creates the MQTT command adapter.
func NewMQTTPlatform(publisher Publisher, qos byte) *MQTTPlatform {
	return &MQTTPlatform{publisher: publisher, qos: qos, logger: noopLogger{}}
}

// SetLogger sets the logger for the adapter.
func (p *MQTTPlatform) SetLogger(logger Logger) {
	p.logger = logger
}

// Type returns the platform identifier.
func (p *MQTTPlatform) Type() string {
	return TypeMQTT
}

// Process applies a single update.
func (p *MQTTPlatform) Process(ctx context.Context, update Update) bool {
	return p.ProcessBatch(ctx, []Update{update})
}

// ProcessBatch applies updates in order; all must succeed.
func (p *MQTTPlatform) ProcessBatch(_ context.Context, updates []Update) bool {
	ok := true
	for _, u := range updates {
		if !p.processOne(u) {
			ok = false
		}
	}
	return ok
}

func (p *MQTTPlatform) processOne(u Update) bool {
	doc := map[string]any{
		"channel_id":  u.ChannelID,
		"property_id": u.PropertyID,
		"value":       u.Value,
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		p.logger.Error("command not serialisable",
			"device_id", u.Device.ID, "property_id", u.PropertyID, "error", err)
		return false
	}

	if err := p.publisher.Publish(p.topics.DeviceCommand(u.Device.ID), payload, p.qos, false); err != nil {
		p.logger.Warn("command publish failed",
			"device_id", u.Device.ID, "error", err)
		return false
	}
	return true
}
