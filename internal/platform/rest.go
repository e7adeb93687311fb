package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/atrium-home/atrium-core/internal/command"
)

// Platform type identifiers.
const (
	TypeREST = "rest"
	TypeHue  = "hue"
	TypeMQTT = "mqtt"
)

// Logger defines the logging interface used by the platform adapters.
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

// RESTPlatform drives devices exposing the generic Atrium REST contract:
// PUT http://{host}:{port}/api/channels/{channel}/properties/{property}
// with a JSON body of {"value": ...}.
//
// Device addresses carry "host" and optionally "port" and "api_key".
type RESTPlatform struct {
	channel     *command.Channel
	maxAttempts int
	logger      Logger
}

// NewRESTPlatform creates the generic REST adapter on the shared command
// channel.
func NewRESTPlatform(ch *command.Channel, maxAttempts int) *RESTPlatform {
	if maxAttempts < 1 {
		maxAttempts = command.DefaultMaxAttempts
	}
	return &RESTPlatform{channel: ch, maxAttempts: maxAttempts, logger: noopLogger{}}
}

// SetLogger sets the logger for the adapter.
func (p *RESTPlatform) SetLogger(logger Logger) {
	p.logger = logger
}

// Type returns the platform identifier.
func (p *RESTPlatform) Type() string {
	return TypeREST
}

// Process applies a single update.
func (p *RESTPlatform) Process(ctx context.Context, update Update) bool {
	return p.ProcessBatch(ctx, []Update{update})
}

// ProcessBatch applies updates in order; all must succeed.
func (p *RESTPlatform) ProcessBatch(ctx context.Context, updates []Update) bool {
	ok := true
	for _, u := range updates {
		if !p.processOne(ctx, u) {
			ok = false
		}
	}
	return ok
}

func (p *RESTPlatform) processOne(ctx context.Context, u Update) bool {
	base, err := deviceBaseURL(u.Device.Address)
	if err != nil {
		p.logger.Warn("unaddressable rest device", "device_id", u.Device.ID, "error", err)
		return false
	}

	endpoint := fmt.Sprintf("%s/api/channels/%s/properties/%s", base, u.ChannelID, u.PropertyID)
	payload := map[string]any{"value": u.Value}

	var opts *command.Options
	if key, ok := u.Device.Address["api_key"].(string); ok && key != "" {
		opts = &command.Options{Headers: map[string]string{"X-Api-Key": key}}
	}

	_, ok := p.channel.Send(ctx, endpoint, payload, http.MethodPut, p.maxAttempts, opts)
	return ok
}

// deviceBaseURL builds http://host[:port] from a device address map.
// JSON-decoded ports arrive as float64.
func deviceBaseURL(address map[string]any) (string, error) {
	host, _ := address["host"].(string)
	if host == "" {
		return "", fmt.Errorf("address has no host")
	}
	if port, ok := numericAddressField(address["port"]); ok {
		return fmt.Sprintf("http://%s:%d", host, port), nil
	}
	return "http://" + host, nil
}

func numericAddressField(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
