package platform

import (
	"context"
	"fmt"
	"math"
	"net/http"

	"github.com/atrium-home/atrium-core/internal/command"
	"github.com/atrium-home/atrium-core/internal/directory"
)

// hueMaxBrightness is the bridge's brightness scale ceiling.
const hueMaxBrightness = 254

// HuePlatform drives lights behind a Hue-compatible bridge:
// PUT http://{host}/api/{api_key}/lights/{light_id}/state.
//
// Device addresses carry "host", "api_key" and "light_id". Property values
// are translated from the directory's percentage scale to the bridge's.
type HuePlatform struct {
	channel     *command.Channel
	maxAttempts int
	logger      Logger
}

// NewHuePlatform creates the Hue bridge adapter on the shared command
// channel.
func NewHuePlatform(ch *command.Channel, maxAttempts int) *HuePlatform {
	if maxAttempts < 1 {
		maxAttempts = command.DefaultMaxAttempts
	}
	return &HuePlatform{channel: ch, maxAttempts: maxAttempts, logger: noopLogger{}}
}

// SetLogger sets the logger for the adapter.
func (p *HuePlatform) SetLogger(logger Logger) {
	p.logger = logger
}

// Type returns the platform identifier.
func (p *HuePlatform) Type() string {
	return TypeHue
}

// Process applies a single update.
func (p *HuePlatform) Process(ctx context.Context, update Update) bool {
	return p.ProcessBatch(ctx, []Update{update})
}

// ProcessBatch applies updates in order; all must succeed.
func (p *HuePlatform) ProcessBatch(ctx context.Context, updates []Update) bool {
	ok := true
	for _, u := range updates {
		if !p.processOne(ctx, u) {
			ok = false
		}
	}
	return ok
}

func (p *HuePlatform) processOne(ctx context.Context, u Update) bool {
	host, _ := u.Device.Address["host"].(string)
	apiKey, _ := u.Device.Address["api_key"].(string)
	lightID, _ := u.Device.Address["light_id"].(string)
	if host == "" || apiKey == "" || lightID == "" {
		p.logger.Warn("unaddressable hue device", "device_id", u.Device.ID)
		return false
	}

	state, err := hueState(u)
	if err != nil {
		p.logger.Warn("untranslatable hue update",
			"device_id", u.Device.ID, "property_id", u.PropertyID, "error", err)
		return false
	}

	endpoint := fmt.Sprintf("http://%s/api/%s/lights/%s/state", host, apiKey, lightID)
	_, ok := p.channel.Send(ctx, endpoint, state, http.MethodPut, p.maxAttempts, nil)
	return ok
}

// hueState translates one property update into a bridge state document.
func hueState(u Update) (map[string]any, error) {
	if u.Property == nil {
		return nil, fmt.Errorf("update carries no property metadata")
	}

	switch u.Property.Category {
	case directory.PropOn:
		on, ok := u.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("on expects a bool, got %T", u.Value)
		}
		return map[string]any{"on": on}, nil

	case directory.PropBrightness:
		pct, ok := directory.NumericValue(u.Value)
		if !ok {
			return nil, fmt.Errorf("brightness expects a number, got %T", u.Value)
		}
		bri := int(math.Round(pct / 100 * hueMaxBrightness))
		if bri < 0 {
			bri = 0
		}
		if bri > hueMaxBrightness {
			bri = hueMaxBrightness
		}
		return map[string]any{"bri": bri}, nil

	case directory.PropColorTemperature:
		kelvin, ok := directory.NumericValue(u.Value)
		if !ok || kelvin <= 0 {
			return nil, fmt.Errorf("color temperature expects a positive number, got %v", u.Value)
		}
		// The bridge speaks mireds.
		return map[string]any{"ct": int(math.Round(1e6 / kelvin))}, nil

	default:
		return nil, fmt.Errorf("property category %q not supported by the bridge", u.Property.Category)
	}
}
