package scene

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
	"github.com/atrium-home/atrium-core/internal/platform"
)

// ErrNoPlatform is returned when a device references an unregistered
// platform type.
var ErrNoPlatform = errors.New("scene: no platform registered for device")

// Logger defines the logging interface used by the Executor.
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

// Action is one property-set step of a scene. ChannelID may be empty, in
// which case the channel is inferred from the property id.
type Action struct {
	ID         string `json:"id"`
	DeviceID   string `json:"device_id"`
	ChannelID  string `json:"channel_id,omitempty"`
	PropertyID string `json:"property_id"`
	Value      any    `json:"value"`
}

// Result is the outcome of one action. Execute returns exactly one Result
// per input action regardless of failures.
type Result struct {
	ActionID string        `json:"action_id"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Ref identifies the scene being executed. SpaceID, Capability and Mode are
// optional; when all are present the execution is recorded as the space's
// last applied mode.
type Ref struct {
	ID         string `json:"id"`
	SpaceID    string `json:"space_id,omitempty"`
	Capability string `json:"capability,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

// AppliedRecorder records a mode application. The history.Store satisfies it.
type AppliedRecorder interface {
	RecordApplied(spaceID, capability, mode string)
}

// ExecutionRecorder records scene execution metrics. The InfluxDB client
// satisfies it.
type ExecutionRecorder interface {
	WriteSceneExecution(sceneID string, total, failed int, duration time.Duration)
}

// Executor validates and runs ordered action batches against the platform
// registry. Stateless per invocation.
type Executor struct {
	dir       directory.Directory
	platforms *platform.Registry
	bus       *events.Bus
	applied   AppliedRecorder
	metrics   ExecutionRecorder
	logger    Logger
}

// NewExecutor creates a scene executor. bus, applied and metrics may be nil.
func NewExecutor(dir directory.Directory, platforms *platform.Registry, bus *events.Bus) *Executor {
	return &Executor{
		dir:       dir,
		platforms: platforms,
		bus:       bus,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the executor.
func (e *Executor) SetLogger(logger Logger) {
	e.logger = logger
}

// SetAppliedRecorder wires the last-applied history store.
func (e *Executor) SetAppliedRecorder(r AppliedRecorder) {
	e.applied = r
}

// SetExecutionRecorder wires the execution metrics sink.
func (e *Executor) SetExecutionRecorder(r ExecutionRecorder) {
	e.metrics = r
}

// Execute runs the actions in order. Every action is evaluated
// independently; a failing action yields a failed Result for that action
// only and the batch always continues. Scenes never abort early.
func (e *Executor) Execute(ctx context.Context, scene Ref, actions []Action) []Result {
	start := time.Now()
	results := make([]Result, 0, len(actions))
	failed := 0

	for _, action := range actions {
		res := e.executeAction(ctx, action)
		if !res.Success {
			failed++
		}
		results = append(results, res)
	}

	elapsed := time.Since(start)
	e.logger.Info("scene executed",
		"scene_id", scene.ID,
		"actions", len(actions),
		"failed", failed,
		"elapsed_ms", elapsed.Milliseconds(),
	)

	if e.metrics != nil {
		e.metrics.WriteSceneExecution(scene.ID, len(actions), failed, elapsed)
	}
	if e.applied != nil && failed == 0 && scene.SpaceID != "" && scene.Capability != "" && scene.Mode != "" {
		e.applied.RecordApplied(scene.SpaceID, scene.Capability, scene.Mode)
	}
	if e.bus != nil {
		e.bus.Publish(events.Event{
			Kind: events.KindSceneExecuted,
			Payload: map[string]any{
				"scene_id":       scene.ID,
				"actions_total":  len(actions),
				"actions_failed": failed,
			},
		})
	}
	return results
}

// ValidateActions runs the same resolution and validation pass as Execute
// without dispatching. It fails fast on the first invalid action; used as a
// pre-save guard where configuration errors should surface immediately.
func (e *Executor) ValidateActions(ctx context.Context, actions []Action) error {
	for i, action := range actions {
		if _, _, err := e.resolve(ctx, action); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, action.ID, err)
		}
	}
	return nil
}

// executeAction resolves, validates and dispatches one action.
func (e *Executor) executeAction(ctx context.Context, action Action) Result {
	start := time.Now()
	res := Result{ActionID: action.ID}

	update, p, err := e.resolve(ctx, action)
	if err != nil {
		res.Error = err.Error()
		res.Elapsed = time.Since(start)
		return res
	}

	if !p.Process(ctx, *update) {
		res.Error = fmt.Sprintf("platform %q did not accept the update", p.Type())
		res.Elapsed = time.Since(start)
		return res
	}

	res.Success = true
	res.Elapsed = time.Since(start)
	return res
}

// resolve maps an action to a dispatchable update: device, channel
// (explicit or inferred from the property), property, writability and value
// checks, then the platform lookup.
func (e *Executor) resolve(ctx context.Context, action Action) (*platform.Update, platform.Platform, error) {
	device, err := e.dir.GetDevice(ctx, action.DeviceID)
	if err != nil {
		return nil, nil, err
	}

	var channel *directory.Channel
	if action.ChannelID != "" {
		channel = device.Channel(action.ChannelID)
		if channel == nil {
			return nil, nil, directory.ErrChannelNotFound
		}
	} else {
		for i := range device.Channels {
			if device.Channels[i].Property(action.PropertyID) != nil {
				channel = &device.Channels[i]
				break
			}
		}
		if channel == nil {
			return nil, nil, directory.ErrPropertyNotFound
		}
	}

	property := channel.Property(action.PropertyID)
	if property == nil {
		return nil, nil, directory.ErrPropertyNotFound
	}
	if !property.Writable() {
		return nil, nil, directory.ErrNotWritable
	}
	if err := directory.ValidateValue(property, action.Value); err != nil {
		return nil, nil, err
	}

	p, ok := e.platforms.Get(device)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrNoPlatform, device.Platform)
	}

	return &platform.Update{
		Device:     device,
		ChannelID:  channel.ID,
		PropertyID: property.ID,
		Property:   property,
		Value:      action.Value,
	}, p, nil
}
