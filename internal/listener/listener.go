package listener

import (
	"context"
	"sync"
	"time"

	"github.com/atrium-home/atrium-core/internal/aggregate"
	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
)

// DefaultDebounceWindow coalesces property-change bursts per space. All
// events for a space landing inside the window trigger one recomputation.
const DefaultDebounceWindow = 100 * time.Millisecond

// Logger defines the logging interface used by the Listener.
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

// StateSource computes the aggregated state to emit. The
// aggregate.Aggregator satisfies it.
type StateSource interface {
	GetState(ctx context.Context, spaceID string) (*aggregate.State, error)
}

// Listener debounces property-change events into per-space state
// recomputations for one capability.
//
// Scheduling is cancel-and-replace: arming a timer for a space cancels any
// pending one, so only the last-scheduled recomputation per space survives a
// burst. There is no cross-space ordering guarantee.
type Listener struct {
	desc   *capability.Descriptor
	dir    directory.Directory
	states StateSource
	bus    *events.Bus
	window time.Duration
	logger Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// New creates a listener for a capability. A non-positive window falls back
// to DefaultDebounceWindow.
func New(desc *capability.Descriptor, dir directory.Directory, states StateSource, bus *events.Bus, window time.Duration) *Listener {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Listener{
		desc:   desc,
		dir:    dir,
		states: states,
		bus:    bus,
		window: window,
		logger: noopLogger{},
		timers: make(map[string]*time.Timer),
	}
}

// SetLogger sets the logger for the listener.
func (l *Listener) SetLogger(logger Logger) {
	l.logger = logger
}

// Start subscribes the listener to property-change events on the bus.
func (l *Listener) Start() {
	l.bus.Subscribe(events.KindPropertyUpdated, l.handlePropertyEvent)
}

// Close cancels all pending debounce timers. No recomputation fires after
// Close returns.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	for spaceID, t := range l.timers {
		t.Stop()
		delete(l.timers, spaceID)
	}
}

// handlePropertyEvent filters an incoming property change and schedules a
// recomputation for its space when relevant.
func (l *Listener) handlePropertyEvent(evt events.Event) {
	// Cheap pre-filter on the property category before any lookup.
	cat, _ := evt.Payload[events.PayloadCategory].(string)
	if !l.desc.MatchesProperty(directory.PropertyCategory(cat)) {
		return
	}

	propertyID, _ := evt.Payload[events.PayloadPropertyID].(string)
	if propertyID == "" {
		return
	}

	ref, err := l.dir.ResolveProperty(context.Background(), propertyID)
	if err != nil {
		l.logger.Debug("dropping event for unknown property",
			"capability", l.desc.Name, "property_id", propertyID)
		return
	}
	if ref.Device.SpaceID == nil {
		return
	}
	if !l.desc.MatchesChannel(ref.Channel.Category) {
		return
	}

	l.schedule(*ref.Device.SpaceID)
}

// schedule arms the debounce timer for a space, cancelling any pending one.
func (l *Listener) schedule(spaceID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if t, ok := l.timers[spaceID]; ok {
		t.Stop()
	}
	l.timers[spaceID] = time.AfterFunc(l.window, func() {
		l.recompute(spaceID)
	})
}

// recompute runs the aggregator for a space and emits the state-changed
// event unless the state has no qualifying members.
func (l *Listener) recompute(spaceID string) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	delete(l.timers, spaceID)
	l.mu.Unlock()

	state, err := l.states.GetState(context.Background(), spaceID)
	if err != nil {
		l.logger.Error("state recomputation failed",
			"capability", l.desc.Name, "space_id", spaceID, "error", err)
		return
	}
	if !state.HasMembers() {
		l.logger.Debug("suppressing empty state",
			"capability", l.desc.Name, "space_id", spaceID)
		return
	}

	l.bus.Publish(events.Event{
		Kind: events.StateChanged(l.desc.Name),
		Payload: map[string]any{
			events.PayloadSpaceID: spaceID,
			events.PayloadState:   state,
		},
	})
}
