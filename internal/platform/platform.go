package platform

import (
	"context"
	"sort"
	"sync"

	"github.com/atrium-home/atrium-core/internal/directory"
)

// Update is one abstract "set property" request, already resolved against
// the directory.
type Update struct {
	Device     *directory.Device
	ChannelID  string
	PropertyID string
	Property   *directory.Property
	Value      any
}

// Platform translates abstract property updates into one device backend's
// wire protocol.
//
// Process and ProcessBatch report success as a boolean; an unreachable or
// refusing device is a normal outcome, not an error.
type Platform interface {
	// Type returns the platform identifier devices reference in their
	// directory record.
	Type() string

	// Process applies a single update. Conventionally ProcessBatch of one.
	Process(ctx context.Context, update Update) bool

	// ProcessBatch applies updates in order and reports whether all
	// succeeded.
	ProcessBatch(ctx context.Context, updates []Update) bool
}

// Registry maps a device's platform identifier to its registered handler.
type Registry struct {
	mu        sync.RWMutex
	platforms map[string]Platform
}

// NewRegistry creates an empty platform registry.
func NewRegistry() *Registry {
	return &Registry{platforms: make(map[string]Platform)}
}

// Register adds a platform. Registering the same type twice replaces the
// earlier handler.
func (r *Registry) Register(p Platform) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms[p.Type()] = p
}

// Get returns the platform responsible for a device, or false when none is
// registered for its type.
func (r *Registry) Get(device *directory.Device) (Platform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.platforms[device.Platform]
	return p, ok
}

// Types returns the registered platform identifiers, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.platforms))
	for t := range r.platforms {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
