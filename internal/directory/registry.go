package directory

import (
	"context"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Directory is the read-only view of the device/channel/property catalogue
// consumed by the orchestration core.
type Directory interface {
	// GetSpace retrieves a space by ID.
	// Returns ErrSpaceNotFound if the space does not exist.
	GetSpace(ctx context.Context, id string) (*Space, error)

	// GetDevice retrieves a device by ID.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetDevice(ctx context.Context, id string) (*Device, error)

	// ListSpaceDevices retrieves all devices assigned to a space.
	ListSpaceDevices(ctx context.Context, spaceID string) ([]Device, error)

	// ResolveProperty resolves a property ID to the property and its owning
	// channel and device in a single lookup.
	// Returns ErrPropertyNotFound if no device carries the property.
	ResolveProperty(ctx context.Context, propertyID string) (*PropertyRef, error)
}

// propertyLoc locates a property within the device map for O(1) resolution.
type propertyLoc struct {
	deviceID   string
	channelIdx int
	propIdx    int
}

// Registry is the in-memory materialisation of the external directory.
//
// It is populated from retained MQTT device announcements and kept current
// by the bridge. All reads return deep copies so callers can never mutate
// the cached catalogue.
//
// All public methods are thread-safe.
type Registry struct {
	mu       sync.RWMutex
	spaces   map[string]Space
	devices  map[string]*Device
	propIdx  map[string]propertyLoc
	logger   Logger
}

// NewRegistry creates an empty directory registry.
func NewRegistry() *Registry {
	return &Registry{
		spaces:  make(map[string]Space),
		devices: make(map[string]*Device),
		propIdx: make(map[string]propertyLoc),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// UpsertSpace adds or replaces a space.
func (r *Registry) UpsertSpace(s Space) {
	r.mu.Lock()
	r.spaces[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("space upserted", "id", s.ID)
}

// RemoveSpace removes a space. Devices pointing at it keep their stale
// space id; aggregation treats them as unassigned once the space is gone.
func (r *Registry) RemoveSpace(id string) {
	r.mu.Lock()
	delete(r.spaces, id)
	r.mu.Unlock()

	r.logger.Debug("space removed", "id", id)
}

// UpsertDevice adds or replaces a device and reindexes its properties.
func (r *Registry) UpsertDevice(d *Device) {
	cpy := d.DeepCopy()

	r.mu.Lock()
	r.removeFromIndexLocked(d.ID)
	r.devices[d.ID] = cpy
	for ci := range cpy.Channels {
		for pi := range cpy.Channels[ci].Properties {
			r.propIdx[cpy.Channels[ci].Properties[pi].ID] = propertyLoc{
				deviceID:   d.ID,
				channelIdx: ci,
				propIdx:    pi,
			}
		}
	}
	r.mu.Unlock()

	r.logger.Debug("device upserted", "id", d.ID, "channels", len(d.Channels))
}

// RemoveDevice removes a device and its property index entries.
func (r *Registry) RemoveDevice(id string) {
	r.mu.Lock()
	r.removeFromIndexLocked(id)
	delete(r.devices, id)
	r.mu.Unlock()

	r.logger.Debug("device removed", "id", id)
}

// removeFromIndexLocked drops index entries belonging to a device.
// Caller must hold the write lock.
func (r *Registry) removeFromIndexLocked(deviceID string) {
	existing, ok := r.devices[deviceID]
	if !ok {
		return
	}
	for ci := range existing.Channels {
		for pi := range existing.Channels[ci].Properties {
			delete(r.propIdx, existing.Channels[ci].Properties[pi].ID)
		}
	}
}

// SetOnline updates a device's online flag.
// Returns ErrDeviceNotFound if the device is unknown.
func (r *Registry) SetOnline(id string, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	d.Online = online
	return nil
}

// SetPropertyValue updates the cached value of a property.
// Returns ErrPropertyNotFound if no device carries the property.
func (r *Registry) SetPropertyValue(propertyID string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.propIdx[propertyID]
	if !ok {
		return ErrPropertyNotFound
	}
	d := r.devices[loc.deviceID]
	d.Channels[loc.channelIdx].Properties[loc.propIdx].Value = deepCopyValue(value)
	return nil
}

// GetSpace retrieves a space by ID.
func (r *Registry) GetSpace(_ context.Context, id string) (*Space, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.spaces[id]
	if !ok {
		return nil, ErrSpaceNotFound
	}
	cpy := s
	return &cpy, nil
}

// GetDevice retrieves a device by ID.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(_ context.Context, id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

// ListSpaceDevices retrieves all devices assigned to a space.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) ListSpaceDevices(_ context.Context, spaceID string) ([]Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []Device
	for _, d := range r.devices {
		if d.SpaceID != nil && *d.SpaceID == spaceID {
			devices = append(devices, *d.DeepCopy())
		}
	}
	return devices, nil
}

// ResolveProperty resolves a property ID in a single lookup.
// The returned ref holds deep copies; callers can safely modify them.
func (r *Registry) ResolveProperty(_ context.Context, propertyID string) (*PropertyRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.propIdx[propertyID]
	if !ok {
		return nil, ErrPropertyNotFound
	}

	device := r.devices[loc.deviceID].DeepCopy()
	channel := &device.Channels[loc.channelIdx]
	property := &channel.Properties[loc.propIdx]

	return &PropertyRef{
		Device:   device,
		Channel:  channel,
		Property: property,
	}, nil
}

// DeviceCount returns the number of known devices.
func (r *Registry) DeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// SpaceCount returns the number of known spaces.
func (r *Registry) SpaceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.spaces)
}
