package roles

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
)

// Logger defines the logging interface used by the Service.
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

// Service manages role assignments for one capability family.
//
// The logic is shared across all capabilities; the descriptor supplies the
// valid role set, channel scoping and the default inference rule. Five
// instances run in the daemon, one per capability.
type Service struct {
	desc   *capability.Descriptor
	dir    directory.Directory
	repo   Repository
	bus    *events.Bus
	logger Logger
}

// NewService creates a role assignment service for a capability.
func NewService(desc *capability.Descriptor, dir directory.Directory, repo Repository, bus *events.Bus) *Service {
	return &Service{
		desc:   desc,
		dir:    dir,
		repo:   repo,
		bus:    bus,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// Capability returns the capability name this service manages.
func (s *Service) Capability() string {
	return s.desc.Name
}

// SetRole validates and upserts one role assignment.
//
// The upsert is atomic in storage; a created or updated event is emitted
// only when role or priority actually changed, so repeated identical calls
// cannot produce duplicate event storms.
func (s *Service) SetRole(ctx context.Context, spaceID string, input RoleInput) (*Assignment, error) {
	if err := s.validateInput(ctx, spaceID, input); err != nil {
		return nil, err
	}

	outcome, err := s.repo.Upsert(ctx, Assignment{
		Capability: s.desc.Name,
		SpaceID:    spaceID,
		DeviceID:   input.DeviceID,
		ChannelID:  input.ChannelID,
		Role:       input.Role,
		Priority:   input.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("upserting role: %w", err)
	}

	if outcome.Changed {
		kind := events.TargetCreated(s.desc.Name)
		if outcome.Existed {
			kind = events.TargetUpdated(s.desc.Name)
		}
		s.bus.Publish(events.Event{
			Kind:    kind,
			Payload: assignmentPayload(&outcome.Assignment),
		})
		s.logger.Info("role assignment changed",
			"capability", s.desc.Name,
			"space_id", spaceID,
			"device_id", input.DeviceID,
			"role", string(input.Role),
			"existed", outcome.Existed,
		)
	}

	a := outcome.Assignment
	return &a, nil
}

// BulkSetRoles applies SetRole per entry. A failing entry never aborts the
// batch; failures are counted and reported alongside successes.
func (s *Service) BulkSetRoles(ctx context.Context, spaceID string, inputs []RoleInput) BulkResult {
	result := BulkResult{Results: make([]BulkEntry, 0, len(inputs))}
	for _, input := range inputs {
		entry := BulkEntry{Input: input}
		a, err := s.SetRole(ctx, spaceID, input)
		if err != nil {
			entry.Error = err.Error()
			result.FailureCount++
		} else {
			entry.Assignment = a
			result.SuccessCount++
		}
		result.Results = append(result.Results, entry)
	}
	return result
}

// DeleteRole removes an assignment and emits a deletion event if a row
// existed. Returns ErrAssignmentNotFound otherwise.
func (s *Service) DeleteRole(ctx context.Context, spaceID, deviceID, channelID string) error {
	existed, err := s.repo.Delete(ctx, s.desc.Name, spaceID, deviceID, channelID)
	if err != nil {
		return fmt.Errorf("deleting role: %w", err)
	}
	if !existed {
		return ErrAssignmentNotFound
	}

	s.bus.Publish(events.Event{
		Kind: events.TargetDeleted(s.desc.Name),
		Payload: map[string]any{
			"capability": s.desc.Name,
			"space_id":   spaceID,
			"device_id":  deviceID,
			"channel_id": channelID,
		},
	})
	s.logger.Info("role assignment deleted",
		"capability", s.desc.Name,
		"space_id", spaceID,
		"device_id", deviceID,
	)
	return nil
}

// TargetsInSpace discovers all (device[, channel]) pairs in a space that are
// eligible for role assignment under this capability. Results are ordered by
// device then channel id so inference is deterministic.
func (s *Service) TargetsInSpace(ctx context.Context, spaceID string) ([]capability.Target, error) {
	devices, err := s.dir.ListSpaceDevices(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("listing space devices: %w", err)
	}

	var targets []capability.Target
	for i := range devices {
		d := &devices[i]
		if s.desc.ChannelScoped {
			for j := range d.Channels {
				ch := &d.Channels[j]
				if !s.channelEligible(ch) {
					continue
				}
				targets = append(targets, capability.Target{
					DeviceID:        d.ID,
					DeviceName:      d.Name,
					DeviceCategory:  d.Category,
					ChannelID:       ch.ID,
					ChannelCategory: ch.Category,
					Online:          d.Online,
					HasLevel:        s.channelHasLevel(ch),
				})
			}
			continue
		}

		// Device-level capability: the device qualifies if any channel is
		// eligible; the first eligible channel supplies the category.
		for j := range d.Channels {
			ch := &d.Channels[j]
			if !s.channelEligible(ch) {
				continue
			}
			targets = append(targets, capability.Target{
				DeviceID:        d.ID,
				DeviceName:      d.Name,
				DeviceCategory:  d.Category,
				ChannelCategory: ch.Category,
				Online:          d.Online,
				HasLevel:        s.deviceHasLevel(d),
			})
			break
		}
	}

	sort.Slice(targets, func(i, j int) bool {
		if targets[i].DeviceID != targets[j].DeviceID {
			return targets[i].DeviceID < targets[j].DeviceID
		}
		return targets[i].ChannelID < targets[j].ChannelID
	})
	return targets, nil
}

// InferDefaultRoles computes default role suggestions for a space. Pure:
// nothing is persisted and no events fire. Callers apply the result through
// BulkSetRoles when accepted.
func (s *Service) InferDefaultRoles(ctx context.Context, spaceID string) ([]RoleInput, error) {
	targets, err := s.TargetsInSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	suggestions := s.desc.InferRoles(targets)
	inputs := make([]RoleInput, 0, len(suggestions))
	for _, sug := range suggestions {
		inputs = append(inputs, RoleInput{
			DeviceID:  sug.DeviceID,
			ChannelID: sug.ChannelID,
			Role:      sug.Role,
			Priority:  sug.Priority,
		})
	}
	return inputs, nil
}

// RoleMap returns the space's assignments keyed by device id, or
// "deviceID/channelID" for channel-scoped capabilities.
func (s *Service) RoleMap(ctx context.Context, spaceID string) (map[string]Assignment, error) {
	assignments, err := s.repo.ListSpace(ctx, s.desc.Name, spaceID)
	if err != nil {
		return nil, err
	}

	m := make(map[string]Assignment, len(assignments))
	for _, a := range assignments {
		m[a.Key()] = a
	}
	return m, nil
}

// validateInput checks role, space, device and channel before any write.
func (s *Service) validateInput(ctx context.Context, spaceID string, input RoleInput) error {
	if input.DeviceID == "" {
		return &ValidationError{Field: "device_id", Reason: "required"}
	}
	if input.Role == "" {
		return &ValidationError{Field: "role", Reason: "required"}
	}
	if !s.desc.ValidRole(input.Role) {
		return &ValidationError{Field: "role", Reason: fmt.Sprintf("%q is not a %s role", input.Role, s.desc.Name)}
	}
	if input.Priority < 0 {
		return &ValidationError{Field: "priority", Reason: "must not be negative"}
	}

	if s.desc.ChannelScoped && input.ChannelID == "" {
		return &ValidationError{Field: "channel_id", Reason: fmt.Sprintf("required for %s roles", s.desc.Name)}
	}
	if !s.desc.ChannelScoped && input.ChannelID != "" {
		return &ValidationError{Field: "channel_id", Reason: fmt.Sprintf("%s roles address whole devices", s.desc.Name)}
	}

	if _, err := s.dir.GetSpace(ctx, spaceID); err != nil {
		return fmt.Errorf("validating space %q: %w", spaceID, err)
	}

	device, err := s.dir.GetDevice(ctx, input.DeviceID)
	if err != nil {
		return fmt.Errorf("validating device %q: %w", input.DeviceID, err)
	}
	if device.SpaceID == nil || *device.SpaceID != spaceID {
		return &ValidationError{Field: "device_id", Reason: "device does not belong to the space"}
	}

	if s.desc.ChannelScoped {
		ch := device.Channel(input.ChannelID)
		if ch == nil {
			return fmt.Errorf("validating channel %q: %w", input.ChannelID, directory.ErrChannelNotFound)
		}
		if !s.desc.MatchesChannel(ch.Category) {
			return &ValidationError{
				Field:  "channel_id",
				Reason: fmt.Sprintf("channel category %q is not valid for %s", ch.Category, s.desc.Name),
			}
		}
	}
	return nil
}

// channelEligible reports whether a channel is in capability scope and
// carries at least one signal property.
func (s *Service) channelEligible(ch *directory.Channel) bool {
	if !s.desc.MatchesChannel(ch.Category) {
		return false
	}
	for i := range ch.Properties {
		if s.desc.MatchesProperty(ch.Properties[i].Category) {
			return true
		}
	}
	return false
}

// channelHasLevel reports whether a channel carries the capability's
// numeric level property.
func (s *Service) channelHasLevel(ch *directory.Channel) bool {
	if s.desc.LevelProperty == "" {
		return false
	}
	return ch.PropertyByCategory(s.desc.LevelProperty) != nil
}

// deviceHasLevel reports whether any in-scope channel of the device carries
// the level property.
func (s *Service) deviceHasLevel(d *directory.Device) bool {
	for i := range d.Channels {
		if s.desc.MatchesChannel(d.Channels[i].Category) && s.channelHasLevel(&d.Channels[i]) {
			return true
		}
	}
	return false
}

// assignmentPayload builds the flat snake-cased event payload for an
// assignment.
func assignmentPayload(a *Assignment) map[string]any {
	payload := map[string]any{
		"id":         a.ID,
		"capability": a.Capability,
		"space_id":   a.SpaceID,
		"device_id":  a.DeviceID,
		"role":       string(a.Role),
		"priority":   a.Priority,
	}
	if a.ChannelID != "" {
		payload["channel_id"] = a.ChannelID
	}
	return payload
}

// IsNotFound reports whether an error is any of the not-found conditions a
// role operation can surface.
func IsNotFound(err error) bool {
	return errors.Is(err, directory.ErrSpaceNotFound) ||
		errors.Is(err, directory.ErrDeviceNotFound) ||
		errors.Is(err, directory.ErrChannelNotFound) ||
		errors.Is(err, ErrAssignmentNotFound)
}
