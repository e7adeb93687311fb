package capability

import (
	"github.com/atrium-home/atrium-core/internal/directory"
)

// Role is a capability-specific tag assigned to a target within a space.
// The valid set differs per capability; see the descriptor definitions.
type Role string

// Roles shared across capability families.
const (
	// RolePrimary marks the main target of a capability in a space.
	RolePrimary Role = "primary"

	// RoleHidden excludes a target from aggregation without deleting the
	// assignment row. Every capability accepts it.
	RoleHidden Role = "hidden"

	// RoleOther is the catch-all fallback role.
	RoleOther Role = "other"
)

// Capability-specific roles.
const (
	RoleAmbient     Role = "ambient"
	RoleAccent      Role = "accent"
	RoleVentilation Role = "ventilation"
	RoleHumidity    Role = "humidity"
	RoleBackground  Role = "background"
)

// Default priorities handed out by role inference. Lower sorts first.
const (
	PriorityPrimary   = 1
	PrioritySecondary = 100
)

// Target is a (device[, channel]) pair eligible for role assignment under
// a capability. ChannelID is empty for device-level capabilities.
type Target struct {
	DeviceID        string                    `json:"device_id"`
	DeviceName      string                    `json:"device_name"`
	DeviceCategory  directory.DeviceCategory  `json:"device_category"`
	ChannelID       string                    `json:"channel_id,omitempty"`
	ChannelCategory directory.ChannelCategory `json:"channel_category"`
	Online          bool                      `json:"online"`

	// HasLevel reports whether the target carries the capability's numeric
	// aggregate property (brightness, volume, position, setpoint). Used as
	// an inference tie-break.
	HasLevel bool `json:"has_level"`
}

// Key returns the stable role-map key for a target: the device id, suffixed
// with the channel id for channel-scoped capabilities.
func (t Target) Key() string {
	return Key(t.DeviceID, t.ChannelID)
}

// Key builds a role-map key from a device id and optional channel id.
func Key(deviceID, channelID string) string {
	if channelID == "" {
		return deviceID
	}
	return deviceID + "/" + channelID
}

// Suggestion is one inferred default role assignment.
type Suggestion struct {
	DeviceID  string `json:"device_id"`
	ChannelID string `json:"channel_id,omitempty"`
	Role      Role   `json:"role"`
	Priority  int    `json:"priority"`
}

// Descriptor parameterises the role assignment service and state aggregator
// for one capability family. One service instance exists per descriptor;
// the logic is shared, only the descriptor varies.
type Descriptor struct {
	// Name is the capability identifier used in event kinds, API paths
	// and role storage rows.
	Name string

	// ChannelCategories are the channel kinds this capability operates on.
	ChannelCategories []directory.ChannelCategory

	// SignalProperties are the property categories whose changes are
	// relevant to this capability's aggregated state.
	SignalProperties []directory.PropertyCategory

	// Roles is the valid role set for assignments under this capability.
	Roles []Role

	// ChannelScoped determines whether assignments address individual
	// channels (lighting, covers, media, sensor) or whole devices
	// (climate).
	ChannelScoped bool

	// LevelProperty is the numeric property aggregated per role, or empty
	// when the capability has no single level notion.
	LevelProperty directory.PropertyCategory

	// InferRoles maps an ordered target list to default role suggestions.
	// Implementations must be pure and deterministic.
	InferRoles func(targets []Target) []Suggestion
}

// MatchesChannel reports whether a channel category is in scope.
func (d *Descriptor) MatchesChannel(cat directory.ChannelCategory) bool {
	for _, c := range d.ChannelCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// MatchesProperty reports whether a property category is a signal for this
// capability. Used by the change listener as a cheap pre-filter.
func (d *Descriptor) MatchesProperty(cat directory.PropertyCategory) bool {
	for _, p := range d.SignalProperties {
		if p == cat {
			return true
		}
	}
	return false
}

// ValidRole reports whether a role is in the capability's role set.
func (d *Descriptor) ValidRole(r Role) bool {
	for _, role := range d.Roles {
		if role == r {
			return true
		}
	}
	return false
}
