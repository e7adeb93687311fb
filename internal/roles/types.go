package roles

import (
	"time"

	"github.com/atrium-home/atrium-core/internal/capability"
)

// Assignment is one persisted role assignment: a (space, device[, channel])
// tuple tagged with a capability-specific role and priority.
//
// Assignments are the only persisted core state. At most one row exists per
// (capability, space, device, channel) tuple; the channel component is empty
// for device-level capabilities.
type Assignment struct {
	ID         string          `json:"id"`
	Capability string          `json:"capability"`
	SpaceID    string          `json:"space_id"`
	DeviceID   string          `json:"device_id"`
	ChannelID  string          `json:"channel_id,omitempty"`
	Role       capability.Role `json:"role"`
	Priority   int             `json:"priority"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Key returns the role-map key for the assignment.
func (a *Assignment) Key() string {
	return capability.Key(a.DeviceID, a.ChannelID)
}

// RoleInput is the caller-supplied shape for setting a role.
type RoleInput struct {
	DeviceID  string          `json:"device_id"`
	ChannelID string          `json:"channel_id,omitempty"`
	Role      capability.Role `json:"role"`
	Priority  int             `json:"priority"`
}

// BulkEntry is the outcome of one input within a bulk role operation.
type BulkEntry struct {
	Input      RoleInput   `json:"input"`
	Assignment *Assignment `json:"assignment,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// BulkResult aggregates a bulk role operation. Individual failures never
// abort the batch; they are counted and reported per entry.
type BulkResult struct {
	SuccessCount int         `json:"success_count"`
	FailureCount int         `json:"failure_count"`
	Results      []BulkEntry `json:"results"`
}

// UpsertOutcome reports what an atomic upsert did: whether a row already
// existed for the tuple and whether role or priority actually changed.
type UpsertOutcome struct {
	Assignment Assignment
	Existed    bool
	Changed    bool
}
