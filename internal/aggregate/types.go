package aggregate

import (
	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/history"
)

// Member is one (device[, channel]) reading contributing to a role group.
type Member struct {
	DeviceID  string   `json:"device_id"`
	ChannelID string   `json:"channel_id,omitempty"`
	On        bool     `json:"on"`
	Level     *float64 `json:"level,omitempty"`
	Online    bool     `json:"online"`
}

// RoleState is the rollup of all members sharing one role.
//
// IsOn is true when any member is on; IsOnMixed flags partial agreement.
// Level carries the shared numeric value only when every level-bearing
// member agrees exactly; otherwise it is nil and LevelMixed is set.
type RoleState struct {
	Role      capability.Role `json:"role"`
	IsOn      bool            `json:"is_on"`
	IsOnMixed bool            `json:"is_on_mixed"`
	Level     *float64        `json:"level,omitempty"`
	LevelMixed bool           `json:"level_mixed"`
	Members   []Member        `json:"members"`
}

// Summary is the overall rollup across all role groups.
type Summary struct {
	TotalMembers int      `json:"total_members"`
	OnCount      int      `json:"on_count"`
	OnlineCount  int      `json:"online_count"`
	AverageLevel *float64 `json:"average_level,omitempty"`
}

// ModeMatch reports a detected named mode.
type ModeMatch struct {
	Name            string  `json:"name"`
	Confidence      string  `json:"confidence"` // "exact" or "approximate"
	MatchPercentage float64 `json:"match_percentage"`
}

// Mode match confidence values.
const (
	ConfidenceExact       = "exact"
	ConfidenceApproximate = "approximate"
)

// ModeRule is the expected state of one role within a mode profile.
// Nil fields are not checked.
type ModeRule struct {
	Role  capability.Role
	On    *bool
	Level *float64
}

// ModeProfile is a named target configuration for a capability.
type ModeProfile struct {
	Name  string
	Rules []ModeRule
}

// State is the aggregated view of one capability in one space. It is
// computed fresh per request and never cached beyond the debounce window.
type State struct {
	SpaceID     string                              `json:"space_id"`
	Capability  string                              `json:"capability"`
	Roles       map[capability.Role]*RoleState      `json:"roles"`
	Summary     Summary                             `json:"summary"`
	Mode        *ModeMatch                          `json:"mode,omitempty"`
	LastApplied *history.Applied                    `json:"last_applied,omitempty"`
}

// HasMembers reports whether any qualifying member contributed to the state.
// The change listener suppresses emission for empty states.
func (s *State) HasMembers() bool {
	return s != nil && s.Summary.TotalMembers > 0
}
