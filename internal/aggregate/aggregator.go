package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/history"
	"github.com/atrium-home/atrium-core/internal/roles"
)

// Mode detection policy constants. Fixed heuristics, not configuration:
// numeric rule values match within ±5%, a full match is exact, and the best
// partial match is reported only at 80% or above.
const (
	toleranceFraction    = 0.05
	approximateThreshold = 80.0
)

// RoleSource provides the role map for a space. The roles.Service
// satisfies it.
type RoleSource interface {
	RoleMap(ctx context.Context, spaceID string) (map[string]roles.Assignment, error)
}

// LastAppliedSource surfaces the last applied mode without recomputation.
// The history.Store satisfies it.
type LastAppliedSource interface {
	LastApplied(ctx context.Context, spaceID, capability string) *history.Applied
}

// Aggregator rolls raw property readings and role assignments up into the
// per-role and overall state of one capability in a space. Stateless per
// invocation; one instance runs per capability.
type Aggregator struct {
	desc  *capability.Descriptor
	dir   directory.Directory
	roles RoleSource
	hist  LastAppliedSource
	modes []ModeProfile
}

// NewAggregator creates an aggregator for a capability. hist may be nil when
// no history store is wired; modes may be empty when the capability defines
// no named modes.
func NewAggregator(desc *capability.Descriptor, dir directory.Directory, roleSource RoleSource, hist LastAppliedSource, modes []ModeProfile) *Aggregator {
	return &Aggregator{
		desc:  desc,
		dir:   dir,
		roles: roleSource,
		hist:  hist,
		modes: modes,
	}
}

// Capability returns the capability name this aggregator serves.
func (a *Aggregator) Capability() string {
	return a.desc.Name
}

// GetState computes the aggregated state of the capability in a space.
//
// Returns (nil, nil) when the space itself does not exist. Missing or
// partial member data never errors; absence of qualifying members yields a
// state with an empty summary.
func (a *Aggregator) GetState(ctx context.Context, spaceID string) (*State, error) {
	if _, err := a.dir.GetSpace(ctx, spaceID); err != nil {
		if errors.Is(err, directory.ErrSpaceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving space: %w", err)
	}

	devices, err := a.dir.ListSpaceDevices(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("listing space devices: %w", err)
	}

	roleMap, err := a.roles.RoleMap(ctx, spaceID)
	if err != nil {
		return nil, fmt.Errorf("loading role map: %w", err)
	}

	state := &State{
		SpaceID:    spaceID,
		Capability: a.desc.Name,
		Roles:      make(map[capability.Role]*RoleState),
	}

	for i := range devices {
		a.collectDevice(&devices[i], roleMap, state)
	}

	for _, rs := range state.Roles {
		finalizeRole(rs)
	}
	a.summarize(state)

	if match := a.detectMode(state); match != nil {
		state.Mode = match
	}
	if a.hist != nil {
		state.LastApplied = a.hist.LastApplied(ctx, spaceID, a.desc.Name)
	}
	return state, nil
}

// collectDevice appends the device's in-scope readings to their role groups.
// Targets without an assignment or with the hidden role do not participate.
func (a *Aggregator) collectDevice(d *directory.Device, roleMap map[string]roles.Assignment, state *State) {
	if a.desc.ChannelScoped {
		for i := range d.Channels {
			ch := &d.Channels[i]
			if !a.channelInScope(ch) {
				continue
			}
			assignment, ok := roleMap[capability.Key(d.ID, ch.ID)]
			if !ok || assignment.Role == capability.RoleHidden {
				continue
			}
			a.appendMember(state, assignment.Role, Member{
				DeviceID:  d.ID,
				ChannelID: ch.ID,
				On:        channelOn(ch),
				Level:     a.channelLevel(ch),
				Online:    d.Online,
			})
		}
		return
	}

	// Device-level capability: one member per device, readings taken from
	// the first in-scope channel carrying them.
	assignment, ok := roleMap[capability.Key(d.ID, "")]
	if !ok || assignment.Role == capability.RoleHidden {
		return
	}

	var inScope []*directory.Channel
	for i := range d.Channels {
		if a.channelInScope(&d.Channels[i]) {
			inScope = append(inScope, &d.Channels[i])
		}
	}
	if len(inScope) == 0 {
		return
	}

	member := Member{DeviceID: d.ID, Online: d.Online}
	for _, ch := range inScope {
		if channelOn(ch) {
			member.On = true
		}
		if member.Level == nil {
			member.Level = a.channelLevel(ch)
		}
	}
	a.appendMember(state, assignment.Role, member)
}

func (a *Aggregator) appendMember(state *State, role capability.Role, m Member) {
	rs, ok := state.Roles[role]
	if !ok {
		rs = &RoleState{Role: role}
		state.Roles[role] = rs
	}
	rs.Members = append(rs.Members, m)
}

// channelInScope reports whether the channel matches the capability's
// categories and carries at least one signal property.
func (a *Aggregator) channelInScope(ch *directory.Channel) bool {
	if !a.desc.MatchesChannel(ch.Category) {
		return false
	}
	for i := range ch.Properties {
		if a.desc.MatchesProperty(ch.Properties[i].Category) {
			return true
		}
	}
	return false
}

// channelLevel extracts the capability's numeric level from a channel.
func (a *Aggregator) channelLevel(ch *directory.Channel) *float64 {
	if a.desc.LevelProperty == "" {
		return nil
	}
	p := ch.PropertyByCategory(a.desc.LevelProperty)
	if p == nil {
		return nil
	}
	n, ok := directory.NumericValue(p.Value)
	if !ok {
		return nil
	}
	return &n
}

// channelOn reports whether the channel's power property is on.
func channelOn(ch *directory.Channel) bool {
	p := ch.PropertyByCategory(directory.PropOn)
	return p != nil && directory.IsOn(p.Value)
}

// finalizeRole computes the rollup flags from the collected members.
func finalizeRole(rs *RoleState) {
	onCount := 0
	var shared *float64
	levelBearing := 0
	agree := true

	for i := range rs.Members {
		m := &rs.Members[i]
		if m.On {
			onCount++
		}
		if m.Level == nil {
			continue
		}
		levelBearing++
		if shared == nil {
			v := *m.Level
			shared = &v
		} else if *shared != *m.Level {
			agree = false
		}
	}

	rs.IsOn = onCount > 0
	rs.IsOnMixed = onCount > 0 && onCount < len(rs.Members)

	if levelBearing > 0 && agree {
		rs.Level = shared
	} else if levelBearing > 0 {
		rs.LevelMixed = true
	}
}

// summarize builds the overall counts and average level.
func (a *Aggregator) summarize(state *State) {
	var levelSum float64
	levelCount := 0

	for _, rs := range state.Roles {
		for i := range rs.Members {
			m := &rs.Members[i]
			state.Summary.TotalMembers++
			if m.On {
				state.Summary.OnCount++
			}
			if m.Online {
				state.Summary.OnlineCount++
			}
			if m.Level != nil {
				levelSum += *m.Level
				levelCount++
			}
		}
	}
	if levelCount > 0 {
		avg := levelSum / float64(levelCount)
		state.Summary.AverageLevel = &avg
	}
}

// detectMode compares the live role aggregates against each mode profile.
// A 100% match is returned immediately as exact; otherwise the best match at
// or above the approximate threshold is returned; below it, no mode.
func (a *Aggregator) detectMode(state *State) *ModeMatch {
	var best *ModeMatch

	for _, profile := range a.modes {
		if len(profile.Rules) == 0 {
			continue
		}
		matched := 0
		for _, rule := range profile.Rules {
			if a.ruleMatches(state, rule) {
				matched++
			}
		}
		pct := roundPercentage(float64(matched) / float64(len(profile.Rules)) * 100)

		if pct == 100 {
			return &ModeMatch{Name: profile.Name, Confidence: ConfidenceExact, MatchPercentage: 100}
		}
		if pct >= approximateThreshold && (best == nil || pct > best.MatchPercentage) {
			best = &ModeMatch{Name: profile.Name, Confidence: ConfidenceApproximate, MatchPercentage: pct}
		}
	}
	return best
}

// ruleMatches checks one role rule against the live state. A rule for a role
// with no live group never matches; a mixed group never matches.
func (a *Aggregator) ruleMatches(state *State, rule ModeRule) bool {
	rs, ok := state.Roles[rule.Role]
	if !ok {
		return false
	}
	if rule.On != nil {
		if rs.IsOnMixed || rs.IsOn != *rule.On {
			return false
		}
	}
	if rule.Level != nil {
		if rs.Level == nil {
			return false
		}
		if !withinTolerance(*rs.Level, *rule.Level) {
			return false
		}
	}
	return true
}

// withinTolerance reports whether a live value is within ±5% of expected.
func withinTolerance(live, expected float64) bool {
	if expected == 0 {
		return live == 0
	}
	return math.Abs(live-expected) <= toleranceFraction*math.Abs(expected)
}

// roundPercentage keeps match percentages to two decimals so thresholds
// compare predictably.
func roundPercentage(pct float64) float64 {
	return math.Round(pct*100) / 100
}
