// Package capability defines the five orchestration domains (lighting,
// climate, covers, media, sensor) as data.
//
// Each Descriptor carries the channel categories a capability operates on,
// the property categories that signal state changes, its role enum, whether
// assignments address channels or whole devices, the numeric level property
// and the default role inference rule. The role assignment service, state
// aggregator and change listener are written once and instantiated per
// descriptor, so adding a capability means adding a descriptor here.
package capability
