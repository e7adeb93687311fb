// Package aggregate rolls fragmented per-device telemetry up into
// space-level semantic state, one aggregator per capability.
//
// Readings from in-scope channels are joined with the space's role map,
// grouped by role and reduced to on/off and numeric rollups with explicit
// mixed flags when members disagree. Capabilities with named modes also run
// mode detection against the configured profiles; the tolerance bands are
// fixed policy constants, not configuration.
package aggregate
