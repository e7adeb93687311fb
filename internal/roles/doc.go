// Package roles implements role-based target discovery and assignment.
//
// A role assignment tags a (device[, channel]) pair in a space with a
// capability-specific role (primary, ambient, ventilation, ...) and a
// priority. Assignments drive the state aggregator's per-role rollups and
// mode matching; a role of "hidden" parks a target outside aggregation
// without losing the row.
//
// One Service instance runs per capability, parameterised by its
// capability.Descriptor. Upserts are atomic read-check-writes in a single
// SQLite transaction, and change events fire only when role or priority
// actually changed.
package roles
