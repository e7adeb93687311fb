// Package scene executes ordered batches of property-set actions with
// per-action accounting.
//
// Execution is fail-soft: a failing action produces a failed result for
// that action only and never halts the batch. Validation before saving a
// scene is fail-fast: ValidateActions raises on the first invalid action.
package scene
