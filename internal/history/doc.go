// Package history tracks the last applied mode per space and capability.
//
// The store is a write-through cache over an optional time-series backend.
// Aggregation surfaces the record without recomputation; losing it is
// harmless, so all backend failures degrade to "unknown" instead of errors.
package history
