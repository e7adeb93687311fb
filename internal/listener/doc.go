// Package listener coalesces bursts of property-change events into single
// per-space state recomputations.
//
// One listener runs per capability. Irrelevant property categories are
// rejected before any directory lookup; relevant events arm a per-space
// debounce timer with cancel-and-replace semantics, guaranteeing at most one
// recomputation per space per window regardless of burst size.
package listener
