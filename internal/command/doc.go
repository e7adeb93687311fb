// Package command implements the shared outbound command channel used by
// HTTP device platforms.
//
// Each send is a bounded retry loop: per-attempt timeouts that truly cancel
// the in-flight request, retries on 5xx and timeout, immediate surrender on
// 4xx, and a boolean result instead of an error because an unreachable
// device is a normal operational outcome.
package command
