// Package platform holds the pluggable device backend adapters and the
// registry that routes updates to them.
//
// A device's directory record names its platform; the registry maps that
// name to a handler. HTTP-based adapters share the retrying command channel,
// the MQTT adapter publishes to the command topic namespace. All adapters
// report success as a boolean so callers handle unreachable devices as a
// normal outcome.
package platform
