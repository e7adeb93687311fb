// Package directory maintains the in-memory catalogue of spaces, devices,
// channels and properties that the orchestration core operates on.
//
// The catalogue is owned by an external directory service and mirrored here
// from retained MQTT announcements. The Registry caches everything in memory
// behind a read-write mutex and hands out deep copies, so readers never
// observe partial updates and cannot corrupt the cache.
//
// The package also provides value validation against declared property
// formats (ValidateValue) and helpers for interpreting wire values
// (NumericValue, IsOn) shared by the aggregate and scene packages.
package directory
