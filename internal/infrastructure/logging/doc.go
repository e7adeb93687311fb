// Package logging provides structured logging for Atrium Core.
//
// It wraps the standard library's log/slog with:
//   - Configuration-driven setup (level, format, output)
//   - Default attributes on every record (service, version)
//   - A Default() logger for early startup before config is loaded
//
// Consumer packages that need logging without importing this package
// declare their own small Logger interface; *logging.Logger satisfies
// those interfaces structurally.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("starting", "port", cfg.API.Port)
//
//	rolesLog := log.With("component", "roles")
package logging
