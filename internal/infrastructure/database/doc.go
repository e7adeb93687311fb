// Package database provides SQLite connection management for Atrium Core.
//
// It wraps database/sql with:
//   - Connection string construction (WAL mode, busy timeout, foreign keys)
//   - Single-writer pool sizing appropriate for SQLite
//   - Embedded schema migrations (see the migrations package)
//   - Health checks and lifecycle management
//
// The only core-owned persistent state is the role_assignments table used
// by the roles package; everything else Atrium reads comes from the device
// directory or is computed per request.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
