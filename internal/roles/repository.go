package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/infrastructure/database"
)

// Repository persists role assignments.
//
// Upsert must be atomic: the read-check-write happens inside one storage
// transaction so that two concurrent callers for the same tuple cannot both
// observe "no prior row" and trigger duplicate created events.
type Repository interface {
	// Upsert inserts or updates the assignment for its
	// (capability, space, device, channel) tuple and reports whether a row
	// existed before and whether role or priority changed.
	Upsert(ctx context.Context, a Assignment) (*UpsertOutcome, error)

	// Delete removes the assignment for a tuple and reports whether a row
	// existed.
	Delete(ctx context.Context, capName, spaceID, deviceID, channelID string) (bool, error)

	// ListSpace returns all assignments for a capability in a space,
	// ordered by priority then device and channel id.
	ListSpace(ctx context.Context, capName, spaceID string) ([]Assignment, error)
}

// SQLiteRepository implements Repository on the shared SQLite handle.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert performs the atomic read-check-upsert inside one transaction.
func (r *SQLiteRepository) Upsert(ctx context.Context, a Assignment) (*UpsertOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	var (
		existingID       string
		existingRole     string
		existingPriority int
		existingCreated  time.Time
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, role, priority, created_at
		FROM role_assignments
		WHERE capability = ? AND space_id = ? AND device_id = ? AND channel_id = ?`,
		a.Capability, a.SpaceID, a.DeviceID, a.ChannelID,
	).Scan(&existingID, &existingRole, &existingPriority, &existingCreated)

	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading existing assignment: %w", err)
	}

	now := time.Now().UTC()
	outcome := &UpsertOutcome{Existed: existed}

	switch {
	case !existed:
		a.ID = uuid.New().String()
		a.CreatedAt = now
		a.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO role_assignments
				(id, capability, space_id, device_id, channel_id, role, priority, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Capability, a.SpaceID, a.DeviceID, a.ChannelID,
			string(a.Role), a.Priority, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting assignment: %w", err)
		}
		outcome.Changed = true

	case existingRole != string(a.Role) || existingPriority != a.Priority:
		a.ID = existingID
		a.CreatedAt = existingCreated
		a.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			UPDATE role_assignments
			SET role = ?, priority = ?, updated_at = ?
			WHERE id = ?`,
			string(a.Role), a.Priority, a.UpdatedAt, a.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("updating assignment: %w", err)
		}
		outcome.Changed = true

	default:
		// Row exists with identical role and priority. No write, no event.
		a.ID = existingID
		a.CreatedAt = existingCreated
		a.UpdatedAt = existingCreated
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing upsert: %w", err)
	}

	outcome.Assignment = a
	return outcome, nil
}

// Delete removes the assignment for a tuple.
func (r *SQLiteRepository) Delete(ctx context.Context, capName, spaceID, deviceID, channelID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM role_assignments
		WHERE capability = ? AND space_id = ? AND device_id = ? AND channel_id = ?`,
		capName, spaceID, deviceID, channelID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking deleted rows: %w", err)
	}
	return n > 0, nil
}

// ListSpace returns all assignments for a capability in a space.
func (r *SQLiteRepository) ListSpace(ctx context.Context, capName, spaceID string) ([]Assignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, capability, space_id, device_id, channel_id, role, priority, created_at, updated_at
		FROM role_assignments
		WHERE capability = ? AND space_id = ?
		ORDER BY priority, device_id, channel_id`,
		capName, spaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing assignments: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only rows

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		var role string
		if err := rows.Scan(
			&a.ID, &a.Capability, &a.SpaceID, &a.DeviceID, &a.ChannelID,
			&role, &a.Priority, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning assignment: %w", err)
		}
		a.Role = capability.Role(role)
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assignments: %w", err)
	}
	return assignments, nil
}
