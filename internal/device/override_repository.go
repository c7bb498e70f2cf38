package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// overrideSchema creates the override table on first use. Overrides
// are provisioned out-of-band (CLI, import tooling), so the schema is
// owned here rather than by a migration chain.
const overrideSchema = `
	CREATE TABLE IF NOT EXISTS device_overrides (
		device_id  TEXT PRIMARY KEY,
		override   TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`

// SQLiteOverrideRepository implements OverrideStore backed by SQLite.
//
// All rows are loaded into memory by Load() at startup; Get() never
// touches the database. This keeps the registry's update handlers free
// of I/O on the hot path.
type SQLiteOverrideRepository struct {
	db *sql.DB

	mu    sync.RWMutex
	cache map[string]Override
}

// NewSQLiteOverrideRepository creates a SQLite-backed override store.
// The db parameter should be an open SQLite connection.
func NewSQLiteOverrideRepository(db *sql.DB) *SQLiteOverrideRepository {
	return &SQLiteOverrideRepository{
		db:    db,
		cache: make(map[string]Override),
	}
}

// Load creates the schema if needed and reads all overrides into the
// in-memory cache. Call once at startup.
func (r *SQLiteOverrideRepository) Load(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, overrideSchema); err != nil {
		return fmt.Errorf("creating override schema: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT device_id, override FROM device_overrides`)
	if err != nil {
		return fmt.Errorf("querying overrides: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only cursor

	cache := make(map[string]Override)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("scanning override row: %w", err)
		}
		var o Override
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return fmt.Errorf("decoding override for %s: %w", id, err)
		}
		cache[id] = o
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating overrides: %w", err)
	}

	r.mu.Lock()
	r.cache = cache
	r.mu.Unlock()
	return nil
}

// Get implements OverrideStore from the in-memory cache.
func (r *SQLiteOverrideRepository) Get(deviceID string) (Override, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.cache[deviceID]
	return o, ok
}

// Put stores or replaces the override for a device id.
func (r *SQLiteOverrideRepository) Put(ctx context.Context, deviceID string, o Override) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding override for %s: %w", deviceID, err)
	}

	query := `
		INSERT INTO device_overrides (device_id, override, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			override = excluded.override,
			updated_at = excluded.updated_at`

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx, query, deviceID, string(raw), now); err != nil {
		return fmt.Errorf("storing override for %s: %w", deviceID, err)
	}

	r.mu.Lock()
	r.cache[deviceID] = o
	r.mu.Unlock()
	return nil
}

// Delete removes the override for a device id.
// Returns ErrOverrideNotFound if no row exists.
func (r *SQLiteOverrideRepository) Delete(ctx context.Context, deviceID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM device_overrides WHERE device_id = ?`, deviceID)
	if err != nil {
		return fmt.Errorf("deleting override for %s: %w", deviceID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrOverrideNotFound
	}

	r.mu.Lock()
	delete(r.cache, deviceID)
	r.mu.Unlock()
	return nil
}

// GetContext retrieves an override directly from the database,
// bypassing the cache. Intended for tooling, not the hot path.
func (r *SQLiteOverrideRepository) GetContext(ctx context.Context, deviceID string) (Override, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT override FROM device_overrides WHERE device_id = ?`, deviceID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOverrideNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying override for %s: %w", deviceID, err)
	}

	var o Override
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		return nil, fmt.Errorf("decoding override for %s: %w", deviceID, err)
	}
	return o, nil
}
