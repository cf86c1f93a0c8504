package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS kv (
	key         TEXT PRIMARY KEY,
	value       BLOB NOT NULL,
	snapshot_id TEXT NOT NULL,
	etag        TEXT NOT NULL,
	extra_json  TEXT NOT NULL DEFAULT '{}',
	updated_at  INTEGER NOT NULL
)`

// SQLiteStore keeps records in a single kv table of a SQLite database.
type SQLiteStore[T any] struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// OpenSQLite opens (creating when needed) the database at path.
func OpenSQLite[T any](path string) (*SQLiteStore[T], error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state: sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("state: ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("state: create kv table: %w", err)
	}
	return &SQLiteStore[T]{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying connection.
func (s *SQLiteStore[T]) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	if s == nil || s.sqlDB == nil {
		return zero, Meta{}, false, fmt.Errorf("state: sqlite store is not configured")
	}
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT value, snapshot_id, etag, extra_json, updated_at FROM kv WHERE key = ?`,
		key,
	)
	var (
		value     []byte
		meta      Meta
		extraJSON string
		updatedAt int64
	)
	if err := row.Scan(&value, &meta.SnapshotID, &meta.ETag, &extraJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, Meta{}, false, nil
		}
		return zero, Meta{}, false, fmt.Errorf("state: get %s: %w", key, err)
	}
	var snapshot T
	if err := json.Unmarshal(value, &snapshot); err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	if extraJSON != "" && extraJSON != "{}" {
		if err := json.Unmarshal([]byte(extraJSON), &meta.Extra); err != nil {
			return zero, Meta{}, false, fmt.Errorf("state: decode %s extra: %w", key, err)
		}
	}
	meta.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return snapshot, meta, true, nil
}

func (s *SQLiteStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	if s == nil || s.sqlDB == nil {
		return Meta{}, fmt.Errorf("state: sqlite store is not configured")
	}
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	value, err := json.Marshal(snapshot)
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %s: %w", key, err)
	}
	stamped := Stamp(meta, s.now())
	extraJSON := "{}"
	if len(stamped.Extra) > 0 {
		raw, err := json.Marshal(stamped.Extra)
		if err != nil {
			return Meta{}, fmt.Errorf("state: encode %s extra: %w", key, err)
		}
		extraJSON = string(raw)
	}

	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO kv (key, value, snapshot_id, etag, extra_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		    value = excluded.value,
		    snapshot_id = excluded.snapshot_id,
		    etag = excluded.etag,
		    extra_json = excluded.extra_json,
		    updated_at = excluded.updated_at`,
		key,
		value,
		stamped.SnapshotID,
		stamped.ETag,
		extraJSON,
		stamped.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return Meta{}, fmt.Errorf("state: put %s: %w", key, err)
	}
	stamped.UpdatedAt = time.UnixMilli(stamped.UpdatedAt.UnixMilli()).UTC()
	return stamped, nil
}
