// internal/store/sqlite.go
//
// Durable SQLite-backed implementation of the Store interface.
//
// Concurrency model: the version column carries the compare-and-set. A write
// is an UPDATE ... WHERE id=? AND version=?; zero rows affected means another
// client committed first, and the transaction re-reads and retries. This
// works across processes sharing the database file, unlike the in-memory
// backend.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/partyroom/codenames/internal/game"
)

// sqliteStore persists game documents in a game_docs table.
type sqliteStore struct {
	db  *sql.DB
	hub *hub
}

// NewSQLiteStore constructs a Store backed by an opened SQLite handle.
// The schema (game_docs) must already be migrated.
func NewSQLiteStore(db *sql.DB) Store {
	return &sqliteStore{db: db, hub: newHub()}
}

func (s *sqliteStore) read(ctx context.Context, id string) (Doc, bool, error) {
	var (
		version   int64
		updatedAt string
		raw       []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, updated_at, state FROM game_docs WHERE id=?`, id,
	).Scan(&version, &updatedAt, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Doc{}, false, nil
	}
	if err != nil {
		return Doc{}, false, err
	}

	var st game.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return Doc{}, false, fmt.Errorf("decode document %q: %w", id, err)
	}
	ts, _ := time.Parse(time.RFC3339, updatedAt)
	return Doc{ID: id, Version: version, UpdatedAt: ts, State: &st}, true, nil
}

// Get returns the latest committed snapshot of a document.
func (s *sqliteStore) Get(ctx context.Context, id string) (*Doc, error) {
	doc, ok, err := s.read(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &doc, nil
}

// Update applies fn with a version-guarded write, retrying lost races.
func (s *sqliteStore) Update(ctx context.Context, id string, fn UpdateFn) (*Doc, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cur, exists, err := s.read(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			cur = Doc{ID: id, Version: 0, State: game.NewState()}
		}
		base := cur.Version

		if err := fn(&cur); err != nil {
			return nil, err
		}

		raw, err := json.Marshal(cur.State)
		if err != nil {
			return nil, err
		}
		now := time.Now().UTC()
		next := base + 1

		if exists {
			res, err := s.db.ExecContext(ctx,
				`UPDATE game_docs SET version=?, updated_at=?, state=? WHERE id=? AND version=?`,
				next, now.Format(time.RFC3339), raw, id, base,
			)
			if err != nil {
				return nil, err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				continue // lost the race, re-read and retry
			}
		} else {
			_, err := s.db.ExecContext(ctx,
				`INSERT INTO game_docs (id, version, updated_at, state) VALUES (?,?,?,?)`,
				id, next, now.Format(time.RFC3339), raw,
			)
			if err != nil {
				// Unique-constraint loss against a concurrent creator.
				continue
			}
		}

		cur.Version = next
		cur.UpdatedAt = now
		out, err := cloneDoc(cur)
		if err != nil {
			return nil, err
		}
		s.hub.publish(out)
		return &out, nil
	}
	return nil, fmt.Errorf("update %q: %w", id, ErrTooManyRetries)
}

// Watch subscribes to document snapshots, delivering the current one first.
// A failed initial read is reported to this subscriber only; other watchers
// of the same document are unaffected.
func (s *sqliteStore) Watch(id string, onChange func(Doc), onError func(error)) func() {
	cancel := s.hub.subscribe(id, onChange)
	doc, err := s.Get(context.Background(), id)
	switch {
	case err == nil:
		onChange(*doc)
	case !errors.Is(err, ErrNotFound):
		if onError != nil {
			onError(err)
		}
	}
	return cancel
}

// IDs lists all stored document ids.
func (s *sqliteStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM game_docs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
