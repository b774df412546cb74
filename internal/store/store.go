// internal/store/store.go
//
// The shared game-document store: the single source of truth every client
// (browser session or AI agent) mutates and observes.
//
// Contract:
//   - Update runs a read-modify-write transaction with optimistic
//     concurrency: fn receives a private copy of the freshly read state, and
//     the write commits only if the document version is unchanged. A lost
//     race retries with a fresh read, up to maxAttempts.
//   - fn returning an error aborts the transaction with no side effect.
//   - Watch delivers the current snapshot immediately on subscription and a
//     snapshot after every committed write. Slow consumers are coalesced to
//     the latest snapshot, never blocked on.
//
// Implementations: memory (ephemeral) and SQLite (durable), both fanning out
// through the notifier hub in hub.go.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/partyroom/codenames/internal/game"
)

var (
	// ErrNotFound is returned by Get for an unknown document id.
	ErrNotFound = errors.New("store: document not found")

	// ErrConflict marks a single lost optimistic-concurrency race.
	ErrConflict = errors.New("store: version conflict")

	// ErrTooManyRetries is returned when a transaction keeps losing races.
	// Surfaced to callers as a transient "try again" condition, never as
	// data loss.
	ErrTooManyRetries = errors.New("store: transaction retries exhausted")
)

// maxAttempts bounds optimistic retries per Update call.
const maxAttempts = 5

// Doc is a versioned snapshot of one game document.
type Doc struct {
	ID        string
	Version   int64
	UpdatedAt time.Time
	State     *game.State
}

// UpdateFn mutates doc.State on a private copy of the current document.
// Version and UpdatedAt are informational (the store overwrites them on
// commit); UpdatedAt lets supervisory callers re-verify staleness inside the
// transaction. Returning an error aborts the transaction.
type UpdateFn func(doc *Doc) error

// Store is the persistence interface for game documents.
type Store interface {
	// Get returns the latest committed snapshot, or ErrNotFound.
	Get(ctx context.Context, id string) (*Doc, error)

	// Update transactionally applies fn to the document, creating a fresh
	// waiting-state document if none exists yet. Returns the committed
	// snapshot.
	Update(ctx context.Context, id string, fn UpdateFn) (*Doc, error)

	// Watch subscribes to snapshots of one document. The current snapshot
	// (if any) is delivered immediately; every committed write delivers
	// another. The returned func cancels the subscription.
	Watch(id string, onChange func(Doc), onError func(error)) (cancel func())

	// IDs lists every stored document id (used by the supervisory sweep).
	IDs(ctx context.Context) ([]string, error)
}

// cloneDoc deep-copies a document so snapshots never alias stored state.
func cloneDoc(d Doc) (Doc, error) {
	st, err := d.State.Clone()
	if err != nil {
		return Doc{}, err
	}
	d.State = st
	return d, nil
}
