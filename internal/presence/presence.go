// internal/presence/presence.go
//
// Heartbeat-based liveness tracking for seated players. Clients ping on an
// interval (and implicitly via websocket traffic); the janitor asks StatusOf
// before evicting anyone.
//
// A player the tracker has never heard of is reported online: presence data
// warms up after a restart, and failing open avoids evicting an entire lobby
// before the first heartbeats arrive.

package presence

import (
	"sync"
	"time"
)

// Status is the coarse liveness classification of one player.
type Status string

const (
	StatusOnline  Status = "online"
	StatusIdle    Status = "idle"
	StatusOffline Status = "offline"
)

const (
	defaultIdleAfter    = 1 * time.Minute
	defaultOfflineAfter = 3 * time.Minute
)

// Tracker records the last heartbeat per player id.
type Tracker struct {
	mu   sync.RWMutex
	seen map[string]time.Time

	idleAfter    time.Duration
	offlineAfter time.Duration
	now          func() time.Time // swapped in tests
}

// NewTracker constructs a Tracker with default thresholds.
func NewTracker() *Tracker {
	return &Tracker{
		seen:         make(map[string]time.Time),
		idleAfter:    defaultIdleAfter,
		offlineAfter: defaultOfflineAfter,
		now:          time.Now,
	}
}

// Touch records a heartbeat for a player.
func (t *Tracker) Touch(playerID string) {
	t.mu.Lock()
	t.seen[playerID] = t.now()
	t.mu.Unlock()
}

// Forget drops a player's heartbeat record (after eviction or leave).
func (t *Tracker) Forget(playerID string) {
	t.mu.Lock()
	delete(t.seen, playerID)
	t.mu.Unlock()
}

// StatusOf classifies a player's liveness. Unknown players are online.
func (t *Tracker) StatusOf(playerID string) Status {
	t.mu.RLock()
	last, ok := t.seen[playerID]
	t.mu.RUnlock()
	if !ok {
		return StatusOnline
	}
	age := t.now().Sub(last)
	switch {
	case age >= t.offlineAfter:
		return StatusOffline
	case age >= t.idleAfter:
		return StatusIdle
	default:
		return StatusOnline
	}
}
