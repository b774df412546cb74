package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/partyroom/codenames/internal/game"
)

func TestMemoryUpdate_CreatesWaitingDocument(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	doc, err := m.Update(ctx, "lobby-1", func(d *Doc) error { return nil })
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if doc.Version != 1 {
		t.Fatalf("version = %d, want 1 on first commit", doc.Version)
	}
	if doc.State.CurrentPhase != game.PhaseWaiting {
		t.Fatalf("fresh document phase = %s, want waiting", doc.State.CurrentPhase)
	}

	got, err := m.Get(ctx, "lobby-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("stored version = %d, want 1", got.Version)
	}
}

func TestMemoryGet_Missing(t *testing.T) {
	m := NewMemoryStore()
	if _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryUpdate_RejectedFnLeavesDocumentUntouched(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if _, err := m.Update(ctx, "lobby-1", func(d *Doc) error {
		return d.State.JoinSeat(game.SeatRed, "p1", "Alice")
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	boom := errors.New("boom")
	if _, err := m.Update(ctx, "lobby-1", func(d *Doc) error {
		d.State.RedPlayers = nil // must not leak out
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("want fn error, got %v", err)
	}

	doc, err := m.Get(ctx, "lobby-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Version != 1 || len(doc.State.RedPlayers) != 1 {
		t.Fatalf("aborted transaction mutated the document: v=%d red=%d", doc.Version, len(doc.State.RedPlayers))
	}
}

func TestMemoryUpdate_ConcurrentIncrementsAllCommit(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				_, err := m.Update(ctx, "lobby-1", func(d *Doc) error {
					d.State.Log = append(d.State.Log, "x")
					return nil
				})
				if errors.Is(err, ErrTooManyRetries) {
					continue // contention bound hit, try again
				}
				if err != nil {
					t.Errorf("update: %v", err)
				}
				return
			}
		}()
	}
	wg.Wait()

	doc, err := m.Get(ctx, "lobby-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Version != writers {
		t.Fatalf("version = %d, want %d", doc.Version, writers)
	}
	if len(doc.State.Log) != writers {
		t.Fatalf("log entries = %d, want %d (lost update)", len(doc.State.Log), writers)
	}
}

func TestWatch_DeliversCurrentThenChanges(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	if _, err := m.Update(ctx, "lobby-1", func(d *Doc) error { return nil }); err != nil {
		t.Fatalf("seed: %v", err)
	}

	versions := make(chan int64, 8)
	cancel := m.Watch("lobby-1", func(doc Doc) {
		versions <- doc.Version
	}, nil)
	defer cancel()

	select {
	case v := <-versions:
		if v != 1 {
			t.Fatalf("initial snapshot version = %d, want 1", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no initial snapshot delivered")
	}

	if _, err := m.Update(ctx, "lobby-1", func(d *Doc) error {
		return d.State.JoinSeat(game.SeatBlue, "p1", "Bob")
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	select {
	case v := <-versions:
		if v != 2 {
			t.Fatalf("change snapshot version = %d, want 2", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no change snapshot delivered")
	}
}

func TestWatch_CancelStopsDelivery(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	var mu sync.Mutex
	count := 0
	cancel := m.Watch("lobby-1", func(doc Doc) {
		mu.Lock()
		count++
		mu.Unlock()
	}, nil)
	cancel()
	cancel() // second cancel is a no-op

	if _, err := m.Update(ctx, "lobby-1", func(d *Doc) error { return nil }); err != nil {
		t.Fatalf("update: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("cancelled watcher still received %d snapshots", count)
	}
}

func TestMemoryIDs(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if _, err := m.Update(ctx, id, func(d *Doc) error { return nil }); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	ids, err := m.IDs(ctx)
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want 2 entries", ids)
	}
}

func TestUpdate_SnapshotsAreIsolated(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	doc, err := m.Update(ctx, "lobby-1", func(d *Doc) error {
		return d.State.JoinSeat(game.SeatRed, "p1", "Alice")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// Mutating a returned snapshot must not affect the stored document.
	doc.State.RedPlayers[0].Name = "Mallory"

	fresh, err := m.Get(ctx, "lobby-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fresh.State.RedPlayers[0].Name != "Alice" {
		t.Fatalf("snapshot mutation leaked into the store")
	}
}
