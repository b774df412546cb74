package janitor

import (
	"context"
	"testing"

	"github.com/partyroom/codenames/internal/game"
	"github.com/partyroom/codenames/internal/presence"
	"github.com/partyroom/codenames/internal/store"
)

// fakeLiveness reports a fixed status per player; unknown players are online.
type fakeLiveness struct {
	offline   map[string]bool
	forgotten []string
}

func (f *fakeLiveness) StatusOf(id string) presence.Status {
	if f.offline[id] {
		return presence.StatusOffline
	}
	return presence.StatusOnline
}

func (f *fakeLiveness) Forget(id string) { f.forgotten = append(f.forgotten, id) }

func seedLobby(t *testing.T, st store.Store, id string, mut func(*game.State)) *store.Doc {
	t.Helper()
	doc, err := st.Update(context.Background(), id, func(d *store.Doc) error {
		mut(d.State)
		return nil
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	return doc
}

func TestSweep_EvictsOfflinePlayers(t *testing.T) {
	st := store.NewMemoryStore()
	pres := &fakeLiveness{offline: map[string]bool{"ghost": true}}
	j := New(st, pres)

	seedLobby(t, st, "lobby", func(s *game.State) {
		s.RedPlayers = []game.Player{
			{ID: "ghost", Name: "Ghost"},
			{ID: "alive", Name: "Alive"},
		}
		s.BluePlayers = []game.Player{{ID: "bob", Name: "Bob"}}
	})

	j.Sweep(context.Background())

	doc, err := st.Get(context.Background(), "lobby")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, _, ok := doc.State.FindPlayer("ghost"); ok {
		t.Fatalf("offline player not evicted")
	}
	if _, _, ok := doc.State.FindPlayer("alive"); !ok {
		t.Fatalf("online player evicted")
	}
	if len(pres.forgotten) != 1 || pres.forgotten[0] != "ghost" {
		t.Fatalf("forgotten = %v, want [ghost]", pres.forgotten)
	}
}

func TestSweep_SkipsAISeats(t *testing.T) {
	st := store.NewMemoryStore()
	pres := &fakeLiveness{offline: map[string]bool{"agent": true}}
	j := New(st, pres)

	seedLobby(t, st, "lobby", func(s *game.State) {
		s.RedPlayers = []game.Player{{ID: "agent", Name: "Scout", IsAI: true}}
	})

	j.Sweep(context.Background())

	doc, _ := st.Get(context.Background(), "lobby")
	if _, _, ok := doc.State.FindPlayer("agent"); !ok {
		t.Fatalf("AI seat evicted by the presence sweep")
	}
}

func TestSweep_ResetsIdleMatch(t *testing.T) {
	st := store.NewMemoryStore()
	j := New(st, &fakeLiveness{})
	j.matchIdle = 0 // everything counts as stale

	seedLobby(t, st, "lobby", func(s *game.State) {
		s.CurrentPhase = game.PhaseOperatives
		s.CurrentTeam = game.TeamRed
		s.Cards = game.Board{{Word: "OCEAN", Type: game.CardRed}}
		s.RedPlayers = []game.Player{{ID: "p1", Name: "Alice"}}
		s.BluePlayers = []game.Player{{ID: "p2", Name: "Bob"}}
	})

	j.Sweep(context.Background())

	doc, _ := st.Get(context.Background(), "lobby")
	if doc.State.CurrentPhase != game.PhaseWaiting {
		t.Fatalf("idle match not reset, phase = %s", doc.State.CurrentPhase)
	}
	if len(doc.State.Cards) != 0 {
		t.Fatalf("stale board survived the reset")
	}
	if len(doc.State.RedPlayers) != 1 || len(doc.State.BluePlayers) != 1 {
		t.Fatalf("reset dropped seats")
	}
}

func TestSweep_CleanLobbyNotTouched(t *testing.T) {
	st := store.NewMemoryStore()
	j := New(st, &fakeLiveness{})

	doc := seedLobby(t, st, "lobby", func(s *game.State) {
		s.RedPlayers = []game.Player{{ID: "p1", Name: "Alice"}}
	})

	j.Sweep(context.Background())

	after, _ := st.Get(context.Background(), "lobby")
	if after.Version != doc.Version {
		t.Fatalf("no-op sweep bumped version %d -> %d", doc.Version, after.Version)
	}
}
