// internal/janitor/janitor.go
//
// Supervisory sweeps over every stored lobby:
//   - evict seated players whose presence has gone offline,
//   - reset matches untouched for longer than the inactivity timeout,
//   - reset active matches whose lobby has completely emptied.
//
// Each correction runs as a normal store transaction and re-verifies its
// trigger inside the transaction body, so a sweep can never race a
// just-resumed match: if the document changed between the sweep's read and
// its write, the compare-and-set retries against fresh state and the stale
// condition no longer holds.

package janitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/partyroom/codenames/internal/game"
	"github.com/partyroom/codenames/internal/presence"
	"github.com/partyroom/codenames/internal/store"
)

// errClean aborts a transaction that found nothing to correct, so sweeps do
// not bump document versions or wake subscribers.
var errClean = errors.New("janitor: nothing to do")

const (
	defaultInterval  = 30 * time.Second
	defaultMatchIdle = 30 * time.Minute
)

// Liveness is the presence lookup the sweeps consume. *presence.Tracker
// satisfies it.
type Liveness interface {
	StatusOf(playerID string) presence.Status
	Forget(playerID string)
}

// Janitor periodically repairs lobby documents.
type Janitor struct {
	store    store.Store
	presence Liveness

	interval  time.Duration
	matchIdle time.Duration
}

// New constructs a Janitor with default timings.
func New(st store.Store, pt Liveness) *Janitor {
	return &Janitor{
		store:     st,
		presence:  pt,
		interval:  defaultInterval,
		matchIdle: defaultMatchIdle,
	}
}

// Run sweeps on a ticker until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	t := time.NewTicker(j.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over every stored lobby.
func (j *Janitor) Sweep(ctx context.Context) {
	ids, err := j.store.IDs(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("janitor: list lobbies")
		return
	}
	for _, id := range ids {
		j.sweepLobby(ctx, id)
	}
}

func (j *Janitor) sweepLobby(ctx context.Context, id string) {
	_, err := j.store.Update(ctx, id, func(doc *store.Doc) error {
		changed := false

		// Presence-driven eviction, re-checked against the freshly read
		// roster.
		for _, pid := range offlineSeated(doc.State, j.presence) {
			if err := doc.State.EvictPlayer(pid); err == nil {
				j.presence.Forget(pid)
				changed = true
			}
		}

		// Inactivity reset: the staleness check uses the UpdatedAt of the
		// document as read by this transaction.
		stale := doc.Version > 0 && time.Since(doc.UpdatedAt) >= j.matchIdle
		if stale && doc.State.CurrentPhase != game.PhaseWaiting {
			doc.State.ResetToLobby("no activity for 30 minutes")
			changed = true
		}

		if !changed {
			return errClean
		}
		return nil
	})
	if err != nil && !errors.Is(err, errClean) {
		log.Warn().Err(err).Str("lobby", id).Msg("janitor: sweep failed")
	} else if err == nil {
		log.Info().Str("lobby", id).Msg("janitor: lobby corrected")
	}
}

// offlineSeated lists seated players (not spectators) whose presence is
// offline. AI seats have no heartbeats, so their entries are skipped: their
// lifecycle belongs to the agent manager.
func offlineSeated(s *game.State, pt Liveness) []string {
	var out []string
	for _, seat := range []game.Seat{game.SeatRed, game.SeatBlue} {
		for _, p := range s.Roster(seat) {
			if p.IsAI {
				continue
			}
			if pt.StatusOf(p.ID) == presence.StatusOffline {
				out = append(out, p.ID)
			}
		}
	}
	return out
}
