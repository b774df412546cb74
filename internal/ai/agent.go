// internal/ai/agent.go
//
// An AI player that occupies a seat like any human and is driven purely by
// store change notifications. It acts through the same State operations the
// HTTP handlers use; nothing here has privileged access to the document.
//
// Concurrency discipline:
//   - Single-flight: an agent never starts a new action while one is in
//     flight, and the flight flag is always cleared on exit, success or not.
//   - Dedup: each action is keyed by (phase, currentTeam, guessesRemaining,
//     own ready flag); redundant notifications for an already-handled key are
//     skipped.
//   - Failure: a failed reasoning call is logged and abandons the action,
//     leaving the shared document untouched. Humans can always play on.

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/partyroom/codenames/internal/game"
	"github.com/partyroom/codenames/internal/llm"
	"github.com/partyroom/codenames/internal/store"
)

// thinkDelay separates the free-text commentary from the decision call, so
// the table sees the agent "thinking" before it acts.
const defaultThinkDelay = 3 * time.Second

// Agent is one AI-occupied seat in one lobby.
type Agent struct {
	ID      string
	Name    string
	Team    game.Team
	Mode    game.AIMode
	LobbyID string

	store store.Store
	llm   llm.Completer
	log   zerolog.Logger

	// Gone is invoked once when the agent's player entry disappears from
	// the document (evicted, lobby reset). Set by the manager.
	Gone func()

	thinkDelay time.Duration
	autoReady  bool

	mu          sync.Mutex
	busy        bool
	lastKey     string
	cancelWatch func()
	stopped     bool

	ctx    context.Context
	cancel context.CancelFunc
}

// newAgent wires an agent; Start must be called before it does anything.
func newAgent(st store.Store, completer llm.Completer, lobbyID string, team game.Team, mode game.AIMode, id, name string) *Agent {
	return &Agent{
		ID:         id,
		Name:       name,
		Team:       team,
		Mode:       mode,
		LobbyID:    lobbyID,
		store:      st,
		llm:        completer,
		log:        log.With().Str("agent", name).Str("lobby", lobbyID).Logger(),
		thinkDelay: defaultThinkDelay,
	}
}

// Start seats the agent and subscribes it to document changes. ctx is the
// agent's whole lifetime, not the request that spawned it. autoReady toggles
// readiness immediately after joining and again whenever a rules commit
// wipes the ready flags (granted only when the pre-join probe answered
// ready).
func (a *Agent) Start(ctx context.Context, autoReady bool) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.autoReady = autoReady
	_, err := a.store.Update(a.ctx, a.LobbyID, func(doc *store.Doc) error {
		if err := doc.State.JoinSeat(game.Seat(a.Team), a.ID, a.Name); err != nil {
			return err
		}
		return doc.State.MarkAI(a.ID, a.Mode)
	})
	if err != nil {
		return fmt.Errorf("seat agent: %w", err)
	}

	if autoReady {
		a.update(func(doc *store.Doc) error { return doc.State.ToggleReady(a.ID) })
	}

	a.mu.Lock()
	a.cancelWatch = a.store.Watch(a.LobbyID, a.observe, func(err error) {
		a.log.Warn().Err(err).Msg("watch error")
	})
	a.mu.Unlock()
	return nil
}

// Stop unsubscribes the agent and ends its context, aborting any in-flight
// reasoning call. It does not vacate the seat; callers decide whether the
// seat should be freed.
func (a *Agent) Stop() {
	a.mu.Lock()
	cancel := a.cancelWatch
	a.cancelWatch = nil
	a.stopped = true
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if a.cancel != nil {
		a.cancel()
	}
}

// observe is the notification callback: it decides whether this snapshot
// warrants an action and, if so, launches exactly one.
func (a *Agent) observe(doc store.Doc) {
	st := doc.State

	self, _, ok := st.FindPlayer(a.ID)
	if !ok {
		a.mu.Lock()
		gone := !a.stopped
		a.mu.Unlock()
		if gone && a.Gone != nil {
			a.Gone()
		}
		return
	}

	// The ready flag is part of the key: a rules commit mid-waiting clears
	// readiness, and that transition owes a fresh action.
	key := fmt.Sprintf("%s|%s|%d|%t", st.CurrentPhase, st.CurrentTeam, st.GuessesRemaining, self.Ready)
	action := a.pick(st)
	if action == nil {
		return
	}

	a.mu.Lock()
	if a.busy || a.stopped || key == a.lastKey {
		a.mu.Unlock()
		return
	}
	a.busy = true
	a.lastKey = key
	a.mu.Unlock()

	go func() {
		defer func() {
			a.mu.Lock()
			a.busy = false
			a.mu.Unlock()
		}()
		action()
	}()
}

// pick maps a snapshot to the action this agent owes, or nil.
func (a *Agent) pick(st *game.State) func() {
	switch st.CurrentPhase {
	case game.PhaseWaiting:
		// A rules commit clears every ready flag, including this agent's
		// one-shot ready-up from Start. Re-ready or the lobby stalls.
		p, _, _ := st.FindPlayer(a.ID)
		if a.autoReady && p != nil && !p.Ready && st.RulesAgreed() {
			return func() { a.readyUp() }
		}
	case game.PhaseRoleSelection:
		p, _, _ := st.FindPlayer(a.ID)
		if p != nil && p.Role == "" {
			return func() { a.claimRole() }
		}
	case game.PhaseSpymaster:
		if st.CurrentTeam == a.Team && a.Mode == game.AIAutonomous && st.Spymaster(a.Team) == a.Name {
			snap := st
			return func() { a.playSpymaster(snap) }
		}
	case game.PhaseOperatives:
		if st.CurrentTeam != a.Team || st.CurrentClue == nil {
			return nil
		}
		snap := st
		switch {
		case a.Mode == game.AIHelper:
			return func() { a.advise(snap) }
		case a.Mode == game.AIAutonomous && st.Spymaster(a.Team) != a.Name:
			return func() { a.playOperative(snap) }
		}
	}
	return nil
}

// readyUp flips the agent back to ready after a rules commit un-readied it.
// Guarded inside the transaction so a racing snapshot cannot toggle an
// already-ready agent back off.
func (a *Agent) readyUp() {
	a.update(func(doc *store.Doc) error {
		p, _, ok := doc.State.FindPlayer(a.ID)
		if !ok || p.Ready {
			return fmt.Errorf("ready-up no longer applies")
		}
		return doc.State.ToggleReady(a.ID)
	})
}

// claimRole takes the spymaster seat when playing autonomously (falling back
// to operative if someone beat it there), or operative when helping.
func (a *Agent) claimRole() {
	role := game.RoleOperative
	if a.Mode == game.AIAutonomous {
		role = game.RoleSpymaster
	}
	a.update(func(doc *store.Doc) error {
		if role == game.RoleSpymaster && doc.State.Spymaster(a.Team) != "" && doc.State.Spymaster(a.Team) != a.Name {
			return doc.State.SelectRole(a.Team, game.RoleOperative, a.ID)
		}
		return doc.State.SelectRole(a.Team, role, a.ID)
	})
}

// playSpymaster posts thinking commentary, then issues a schema-constrained
// decision call and submits the clue if (and only if) it validates.
func (a *Agent) playSpymaster(st *game.State) {
	remark, err := a.llm.Complete(a.ctx, spymasterThinkMessages(st, a.Team), llm.Options{Temperature: 0.8})
	if err != nil {
		a.log.Warn().Err(err).Msg("spymaster commentary failed")
		return
	}
	a.postChat(remark)

	if !a.pause() {
		return
	}

	out, err := a.llm.Complete(a.ctx, spymasterClueMessages(st, a.Team), llm.Options{
		SchemaName:     "clue",
		ResponseSchema: clueSchema,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("clue decision failed")
		return
	}

	var d clueDecision
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		a.log.Warn().Str("raw", out).Msg("clue decision unparseable, abandoning turn")
		return
	}
	d.Clue = strings.TrimSpace(d.Clue)
	switch {
	case d.Clue == "",
		strings.IndexFunc(d.Clue, unicode.IsSpace) >= 0,
		d.Number < 0 || d.Number > game.MaxClueNumber,
		st.Cards.HasWord(d.Clue):
		a.log.Warn().Str("clue", d.Clue).Int("number", d.Number).Msg("invalid clue from provider, abandoning turn")
		return
	}

	a.update(func(doc *store.Doc) error {
		return doc.State.SubmitClue(a.Team, d.Clue, d.Number, a.ID)
	})
}

// playOperative posts reasoning (words only, no identities), then issues a
// schema-constrained pick and guesses the matching card. A pick that is not
// an unrevealed board word gets an apology instead of a guess.
func (a *Agent) playOperative(st *game.State) {
	remark, err := a.llm.Complete(a.ctx, operativeThinkMessages(st, a.Team), llm.Options{Temperature: 0.8})
	if err != nil {
		a.log.Warn().Err(err).Msg("operative commentary failed")
		return
	}
	a.postChat(remark)

	if !a.pause() {
		return
	}

	out, err := a.llm.Complete(a.ctx, operativeGuessMessages(st, a.Team), llm.Options{
		SchemaName:     "guess",
		ResponseSchema: guessSchema,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("guess decision failed")
		return
	}

	var d guessDecision
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		a.log.Warn().Str("raw", out).Msg("guess decision unparseable, abandoning turn")
		return
	}
	d.CardWord = strings.TrimSpace(d.CardWord)
	if st.Cards.UnrevealedIndex(d.CardWord) < 0 {
		a.log.Warn().Str("word", d.CardWord).Msg("provider picked a word not on the board")
		a.postChat("I picked a word that isn't on the board. I'll sit this one out, sorry!")
		return
	}

	a.update(func(doc *store.Doc) error {
		// Re-resolve against the fresh document: someone may have revealed
		// the card while we were thinking.
		idx := doc.State.Cards.UnrevealedIndex(d.CardWord)
		if idx < 0 {
			return fmt.Errorf("card %q no longer guessable", d.CardWord)
		}
		return doc.State.GuessCard(idx, a.ID)
	})
}

// advise posts a hint for the human operatives. Helper mode never touches
// the board.
func (a *Agent) advise(st *game.State) {
	remark, err := a.llm.Complete(a.ctx, advisorMessages(st, a.Team), llm.Options{Temperature: 0.8})
	if err != nil {
		a.log.Warn().Err(err).Msg("advisory call failed")
		return
	}
	a.postChat(remark)
}

// postChat best-effort appends a chat message as this agent.
func (a *Agent) postChat(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if r := []rune(text); len(r) > 480 {
		text = string(r[:480])
	}
	a.update(func(doc *store.Doc) error { return doc.State.PostChat(a.ID, text) })
}

// update runs one store transaction, logging (not propagating) rejections:
// losing a precondition race is normal for an agent acting on snapshots.
func (a *Agent) update(fn store.UpdateFn) {
	if _, err := a.store.Update(a.ctx, a.LobbyID, fn); err != nil {
		a.log.Debug().Err(err).Msg("agent transaction rejected")
	}
}

// pause waits the thinking delay, reporting false if the agent's context
// ended meanwhile.
func (a *Agent) pause() bool {
	select {
	case <-a.ctx.Done():
		return false
	case <-time.After(a.thinkDelay):
		return true
	}
}
