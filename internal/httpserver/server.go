// internal/httpserver/server.go
//
// HTTP server wiring for the Codenames backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/decks".
//   - Lobby endpoints under /lobby/{lobbyID}: state, websocket feed, seating,
//     readiness, rule negotiation, roles, clues, guesses, chat, heartbeat,
//     AI player management.
//   - Guest session cookies (JWT), lobby passcodes, presence heartbeats.
//
// Notes:
//   - Every mutating handler funnels through store.Update so concurrent
//     requests resolve via compare-and-swap, never via handler-level locks.
//   - Rule violations map to 400, out-of-turn/phase actions to 409.
//   - CORS is origin-aware and credentials-enabled (so cookies work).

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/partyroom/codenames/internal/ai"
	"github.com/partyroom/codenames/internal/game"
	"github.com/partyroom/codenames/internal/presence"
	"github.com/partyroom/codenames/internal/store"
	"github.com/partyroom/codenames/internal/words"
)

// Server bundles router, match store, DB handle, presence tracker, and the
// AI agent registry.
type Server struct {
	r      *chi.Mux
	store  store.Store
	db     *sql.DB
	pres   *presence.Tracker
	agents *ai.Manager
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB, pres *presence.Tracker, agents *ai.Manager) *Server {
	s := &Server{r: chi.NewRouter(), store: st, db: db, pres: pres, agents: agents}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(15 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"codenames-go","endpoints":["/health","/decks","POST /lobby","/lobby/{lobbyID}/..."]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/decks", s.handleDecks)

	s.r.With(s.withSession()).Post("/lobby", s.handleCreateLobby)

	s.r.Route("/lobby/{lobbyID}", func(r chi.Router) {
		r.Use(s.withSession())
		r.Use(s.withLobbyAccess())

		r.Get("/state", s.handleState)
		r.Get("/ws", s.handleWS)

		r.Post("/join", s.handleJoin)
		r.Post("/leave", s.handleLeave)
		r.Post("/ready", s.handleReady)
		r.Post("/offer", s.handleOffer)
		r.Post("/accept", s.handleAccept)
		r.Post("/role", s.handleRole)
		r.Post("/clue", s.handleClue)
		r.Post("/guess", s.handleGuess)
		r.Post("/endturn", s.handleEndTurn)
		r.Post("/chat", s.handleChat)
		r.Post("/heartbeat", s.handleHeartbeat)

		r.Post("/ai", s.handleSpawnAI)
		r.Delete("/ai/{agentID}", s.handleRemoveAI)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Router exposes the internal router; main wraps it with its own logging
// before serving, and tests mount it directly.
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+passcodeHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLobbyAccess verifies the lobby exists and the passcode (if any) checks
// out before letting the request through. Also marks the caller as seen.
func (s *Server) withLobbyAccess() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lobbyID := chi.URLParam(r, "lobbyID")
			if !s.checkLobbyAccess(w, r, lobbyID) {
				return
			}
			if pid := playerID(r); pid != "" {
				s.pres.Touch(pid)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// -------------------------- error translation ------------------------------

// writeGameError maps engine errors onto HTTP status codes. Validation
// failures (malformed input) get 400 and rule preconditions (wrong phase,
// not your turn) get 409, so clients can tell "fix your request" apart from
// "you raced someone".
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case game.IsValidation(err):
		httpJSONError(w, err.Error(), http.StatusBadRequest)
	case game.IsPrecondition(err):
		httpJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrNotFound):
		httpJSONError(w, "match not found", http.StatusNotFound)
	case errors.Is(err, store.ErrTooManyRetries):
		httpJSONError(w, "too much contention, retry", http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Msg("game update failed")
		httpJSONError(w, "internal error", http.StatusInternalServerError)
	}
}

// httpJSONError writes {"error": msg} with the given status.
func httpJSONError(w http.ResponseWriter, msg string, code int) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// decodeBody decodes a JSON request body, 400ing on malformed input.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpJSONError(w, "bad_json", http.StatusBadRequest)
		return false
	}
	return true
}

// ------------------------------- handlers ----------------------------------

// handleDecks lists the available word decks.
func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	type deckInfo struct {
		ID    string `json:"id"`
		Words int    `json:"words"`
	}
	out := []deckInfo{}
	for _, id := range words.IDs() {
		list, _ := words.Deck(id)
		out = append(out, deckInfo{ID: id, Words: len(list)})
	}
	_ = json.NewEncoder(w).Encode(out)
}

// handleState returns the current match snapshot for the lobby, creating a
// fresh waiting-room document on first access.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	lobbyID := chi.URLParam(r, "lobbyID")
	doc, err := s.store.Get(r.Context(), lobbyID)
	if errors.Is(err, store.ErrNotFound) {
		// Seed the document so first visitors see the waiting room.
		doc, err = s.store.Update(r.Context(), lobbyID, func(d *store.Doc) error { return nil })
	}
	if err != nil {
		writeGameError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snapshot(doc))
}

// snapshotRes is the wire shape for a match snapshot.
type snapshotRes struct {
	LobbyID string      `json:"lobbyId"`
	Version int64       `json:"version"`
	State   *game.State `json:"state"`
}

func snapshot(doc *store.Doc) snapshotRes {
	return snapshotRes{LobbyID: doc.ID, Version: doc.Version, State: doc.State}
}

type joinReq struct {
	Seat game.Seat `json:"seat"`
	Name string    `json:"name"`
}

// handleJoin seats the caller (red, blue, or spectator).
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinReq
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Guest"
	}
	if r := []rune(name); len(r) > 24 {
		name = string(r[:24])
	}
	s.mutate(w, r, func(st *game.State) error {
		return st.JoinSeat(req.Seat, playerID(r), name)
	})
}

// handleLeave removes the caller from whatever seat they hold.
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(st *game.State) error {
		return st.LeaveSeat(playerID(r))
	})
}

// handleReady toggles the caller's ready flag in the waiting room.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(st *game.State) error {
		return st.ToggleReady(playerID(r))
	})
}

type offerReq struct {
	Team     game.Team          `json:"team"`
	Settings game.MatchSettings `json:"settings"`
}

// handleOffer proposes new quick-game settings on behalf of a team.
func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	var req offerReq
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, r, func(st *game.State) error {
		return st.OfferSettings(req.Team, req.Settings)
	})
}

type teamReq struct {
	Team game.Team `json:"team"`
}

// handleAccept accepts the pending settings offer for the caller's team.
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	var req teamReq
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, r, func(st *game.State) error {
		return st.AcceptOffer(req.Team)
	})
}

type roleReq struct {
	Team game.Team `json:"team"`
	Role game.Role `json:"role"`
}

// handleRole claims spymaster or operative during role selection.
func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	var req roleReq
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, r, func(st *game.State) error {
		return st.SelectRole(req.Team, req.Role, playerID(r))
	})
}

type clueReq struct {
	Team   game.Team `json:"team"`
	Word   string    `json:"word"`
	Number int       `json:"number"`
}

// handleClue submits a spymaster clue.
func (s *Server) handleClue(w http.ResponseWriter, r *http.Request) {
	var req clueReq
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, r, func(st *game.State) error {
		return st.SubmitClue(req.Team, req.Word, req.Number, playerID(r))
	})
}

type guessReq struct {
	CardIndex int `json:"cardIndex"`
}

// handleGuess reveals a card on behalf of the guessing team.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, r, func(st *game.State) error {
		return st.GuessCard(req.CardIndex, playerID(r))
	})
}

// handleEndTurn passes the turn voluntarily.
func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	var req teamReq
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, r, func(st *game.State) error {
		return st.EndTurn(req.Team, playerID(r))
	})
}

type chatReq struct {
	Text string `json:"text"`
}

// handleChat appends a chat message to the lobby feed.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if !decodeBody(w, r, &req) {
		return
	}
	s.mutate(w, r, func(st *game.State) error {
		return st.PostChat(playerID(r), req.Text)
	})
}

// handleHeartbeat refreshes the caller's presence without touching the match.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	// withLobbyAccess already touched presence.
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

type spawnAIReq struct {
	Team game.Team   `json:"team"`
	Mode game.AIMode `json:"mode"`
	Name string      `json:"name"`
}
type spawnAIRes struct {
	AgentID string `json:"agentId"`
	Status  string `json:"status"`
}

// handleSpawnAI probes the language-model provider and, if it answers, seats
// an AI player in the lobby.
func (s *Server) handleSpawnAI(w http.ResponseWriter, r *http.Request) {
	var req spawnAIReq
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Team.Valid() {
		httpJSONError(w, "team must be red or blue", http.StatusBadRequest)
		return
	}
	mode := req.Mode
	if mode == "" {
		mode = game.AIHelper
	}
	if mode != game.AIHelper && mode != game.AIAutonomous {
		httpJSONError(w, "mode must be helper or autonomous", http.StatusBadRequest)
		return
	}
	lobbyID := chi.URLParam(r, "lobbyID")
	agent, status, err := s.agents.Spawn(r.Context(), lobbyID, req.Team, mode, strings.TrimSpace(req.Name))
	if errors.Is(err, ai.ErrNoProvider) {
		httpJSONError(w, "no language model provider configured", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		httpJSONError(w, "ai provider unavailable: "+err.Error(), http.StatusBadGateway)
		return
	}
	_ = json.NewEncoder(w).Encode(spawnAIRes{AgentID: agent.ID, Status: string(status)})
}

// handleRemoveAI stops an AI player and evicts it from the match.
func (s *Server) handleRemoveAI(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	s.agents.Remove(agentID)
	s.mutate(w, r, func(st *game.State) error {
		return st.EvictPlayer(agentID)
	})
}

// mutate runs fn against the lobby's match document under compare-and-swap
// and writes the resulting snapshot (or a translated error).
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*game.State) error) {
	lobbyID := chi.URLParam(r, "lobbyID")
	doc, err := s.store.Update(r.Context(), lobbyID, func(doc *store.Doc) error {
		return fn(doc.State)
	})
	if err != nil {
		writeGameError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snapshot(doc))
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
