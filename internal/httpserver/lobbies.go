// internal/httpserver/lobbies.go
//
// Named lobbies beyond the always-available quickplay one. A lobby row only
// exists for explicitly created lobbies; "quickplay" needs no row and no
// passcode. Private lobbies store a bcrypt hash of their passcode and check
// the X-Lobby-Passcode header on every request.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// QuickplayID is the shared default lobby that always exists.
const QuickplayID = "quickplay"

const passcodeHeader = "X-Lobby-Passcode"

type createLobbyReq struct {
	Name     string `json:"name"`
	Passcode string `json:"passcode"`
}
type createLobbyRes struct {
	LobbyID string `json:"lobbyId"`
}

// handleCreateLobby registers a new named lobby, optionally passcode-locked.
func (s *Server) handleCreateLobby(w http.ResponseWriter, r *http.Request) {
	var req createLobbyReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	name := strings.TrimSpace(req.Name)
	if len(name) > 40 {
		http.Error(w, `{"error":"lobby name too long"}`, http.StatusBadRequest)
		return
	}

	var hash string
	if pc := strings.TrimSpace(req.Passcode); pc != "" {
		if len(pc) < 4 || len(pc) > 64 {
			http.Error(w, `{"error":"passcode must be 4-64 chars"}`, http.StatusBadRequest)
			return
		}
		b, err := bcrypt.GenerateFromPassword([]byte(pc), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, `{"error":"hash_failed"}`, http.StatusInternalServerError)
			return
		}
		hash = string(b)
	}

	id := uuid.NewString()[:8]
	_, err := s.db.Exec(`INSERT INTO lobbies (id, name, passcode_hash, created_at) VALUES (?,?,?,?)`,
		id, name, hash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(createLobbyRes{LobbyID: id})
}

// checkLobbyAccess resolves the lobby id and verifies the passcode when the
// lobby is private. Returns false after writing the error response.
func (s *Server) checkLobbyAccess(w http.ResponseWriter, r *http.Request, lobbyID string) bool {
	if lobbyID == QuickplayID {
		return true
	}
	var hash string
	err := s.db.QueryRow(`SELECT passcode_hash FROM lobbies WHERE id=?`, lobbyID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, `{"error":"lobby_not_found"}`, http.StatusNotFound)
		return false
	}
	if err != nil {
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return false
	}
	if hash == "" {
		return true
	}
	pc := r.Header.Get(passcodeHeader)
	if pc == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(pc)) != nil {
		http.Error(w, `{"error":"wrong_passcode"}`, http.StatusForbidden)
		return false
	}
	return true
}
