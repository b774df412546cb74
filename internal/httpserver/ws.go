// internal/httpserver/ws.go
//
// Websocket snapshot feed. Each connection subscribes to its lobby's match
// document and receives the full snapshot on every committed change, current
// state first. Client frames are read only to keep presence fresh and to
// detect disconnects.

package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/partyroom/codenames/internal/store"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return origin == getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	},
}

// handleWS upgrades to a websocket and streams match snapshots until the
// client goes away or the lobby document errors out.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	lobbyID := chi.URLParam(r, "lobbyID")
	pid := playerID(r)

	// Make sure the document exists so the watcher has something to send.
	if _, err := s.store.Update(r.Context(), lobbyID, func(d *store.Doc) error { return nil }); err != nil {
		writeGameError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("lobby", lobbyID).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	var closeOnce sync.Once
	snapshots := make(chan store.Doc, 1)

	cancel := s.store.Watch(lobbyID,
		func(doc store.Doc) {
			// Coalesce: only the latest snapshot matters to a viewer.
			select {
			case snapshots <- doc:
			default:
				select {
				case <-snapshots:
				default:
				}
				select {
				case snapshots <- doc:
				default:
				}
			}
		},
		func(err error) {
			log.Warn().Err(err).Str("lobby", lobbyID).Msg("ws watch error")
			closeOnce.Do(func() { close(closed) })
		},
	)
	defer cancel()

	// Reader: refresh presence on any frame, bail on close.
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		if pid != "" {
			s.pres.Touch(pid)
		}
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			if pid != "" {
				s.pres.Touch(pid)
			}
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		}
	}()

	ping := time.NewTicker(wsPingEvery)
	defer ping.Stop()

	for {
		select {
		case doc := <-snapshots:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(snapshot(&doc)); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readerDone:
			return
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
