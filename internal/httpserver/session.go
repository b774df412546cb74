// internal/httpserver/session.go
//
// Guest sessions: every browser gets a signed cookie carrying a generated
// player id, which is the stable per-session identity the lobby seats are
// keyed by. There are no accounts or passwords; the JWT only stops clients
// from forging each other's player ids.

package httpserver

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionCookieName = "codenames_session"

type ctxPlayerKey struct{}

func jwtSecret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev_secret_change_me")
}

// withSession decorates every request with a player id, minting and setting
// a fresh session cookie when none (or an invalid one) is presented.
func (s *Server) withSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := playerIDFromCookie(r)
			if id == "" {
				id = uuid.NewString()
				tok, err := signSession(id)
				if err != nil {
					http.Error(w, `{"error":"session_failed"}`, http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookieName,
					Value:    tok,
					Path:     "/",
					HttpOnly: true,
					Secure:   os.Getenv("NODE_ENV") == "production",
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(30 * 24 * time.Hour),
				})
			}
			ctx := context.WithValue(r.Context(), ctxPlayerKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// playerID returns the session's player id ("" only if middleware is absent).
func playerID(r *http.Request) string {
	id, _ := r.Context().Value(ctxPlayerKey{}).(string)
	return id
}

func playerIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(c.Value, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret(), nil
	})
	if err != nil || !tok.Valid {
		return ""
	}
	id, _ := claims["id"].(string)
	return id
}

func signSession(id string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  id,
		"iat": time.Now().Unix(),
	})
	return tok.SignedString(jwtSecret())
}
