// internal/httpserver/token.go
//
// Game tokens: an HS256 JWT naming the game it was issued for.
// POST /game/new hands one out; every endpoint that touches a session
// requires it, so a client can only score guesses against its own game.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/mastermind/internal/game"
)

const (
	tokenCookieName = "mastermind_game"
	tokenTTL        = 24 * time.Hour
)

// ctxSessionKey is the context key type for the token's session.
type ctxSessionKey struct{}

// signGameToken creates a token for gameID valid for tokenTTL.
func (s *Server) signGameToken(gameID string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(tokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"gid": gameID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}

// parseGameToken verifies a token and returns its game ID.
func (s *Server) parseGameToken(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	gid, _ := claims["gid"].(string)
	if gid == "" {
		return "", errors.New("invalid token")
	}
	return gid, nil
}

// setTokenCookie mirrors the token into a cookie for browser clients.
func setTokenCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or the game cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(tokenCookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireGame enforces a valid game token and injects its session into the
// request context.
func (s *Server) requireGame() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerOrCookie(r)
			if tokenStr == "" {
				writeErr(w, http.StatusUnauthorized, "missing_token")
				return
			}
			gid, err := s.parseGameToken(tokenStr)
			if err != nil {
				writeErr(w, http.StatusUnauthorized, "invalid_token")
				return
			}
			sess, err := s.store.Get(r.Context(), gid)
			if err != nil {
				writeErr(w, http.StatusNotFound, "game_not_found")
				return
			}
			ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionFrom returns the session placed by requireGame.
func sessionFrom(r *http.Request) *game.Session {
	sess, _ := r.Context().Value(ctxSessionKey{}).(*game.Session)
	return sess
}
