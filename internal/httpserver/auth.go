// internal/httpserver/auth.go
//
// Player account auth for the Hand-and-Brain backend.
// Responsibilities:
//   - Signup/login issuing HS256 JWTs (bearer header or cookie).
//   - bcrypt password hashing for registered players.
//   - Optional-auth middleware decorating requests with the caller's
//     player identity; guest players (no password) remain first-class.

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hnbchess/hnb-chess/internal/game"
	"github.com/hnbchess/hnb-chess/internal/store"
)

type ctxPlayerKey struct{}

// authPlayer is placed into request context by the auth middleware.
type authPlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	exp := time.Now().Add(14 * 24 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := token.SignedString(s.secret)
	return ss, exp, err
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

const cookieName = "hnb_token"

func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// withOptionalAuth decorates requests with player context if a valid JWT
// is present. It never 401s; guests are allowed everywhere it is used.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				claims := jwt.MapClaims{}
				if t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
					return s.secret, nil
				}); err == nil && t.Valid {
					if id, _ := claims["id"].(string); id != "" {
						if p, err := s.store.GetPlayer(r.Context(), id); err == nil {
							ctx := context.WithValue(r.Context(), ctxPlayerKey{}, &authPlayer{ID: p.ID, Username: p.Username})
							r = r.WithContext(ctx)
						}
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// callerID returns the authenticated player id, "" for guests.
func callerID(r *http.Request) string {
	if p, _ := r.Context().Value(ctxPlayerKey{}).(*authPlayer); p != nil {
		return p.ID
	}
	return ""
}

type signupReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleSignup registers a player with credentials and signs them in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := decodeJSON(r, &body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	username := strings.TrimSpace(body.Username)
	if err := validateSignup(username, body.Password); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := s.store.GetPlayerByUsername(r.Context(), username); err == nil {
		httpError(w, http.StatusConflict, "username taken")
		return
	}
	hash, err := hashPassword(body.Password)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "hash_failed")
		return
	}
	p := &game.Player{ID: newID(), Username: username, Rating: defaultRating}
	if err := s.store.SavePlayer(r.Context(), p); err != nil {
		httpError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	if err := s.store.SetCredential(r.Context(), p.ID, hash); err != nil {
		httpError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	s.respondAuth(w, p)
}

// handleLogin authenticates a registered player.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := decodeJSON(r, &body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	p, err := s.store.GetPlayerByUsername(r.Context(), strings.TrimSpace(body.Username))
	if err != nil {
		httpError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	hash, err := s.store.GetCredential(r.Context(), p.ID)
	if errors.Is(err, store.ErrNotFound) || err == nil && !checkPassword(hash, body.Password) {
		httpError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	s.respondAuth(w, p)
}

func (s *Server) respondAuth(w http.ResponseWriter, p *game.Player) {
	tok, exp, err := s.signJWT(p.ID, p.Username)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, map[string]any{"player": p, "token": tok})
}
