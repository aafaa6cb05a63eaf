// internal/httpserver/server.go
//
// HTTP wiring for the Hand-and-Brain backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Player registry: POST/GET /players (guests), /auth/* (registered).
//   - Game resources: create/list/get/join + suggestion/move logs.
//   - Websocket endpoint (/ws) pushing full game snapshots; see ws.go.
//
// All game mutations funnel through applyX methods that hold one mutex,
// so the snapshot sequence number always matches the state it stamps.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hnbchess/hnb-chess/internal/game"
	"github.com/hnbchess/hnb-chess/internal/protocol"
	"github.com/hnbchess/hnb-chess/internal/store"
)

const defaultRating = 1200

// Options configures a Server.
type Options struct {
	JWTSecret    string
	ClientOrigin string
}

// Server bundles router, store, rules boundary, and the websocket hub.
type Server struct {
	r      *chi.Mux
	store  store.Store
	rules  game.Rules
	hub    *hub
	secret []byte
	origin string

	// gmu serializes game mutations with their snapshot broadcast.
	gmu sync.Mutex
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, rl game.Rules, opts Options) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		rules:  rl,
		hub:    newHub(),
		secret: []byte(opts.JWTSecret),
		origin: opts.ClientOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"service":   "hnb-chess",
			"endpoints": []string{"/health", "/players", "/games", "/ws", "/auth/signup", "/auth/login"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]bool{"ok": true})
	})

	// --- auth ---
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)

	// --- player registry ---
	s.r.Get("/players", s.handleListPlayers)
	s.r.Post("/players", s.handleCreatePlayer)
	s.r.Get("/players/{id}", s.handleGetPlayer)

	// --- games (optional auth: guests play, tokens pin identity) ---
	s.r.With(s.withOptionalAuth()).Post("/games", s.handleCreateGame)
	s.r.Get("/games", s.handleListGames)
	s.r.Get("/games/{id}", s.handleGetGame)
	s.r.With(s.withOptionalAuth()).Post("/games/{id}/join", s.handleJoinGame)
	s.r.Get("/games/{id}/suggestions", s.handleListSuggestions)
	s.r.Get("/games/{id}/moves", s.handleListMoves)

	// --- snapshot push ---
	s.r.Get("/ws", s.serveWS)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ players ------------------------------------

type createPlayerReq struct {
	Username string `json:"username"`
}

// handleCreatePlayer registers a guest player (no credentials).
func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var body createPlayerReq
	if err := decodeJSON(r, &body); err != nil || body.Username == "" {
		httpError(w, http.StatusBadRequest, "username required")
		return
	}
	if _, err := s.store.GetPlayerByUsername(r.Context(), body.Username); err == nil {
		httpError(w, http.StatusConflict, "username taken")
		return
	}
	p := &game.Player{ID: newID(), Username: body.Username, Rating: defaultRating}
	if err := s.store.SavePlayer(r.Context(), p); err != nil {
		log.Error().Err(err).Msg("save player")
		httpError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, p)
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.store.ListPlayers(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, players)
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPlayer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, p)
}

// ------------------------------ games --------------------------------------

type createGameReq struct {
	PlayerID  string `json:"playerId"`
	TeamColor string `json:"teamColor"`
	Role      string `json:"role"`
}

type joinGameReq struct {
	PlayerID  string `json:"playerId"`
	TeamColor string `json:"teamColor"`
	Role      string `json:"role"`
}

// handleCreateGame creates a game with the creator seated at their chosen
// position.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var body createGameReq
	if err := decodeJSON(r, &body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if !s.allowActor(r, body.PlayerID) {
		httpError(w, http.StatusForbidden, "player id does not match token")
		return
	}
	team, role, err := parseSeat(body.TeamColor, body.Role)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.store.GetPlayer(r.Context(), body.PlayerID)
	if err != nil {
		httpError(w, http.StatusNotFound, "player not found")
		return
	}

	g := game.NewGame()
	if err := g.Assign(p, team, role); err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	if err := s.store.SaveGame(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		httpError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("gameId", g.ID).Str("playerId", p.ID).Msg("game created")
	writeJSON(w, g)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.store.ListGames(r.Context())
	if err != nil {
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, games)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := s.store.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusNotFound, "game not found")
		return
	}
	writeJSON(w, g)
}

// handleJoinGame seats a player; filling the fourth seat starts the game.
func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	var body joinGameReq
	if err := decodeJSON(r, &body); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if !s.allowActor(r, body.PlayerID) {
		httpError(w, http.StatusForbidden, "player id does not match token")
		return
	}
	team, role, err := parseSeat(body.TeamColor, body.Role)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.store.GetPlayer(r.Context(), body.PlayerID)
	if err != nil {
		httpError(w, http.StatusNotFound, "player not found")
		return
	}

	s.gmu.Lock()
	defer s.gmu.Unlock()

	g, err := s.store.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusNotFound, "game not found")
		return
	}
	if err := g.Assign(p, team, role); err != nil {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	if err := s.store.SaveGame(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		httpError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("gameId", g.ID).Str("playerId", p.ID).Str("team", string(team)).Str("role", string(role)).Msg("player joined")
	s.hub.broadcastSnapshot(g)
	writeJSON(w, g)
}

func (s *Server) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.ListSuggestions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleListMoves(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.ListMoves(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, out)
}

// ------------------------------ actions ------------------------------------

// applyNomination validates and applies a Brain nomination, then
// broadcasts the resulting snapshot.
func (s *Server) applyNomination(r *http.Request, n protocol.Nomination) error {
	piece, err := game.ParsePieceType(n.SelectedPiece)
	if err != nil {
		return err
	}
	ctx := r.Context()

	s.gmu.Lock()
	defer s.gmu.Unlock()

	g, err := s.store.GetGame(ctx, n.GameID)
	if err != nil {
		return errors.New("game not found")
	}
	if err := g.Nominate(n.PlayerID, piece, s.rules); err != nil {
		return err
	}
	if err := s.store.AppendSuggestion(ctx, game.NewSuggestion(g.ID, n.PlayerID, piece)); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("append suggestion")
	}
	if err := s.store.SaveGame(ctx, g); err != nil {
		return err
	}
	log.Info().Str("gameId", g.ID).Str("playerId", n.PlayerID).Str("piece", string(piece)).Msg("nomination accepted")
	s.hub.broadcastSnapshot(g)
	return nil
}

// applyMove validates and applies a Hand move, then broadcasts the
// resulting snapshot.
func (s *Server) applyMove(r *http.Request, m protocol.MoveRequest) error {
	ctx := r.Context()

	s.gmu.Lock()
	defer s.gmu.Unlock()

	g, err := s.store.GetGame(ctx, m.GameID)
	if err != nil {
		return errors.New("game not found")
	}
	if err := g.ApplyMove(m.PlayerID, m.Move, s.rules); err != nil {
		return err
	}
	if err := s.store.AppendMove(ctx, game.NewMoveRecord(g.ID, m.PlayerID, m.Move, g.FEN)); err != nil {
		log.Warn().Err(err).Str("gameId", g.ID).Msg("append move")
	}
	if err := s.store.SaveGame(ctx, g); err != nil {
		return err
	}
	log.Info().Str("gameId", g.ID).Str("playerId", m.PlayerID).Str("move", m.Move).Msg("move accepted")
	s.hub.broadcastSnapshot(g)
	return nil
}

// ------------------------------ helpers ------------------------------------

// allowActor reports whether the request may act as playerID: guests
// always may, authenticated callers only as themselves.
func (s *Server) allowActor(r *http.Request, playerID string) bool {
	id := callerID(r)
	return id == "" || id == playerID
}

func parseSeat(teamColor, role string) (game.TeamColor, game.PlayerRole, error) {
	team, err := game.ParseTeamColor(teamColor)
	if err != nil {
		return "", "", err
	}
	pr, err := game.ParsePlayerRole(role)
	if err != nil {
		return "", "", err
	}
	return team, pr, nil
}

func newID() string { return uuid.NewString() }

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
