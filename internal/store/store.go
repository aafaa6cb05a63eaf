// internal/store/store.go
//
// Persistence interface for the Hand-and-Brain backend.
// Implementations: memory (this package, dev/tests) and SQLite.

package store

import (
	"context"
	"errors"

	"github.com/hnbchess/hnb-chess/internal/game"
)

// ErrNotFound is returned for lookups of unknown ids.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary for players, games, and the
// append-only suggestion/move logs.
type Store interface {
	// SavePlayer persists or updates a player.
	SavePlayer(ctx context.Context, p *game.Player) error
	// GetPlayer retrieves a player by id.
	GetPlayer(ctx context.Context, id string) (*game.Player, error)
	// GetPlayerByUsername retrieves a player by username (case-insensitive).
	GetPlayerByUsername(ctx context.Context, username string) (*game.Player, error)
	// ListPlayers returns all players.
	ListPlayers(ctx context.Context) ([]*game.Player, error)

	// SetCredential stores a bcrypt hash for a registered player.
	SetCredential(ctx context.Context, playerID, hash string) error
	// GetCredential returns the stored hash, ErrNotFound for guests.
	GetCredential(ctx context.Context, playerID string) (string, error)

	// SaveGame persists or updates a game state.
	SaveGame(ctx context.Context, g *game.Game) error
	// GetGame retrieves a game by id.
	GetGame(ctx context.Context, id string) (*game.Game, error)
	// ListGames returns all games.
	ListGames(ctx context.Context) ([]*game.Game, error)

	// AppendSuggestion appends a nomination record, assigning the next
	// per-game suggestion number.
	AppendSuggestion(ctx context.Context, s *game.Suggestion) error
	// ListSuggestions returns a game's nominations in order.
	ListSuggestions(ctx context.Context, gameID string) ([]*game.Suggestion, error)

	// AppendMove appends a move record, assigning the next per-game
	// move number.
	AppendMove(ctx context.Context, m *game.Move) error
	// ListMoves returns a game's moves in order.
	ListMoves(ctx context.Context, gameID string) ([]*game.Move, error)
}
