// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// This is a lightweight persistence layer used for ephemeral sessions,
// primarily in development/testing, or when durability is not required.
//
// Characteristics:
//   - Maps keyed by id, guarded by an RWMutex.
//   - Suggestion/move numbering assigned on append.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hnbchess/hnb-chess/internal/game"
)

type memory struct {
	mu          sync.RWMutex
	players     map[string]*game.Player
	credentials map[string]string
	games       map[string]*game.Game
	suggestions map[string][]*game.Suggestion // keyed by game id
	moves       map[string][]*game.Move
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		players:     make(map[string]*game.Player),
		credentials: make(map[string]string),
		games:       make(map[string]*game.Game),
		suggestions: make(map[string][]*game.Suggestion),
		moves:       make(map[string][]*game.Move),
	}
}

func (m *memory) SavePlayer(ctx context.Context, p *game.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.ID] = p
	return nil
}

func (m *memory) GetPlayer(ctx context.Context, id string) (*game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.players[id]; ok {
		return p, nil
	}
	return nil, ErrNotFound
}

func (m *memory) GetPlayerByUsername(ctx context.Context, username string) (*game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		if strings.EqualFold(p.Username, username) {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memory) ListPlayers(ctx context.Context) ([]*game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*game.Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memory) SetCredential(ctx context.Context, playerID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.credentials[playerID] = hash
	return nil
}

func (m *memory) GetCredential(ctx context.Context, playerID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if h, ok := m.credentials[playerID]; ok {
		return h, nil
	}
	return "", ErrNotFound
}

// Games are stored and returned by value so a caller mutating its copy
// never races another goroutine reading the stored state.
func (m *memory) SaveGame(ctx context.Context, g *game.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.games[g.ID] = &cp
	return nil
}

func (m *memory) GetGame(ctx context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *memory) ListGames(ctx context.Context) ([]*game.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*game.Game, 0, len(m.games))
	for _, g := range m.games {
		cp := *g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memory) AppendSuggestion(ctx context.Context, s *game.Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.Number = len(m.suggestions[s.GameID]) + 1
	m.suggestions[s.GameID] = append(m.suggestions[s.GameID], s)
	return nil
}

func (m *memory) ListSuggestions(ctx context.Context, gameID string) ([]*game.Suggestion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*game.Suggestion(nil), m.suggestions[gameID]...), nil
}

func (m *memory) AppendMove(ctx context.Context, mv *game.Move) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mv.Number = len(m.moves[mv.GameID]) + 1
	m.moves[mv.GameID] = append(m.moves[mv.GameID], mv)
	return nil
}

func (m *memory) ListMoves(ctx context.Context, gameID string) ([]*game.Move, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*game.Move(nil), m.moves[gameID]...), nil
}
