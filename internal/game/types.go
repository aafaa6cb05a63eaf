// internal/game/types.go
//
// Core type definitions for the Hand-and-Brain chess backend.
// Defines:
//   - TeamColor / PlayerRole: together they address one of four seats.
//   - Status: lifecycle of a game (waiting → in progress → finished).
//   - PieceType: the piece nominated by a Brain each half-turn.
//   - Player: immutable identity + display name + rating.
//   - Game: the authoritative session state mirrored to clients.
//   - Suggestion / Move: append-only log records of accepted actions.

package game

import (
	"errors"
	"fmt"
	"strings"
)

// TeamColor identifies one of the two teams.
type TeamColor string

const (
	TeamWhite TeamColor = "WHITE"
	TeamBlack TeamColor = "BLACK"
)

// Opponent returns the other team.
func (t TeamColor) Opponent() TeamColor {
	if t == TeamWhite {
		return TeamBlack
	}
	return TeamWhite
}

// ParseTeamColor accepts "WHITE"/"BLACK" in any case.
func ParseTeamColor(s string) (TeamColor, error) {
	switch TeamColor(strings.ToUpper(strings.TrimSpace(s))) {
	case TeamWhite:
		return TeamWhite, nil
	case TeamBlack:
		return TeamBlack, nil
	}
	return "", fmt.Errorf("invalid team color %q", s)
}

// PlayerRole is one of the two roles within a team.
// The Brain nominates a piece type; the Hand executes a move with it.
type PlayerRole string

const (
	RoleHand  PlayerRole = "HAND"
	RoleBrain PlayerRole = "BRAIN"
)

// ParsePlayerRole accepts "HAND"/"BRAIN" in any case.
func ParsePlayerRole(s string) (PlayerRole, error) {
	switch PlayerRole(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleHand:
		return RoleHand, nil
	case RoleBrain:
		return RoleBrain, nil
	}
	return "", fmt.Errorf("invalid player role %q", s)
}

// Status is the lifecycle state of a game.
type Status string

const (
	StatusWaiting    Status = "WAITING_FOR_PLAYERS"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
)

// PieceType is the nomination payload of a Brain action.
type PieceType string

const (
	PiecePawn   PieceType = "PAWN"
	PieceKnight PieceType = "KNIGHT"
	PieceBishop PieceType = "BISHOP"
	PieceRook   PieceType = "ROOK"
	PieceQueen  PieceType = "QUEEN"
	PieceKing   PieceType = "KING"
)

// ParsePieceType accepts any-cased piece names.
func ParsePieceType(s string) (PieceType, error) {
	switch PieceType(strings.ToUpper(strings.TrimSpace(s))) {
	case PiecePawn:
		return PiecePawn, nil
	case PieceKnight:
		return PieceKnight, nil
	case PieceBishop:
		return PieceBishop, nil
	case PieceRook:
		return PieceRook, nil
	case PieceQueen:
		return PieceQueen, nil
	case PieceKing:
		return PieceKing, nil
	}
	return "", fmt.Errorf("invalid piece type %q", s)
}

// Player is an immutable identity owned by the player registry.
type Player struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

// StartFEN is the opaque serialized board state a fresh game begins with.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Game is the authoritative session state. Clients never mutate it;
// they mirror whole snapshots of it pushed by the server.
type Game struct {
	ID         string  `json:"id"`
	WhiteHand  *Player `json:"whiteHand"`
	WhiteBrain *Player `json:"whiteBrain"`
	BlackHand  *Player `json:"blackHand"`
	BlackBrain *Player `json:"blackBrain"`

	FEN    string `json:"fen"`
	Status Status `json:"status"`

	// CurrentTeam/CurrentRole address the one seat whose action is awaited.
	CurrentTeam TeamColor  `json:"currentTeam"`
	CurrentRole PlayerRole `json:"currentRole"`

	// SelectedPiece is the pending Brain nomination. Non-empty exactly
	// while a Hand move is awaited.
	SelectedPiece string `json:"selectedPiece,omitempty"`
}

// Seat returns the player occupying (team, role), or nil.
func (g *Game) Seat(team TeamColor, role PlayerRole) *Player {
	switch {
	case team == TeamWhite && role == RoleHand:
		return g.WhiteHand
	case team == TeamWhite && role == RoleBrain:
		return g.WhiteBrain
	case team == TeamBlack && role == RoleHand:
		return g.BlackHand
	default:
		return g.BlackBrain
	}
}

func (g *Game) setSeat(team TeamColor, role PlayerRole, p *Player) {
	switch {
	case team == TeamWhite && role == RoleHand:
		g.WhiteHand = p
	case team == TeamWhite && role == RoleBrain:
		g.WhiteBrain = p
	case team == TeamBlack && role == RoleHand:
		g.BlackHand = p
	default:
		g.BlackBrain = p
	}
}

// SeatOf resolves the seat occupied by playerID, if any.
func (g *Game) SeatOf(playerID string) (TeamColor, PlayerRole, bool) {
	for _, team := range []TeamColor{TeamWhite, TeamBlack} {
		for _, role := range []PlayerRole{RoleHand, RoleBrain} {
			if p := g.Seat(team, role); p != nil && p.ID == playerID {
				return team, role, true
			}
		}
	}
	return "", "", false
}

// AllSeated reports whether all four seats are filled.
func (g *Game) AllSeated() bool {
	return g.WhiteHand != nil && g.WhiteBrain != nil && g.BlackHand != nil && g.BlackBrain != nil
}

// SeatCount returns how many of the four seats are filled.
func (g *Game) SeatCount() int {
	n := 0
	for _, p := range []*Player{g.WhiteHand, g.WhiteBrain, g.BlackHand, g.BlackBrain} {
		if p != nil {
			n++
		}
	}
	return n
}

// Validate checks the internal consistency a well-formed snapshot must
// satisfy. Clients discard snapshots failing these checks rather than
// desynchronize their turn state.
func (g *Game) Validate() error {
	if g.ID == "" {
		return errors.New("missing game id")
	}
	switch g.Status {
	case StatusWaiting:
		if g.AllSeated() {
			return errors.New("waiting game with all seats filled")
		}
	case StatusInProgress:
		if !g.AllSeated() {
			return errors.New("in-progress game with empty seats")
		}
	case StatusFinished:
	default:
		return fmt.Errorf("unknown status %q", g.Status)
	}
	hasSelection := g.SelectedPiece != ""
	awaitsHand := g.Status == StatusInProgress && g.CurrentRole == RoleHand
	if hasSelection != awaitsHand {
		return fmt.Errorf("selected piece %q inconsistent with role %s", g.SelectedPiece, g.CurrentRole)
	}
	return nil
}

// Suggestion records an accepted Brain nomination.
type Suggestion struct {
	ID       string    `json:"id"`
	GameID   string    `json:"gameId"`
	PlayerID string    `json:"playerId"`
	Piece    PieceType `json:"pieceType"`
	Number   int       `json:"suggestionNumber"`
}

// Move records an accepted Hand move together with the resulting position.
type Move struct {
	ID       string `json:"id"`
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Move     string `json:"move"`
	FEN      string `json:"fen"`
	Number   int    `json:"moveNumber"`
}

// ParseMove validates the shape of a move token: an origin square, a
// destination square, and an optional promotion letter (e.g. "e2e4",
// "e7e8q"). Legality is not checked here; that belongs to a Rules engine.
func ParseMove(move string) (from, to string, err error) {
	m := strings.ToLower(strings.TrimSpace(move))
	if len(m) != 4 && len(m) != 5 {
		return "", "", fmt.Errorf("malformed move %q", move)
	}
	from, to = m[0:2], m[2:4]
	if !validSquare(from) || !validSquare(to) {
		return "", "", fmt.Errorf("malformed move %q", move)
	}
	if len(m) == 5 && !strings.ContainsRune("nbrq", rune(m[4])) {
		return "", "", fmt.Errorf("malformed promotion in %q", move)
	}
	return from, to, nil
}

func validSquare(sq string) bool {
	return len(sq) == 2 && sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}
