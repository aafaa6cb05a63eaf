// internal/game/engine.go
//
// Authoritative turn protocol for a Hand-and-Brain game.
// Responsibilities:
//   - Seat assignment with edge-triggered start (fourth seat → IN_PROGRESS).
//   - Brain nominations: validate turn + seat, set the pending selection,
//     hand the turn to the Hand of the same team.
//   - Hand moves: validate turn + seat + nominated piece, apply the move
//     through a Rules engine, clear the selection, flip teams.
//   - Terminal detection via the Rules outcome.
//
// Notes:
//   - Chess legality lives behind the Rules interface; this package treats
//     the position as an opaque FEN string.
//   - All validation errors here are expected traffic (stale clients) and
//     are surfaced as advisories, never panics.

package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Rules is the external move-legality boundary. Implementations may be as
// strict as a full chess engine or as lenient as shape-only validation.
type Rules interface {
	// HasMoves reports whether the nominated piece type has at least one
	// legal move in the given position.
	HasMoves(fen string, piece PieceType) bool

	// PieceAt identifies the piece on a square ("e2") of the position.
	PieceAt(fen, square string) (PieceType, TeamColor, error)

	// Apply executes a move and returns the resulting position.
	Apply(fen, move string) (string, error)

	// Outcome classifies the position after a move.
	Outcome(fen string) Outcome
}

// Outcome of a position as reported by a Rules engine.
type Outcome string

const (
	OutcomeOngoing   Outcome = "ONGOING"
	OutcomeCheckmate Outcome = "CHECKMATE"
	OutcomeDraw      Outcome = "DRAW"
)

var (
	ErrSeatTaken      = errors.New("position already taken")
	ErrGameNotStarted = errors.New("game has not started")
	ErrGameFinished   = errors.New("game is finished")
	ErrNotBrainTurn   = errors.New("it's not brain's turn")
	ErrNotHandTurn    = errors.New("it's not hand's turn")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrNoSelection    = errors.New("brain hasn't selected a piece yet")
	ErrWrongPiece     = errors.New("must move the piece type selected by brain")
	ErrNotYourPiece   = errors.New("must move your own piece")
	ErrNoMoves        = errors.New("no legal moves for selected piece")
)

// NewGame creates an empty game awaiting players. White's Brain acts first
// once the game starts.
func NewGame() *Game {
	return &Game{
		ID:          uuid.NewString(),
		FEN:         StartFEN,
		Status:      StatusWaiting,
		CurrentTeam: TeamWhite,
		CurrentRole: RoleBrain,
	}
}

// Assign seats a player at (team, role). The game transitions to
// IN_PROGRESS the moment the fourth seat fills.
func (g *Game) Assign(p *Player, team TeamColor, role PlayerRole) error {
	if g.Status == StatusFinished {
		return ErrGameFinished
	}
	if g.Seat(team, role) != nil {
		return ErrSeatTaken
	}
	g.setSeat(team, role, p)
	if g.Status == StatusWaiting && g.AllSeated() {
		g.Status = StatusInProgress
	}
	return nil
}

// Nominate applies a Brain piece nomination from playerID.
func (g *Game) Nominate(playerID string, piece PieceType, r Rules) error {
	if err := g.requireTurn(playerID, RoleBrain); err != nil {
		return err
	}
	if !r.HasMoves(g.FEN, piece) {
		return ErrNoMoves
	}
	g.SelectedPiece = string(piece)
	g.CurrentRole = RoleHand
	return nil
}

// ApplyMove applies a Hand move from playerID. On success the pending
// selection is cleared, the turn passes to the other team's Brain, and the
// game finishes if the Rules engine reports a terminal outcome.
func (g *Game) ApplyMove(playerID, move string, r Rules) error {
	if err := g.requireTurn(playerID, RoleHand); err != nil {
		return err
	}
	if g.SelectedPiece == "" {
		return ErrNoSelection
	}
	from, _, err := ParseMove(move)
	if err != nil {
		return err
	}

	piece, color, err := r.PieceAt(g.FEN, from)
	if err != nil {
		return fmt.Errorf("resolve piece at %s: %w", from, err)
	}
	if string(piece) != g.SelectedPiece {
		return ErrWrongPiece
	}
	if color != g.CurrentTeam {
		return ErrNotYourPiece
	}

	next, err := r.Apply(g.FEN, move)
	if err != nil {
		return fmt.Errorf("apply move %s: %w", move, err)
	}

	g.FEN = next
	g.SelectedPiece = ""
	g.CurrentTeam = g.CurrentTeam.Opponent()
	g.CurrentRole = RoleBrain
	if r.Outcome(next) != OutcomeOngoing {
		g.Status = StatusFinished
	}
	return nil
}

// requireTurn enforces status, role, and seat ownership for an action.
func (g *Game) requireTurn(playerID string, role PlayerRole) error {
	switch g.Status {
	case StatusWaiting:
		return ErrGameNotStarted
	case StatusFinished:
		return ErrGameFinished
	}
	if g.CurrentRole != role {
		if role == RoleBrain {
			return ErrNotBrainTurn
		}
		return ErrNotHandTurn
	}
	seated := g.Seat(g.CurrentTeam, role)
	if seated == nil || seated.ID != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// NewSuggestion builds the log record for an accepted nomination.
// Numbering is assigned by the store on append.
func NewSuggestion(gameID, playerID string, piece PieceType) *Suggestion {
	return &Suggestion{ID: uuid.NewString(), GameID: gameID, PlayerID: playerID, Piece: piece}
}

// NewMoveRecord builds the log record for an accepted move.
func NewMoveRecord(gameID, playerID, move, fen string) *Move {
	return &Move{ID: uuid.NewString(), GameID: gameID, PlayerID: playerID, Move: move, FEN: fen}
}
