// internal/rules/rules.go
//
// Default implementation of the game.Rules boundary.
//
// Basic performs everything that can be derived from the FEN text alone:
// piece lookup on the placement field, move-shape validation, and
// side-to-move bookkeeping. It deliberately knows nothing about chess
// legality — HasMoves is permissive and Outcome never ends the game.
// A real engine slots in behind the same interface.

package rules

import (
	"fmt"
	"strings"

	"github.com/hnbchess/hnb-chess/internal/game"
)

// Basic is the permissive default Rules engine.
type Basic struct{}

var _ game.Rules = Basic{}

// HasMoves always allows a nomination; a full engine would check the
// nominated piece type actually has a legal move.
func (Basic) HasMoves(fen string, piece game.PieceType) bool { return true }

var pieceLetters = map[byte]game.PieceType{
	'p': game.PiecePawn,
	'n': game.PieceKnight,
	'b': game.PieceBishop,
	'r': game.PieceRook,
	'q': game.PieceQueen,
	'k': game.PieceKing,
}

// PieceAt parses the FEN placement field and returns the piece on square.
// Uppercase letters are white pieces, lowercase black.
func (Basic) PieceAt(fen, square string) (game.PieceType, game.TeamColor, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return "", "", fmt.Errorf("empty fen")
	}
	if len(square) != 2 || square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return "", "", fmt.Errorf("invalid square %q", square)
	}
	file := int(square[0] - 'a')
	rank := int(square[1] - '1') // 0-based from white's side

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return "", "", fmt.Errorf("malformed placement %q", fields[0])
	}
	row := ranks[7-rank] // FEN lists rank 8 first

	col := 0
	for i := 0; i < len(row); i++ {
		c := row[i]
		if c >= '1' && c <= '8' {
			col += int(c - '0')
			continue
		}
		if col == file {
			lower := c | 0x20
			piece, ok := pieceLetters[lower]
			if !ok {
				return "", "", fmt.Errorf("unknown piece letter %q", string(c))
			}
			color := game.TeamBlack
			if c >= 'A' && c <= 'Z' {
				color = game.TeamWhite
			}
			return piece, color, nil
		}
		if col > file {
			break
		}
		col++
	}
	return "", "", fmt.Errorf("no piece on %s", square)
}

// Apply validates the move shape and advances the FEN bookkeeping fields:
// side to move flips, the en-passant target resets, and the fullmove
// counter increments after black's move. The placement field is left to a
// real engine; this keeps the position opaque while still making every
// snapshot visibly progress.
func (Basic) Apply(fen, move string) (string, error) {
	if _, _, err := game.ParseMove(move); err != nil {
		return "", err
	}
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return "", fmt.Errorf("malformed fen %q", fen)
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
		fields[5] = bump(fields[5])
	}
	fields[3] = "-"
	return strings.Join(fields, " "), nil
}

// Outcome never reports a terminal position; mate and draw detection
// require legality knowledge this engine does not have.
func (Basic) Outcome(fen string) game.Outcome { return game.OutcomeOngoing }

func bump(n string) string {
	v := 0
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return n
		}
		v = v*10 + int(n[i]-'0')
	}
	return fmt.Sprintf("%d", v+1)
}
