// internal/session/turn.go
//
// Turn coordination: deciding which (team, role) pair may act on a given
// snapshot and whether a concrete player intent is admissible.
//
// Everything here is a pure function of the snapshot. The checks mirror
// the authority's own validation but are purely advisory: they exist to
// avoid sending doomed actions, and the authority's decision is final.

package session

import (
	"errors"

	"github.com/hnbchess/hnb-chess/internal/game"
)

// ActionKind distinguishes the two intents a player can issue.
type ActionKind string

const (
	ActNominate ActionKind = "NOMINATE"
	ActMove     ActionKind = "MOVE"
)

// roleFor maps an action kind to the only role allowed to perform it.
func (k ActionKind) roleFor() game.PlayerRole {
	if k == ActNominate {
		return game.RoleBrain
	}
	return game.RoleHand
}

// ErrNotInProgress is returned by ExpectedActor outside of active play.
var ErrNotInProgress = errors.New("game is not in progress")

// ExpectedActor returns the single (team, role) pair whose action is
// awaited. Exactly one pair is expected at any instant during play.
func ExpectedActor(g *game.Game) (game.TeamColor, game.PlayerRole, error) {
	if g == nil || g.Status != game.StatusInProgress {
		return "", "", ErrNotInProgress
	}
	return g.CurrentTeam, g.CurrentRole, nil
}

// CanAct reports whether playerID may perform kind on the snapshot.
// Mismatches are expected traffic from stale clients, so every failure
// mode is false, never an error.
func CanAct(g *game.Game, playerID string, kind ActionKind) bool {
	team, role, err := ExpectedActor(g)
	if err != nil {
		return false
	}
	if kind.roleFor() != role {
		return false
	}
	seated := g.Seat(team, role)
	return seated != nil && seated.ID == playerID
}

// Transition classifies the delta between two consecutive snapshots.
// It exists purely for observability and UI cues; correctness is carried
// entirely by the fields of the newer snapshot.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionSeatFilled
	TransitionGameStarted
	TransitionNominationMade
	TransitionMoveApplied
	TransitionGameFinished
)

func (t Transition) String() string {
	switch t {
	case TransitionSeatFilled:
		return "seat filled"
	case TransitionGameStarted:
		return "game started"
	case TransitionNominationMade:
		return "nomination made"
	case TransitionMoveApplied:
		return "move applied"
	case TransitionGameFinished:
		return "game finished"
	default:
		return "no-op"
	}
}

// Classify compares prev (may be nil for the first snapshot) with next.
func Classify(prev, next *game.Game) Transition {
	if next == nil {
		return TransitionNone
	}
	if prev == nil {
		if next.Status == game.StatusInProgress {
			return TransitionGameStarted
		}
		return TransitionNone
	}
	switch {
	case next.Status == game.StatusFinished && prev.Status != game.StatusFinished:
		return TransitionGameFinished
	case next.Status == game.StatusInProgress && prev.Status == game.StatusWaiting:
		return TransitionGameStarted
	case next.SeatCount() > prev.SeatCount():
		return TransitionSeatFilled
	case next.SelectedPiece != "" && prev.SelectedPiece == "":
		return TransitionNominationMade
	case prev.SelectedPiece != "" && next.SelectedPiece == "":
		return TransitionMoveApplied
	case next.CurrentTeam != prev.CurrentTeam:
		return TransitionMoveApplied
	default:
		return TransitionNone
	}
}
