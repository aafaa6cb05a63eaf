// internal/session/controller.go
//
// Controller is the boundary the presentation layer talks to: two intents
// (nominate a piece, submit a move) and one derived read model.
//
// Intents never mutate local state. An admissible intent is sent and the
// call returns immediately; the effect becomes visible only when the
// authority echoes it back through a snapshot. This trades perceived
// latency for the guarantee that the displayed state can never disagree
// with the authority.
//
// One Controller is created per selected game and disposed on navigation
// away; it is not a process-wide singleton.

package session

import (
	"github.com/rs/zerolog"

	"github.com/hnbchess/hnb-chess/internal/game"
	"github.com/hnbchess/hnb-chess/internal/protocol"
)

// Controller exposes the acting player's intents against one session.
type Controller struct {
	playerID string
	ch       Channel
	rec      *Reconciler
	log      zerolog.Logger
}

// NewController builds a Controller for playerID over an already-running
// Reconciler.
func NewController(playerID string, ch Channel, rec *Reconciler, log zerolog.Logger) *Controller {
	return &Controller{
		playerID: playerID,
		ch:       ch,
		rec:      rec,
		log:      log.With().Str("component", "controller").Str("playerId", playerID).Logger(),
	}
}

// Select makes gameID the active session.
func (c *Controller) Select(gameID string) { c.rec.Switch(gameID) }

// Close disposes the controller's interest in the active session.
func (c *Controller) Close() { c.rec.Switch("") }

// SubmitNomination sends a Brain piece nomination. It returns an Advisory
// without sending when the intent is inadmissible, and ErrNotConnected
// when the transport is down.
func (c *Controller) SubmitNomination(piece string) error {
	snap, ok := c.rec.Current()
	if !ok {
		return advise("no active game")
	}
	pt, err := game.ParsePieceType(piece)
	if err != nil {
		return advise("unknown piece type %q", piece)
	}
	if !CanAct(&snap.Game, c.playerID, ActNominate) {
		return advise("it's not your turn to nominate")
	}
	if !c.rec.Connected() {
		return ErrNotConnected
	}
	c.log.Debug().Str("piece", string(pt)).Msg("sending nomination")
	return c.ch.SendNomination(protocol.Nomination{
		GameID:        snap.Game.ID,
		PlayerID:      c.playerID,
		SelectedPiece: string(pt),
	})
}

// SubmitMove sends a Hand move. The move is validated for shape only;
// legality is the authority's job.
func (c *Controller) SubmitMove(move string) error {
	snap, ok := c.rec.Current()
	if !ok {
		return advise("no active game")
	}
	if _, _, err := game.ParseMove(move); err != nil {
		return advise("malformed move %q", move)
	}
	if !CanAct(&snap.Game, c.playerID, ActMove) {
		return advise("it's not your turn to move")
	}
	if !c.rec.Connected() {
		return ErrNotConnected
	}
	c.log.Debug().Str("move", move).Msg("sending move")
	return c.ch.SendMove(protocol.MoveRequest{
		GameID:   snap.Game.ID,
		PlayerID: c.playerID,
		Move:     move,
	})
}

// View is the derived read model, recomputed from the latest snapshot.
type View struct {
	Game game.Game
	Seq  uint64

	// ExpectedTeam/ExpectedRole are zero values unless InProgress is true.
	InProgress   bool
	ExpectedTeam game.TeamColor
	ExpectedRole game.PlayerRole

	// YourTurn reports whether the local player occupies the expected seat.
	YourTurn bool
}

// View returns the current read model; ok is false before the first
// snapshot arrives.
func (c *Controller) View() (View, bool) {
	snap, ok := c.rec.Current()
	if !ok {
		return View{}, false
	}
	v := View{Game: snap.Game, Seq: snap.Seq}
	team, role, err := ExpectedActor(&snap.Game)
	if err == nil {
		v.InProgress = true
		v.ExpectedTeam = team
		v.ExpectedRole = role
		if p := snap.Game.Seat(team, role); p != nil {
			v.YourTurn = p.ID == c.playerID
		}
	}
	return v, true
}
