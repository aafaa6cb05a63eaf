package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hnbchess/hnb-chess/internal/game"
)

func newTestController(playerID string) (*Controller, *Reconciler, *fakeChannel) {
	ch := newFakeChannel()
	rec := NewReconciler(ch, zerolog.Nop())
	return NewController(playerID, ch, rec, zerolog.Nop()), rec, ch
}

func seed(r *Reconciler, seq uint64, g *game.Game) {
	r.handle(StatusEvent{Connected: true})
	r.doSwitch(g.ID)
	r.handle(SnapshotEvent{GameID: g.ID, Seq: seq, Game: *g})
}

func TestSubmitNomination_HappyPath(t *testing.T) {
	c, rec, ch := newTestController("wb")
	seed(rec, 1, startedGame())

	if err := c.SubmitNomination("knight"); err != nil {
		t.Fatal(err)
	}
	if len(ch.noms) != 1 {
		t.Fatalf("nominations sent = %d, want 1", len(ch.noms))
	}
	n := ch.noms[0]
	if n.GameID != "g1" || n.PlayerID != "wb" || n.SelectedPiece != "KNIGHT" {
		t.Fatalf("nomination = %+v", n)
	}

	// No optimistic mutation: the local snapshot is untouched until the
	// authority echoes the action back.
	snap, _ := rec.Current()
	if snap.Game.SelectedPiece != "" || snap.Game.CurrentRole != game.RoleBrain {
		t.Fatal("local snapshot mutated by send")
	}
}

func TestSubmitMove_HappyPath(t *testing.T) {
	c, rec, ch := newTestController("wh")
	g := startedGame()
	g.SelectedPiece = string(game.PiecePawn)
	g.CurrentRole = game.RoleHand
	seed(rec, 1, g)

	if err := c.SubmitMove("e2e4"); err != nil {
		t.Fatal(err)
	}
	if len(ch.moves) != 1 {
		t.Fatalf("moves sent = %d, want 1", len(ch.moves))
	}
	m := ch.moves[0]
	if m.GameID != "g1" || m.PlayerID != "wh" || m.Move != "e2e4" {
		t.Fatalf("move = %+v", m)
	}
}

// An out-of-turn intent yields an advisory and nothing reaches the wire.
func TestSubmit_OutOfTurn(t *testing.T) {
	c, rec, ch := newTestController("bh")
	seed(rec, 1, startedGame()) // WHITE BRAIN to act

	err := c.SubmitMove("e7e5")
	if adv, ok := AsAdvisory(err); !ok {
		t.Fatalf("err = %v, want advisory", err)
	} else if adv.Reason == "" {
		t.Fatal("advisory without reason")
	}

	if err := c.SubmitNomination("pawn"); err == nil {
		t.Fatal("hand's nomination accepted")
	}
	if len(ch.noms)+len(ch.moves) != 0 {
		t.Fatal("inadmissible intents were sent")
	}
}

func TestSubmit_NoActiveGame(t *testing.T) {
	c, _, ch := newTestController("wb")
	if _, ok := AsAdvisory(c.SubmitNomination("pawn")); !ok {
		t.Fatal("expected advisory without a snapshot")
	}
	if _, ok := AsAdvisory(c.SubmitMove("e2e4")); !ok {
		t.Fatal("expected advisory without a snapshot")
	}
	if len(ch.noms)+len(ch.moves) != 0 {
		t.Fatal("intents sent with no active game")
	}
}

func TestSubmit_MalformedInput(t *testing.T) {
	c, rec, ch := newTestController("wb")
	seed(rec, 1, startedGame())

	if _, ok := AsAdvisory(c.SubmitNomination("archbishop")); !ok {
		t.Fatal("unknown piece should be advisory")
	}

	g := startedGame()
	g.SelectedPiece = string(game.PiecePawn)
	g.CurrentRole = game.RoleHand
	rec.handle(SnapshotEvent{GameID: "g1", Seq: 2, Game: *g})
	c2, _, _ := newTestController("wh")
	c2.rec = rec
	c2.ch = ch
	if _, ok := AsAdvisory(c2.SubmitMove("e9x9")); !ok {
		t.Fatal("malformed move should be advisory")
	}
	if len(ch.noms)+len(ch.moves) != 0 {
		t.Fatal("malformed intents were sent")
	}
}

func TestSubmit_Disconnected(t *testing.T) {
	c, rec, ch := newTestController("wb")
	seed(rec, 1, startedGame())
	rec.handle(StatusEvent{Connected: false})

	if err := c.SubmitNomination("pawn"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if len(ch.noms) != 0 {
		t.Fatal("intent sent while disconnected")
	}
}

func TestView(t *testing.T) {
	c, rec, _ := newTestController("wb")
	if _, ok := c.View(); ok {
		t.Fatal("view available before any snapshot")
	}

	seed(rec, 3, startedGame())
	v, ok := c.View()
	if !ok {
		t.Fatal("no view after snapshot")
	}
	if !v.InProgress || v.ExpectedTeam != game.TeamWhite || v.ExpectedRole != game.RoleBrain {
		t.Fatalf("view = %+v", v)
	}
	if !v.YourTurn {
		t.Fatal("wb should be on turn")
	}

	other, _, _ := newTestController("bh")
	other.rec = rec
	v2, _ := other.View()
	if v2.YourTurn {
		t.Fatal("bh should not be on turn")
	}
}

func TestView_WaitingGame(t *testing.T) {
	c, rec, _ := newTestController("wb")
	g := &game.Game{ID: "g1", Status: game.StatusWaiting, WhiteBrain: &game.Player{ID: "wb"}}
	seed(rec, 1, g)

	v, ok := c.View()
	if !ok {
		t.Fatal("no view for waiting game")
	}
	if v.InProgress || v.YourTurn {
		t.Fatalf("waiting view = %+v", v)
	}
}
