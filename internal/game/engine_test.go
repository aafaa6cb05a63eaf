package game

import (
	"errors"
	"testing"
)

// stubRules is a controllable Rules engine for exercising the turn
// protocol without real chess logic.
type stubRules struct {
	hasMoves bool
	piece    PieceType
	color    TeamColor
	pieceErr error
	applyFEN string
	applyErr error
	outcome  Outcome
}

func (s stubRules) HasMoves(fen string, piece PieceType) bool { return s.hasMoves }
func (s stubRules) PieceAt(fen, square string) (PieceType, TeamColor, error) {
	return s.piece, s.color, s.pieceErr
}
func (s stubRules) Apply(fen, move string) (string, error) { return s.applyFEN, s.applyErr }
func (s stubRules) Outcome(fen string) Outcome             { return s.outcome }

func okRules() stubRules {
	return stubRules{
		hasMoves: true,
		piece:    PiecePawn,
		color:    TeamWhite,
		applyFEN: "next-position",
		outcome:  OutcomeOngoing,
	}
}

func player(id string) *Player { return &Player{ID: id, Username: "u-" + id, Rating: 1200} }

// fullGame seats four players and returns the started game.
func fullGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame()
	seats := []struct {
		id   string
		team TeamColor
		role PlayerRole
	}{
		{"wh", TeamWhite, RoleHand},
		{"wb", TeamWhite, RoleBrain},
		{"bh", TeamBlack, RoleHand},
		{"bb", TeamBlack, RoleBrain},
	}
	for _, s := range seats {
		if err := g.Assign(player(s.id), s.team, s.role); err != nil {
			t.Fatalf("assign %s: %v", s.id, err)
		}
	}
	return g
}

func TestNewGame_Defaults(t *testing.T) {
	g := NewGame()
	if g.ID == "" {
		t.Fatal("expected generated id")
	}
	if g.Status != StatusWaiting {
		t.Fatalf("status = %s, want %s", g.Status, StatusWaiting)
	}
	if g.FEN != StartFEN {
		t.Fatalf("fen = %q, want start position", g.FEN)
	}
	if g.CurrentTeam != TeamWhite || g.CurrentRole != RoleBrain {
		t.Fatalf("first actor = %s %s, want WHITE BRAIN", g.CurrentTeam, g.CurrentRole)
	}
}

func TestAssign_StartsOnFourthSeat(t *testing.T) {
	g := NewGame()
	if err := g.Assign(player("wh"), TeamWhite, RoleHand); err != nil {
		t.Fatal(err)
	}
	if err := g.Assign(player("wb"), TeamWhite, RoleBrain); err != nil {
		t.Fatal(err)
	}
	if err := g.Assign(player("bh"), TeamBlack, RoleHand); err != nil {
		t.Fatal(err)
	}
	if g.Status != StatusWaiting {
		t.Fatalf("status after 3 seats = %s, want waiting", g.Status)
	}
	if err := g.Assign(player("bb"), TeamBlack, RoleBrain); err != nil {
		t.Fatal(err)
	}
	if g.Status != StatusInProgress {
		t.Fatalf("status after 4 seats = %s, want in progress", g.Status)
	}
}

func TestAssign_SeatTaken(t *testing.T) {
	g := NewGame()
	if err := g.Assign(player("a"), TeamWhite, RoleHand); err != nil {
		t.Fatal(err)
	}
	if err := g.Assign(player("b"), TeamWhite, RoleHand); !errors.Is(err, ErrSeatTaken) {
		t.Fatalf("err = %v, want ErrSeatTaken", err)
	}
	// The other seats remain open.
	if err := g.Assign(player("b"), TeamWhite, RoleBrain); err != nil {
		t.Fatalf("adjacent seat: %v", err)
	}
}

func TestNominate_HappyPath(t *testing.T) {
	g := fullGame(t)
	if err := g.Nominate("wb", PieceKnight, okRules()); err != nil {
		t.Fatal(err)
	}
	if g.SelectedPiece != string(PieceKnight) {
		t.Fatalf("selected = %q, want KNIGHT", g.SelectedPiece)
	}
	if g.CurrentTeam != TeamWhite || g.CurrentRole != RoleHand {
		t.Fatalf("next actor = %s %s, want WHITE HAND", g.CurrentTeam, g.CurrentRole)
	}
}

func TestNominate_Errors(t *testing.T) {
	waiting := NewGame()
	if err := waiting.Nominate("wb", PiecePawn, okRules()); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("waiting game: err = %v, want ErrGameNotStarted", err)
	}

	g := fullGame(t)
	if err := g.Nominate("bb", PiecePawn, okRules()); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("wrong team's brain: err = %v, want ErrNotYourTurn", err)
	}
	if err := g.Nominate("wh", PiecePawn, okRules()); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("own hand: err = %v, want ErrNotYourTurn", err)
	}

	noMoves := okRules()
	noMoves.hasMoves = false
	if err := g.Nominate("wb", PieceQueen, noMoves); !errors.Is(err, ErrNoMoves) {
		t.Fatalf("pinned piece: err = %v, want ErrNoMoves", err)
	}
	if g.SelectedPiece != "" {
		t.Fatalf("rejected nomination mutated state: %q", g.SelectedPiece)
	}

	if err := g.Nominate("wb", PiecePawn, okRules()); err != nil {
		t.Fatal(err)
	}
	if err := g.Nominate("wb", PiecePawn, okRules()); !errors.Is(err, ErrNotBrainTurn) {
		t.Fatalf("double nomination: err = %v, want ErrNotBrainTurn", err)
	}
}

func TestApplyMove_HappyPath(t *testing.T) {
	g := fullGame(t)
	if err := g.Nominate("wb", PiecePawn, okRules()); err != nil {
		t.Fatal(err)
	}
	if err := g.ApplyMove("wh", "e2e4", okRules()); err != nil {
		t.Fatal(err)
	}
	if g.FEN != "next-position" {
		t.Fatalf("fen = %q, want engine result", g.FEN)
	}
	if g.SelectedPiece != "" {
		t.Fatal("selection not cleared after move")
	}
	if g.CurrentTeam != TeamBlack || g.CurrentRole != RoleBrain {
		t.Fatalf("next actor = %s %s, want BLACK BRAIN", g.CurrentTeam, g.CurrentRole)
	}
	if g.Status != StatusInProgress {
		t.Fatalf("status = %s, want in progress", g.Status)
	}
}

func TestApplyMove_Errors(t *testing.T) {
	g := fullGame(t)
	if err := g.ApplyMove("wh", "e2e4", okRules()); !errors.Is(err, ErrNotHandTurn) {
		t.Fatalf("move before nomination: err = %v, want ErrNotHandTurn", err)
	}

	if err := g.Nominate("wb", PiecePawn, okRules()); err != nil {
		t.Fatal(err)
	}

	if err := g.ApplyMove("bh", "e2e4", okRules()); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("wrong team's hand: err = %v, want ErrNotYourTurn", err)
	}
	if err := g.ApplyMove("wh", "bogus", okRules()); err == nil {
		t.Fatal("malformed move accepted")
	}

	wrongPiece := okRules()
	wrongPiece.piece = PieceKnight
	if err := g.ApplyMove("wh", "e2e4", wrongPiece); !errors.Is(err, ErrWrongPiece) {
		t.Fatalf("wrong piece: err = %v, want ErrWrongPiece", err)
	}

	enemyPiece := okRules()
	enemyPiece.color = TeamBlack
	if err := g.ApplyMove("wh", "e2e4", enemyPiece); !errors.Is(err, ErrNotYourPiece) {
		t.Fatalf("enemy piece: err = %v, want ErrNotYourPiece", err)
	}

	// State untouched after every rejection.
	if g.FEN != StartFEN || g.SelectedPiece != string(PiecePawn) {
		t.Fatal("rejected moves mutated state")
	}
}

func TestApplyMove_FinishesOnTerminalOutcome(t *testing.T) {
	g := fullGame(t)
	if err := g.Nominate("wb", PieceQueen, okRules()); err != nil {
		t.Fatal(err)
	}
	mate := okRules()
	mate.piece = PieceQueen
	mate.outcome = OutcomeCheckmate
	if err := g.ApplyMove("wh", "d1h5", mate); err != nil {
		t.Fatal(err)
	}
	if g.Status != StatusFinished {
		t.Fatalf("status = %s, want finished", g.Status)
	}
	if err := g.Nominate("bb", PiecePawn, okRules()); !errors.Is(err, ErrGameFinished) {
		t.Fatalf("action on finished game: err = %v, want ErrGameFinished", err)
	}
}

func TestFullTurnCycle(t *testing.T) {
	g := fullGame(t)
	r := okRules()

	// White half-turn.
	if err := g.Nominate("wb", PiecePawn, r); err != nil {
		t.Fatal(err)
	}
	if err := g.ApplyMove("wh", "e2e4", r); err != nil {
		t.Fatal(err)
	}

	// Black half-turn.
	r.color = TeamBlack
	if err := g.Nominate("bb", PiecePawn, r); err != nil {
		t.Fatal(err)
	}
	if err := g.ApplyMove("bh", "e7e5", r); err != nil {
		t.Fatal(err)
	}

	if g.CurrentTeam != TeamWhite || g.CurrentRole != RoleBrain {
		t.Fatalf("after full cycle actor = %s %s, want WHITE BRAIN", g.CurrentTeam, g.CurrentRole)
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		in       string
		from, to string
		ok       bool
	}{
		{"e2e4", "e2", "e4", true},
		{"E2E4", "e2", "e4", true},
		{"e7e8q", "e7", "e8", true},
		{"a1h8", "a1", "h8", true},
		{"", "", "", false},
		{"e2", "", "", false},
		{"e2e9", "", "", false},
		{"i2e4", "", "", false},
		{"e7e8x", "", "", false},
		{"e2e4e6", "", "", false},
	}
	for _, tt := range tests {
		from, to, err := ParseMove(tt.in)
		if tt.ok {
			if err != nil {
				t.Errorf("ParseMove(%q) error: %v", tt.in, err)
				continue
			}
			if from != tt.from || to != tt.to {
				t.Errorf("ParseMove(%q) = %s,%s want %s,%s", tt.in, from, to, tt.from, tt.to)
			}
		} else if err == nil {
			t.Errorf("ParseMove(%q) succeeded, want error", tt.in)
		}
	}
}

func TestGameValidate(t *testing.T) {
	g := fullGame(t)
	if err := g.Validate(); err != nil {
		t.Fatalf("full game invalid: %v", err)
	}

	// Selection present while awaiting the Brain is inconsistent.
	bad := *g
	bad.SelectedPiece = string(PiecePawn)
	if err := bad.Validate(); err == nil {
		t.Fatal("selection with BRAIN role passed validation")
	}

	// In-progress with empty seats is inconsistent.
	empty := NewGame()
	empty.Status = StatusInProgress
	if err := empty.Validate(); err == nil {
		t.Fatal("in-progress with no seats passed validation")
	}
}
