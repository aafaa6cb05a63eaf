package store

import (
	"context"
	"errors"
	"testing"

	"github.com/hnbchess/hnb-chess/internal/game"
)

func TestMemory_Players(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if _, err := m.GetPlayer(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing player: err = %v, want ErrNotFound", err)
	}

	p := &game.Player{ID: "p1", Username: "Alice", Rating: 1200}
	if err := m.SavePlayer(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := m.GetPlayer(ctx, "p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "Alice" {
		t.Fatalf("username = %s", got.Username)
	}

	// Username lookup is case-insensitive.
	if _, err := m.GetPlayerByUsername(ctx, "alice"); err != nil {
		t.Fatalf("case-insensitive lookup: %v", err)
	}

	if err := m.SavePlayer(ctx, &game.Player{ID: "p2", Username: "Bob"}); err != nil {
		t.Fatal(err)
	}
	list, err := m.ListPlayers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Username != "Alice" {
		t.Fatalf("list = %v", list)
	}
}

func TestMemory_Credentials(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	if _, err := m.GetCredential(ctx, "guest"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("guest credential: err = %v, want ErrNotFound", err)
	}
	if err := m.SetCredential(ctx, "p1", "hash"); err != nil {
		t.Fatal(err)
	}
	h, err := m.GetCredential(ctx, "p1")
	if err != nil || h != "hash" {
		t.Fatalf("credential = %q, %v", h, err)
	}
}

func TestMemory_Games(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	g := game.NewGame()
	if err := m.SaveGame(ctx, g); err != nil {
		t.Fatal(err)
	}
	got, err := m.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != game.StatusWaiting {
		t.Fatalf("status = %s", got.Status)
	}

	if _, err := m.GetGame(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing game: err = %v, want ErrNotFound", err)
	}

	list, err := m.ListGames(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
}

// Mutating a fetched game, or the instance passed to SaveGame, must not
// leak into the stored state another goroutine may be reading.
func TestMemory_GameIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	g := game.NewGame()
	if err := m.SaveGame(ctx, g); err != nil {
		t.Fatal(err)
	}

	g.Status = game.StatusFinished // caller keeps mutating its instance
	stored, err := m.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != game.StatusWaiting {
		t.Fatalf("stored status = %s, caller mutation leaked in", stored.Status)
	}

	stored.SelectedPiece = string(game.PieceQueen)
	again, err := m.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.SelectedPiece != "" {
		t.Fatal("reader mutation leaked into the store")
	}

	list, err := m.ListGames(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}
	list[0].Status = game.StatusFinished
	again, _ = m.GetGame(ctx, g.ID)
	if again.Status != game.StatusWaiting {
		t.Fatal("list mutation leaked into the store")
	}
}

func TestMemory_AppendNumbering(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	for i := 0; i < 3; i++ {
		s := game.NewSuggestion("g1", "wb", game.PiecePawn)
		if err := m.AppendSuggestion(ctx, s); err != nil {
			t.Fatal(err)
		}
		if s.Number != i+1 {
			t.Fatalf("suggestion number = %d, want %d", s.Number, i+1)
		}
	}
	// Numbering is per game.
	other := game.NewSuggestion("g2", "wb", game.PieceRook)
	if err := m.AppendSuggestion(ctx, other); err != nil {
		t.Fatal(err)
	}
	if other.Number != 1 {
		t.Fatalf("other game's numbering = %d, want 1", other.Number)
	}

	mv := game.NewMoveRecord("g1", "wh", "e2e4", "fen-after")
	if err := m.AppendMove(ctx, mv); err != nil {
		t.Fatal(err)
	}
	if mv.Number != 1 {
		t.Fatalf("move number = %d, want 1", mv.Number)
	}

	suggestions, err := m.ListSuggestions(ctx, "g1")
	if err != nil || len(suggestions) != 3 {
		t.Fatalf("suggestions = %d, %v", len(suggestions), err)
	}
	moves, err := m.ListMoves(ctx, "g1")
	if err != nil || len(moves) != 1 {
		t.Fatalf("moves = %d, %v", len(moves), err)
	}

	if got, _ := m.ListMoves(ctx, "empty"); len(got) != 0 {
		t.Fatalf("moves for unknown game = %v", got)
	}
}
