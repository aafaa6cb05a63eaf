// internal/store/sqlite.go
//
// SQLite-backed implementation of the Store interface.
// Responsibilities:
//   - Applying the embedded schema idempotently (recorded in _migrations).
//   - Mapping the Game's four nullable seats to player rows.
//   - Per-game suggestion/move numbering via MAX(number)+1 inside a tx.
//
// Note: the *sql.DB is opened by the caller (see db.go at the module root)
// so pragmas and path handling stay in one place.

package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/hnbchess/hnb-chess/internal/game"
)

//go:embed schema.sql
var schemaSQL string

type sqliteStore struct {
	db *sql.DB
}

// NewSQLite wraps db in a Store, applying the schema if needed.
func NewSQLite(db *sql.DB) (Store, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return nil, fmt.Errorf("create _migrations: %w", err)
	}
	var done int
	err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, "schema.sql").Scan(&done)
	switch {
	case err == nil:
		// already applied
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.Exec(schemaSQL); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
		if _, err := db.Exec(`INSERT INTO _migrations(name) VALUES (?)`, "schema.sql"); err != nil {
			return nil, fmt.Errorf("record schema: %w", err)
		}
	default:
		return nil, fmt.Errorf("query _migrations: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) SavePlayer(ctx context.Context, p *game.Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (id, username, rating) VALUES (?,?,?)
		ON CONFLICT(id) DO UPDATE SET username=excluded.username, rating=excluded.rating`,
		p.ID, p.Username, p.Rating)
	return err
}

func (s *sqliteStore) GetPlayer(ctx context.Context, id string) (*game.Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx,
		`SELECT id, username, rating FROM players WHERE id=?`, id))
}

func (s *sqliteStore) GetPlayerByUsername(ctx context.Context, username string) (*game.Player, error) {
	return scanPlayer(s.db.QueryRowContext(ctx,
		`SELECT id, username, rating FROM players WHERE lower(username)=lower(?)`, username))
}

func (s *sqliteStore) ListPlayers(ctx context.Context) ([]*game.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, rating FROM players ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Player
	for rows.Next() {
		var p game.Player
		if err := rows.Scan(&p.ID, &p.Username, &p.Rating); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *sqliteStore) SetCredential(ctx context.Context, playerID, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE players SET password_hash=? WHERE id=?`, hash, playerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) GetCredential(ctx context.Context, playerID string) (string, error) {
	var hash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM players WHERE id=?`, playerID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !hash.Valid) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return hash.String, nil
}

func (s *sqliteStore) SaveGame(ctx context.Context, g *game.Game) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games
			(id, white_hand_id, white_brain_id, black_hand_id, black_brain_id,
			 fen, status, current_team, current_role, selected_piece)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			white_hand_id=excluded.white_hand_id,
			white_brain_id=excluded.white_brain_id,
			black_hand_id=excluded.black_hand_id,
			black_brain_id=excluded.black_brain_id,
			fen=excluded.fen,
			status=excluded.status,
			current_team=excluded.current_team,
			current_role=excluded.current_role,
			selected_piece=excluded.selected_piece`,
		g.ID, seatID(g.WhiteHand), seatID(g.WhiteBrain), seatID(g.BlackHand), seatID(g.BlackBrain),
		g.FEN, string(g.Status), string(g.CurrentTeam), string(g.CurrentRole), g.SelectedPiece)
	return err
}

func (s *sqliteStore) GetGame(ctx context.Context, id string) (*game.Game, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, white_hand_id, white_brain_id, black_hand_id, black_brain_id,
		       fen, status, current_team, current_role, selected_piece
		FROM games WHERE id=?`, id)
	return s.scanGame(ctx, row)
}

func (s *sqliteStore) ListGames(ctx context.Context) ([]*game.Game, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, white_hand_id, white_brain_id, black_hand_id, black_brain_id,
		       fen, status, current_team, current_role, selected_piece
		FROM games ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Game
	for rows.Next() {
		g, err := s.scanGame(ctx, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AppendSuggestion(ctx context.Context, sg *game.Suggestion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(suggestion_number),0)+1 FROM suggestions WHERE game_id=?`,
		sg.GameID).Scan(&sg.Number); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO suggestions (id, game_id, player_id, piece_type, suggestion_number)
		VALUES (?,?,?,?,?)`,
		sg.ID, sg.GameID, sg.PlayerID, string(sg.Piece), sg.Number); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) ListSuggestions(ctx context.Context, gameID string) ([]*game.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, player_id, piece_type, suggestion_number
		FROM suggestions WHERE game_id=? ORDER BY suggestion_number`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Suggestion
	for rows.Next() {
		var sg game.Suggestion
		var piece string
		if err := rows.Scan(&sg.ID, &sg.GameID, &sg.PlayerID, &piece, &sg.Number); err != nil {
			return nil, err
		}
		sg.Piece = game.PieceType(piece)
		out = append(out, &sg)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AppendMove(ctx context.Context, mv *game.Move) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(move_number),0)+1 FROM moves WHERE game_id=?`,
		mv.GameID).Scan(&mv.Number); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO moves (id, game_id, player_id, move, fen, move_number)
		VALUES (?,?,?,?,?,?)`,
		mv.ID, mv.GameID, mv.PlayerID, mv.Move, mv.FEN, mv.Number); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) ListMoves(ctx context.Context, gameID string) ([]*game.Move, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, player_id, move, fen, move_number
		FROM moves WHERE game_id=? ORDER BY move_number`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*game.Move
	for rows.Next() {
		var mv game.Move
		if err := rows.Scan(&mv.ID, &mv.GameID, &mv.PlayerID, &mv.Move, &mv.FEN, &mv.Number); err != nil {
			return nil, err
		}
		out = append(out, &mv)
	}
	return out, rows.Err()
}

// ----------------------------- scanning ------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*game.Player, error) {
	var p game.Player
	if err := row.Scan(&p.ID, &p.Username, &p.Rating); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *sqliteStore) scanGame(ctx context.Context, row rowScanner) (*game.Game, error) {
	var g game.Game
	var wh, wb, bh, bb sql.NullString
	var status, team, role string
	if err := row.Scan(&g.ID, &wh, &wb, &bh, &bb, &g.FEN, &status, &team, &role, &g.SelectedPiece); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	g.Status = game.Status(status)
	g.CurrentTeam = game.TeamColor(team)
	g.CurrentRole = game.PlayerRole(role)

	var err error
	if g.WhiteHand, err = s.seatPlayer(ctx, wh); err != nil {
		return nil, err
	}
	if g.WhiteBrain, err = s.seatPlayer(ctx, wb); err != nil {
		return nil, err
	}
	if g.BlackHand, err = s.seatPlayer(ctx, bh); err != nil {
		return nil, err
	}
	if g.BlackBrain, err = s.seatPlayer(ctx, bb); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *sqliteStore) seatPlayer(ctx context.Context, id sql.NullString) (*game.Player, error) {
	if !id.Valid || id.String == "" {
		return nil, nil
	}
	return s.GetPlayer(ctx, id.String)
}

func seatID(p *game.Player) any {
	if p == nil {
		return nil
	}
	return p.ID
}
