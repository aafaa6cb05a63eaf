// internal/protocol/protocol.go
//
// Wire types shared by the websocket hub and the client channel.
// One JSON envelope carries every message kind; unused fields are omitted.
//
// Server → client: SNAPSHOT (full game state + per-game sequence number),
// REJECT (an action the authority refused, with a reason).
// Client → server: SUBSCRIBE / UNSUBSCRIBE, NOMINATE, MOVE.

package protocol

import "github.com/hnbchess/hnb-chess/internal/game"

type MsgType string

const (
	MsgSubscribe   MsgType = "SUBSCRIBE"
	MsgUnsubscribe MsgType = "UNSUBSCRIBE"
	MsgSnapshot    MsgType = "SNAPSHOT"
	MsgNominate    MsgType = "NOMINATE"
	MsgMove        MsgType = "MOVE"
	MsgReject      MsgType = "REJECT"
)

// Nomination is the Brain action payload.
type Nomination struct {
	GameID        string `json:"gameId"`
	PlayerID      string `json:"playerId"`
	SelectedPiece string `json:"selectedPiece"`
}

// MoveRequest is the Hand action payload. Move is an origin/destination
// pair such as "e2e4"; shape is validated, legality is the authority's job.
type MoveRequest struct {
	GameID   string `json:"gameId"`
	PlayerID string `json:"playerId"`
	Move     string `json:"move"`
}

// Envelope is the single frame type exchanged over the websocket.
// Seq increases monotonically per game on server-pushed snapshots so a
// client can discard stale deliveries.
type Envelope struct {
	Type       MsgType      `json:"type"`
	GameID     string       `json:"gameId,omitempty"`
	Seq        uint64       `json:"seq,omitempty"`
	Game       *game.Game   `json:"game,omitempty"`
	Nomination *Nomination  `json:"nomination,omitempty"`
	Move       *MoveRequest `json:"move,omitempty"`
	Reason     string       `json:"reason,omitempty"`
}
