// internal/session/channel.go
//
// Contract this core requires from the bidirectional transport to the
// authority. The implementation (internal/wsclient) owns framing,
// reconnection, and heartbeats; this package only consumes the ordered
// event stream and issues sends.

package session

import (
	"context"

	"github.com/hnbchess/hnb-chess/internal/game"
	"github.com/hnbchess/hnb-chess/internal/protocol"
)

// Event is one entry of the ordered stream a Channel delivers.
// The producer is the transport; the sole consumer is the Reconciler,
// so events arrive in a total order without extra locking.
type Event interface{ isEvent() }

// StatusEvent reports a connection transition, including the initial
// state after Connect.
type StatusEvent struct {
	Connected bool
}

// SnapshotEvent carries one complete authoritative game snapshot.
// Seq increases monotonically per game for the lifetime of the authority.
type SnapshotEvent struct {
	GameID string
	Seq    uint64
	Game   game.Game
}

// RejectEvent reports an action the authority explicitly refused.
type RejectEvent struct {
	GameID string
	Reason string
}

func (StatusEvent) isEvent()   {}
func (SnapshotEvent) isEvent() {}
func (RejectEvent) isEvent()   {}

// Channel is the transport boundary. Message delivery is not guaranteed:
// anything sent around a disconnect may be lost, and the design upstream
// must stay safe under that (a lost action simply never advances the
// expected actor, which is visible and retry-safe).
type Channel interface {
	// Connect establishes the connection and starts delivering events.
	Connect(ctx context.Context) error
	// Disconnect tears the connection down and stops event delivery.
	Disconnect() error
	// Events returns the ordered event stream.
	Events() <-chan Event
	// Subscribe requests full-snapshot delivery for one game. It must be
	// idempotent: subscribing twice to the same id on one connection must
	// not duplicate delivery.
	Subscribe(gameID string) error
	// Unsubscribe cancels interest in a game's snapshots.
	Unsubscribe(gameID string) error
	// SendNomination submits a Brain piece nomination.
	SendNomination(n protocol.Nomination) error
	// SendMove submits a Hand move.
	SendMove(m protocol.MoveRequest) error
}
