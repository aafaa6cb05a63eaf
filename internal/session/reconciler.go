// internal/session/reconciler.go
//
// Reconciler keeps the local mirror of one game equal to the latest
// authoritative snapshot.
//
// Concurrency model: Run is a single event consumer. Connection-status
// events, snapshots, rejects, and session-switch commands are processed
// one at a time in arrival order, so the snapshot holder has exactly one
// mutator and no partial states are ever observable. Readers get a
// consistent copy through Current().
//
// Snapshots always replace the whole local value; there is no field-level
// merge and no optimistic local mutation, so the mirror can never drift
// from the authority.

package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hnbchess/hnb-chess/internal/game"
)

// Snapshot is one applied authoritative state together with its sequence
// number.
type Snapshot struct {
	Seq  uint64
	Game game.Game
}

// UpdateFunc observes every applied snapshot with its classified
// transition. Invoked from the consumer goroutine, one call at a time.
type UpdateFunc func(Transition, Snapshot)

// RejectFunc observes authority-side rejections of this session's actions.
type RejectFunc func(gameID, reason string)

// Reconciler owns the local snapshot for the currently selected game.
type Reconciler struct {
	ch  Channel
	log zerolog.Logger

	onUpdate UpdateFunc
	onReject RejectFunc

	cmds chan func()

	mu        sync.RWMutex
	gameID    string
	cur       *Snapshot
	connected bool
	// fresh marks a brand-new subscription: the next snapshot is applied
	// unconditionally, since the authority may have advanced (or restarted
	// its numbering) arbitrarily far while we were away.
	fresh bool
}

// NewReconciler builds a Reconciler over ch. Callbacks may be nil.
func NewReconciler(ch Channel, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		ch:   ch,
		log:  log.With().Str("component", "reconciler").Logger(),
		cmds: make(chan func(), 16),
	}
}

// OnUpdate registers the snapshot observer. Call before Run.
func (r *Reconciler) OnUpdate(fn UpdateFunc) { r.onUpdate = fn }

// OnReject registers the rejection observer. Call before Run.
func (r *Reconciler) OnReject(fn RejectFunc) { r.onReject = fn }

// Run consumes the channel's event stream until ctx is done or the
// stream closes. It is the only goroutine that mutates session state.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.cmds:
			fn()
		case ev, ok := <-r.ch.Events():
			if !ok {
				return
			}
			r.handle(ev)
		}
	}
}

// Switch changes the active game id. Interest in the previous game's
// snapshots is cancelled; any late snapshot for it is discarded by id
// mismatch. Switching to the already-active id is a no-op.
func (r *Reconciler) Switch(gameID string) {
	r.cmds <- func() { r.doSwitch(gameID) }
}

// Current returns a copy of the last applied snapshot, if any.
func (r *Reconciler) Current() (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cur == nil {
		return Snapshot{}, false
	}
	return *r.cur, true
}

// Connected reports the last observed connection status.
func (r *Reconciler) Connected() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connected
}

// GameID returns the active game id ("" when none selected).
func (r *Reconciler) GameID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gameID
}

func (r *Reconciler) handle(ev Event) {
	switch ev := ev.(type) {
	case StatusEvent:
		r.handleStatus(ev)
	case SnapshotEvent:
		r.handleSnapshot(ev)
	case RejectEvent:
		r.handleReject(ev)
	}
}

func (r *Reconciler) handleStatus(ev StatusEvent) {
	r.mu.Lock()
	was := r.connected
	r.connected = ev.Connected
	id := r.gameID
	if ev.Connected && !was {
		r.fresh = true
	}
	r.mu.Unlock()

	r.log.Info().Bool("connected", ev.Connected).Msg("connection status")

	// Re-issue the subscription exactly once per reconnect.
	if ev.Connected && !was && id != "" {
		if err := r.ch.Subscribe(id); err != nil {
			r.log.Warn().Err(err).Str("gameId", id).Msg("resubscribe failed")
		}
	}
}

func (r *Reconciler) handleSnapshot(ev SnapshotEvent) {
	r.mu.RLock()
	id := r.gameID
	cur := r.cur
	fresh := r.fresh
	r.mu.RUnlock()

	if ev.GameID != id || ev.Game.ID != id {
		// A correct authority never does this; applying it could
		// desynchronize the turn state machine.
		r.log.Warn().Str("gameId", ev.GameID).Str("want", id).Msg("snapshot for unsubscribed game, discarded")
		return
	}
	if !fresh && cur != nil && ev.Seq <= cur.Seq {
		r.log.Debug().Uint64("seq", ev.Seq).Uint64("applied", cur.Seq).Msg("stale snapshot, discarded")
		return
	}
	if err := ev.Game.Validate(); err != nil {
		r.log.Warn().Err(err).Str("gameId", ev.GameID).Msg("inconsistent snapshot, discarded")
		return
	}

	var prev *game.Game
	if cur != nil {
		prev = &cur.Game
	}
	tr := Classify(prev, &ev.Game)

	snap := Snapshot{Seq: ev.Seq, Game: ev.Game}
	r.mu.Lock()
	r.cur = &snap
	r.fresh = false
	r.mu.Unlock()

	r.log.Debug().Uint64("seq", ev.Seq).Stringer("transition", tr).Msg("snapshot applied")
	if r.onUpdate != nil {
		r.onUpdate(tr, snap)
	}
}

func (r *Reconciler) handleReject(ev RejectEvent) {
	r.mu.RLock()
	id := r.gameID
	r.mu.RUnlock()
	if ev.GameID != id {
		return
	}
	r.log.Info().Str("reason", ev.Reason).Msg("action rejected by authority")
	if r.onReject != nil {
		r.onReject(ev.GameID, ev.Reason)
	}
}

func (r *Reconciler) doSwitch(gameID string) {
	r.mu.Lock()
	old := r.gameID
	if old == gameID {
		r.mu.Unlock()
		return
	}
	connected := r.connected
	r.gameID = gameID
	r.cur = nil
	r.fresh = true
	r.mu.Unlock()

	if connected && old != "" {
		if err := r.ch.Unsubscribe(old); err != nil {
			r.log.Warn().Err(err).Str("gameId", old).Msg("unsubscribe failed")
		}
	}
	if connected && gameID != "" {
		if err := r.ch.Subscribe(gameID); err != nil {
			r.log.Warn().Err(err).Str("gameId", gameID).Msg("subscribe failed")
		}
	}
}
