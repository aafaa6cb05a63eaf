// internal/httpserver/ws.go
//
// Websocket snapshot push. Clients subscribe to game ids and receive the
// whole game state on every accepted mutation, stamped with a per-game
// monotonically increasing sequence number. Nominations and moves may
// also arrive over the socket; invalid ones get a REJECT envelope back
// to the sender only, with no snapshot emitted.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"

	"github.com/hnbchess/hnb-chess/internal/game"
	"github.com/hnbchess/hnb-chess/internal/protocol"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 32
)

// wsClient is one connected socket. Writes go through send so the reader
// and the hub never block on a slow peer.
type wsClient struct {
	conn  *websocket.Conn
	send  chan []byte
	games map[string]bool
}

// hub tracks connected clients, their game subscriptions, and the
// per-game snapshot sequence counters.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]bool
	byGame  map[string]map[*wsClient]bool
	seq     map[string]uint64
}

func newHub() *hub {
	return &hub{
		clients: make(map[*wsClient]bool),
		byGame:  make(map[string]map[*wsClient]bool),
		seq:     make(map[string]uint64),
	}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	for id := range c.games {
		delete(h.byGame[id], c)
		if len(h.byGame[id]) == 0 {
			delete(h.byGame, id)
		}
	}
	close(c.send)
}

// subscribe registers c for gameID and returns the current sequence
// number for that game. Re-subscribing is a no-op.
func (h *hub) subscribe(c *wsClient, gameID string) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.games[gameID] {
		return h.seq[gameID]
	}
	c.games[gameID] = true
	if h.byGame[gameID] == nil {
		h.byGame[gameID] = make(map[*wsClient]bool)
	}
	h.byGame[gameID][c] = true
	return h.seq[gameID]
}

func (h *hub) unsubscribe(c *wsClient, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(c.games, gameID)
	delete(h.byGame[gameID], c)
	if len(h.byGame[gameID]) == 0 {
		delete(h.byGame, gameID)
	}
}

// broadcastSnapshot bumps the game's sequence number and pushes the full
// state to every subscriber. Callers hold the server's game mutex, so
// sequence order matches mutation order.
func (h *hub) broadcastSnapshot(g *game.Game) {
	h.mu.Lock()
	h.seq[g.ID]++
	env := protocol.Envelope{
		Type:   protocol.MsgSnapshot,
		GameID: g.ID,
		Seq:    h.seq[g.ID],
		Game:   g,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		h.mu.Unlock()
		log.Error().Err(err).Str("gameId", g.ID).Msg("marshal snapshot")
		return
	}
	var stale []*wsClient
	for c := range h.byGame[g.ID] {
		select {
		case c.send <- payload:
		default:
			// Backed-up peer: drop it rather than stall the game.
			stale = append(stale, c)
		}
	}
	h.mu.Unlock()
	for _, c := range stale {
		h.remove(c)
	}
}

// sendTo marshals env and queues it on one client only.
func (h *hub) sendTo(c *wsClient, env protocol.Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		log.Error().Err(err).Msg("marshal envelope")
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

// serveWS upgrades the connection and runs the read loop until the
// client goes away.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}

	c := &wsClient{
		conn:  conn,
		send:  make(chan []byte, wsSendBuffer),
		games: make(map[string]bool),
	}
	s.hub.add(c)
	defer s.hub.remove(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go c.writeLoop(ctx)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Msg("bad websocket frame")
			continue
		}
		s.dispatch(r, c, env)
	}
}

// dispatch handles one inbound envelope from a socket.
func (s *Server) dispatch(r *http.Request, c *wsClient, env protocol.Envelope) {
	switch env.Type {
	case protocol.MsgSubscribe:
		if env.GameID == "" {
			return
		}
		// Seq and state are read under the mutation lock so the initial
		// snapshot never carries a seq older than its content.
		s.gmu.Lock()
		seq := s.hub.subscribe(c, env.GameID)
		g, err := s.store.GetGame(r.Context(), env.GameID)
		s.gmu.Unlock()
		if err != nil {
			s.hub.sendTo(c, protocol.Envelope{
				Type:   protocol.MsgReject,
				GameID: env.GameID,
				Reason: "game not found",
			})
			return
		}
		// Initial snapshot at the current sequence; broadcasts bump it.
		s.hub.sendTo(c, protocol.Envelope{
			Type:   protocol.MsgSnapshot,
			GameID: g.ID,
			Seq:    seq,
			Game:   g,
		})

	case protocol.MsgUnsubscribe:
		s.hub.unsubscribe(c, env.GameID)

	case protocol.MsgNominate:
		if env.Nomination == nil {
			return
		}
		if err := s.applyNomination(r, *env.Nomination); err != nil {
			s.hub.sendTo(c, protocol.Envelope{
				Type:   protocol.MsgReject,
				GameID: env.Nomination.GameID,
				Reason: err.Error(),
			})
		}

	case protocol.MsgMove:
		if env.Move == nil {
			return
		}
		if err := s.applyMove(r, *env.Move); err != nil {
			s.hub.sendTo(c, protocol.Envelope{
				Type:   protocol.MsgReject,
				GameID: env.Move.GameID,
				Reason: err.Error(),
			})
		}

	default:
		log.Warn().Str("type", string(env.Type)).Msg("unknown websocket message")
	}
}

// writeLoop drains the send queue and keeps the connection alive with
// pings. Exits when the queue closes or the context ends.
func (c *wsClient) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				return
			}
		case <-ticker.C:
			wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := c.conn.Ping(wctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
