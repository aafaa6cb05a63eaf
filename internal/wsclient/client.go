// internal/wsclient/client.go
//
// Websocket implementation of the session.Channel contract. Owns dialing,
// framing, automatic reconnection with fixed backoff, and heartbeat;
// surfaces everything else as an ordered event stream for the reconciler.
//
// Delivery is best-effort: a send that races a disconnect is lost, and
// that is fine upstream (a lost action never advances the expected actor,
// so the caller just retries).

package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/hnbchess/hnb-chess/internal/protocol"
	"github.com/hnbchess/hnb-chess/internal/session"
)

const (
	reconnectDelay = 2 * time.Second
	dialTimeout    = 10 * time.Second
	writeTimeout   = 5 * time.Second
	eventBuffer    = 64
)

var errClosed = errors.New("wsclient: closed")

// wsConn is the subset of *websocket.Conn the client touches; tests
// substitute a recording fake.
type wsConn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Close(code websocket.StatusCode, reason string) error
}

// Client maintains one websocket to the authority and reconnects until
// Disconnect is called.
type Client struct {
	url string
	log zerolog.Logger

	events chan session.Event

	mu         sync.Mutex
	conn       wsConn
	cancel     context.CancelFunc
	closed     bool
	subscribed map[string]bool
}

var _ session.Channel = (*Client)(nil)

func New(url string, log zerolog.Logger) *Client {
	return &Client{
		url:        url,
		log:        log,
		events:     make(chan session.Event, eventBuffer),
		subscribed: make(map[string]bool),
	}
}

// Connect starts the connection manager. It returns once the manager is
// running; the first StatusEvent reports the actual connection outcome.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClosed
	}
	if c.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.run(runCtx)
	return nil
}

// Disconnect stops reconnecting, closes the socket, and ends the event
// stream.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "client closing")
	}
	return nil
}

func (c *Client) Events() <-chan session.Event { return c.events }

// run dials, reads until failure, and redials after a fixed delay.
func (c *Client) run(ctx context.Context) {
	defer close(c.events)
	for {
		conn, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn().Err(err).Msg("dial failed, retrying")
		} else {
			c.setConn(conn)
			c.emit(ctx, session.StatusEvent{Connected: true})
			c.readLoop(ctx, conn)
			c.setConn(nil)
			c.emit(ctx, session.StatusEvent{Connected: false})
			if ctx.Err() != nil {
				return
			}
			c.log.Info().Msg("connection lost, reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dctx, c.url, nil)
	return conn, err
}

// setConn swaps the active connection. Dropping the connection also
// clears the subscription cache so a post-reconnect Subscribe for the
// same id actually transmits.
func (c *Client) setConn(conn wsConn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	if conn == nil {
		c.subscribed = make(map[string]bool)
	}
}

// readLoop decodes envelopes until the connection fails.
func (c *Client) readLoop(ctx context.Context, conn wsConn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn().Err(err).Msg("bad frame from authority")
			continue
		}
		switch env.Type {
		case protocol.MsgSnapshot:
			if env.Game == nil {
				c.log.Warn().Str("gameId", env.GameID).Msg("snapshot without game payload")
				continue
			}
			c.emit(ctx, session.SnapshotEvent{
				GameID: env.GameID,
				Seq:    env.Seq,
				Game:   *env.Game,
			})
		case protocol.MsgReject:
			c.emit(ctx, session.RejectEvent{
				GameID: env.GameID,
				Reason: env.Reason,
			})
		default:
			c.log.Warn().Str("type", string(env.Type)).Msg("unexpected message from authority")
		}
	}
}

func (c *Client) emit(ctx context.Context, ev session.Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

// Subscribe requests snapshots for gameID. Idempotent per connection;
// the cache resets on disconnect so reconnect resubscribes go through.
func (c *Client) Subscribe(gameID string) error {
	c.mu.Lock()
	if c.subscribed[gameID] {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	if err := c.write(protocol.Envelope{Type: protocol.MsgSubscribe, GameID: gameID}); err != nil {
		return err
	}
	// Only a transmitted subscription counts: caching a failed attempt
	// would suppress the resubscribe after the next reconnect.
	c.mu.Lock()
	c.subscribed[gameID] = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Unsubscribe(gameID string) error {
	c.mu.Lock()
	delete(c.subscribed, gameID)
	c.mu.Unlock()
	return c.write(protocol.Envelope{Type: protocol.MsgUnsubscribe, GameID: gameID})
}

func (c *Client) SendNomination(n protocol.Nomination) error {
	return c.write(protocol.Envelope{Type: protocol.MsgNominate, GameID: n.GameID, Nomination: &n})
}

func (c *Client) SendMove(m protocol.MoveRequest) error {
	return c.write(protocol.Envelope{Type: protocol.MsgMove, GameID: m.GameID, Move: &m})
}

func (c *Client) write(env protocol.Envelope) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return session.ErrNotConnected
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
