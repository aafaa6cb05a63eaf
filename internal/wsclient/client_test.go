package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/hnbchess/hnb-chess/internal/protocol"
	"github.com/hnbchess/hnb-chess/internal/session"
)

// fakeConn records every frame written through it.
type fakeConn struct {
	mu       sync.Mutex
	writes   [][]byte
	writeErr error
}

func (f *fakeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	<-ctx.Done()
	return 0, nil, ctx.Err()
}

func (f *fakeConn) Write(ctx context.Context, typ websocket.MessageType, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	return nil
}

func (f *fakeConn) Close(code websocket.StatusCode, reason string) error { return nil }

func (f *fakeConn) envelopes(t *testing.T) []protocol.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.Envelope, 0, len(f.writes))
	for _, w := range f.writes {
		var env protocol.Envelope
		if err := json.Unmarshal(w, &env); err != nil {
			t.Fatalf("bad frame %s: %v", w, err)
		}
		out = append(out, env)
	}
	return out
}

func newClientWithConn(conn wsConn) *Client {
	c := New("ws://test/ws", zerolog.Nop())
	c.setConn(conn)
	return c
}

func TestSubscribe_IdempotentPerConnection(t *testing.T) {
	conn := &fakeConn{}
	c := newClientWithConn(conn)

	if err := c.Subscribe("g1"); err != nil {
		t.Fatal(err)
	}
	if err := c.Subscribe("g1"); err != nil {
		t.Fatal(err)
	}

	envs := conn.envelopes(t)
	if len(envs) != 1 {
		t.Fatalf("frames = %d, want 1", len(envs))
	}
	if envs[0].Type != protocol.MsgSubscribe || envs[0].GameID != "g1" {
		t.Fatalf("frame = %+v", envs[0])
	}
}

// A Subscribe whose write failed must not count as subscribed, or the
// resubscribe after the next reconnect would be silently skipped.
func TestSubscribe_FailedWriteNotCached(t *testing.T) {
	c := New("ws://test/ws", zerolog.Nop())

	// Down: the attempt fails and must leave no trace.
	if err := c.Subscribe("g1"); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}

	conn := &fakeConn{}
	c.setConn(conn)
	if err := c.Subscribe("g1"); err != nil {
		t.Fatal(err)
	}
	if envs := conn.envelopes(t); len(envs) != 1 || envs[0].Type != protocol.MsgSubscribe {
		t.Fatalf("subscription after failed attempt not transmitted: %+v", envs)
	}
}

func TestSubscribe_WriteErrorNotCached(t *testing.T) {
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	c := newClientWithConn(conn)

	if err := c.Subscribe("g1"); err == nil {
		t.Fatal("failed write reported success")
	}

	conn.mu.Lock()
	conn.writeErr = nil
	conn.mu.Unlock()

	if err := c.Subscribe("g1"); err != nil {
		t.Fatal(err)
	}
	if envs := conn.envelopes(t); len(envs) != 1 {
		t.Fatalf("frames = %d, want 1 after retry", len(envs))
	}
}

func TestSubscribe_CacheResetOnDisconnect(t *testing.T) {
	first := &fakeConn{}
	c := newClientWithConn(first)
	if err := c.Subscribe("g1"); err != nil {
		t.Fatal(err)
	}

	c.setConn(nil) // connection lost
	second := &fakeConn{}
	c.setConn(second)

	if err := c.Subscribe("g1"); err != nil {
		t.Fatal(err)
	}
	if envs := second.envelopes(t); len(envs) != 1 || envs[0].GameID != "g1" {
		t.Fatalf("resubscribe on new connection not transmitted: %+v", envs)
	}
}

func TestSend_WhileDisconnected(t *testing.T) {
	c := New("ws://test/ws", zerolog.Nop())

	if err := c.SendNomination(protocol.Nomination{GameID: "g1"}); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("nomination err = %v, want ErrNotConnected", err)
	}
	if err := c.SendMove(protocol.MoveRequest{GameID: "g1"}); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("move err = %v, want ErrNotConnected", err)
	}
}

func TestSend_Envelopes(t *testing.T) {
	conn := &fakeConn{}
	c := newClientWithConn(conn)

	if err := c.SendNomination(protocol.Nomination{
		GameID: "g1", PlayerID: "wb", SelectedPiece: "KNIGHT",
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.SendMove(protocol.MoveRequest{
		GameID: "g1", PlayerID: "wh", Move: "e2e4",
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.Unsubscribe("g1"); err != nil {
		t.Fatal(err)
	}

	envs := conn.envelopes(t)
	if len(envs) != 3 {
		t.Fatalf("frames = %d, want 3", len(envs))
	}
	if envs[0].Type != protocol.MsgNominate || envs[0].Nomination == nil || envs[0].Nomination.SelectedPiece != "KNIGHT" {
		t.Fatalf("nominate frame = %+v", envs[0])
	}
	if envs[1].Type != protocol.MsgMove || envs[1].Move == nil || envs[1].Move.Move != "e2e4" {
		t.Fatalf("move frame = %+v", envs[1])
	}
	if envs[2].Type != protocol.MsgUnsubscribe || envs[2].GameID != "g1" {
		t.Fatalf("unsubscribe frame = %+v", envs[2])
	}
}
