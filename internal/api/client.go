// internal/api/client.go
//
// Thin REST client for the lobby endpoints: player registry, game
// creation and seating. Realtime state flows over the websocket channel
// instead (internal/wsclient).

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hnbchess/hnb-chess/internal/game"
)

// UpstreamError is a non-2xx response from the authority, with the
// server-provided reason when one was given.
type UpstreamError struct {
	Status int
	Reason string
}

func (e *UpstreamError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("server error %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("server error %d", e.Status)
}

// Client talks to the authority's HTTP API.
type Client struct {
	base  string
	http  *http.Client
	token string
}

func New(base string) *Client {
	return &Client{
		base: base,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken attaches a bearer token to subsequent requests.
func (c *Client) SetToken(tok string) { c.token = tok }

// AuthResult is the signup/login response.
type AuthResult struct {
	Player *game.Player `json:"player"`
	Token  string       `json:"token"`
}

func (c *Client) Signup(ctx context.Context, username, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	var out AuthResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePlayer(ctx context.Context, username string) (*game.Player, error) {
	var out game.Player
	body := map[string]string{"username": username}
	if err := c.do(ctx, http.MethodPost, "/players", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPlayers(ctx context.Context) ([]*game.Player, error) {
	var out []*game.Player
	if err := c.do(ctx, http.MethodGet, "/players", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateGame(ctx context.Context, playerID string, team game.TeamColor, role game.PlayerRole) (*game.Game, error) {
	var out game.Game
	body := map[string]string{
		"playerId":  playerID,
		"teamColor": string(team),
		"role":      string(role),
	}
	if err := c.do(ctx, http.MethodPost, "/games", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListGames(ctx context.Context) ([]*game.Game, error) {
	var out []*game.Game
	if err := c.do(ctx, http.MethodGet, "/games", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetGame(ctx context.Context, id string) (*game.Game, error) {
	var out game.Game
	if err := c.do(ctx, http.MethodGet, "/games/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinGame(ctx context.Context, gameID, playerID string, team game.TeamColor, role game.PlayerRole) (*game.Game, error) {
	var out game.Game
	body := map[string]string{
		"playerId":  playerID,
		"teamColor": string(team),
		"role":      string(role),
	}
	if err := c.do(ctx, http.MethodPost, "/games/"+gameID+"/join", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSuggestions(ctx context.Context, gameID string) ([]*game.Suggestion, error) {
	var out []*game.Suggestion
	if err := c.do(ctx, http.MethodGet, "/games/"+gameID+"/suggestions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMoves(ctx context.Context, gameID string) ([]*game.Move, error) {
	var out []*game.Move
	if err := c.do(ctx, http.MethodGet, "/games/"+gameID+"/moves", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(payload)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &UpstreamError{Status: resp.StatusCode, Reason: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
