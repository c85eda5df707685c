package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ShyamLatake/playout-front/internal/models"
)

// GameFilters narrows ListGames. Empty fields are not sent.
type GameFilters struct {
	Sport  string
	Status models.GameStatus
	Date   string
}

func (f GameFilters) values() url.Values {
	q := url.Values{}
	if f.Sport != "" {
		q.Set("sport", f.Sport)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	return q
}

// ListGames fetches GET /games.
func (c *Client) ListGames(ctx context.Context, filters GameFilters) ([]models.Game, error) {
	var out struct {
		Games []models.Game `json:"games"`
	}
	if err := c.do(ctx, http.MethodGet, "/games", filters.values(), nil, &out); err != nil {
		return nil, err
	}
	if out.Games == nil {
		out.Games = []models.Game{}
	}
	return out.Games, nil
}

// CreateGame posts a new game organized by the caller.
func (c *Client) CreateGame(ctx context.Context, form models.CreateGameForm) (*models.Game, error) {
	var out struct {
		Game models.Game `json:"game"`
	}
	if err := c.do(ctx, http.MethodPost, "/games", nil, form, &out); err != nil {
		return nil, err
	}
	return &out.Game, nil
}

// JoinGame adds the caller to the game's roster.
func (c *Client) JoinGame(ctx context.Context, gameID string) error {
	return c.do(ctx, http.MethodPost, "/games/"+escape(gameID)+"/join", nil, nil, nil)
}

// LeaveGame removes the caller from the game's roster.
func (c *Client) LeaveGame(ctx context.Context, gameID string) error {
	return c.do(ctx, http.MethodPost, "/games/"+escape(gameID)+"/leave", nil, nil, nil)
}

// RequestToJoin files a pending join request.
func (c *Client) RequestToJoin(ctx context.Context, gameID string, form models.RequestToJoinForm) error {
	return c.do(ctx, http.MethodPost, "/games/"+escape(gameID)+"/request", nil, form, nil)
}

// ResolveRequest approves or rejects a pending request. Organizer only.
func (c *Client) ResolveRequest(ctx context.Context, gameID string, form models.ResolveRequestForm) error {
	return c.do(ctx, http.MethodPut, "/games/"+escape(gameID)+"/request", nil, form, nil)
}
