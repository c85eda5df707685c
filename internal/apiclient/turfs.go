package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ShyamLatake/playout-front/internal/models"
)

// TurfFilters narrows ListTurfs.
type TurfFilters struct {
	Sport    string
	Location string
	OwnerID  string
}

func (f TurfFilters) values() url.Values {
	q := url.Values{}
	if f.Sport != "" {
		q.Set("sport", f.Sport)
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.OwnerID != "" {
		q.Set("ownerId", f.OwnerID)
	}
	return q
}

// ListTurfs fetches GET /turfs.
func (c *Client) ListTurfs(ctx context.Context, filters TurfFilters) ([]models.Turf, error) {
	var out struct {
		Turfs []models.Turf `json:"turfs"`
	}
	if err := c.do(ctx, http.MethodGet, "/turfs", filters.values(), nil, &out); err != nil {
		return nil, err
	}
	if out.Turfs == nil {
		out.Turfs = []models.Turf{}
	}
	return out.Turfs, nil
}

// GetTurf fetches a single turf.
func (c *Client) GetTurf(ctx context.Context, id string) (*models.Turf, error) {
	var out struct {
		Turf models.Turf `json:"turf"`
	}
	if err := c.do(ctx, http.MethodGet, "/turfs/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Turf, nil
}

// CreateTurf lists a new turf owned by the caller.
func (c *Client) CreateTurf(ctx context.Context, form models.CreateTurfForm) (*models.Turf, error) {
	var out struct {
		Turf models.Turf `json:"turf"`
	}
	if err := c.do(ctx, http.MethodPost, "/turfs", nil, form, &out); err != nil {
		return nil, err
	}
	return &out.Turf, nil
}

// UpdateTurf sends a partial update. Owner only.
func (c *Client) UpdateTurf(ctx context.Context, id string, form models.UpdateTurfForm) (*models.Turf, error) {
	var out struct {
		Turf models.Turf `json:"turf"`
	}
	if err := c.do(ctx, http.MethodPut, "/turfs/"+escape(id), nil, form, &out); err != nil {
		return nil, err
	}
	return &out.Turf, nil
}

// DeleteTurf removes a turf. Owner only.
func (c *Client) DeleteTurf(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/turfs/"+escape(id), nil, nil, nil)
}
