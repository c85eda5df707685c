package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ShyamLatake/playout-front/internal/models"
)

// ListTurfBookings fetches a turf's bookings, for one date when date is set.
func (c *Client) ListTurfBookings(ctx context.Context, turfID, date string) ([]models.Booking, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	var out struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := c.do(ctx, http.MethodGet, "/turfs/"+escape(turfID)+"/bookings", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Bookings == nil {
		out.Bookings = []models.Booking{}
	}
	return out.Bookings, nil
}

// CreateBooking reserves [StartTime, EndTime) on a turf for the caller.
func (c *Client) CreateBooking(ctx context.Context, form models.CreateBookingForm) (*models.Booking, error) {
	var out struct {
		Booking models.Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/turfs/"+escape(form.TurfID)+"/bookings", nil, form, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}

// ListMyBookings fetches the caller's bookings.
func (c *Client) ListMyBookings(ctx context.Context) ([]models.Booking, error) {
	var out struct {
		Bookings []models.Booking `json:"bookings"`
	}
	if err := c.do(ctx, http.MethodGet, "/bookings", nil, nil, &out); err != nil {
		return nil, err
	}
	if out.Bookings == nil {
		out.Bookings = []models.Booking{}
	}
	return out.Bookings, nil
}

// UpdateBooking changes a booking's status. Turf owner only.
func (c *Client) UpdateBooking(ctx context.Context, id string, form models.UpdateBookingForm) (*models.Booking, error) {
	var out struct {
		Booking models.Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPut, "/bookings/"+escape(id), nil, form, &out); err != nil {
		return nil, err
	}
	return &out.Booking, nil
}
