package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/models"
)

// newTestClient points a client at handler.
func newTestClient(t *testing.T, tokens identity.TokenSource, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", tokens, srv.Client(), zerolog.Nop())
}

func writeData(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data}); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}

func TestListGames_DecodesEnvelopeAndSendsFilters(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/games" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("sport"); got != "football" {
			t.Errorf("expected sport filter, got %q", got)
		}
		if r.URL.Query().Has("date") {
			t.Errorf("expected empty filters to be omitted")
		}
		writeData(t, w, map[string]any{"games": []models.Game{{ID: "g1", MaxPlayers: 10}}})
	})

	games, err := c.ListGames(context.Background(), GameFilters{Sport: "football"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 1 || games[0].ID != "g1" {
		t.Fatalf("expected one game g1, got %+v", games)
	}
}

func TestListGames_NullListIsEmpty(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, map[string]any{"games": nil})
	})

	games, err := c.ListGames(context.Background(), GameFilters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if games == nil || len(games) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", games)
	}
}

func TestBearerToken(t *testing.T) {
	var got string
	c := newTestClient(t, identity.StaticToken("tok-123"), func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	})

	if err := c.JoinGame(context.Background(), "g1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", got)
	}
}

func TestAnonymousWithoutToken(t *testing.T) {
	c := newTestClient(t, identity.ContextToken{}, func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("expected no authorization header, got %q", h)
		}
		writeData(t, w, map[string]any{"turfs": []models.Turf{}})
	})

	if _, err := c.ListTurfs(context.Background(), TurfFilters{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestContextTokenForwarded(t *testing.T) {
	var got string
	c := newTestClient(t, identity.ContextToken{}, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	})

	ctx := identity.WithToken(context.Background(), "viewer-token")
	if err := c.LeaveGame(ctx, "g1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Bearer viewer-token" {
		t.Fatalf("expected forwarded token, got %q", got)
	}
}

func TestAPIError_MessageFromBody(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"success":false,"message":"Game is full"}`)
	})

	err := c.JoinGame(context.Background(), "g1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T %v", err, err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Message != "Game is full" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected IsStatus to match 409")
	}
}

func TestAPIError_GenericMessage(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	err := c.LeaveGame(context.Background(), "g1")
	if err == nil || err.Error() != "request failed with status 502" {
		t.Fatalf("expected generic status message, got %v", err)
	}
}

func TestResolveRequest_SendsBody(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/games/g1/request" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body models.ResolveRequestForm
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body.RequestID != "r1" || body.Action != models.RequestActionApprove {
			t.Errorf("unexpected body %+v", body)
		}
	})

	err := c.ResolveRequest(context.Background(), "g1", models.ResolveRequestForm{RequestID: "r1", Action: models.RequestActionApprove})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateBooking_PostsToTurf(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/turfs/t1/bookings" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		writeData(t, w, map[string]any{"booking": models.Booking{ID: "b1", TurfID: "t1"}})
	})

	b, err := c.CreateBooking(context.Background(), models.CreateBookingForm{TurfID: "t1", Date: "2025-03-01", StartTime: "10:00", EndTime: "11:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != "b1" {
		t.Fatalf("expected booking b1, got %+v", b)
	}
}

func TestListTurfBookings_DateQuery(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("date"); got != "2025-03-01" {
			t.Errorf("expected date query, got %q", got)
		}
		writeData(t, w, map[string]any{"bookings": []models.Booking{{ID: "b1"}, {ID: "b2"}}})
	})

	bookings, err := c.ListTurfBookings(context.Background(), "t1", "2025-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(bookings))
	}
}

func TestMissingData(t *testing.T) {
	c := newTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true}`)
	})

	if _, err := c.GetTurf(context.Background(), "t1"); err == nil {
		t.Fatalf("expected an error for a response without data")
	}
}
