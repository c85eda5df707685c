package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/ShyamLatake/playout-front/internal/apiclient"
	"github.com/ShyamLatake/playout-front/internal/broadcast"
	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/models"
	"github.com/ShyamLatake/playout-front/internal/store"
)

const secret = "handlers-secret"

// upstream is a fake remote API. It serves a fixed turf and a mutable game.
type upstream struct {
	mu        sync.Mutex
	game      models.Game
	turf      models.Turf
	bookings  []models.Booking
	listCalls    int
	joinCalls    int
	leaveCalls   int
	requestCalls int
	lastAuth     string
}

func newUpstream() *upstream {
	return &upstream{
		game: models.Game{
			ID: "g1", Title: "Sunday five-a-side", Sport: "football", Date: "2025-03-02",
			OrganizerID: "org", MaxPlayers: 2, CurrentPlayers: 1, Status: models.GameStatusOpen,
			Players: []models.Player{{UserID: "org", Name: "Org"}},
		},
		turf: models.Turf{
			ID: "t1", Name: "Green Park", Location: "Pune", OwnerID: "owner", PricePerHour: 1000,
			Sports: []string{"football"}, OperatingHours: models.OperatingHours{Open: "06:00", Close: "22:00"},
			SlotDuration: 60, IsAvailable: true,
		},
		bookings: []models.Booking{{ID: "b1", TurfID: "t1", Date: "2025-03-02", StartTime: "18:00", EndTime: "19:00", Status: models.BookingStatusConfirmed}},
	}
}

func (u *upstream) data(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func (u *upstream) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/games", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.listCalls++
		u.data(w, http.StatusOK, map[string]any{"games": []models.Game{u.game}})
	})
	mux.HandleFunc("POST /api/games/{id}/join", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.joinCalls++
		u.lastAuth = r.Header.Get("Authorization")
		tok, _ := identity.BearerToken(u.lastAuth)
		v, err := identity.NewVerifier(secret).Viewer(tok)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		u.game.Players = append(u.game.Players, models.Player{UserID: v.ID, Name: v.Name})
		u.game.CurrentPlayers = len(u.game.Players)
		u.game.Status = models.GameStatusFull
		u.data(w, http.StatusOK, map[string]any{})
	})
	mux.HandleFunc("POST /api/games/{id}/leave", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.leaveCalls++
		v, err := u.viewer(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		kept := u.game.Players[:0]
		for _, p := range u.game.Players {
			if p.UserID != v.ID {
				kept = append(kept, p)
			}
		}
		u.game.Players = kept
		u.game.CurrentPlayers = len(kept)
		u.game.Status = models.GameStatusOpen
		u.data(w, http.StatusOK, map[string]any{})
	})
	mux.HandleFunc("POST /api/games/{id}/request", func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		u.requestCalls++
		v, err := u.viewer(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var form models.RequestToJoinForm
		_ = json.NewDecoder(r.Body).Decode(&form)
		req := models.JoinRequest{ID: "r1", UserID: v.ID, UserName: v.Name, Message: form.Message, Status: models.RequestStatusPending}
		u.game.Requests = append(u.game.Requests, req)
		u.data(w, http.StatusCreated, map[string]any{"request": req})
	})
	mux.HandleFunc("GET /api/turfs", func(w http.ResponseWriter, r *http.Request) {
		u.data(w, http.StatusOK, map[string]any{"turfs": []models.Turf{u.turf}})
	})
	mux.HandleFunc("GET /api/turfs/{id}/bookings", func(w http.ResponseWriter, r *http.Request) {
		u.data(w, http.StatusOK, map[string]any{"bookings": u.bookings})
	})
	mux.HandleFunc("POST /api/turfs/{id}/bookings", func(w http.ResponseWriter, r *http.Request) {
		u.data(w, http.StatusCreated, map[string]any{"booking": models.Booking{ID: "b2", TurfID: r.PathValue("id")}})
	})
	return mux
}

// viewer reads the caller from the bearer token the way the real API would.
func (u *upstream) viewer(r *http.Request) (*identity.Viewer, error) {
	u.lastAuth = r.Header.Get("Authorization")
	tok, err := identity.BearerToken(u.lastAuth)
	if err != nil {
		return nil, err
	}
	return identity.NewVerifier(secret).Viewer(tok)
}

type testServer struct {
	app *fiber.App
	up  *upstream
	hub *broadcast.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	up := newUpstream()
	srv := httptest.NewServer(up.handler())
	t.Cleanup(srv.Close)

	client := apiclient.New(srv.URL+"/api", identity.ContextToken{}, srv.Client(), zerolog.Nop())
	hub := broadcast.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	s := store.New(client, hub, zerolog.Nop())
	app := fiber.New()
	Routes(app, s, hub, identity.NewVerifier(secret))
	return &testServer{app: app, up: up, hub: hub}
}

func token(t *testing.T, id string, role models.UserRole) string {
	t.Helper()
	tok, err := identity.Mint(secret, identity.Viewer{ID: id, Name: strings.ToUpper(id), Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return tok
}

func (ts *testServer) do(t *testing.T, method, path, tok, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := ts.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("failed to decode %q: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, "GET", "/health", "", "")
	if status != fiber.StatusOK || body["status"] != "ok" {
		t.Fatalf("expected 200 ok, got %d %v", status, body)
	}
}

func TestListGames_Anonymous(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, "GET", "/api/games", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	games := body["games"].([]any)
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}
	g := games[0].(map[string]any)
	if g["viewerState"] != "not_authenticated" || g["spotsLeft"].(float64) != 1 {
		t.Fatalf("unexpected view %v", g)
	}
}

func TestListGames_Filters(t *testing.T) {
	ts := newTestServer(t)
	_, body := ts.do(t, "GET", "/api/games?sport=cricket", "", "")
	if n := len(body["games"].([]any)); n != 0 {
		t.Fatalf("expected sport filter to drop the game, got %d", n)
	}
}

func TestGetGame_NotFound(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, "GET", "/api/games/nope", "", "")
	if status != fiber.StatusNotFound || body["notFound"] != true {
		t.Fatalf("expected not-found view, got %d %v", status, body)
	}
}

func TestJoinGame_RequiresViewer(t *testing.T) {
	ts := newTestServer(t)
	if status, _ := ts.do(t, "POST", "/api/games/g1/join", "", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", status)
	}
}

func TestJoinGame_ReloadsAndForwardsToken(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "bob", models.UserRolePlayer)

	status, body := ts.do(t, "POST", "/api/games/g1/join", tok, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	g := body["game"].(map[string]any)
	if g["viewerState"] != "member" || g["headcount"].(float64) != 2 {
		t.Fatalf("expected bob to be a member of a 2 player game, got %v", g)
	}
	if ts.up.lastAuth != "Bearer "+tok {
		t.Fatalf("expected viewer token upstream, got %q", ts.up.lastAuth)
	}
	if ts.up.listCalls != 2 {
		t.Fatalf("expected games to be loaded before and after the join, got %d", ts.up.listCalls)
	}

	// The game is now full for everyone else, and the join is refused before
	// it reaches the API.
	status, _ = ts.do(t, "POST", "/api/games/g1/join", token(t, "cat", models.UserRolePlayer), "")
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for a full game, got %d", status)
	}
	if ts.up.joinCalls != 1 {
		t.Fatalf("expected one upstream join, got %d", ts.up.joinCalls)
	}
}

func TestResolveRequest_NotOrganizer(t *testing.T) {
	ts := newTestServer(t)
	status, _ := ts.do(t, "PUT", "/api/games/g1/request", token(t, "bob", models.UserRolePlayer),
		`{"requestId":"r1","action":"approve"}`)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
}

func TestResolveRequest_Validation(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, "PUT", "/api/games/g1/request", token(t, "org", models.UserRolePlayer),
		`{"requestId":"","action":"maybe"}`)
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	fields := body["fields"].(map[string]any)
	if fields["requestId"] == nil || fields["action"] == nil {
		t.Fatalf("expected field errors, got %v", fields)
	}
}

func TestTurfSlots(t *testing.T) {
	ts := newTestServer(t)

	if status, _ := ts.do(t, "GET", "/api/turfs/t1/slots?date=tomorrow", "", ""); status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a bad date, got %d", status)
	}

	status, body := ts.do(t, "GET", "/api/turfs/t1/slots?date=2025-03-02", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	slots := body["slots"].([]any)
	if len(slots) != 16 || body["free"].(float64) != 15 {
		t.Fatalf("expected 16 slots with 15 free, got %d %v", len(slots), body["free"])
	}
	evening := slots[12].(map[string]any)
	if evening["time"] != "18:00" || evening["booked"] != true {
		t.Fatalf("expected 18:00 to be booked, got %v", evening)
	}
}

func TestCreateTurf_RequiresOwner(t *testing.T) {
	ts := newTestServer(t)
	status, _ := ts.do(t, "POST", "/api/turfs", token(t, "bob", models.UserRolePlayer), `{"name":"x"}`)
	if status != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", status)
	}
	status, _ = ts.do(t, "POST", "/api/turfs", token(t, "owner", models.UserRoleOwner), `{"name":"x"}`)
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected the owner to reach validation, got %d", status)
	}
}

func TestCreateBooking(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "bob", models.UserRolePlayer)

	status, _ := ts.do(t, "POST", "/api/turfs/t1/bookings", tok, `{"date":"2025-03-02","startTime":"18:00","endTime":"19:00"}`)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 for a taken slot, got %d", status)
	}
	status, body := ts.do(t, "POST", "/api/turfs/t1/bookings", tok, `{"date":"2025-03-02","startTime":"19:00","endTime":"21:00"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, body)
	}
}

func TestQuoteBooking(t *testing.T) {
	ts := newTestServer(t)
	_, body := ts.do(t, "GET", "/api/turfs/t1/quote?start=19:00&end=20:30", "", "")
	if body["totalAmount"].(float64) != 1500 {
		t.Fatalf("expected 1500, got %v", body["totalAmount"])
	}
}

func TestEvents_BadTopic(t *testing.T) {
	ts := newTestServer(t)
	if status, _ := ts.do(t, "GET", "/api/events?topic=scores", "", ""); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestEvents_HubClosed(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	app := fiber.New()
	app.Get("/events", Events(hub))
	resp, err := app.Test(httptest.NewRequest("GET", "/events", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestRequestToJoin_ShowsPending(t *testing.T) {
	ts := newTestServer(t)
	tok := token(t, "bob", models.UserRolePlayer)

	status, body := ts.do(t, "POST", "/api/games/g1/request", tok, `{"message":"I can play in goal"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	g := body["game"].(map[string]any)
	if g["viewerState"] != "request_pending" {
		t.Fatalf("expected request_pending after reload, got %v", g["viewerState"])
	}
	if ts.up.requestCalls != 1 || ts.up.lastAuth != "Bearer "+tok {
		t.Fatalf("expected one upstream request with bob's token, got %d %q", ts.up.requestCalls, ts.up.lastAuth)
	}

	// The organizer sees the request; bob can't ask twice.
	_, body = ts.do(t, "GET", "/api/games/g1", token(t, "org", models.UserRolePlayer), "")
	pending := body["game"].(map[string]any)["pendingRequests"].([]any)
	if len(pending) != 1 || pending[0].(map[string]any)["message"] != "I can play in goal" {
		t.Fatalf("expected the organizer to see bob's request, got %v", pending)
	}
	if status, _ := ts.do(t, "POST", "/api/games/g1/request", tok, ""); status != fiber.StatusConflict {
		t.Fatalf("expected 409 for a second request, got %d", status)
	}
	if ts.up.requestCalls != 1 {
		t.Fatalf("expected the second request to stop before the API, got %d", ts.up.requestCalls)
	}
}

func TestRequestToJoin_MessageTooLong(t *testing.T) {
	ts := newTestServer(t)
	body := `{"message":"` + strings.Repeat("x", models.MaxRequestMessage+1) + `"}`

	status, out := ts.do(t, "POST", "/api/games/g1/request", token(t, "bob", models.UserRolePlayer), body)
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	if out["fields"].(map[string]any)["message"] == nil {
		t.Fatalf("expected a message field error, got %v", out)
	}
	if ts.up.requestCalls != 0 {
		t.Fatalf("expected nothing sent upstream")
	}
}

func TestLeaveGame(t *testing.T) {
	ts := newTestServer(t)
	bob := token(t, "bob", models.UserRolePlayer)

	if status, _ := ts.do(t, "POST", "/api/games/g1/leave", bob, ""); status != fiber.StatusConflict {
		t.Fatalf("expected 409 for a non-member, got %d", status)
	}
	if status, _ := ts.do(t, "POST", "/api/games/g1/leave", token(t, "org", models.UserRolePlayer), ""); status != fiber.StatusConflict {
		t.Fatalf("expected 409 for the organizer, got %d", status)
	}
	if ts.up.leaveCalls != 0 {
		t.Fatalf("expected refused leaves to stay local, got %d", ts.up.leaveCalls)
	}

	if status, _ := ts.do(t, "POST", "/api/games/g1/join", bob, ""); status != fiber.StatusOK {
		t.Fatalf("join: %d", status)
	}
	status, body := ts.do(t, "POST", "/api/games/g1/leave", bob, "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	g := body["game"].(map[string]any)
	if g["viewerState"] != "can_join" || g["headcount"].(float64) != 1 {
		t.Fatalf("expected bob back to can_join in a 1 player game, got %v", g)
	}
	if ts.up.leaveCalls != 1 {
		t.Fatalf("expected one upstream leave, got %d", ts.up.leaveCalls)
	}
}

func TestEvents_RegistersOnlyWhenStreaming(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	app := fiber.New()
	app.Get("/events", Events(hub))

	// Run the handler without ever sending the response, as happens when the
	// browser disconnects before the body is written.
	var fctx fasthttp.RequestCtx
	fctx.Request.Header.SetMethod(fiber.MethodGet)
	fctx.Request.SetRequestURI("/events?topic=games")
	app.Handler()(&fctx)

	if !fctx.Response.IsBodyStream() {
		t.Fatalf("expected an event stream response, got status %d", fctx.Response.StatusCode())
	}
	if ct := string(fctx.Response.Header.ContentType()); ct != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got %q", ct)
	}
	time.Sleep(20 * time.Millisecond)
	if n := hub.Count(broadcast.TopicGames); n != 0 {
		t.Fatalf("expected no subscriber before the stream runs, got %d", n)
	}
}
