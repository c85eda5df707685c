package membership

import (
	"errors"
	"testing"
	"time"

	"github.com/ShyamLatake/playout-front/internal/models"
)

var now = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

// game builds a game organized by "org" with the given roster.
func game(t *testing.T, max int, players ...string) models.Game {
	t.Helper()
	g := models.Game{ID: "g1", OrganizerID: "org", MaxPlayers: max, Status: models.GameStatusOpen}
	for _, id := range players {
		g.Players = append(g.Players, models.Player{UserID: id, Name: id, JoinedAt: now})
	}
	g.CurrentPlayers = len(g.Players)
	return g
}

func pending(id, user string) models.JoinRequest {
	return models.JoinRequest{ID: id, UserID: user, UserName: user, Status: models.RequestStatusPending, CreatedAt: now}
}

func TestDerive(t *testing.T) {
	withRequest := game(t, 4, "org")
	withRequest.Requests = []models.JoinRequest{pending("r1", "bob")}

	cases := []struct {
		name   string
		game   models.Game
		viewer string
		want   State
	}{
		{"anonymous", game(t, 4, "org"), "", NotAuthenticated},
		{"organizer of full game", game(t, 2, "org", "amy"), "org", Organizer},
		{"member", game(t, 4, "org", "amy"), "amy", Member},
		{"member of full game", game(t, 2, "org", "amy"), "amy", Member},
		{"pending with spots left", withRequest, "bob", RequestPending},
		{"full", game(t, 2, "org", "amy"), "bob", Full},
		{"can join", game(t, 4, "org"), "bob", CanJoin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Derive(tc.game, tc.viewer); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestDerive_ExactlyOneState(t *testing.T) {
	g := game(t, 3, "org", "amy")
	g.Requests = []models.JoinRequest{pending("r1", "bob"), {ID: "r0", UserID: "cat", Status: models.RequestStatusRejected}}

	for _, viewer := range []string{"", "org", "amy", "bob", "cat", "dan"} {
		hits := 0
		s := Derive(g, viewer)
		for st := NotAuthenticated; st <= CanJoin; st++ {
			if st == s {
				hits++
			}
		}
		if hits != 1 {
			t.Fatalf("viewer %q: expected exactly one state, got %d", viewer, hits)
		}
	}
	if Derive(g, "cat") != CanJoin {
		t.Fatalf("a rejected request shouldn't block a new one")
	}
}

func TestDerive_DuplicateRosterEntry(t *testing.T) {
	g := game(t, 4, "org", "amy", "amy")

	if got := Derive(g, "amy"); got != Member {
		t.Fatalf("expected Member, got %v", got)
	}
	if got := g.Headcount(); got != 2 {
		t.Fatalf("expected duplicate to count once, headcount %d", got)
	}
}

func TestDerive_RosterBeatsCounter(t *testing.T) {
	g := game(t, 2, "org")
	g.CurrentPlayers = 2 // drifted counter

	if got := Derive(g, "bob"); got != CanJoin {
		t.Fatalf("expected CanJoin from roster, got %v", got)
	}
	if !g.CountDrift() {
		t.Fatalf("expected drift to be reported")
	}
}

func TestDerive_CounterWhenRosterOmitted(t *testing.T) {
	g := models.Game{OrganizerID: "org", MaxPlayers: 2, CurrentPlayers: 2}
	if got := Derive(g, "bob"); got != Full {
		t.Fatalf("expected Full from counter, got %v", got)
	}
}

func TestStateString(t *testing.T) {
	if RequestPending.String() != "request_pending" {
		t.Fatalf("unexpected name %q", RequestPending.String())
	}
	b, _ := CanJoin.MarshalText()
	if string(b) != "can_join" {
		t.Fatalf("unexpected text %q", b)
	}
}

func TestCheckJoin(t *testing.T) {
	g := game(t, 2, "org")
	if err := CheckJoin(g, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckJoin(g, ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	g.Requests = []models.JoinRequest{pending("r1", "bob")}
	if err := CheckJoin(g, "bob"); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("expected ErrRequestPending, got %v", err)
	}
	g.Status = models.GameStatusCancelled
	if err := CheckJoin(g, "cat"); !errors.Is(err, ErrGameClosed) {
		t.Fatalf("expected ErrGameClosed, got %v", err)
	}
}

func TestCheckLeave(t *testing.T) {
	g := game(t, 4, "org", "amy")
	if err := CheckLeave(g, "amy"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckLeave(g, "org"); !errors.Is(err, ErrOrganizerCantLeave) {
		t.Fatalf("expected ErrOrganizerCantLeave, got %v", err)
	}
	if err := CheckLeave(g, "bob"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestCheckResolve(t *testing.T) {
	g := game(t, 4, "org")
	g.Requests = []models.JoinRequest{
		pending("r1", "bob"),
		{ID: "r2", UserID: "cat", Status: models.RequestStatusApproved},
	}

	cases := []struct {
		name    string
		actor   string
		request string
		action  models.RequestAction
		want    error
	}{
		{"organizer approves", "org", "r1", models.RequestActionApprove, nil},
		{"organizer rejects", "org", "r1", models.RequestActionReject, nil},
		{"not organizer", "amy", "r1", models.RequestActionApprove, ErrNotOrganizer},
		{"missing request", "org", "nope", models.RequestActionApprove, ErrRequestNotFound},
		{"already approved", "org", "r2", models.RequestActionApprove, ErrRequestResolved},
		{"bad action", "org", "r1", "maybe", ErrUnknownAction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := CheckResolve(g, tc.actor, tc.request, tc.action); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTransition(t *testing.T) {
	next, err := Transition(models.RequestStatusPending, models.RequestActionApprove)
	if err != nil || next != models.RequestStatusApproved {
		t.Fatalf("expected approved, got %v %v", next, err)
	}
	next, err = Transition(models.RequestStatusPending, models.RequestActionReject)
	if err != nil || next != models.RequestStatusRejected {
		t.Fatalf("expected rejected, got %v %v", next, err)
	}
	for _, from := range []models.RequestStatus{models.RequestStatusApproved, models.RequestStatusRejected} {
		if _, err := Transition(from, models.RequestActionApprove); !errors.Is(err, ErrRequestResolved) {
			t.Fatalf("from %s: expected ErrRequestResolved, got %v", from, err)
		}
	}
}

func TestApplyJoinAndLeave(t *testing.T) {
	g := game(t, 2, "org")

	if _, err := ApplyJoin(&g, "bob", "Bob", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.CurrentPlayers != 2 || g.Status != models.GameStatusFull {
		t.Fatalf("expected full game with 2 players, got %d %s", g.CurrentPlayers, g.Status)
	}
	if _, err := ApplyJoin(&g, "cat", "Cat", now); !errors.Is(err, ErrGameFull) {
		t.Fatalf("expected ErrGameFull, got %v", err)
	}

	if err := ApplyLeave(&g, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.CurrentPlayers != 1 || g.Status != models.GameStatusOpen {
		t.Fatalf("expected open game with 1 player, got %d %s", g.CurrentPlayers, g.Status)
	}
}

func TestApplyRequestAndResolve(t *testing.T) {
	g := game(t, 3, "org")

	req, err := ApplyRequest(&g, "bob", "Bob", "keen", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ApplyRequest(&g, "bob", "Bob", "again", now); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("expected second pending request to be refused, got %v", err)
	}
	g.Requests[0].ID = "r1"
	if req.Status != models.RequestStatusPending {
		t.Fatalf("expected pending request, got %s", req.Status)
	}

	resolved, player, err := ApplyResolve(&g, "org", "r1", models.RequestActionApprove, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Status != models.RequestStatusApproved || resolved.RespondedAt == nil {
		t.Fatalf("expected approved request with response time, got %+v", resolved)
	}
	if player == nil || player.UserID != "bob" {
		t.Fatalf("expected bob to be added, got %+v", player)
	}
	if g.CurrentPlayers != 2 || Derive(g, "bob") != Member {
		t.Fatalf("expected bob to be a member of a 2 player game")
	}

	if _, _, err := ApplyResolve(&g, "org", "r1", models.RequestActionApprove, now); !errors.Is(err, ErrRequestResolved) {
		t.Fatalf("expected re-approve to be refused, got %v", err)
	}
}

func TestApplyResolve_Reject(t *testing.T) {
	g := game(t, 3, "org")
	g.Requests = []models.JoinRequest{pending("r1", "bob")}

	_, player, err := ApplyResolve(&g, "org", "r1", models.RequestActionReject, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player != nil || IsPlayer(g, "bob") {
		t.Fatalf("expected rejected requester to stay off the roster")
	}
	if got := Derive(g, "bob"); got != CanJoin {
		t.Fatalf("expected bob to be able to ask again, got %v", got)
	}
}
