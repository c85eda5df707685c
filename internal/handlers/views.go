package handlers

import (
	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/membership"
	"github.com/ShyamLatake/playout-front/internal/models"
	"github.com/ShyamLatake/playout-front/internal/store"
)

// GameView is a game as one viewer sees it.
type GameView struct {
	models.Game
	ViewerState membership.State `json:"viewerState"`
	Headcount   int              `json:"headcount"`
	SpotsLeft   int              `json:"spotsLeft"`
	// Busy is set while one of the viewer's own actions on this game is in
	// flight; the page disables its join/leave controls.
	Busy bool `json:"busy"`
	// PendingRequests is only filled in for the organizer.
	PendingRequests []RequestView `json:"pendingRequests,omitempty"`
}

// RequestView is a pending join request on the organizer's game.
type RequestView struct {
	models.JoinRequest
	Busy bool `json:"busy"` // approve/reject in flight
}

func gameView(s *store.Store, g models.Game, v identity.Viewer) GameView {
	view := GameView{
		Game:        g,
		ViewerState: membership.Derive(g, v.ID),
		Headcount:   g.Headcount(),
		SpotsLeft:   g.RequiredPlayers(),
	}
	if v.ID != "" {
		view.Busy = s.InFlight(store.JoinKey(g.ID, v.ID)) ||
			s.InFlight(store.RequestKey(g.ID, v.ID)) ||
			s.InFlight(store.LeaveKey(g.ID, v.ID))
	}
	if view.ViewerState == membership.Organizer {
		for _, r := range membership.PendingRequests(g) {
			view.PendingRequests = append(view.PendingRequests, RequestView{
				JoinRequest: r,
				Busy:        s.InFlight(store.ResolveKey(g.ID, r.ID)),
			})
		}
	}
	return view
}

func gameViews(s *store.Store, games []models.Game, v identity.Viewer) []GameView {
	out := make([]GameView, 0, len(games))
	for _, g := range games {
		out = append(out, gameView(s, g, v))
	}
	return out
}
