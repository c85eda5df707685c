package membership

import (
	"time"

	"github.com/ShyamLatake/playout-front/internal/models"
)

// Transition applies action to a request in status from.
// pending -> approved | rejected; both are terminal.
func Transition(from models.RequestStatus, action models.RequestAction) (models.RequestStatus, error) {
	if from != models.RequestStatusPending {
		return from, ErrRequestResolved
	}
	switch action {
	case models.RequestActionApprove:
		return models.RequestStatusApproved, nil
	case models.RequestActionReject:
		return models.RequestStatusRejected, nil
	default:
		return from, ErrUnknownAction
	}
}

// The functions below mutate a game the way the server does. The front-end
// never calls them on its own snapshot; it reloads instead.

// Recount brings CurrentPlayers and Status back in line with the roster.
// Cancelled and completed games keep their status.
func Recount(g *models.Game) {
	g.CurrentPlayers = 0
	if len(g.Players) > 0 {
		g.CurrentPlayers = g.Headcount()
	}
	switch g.Status {
	case models.GameStatusCancelled, models.GameStatusCompleted:
		return
	}
	if g.CurrentPlayers >= g.MaxPlayers {
		g.Status = models.GameStatusFull
	} else {
		g.Status = models.GameStatusOpen
	}
}

// ApplyJoin adds the viewer to the roster directly (quick join).
func ApplyJoin(g *models.Game, userID, name string, now time.Time) (models.Player, error) {
	if err := CheckJoin(*g, userID); err != nil {
		return models.Player{}, err
	}
	p := models.Player{GameID: g.ID, UserID: userID, Name: name, JoinedAt: now, IsConfirmed: true}
	g.Players = append(g.Players, p)
	Recount(g)
	return p, nil
}

// ApplyRequest files a pending join request.
func ApplyRequest(g *models.Game, userID, name, message string, now time.Time) (models.JoinRequest, error) {
	if err := CheckJoin(*g, userID); err != nil {
		return models.JoinRequest{}, err
	}
	r := models.JoinRequest{
		GameID:    g.ID,
		UserID:    userID,
		UserName:  name,
		Message:   message,
		Status:    models.RequestStatusPending,
		CreatedAt: now,
	}
	g.Requests = append(g.Requests, r)
	return r, nil
}

// ApplyLeave removes the viewer from the roster.
func ApplyLeave(g *models.Game, userID string) error {
	if err := CheckLeave(*g, userID); err != nil {
		return err
	}
	kept := g.Players[:0]
	for _, p := range g.Players {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	g.Players = kept
	Recount(g)
	return nil
}

// ApplyResolve moves a pending request to its terminal status. On approve the
// requester joins the roster. It returns the updated request and, on approve,
// the new player.
func ApplyResolve(g *models.Game, actorID, requestID string, action models.RequestAction, now time.Time) (models.JoinRequest, *models.Player, error) {
	if err := CheckResolve(*g, actorID, requestID, action); err != nil {
		return models.JoinRequest{}, nil, err
	}
	req := FindRequest(*g, requestID)
	next, _ := Transition(req.Status, action)
	req.Status = next
	req.RespondedAt = &now

	if next != models.RequestStatusApproved || IsPlayer(*g, req.UserID) {
		Recount(g)
		return *req, nil, nil
	}
	p := models.Player{GameID: g.ID, UserID: req.UserID, Name: req.UserName, JoinedAt: now, IsConfirmed: true}
	g.Players = append(g.Players, p)
	Recount(g)
	return *req, &p, nil
}
