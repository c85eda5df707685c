// Package membership derives a viewer's relationship to a game and holds the
// rules for changing a game's roster and join requests.
//
// A viewer looking at a game is in exactly one State. The states are checked
// in a fixed order and the first match wins, so an organizer who also appears
// in the player list is still an Organizer, and a game that is full never
// hides the fact that the viewer already has a request waiting:
//
//	NotAuthenticated  no viewer at all
//	Organizer         the viewer created the game
//	Member            the viewer is in the player list
//	RequestPending    the viewer has an unresolved join request
//	Full              headcount has reached the maximum
//	CanJoin           anything else
//
// Nothing here stores state. Derive is what the front-end renders from. The
// Check* functions are the preconditions the front-end enforces before it
// sends a mutation, and the Apply* functions are the server-side effect of
// that mutation as implemented by the dev API. Keeping both halves in one
// place means a rule such as "the organizer cannot leave" is written once.
package membership

import (
	"errors"
	"fmt"

	"github.com/ShyamLatake/playout-front/internal/models"
)

// State is the viewer's relationship to a game. Exactly one holds at a time.
type State int

// States in priority order; the first that matches wins.
const (
	NotAuthenticated State = iota
	Organizer
	Member
	RequestPending
	Full
	CanJoin
)

var stateNames = [...]string{
	NotAuthenticated: "not_authenticated",
	Organizer:        "organizer",
	Member:           "member",
	RequestPending:   "request_pending",
	Full:             "full",
	CanJoin:          "can_join",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state by name in JSON views.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	ErrNotAuthenticated   = errors.New("sign in to continue")
	ErrAlreadyMember      = errors.New("you are already playing in this game")
	ErrOrganizer          = errors.New("organizers are already part of their game")
	ErrRequestPending     = errors.New("you already have a pending request for this game")
	ErrGameFull           = errors.New("game is full")
	ErrNotMember          = errors.New("you are not playing in this game")
	ErrOrganizerCantLeave = errors.New("organizers cannot leave their own game")
	ErrNotOrganizer       = errors.New("only the organizer can manage join requests")
	ErrRequestNotFound    = errors.New("join request not found")
	ErrRequestResolved    = errors.New("join request has already been resolved")
	ErrUnknownAction      = errors.New("action must be approve or reject")
	ErrGameClosed         = errors.New("game is no longer open")
)

// Derive computes viewerID's state for g. An empty viewerID is anonymous.
func Derive(g models.Game, viewerID string) State {
	switch {
	case viewerID == "":
		return NotAuthenticated
	case g.OrganizerID == viewerID:
		return Organizer
	case IsPlayer(g, viewerID):
		return Member
	case PendingRequest(g, viewerID) != nil:
		return RequestPending
	case IsFull(g):
		return Full
	default:
		return CanJoin
	}
}

// IsPlayer reports whether userID is on the roster. Duplicate roster entries
// don't matter; the answer is the same.
func IsPlayer(g models.Game, userID string) bool {
	for _, p := range g.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the game has no spots left.
func IsFull(g models.Game) bool {
	return g.Headcount() >= g.MaxPlayers
}

// PendingRequest returns userID's pending request, or nil.
func PendingRequest(g models.Game, userID string) *models.JoinRequest {
	for i := range g.Requests {
		r := &g.Requests[i]
		if r.UserID == userID && r.Status == models.RequestStatusPending {
			return r
		}
	}
	return nil
}

// PendingRequests returns every pending request in arrival order.
func PendingRequests(g models.Game) []models.JoinRequest {
	out := make([]models.JoinRequest, 0, len(g.Requests))
	for _, r := range g.Requests {
		if r.Status == models.RequestStatusPending {
			out = append(out, r)
		}
	}
	return out
}

// FindRequest returns the request with id, or nil.
func FindRequest(g models.Game, id string) *models.JoinRequest {
	for i := range g.Requests {
		if g.Requests[i].ID == id {
			return &g.Requests[i]
		}
	}
	return nil
}

// errForState explains why an action that needs CanJoin isn't allowed.
func errForState(s State) error {
	switch s {
	case NotAuthenticated:
		return ErrNotAuthenticated
	case Organizer:
		return ErrOrganizer
	case Member:
		return ErrAlreadyMember
	case RequestPending:
		return ErrRequestPending
	case Full:
		return ErrGameFull
	default:
		return nil
	}
}

// CheckJoin is the precondition for both quick join and request to join.
func CheckJoin(g models.Game, viewerID string) error {
	if g.Status == models.GameStatusCancelled || g.Status == models.GameStatusCompleted {
		return ErrGameClosed
	}
	return errForState(Derive(g, viewerID))
}

// CheckLeave requires a member who isn't the organizer.
func CheckLeave(g models.Game, viewerID string) error {
	switch Derive(g, viewerID) {
	case NotAuthenticated:
		return ErrNotAuthenticated
	case Organizer:
		return ErrOrganizerCantLeave
	case Member:
		return nil
	default:
		return ErrNotMember
	}
}

// CheckResolve requires the organizer acting on a request that is still pending.
func CheckResolve(g models.Game, actorID, requestID string, action models.RequestAction) error {
	if actorID == "" {
		return ErrNotAuthenticated
	}
	if actorID != g.OrganizerID {
		return ErrNotOrganizer
	}
	req := FindRequest(g, requestID)
	if req == nil {
		return ErrRequestNotFound
	}
	if _, err := Transition(req.Status, action); err != nil {
		return err
	}
	if action == models.RequestActionApprove && IsFull(g) {
		return ErrGameFull
	}
	return nil
}
