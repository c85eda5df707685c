package store

import (
	"context"
	"fmt"

	"github.com/ShyamLatake/playout-front/internal/apiclient"
	"github.com/ShyamLatake/playout-front/internal/broadcast"
	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/membership"
	"github.com/ShyamLatake/playout-front/internal/models"
)

// ReloadGames replaces the games collection with the remote API's. A reload
// that finishes after a newer one has committed is discarded.
func (s *Store) ReloadGames(ctx context.Context) error {
	gen := s.games.begin()
	games, err := s.api.ListGames(ctx, apiclient.GameFilters{})
	if err != nil {
		return fmt.Errorf("load games: %w", err)
	}
	for _, g := range games {
		if g.CountDrift() {
			s.log.Warn().
				Str("game_id", g.ID).
				Int("current_players", g.CurrentPlayers).
				Int("roster", g.Headcount()).
				Msg("player count drift; using roster")
		}
	}
	installed, changed := s.games.commit(gen, games, s.now())
	if !installed {
		s.log.Debug().Uint64("generation", gen).Msg("discarding stale games reload")
		return nil
	}
	// Subscribers re-fetch on every event, so only a real change is announced.
	if changed {
		s.notify.Notify(broadcast.TopicGames, gen)
	}
	return nil
}

// EnsureGames reloads the games collection if it was never loaded, was marked
// stale, or is older than the store's max age.
func (s *Store) EnsureGames(ctx context.Context) error {
	if s.games.fresh(s.now(), s.maxAge) {
		return nil
	}
	return s.ReloadGames(ctx)
}

// Games returns the current snapshot. Callers must not modify the games.
func (s *Store) Games() []models.Game {
	games, _ := s.games.snapshot()
	return games
}

// GamesGeneration is the generation of the current games snapshot.
func (s *Store) GamesGeneration() uint64 {
	return s.games.generation()
}

// Game looks id up in the snapshot.
func (s *Store) Game(id string) (models.Game, error) {
	for _, g := range s.Games() {
		if g.ID == id {
			return g, nil
		}
	}
	return models.Game{}, ErrGameNotFound
}

// gameFor reloads the games collection and returns id. Preconditions are
// checked against this copy, not whatever the snapshot held before.
func (s *Store) gameFor(ctx context.Context, id string) (models.Game, error) {
	if err := s.ReloadGames(ctx); err != nil {
		return models.Game{}, err
	}
	return s.Game(id)
}

// CreateGame validates the form and creates a game organized by v.
func (s *Store) CreateGame(ctx context.Context, v identity.Viewer, form models.CreateGameForm) (*models.Game, error) {
	if v.ID == "" {
		return nil, membership.ErrNotAuthenticated
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	var created *models.Game
	err := s.mutate(ctx, CreateGameKey(v.ID), nil, func() error {
		g, err := s.api.CreateGame(ctx, form)
		created = g
		return err
	}, s.ReloadGames, s.games.invalidate)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Join adds v to the game straight away (quick join).
func (s *Store) Join(ctx context.Context, v identity.Viewer, gameID string) error {
	if v.ID == "" {
		return membership.ErrNotAuthenticated
	}
	return s.mutate(ctx, JoinKey(gameID, v.ID), func() error {
		g, err := s.gameFor(ctx, gameID)
		if err != nil {
			return err
		}
		return membership.CheckJoin(g, v.ID)
	}, func() error {
		return s.api.JoinGame(ctx, gameID)
	}, s.ReloadGames, s.games.invalidate)
}

// RequestToJoin files a pending join request for v.
func (s *Store) RequestToJoin(ctx context.Context, v identity.Viewer, gameID string, form models.RequestToJoinForm) error {
	if v.ID == "" {
		return membership.ErrNotAuthenticated
	}
	if err := form.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, RequestKey(gameID, v.ID), func() error {
		g, err := s.gameFor(ctx, gameID)
		if err != nil {
			return err
		}
		return membership.CheckJoin(g, v.ID)
	}, func() error {
		return s.api.RequestToJoin(ctx, gameID, form)
	}, s.ReloadGames, s.games.invalidate)
}

// Leave removes v from the game. The organizer can't leave.
func (s *Store) Leave(ctx context.Context, v identity.Viewer, gameID string) error {
	if v.ID == "" {
		return membership.ErrNotAuthenticated
	}
	return s.mutate(ctx, LeaveKey(gameID, v.ID), func() error {
		g, err := s.gameFor(ctx, gameID)
		if err != nil {
			return err
		}
		return membership.CheckLeave(g, v.ID)
	}, func() error {
		return s.api.LeaveGame(ctx, gameID)
	}, s.ReloadGames, s.games.invalidate)
}

// Resolve approves or rejects a pending request on v's game.
func (s *Store) Resolve(ctx context.Context, v identity.Viewer, gameID string, form models.ResolveRequestForm) error {
	if v.ID == "" {
		return membership.ErrNotAuthenticated
	}
	if err := form.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, ResolveKey(gameID, form.RequestID), func() error {
		g, err := s.gameFor(ctx, gameID)
		if err != nil {
			return err
		}
		return membership.CheckResolve(g, v.ID, form.RequestID, form.Action)
	}, func() error {
		return s.api.ResolveRequest(ctx, gameID, form)
	}, s.ReloadGames, s.games.invalidate)
}

// Dashboard groups the games v is involved in.
type Dashboard struct {
	Organized []models.Game `json:"organized"`
	Joined    []models.Game `json:"joined"`
	Pending   []models.Game `json:"pending"`
}

// DashboardFor sorts the snapshot into v's organized, joined and pending games.
func (s *Store) DashboardFor(v identity.Viewer) Dashboard {
	d := Dashboard{Organized: []models.Game{}, Joined: []models.Game{}, Pending: []models.Game{}}
	for _, g := range s.Games() {
		switch membership.Derive(g, v.ID) {
		case membership.Organizer:
			d.Organized = append(d.Organized, g)
		case membership.Member:
			d.Joined = append(d.Joined, g)
		case membership.RequestPending:
			d.Pending = append(d.Pending, g)
		}
	}
	return d
}
