package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ShyamLatake/playout-front/internal/middleware"
	"github.com/ShyamLatake/playout-front/internal/models"
	"github.com/ShyamLatake/playout-front/internal/store"
)

// ListGames handles GET /api/games.
// Optional query: ?sport=, ?status=, ?date=YYYY-MM-DD, ?refresh=1 to reload first.
func ListGames(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := middleware.Context(c)
		var err error
		if c.QueryBool("refresh") {
			err = s.ReloadGames(ctx)
		} else {
			err = s.EnsureGames(ctx)
		}
		if err != nil {
			return writeError(c, err)
		}

		sport := c.Query("sport")
		status := models.GameStatus(c.Query("status"))
		date := c.Query("date")

		games := make([]models.Game, 0)
		for _, g := range s.Games() {
			if sport != "" && !strings.EqualFold(g.Sport, sport) {
				continue
			}
			if status != "" && g.Status != status {
				continue
			}
			if date != "" && g.Date != date {
				continue
			}
			games = append(games, g)
		}
		return c.JSON(fiber.Map{"games": gameViews(s, games, middleware.ViewerFrom(c))})
	}
}

// MyGames handles GET /api/games/mine: the viewer's organized, joined and
// pending games.
func MyGames(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.EnsureGames(middleware.Context(c)); err != nil {
			return writeError(c, err)
		}
		v := middleware.ViewerFrom(c)
		d := s.DashboardFor(v)
		return c.JSON(fiber.Map{
			"organized": gameViews(s, d.Organized, v),
			"joined":    gameViews(s, d.Joined, v),
			"pending":   gameViews(s, d.Pending, v),
		})
	}
}

// GetGame handles GET /api/games/:id.
func GetGame(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.EnsureGames(middleware.Context(c)); err != nil {
			return writeError(c, err)
		}
		g, err := s.Game(c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"game": gameView(s, g, middleware.ViewerFrom(c))})
	}
}

// CreateGame handles POST /api/games.
func CreateGame(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.CreateGameForm
		if err := c.BodyParser(&form); err != nil {
			return badRequest(c)
		}
		v := middleware.ViewerFrom(c)
		created, err := s.CreateGame(middleware.Context(c), v, form)
		if err != nil {
			return writeError(c, err)
		}
		// The reloaded snapshot is authoritative; fall back to the API's echo
		// if the new game isn't in it yet.
		g, err := s.Game(created.ID)
		if err != nil {
			g = *created
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"game": gameView(s, g, v)})
	}
}

// JoinGame handles POST /api/games/:id/join (quick join).
func JoinGame(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := middleware.ViewerFrom(c)
		if err := s.Join(middleware.Context(c), v, c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return respondGame(c, s, c.Params("id"))
	}
}

// RequestToJoin handles POST /api/games/:id/request.
func RequestToJoin(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.RequestToJoinForm
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&form); err != nil {
				return badRequest(c)
			}
		}
		v := middleware.ViewerFrom(c)
		if err := s.RequestToJoin(middleware.Context(c), v, c.Params("id"), form); err != nil {
			return writeError(c, err)
		}
		return respondGame(c, s, c.Params("id"))
	}
}

// LeaveGame handles POST /api/games/:id/leave.
func LeaveGame(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := middleware.ViewerFrom(c)
		if err := s.Leave(middleware.Context(c), v, c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return respondGame(c, s, c.Params("id"))
	}
}

// ResolveRequest handles PUT /api/games/:id/request. Organizer only.
func ResolveRequest(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.ResolveRequestForm
		if err := c.BodyParser(&form); err != nil {
			return badRequest(c)
		}
		v := middleware.ViewerFrom(c)
		if err := s.Resolve(middleware.Context(c), v, c.Params("id"), form); err != nil {
			return writeError(c, err)
		}
		return respondGame(c, s, c.Params("id"))
	}
}

// respondGame renders id from the freshly reloaded snapshot.
func respondGame(c *fiber.Ctx, s *store.Store, id string) error {
	g, err := s.Game(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"game": gameView(s, g, middleware.ViewerFrom(c))})
}
