// Package handlers contains the front-end server's HTTP handlers.
//
// Each exported function is a handler factory: it takes the dependencies the
// route needs (usually the shared *store.Store) and returns a fiber.Handler.
// Views are derived per request from the store's snapshot and the viewer;
// mutations go through the store, which talks to the remote API and reloads.
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ShyamLatake/playout-front/internal/store"
)

// Health handles GET /health. It never calls the remote API; the generations
// show whether the collections have loaded.
func Health(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":          "ok",
			"gamesGeneration": s.GamesGeneration(),
			"turfsGeneration": s.TurfsGeneration(),
		})
	}
}
