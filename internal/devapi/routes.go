package devapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/middleware"
	"github.com/ShyamLatake/playout-front/internal/models"
)

// Env is what the dev API handlers share.
type Env struct {
	DB  *gorm.DB
	Log zerolog.Logger
	// Now is the clock used for join and response timestamps.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}

// Routes registers the remote API contract under /api.
func Routes(app *fiber.App, env *Env, verifier *identity.Verifier) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return ok(c, fiber.StatusOK, fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", middleware.Viewer(verifier))
	auth := middleware.RequireViewer()

	api.Get("/games", ListGames(env))
	api.Post("/games", auth, CreateGame(env))
	api.Post("/games/:id/join", auth, JoinGame(env))
	api.Post("/games/:id/leave", auth, LeaveGame(env))
	api.Post("/games/:id/request", auth, RequestToJoin(env))
	api.Put("/games/:id/request", auth, ResolveRequest(env))

	api.Get("/turfs", ListTurfs(env))
	api.Post("/turfs", middleware.RequireRole(models.UserRoleOwner), CreateTurf(env))
	api.Get("/turfs/:id", GetTurf(env))
	api.Put("/turfs/:id", auth, UpdateTurf(env))
	api.Delete("/turfs/:id", auth, DeleteTurf(env))
	api.Get("/turfs/:id/bookings", ListTurfBookings(env))
	api.Post("/turfs/:id/bookings", auth, CreateBooking(env))

	api.Get("/bookings", auth, ListBookings(env))
	api.Post("/bookings", auth, CreateBooking(env))
	api.Put("/bookings/:id", auth, UpdateBooking(env))
}
