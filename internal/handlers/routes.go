package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ShyamLatake/playout-front/internal/broadcast"
	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/middleware"
	"github.com/ShyamLatake/playout-front/internal/models"
	"github.com/ShyamLatake/playout-front/internal/store"
)

// Routes registers the front-end server's routes on app.
//
// Every /api route reads the viewer from the bearer token when one is sent.
// Reads are open to anonymous viewers; mutations and dashboards require a
// signed-in viewer, and listing a turf requires the owner role.
func Routes(app *fiber.App, s *store.Store, hub *broadcast.Hub, verifier *identity.Verifier) {
	app.Get("/health", Health(s))

	api := app.Group("/api", middleware.Viewer(verifier))
	auth := middleware.RequireViewer()

	api.Get("/events", Events(hub))

	// Games
	api.Get("/games", ListGames(s))
	api.Get("/games/mine", auth, MyGames(s))
	api.Get("/games/:id", GetGame(s))
	api.Post("/games", auth, CreateGame(s))
	api.Post("/games/:id/join", auth, JoinGame(s))
	api.Post("/games/:id/request", auth, RequestToJoin(s))
	api.Post("/games/:id/leave", auth, LeaveGame(s))
	api.Put("/games/:id/request", auth, ResolveRequest(s))

	// Turfs
	api.Get("/turfs", ListTurfs(s))
	api.Get("/turfs/mine", auth, MyTurfs(s))
	api.Get("/turfs/:id", GetTurf(s))
	api.Get("/turfs/:id/slots", TurfSlots(s))
	api.Get("/turfs/:id/quote", QuoteBooking(s))
	api.Post("/turfs", middleware.RequireRole(models.UserRoleOwner), CreateTurf(s))
	api.Patch("/turfs/:id", auth, UpdateTurf(s))
	api.Put("/turfs/:id/availability", auth, SetTurfAvailability(s))
	api.Delete("/turfs/:id", auth, DeleteTurf(s))

	// Bookings
	api.Post("/turfs/:id/bookings", auth, CreateBooking(s))
	api.Get("/bookings/mine", auth, MyBookings(s))
	api.Put("/bookings/:id", auth, UpdateBooking(s))
}
