package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ShyamLatake/playout-front/internal/availability"
	"github.com/ShyamLatake/playout-front/internal/middleware"
	"github.com/ShyamLatake/playout-front/internal/models"
	"github.com/ShyamLatake/playout-front/internal/store"
)

// CreateBooking handles POST /api/turfs/:id/bookings.
// The slot range is checked against the day's current bookings before it is sent.
func CreateBooking(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.CreateBookingForm
		if err := c.BodyParser(&form); err != nil {
			return badRequest(c)
		}
		form.TurfID = c.Params("id")

		b, err := s.Book(middleware.Context(c), middleware.ViewerFrom(c), form)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": b})
	}
}

// QuoteBooking handles GET /api/turfs/:id/quote?start=HH:MM&end=HH:MM.
func QuoteBooking(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.EnsureTurfs(middleware.Context(c)); err != nil {
			return writeError(c, err)
		}
		t, err := s.Turf(c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		total, err := availability.Quote(t.PricePerHour, c.Query("start"), c.Query("end"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"turfId": t.ID, "totalAmount": total})
	}
}

// MyBookings handles GET /api/bookings/mine.
func MyBookings(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bookings, err := s.MyBookings(middleware.Context(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"bookings": bookings})
	}
}

// UpdateBooking handles PUT /api/bookings/:id with {"status": ...}.
func UpdateBooking(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.UpdateBookingForm
		if err := c.BodyParser(&form); err != nil {
			return badRequest(c)
		}
		b, err := s.UpdateBooking(middleware.Context(c), middleware.ViewerFrom(c), c.Params("id"), form)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"booking": b})
	}
}
