package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ShyamLatake/playout-front/internal/availability"
	"github.com/ShyamLatake/playout-front/internal/clock"
	"github.com/ShyamLatake/playout-front/internal/middleware"
	"github.com/ShyamLatake/playout-front/internal/models"
	"github.com/ShyamLatake/playout-front/internal/store"
)

// ListTurfs handles GET /api/turfs.
// Optional query: ?sport=, ?q= (name or location), ?available=true|false, ?refresh=1.
func ListTurfs(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := middleware.Context(c)
		var err error
		if c.QueryBool("refresh") {
			err = s.ReloadTurfs(ctx)
		} else {
			err = s.EnsureTurfs(ctx)
		}
		if err != nil {
			return writeError(c, err)
		}

		sport := c.Query("sport")
		q := strings.ToLower(strings.TrimSpace(c.Query("q")))
		available := c.Query("available")

		turfs := make([]models.Turf, 0)
		for _, t := range s.Turfs() {
			if sport != "" && !t.HostsSport(sport) {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(t.Name), q) &&
				!strings.Contains(strings.ToLower(t.Location), q) {
				continue
			}
			if available != "" && c.QueryBool("available") != t.IsAvailable {
				continue
			}
			turfs = append(turfs, t)
		}
		return c.JSON(fiber.Map{"turfs": turfs})
	}
}

// MyTurfs handles GET /api/turfs/mine.
func MyTurfs(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.EnsureTurfs(middleware.Context(c)); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"turfs": s.TurfsOwnedBy(middleware.ViewerFrom(c).ID)})
	}
}

// GetTurf handles GET /api/turfs/:id.
func GetTurf(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.EnsureTurfs(middleware.Context(c)); err != nil {
			return writeError(c, err)
		}
		t, err := s.Turf(c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"turf": t})
	}
}

// TurfSlots handles GET /api/turfs/:id/slots?date=YYYY-MM-DD.
// ?partial=drop leaves out a trailing slot that would run past closing time.
func TurfSlots(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		date := c.Query("date")
		if !clock.ValidDate(date) {
			return writeError(c, &models.ValidationError{Fields: map[string]string{"date": "must be YYYY-MM-DD"}})
		}
		policy := availability.KeepPartial
		if c.Query("partial") == "drop" {
			policy = availability.DropPartial
		}

		slots, err := s.Slots(middleware.Context(c), c.Params("id"), date, policy)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"turfId": c.Params("id"),
			"date":   date,
			"slots":  slots,
			"free":   len(availability.Free(slots)),
		})
	}
}

// CreateTurf handles POST /api/turfs. Owners and admins only.
func CreateTurf(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.CreateTurfForm
		if err := c.BodyParser(&form); err != nil {
			return badRequest(c)
		}
		t, err := s.CreateTurf(middleware.Context(c), middleware.ViewerFrom(c), form)
		if err != nil {
			return writeError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"turf": t})
	}
}

// UpdateTurf handles PATCH /api/turfs/:id.
func UpdateTurf(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.UpdateTurfForm
		if err := c.BodyParser(&form); err != nil {
			return badRequest(c)
		}
		if err := s.UpdateTurf(middleware.Context(c), middleware.ViewerFrom(c), c.Params("id"), form); err != nil {
			return writeError(c, err)
		}
		return respondTurf(c, s, c.Params("id"))
	}
}

// SetTurfAvailability handles PUT /api/turfs/:id/availability with {"isAvailable": bool}.
func SetTurfAvailability(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			IsAvailable *bool `json:"isAvailable"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c)
		}
		if body.IsAvailable == nil {
			return writeError(c, &models.ValidationError{Fields: map[string]string{"isAvailable": "is required"}})
		}
		if err := s.SetTurfAvailability(middleware.Context(c), middleware.ViewerFrom(c), c.Params("id"), *body.IsAvailable); err != nil {
			return writeError(c, err)
		}
		return respondTurf(c, s, c.Params("id"))
	}
}

// DeleteTurf handles DELETE /api/turfs/:id.
func DeleteTurf(s *store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := s.DeleteTurf(middleware.Context(c), middleware.ViewerFrom(c), c.Params("id")); err != nil {
			return writeError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func respondTurf(c *fiber.Ctx, s *store.Store, id string) error {
	t, err := s.Turf(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"turf": t})
}
