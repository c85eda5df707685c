// Package devapi is a local implementation of the marketplace's remote REST
// API, backed by PostgreSQL through GORM. It exists so the front-end server can
// run end to end in development; it follows the same response envelope and
// server-side rules the production API does.
package devapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/ShyamLatake/playout-front/internal/availability"
	"github.com/ShyamLatake/playout-front/internal/clock"
	"github.com/ShyamLatake/playout-front/internal/membership"
	"github.com/ShyamLatake/playout-front/internal/models"
)

var (
	errNotFound  = errors.New("not found")
	errForbidden = errors.New("you are not allowed to do that")
)

// ok writes {"success": true, "data": data}.
func ok(c *fiber.Ctx, status int, data fiber.Map) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

// fail writes {"success": false, "message": msg}.
func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": msg})
}

// respondError maps domain and database errors onto the envelope.
func respondError(c *fiber.Ctx, err error, what string) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": verr.Error(),
			"errors":  verr.Fields,
		})
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, errNotFound),
		errors.Is(err, membership.ErrRequestNotFound):
		return fail(c, fiber.StatusNotFound, what+" not found")
	case errors.Is(err, membership.ErrNotAuthenticated):
		return fail(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, membership.ErrNotOrganizer), errors.Is(err, errForbidden):
		return fail(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, membership.ErrUnknownAction),
		errors.Is(err, availability.ErrInvalidRange),
		errors.Is(err, availability.ErrOutsideHours),
		errors.Is(err, availability.ErrMisalignedEnd),
		errors.Is(err, clock.ErrInvalid):
		return fail(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, membership.ErrAlreadyMember),
		errors.Is(err, membership.ErrOrganizer),
		errors.Is(err, membership.ErrRequestPending),
		errors.Is(err, membership.ErrGameFull),
		errors.Is(err, membership.ErrGameClosed),
		errors.Is(err, membership.ErrNotMember),
		errors.Is(err, membership.ErrOrganizerCantLeave),
		errors.Is(err, membership.ErrRequestResolved),
		errors.Is(err, availability.ErrSlotTaken),
		errors.Is(err, availability.ErrNotBookable):
		return fail(c, fiber.StatusConflict, err.Error())
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fail(c, fiber.StatusConflict, what+" already exists")
		case "23503": // foreign_key_violation
			return fail(c, fiber.StatusConflict, what+" is still referenced")
		case "23514": // check_violation
			return fail(c, fiber.StatusUnprocessableEntity, what+" is invalid")
		}
	}
	return fail(c, fiber.StatusInternalServerError, "failed to process "+what)
}
