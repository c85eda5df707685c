package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ShyamLatake/playout-front/internal/apiclient"
	"github.com/ShyamLatake/playout-front/internal/availability"
	"github.com/ShyamLatake/playout-front/internal/clock"
	"github.com/ShyamLatake/playout-front/internal/membership"
	"github.com/ShyamLatake/playout-front/internal/models"
	"github.com/ShyamLatake/playout-front/internal/store"
)

// writeError maps an error from the store to a status and a JSON body.
//
// Validation errors carry their fields. Not-found errors render the not-found
// view so the page can offer a way back. API errors keep their status when it
// is a 4xx; anything else from upstream is a 502.
func writeError(c *fiber.Ctx, err error) error {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  verr.Error(),
			"fields": verr.Fields,
		})
	}

	switch {
	case errors.Is(err, store.ErrGameNotFound):
		return notFound(c, err, "/games")
	case errors.Is(err, store.ErrTurfNotFound):
		return notFound(c, err, "/turfs")
	case errors.Is(err, membership.ErrRequestNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, membership.ErrNotAuthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, membership.ErrNotOrganizer),
		errors.Is(err, store.ErrNotTurfOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, membership.ErrUnknownAction),
		errors.Is(err, availability.ErrInvalidRange),
		errors.Is(err, availability.ErrOutsideHours),
		errors.Is(err, availability.ErrMisalignedEnd),
		errors.Is(err, clock.ErrInvalid):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, store.ErrInFlight),
		errors.Is(err, membership.ErrAlreadyMember),
		errors.Is(err, membership.ErrOrganizer),
		errors.Is(err, membership.ErrRequestPending),
		errors.Is(err, membership.ErrGameFull),
		errors.Is(err, membership.ErrGameClosed),
		errors.Is(err, membership.ErrNotMember),
		errors.Is(err, membership.ErrOrganizerCantLeave),
		errors.Is(err, membership.ErrRequestResolved),
		errors.Is(err, availability.ErrSlotTaken),
		errors.Is(err, availability.ErrNotBookable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return c.Status(apiErr.StatusCode).JSON(fiber.Map{"error": apiErr.Message})
	}
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "the playout service is unavailable, please try again"})
}

func notFound(c *fiber.Ctx, err error, back string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":    err.Error(),
		"notFound": true,
		"back":     back,
	})
}

// badRequest is for bodies that don't parse at all.
func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}
