// Package middleware contains the fiber middleware shared by the front-end
// server and the dev API: bearer-token viewer extraction and access checks.
package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ShyamLatake/playout-front/internal/identity"
)

// Keys for c.Locals.
const (
	localViewer = "viewer"
	localToken  = "token"
)

// Viewer reads "Authorization: Bearer <token>" when present and stores the
// viewer and the raw token on the request. A request without the header
// continues anonymously; a malformed or invalid token is refused with 401.
func Viewer(verifier *identity.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return c.Next()
		}

		token, err := identity.BearerToken(header)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}
		v, err := verifier.Viewer(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, identity.ErrMissingToken) {
				msg = "missing or invalid authorization header"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
		}

		c.Locals(localViewer, *v)
		c.Locals(localToken, token)
		return c.Next()
	}
}

// RequireViewer refuses anonymous requests with 401. Use after Viewer.
func RequireViewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals(localViewer).(identity.Viewer); !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		return c.Next()
	}
}

// ViewerFrom returns the request's viewer, or the zero Viewer when anonymous.
func ViewerFrom(c *fiber.Ctx) identity.Viewer {
	v, _ := c.Locals(localViewer).(identity.Viewer)
	return v
}

// Context returns the request context carrying the caller's token, so API
// calls made on their behalf are authenticated as them.
func Context(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if tok, ok := c.Locals(localToken).(string); ok && tok != "" {
		ctx = identity.WithToken(ctx, tok)
	}
	return ctx
}
