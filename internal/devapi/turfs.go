package devapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ShyamLatake/playout-front/internal/availability"
	"github.com/ShyamLatake/playout-front/internal/identity"
	"github.com/ShyamLatake/playout-front/internal/middleware"
	"github.com/ShyamLatake/playout-front/internal/models"
)

// canManageTurf reports whether v owns t or is an admin.
func canManageTurf(v identity.Viewer, t models.Turf) bool {
	return v.ID != "" && (t.OwnerID == v.ID || v.Role == models.UserRoleAdmin)
}

// ListTurfs handles GET /api/turfs?sport=&location=&ownerId=.
func ListTurfs(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := env.DB.WithContext(c.UserContext()).Order("name ASC")
		if sport := c.Query("sport"); sport != "" {
			q = q.Where("? = ANY(sports)", strings.ToLower(sport))
		}
		if loc := c.Query("location"); loc != "" {
			q = q.Where("location ILIKE ?", "%"+loc+"%")
		}
		if owner := c.Query("ownerId"); owner != "" {
			q = q.Where("owner_id = ?", owner)
		}

		turfs := []models.Turf{}
		if err := q.Find(&turfs).Error; err != nil {
			env.Log.Error().Err(err).Msg("list turfs")
			return respondError(c, err, "turfs")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"turfs": turfs})
	}
}

// GetTurf handles GET /api/turfs/:id.
func GetTurf(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var t models.Turf
		if err := env.DB.WithContext(c.UserContext()).First(&t, "id = ?", c.Params("id")).Error; err != nil {
			return respondError(c, err, "turf")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"turf": t})
	}
}

// CreateTurf handles POST /api/turfs. Owners and admins only.
func CreateTurf(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.CreateTurfForm
		if err := c.BodyParser(&form); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
		if err := form.Validate(); err != nil {
			return respondError(c, err, "turf")
		}
		t := form.Turf(middleware.ViewerFrom(c).ID)
		if err := env.DB.WithContext(c.UserContext()).Create(&t).Error; err != nil {
			return respondError(c, err, "turf")
		}
		return ok(c, fiber.StatusCreated, fiber.Map{"turf": t})
	}
}

// UpdateTurf handles PUT /api/turfs/:id as a partial update. Owner only.
func UpdateTurf(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.UpdateTurfForm
		if err := c.BodyParser(&form); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
		if err := form.Validate(); err != nil {
			return respondError(c, err, "turf")
		}
		v := middleware.ViewerFrom(c)

		var t models.Turf
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&t, "id = ?", c.Params("id")).Error; err != nil {
				return err
			}
			if !canManageTurf(v, t) {
				return errForbidden
			}
			form.Apply(&t)
			if len(availability.Generate(t.OperatingHours, t.SlotMinutes(), availability.KeepPartial)) == 0 {
				return &models.ValidationError{Fields: map[string]string{
					"operatingHours": "open must be before close",
				}}
			}
			return tx.Save(&t).Error
		})
		if err != nil {
			return respondError(c, err, "turf")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"turf": t})
	}
}

// DeleteTurf handles DELETE /api/turfs/:id. Owner only. A turf that still has
// games can't be deleted; its bookings go with it.
func DeleteTurf(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := middleware.ViewerFrom(c)
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var t models.Turf
			if err := tx.First(&t, "id = ?", c.Params("id")).Error; err != nil {
				return err
			}
			if !canManageTurf(v, t) {
				return errForbidden
			}
			return tx.Delete(&t).Error
		})
		if err != nil {
			return respondError(c, err, "turf")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"deleted": true})
	}
}
