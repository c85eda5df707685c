package devapi

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShyamLatake/playout-front/internal/availability"
	"github.com/ShyamLatake/playout-front/internal/middleware"
	"github.com/ShyamLatake/playout-front/internal/models"
)

// ListTurfBookings handles GET /api/turfs/:id/bookings?date=.
func ListTurfBookings(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := env.DB.WithContext(c.UserContext()).
			Where("turf_id = ?", c.Params("id")).
			Order("date ASC, start_time ASC")
		if date := c.Query("date"); date != "" {
			q = q.Where("date = ?", date)
		}
		bookings := []models.Booking{}
		if err := q.Find(&bookings).Error; err != nil {
			return respondError(c, err, "bookings")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"bookings": bookings})
	}
}

// ListBookings handles GET /api/bookings: the caller's own bookings, or with
// ?as=owner the bookings on turfs the caller owns.
func ListBookings(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := middleware.ViewerFrom(c)
		q := env.DB.WithContext(c.UserContext()).Order("date DESC, start_time ASC")
		if c.Query("as") == "owner" {
			q = q.Where("turf_id IN (?)", env.DB.Model(&models.Turf{}).Select("id").Where("owner_id = ?", v.ID))
		} else {
			q = q.Where("user_id = ?", v.ID)
		}
		bookings := []models.Booking{}
		if err := q.Find(&bookings).Error; err != nil {
			return respondError(c, err, "bookings")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"bookings": bookings})
	}
}

// CreateBooking handles POST /api/turfs/:id/bookings and POST /api/bookings.
// The turf row is locked while the day's bookings are checked, so two
// overlapping requests can't both succeed.
func CreateBooking(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.CreateBookingForm
		if err := c.BodyParser(&form); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
		if id := c.Params("id"); id != "" {
			form.TurfID = id
		}
		if err := form.Validate(); err != nil {
			return respondError(c, err, "booking")
		}
		v := middleware.ViewerFrom(c)

		var b models.Booking
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var t models.Turf
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, "id = ?", form.TurfID).Error; err != nil {
				return err
			}
			var sameDay []models.Booking
			if err := tx.Where("turf_id = ? AND date = ?", t.ID, form.Date).Find(&sameDay).Error; err != nil {
				return err
			}
			if err := availability.CheckBookable(t, form.Date, form.StartTime, form.EndTime, sameDay); err != nil {
				return err
			}
			total, err := availability.Quote(t.PricePerHour, form.StartTime, form.EndTime)
			if err != nil {
				return err
			}
			b = models.Booking{
				TurfID:        t.ID,
				TurfName:      t.Name,
				UserID:        v.ID,
				UserName:      v.Name,
				Date:          form.Date,
				StartTime:     form.StartTime,
				EndTime:       form.EndTime,
				TotalAmount:   total,
				Status:        models.BookingStatusPending,
				PaymentStatus: models.PaymentStatusPending,
			}
			return tx.Create(&b).Error
		})
		if err != nil {
			return respondError(c, err, "turf")
		}
		return ok(c, fiber.StatusCreated, fiber.Map{"booking": b})
	}
}

// UpdateBooking handles PUT /api/bookings/:id with {"status"}. The turf owner
// may set any status; the booker may only cancel their own booking.
func UpdateBooking(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.UpdateBookingForm
		if err := c.BodyParser(&form); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
		if err := form.Validate(); err != nil {
			return respondError(c, err, "booking")
		}
		v := middleware.ViewerFrom(c)

		var b models.Booking
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&b, "id = ?", c.Params("id")).Error; err != nil {
				return err
			}
			var t models.Turf
			if err := tx.First(&t, "id = ?", b.TurfID).Error; err != nil {
				return err
			}
			ownCancel := b.UserID == v.ID && form.Status == models.BookingStatusCancelled
			if !canManageTurf(v, t) && !ownCancel {
				return errForbidden
			}
			b.Status = form.Status
			return tx.Model(&b).Update("status", b.Status).Error
		})
		if err != nil {
			return respondError(c, err, "booking")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"booking": b})
	}
}
