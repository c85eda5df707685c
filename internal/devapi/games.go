package devapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ShyamLatake/playout-front/internal/membership"
	"github.com/ShyamLatake/playout-front/internal/middleware"
	"github.com/ShyamLatake/playout-front/internal/models"
)

// withRoster preloads players and requests in the order they arrived.
func withRoster(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("joined_at ASC") }).
		Preload("Requests", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

// lockGame loads a game with its roster and holds its row lock until tx ends,
// so concurrent joins and approvals on one game run one at a time.
func lockGame(tx *gorm.DB, id string) (models.Game, error) {
	var g models.Game
	err := withRoster(tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&g, "id = ?", id).Error
	return g, err
}

// saveCounts writes the recomputed counter and status back.
func saveCounts(tx *gorm.DB, g models.Game) error {
	return tx.Model(&models.Game{}).Where("id = ?", g.ID).Updates(map[string]any{
		"current_players": g.CurrentPlayers,
		"status":          g.Status,
	}).Error
}

// ListGames handles GET /api/games?sport=&status=&date=.
func ListGames(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := withRoster(env.DB.WithContext(c.UserContext())).Order("date ASC, start_time ASC")
		if sport := c.Query("sport"); sport != "" {
			q = q.Where("sport = ?", strings.ToLower(sport))
		}
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if date := c.Query("date"); date != "" {
			q = q.Where("date = ?", date)
		}

		games := []models.Game{}
		if err := q.Find(&games).Error; err != nil {
			env.Log.Error().Err(err).Msg("list games")
			return respondError(c, err, "games")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"games": games})
	}
}

// CreateGame handles POST /api/games. The organizer is the first player.
func CreateGame(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.CreateGameForm
		if err := c.BodyParser(&form); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
		if err := form.Validate(); err != nil {
			return respondError(c, err, "game")
		}
		v := middleware.ViewerFrom(c)
		now := env.now()

		var created models.Game
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			var turf models.Turf
			if err := tx.First(&turf, "id = ?", form.TurfID).Error; err != nil {
				return err
			}
			skill := form.SkillLevel
			if skill == "" {
				skill = models.SkillLevelAny
			}
			g := models.Game{
				Title:         form.Title,
				Sport:         strings.ToLower(form.Sport),
				Description:   form.Description,
				TurfID:        turf.ID,
				TurfName:      turf.Name,
				TurfLocation:  turf.Location,
				Date:          form.Date,
				StartTime:     form.StartTime,
				EndTime:       form.EndTime,
				MaxPlayers:    form.MaxPlayers,
				SkillLevel:    skill,
				CostPerPlayer: form.CostPerPlayer,
				Status:        models.GameStatusOpen,
				OrganizerID:   v.ID,
				OrganizerName: v.Name,
				Players:       []models.Player{{UserID: v.ID, Name: v.Name, JoinedAt: now, IsConfirmed: true}},
			}
			membership.Recount(&g)
			if err := tx.Create(&g).Error; err != nil {
				return err
			}
			created = g
			return nil
		})
		if err != nil {
			return respondError(c, err, "turf")
		}
		created.Requests = []models.JoinRequest{}
		return ok(c, fiber.StatusCreated, fiber.Map{"game": created})
	}
}

// JoinGame handles POST /api/games/:id/join.
func JoinGame(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := middleware.ViewerFrom(c)
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			g, err := lockGame(tx, c.Params("id"))
			if err != nil {
				return err
			}
			p, err := membership.ApplyJoin(&g, v.ID, v.Name, env.now())
			if err != nil {
				return err
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			return saveCounts(tx, g)
		})
		if err != nil {
			return respondError(c, err, "game")
		}
		return ok(c, fiber.StatusOK, fiber.Map{})
	}
}

// LeaveGame handles POST /api/games/:id/leave.
func LeaveGame(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v := middleware.ViewerFrom(c)
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			g, err := lockGame(tx, c.Params("id"))
			if err != nil {
				return err
			}
			if err := membership.ApplyLeave(&g, v.ID); err != nil {
				return err
			}
			if err := tx.Where("game_id = ? AND user_id = ?", g.ID, v.ID).Delete(&models.Player{}).Error; err != nil {
				return err
			}
			return saveCounts(tx, g)
		})
		if err != nil {
			return respondError(c, err, "game")
		}
		return ok(c, fiber.StatusOK, fiber.Map{})
	}
}

// RequestToJoin handles POST /api/games/:id/request with {"message"?}.
func RequestToJoin(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.RequestToJoinForm
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&form); err != nil {
				return fail(c, fiber.StatusBadRequest, "invalid request body")
			}
		}
		if err := form.Validate(); err != nil {
			return respondError(c, err, "request")
		}
		v := middleware.ViewerFrom(c)

		var created models.JoinRequest
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			g, err := lockGame(tx, c.Params("id"))
			if err != nil {
				return err
			}
			r, err := membership.ApplyRequest(&g, v.ID, v.Name, form.Message, env.now())
			if err != nil {
				return err
			}
			// The partial unique index backs up the pending check.
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
			created = r
			return nil
		})
		if err != nil {
			return respondError(c, err, "join request")
		}
		return ok(c, fiber.StatusCreated, fiber.Map{"request": created})
	}
}

// ResolveRequest handles PUT /api/games/:id/request with {"requestId", "action"}.
// Only a pending request can be resolved; a second approve gets 409.
func ResolveRequest(env *Env) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form models.ResolveRequestForm
		if err := c.BodyParser(&form); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
		if err := form.Validate(); err != nil {
			return respondError(c, err, "request")
		}
		v := middleware.ViewerFrom(c)

		var resolved models.JoinRequest
		err := env.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			g, err := lockGame(tx, c.Params("id"))
			if err != nil {
				return err
			}
			r, player, err := membership.ApplyResolve(&g, v.ID, form.RequestID, form.Action, env.now())
			if err != nil {
				return err
			}
			res := tx.Model(&models.JoinRequest{}).
				Where("id = ? AND game_id = ? AND status = ?", r.ID, g.ID, models.RequestStatusPending).
				Updates(map[string]any{"status": r.Status, "responded_at": r.RespondedAt})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return membership.ErrRequestResolved
			}
			if player != nil {
				if err := tx.Create(player).Error; err != nil {
					return err
				}
			}
			resolved = r
			return saveCounts(tx, g)
		})
		if err != nil {
			return respondError(c, err, "join request")
		}
		return ok(c, fiber.StatusOK, fiber.Map{"request": resolved})
	}
}
