package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/storage"
)

// recentVisitsPerBot caps the visit tail on a bot profile.
const recentVisitsPerBot = 20

// Bots returns a handler for GET /api/v1/bots, listing every known bot
// with its assignment and visit summary, most recently seen first.
func Bots(db storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		bots, err := db.ListBots(c.Request.Context())
		if err != nil {
			respondError(c, models.NewDecoyError(models.ErrCodeStoreFailure,
				"bot listing failed", err))
			return
		}
		if bots == nil {
			bots = []models.BotSummary{}
		}

		c.JSON(http.StatusOK, models.BotsResponse{
			Success: true,
			Count:   len(bots),
			Bots:    bots,
		})
	}
}

// BotProfile returns a handler for GET /api/v1/bots/:name.
//
// The profile is the bot's assignment plus its most recent visits.
func BotProfile(db storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		a, err := db.GetAssignment(c.Request.Context(), name)
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "unknown bot " + name,
				},
			})
			return
		}
		if err != nil {
			respondError(c, models.NewDecoyError(models.ErrCodeStoreFailure,
				"assignment lookup failed", err))
			return
		}

		visits, err := db.QueryVisits(c.Request.Context(), models.VisitFilter{
			Bot:   name,
			Limit: recentVisitsPerBot,
		})
		if err != nil {
			respondError(c, models.NewDecoyError(models.ErrCodeStoreFailure,
				"visit query failed", err))
			return
		}

		profile := models.BotSummary{
			BotName:   a.BotName,
			Variant:   a.Variant,
			Seed:      a.Seed,
			FirstSeen: a.CreatedAt,
			LastSeen:  a.CreatedAt,
			Visits:    int64(len(visits)),
		}
		if len(visits) > 0 {
			profile.LastSeen = visits[0].Time
			profile.FirstSeen = visits[len(visits)-1].Time
		}
		if visits == nil {
			visits = []models.Visit{}
		}

		c.JSON(http.StatusOK, models.BotProfileResponse{
			Success: true,
			Bot:     profile,
			Visits:  visits,
		})
	}
}
