package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/storage"
)

// Visits returns a handler for GET /api/v1/visits.
//
// Query parameters: bot, since (RFC 3339), limit.
func Visits(db storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.VisitsRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		filter := models.VisitFilter{Bot: req.Bot, Limit: req.Limit}
		if req.Since != "" {
			since, err := time.Parse(time.RFC3339, req.Since)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Success: false,
					Error: &models.ErrorDetail{
						Code:    models.ErrCodeInvalidInput,
						Message: "since must be an RFC 3339 timestamp",
					},
				})
				return
			}
			filter.Since = since
		}

		visits, err := db.QueryVisits(c.Request.Context(), filter)
		if err != nil {
			respondError(c, models.NewDecoyError(models.ErrCodeStoreFailure,
				"visit query failed", err))
			return
		}
		if visits == nil {
			visits = []models.Visit{}
		}

		c.JSON(http.StatusOK, models.VisitsResponse{
			Success: true,
			Count:   len(visits),
			Visits:  visits,
		})
	}
}
