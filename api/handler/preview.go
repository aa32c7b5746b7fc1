package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wovenlabs/gossamer/forge"
	"github.com/wovenlabs/gossamer/models"
)

// Preview returns a handler for POST /api/v1/preview.
//
// It weaves a variant exactly as a bot holding that assignment would
// receive it, so operators can inspect what a given scraper is being
// fed without touching the decoy surface.
func Preview(f *forge.Forge) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		page, err := f.Weave(req.Variant, req.Seed, req.Format)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.PreviewResponse{
			Success:     true,
			Variant:     page.Variant,
			Seed:        page.Seed,
			Format:      page.Format,
			Content:     page.Content,
			ContentHash: fmt.Sprintf("%016x", page.Hash),
			Persona:     page.Persona,
		})
	}
}

// respondError maps a DecoyError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error) {
	decoyErr, ok := err.(*models.DecoyError)
	if !ok {
		decoyErr = models.NewDecoyError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(decoyErr), models.ErrorResponse{
		Success: false,
		Error:   decoyErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.DecoyError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeCorpusUnavailable:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeStoreFailure, models.ErrCodeWeaveFailure:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
