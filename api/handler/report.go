package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/report"
	"github.com/wovenlabs/gossamer/storage"
)

// Report returns a handler for GET /api/v1/report.
//
// An optional window query parameter (Go duration, e.g. "48h") widens
// or narrows the recent-activity section.
func Report(db storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var opts report.Options
		if w := c.Query("window"); w != "" {
			window, err := time.ParseDuration(w)
			if err != nil || window <= 0 {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Success: false,
					Error: &models.ErrorDetail{
						Code:    models.ErrCodeInvalidInput,
						Message: "window must be a positive duration like 24h",
					},
				})
				return
			}
			opts.Window = window
		}

		var buf bytes.Buffer
		if err := report.Generate(c.Request.Context(), db, opts, &buf); err != nil {
			respondError(c, models.NewDecoyError(models.ErrCodeStoreFailure,
				"report generation failed", err))
			return
		}

		c.JSON(http.StatusOK, models.ReportResponse{
			Success:     true,
			Markdown:    buf.String(),
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
