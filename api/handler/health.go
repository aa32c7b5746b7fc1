package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wovenlabs/gossamer/forge"
	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/storage"
)

// Health returns a handler for GET /api/v1/health.
//
// Degrades status when the corpus holds no sections or the store does
// not answer a ping; either way bots are no longer being fed properly.
func Health(f *forge.Forge, db storage.Store, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		storeOK := db.Ping(ctx) == nil

		status := "healthy"
		if f.Sections() == 0 || !storeOK {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			Sections:     f.Sections(),
			Variants:     f.TotalVariants(),
			PersonaTypes: len(f.Catalog()),
			Store:        db.Name(),
			StoreOK:      storeOK,
			Version:      "0.1.0",
		})
	}
}
