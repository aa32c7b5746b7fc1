package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wovenlabs/gossamer/api/handler"
	"github.com/wovenlabs/gossamer/api/middleware"
	"github.com/wovenlabs/gossamer/assign"
	"github.com/wovenlabs/gossamer/cache"
	"github.com/wovenlabs/gossamer/config"
	"github.com/wovenlabs/gossamer/detect"
	"github.com/wovenlabs/gossamer/forge"
	"github.com/wovenlabs/gossamer/robots"
	"github.com/wovenlabs/gossamer/storage"
	"github.com/wovenlabs/gossamer/visitlog"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// The engine carries two very different surfaces:
//
//	Decoy:  GET /, /robots.txt and every unmatched path. Open to the
//	        world, serves humans the home page and bots their variant.
//	Ops:    /api/v1, behind Auth (if enabled) and RateLimit.
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(det *detect.Detector, f *forge.Forge, as *assign.Assigner, cc *cache.Cache, vl *visitlog.Logger, db storage.Store, cfg *config.Config, opts handler.DecoyOptions, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	// Decoy surface: never authenticated, never rate limited. A bot
	// that gets blocked learns it is being handled.
	decoy := handler.Decoy(det, f, as, cc, vl, opts)
	r.GET("/", decoy)
	r.GET("/robots.txt", handler.Robots(robots.Generate(det.TrapPaths())))
	r.NoRoute(decoy)

	v1 := r.Group("/api/v1")

	// Health stays outside the protected group.
	v1.GET("/health", handler.Health(f, db, startTime))

	// Protected group: auth, then rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	if cfg.RateLimit.Enabled {
		protected.Use(middleware.RateLimit(cfg.RateLimit))
	}

	// Observed bots and their visit history.
	protected.GET("/bots", handler.Bots(db))
	protected.GET("/bots/:name", handler.BotProfile(db))
	protected.GET("/visits", handler.Visits(db))

	// Weave inspection and reporting.
	protected.POST("/preview", handler.Preview(f))
	protected.GET("/report", handler.Report(db))

	return r
}
