package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wovenlabs/gossamer/api"
	"github.com/wovenlabs/gossamer/api/handler"
	"github.com/wovenlabs/gossamer/assign"
	"github.com/wovenlabs/gossamer/cache"
	"github.com/wovenlabs/gossamer/config"
	"github.com/wovenlabs/gossamer/corpus"
	"github.com/wovenlabs/gossamer/detect"
	"github.com/wovenlabs/gossamer/forge"
	"github.com/wovenlabs/gossamer/geo"
	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/persona"
	"github.com/wovenlabs/gossamer/storage"
	"github.com/wovenlabs/gossamer/tarpit"
	"github.com/wovenlabs/gossamer/tlsfp"
	"github.com/wovenlabs/gossamer/visitlog"
	"github.com/wovenlabs/gossamer/webhook"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("gossamer starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"variants", cfg.Decoy.TotalVariants(),
	)

	// ── 3. Load the corpus ──────────────────────────────────────────
	// A missing or unparsable corpus is not fatal: humans still get a
	// home page, bots get 503 and health reports degraded.
	crp, err := corpus.Load(cfg.Decoy.CorpusPath, cfg.Decoy.CorpusSelector)
	if err != nil {
		slog.Warn("corpus unavailable, serving degraded", "path", cfg.Decoy.CorpusPath, "error", err)
		crp = &corpus.Corpus{}
	} else {
		slog.Info("corpus loaded", "path", cfg.Decoy.CorpusPath, "sections", crp.Len())
	}

	// ── 4. Load the persona catalog ─────────────────────────────────
	catalog, err := persona.LoadCatalog(cfg.Persona.CatalogPath)
	if err != nil {
		slog.Error("failed to load persona catalog", "path", cfg.Persona.CatalogPath, "error", err)
		os.Exit(1)
	}
	if cfg.Decoy.Groups > len(catalog) {
		slog.Warn("variant groups exceed persona types, high variants will be rejected",
			"groups", cfg.Decoy.Groups, "personaTypes", len(catalog))
	}

	// ── 5. Open the store ───────────────────────────────────────────
	db, err := storage.Open(cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	slog.Info("store ready", "backend", db.Name())

	// ── 6. Wire the serving pipeline ────────────────────────────────
	geoResolver := geo.New(cfg.Geo.IPInfoToken, cfg.Geo.CacheTTL)
	vl := visitlog.New(db, geoResolver, cfg.Store.QueueSize)

	as := assign.New(db, cfg.Decoy.TotalVariants(), cfg.Assign.CacheTTL)
	as.FirstSeen = func(a *models.Assignment) {
		slog.Info("new bot registered", "bot", a.BotName, "variant", a.Variant, "seed", a.Seed)
		if cfg.Webhook.URL != "" {
			webhook.DeliverAsync(cfg.Webhook.URL, cfg.Webhook.Secret, &webhook.Event{
				Type:      webhook.EventFirstSeen,
				BotName:   a.BotName,
				Timestamp: time.Now().Unix(),
				Data:      map[string]any{"variant": a.Variant, "seed": a.Seed},
			})
		}
	}

	det := detect.New(cfg.Decoy.TrapPaths)
	fg := forge.New(crp, catalog, cfg.Decoy.Groups, cfg.Decoy.PerGroup)
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL)

	var tlsTable *tlsfp.Table
	if cfg.TLS.Enabled() {
		tlsTable = tlsfp.NewTable()
	}

	opts := handler.DecoyOptions{
		Home:          loadHomePage(cfg.Decoy, crp),
		Tarpit:        tarpit.New(cfg.Tarpit.BytesPerSecond),
		TLS:           tlsTable,
		WebhookURL:    cfg.Webhook.URL,
		WebhookSecret: cfg.Webhook.Secret,
	}

	// ── 7. Setup router and start serving ───────────────────────────
	startTime := time.Now()
	router := api.NewRouter(det, fg, as, cc, vl, db, cfg, opts, startTime)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if cfg.TLS.Enabled() {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				slog.Error("listen failed", "addr", addr, "error", err)
				os.Exit(1)
			}
			slog.Info("HTTPS server listening", "addr", addr)
			err = srv.ServeTLS(tlsfp.NewListener(ln, tlsTable), cfg.TLS.CertFile, cfg.TLS.KeyFile)
			if err != nil && err != http.ErrServerClosed {
				slog.Error("HTTPS server error", "error", err)
				os.Exit(1)
			}
			return
		}
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 8. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Give in-flight requests 5 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Drain queued visits only after the server stopped producing them.
	vl.Close()
	as.Stop()
	geoResolver.Stop()
	if err := db.Close(); err != nil {
		slog.Warn("store close failed", "error", err)
	}
	slog.Info("gossamer stopped")
}

// loadHomePage reads the configured human home page, falling back to
// the built-in landing page rendered from the corpus.
func loadHomePage(cfg config.DecoyConfig, crp *corpus.Corpus) []byte {
	if cfg.HomePage != "" {
		data, err := os.ReadFile(cfg.HomePage)
		if err == nil {
			return data
		}
		slog.Warn("home page unreadable, using built-in page", "path", cfg.HomePage, "error", err)
	}
	return []byte(forge.HomePage(crp))
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
