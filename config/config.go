package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Decoy     DecoyConfig
	Persona   PersonaConfig
	Assign    AssignConfig
	Store     StoreConfig
	Geo       GeoConfig
	Tarpit    TarpitConfig
	TLS       TLSConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `envconfig:"GOSSAMER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"GOSSAMER_PORT" default:"8080"`

	// Mode is the gin mode: "debug", "release" or "test".
	Mode string `envconfig:"GOSSAMER_MODE" default:"release"`
}

// DecoyConfig controls the decoy surface: the master corpus file and the
// variant grid woven from it.
type DecoyConfig struct {
	// CorpusPath is the master HTML file the variants are parsed from.
	CorpusPath string `envconfig:"GOSSAMER_CORPUS" default:"templates/master.html"`

	// CorpusSelector optionally scopes parsing to a CSS-selected subtree
	// of the master file. Empty means the whole document.
	CorpusSelector string `envconfig:"GOSSAMER_CORPUS_SELECTOR"`

	// HomePage is the HTML file served to human visitors. Empty serves a
	// built-in page.
	HomePage string `envconfig:"GOSSAMER_HOME_PAGE"`

	// Groups is the number of top-level corpus sections used for
	// variants. PerGroup is the number of subsections per group. The
	// servable variant space is Groups * PerGroup.
	Groups   int `envconfig:"GOSSAMER_GROUPS" default:"5"`
	PerGroup int `envconfig:"GOSSAMER_PER_GROUP" default:"3"`

	// TrapPaths are never linked from served pages and appear only as
	// robots.txt Disallow lines. Any visitor requesting one is a bot.
	TrapPaths []string `envconfig:"GOSSAMER_TRAP_PATHS" default:"/admin-portal,/internal/reports,/customer-export"`
}

// TotalVariants is the size of the servable variant space.
func (d DecoyConfig) TotalVariants() int {
	return d.Groups * d.PerGroup
}

// PersonaConfig controls the fake-data persona catalog.
type PersonaConfig struct {
	// CatalogPath is an optional YAML file overriding the built-in
	// persona types.
	CatalogPath string `envconfig:"GOSSAMER_PERSONA_FILE"`
}

// AssignConfig controls bot-to-variant assignment.
type AssignConfig struct {
	// CacheTTL is how long an assignment is held in memory before the
	// store is consulted again.
	CacheTTL time.Duration `envconfig:"GOSSAMER_ASSIGN_TTL" default:"600s"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is "auto", "supabase", "postgres" or "sqlite". Auto picks
	// supabase when SUPABASE_URL is set, then postgres when DATABASE_URL
	// is set, then sqlite.
	Backend string `envconfig:"GOSSAMER_STORE" default:"auto"`

	// SupabaseURL and SupabaseKey address a Supabase project's REST
	// endpoint (PostgREST). The key is sent as both apikey and Bearer.
	SupabaseURL string `envconfig:"SUPABASE_URL"`
	SupabaseKey string `envconfig:"SUPABASE_KEY"`

	// DatabaseURL is a Postgres connection string for direct SQL access.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// SQLitePath is the local database file for the sqlite backend.
	SQLitePath string `envconfig:"GOSSAMER_SQLITE_PATH" default:"gossamer.db"`

	// QueueSize bounds the async visit writer. Visits beyond a full
	// queue are dropped, never allowed to block serving.
	QueueSize int `envconfig:"GOSSAMER_VISIT_QUEUE" default:"1024"`
}

// GeoConfig controls IP enrichment via ipinfo.io.
type GeoConfig struct {
	// IPInfoToken enables lookups when non-empty.
	IPInfoToken string `envconfig:"IPINFO_TOKEN"`

	// CacheTTL is how long a lookup result is reused per IP.
	CacheTTL time.Duration `envconfig:"GOSSAMER_GEO_TTL" default:"6h"`
}

// TarpitConfig controls response throttling on the decoy surface.
type TarpitConfig struct {
	// BytesPerSecond drips decoy responses at this rate. 0 disables the
	// tarpit. Never applied to the ops API or human visitors.
	BytesPerSecond int `envconfig:"GOSSAMER_TARPIT_BPS" default:"0"`
}

// TLSConfig enables HTTPS with ClientHello fingerprinting.
type TLSConfig struct {
	CertFile string `envconfig:"GOSSAMER_TLS_CERT"`
	KeyFile  string `envconfig:"GOSSAMER_TLS_KEY"`
}

// Enabled reports whether a certificate pair is configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" && t.KeyFile != ""
}

// AuthConfig controls API key authentication for the ops surface. The
// decoy surface is always open.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `envconfig:"GOSSAMER_AUTH_ENABLED" default:"true"`

	// APIKeys are the accepted keys. Empty with Enabled=true means the
	// ops surface accepts no callers.
	APIKeys []string `envconfig:"GOSSAMER_API_KEYS"`
}

// RateLimitConfig controls per-caller rate limiting on the ops surface.
type RateLimitConfig struct {
	Enabled bool `envconfig:"GOSSAMER_RATE_ENABLED" default:"true"`

	// RPS is the sustained request rate per caller; Burst is the bucket
	// size.
	RPS   float64 `envconfig:"GOSSAMER_RATE_RPS" default:"5"`
	Burst int     `envconfig:"GOSSAMER_RATE_BURST" default:"10"`
}

// CacheConfig controls the woven-page cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached pages.
	MaxEntries int `envconfig:"GOSSAMER_CACHE_ENTRIES" default:"256"`

	// TTL is how long a woven page may be served from cache.
	TTL time.Duration `envconfig:"GOSSAMER_CACHE_TTL" default:"10m"`
}

// WebhookConfig controls operator alerting.
type WebhookConfig struct {
	// URL receives signed JSON events. Empty disables alerting.
	URL string `envconfig:"GOSSAMER_WEBHOOK_URL"`

	// Secret signs payloads with HMAC-SHA256 when non-empty.
	Secret string `envconfig:"GOSSAMER_WEBHOOK_SECRET"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `envconfig:"GOSSAMER_LOG_LEVEL" default:"info"`

	// Format is "json" or "text".
	Format string `envconfig:"GOSSAMER_LOG_FORMAT" default:"json"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid GOSSAMER_MODE %q", c.Server.Mode)
	}
	if c.Decoy.Groups < 1 || c.Decoy.PerGroup < 1 {
		return fmt.Errorf("variant grid must be at least 1x1, got %dx%d", c.Decoy.Groups, c.Decoy.PerGroup)
	}
	switch c.Store.Backend {
	case "auto", "supabase", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive, got %v", c.RateLimit.RPS)
	}
	if c.Tarpit.BytesPerSecond < 0 {
		return fmt.Errorf("tarpit rate must not be negative, got %d", c.Tarpit.BytesPerSecond)
	}
	return nil
}
