// Package storage persists bot assignments and the append-only visit
// log. Three backends implement the same interface: the Supabase REST
// API (the usual hosted deployment), direct Postgres, and a local SQLite
// file for development.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wovenlabs/gossamer/config"
	"github.com/wovenlabs/gossamer/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface. Visit rows are append-only; only
// assignment seeds are ever updated, and only to backfill rows persisted
// before seeds existed.
type Store interface {
	// EnsureAssignment inserts the assignment unless one already exists
	// for the bot, and returns the winning row either way. Concurrent
	// first sightings of the same bot converge on one row.
	EnsureAssignment(ctx context.Context, a *models.Assignment) (*models.Assignment, error)

	// GetAssignment returns the assignment for a bot, or ErrNotFound.
	GetAssignment(ctx context.Context, botName string) (*models.Assignment, error)

	// UpdateAssignmentSeed backfills the seed on a legacy row.
	UpdateAssignmentSeed(ctx context.Context, botName string, seed int64) error

	// ListBots returns every assignment joined with visit aggregates,
	// most recently seen first.
	ListBots(ctx context.Context) ([]models.BotSummary, error)

	// InsertVisit appends one visit row.
	InsertVisit(ctx context.Context, v *models.Visit) error

	// QueryVisits returns visits matching the filter, newest first.
	QueryVisits(ctx context.Context, f models.VisitFilter) ([]models.Visit, error)

	// CountVisits returns the total number of visit rows.
	CountVisits(ctx context.Context) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Name identifies the backend ("supabase", "postgres", "sqlite").
	Name() string

	Close() error
}

// Open builds the configured Store. The "auto" backend picks supabase
// when SUPABASE_URL is set, then postgres when DATABASE_URL is set, then
// sqlite.
func Open(cfg config.StoreConfig) (Store, error) {
	backend := cfg.Backend
	if backend == "auto" {
		switch {
		case cfg.SupabaseURL != "":
			backend = "supabase"
		case cfg.DatabaseURL != "":
			backend = "postgres"
		default:
			backend = "sqlite"
		}
	}

	switch backend {
	case "supabase":
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("supabase store requires SUPABASE_URL and SUPABASE_KEY")
		}
		return NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey), nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres store requires DATABASE_URL")
		}
		return NewPostgres(cfg.DatabaseURL)
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// timeFormats are tried in order when parsing timestamps from backends
// that return them as strings.
var timeFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
