package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"

	"github.com/wovenlabs/gossamer/models"
)

// Postgres talks SQL directly to the database, which also works against
// a Supabase project's connection string when REST is not wanted.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool and ensures the schema exists.
// An unreachable database is logged, not fatal: the pool reconnects
// lazily and serving degrades to in-memory assignment meanwhile.
func NewPostgres(url string) (*Postgres, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	p := &Postgres{db: db}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		slog.Warn("postgres unreachable at startup, continuing", "error", err)
		return p, nil
	}
	if err := p.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) createTables(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS bot_assignments (
			bot_name   TEXT PRIMARY KEY,
			variant    INTEGER NOT NULL,
			seed       BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bot_visits (
			id              TEXT PRIMARY KEY,
			time            TIMESTAMPTZ NOT NULL,
			bot_name        TEXT NOT NULL DEFAULT '',
			variant         INTEGER NOT NULL DEFAULT 0,
			seed            BIGINT NOT NULL DEFAULT 0,
			method          TEXT NOT NULL DEFAULT '',
			path            TEXT NOT NULL DEFAULT '',
			query           TEXT NOT NULL DEFAULT '',
			client_ip       TEXT NOT NULL DEFAULT '',
			user_agent      TEXT NOT NULL DEFAULT '',
			referer         TEXT NOT NULL DEFAULT '',
			status          INTEGER NOT NULL DEFAULT 0,
			bytes           INTEGER NOT NULL DEFAULT 0,
			duration_ms     BIGINT NOT NULL DEFAULT 0,
			trap            BOOLEAN NOT NULL DEFAULT FALSE,
			tls_fingerprint TEXT NOT NULL DEFAULT '',
			country         TEXT NOT NULL DEFAULT '',
			org             TEXT NOT NULL DEFAULT '',
			content_hash    TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_bot ON bot_visits(bot_name)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_time ON bot_visits(time)`,
	}

	for _, stmt := range schema {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) EnsureAssignment(ctx context.Context, a *models.Assignment) (*models.Assignment, error) {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO bot_assignments (bot_name, variant, seed, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (bot_name) DO NOTHING`,
		a.BotName, a.Variant, a.Seed, a.CreatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return p.GetAssignment(ctx, a.BotName)
}

func (p *Postgres) GetAssignment(ctx context.Context, botName string) (*models.Assignment, error) {
	var a models.Assignment
	err := p.db.QueryRowContext(ctx,
		`SELECT bot_name, variant, seed, created_at
		 FROM bot_assignments WHERE bot_name = $1`, botName).
		Scan(&a.BotName, &a.Variant, &a.Seed, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query assignment: %w", err)
	}
	return &a, nil
}

func (p *Postgres) UpdateAssignmentSeed(ctx context.Context, botName string, seed int64) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE bot_assignments SET seed = $1 WHERE bot_name = $2`, seed, botName)
	if err != nil {
		return fmt.Errorf("update assignment seed: %w", err)
	}
	return nil
}

func (p *Postgres) ListBots(ctx context.Context) ([]models.BotSummary, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT a.bot_name, a.variant, a.seed, a.created_at,
		        MIN(v.time), MAX(v.time), COUNT(v.id)
		 FROM bot_assignments a
		 LEFT JOIN bot_visits v ON v.bot_name = a.bot_name
		 GROUP BY a.bot_name, a.variant, a.seed, a.created_at
		 ORDER BY COALESCE(MAX(v.time), a.created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query bots: %w", err)
	}
	defer rows.Close()

	var out []models.BotSummary
	for rows.Next() {
		var b models.BotSummary
		var createdAt time.Time
		var firstSeen, lastSeen sql.NullTime
		if err := rows.Scan(&b.BotName, &b.Variant, &b.Seed, &createdAt,
			&firstSeen, &lastSeen, &b.Visits); err != nil {
			return nil, fmt.Errorf("scan bot row: %w", err)
		}
		b.FirstSeen = createdAt
		b.LastSeen = createdAt
		if firstSeen.Valid {
			b.FirstSeen = firstSeen.Time
		}
		if lastSeen.Valid {
			b.LastSeen = lastSeen.Time
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) InsertVisit(ctx context.Context, v *models.Visit) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO bot_visits (id, time, bot_name, variant, seed, method, path,
		 query, client_ip, user_agent, referer, status, bytes, duration_ms, trap,
		 tls_fingerprint, country, org, content_hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		 $16, $17, $18, $19)`,
		v.ID, v.Time.UTC(), v.BotName, v.Variant, v.Seed,
		v.Method, v.Path, v.Query, v.ClientIP, v.UserAgent, v.Referer,
		v.Status, v.Bytes, v.DurationMS, v.Trap,
		v.TLSFingerprint, v.Country, v.Org, v.ContentHash)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (p *Postgres) QueryVisits(ctx context.Context, f models.VisitFilter) ([]models.Visit, error) {
	f.Defaults()

	query := `SELECT id, time, bot_name, variant, seed, method, path, query,
	          client_ip, user_agent, referer, status, bytes, duration_ms, trap,
	          tls_fingerprint, country, org, content_hash
	          FROM bot_visits WHERE TRUE`
	var args []any
	if f.Bot != "" {
		args = append(args, f.Bot)
		query += fmt.Sprintf(" AND bot_name = $%d", len(args))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since.UTC())
		query += fmt.Sprintf(" AND time >= $%d", len(args))
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY time DESC LIMIT $%d", len(args))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var out []models.Visit
	for rows.Next() {
		var v models.Visit
		if err := rows.Scan(&v.ID, &v.Time, &v.BotName, &v.Variant, &v.Seed,
			&v.Method, &v.Path, &v.Query, &v.ClientIP, &v.UserAgent, &v.Referer,
			&v.Status, &v.Bytes, &v.DurationMS, &v.Trap,
			&v.TLSFingerprint, &v.Country, &v.Org, &v.ContentHash); err != nil {
			return nil, fmt.Errorf("scan visit row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *Postgres) CountVisits(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bot_visits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
