package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wovenlabs/gossamer/models"
)

// SQLite is the local file backend, mainly for development and tests.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database file and ensures the
// schema exists.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent visit inserts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) createTables() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS bot_assignments (
			bot_name   TEXT PRIMARY KEY,
			variant    INTEGER NOT NULL,
			seed       INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bot_visits (
			id              TEXT PRIMARY KEY,
			time            TEXT NOT NULL,
			bot_name        TEXT NOT NULL DEFAULT '',
			variant         INTEGER NOT NULL DEFAULT 0,
			seed            INTEGER NOT NULL DEFAULT 0,
			method          TEXT NOT NULL DEFAULT '',
			path            TEXT NOT NULL DEFAULT '',
			query           TEXT NOT NULL DEFAULT '',
			client_ip       TEXT NOT NULL DEFAULT '',
			user_agent      TEXT NOT NULL DEFAULT '',
			referer         TEXT NOT NULL DEFAULT '',
			status          INTEGER NOT NULL DEFAULT 0,
			bytes           INTEGER NOT NULL DEFAULT 0,
			duration_ms     INTEGER NOT NULL DEFAULT 0,
			trap            INTEGER NOT NULL DEFAULT 0,
			tls_fingerprint TEXT NOT NULL DEFAULT '',
			country         TEXT NOT NULL DEFAULT '',
			org             TEXT NOT NULL DEFAULT '',
			content_hash    TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_bot ON bot_visits(bot_name)`,
		`CREATE INDEX IF NOT EXISTS idx_visits_time ON bot_visits(time)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Name() string { return "sqlite" }

func (s *SQLite) EnsureAssignment(ctx context.Context, a *models.Assignment) (*models.Assignment, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_assignments (bot_name, variant, seed, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(bot_name) DO NOTHING`,
		a.BotName, a.Variant, a.Seed, a.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return s.GetAssignment(ctx, a.BotName)
}

func (s *SQLite) GetAssignment(ctx context.Context, botName string) (*models.Assignment, error) {
	var a models.Assignment
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT bot_name, variant, seed, created_at
		 FROM bot_assignments WHERE bot_name = ?`, botName).
		Scan(&a.BotName, &a.Variant, &a.Seed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query assignment: %w", err)
	}
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

func (s *SQLite) UpdateAssignmentSeed(ctx context.Context, botName string, seed int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bot_assignments SET seed = ? WHERE bot_name = ?`, seed, botName)
	if err != nil {
		return fmt.Errorf("update assignment seed: %w", err)
	}
	return nil
}

func (s *SQLite) ListBots(ctx context.Context) ([]models.BotSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.bot_name, a.variant, a.seed, a.created_at,
		        COALESCE(MIN(v.time), ''), COALESCE(MAX(v.time), ''), COUNT(v.id)
		 FROM bot_assignments a
		 LEFT JOIN bot_visits v ON v.bot_name = a.bot_name
		 GROUP BY a.bot_name
		 ORDER BY COALESCE(MAX(v.time), a.created_at) DESC`)
	if err != nil {
		return nil, fmt.Errorf("query bots: %w", err)
	}
	defer rows.Close()

	var out []models.BotSummary
	for rows.Next() {
		var b models.BotSummary
		var createdAt, firstSeen, lastSeen string
		if err := rows.Scan(&b.BotName, &b.Variant, &b.Seed, &createdAt,
			&firstSeen, &lastSeen, &b.Visits); err != nil {
			return nil, fmt.Errorf("scan bot row: %w", err)
		}
		created := parseTime(createdAt)
		b.FirstSeen = created
		b.LastSeen = created
		if firstSeen != "" {
			b.FirstSeen = parseTime(firstSeen)
		}
		if lastSeen != "" {
			b.LastSeen = parseTime(lastSeen)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *SQLite) InsertVisit(ctx context.Context, v *models.Visit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_visits (id, time, bot_name, variant, seed, method, path,
		 query, client_ip, user_agent, referer, status, bytes, duration_ms, trap,
		 tls_fingerprint, country, org, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Time.UTC().Format(time.RFC3339Nano), v.BotName, v.Variant, v.Seed,
		v.Method, v.Path, v.Query, v.ClientIP, v.UserAgent, v.Referer,
		v.Status, v.Bytes, v.DurationMS, boolToInt(v.Trap),
		v.TLSFingerprint, v.Country, v.Org, v.ContentHash)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (s *SQLite) QueryVisits(ctx context.Context, f models.VisitFilter) ([]models.Visit, error) {
	f.Defaults()

	query := `SELECT id, time, bot_name, variant, seed, method, path, query,
	          client_ip, user_agent, referer, status, bytes, duration_ms, trap,
	          tls_fingerprint, country, org, content_hash
	          FROM bot_visits WHERE 1=1`
	var args []any
	if f.Bot != "" {
		query += " AND bot_name = ?"
		args = append(args, f.Bot)
	}
	if !f.Since.IsZero() {
		query += " AND time >= ?"
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY time DESC LIMIT ?"
	args = append(args, f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var out []models.Visit
	for rows.Next() {
		var v models.Visit
		var ts string
		var trap int
		if err := rows.Scan(&v.ID, &ts, &v.BotName, &v.Variant, &v.Seed,
			&v.Method, &v.Path, &v.Query, &v.ClientIP, &v.UserAgent, &v.Referer,
			&v.Status, &v.Bytes, &v.DurationMS, &trap,
			&v.TLSFingerprint, &v.Country, &v.Org, &v.ContentHash); err != nil {
			return nil, fmt.Errorf("scan visit row: %w", err)
		}
		v.Time = parseTime(ts)
		v.Trap = trap != 0
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLite) CountVisits(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bot_visits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
