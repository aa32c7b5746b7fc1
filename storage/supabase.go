package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wovenlabs/gossamer/models"
)

// maxAggregateRows bounds the client-side bot summary merge. PostgREST
// disables aggregate functions by default, so ListBots pages the raw
// rows instead and folds them locally.
const maxAggregateRows = 5000

// Supabase stores assignments and visits through the PostgREST API.
// It uses net/http directly - no third-party SDK needed.
//
// The project needs two tables:
//
//	CREATE TABLE bot_assignments (
//	    bot_name   TEXT PRIMARY KEY,
//	    variant    INTEGER NOT NULL,
//	    seed       BIGINT NOT NULL DEFAULT 0,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE bot_visits (
//	    id              TEXT PRIMARY KEY,
//	    time            TIMESTAMPTZ NOT NULL,
//	    bot_name        TEXT NOT NULL DEFAULT '',
//	    variant         INTEGER NOT NULL DEFAULT 0,
//	    seed            BIGINT NOT NULL DEFAULT 0,
//	    method          TEXT NOT NULL DEFAULT '',
//	    path            TEXT NOT NULL DEFAULT '',
//	    query           TEXT NOT NULL DEFAULT '',
//	    client_ip       TEXT NOT NULL DEFAULT '',
//	    user_agent      TEXT NOT NULL DEFAULT '',
//	    referer         TEXT NOT NULL DEFAULT '',
//	    status          INTEGER NOT NULL DEFAULT 0,
//	    bytes           INTEGER NOT NULL DEFAULT 0,
//	    duration_ms     BIGINT NOT NULL DEFAULT 0,
//	    trap            BOOLEAN NOT NULL DEFAULT FALSE,
//	    tls_fingerprint TEXT NOT NULL DEFAULT '',
//	    country         TEXT NOT NULL DEFAULT '',
//	    org             TEXT NOT NULL DEFAULT '',
//	    content_hash    TEXT NOT NULL DEFAULT ''
//	);
type Supabase struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSupabase creates a client for the given project URL and service key.
// It never dials at construction; the first request surfaces any problem.
func NewSupabase(projectURL, apiKey string) *Supabase {
	return &Supabase{
		baseURL:    strings.TrimRight(projectURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// sbAssignment is the bot_assignments wire row.
type sbAssignment struct {
	BotName   string `json:"bot_name"`
	Variant   int    `json:"variant"`
	Seed      int64  `json:"seed"`
	CreatedAt string `json:"created_at"`
}

// sbVisit is the bot_visits wire row.
type sbVisit struct {
	ID             string `json:"id"`
	Time           string `json:"time"`
	BotName        string `json:"bot_name"`
	Variant        int    `json:"variant"`
	Seed           int64  `json:"seed"`
	Method         string `json:"method"`
	Path           string `json:"path"`
	Query          string `json:"query"`
	ClientIP       string `json:"client_ip"`
	UserAgent      string `json:"user_agent"`
	Referer        string `json:"referer"`
	Status         int    `json:"status"`
	Bytes          int    `json:"bytes"`
	DurationMS     int64  `json:"duration_ms"`
	Trap           bool   `json:"trap"`
	TLSFingerprint string `json:"tls_fingerprint"`
	Country        string `json:"country"`
	Org            string `json:"org"`
	ContentHash    string `json:"content_hash"`
}

// sbError captures a PostgREST error body.
type sbError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// do runs one REST request and returns the response body and headers.
func (s *Supabase) do(ctx context.Context, method, table string, query url.Values, body any, prefer string) ([]byte, http.Header, error) {
	endpoint := s.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("supabase request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read supabase response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr sbError
		msg := strings.TrimSpace(string(respBody))
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return nil, nil, fmt.Errorf("supabase returned %d: %s", resp.StatusCode, msg)
	}

	return respBody, resp.Header, nil
}

func (s *Supabase) Name() string { return "supabase" }

func (s *Supabase) EnsureAssignment(ctx context.Context, a *models.Assignment) (*models.Assignment, error) {
	row := sbAssignment{
		BotName:   a.BotName,
		Variant:   a.Variant,
		Seed:      a.Seed,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	// ignore-duplicates makes concurrent first sightings converge on
	// whichever insert won the race.
	_, _, err := s.do(ctx, http.MethodPost, "bot_assignments", nil, []sbAssignment{row},
		"resolution=ignore-duplicates,return=minimal")
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	return s.GetAssignment(ctx, a.BotName)
}

func (s *Supabase) GetAssignment(ctx context.Context, botName string) (*models.Assignment, error) {
	q := url.Values{}
	q.Set("bot_name", "eq."+botName)
	q.Set("limit", "1")

	body, _, err := s.do(ctx, http.MethodGet, "bot_assignments", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("query assignment: %w", err)
	}

	var rows []sbAssignment
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse assignment response: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0].toModel(), nil
}

func (s *Supabase) UpdateAssignmentSeed(ctx context.Context, botName string, seed int64) error {
	q := url.Values{}
	q.Set("bot_name", "eq."+botName)

	_, _, err := s.do(ctx, http.MethodPatch, "bot_assignments", q,
		map[string]int64{"seed": seed}, "return=minimal")
	if err != nil {
		return fmt.Errorf("update assignment seed: %w", err)
	}
	return nil
}

func (s *Supabase) ListBots(ctx context.Context) ([]models.BotSummary, error) {
	q := url.Values{}
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(maxAggregateRows))

	body, _, err := s.do(ctx, http.MethodGet, "bot_assignments", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("query bots: %w", err)
	}
	var rows []sbAssignment
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse bots response: %w", err)
	}

	byName := make(map[string]*models.BotSummary, len(rows))
	out := make([]models.BotSummary, 0, len(rows))
	for _, row := range rows {
		createdAt := parseTime(row.CreatedAt)
		out = append(out, models.BotSummary{
			BotName:   row.BotName,
			Variant:   row.Variant,
			Seed:      row.Seed,
			FirstSeen: createdAt,
			LastSeen:  createdAt,
		})
		byName[row.BotName] = &out[len(out)-1]
	}

	vq := url.Values{}
	vq.Set("select", "bot_name,time")
	vq.Set("order", "time.desc")
	vq.Set("limit", strconv.Itoa(maxAggregateRows))

	vbody, _, err := s.do(ctx, http.MethodGet, "bot_visits", vq, nil, "")
	if err != nil {
		return nil, fmt.Errorf("query visit times: %w", err)
	}
	var visits []struct {
		BotName string `json:"bot_name"`
		Time    string `json:"time"`
	}
	if err := json.Unmarshal(vbody, &visits); err != nil {
		return nil, fmt.Errorf("parse visit times: %w", err)
	}

	for _, v := range visits {
		sum, ok := byName[v.BotName]
		if !ok {
			continue
		}
		t := parseTime(v.Time)
		if sum.Visits == 0 {
			sum.FirstSeen = t
			sum.LastSeen = t
		} else {
			if t.Before(sum.FirstSeen) {
				sum.FirstSeen = t
			}
			if t.After(sum.LastSeen) {
				sum.LastSeen = t
			}
		}
		sum.Visits++
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out, nil
}

func (s *Supabase) InsertVisit(ctx context.Context, v *models.Visit) error {
	row := sbVisit{
		ID:             v.ID,
		Time:           v.Time.UTC().Format(time.RFC3339Nano),
		BotName:        v.BotName,
		Variant:        v.Variant,
		Seed:           v.Seed,
		Method:         v.Method,
		Path:           v.Path,
		Query:          v.Query,
		ClientIP:       v.ClientIP,
		UserAgent:      v.UserAgent,
		Referer:        v.Referer,
		Status:         v.Status,
		Bytes:          v.Bytes,
		DurationMS:     v.DurationMS,
		Trap:           v.Trap,
		TLSFingerprint: v.TLSFingerprint,
		Country:        v.Country,
		Org:            v.Org,
		ContentHash:    v.ContentHash,
	}
	_, _, err := s.do(ctx, http.MethodPost, "bot_visits", nil, []sbVisit{row}, "return=minimal")
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

func (s *Supabase) QueryVisits(ctx context.Context, f models.VisitFilter) ([]models.Visit, error) {
	f.Defaults()

	q := url.Values{}
	if f.Bot != "" {
		q.Set("bot_name", "eq."+f.Bot)
	}
	if !f.Since.IsZero() {
		q.Set("time", "gte."+f.Since.UTC().Format(time.RFC3339Nano))
	}
	q.Set("order", "time.desc")
	q.Set("limit", strconv.Itoa(f.Limit))

	body, _, err := s.do(ctx, http.MethodGet, "bot_visits", q, nil, "")
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}

	var rows []sbVisit
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse visits response: %w", err)
	}

	out := make([]models.Visit, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row.toModel())
	}
	return out, nil
}

func (s *Supabase) CountVisits(ctx context.Context) (int64, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")

	_, header, err := s.do(ctx, http.MethodGet, "bot_visits", q, nil, "count=exact")
	if err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}

	// Content-Range looks like "0-0/137" (or "*/0" when empty).
	contentRange := header.Get("Content-Range")
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return 0, fmt.Errorf("count visits: missing Content-Range header")
	}
	n, err := strconv.ParseInt(contentRange[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("count visits: bad Content-Range %q", contentRange)
	}
	return n, nil
}

func (s *Supabase) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("limit", "1")
	_, _, err := s.do(ctx, http.MethodGet, "bot_assignments", q, nil, "")
	return err
}

func (s *Supabase) Close() error { return nil }

func (r *sbAssignment) toModel() *models.Assignment {
	return &models.Assignment{
		BotName:   r.BotName,
		Variant:   r.Variant,
		Seed:      r.Seed,
		CreatedAt: parseTime(r.CreatedAt),
	}
}

func (r *sbVisit) toModel() *models.Visit {
	return &models.Visit{
		ID:             r.ID,
		Time:           parseTime(r.Time),
		BotName:        r.BotName,
		Variant:        r.Variant,
		Seed:           r.Seed,
		Method:         r.Method,
		Path:           r.Path,
		Query:          r.Query,
		ClientIP:       r.ClientIP,
		UserAgent:      r.UserAgent,
		Referer:        r.Referer,
		Status:         r.Status,
		Bytes:          r.Bytes,
		DurationMS:     r.DurationMS,
		Trap:           r.Trap,
		TLSFingerprint: r.TLSFingerprint,
		Country:        r.Country,
		Org:            r.Org,
		ContentHash:    r.ContentHash,
	}
}
