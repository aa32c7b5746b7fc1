package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/wovenlabs/gossamer/config"
	"github.com/wovenlabs/gossamer/models"
)

func testDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_AssignmentLifecycle(t *testing.T) {
	s := testDB(t)
	ctx := context.Background()

	if _, err := s.GetAssignment(ctx, "GPTBot"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAssignment on empty db = %v, want ErrNotFound", err)
	}

	created := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	first := &models.Assignment{BotName: "GPTBot", Variant: 3, Seed: 77, CreatedAt: created}
	won, err := s.EnsureAssignment(ctx, first)
	if err != nil {
		t.Fatalf("EnsureAssignment: %v", err)
	}
	if won.Variant != 3 || won.Seed != 77 {
		t.Errorf("winner = %+v", won)
	}
	if !won.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", won.CreatedAt, created)
	}

	// A second insert for the same bot must not displace the first row.
	loser := &models.Assignment{BotName: "GPTBot", Variant: 9, Seed: 11, CreatedAt: created.Add(time.Hour)}
	won2, err := s.EnsureAssignment(ctx, loser)
	if err != nil {
		t.Fatalf("EnsureAssignment (conflict): %v", err)
	}
	if won2.Variant != 3 || won2.Seed != 77 {
		t.Errorf("conflicting insert displaced the row: %+v", won2)
	}

	if err := s.UpdateAssignmentSeed(ctx, "GPTBot", 555); err != nil {
		t.Fatalf("UpdateAssignmentSeed: %v", err)
	}
	got, err := s.GetAssignment(ctx, "GPTBot")
	if err != nil {
		t.Fatalf("GetAssignment: %v", err)
	}
	if got.Seed != 555 || got.Variant != 3 {
		t.Errorf("after seed update: %+v", got)
	}
}

func visitAt(id, bot string, at time.Time) *models.Visit {
	return &models.Visit{
		ID:        id,
		Time:      at,
		BotName:   bot,
		Variant:   1,
		Seed:      5,
		Method:    "GET",
		Path:      "/",
		ClientIP:  "10.0.0.1",
		UserAgent: bot + "/1.0",
		Status:    200,
		Bytes:     1234,
	}
}

func TestSQLite_VisitQueries(t *testing.T) {
	s := testDB(t)
	ctx := context.Background()

	base := time.Date(2026, time.August, 10, 8, 0, 0, 0, time.UTC)
	visits := []*models.Visit{
		visitAt("v1", "GPTBot", base),
		visitAt("v2", "CCBot", base.Add(1*time.Hour)),
		visitAt("v3", "GPTBot", base.Add(2*time.Hour)),
	}
	for _, v := range visits {
		if err := s.InsertVisit(ctx, v); err != nil {
			t.Fatalf("InsertVisit(%s): %v", v.ID, err)
		}
	}

	all, err := s.QueryVisits(ctx, models.VisitFilter{})
	if err != nil {
		t.Fatalf("QueryVisits: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d visits, want 3", len(all))
	}
	if all[0].ID != "v3" || all[2].ID != "v1" {
		t.Errorf("order = [%s %s %s], want newest first", all[0].ID, all[1].ID, all[2].ID)
	}
	if !all[0].Time.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("round-tripped time = %v", all[0].Time)
	}

	byBot, err := s.QueryVisits(ctx, models.VisitFilter{Bot: "GPTBot"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byBot) != 2 {
		t.Errorf("bot filter returned %d visits, want 2", len(byBot))
	}

	since, err := s.QueryVisits(ctx, models.VisitFilter{Since: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 2 {
		t.Errorf("since filter returned %d visits, want 2", len(since))
	}

	limited, err := s.QueryVisits(ctx, models.VisitFilter{Limit: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].ID != "v3" {
		t.Errorf("limited = %+v", limited)
	}

	n, err := s.CountVisits(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("CountVisits = %d, want 3", n)
	}
}

func TestSQLite_VisitFieldsRoundTrip(t *testing.T) {
	s := testDB(t)
	ctx := context.Background()

	in := &models.Visit{
		ID:             "full",
		Time:           time.Date(2026, time.August, 11, 9, 30, 0, 0, time.UTC),
		BotName:        "ClaudeBot",
		Variant:        4,
		Seed:           999,
		Method:         "GET",
		Path:           "/admin-portal",
		Query:          "page=2",
		ClientIP:       "203.0.113.5",
		UserAgent:      "ClaudeBot/1.0",
		Referer:        "https://example.com/",
		Status:         200,
		Bytes:          4096,
		DurationMS:     12,
		Trap:           true,
		TLSFingerprint: "deadbeef",
		Country:        "NL",
		Org:            "ExampleNet",
		ContentHash:    "00ff00ff00ff00ff",
	}
	if err := s.InsertVisit(ctx, in); err != nil {
		t.Fatal(err)
	}

	out, err := s.QueryVisits(ctx, models.VisitFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d visits", len(out))
	}
	got := out[0]
	if !got.Trap {
		t.Error("trap flag lost")
	}
	if got.Query != in.Query || got.Referer != in.Referer ||
		got.TLSFingerprint != in.TLSFingerprint || got.Country != in.Country ||
		got.Org != in.Org || got.ContentHash != in.ContentHash {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestSQLite_ListBots(t *testing.T) {
	s := testDB(t)
	ctx := context.Background()

	base := time.Date(2026, time.August, 12, 0, 0, 0, 0, time.UTC)
	for _, a := range []*models.Assignment{
		{BotName: "GPTBot", Variant: 1, Seed: 10, CreatedAt: base},
		{BotName: "QuietBot", Variant: 2, Seed: 20, CreatedAt: base.Add(time.Minute)},
	} {
		if _, err := s.EnsureAssignment(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.InsertVisit(ctx, visitAt("v1", "GPTBot", base.Add(1*time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertVisit(ctx, visitAt("v2", "GPTBot", base.Add(3*time.Hour))); err != nil {
		t.Fatal(err)
	}

	bots, err := s.ListBots(ctx)
	if err != nil {
		t.Fatalf("ListBots: %v", err)
	}
	if len(bots) != 2 {
		t.Fatalf("got %d bots, want 2", len(bots))
	}

	// GPTBot was seen last, so it sorts first.
	if bots[0].BotName != "GPTBot" {
		t.Fatalf("order = [%s %s]", bots[0].BotName, bots[1].BotName)
	}
	if bots[0].Visits != 2 {
		t.Errorf("GPTBot visits = %d, want 2", bots[0].Visits)
	}
	if !bots[0].FirstSeen.Equal(base.Add(1*time.Hour)) || !bots[0].LastSeen.Equal(base.Add(3*time.Hour)) {
		t.Errorf("GPTBot seen window = %v .. %v", bots[0].FirstSeen, bots[0].LastSeen)
	}

	// A bot with no visits reports its registration time.
	quiet := bots[1]
	if quiet.Visits != 0 {
		t.Errorf("QuietBot visits = %d", quiet.Visits)
	}
	if !quiet.FirstSeen.Equal(base.Add(time.Minute)) || !quiet.LastSeen.Equal(base.Add(time.Minute)) {
		t.Errorf("QuietBot seen window = %v .. %v", quiet.FirstSeen, quiet.LastSeen)
	}
}

func TestOpen_BackendSelection(t *testing.T) {
	dir := t.TempDir()

	auto, err := Open(config.StoreConfig{Backend: "auto", SQLitePath: filepath.Join(dir, "auto.db")})
	if err != nil {
		t.Fatalf("auto backend: %v", err)
	}
	defer auto.Close()
	if auto.Name() != "sqlite" {
		t.Errorf("auto resolved to %q, want sqlite", auto.Name())
	}

	if _, err := Open(config.StoreConfig{Backend: "supabase", SupabaseURL: "https://x.supabase.co"}); err == nil {
		t.Error("supabase without a key should fail")
	}
	if _, err := Open(config.StoreConfig{Backend: "postgres"}); err == nil {
		t.Error("postgres without a URL should fail")
	}
	if _, err := Open(config.StoreConfig{Backend: "bogus"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestParseTime_Formats(t *testing.T) {
	want := time.Date(2026, time.August, 1, 10, 30, 0, 0, time.UTC)
	tests := []string{
		"2026-08-01T10:30:00Z",
		"2026-08-01T10:30:00.000000Z",
		"2026-08-01T10:30:00",
		"2026-08-01 10:30:00",
	}
	for _, in := range tests {
		if got := parseTime(in); !got.Equal(want) {
			t.Errorf("parseTime(%q) = %v, want %v", in, got, want)
		}
	}
	if !parseTime("not a time").IsZero() {
		t.Error("unparseable input should yield the zero time")
	}
}
