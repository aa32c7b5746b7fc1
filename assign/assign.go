// Package assign maps each bot name to a stable (variant, seed) pair.
// The pair is the bot's identity: every request from the same scraper
// weaves the same decoy page, which is what makes the poisoned content
// look like a real, consistent website.
package assign

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/persona"
	"github.com/wovenlabs/gossamer/storage"
)

const (
	// storeTimeout caps how long a request waits on the store. Serving
	// a decoy must stay fast even when the backend is slow.
	storeTimeout = 2 * time.Second

	// fallbackTTL is the short cache TTL used when the store failed and
	// the pair was derived locally, so the store is retried soon.
	fallbackTTL = 30 * time.Second
)

// assignEntry caches a resolved pair with a TTL.
type assignEntry struct {
	variant   int
	seed      int64
	expiresAt time.Time
}

// Assigner resolves bot names to their assigned pair, caching results
// in memory so the store is only consulted on cache misses. Entries
// expire after the configured TTL and are cleaned up periodically.
type Assigner struct {
	store sync.Map // bot name (string) -> *assignEntry
	db    storage.Store
	total int
	ttl   time.Duration
	done  chan struct{}

	// FirstSeen, when set, is called once for each bot this instance
	// registers for the first time.
	FirstSeen func(a *models.Assignment)
}

// New creates an Assigner backed by db with totalVariants variants and
// starts a background goroutine that prunes expired entries.
func New(db storage.Store, totalVariants int, ttl time.Duration) *Assigner {
	a := &Assigner{
		db:    db,
		total: totalVariants,
		ttl:   ttl,
		done:  make(chan struct{}),
	}
	go a.cleanupLoop()
	return a
}

// For returns the variant and seed assigned to botName. A new bot gets
// a random pair which is persisted; a returning bot gets its stored
// pair. Store failures degrade to a deterministic local pair so the
// page stays stable across requests even with the backend down.
func (a *Assigner) For(ctx context.Context, botName string) (int, int64) {
	if val, ok := a.store.Load(botName); ok {
		entry := val.(*assignEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.variant, entry.seed
		}
		a.store.Delete(botName)
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	got, err := a.db.GetAssignment(ctx, botName)
	switch {
	case err == nil:
		if got.Seed == 0 {
			got.Seed = a.backfillSeed(ctx, botName)
		}
		a.remember(botName, got.Variant, got.Seed, a.ttl)
		return got.Variant, got.Seed

	case errors.Is(err, storage.ErrNotFound):
		return a.register(ctx, botName)

	default:
		slog.Warn("assignment lookup failed, using local pair", "bot", botName, "error", err)
		variant, seed := localPair(botName, a.total)
		a.remember(botName, variant, seed, fallbackTTL)
		return variant, seed
	}
}

// register inserts a fresh random pair for a first-time bot. Concurrent
// registrations converge on whichever insert won; only the winner fires
// the FirstSeen callback.
func (a *Assigner) register(ctx context.Context, botName string) (int, int64) {
	fresh := &models.Assignment{
		BotName:   botName,
		Variant:   rand.IntN(a.total) + 1,
		Seed:      persona.NewSeed(),
		CreatedAt: time.Now().UTC(),
	}

	won, err := a.db.EnsureAssignment(ctx, fresh)
	if err != nil {
		slog.Warn("assignment insert failed, using local pair", "bot", botName, "error", err)
		variant, seed := localPair(botName, a.total)
		a.remember(botName, variant, seed, fallbackTTL)
		return variant, seed
	}

	if won.Seed == 0 {
		won.Seed = a.backfillSeed(ctx, botName)
	}
	a.remember(botName, won.Variant, won.Seed, a.ttl)

	if won.Variant == fresh.Variant && won.Seed == fresh.Seed && a.FirstSeen != nil {
		a.FirstSeen(won)
	}
	return won.Variant, won.Seed
}

// backfillSeed fills in a seed for rows persisted before seeds existed.
func (a *Assigner) backfillSeed(ctx context.Context, botName string) int64 {
	seed := persona.NewSeed()
	if err := a.db.UpdateAssignmentSeed(ctx, botName, seed); err != nil {
		slog.Warn("seed backfill failed", "bot", botName, "error", err)
	}
	return seed
}

func (a *Assigner) remember(botName string, variant int, seed int64, ttl time.Duration) {
	a.store.Store(botName, &assignEntry{
		variant:   variant,
		seed:      seed,
		expiresAt: time.Now().Add(ttl),
	})
}

// Stop terminates the background cleanup goroutine.
func (a *Assigner) Stop() {
	close(a.done)
}

// cleanupLoop runs every minute, deleting expired entries.
func (a *Assigner) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
			now := time.Now()
			a.store.Range(func(key, value any) bool {
				entry := value.(*assignEntry)
				if now.After(entry.expiresAt) {
					a.store.Delete(key)
				}
				return true
			})
		}
	}
}

// localPair derives a deterministic pair from the bot name alone, used
// when the store cannot answer. The same bot keeps hashing to the same
// pair, so the decoy stays consistent during an outage.
func localPair(botName string, total int) (int, int64) {
	h := fnv.New64a()
	h.Write([]byte(botName))
	sum := h.Sum64()
	variant := int(sum%uint64(total)) + 1
	seed := int64(sum%uint64(persona.MaxSeed)) + 1
	return variant, seed
}
