// Package geo enriches visit records with coarse origin data from the
// ipinfo.io API. Lookups are best effort: a failure never blocks or
// fails a request, it just leaves the fields empty.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"sync"
	"time"
)

// Info is the subset of an ipinfo.io response worth keeping per visit.
type Info struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Org     string `json:"org"`
}

type geoEntry struct {
	info      Info
	expiresAt time.Time
}

// Resolver caches ipinfo.io lookups per address. With no token it is a
// no-op that always returns the zero Info.
type Resolver struct {
	token      string
	ttl        time.Duration
	httpClient *http.Client
	store      sync.Map // ip (string) -> *geoEntry
	done       chan struct{}
}

// New creates a Resolver and starts a background goroutine that prunes
// expired entries every hour.
func New(token string, ttl time.Duration) *Resolver {
	r := &Resolver{
		token:      token,
		ttl:        ttl,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		done:       make(chan struct{}),
	}
	go r.cleanupLoop()
	return r
}

// Enabled reports whether lookups will actually hit the API.
func (r *Resolver) Enabled() bool { return r.token != "" }

// Lookup resolves ip to its origin info, consulting the cache first.
// Private and loopback addresses are never sent to the API.
func (r *Resolver) Lookup(ctx context.Context, ip string) Info {
	if r.token == "" || ip == "" {
		return Info{}
	}
	if addr, err := netip.ParseAddr(ip); err != nil || addr.IsPrivate() || addr.IsLoopback() {
		return Info{}
	}

	if val, ok := r.store.Load(ip); ok {
		entry := val.(*geoEntry)
		if time.Now().Before(entry.expiresAt) {
			return entry.info
		}
		r.store.Delete(ip)
	}

	info, err := r.fetch(ctx, ip)
	if err != nil {
		slog.Debug("geo lookup failed", "ip", ip, "error", err)
	}
	// Cache failures too, as the zero Info, to bound the request rate
	// toward the API.
	r.store.Store(ip, &geoEntry{info: info, expiresAt: time.Now().Add(r.ttl)})
	return info
}

func (r *Resolver) fetch(ctx context.Context, ip string) (Info, error) {
	endpoint := fmt.Sprintf("https://ipinfo.io/%s?token=%s", ip, r.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Info{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("ipinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Info{}, fmt.Errorf("read ipinfo response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("ipinfo returned %d", resp.StatusCode)
	}

	var info Info
	if err := json.Unmarshal(body, &info); err != nil {
		return Info{}, fmt.Errorf("parse ipinfo response: %w", err)
	}
	return info, nil
}

// Stop terminates the background cleanup goroutine.
func (r *Resolver) Stop() {
	close(r.done)
}

func (r *Resolver) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			now := time.Now()
			r.store.Range(func(key, value any) bool {
				entry := value.(*geoEntry)
				if now.After(entry.expiresAt) {
					r.store.Delete(key)
				}
				return true
			})
		}
	}
}
