package models

import "time"

// Visit is one logged request against the decoy surface. Rows are
// append-only: the server inserts them and never updates or deletes.
type Visit struct {
	// ID is a UUID assigned when the visit is recorded.
	ID string `json:"id"`

	// Time is when the request was received, UTC.
	Time time.Time `json:"time"`

	// BotName is the visitor identity the variant assignment is keyed on.
	// Empty for human visitors.
	BotName string `json:"bot_name,omitempty"`

	// Variant is the template variant served, 1-based. Zero for humans.
	Variant int `json:"variant,omitempty"`

	// Seed is the fake-data seed the served page was woven with.
	Seed int64 `json:"seed,omitempty"`

	// Method and Path describe the request line. Query carries the raw
	// query string when present.
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  string `json:"query,omitempty"`

	// ClientIP is the remote address after proxy header resolution.
	ClientIP string `json:"client_ip"`

	// UserAgent is the raw User-Agent header.
	UserAgent string `json:"user_agent"`

	// Referer is the raw Referer header when present.
	Referer string `json:"referer,omitempty"`

	// Status and Bytes describe the response sent back.
	Status int `json:"status"`
	Bytes  int `json:"bytes"`

	// DurationMS is the server-side handling time in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Trap is true when the request hit a path only advertised through
	// robots.txt Disallow lines.
	Trap bool `json:"trap,omitempty"`

	// TLSFingerprint is the ClientHello digest when TLS capture is on.
	TLSFingerprint string `json:"tls_fingerprint,omitempty"`

	// Country and Org are filled from IP enrichment when available.
	Country string `json:"country,omitempty"`
	Org     string `json:"org,omitempty"`

	// ContentHash is the hex SimHash of the served page text. Pages woven
	// from the same (variant, seed) hash identically, so republished text
	// can be matched back to the visitor that scraped it.
	ContentHash string `json:"content_hash,omitempty"`
}

// VisitFilter narrows a visit query. Zero values mean "no constraint".
type VisitFilter struct {
	// Bot restricts results to one visitor identity.
	Bot string

	// Since restricts results to visits at or after this instant.
	Since time.Time

	// Limit caps the number of rows returned, newest first.
	// Default: 100. Max: 1000.
	Limit int
}

// Defaults applies default values to unset fields.
func (f *VisitFilter) Defaults() {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Limit > 1000 {
		f.Limit = 1000
	}
}
