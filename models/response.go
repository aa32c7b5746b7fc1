package models

// ErrorResponse is the uniform error envelope for API failures.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	// Status is "healthy" or "degraded". Degraded means the corpus
	// produced no sections or the store is unreachable.
	Status string `json:"status"`

	// Uptime is a human-readable duration since process start.
	Uptime string `json:"uptime"`

	// Sections is the number of top-level corpus sections loaded.
	Sections int `json:"sections"`

	// Variants is the total number of servable template variants.
	Variants int `json:"variants"`

	// PersonaTypes is the number of persona types in the catalog.
	PersonaTypes int `json:"persona_types"`

	// Store names the configured backend ("supabase", "postgres",
	// "sqlite"). StoreOK reports the last ping result.
	Store   string `json:"store"`
	StoreOK bool   `json:"store_ok"`

	Version string `json:"version"`
}

// PreviewResponse is the response for POST /api/v1/preview.
type PreviewResponse struct {
	Success bool `json:"success"`

	// Variant and Seed echo the woven assignment. Seed is the one
	// actually used, so a random pick is reported back.
	Variant int   `json:"variant"`
	Seed    int64 `json:"seed"`

	// Format is the content format: "html", "markdown" or "text".
	Format string `json:"format"`

	// Content is the woven page.
	Content string `json:"content"`

	// ContentHash is the hex SimHash of the woven page text.
	ContentHash string `json:"content_hash"`

	// Persona names the persona type the fake data was drawn from.
	Persona string `json:"persona"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// VisitsResponse is the response for GET /api/v1/visits.
type VisitsResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Visits  []Visit      `json:"visits"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// BotsResponse is the response for GET /api/v1/bots.
type BotsResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Bots    []BotSummary `json:"bots"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// ReportResponse wraps the operator activity report.
type ReportResponse struct {
	Success bool `json:"success"`

	// Markdown is the rendered report body.
	Markdown string `json:"markdown"`

	// GeneratedAt is the RFC 3339 render time.
	GeneratedAt string `json:"generated_at"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// BotProfileResponse is the response for GET /api/v1/bots/:name.
type BotProfileResponse struct {
	Success bool       `json:"success"`
	Bot     BotSummary `json:"bot"`

	// Visits holds the bot's most recent requests, newest first.
	Visits []Visit `json:"visits"`

	Error *ErrorDetail `json:"error,omitempty"`
}
