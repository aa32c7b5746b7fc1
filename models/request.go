package models

// PreviewRequest is the payload for POST /api/v1/preview. It renders a
// variant exactly as a bot holding that assignment would receive it.
type PreviewRequest struct {
	// Variant is the template variant number to weave, 1-based.
	// Required.
	Variant int `json:"variant" binding:"required,min=1"`

	// Seed drives the fake data. 0 means pick a random seed; otherwise
	// must be in [1, 2147483647].
	Seed int64 `json:"seed,omitempty" binding:"omitempty,min=0,max=2147483647"`

	// Format controls the response body format.
	// Allowed: "html" (default), "markdown", "text".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=html markdown text"`
}

// Defaults applies default values to unset fields.
func (r *PreviewRequest) Defaults() {
	if r.Format == "" {
		r.Format = "html"
	}
}

// VisitsRequest carries the query parameters for GET /api/v1/visits.
type VisitsRequest struct {
	// Bot restricts results to one visitor identity.
	Bot string `form:"bot"`

	// Since restricts results to visits at or after this RFC 3339 instant.
	Since string `form:"since"`

	// Limit caps the number of rows returned, newest first.
	// Default: 100. Max: 1000.
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}
