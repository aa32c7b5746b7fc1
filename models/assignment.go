package models

import "time"

// Assignment pins one visitor identity to a template variant and a
// fake-data seed. The pair is what keeps a bot's view of the site stable
// across requests: same bot, same page, byte for byte.
type Assignment struct {
	// BotName is the visitor identity, e.g. "Googlebot" or "GPTBot".
	// Unique per assignment.
	BotName string `json:"bot_name"`

	// Variant is the template variant number, 1-based.
	Variant int `json:"variant"`

	// Seed drives the fake data woven into the page. Always in
	// [1, 2^31-1]; rows persisted before seeding existed carry 0 and are
	// backfilled on first read.
	Seed int64 `json:"seed"`

	// CreatedAt is when the assignment was first persisted, UTC.
	CreatedAt time.Time `json:"created_at"`
}

// BotSummary is an assignment joined with visit aggregates, as returned
// by the bots listing.
type BotSummary struct {
	BotName string `json:"bot_name"`
	Variant int    `json:"variant"`
	Seed    int64  `json:"seed"`

	// FirstSeen and LastSeen bound the bot's observed visit times.
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`

	// Visits is the total number of logged requests from this bot.
	Visits int64 `json:"visits"`
}
