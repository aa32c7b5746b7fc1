package handler

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wovenlabs/gossamer/assign"
	"github.com/wovenlabs/gossamer/cache"
	"github.com/wovenlabs/gossamer/detect"
	"github.com/wovenlabs/gossamer/forge"
	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/tarpit"
	"github.com/wovenlabs/gossamer/tlsfp"
	"github.com/wovenlabs/gossamer/visitlog"
	"github.com/wovenlabs/gossamer/webhook"
)

const contentTypeHTML = "text/html; charset=utf-8"

// DecoyOptions bundles the optional pieces of the decoy surface.
type DecoyOptions struct {
	// Home is the page served to human visitors at the site root.
	Home []byte

	// Tarpit, when enabled, drip-feeds decoy bodies to bots.
	Tarpit *tarpit.Limiter

	// TLS is the live ClientHello table; nil when serving plain HTTP.
	TLS *tlsfp.Table

	// WebhookURL and WebhookSecret deliver trap.sprung alerts.
	WebhookURL    string
	WebhookSecret string
}

// Decoy returns the handler behind every page of the public site.
//
// Serving flow:
//  1. Classify the visitor from User-Agent and path.
//  2. Humans get the real home page (404 off the root) and no record.
//  3. Bots resolve to their stable (variant, seed) assignment.
//  4. Cache lookup, weave on miss.
//  5. Serve, through the tarpit when enabled, and queue the visit.
func Decoy(det *detect.Detector, f *forge.Forge, as *assign.Assigner, cc *cache.Cache, vl *visitlog.Logger, opts DecoyOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		verdict := det.Classify(c.Request.UserAgent(), c.Request.URL.Path, c.ClientIP())

		// ── Humans see a normal website ─────────────────────────────
		if !verdict.Bot {
			if c.Request.URL.Path != "/" {
				c.String(http.StatusNotFound, "404 page not found")
				return
			}
			c.Data(http.StatusOK, contentTypeHTML, opts.Home)
			return
		}

		// ── Bots get their assigned variant, on every path ──────────
		variant, seed := as.For(c.Request.Context(), verdict.Name)

		format, contentType := decoyFormat(c)
		key := cache.Key(variant, seed, format)
		page, hit := cc.Get(key)
		if !hit {
			var err error
			page, err = f.Weave(variant, seed, format)
			if err != nil {
				status := decoyStatus(err)
				c.String(status, "service temporarily unavailable")
				recordVisit(c, vl, verdict, variant, seed, status, 0, "", opts.TLS, start)
				return
			}
			cc.Set(key, page)
		}

		if verdict.Trap && opts.WebhookURL != "" {
			webhook.DeliverAsync(opts.WebhookURL, opts.WebhookSecret, &webhook.Event{
				Type:      webhook.EventTrapSprung,
				BotName:   verdict.Name,
				Timestamp: time.Now().Unix(),
				Data: map[string]string{
					"path":       c.Request.URL.Path,
					"client_ip":  c.ClientIP(),
					"user_agent": c.Request.UserAgent(),
				},
			})
		}

		body := []byte(page.Content)
		if opts.Tarpit != nil && opts.Tarpit.Enabled() {
			c.Header("Content-Type", contentType)
			c.Status(http.StatusOK)
			opts.Tarpit.Copy(c.Request.Context(), c.Writer, bytes.NewReader(body))
		} else {
			c.Data(http.StatusOK, contentType, body)
		}

		hash := fmt.Sprintf("%016x", page.Hash)
		recordVisit(c, vl, verdict, variant, seed, http.StatusOK, len(body), hash, opts.TLS, start)
	}
}

// decoyFormat picks the rendition a bot receives. LLM-oriented scrapers
// that ask for markdown, via Accept or a format query parameter, get the
// markdown rendition; everyone else gets HTML. The persona content and
// the SimHash fingerprint are identical either way.
func decoyFormat(c *gin.Context) (format, contentType string) {
	if c.Query("format") == "markdown" ||
		strings.Contains(c.GetHeader("Accept"), "text/markdown") {
		return forge.FormatMarkdown, "text/markdown; charset=utf-8"
	}
	return forge.FormatHTML, contentTypeHTML
}

// Robots serves the generated robots.txt.
func Robots(content string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, content)
	}
}

func recordVisit(c *gin.Context, vl *visitlog.Logger, verdict detect.Verdict, variant int, seed int64, status, size int, hash string, tls *tlsfp.Table, start time.Time) {
	v := &models.Visit{
		BotName:     verdict.Name,
		Variant:     variant,
		Seed:        seed,
		Method:      c.Request.Method,
		Path:        c.Request.URL.Path,
		Query:       c.Request.URL.RawQuery,
		ClientIP:    c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Referer:     c.Request.Referer(),
		Status:      status,
		Bytes:       size,
		DurationMS:  time.Since(start).Milliseconds(),
		Trap:        verdict.Trap,
		ContentHash: hash,
	}
	if tls != nil {
		v.TLSFingerprint = tls.Lookup(c.Request.RemoteAddr)
	}
	vl.Record(v)
}

// decoyStatus maps weave failures to the plain status served to bots.
// The decoy surface never explains itself with a JSON error body.
func decoyStatus(err error) int {
	var decoyErr *models.DecoyError
	if !errors.As(err, &decoyErr) {
		return http.StatusInternalServerError
	}
	switch decoyErr.Code {
	case models.ErrCodeCorpusUnavailable:
		return http.StatusServiceUnavailable
	case models.ErrCodeWeaveFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
