package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// botSummary mirrors the Gossamer API bot summary model.
type botSummary struct {
	BotName   string `json:"bot_name"`
	Variant   int    `json:"variant"`
	Seed      int64  `json:"seed"`
	FirstSeen string `json:"first_seen"`
	LastSeen  string `json:"last_seen"`
	Visits    int64  `json:"visits"`
}

// visit mirrors the Gossamer API visit model.
type visit struct {
	Time      string `json:"time"`
	BotName   string `json:"bot_name"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	ClientIP  string `json:"client_ip"`
	Status    int    `json:"status"`
	Trap      bool   `json:"trap"`
	Country   string `json:"country,omitempty"`
	UserAgent string `json:"user_agent"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// botsResponse mirrors the Gossamer bot listing API response.
type botsResponse struct {
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Bots    []botSummary `json:"bots"`
	Error   *apiError    `json:"error"`
}

// botProfileResponse mirrors the Gossamer bot profile API response.
type botProfileResponse struct {
	Success bool       `json:"success"`
	Bot     botSummary `json:"bot"`
	Visits  []visit    `json:"visits"`
	Error   *apiError  `json:"error"`
}

// previewResponse mirrors the Gossamer preview API response.
type previewResponse struct {
	Success     bool      `json:"success"`
	Variant     int       `json:"variant"`
	Seed        int64     `json:"seed"`
	Format      string    `json:"format"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	Persona     string    `json:"persona"`
	Error       *apiError `json:"error"`
}

// reportResponse mirrors the Gossamer report API response.
type reportResponse struct {
	Success  bool      `json:"success"`
	Markdown string    `json:"markdown"`
	Error    *apiError `json:"error"`
}

func main() {
	apiURL := os.Getenv("GOSSAMER_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("GOSSAMER_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "GOSSAMER_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"gossamer",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	listBotsTool := mcp.NewTool("list_bots",
		mcp.WithDescription("List every scraper bot the honeypot has seen, with its assigned decoy variant and visit counts."),
	)
	s.AddTool(listBotsTool, handleListBots(apiURL, apiKey))

	botProfileTool := mcp.NewTool("bot_profile",
		mcp.WithDescription("Show one bot's decoy assignment and its most recent requests."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The bot name, e.g. 'GPTBot' or 'trap:203.0.113.9'"),
		),
	)
	s.AddTool(botProfileTool, handleBotProfile(apiURL, apiKey))

	previewTool := mcp.NewTool("preview_variant",
		mcp.WithDescription("Render a decoy variant exactly as a bot holding that assignment would receive it."),
		mcp.WithNumber("variant",
			mcp.Required(),
			mcp.Description("The variant number to weave, 1-based"),
		),
		mcp.WithNumber("seed",
			mcp.Description("Persona seed; 0 or omitted picks a random seed"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'html' (default), 'markdown', or 'text'"),
			mcp.Enum("html", "markdown", "text"),
		),
	)
	s.AddTool(previewTool, handlePreview(apiURL, apiKey))

	reportTool := mcp.NewTool("activity_report",
		mcp.WithDescription("Generate a Markdown activity report: known bots, recent visits and trap hits."),
		mcp.WithString("window",
			mcp.Description("Recent-activity window as a Go duration, e.g. '24h' or '7h30m' (default: 24h)"),
		),
	)
	s.AddTool(reportTool, handleReport(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiGet sends a GET request to the Gossamer API and returns the response body.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// apiPost sends a POST request to the Gossamer API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func errText(e *apiError, fallback string) string {
	if e != nil {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fallback
}

func handleListBots(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/bots")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("bots request failed: %v", err)), nil
		}

		var botsResp botsResponse
		if err := json.Unmarshal(respBody, &botsResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse bots response: %v", err)), nil
		}
		if !botsResp.Success {
			return mcp.NewToolResultError(errText(botsResp.Error, "bot listing failed")), nil
		}
		if botsResp.Count == 0 {
			return mcp.NewToolResultText("No bots have been seen yet."), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d known bot(s):\n\n", botsResp.Count))
		for _, b := range botsResp.Bots {
			sb.WriteString(fmt.Sprintf("- %s: variant %d, %d visit(s), first seen %s, last seen %s\n",
				b.BotName, b.Variant, b.Visits, b.FirstSeen, b.LastSeen))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleBotProfile(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name is required"), nil
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/bots/"+url.PathEscape(name))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("profile request failed: %v", err)), nil
		}

		var profResp botProfileResponse
		if err := json.Unmarshal(respBody, &profResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse profile response: %v", err)), nil
		}
		if !profResp.Success {
			return mcp.NewToolResultError(errText(profResp.Error, "profile lookup failed")), nil
		}

		b := profResp.Bot
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Bot: %s\nVariant: %d\nSeed: %d\nFirst seen: %s\nLast seen: %s\nVisits: %d\n",
			b.BotName, b.Variant, b.Seed, b.FirstSeen, b.LastSeen, b.Visits))

		if len(profResp.Visits) > 0 {
			sb.WriteString("\nRecent requests:\n")
			for _, v := range profResp.Visits {
				trap := ""
				if v.Trap {
					trap = " [TRAP]"
				}
				sb.WriteString(fmt.Sprintf("- %s %s %s -> %d from %s%s\n",
					v.Time, v.Method, v.Path, v.Status, v.ClientIP, trap))
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handlePreview(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		variant, ok := args["variant"].(float64)
		if !ok || variant < 1 {
			return mcp.NewToolResultError("variant is required and must be a positive number"), nil
		}

		payload := map[string]interface{}{
			"variant": int(variant),
		}
		if seed, ok := args["seed"].(float64); ok && seed > 0 {
			payload["seed"] = int64(seed)
		}
		if format := request.GetString("format", ""); format != "" {
			payload["format"] = format
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/preview", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("preview request failed: %v", err)), nil
		}

		var prevResp previewResponse
		if err := json.Unmarshal(respBody, &prevResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse preview response: %v", err)), nil
		}
		if !prevResp.Success {
			return mcp.NewToolResultError(errText(prevResp.Error, "preview failed")), nil
		}

		header := fmt.Sprintf("Variant: %d\nSeed: %d\nPersona: %s\nContent hash: %s\n\n",
			prevResp.Variant, prevResp.Seed, prevResp.Persona, prevResp.ContentHash)
		return mcp.NewToolResultText(header + prevResp.Content), nil
	}
}

func handleReport(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := "/api/v1/report"
		if window := request.GetString("window", ""); window != "" {
			path += "?window=" + url.QueryEscape(window)
		}

		respBody, err := apiGet(ctx, client, apiURL, apiKey, path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("report request failed: %v", err)), nil
		}

		var repResp reportResponse
		if err := json.Unmarshal(respBody, &repResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse report response: %v", err)), nil
		}
		if !repResp.Success {
			return mcp.NewToolResultError(errText(repResp.Error, "report generation failed")), nil
		}

		return mcp.NewToolResultText(repResp.Markdown), nil
	}
}
