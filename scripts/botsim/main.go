package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
)

// CLI flags
var (
	target   = flag.String("target", "http://localhost:8080", "Gossamer base URL")
	runs     = flag.Int("runs", 5, "Requests per bot persona")
	parallel = flag.Int("parallel", 4, "Concurrent bot personas")
	trapPath = flag.String("trap", "/admin-portal", "Trap path to probe")
	output   = flag.String("output", "botsim-results.json", "JSON output file path")
)

// Bot personas covering the AI scrapers the honeypot targets. Each must
// see its own page, and the same page on every request.
var personas = []struct {
	Label string
	UA    string
}{
	{"GPTBot", "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko); compatible; GPTBot/1.2; +https://openai.com/gptbot"},
	{"ClaudeBot", "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko); compatible; ClaudeBot/1.0; +claudebot@anthropic.com"},
	{"CCBot", "CCBot/2.0 (https://commoncrawl.org/faq/)"},
	{"Bytespider", "Mozilla/5.0 (Linux; Android 5.0) AppleWebKit/537.36 (KHTML, like Gecko) Mobile Safari/537.36 (compatible; Bytespider; spider-feedback@bytedance.com)"},
	{"PerplexityBot", "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; PerplexityBot/1.0; +https://perplexity.ai/perplexitybot)"},
	{"Amazonbot", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10_1) AppleWebKit/600.2.5 (KHTML, like Gecko) Version/8.0.2 Safari/600.2.5 (Amazonbot/0.1; +https://developer.amazon.com/support/amazonbot)"},
	{"Meta-ExternalAgent", "meta-externalagent/1.1 (+https://developers.facebook.com/docs/sharing/webmasters/crawler)"},
}

const humanUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// --- Result types ---

type runResult struct {
	Run       int    `json:"run"`
	Status    int    `json:"status"`
	Bytes     int    `json:"bytes"`
	Hash      string `json:"hash"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type botResult struct {
	Bot        string      `json:"bot"`
	Runs       []runResult `json:"runs"`
	Stable     bool        `json:"stable"`
	Hash       string      `json:"hash"`
	TrapStatus int         `json:"trap_status"`
	AvgMs      int64       `json:"avg_ms"`
}

type humanResult struct {
	RootStatus    int    `json:"root_status"`
	RootHash      string `json:"root_hash"`
	MissStatus    int    `json:"miss_status"`
	SharesBotPage bool   `json:"shares_bot_page"`
}

type simReport struct {
	Timestamp string      `json:"timestamp"`
	Target    string      `json:"target"`
	Runs      int         `json:"runs_per_bot"`
	Bots      []botResult `json:"bots"`
	Human     humanResult `json:"human"`
	Distinct  int         `json:"distinct_pages"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Gossamer Bot Simulator ===")
	fmt.Printf("Target:    %s\n", *target)
	fmt.Printf("Runs/bot:  %d\n", *runs)
	fmt.Printf("Personas:  %d\n", len(personas))
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*target); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach %s: %v\n", *target, err)
		fmt.Fprintf(os.Stderr, "Make sure Gossamer is running (e.g. make run)\n")
		os.Exit(1)
	}

	report := simReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Target:    *target,
		Runs:      *runs,
		Bots:      make([]botResult, len(personas)),
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(*parallel)

	for i, p := range personas {
		g.Go(func() error {
			report.Bots[i] = simulateBot(ctx, p.Label, p.UA)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	report.Human = simulateHuman(context.Background(), report.Bots)
	report.Distinct = countDistinct(report.Bots)

	printTable(report)

	failures := verify(report)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "\n%d check(s) failed\n", failures)
		os.Exit(1)
	}
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// simulateBot replays one scraper persona and records what it was served.
func simulateBot(ctx context.Context, label, ua string) botResult {
	br := botResult{Bot: label, Stable: true}

	var totalMs int64
	for i := 1; i <= *runs; i++ {
		rr := fetch(ctx, *target+"/", ua, i)
		br.Runs = append(br.Runs, rr)
		totalMs += rr.LatencyMs

		if rr.Error != "" || rr.Status != http.StatusOK {
			br.Stable = false
			continue
		}
		if br.Hash == "" {
			br.Hash = rr.Hash
		} else if rr.Hash != br.Hash {
			br.Stable = false
		}
	}
	if len(br.Runs) > 0 {
		br.AvgMs = totalMs / int64(len(br.Runs))
	}

	// A trap hit must still serve the decoy, never a block page.
	trap := fetch(ctx, *target+*trapPath, ua, 0)
	br.TrapStatus = trap.Status

	return br
}

// simulateHuman runs the control: a browser must get the landing page on
// "/", a 404 elsewhere, and never a bot's decoy page.
func simulateHuman(ctx context.Context, bots []botResult) humanResult {
	hr := humanResult{}

	root := fetch(ctx, *target+"/", humanUA, 0)
	hr.RootStatus = root.Status
	hr.RootHash = root.Hash

	miss := fetch(ctx, *target+"/about", humanUA, 0)
	hr.MissStatus = miss.Status

	for _, b := range bots {
		if b.Hash != "" && b.Hash == hr.RootHash {
			hr.SharesBotPage = true
		}
	}
	return hr
}

func fetch(ctx context.Context, url, ua string, run int) runResult {
	rr := runResult{Run: run}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("User-Agent", ua)

	client := &http.Client{Timeout: 60 * time.Second}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	rr.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		rr.Error = fmt.Sprintf("read error: %v", err)
		return rr
	}

	rr.Status = resp.StatusCode
	rr.Bytes = len(body)
	rr.Hash = fmt.Sprintf("%x", sha256.Sum256(body))[:12]
	return rr
}

func countDistinct(bots []botResult) int {
	seen := map[string]bool{}
	for _, b := range bots {
		if b.Hash != "" {
			seen[b.Hash] = true
		}
	}
	return len(seen)
}

func printTable(report simReport) {
	fmt.Println(strings.Repeat("─", 70))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Bot\tRuns\tStable\tPage\tTrap\tAvg Latency\n")
	fmt.Fprintf(w, "───\t────\t──────\t────\t────\t───────────\n")

	for _, b := range report.Bots {
		stable := "yes"
		if !b.Stable {
			stable = "NO"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%dms\n",
			b.Bot, len(b.Runs), stable, b.Hash, b.TrapStatus, b.AvgMs)
	}

	fmt.Fprintf(w, "human\t2\t-\t%s\t-\t-\n", report.Human.RootHash)
	w.Flush()
	fmt.Println(strings.Repeat("─", 70))

	fmt.Printf("Distinct decoy pages: %d across %d bots\n", report.Distinct, len(report.Bots))
}

// verify prints pass/fail lines and returns the failure count.
func verify(report simReport) int {
	failures := 0

	for _, b := range report.Bots {
		if !b.Stable {
			fmt.Printf("FAIL  %s did not get a stable page\n", b.Bot)
			failures++
		}
		if b.TrapStatus != http.StatusOK {
			fmt.Printf("FAIL  %s got %d on the trap path, expected 200\n", b.Bot, b.TrapStatus)
			failures++
		}
	}

	if report.Human.RootStatus != http.StatusOK {
		fmt.Printf("FAIL  human got %d on /, expected 200\n", report.Human.RootStatus)
		failures++
	}
	if report.Human.MissStatus != http.StatusNotFound {
		fmt.Printf("FAIL  human got %d off the landing page, expected 404\n", report.Human.MissStatus)
		failures++
	}
	if report.Human.SharesBotPage {
		fmt.Println("FAIL  human landing page matches a bot's decoy page")
		failures++
	}

	if failures == 0 {
		fmt.Println("All checks passed: every bot holds its own stable decoy, humans see the real site")
	}
	return failures
}

func writeJSON(path string, report simReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
