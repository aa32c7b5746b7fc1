// Package report renders Markdown activity reports from the store, for
// the ops API and the CLI.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/wovenlabs/gossamer/models"
	"github.com/wovenlabs/gossamer/storage"
)

// maxChartSlices caps how many bots get their own pie slice.
const maxChartSlices = 8

// Options tune the report contents.
type Options struct {
	Window time.Duration // recent activity window, default 24h
	Limit  int           // max rows in the recent activity table, default 50
}

func (o *Options) defaults() {
	if o.Window <= 0 {
		o.Window = 24 * time.Hour
	}
	if o.Limit <= 0 {
		o.Limit = 50
	}
}

// Generate writes a Markdown activity report built from the store.
func Generate(ctx context.Context, db storage.Store, opts Options, out io.Writer) error {
	opts.defaults()

	bots, err := db.ListBots(ctx)
	if err != nil {
		return fmt.Errorf("list bots: %w", err)
	}
	total, err := db.CountVisits(ctx)
	if err != nil {
		return fmt.Errorf("count visits: %w", err)
	}
	visits, err := db.QueryVisits(ctx, models.VisitFilter{
		Since: time.Now().Add(-opts.Window),
		Limit: opts.Limit,
	})
	if err != nil {
		return fmt.Errorf("query visits: %w", err)
	}

	md := markdown.NewMarkdown(out)
	writeHeader(md, db.Name(), total, len(bots))
	writeBots(md, bots)
	writeActivity(md, visits, opts.Window)
	writeTraps(md, visits)
	writeFooter(md)
	return md.Build()
}

func writeHeader(md *markdown.Markdown, store string, totalVisits int64, botCount int) {
	md.H1("Gossamer Activity Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", time.Now().UTC().Format("2006-01-02 15:04:05 MST")},
			{"Store", store},
			{"Known Bots", strconv.Itoa(botCount)},
			{"Total Visits", strconv.FormatInt(totalVisits, 10)},
		},
	})
	md.PlainText("")
}

func writeBots(md *markdown.Markdown, bots []models.BotSummary) {
	md.H2("Bots")
	md.PlainText("")

	if len(bots) == 0 {
		md.PlainText("No bots have been seen yet.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(bots))
	for i, b := range bots {
		rows[i] = []string{
			"`" + b.BotName + "`",
			strconv.Itoa(b.Variant),
			b.FirstSeen.UTC().Format("2006-01-02 15:04"),
			b.LastSeen.UTC().Format("2006-01-02 15:04"),
			strconv.FormatInt(b.Visits, 10),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Bot", "Variant", "First Seen", "Last Seen", "Visits"},
		Rows:   rows,
	})
	md.PlainText("")

	writeVisitChart(md, bots)
}

// writeVisitChart renders a mermaid pie chart of visits per bot.
func writeVisitChart(md *markdown.Markdown, bots []models.BotSummary) {
	byVisits := make([]models.BotSummary, len(bots))
	copy(byVisits, bots)
	sort.Slice(byVisits, func(i, j int) bool {
		return byVisits[i].Visits > byVisits[j].Visits
	})

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Visits by Bot"),
		piechart.WithShowData(true),
	)

	slices := 0
	for _, b := range byVisits {
		if b.Visits <= 0 || slices == maxChartSlices {
			break
		}
		chart.LabelAndIntValue(b.BotName, uint64(b.Visits))
		slices++
	}
	if slices == 0 {
		return
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeActivity(md *markdown.Markdown, visits []models.Visit, window time.Duration) {
	md.H2("Recent Activity")
	md.PlainText("")

	if len(visits) == 0 {
		md.PlainTextf("No visits in the last %s.", window)
		md.PlainText("")
		return
	}

	rows := make([][]string, len(visits))
	for i, v := range visits {
		country := v.Country
		if country == "" {
			country = "-"
		}
		rows[i] = []string{
			v.Time.UTC().Format("01-02 15:04:05"),
			"`" + v.BotName + "`",
			truncate(v.Path, 40),
			strconv.Itoa(v.Status),
			country,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Time", "Bot", "Path", "Status", "Country"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeTraps(md *markdown.Markdown, visits []models.Visit) {
	md.H2("Trap Hits")
	md.PlainText("")

	hits := 0
	paths := map[string]int{}
	for _, v := range visits {
		if v.Trap {
			hits++
			paths[v.Path]++
		}
	}

	if hits == 0 {
		md.Tip("No trap paths were hit in this window.")
		md.PlainText("")
		return
	}

	md.Warningf("%d trap hit(s) in this window. Something is crawling paths robots.txt forbids.", hits)
	md.PlainText("")

	hit := make([]string, 0, len(paths))
	for p, n := range paths {
		hit = append(hit, fmt.Sprintf("`%s` (%d)", p, n))
	}
	sort.Strings(hit)
	md.BulletList(hit...)
	md.PlainText("")
}

func writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by gossamer*")
}

// truncate shortens a string to maxLen characters with ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
