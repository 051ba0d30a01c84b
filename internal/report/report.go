// Package report renders the daily briefing as Markdown, HTML, and JSON
// files on disk.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"newsbrief/internal/news"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New()

const maxTagsPerItem = 5

// Paths holds the locations of the files produced for one report.
type Paths struct {
	Markdown string
	HTML     string
	JSON     string
}

// Writer renders and saves daily reports.
type Writer struct {
	dir   string
	clock func() time.Time
	page  *template.Template
}

// NewWriter creates a report writer that saves into dir. A nil clock
// defaults to time.Now.
func NewWriter(dir string, clock func() time.Time) (*Writer, error) {
	if clock == nil {
		clock = time.Now
	}
	page, err := template.New("report.html").ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return nil, fmt.Errorf("parsing report template: %w", err)
	}
	return &Writer{dir: dir, clock: clock, page: page}, nil
}

// Write renders all three report formats and saves them under the
// writer's directory, named after today's date.
func (w *Writer) Write(articles []news.Enriched) (Paths, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("creating report directory: %w", err)
	}

	now := w.clock()
	date := now.Format("2006-01-02")
	markdown := w.Markdown(articles)

	paths := Paths{
		Markdown: filepath.Join(w.dir, fmt.Sprintf("news_report_%s.md", date)),
		HTML:     filepath.Join(w.dir, fmt.Sprintf("news_report_%s.html", date)),
		JSON:     filepath.Join(w.dir, fmt.Sprintf("news_report_%s.json", date)),
	}

	if err := os.WriteFile(paths.Markdown, []byte(markdown), 0o644); err != nil {
		return Paths{}, fmt.Errorf("writing markdown report: %w", err)
	}

	html, err := w.renderHTML(markdown, date, len(articles))
	if err != nil {
		return Paths{}, err
	}
	if err := os.WriteFile(paths.HTML, []byte(html), 0o644); err != nil {
		return Paths{}, fmt.Errorf("writing html report: %w", err)
	}

	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("encoding report json: %w", err)
	}
	if err := os.WriteFile(paths.JSON, data, 0o644); err != nil {
		return Paths{}, fmt.Errorf("writing json report: %w", err)
	}

	log.Printf("Report saved: %s (%d articles)", paths.Markdown, len(articles))
	return paths, nil
}

// Markdown renders the briefing body: a dated header, per-category
// counts, then every article grouped by category.
func (w *Writer) Markdown(articles []news.Enriched) string {
	grouped := groupByCategory(articles)

	var b strings.Builder
	b.WriteString("# Daily News Briefing\n\n")
	fmt.Fprintf(&b, "**Updated**: %s\n", w.clock().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Articles**: %d\n\n---\n\n", len(articles))

	b.WriteString("## Overview\n\n")
	for _, cat := range news.Categories {
		fmt.Fprintf(&b, "- **%s**: %d\n", cat.Label(), len(grouped[cat]))
	}
	b.WriteString("\n---\n\n")

	for _, cat := range news.Categories {
		items := grouped[cat]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", cat.Label())
		for i, item := range items {
			b.WriteString(formatItem(i+1, item))
			b.WriteString("\n")
		}
		b.WriteString("---\n\n")
	}

	b.WriteString("## Disclaimer\n\n")
	b.WriteString("This briefing is for reference only and is not investment advice.\n")
	return b.String()
}

func groupByCategory(articles []news.Enriched) map[news.Category][]news.Enriched {
	grouped := make(map[news.Category][]news.Enriched, len(news.Categories))
	for _, a := range articles {
		cat := a.Category
		if !cat.Valid() {
			cat = news.CategoryTech
		}
		grouped[cat] = append(grouped[cat], a)
	}
	return grouped
}

func formatItem(index int, item news.Enriched) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %d. %s\n\n", index, item.Title)
	fmt.Fprintf(&b, "> **Core point**: %s\n", item.CorePoint)

	if item.FundSignal != "" && item.FundSignal != "not applicable" {
		fmt.Fprintf(&b, "> **Fund signal**: %s\n", item.FundSignal)
		if item.FundDetails != "" {
			fmt.Fprintf(&b, ">   %s\n", item.FundDetails)
		}
	}

	fmt.Fprintf(&b, "> **Developer impact**: %s\n", item.DevImpact)
	fmt.Fprintf(&b, "> **Relevance**: %s\n", item.Relevance)
	fmt.Fprintf(&b, "> **Impact level**: %s\n", item.ImpactLevel)
	fmt.Fprintf(&b, "> **Timeliness**: %s\n", item.Timeliness)
	fmt.Fprintf(&b, "> **Certainty**: %s\n", item.Certainty)
	fmt.Fprintf(&b, "> **Opportunity**: %s\n", item.OpportunityType)

	if len(item.KeyWords) > 0 {
		tags := item.KeyWords
		if len(tags) > maxTagsPerItem {
			tags = tags[:maxTagsPerItem]
		}
		var quoted []string
		for _, kw := range tags {
			quoted = append(quoted, "`"+kw+"`")
		}
		fmt.Fprintf(&b, "> **Tags**: %s\n", strings.Join(quoted, " "))
	}

	if item.Link != "" {
		fmt.Fprintf(&b, "> **Source**: [%s](%s)\n", item.Source, item.Link)
	} else {
		fmt.Fprintf(&b, "> **Source**: %s\n", item.Source)
	}
	return b.String()
}

func (w *Writer) renderHTML(markdown, date string, count int) (string, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	var out bytes.Buffer
	err := w.page.Execute(&out, map[string]any{
		"Date":  date,
		"Count": count,
		"Body":  template.HTML(body.String()), //nolint: gosec
	})
	if err != nil {
		return "", fmt.Errorf("rendering html report: %w", err)
	}
	return out.String(), nil
}
