package collect

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"newsbrief/internal/dedup"
	"newsbrief/internal/news"
)

// maxSummaryLen caps the cleaned summary stored on an article.
const maxSummaryLen = 500

// freshnessWindow is how far back an entry with a parseable timestamp
// may lie and still be accepted.
const freshnessWindow = 24 * time.Hour

// Endpoint is one feed URL with the category it contributes to.
type Endpoint struct {
	URL      string
	Category news.Category
}

// Fetcher retrieves and normalizes entries from a single feed endpoint.
type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
	clock   func() time.Time
}

// NewFetcher creates a fetcher with the given per-feed timeout.
// A nil clock defaults to time.Now.
func NewFetcher(timeout time.Duration, clock func() time.Time) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if clock == nil {
		clock = time.Now
	}
	return &Fetcher{
		parser:  gofeed.NewParser(),
		timeout: timeout,
		clock:   clock,
	}
}

// Fetch retrieves one endpoint and returns its accepted articles.
// It never fails the run: any retrieval or parse error is logged and
// yields zero articles.
func (f *Fetcher) Fetch(ctx context.Context, ep Endpoint, det *dedup.Detector, capPerSource int) []news.Article {
	feed, err := f.download(ctx, ep.URL)
	if err != nil {
		log.Printf("Failed to fetch feed %s: %v", ep.URL, err)
		return nil
	}
	return f.extract(feed, ep, det, capPerSource)
}

// download retrieves and parses the feed within the fetcher's timeout.
func (f *Fetcher) download(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.parser.ParseURLWithContext(url, ctx)
}

// extract normalizes the feed's entries into articles: per-feed cap,
// markup stripping, dedup, and the freshness window.
func (f *Fetcher) extract(feed *gofeed.Feed, ep Endpoint, det *dedup.Detector, capPerSource int) []news.Article {
	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = ep.URL
	}

	items := feed.Items
	if capPerSource > 0 && len(items) > capPerSource {
		items = items[:capPerSource]
	}

	now := f.clock()
	var articles []news.Article
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		published := item.Published
		if published == "" {
			published = item.Updated
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		summary = truncateRunes(stripMarkup(summary), maxSummaryLen)

		if !det.Accept(title) {
			continue
		}

		article := news.Article{
			Title:        title,
			Link:         item.Link,
			Summary:      summary,
			PublishedRaw: published,
			Category:     ep.Category,
			Source:       source,
		}

		// An unparseable timestamp keeps the entry: freshness cannot be
		// verified, so the article is not penalized.
		if t, ok := parseDate(published); ok {
			if now.Sub(t) > freshnessWindow {
				continue
			}
			article.PublishedAt = &t
		}

		articles = append(articles, article)
	}

	return articles
}

// stripMarkup removes HTML tags and entities from feed summaries,
// returning trimmed plain text.
func stripMarkup(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
