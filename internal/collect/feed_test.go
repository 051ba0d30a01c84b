package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"newsbrief/internal/dedup"
	"newsbrief/internal/news"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type rssItem struct {
	title   string
	link    string
	pubDate string
	desc    string
}

func rssBody(feedTitle string, items []rssItem) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel>`)
	fmt.Fprintf(&b, "<title>%s</title>", feedTitle)
	for _, it := range items {
		fmt.Fprintf(&b, "<item><title>%s</title><link>%s</link><pubDate>%s</pubDate><description>%s</description></item>",
			it.title, it.link, it.pubDate, it.desc)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func serveRSS(t *testing.T, feedTitle string, items []rssItem) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody(feedTitle, items))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fresh() string { return testNow.Add(-2 * time.Hour).Format("Mon, 02 Jan 2006 15:04:05 -0700") }
func stale() string { return testNow.Add(-30 * time.Hour).Format("Mon, 02 Jan 2006 15:04:05 -0700") }

func TestFetchBasicEntry(t *testing.T) {
	srv := serveRSS(t, "Example Feed", []rssItem{
		{title: "Quantum breakthrough announced", link: "https://example.com/1", pubDate: fresh(), desc: "<p>Big &amp; exciting news</p>"},
	})

	f := NewFetcher(5*time.Second, testClock)
	articles := f.Fetch(context.Background(), Endpoint{URL: srv.URL, Category: news.CategoryScience}, dedup.New(), 15)

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	a := articles[0]
	if a.Title != "Quantum breakthrough announced" {
		t.Errorf("unexpected title %q", a.Title)
	}
	if a.Summary != "Big & exciting news" {
		t.Errorf("expected markup stripped, got %q", a.Summary)
	}
	if a.Category != news.CategoryScience {
		t.Errorf("unexpected category %q", a.Category)
	}
	if a.Source != "Example Feed" {
		t.Errorf("expected feed title as source, got %q", a.Source)
	}
	if a.PublishedAt == nil {
		t.Error("expected parsed publish time")
	}
}

func TestFetchAppliesPerSourceCap(t *testing.T) {
	// Titles chosen with disjoint character sets so the near-duplicate
	// rule never fires and only the cap limits the count.
	var items []rssItem
	for _, title := range []string{"ABCD 1234", "EFGH 5678", "IJKL 906", "MNOP", "QRST"} {
		items = append(items, rssItem{title: title, pubDate: fresh()})
	}
	srv := serveRSS(t, "Busy Feed", items)

	f := NewFetcher(5*time.Second, testClock)
	articles := f.Fetch(context.Background(), Endpoint{URL: srv.URL, Category: news.CategoryTech}, dedup.New(), 3)

	if len(articles) != 3 {
		t.Errorf("expected exactly 3 articles under cap, got %d", len(articles))
	}
}

func TestFetchDropsStaleEntries(t *testing.T) {
	srv := serveRSS(t, "Feed", []rssItem{
		{title: "Old news from the archive", pubDate: stale()},
		{title: "EU budget vote passes", pubDate: fresh()},
	})

	f := NewFetcher(5*time.Second, testClock)
	articles := f.Fetch(context.Background(), Endpoint{URL: srv.URL, Category: news.CategorySociety}, dedup.New(), 15)

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if articles[0].Title != "EU budget vote passes" {
		t.Errorf("expected stale entry dropped, got %q", articles[0].Title)
	}
}

func TestFetchKeepsFreshAtomStyleTimestamp(t *testing.T) {
	// Atom feeds publish Z-suffixed RFC 3339 timestamps; an entry 16h
	// old is inside the 24h window and must keep its time of day, not
	// degrade to midnight and age out.
	published := testNow.Add(-16 * time.Hour)
	srv := serveRSS(t, "Atom Feed", []rssItem{
		{title: "Evening press conference recap", pubDate: published.Format(time.RFC3339)},
	})

	f := NewFetcher(5*time.Second, testClock)
	articles := f.Fetch(context.Background(), Endpoint{URL: srv.URL, Category: news.CategoryInternational}, dedup.New(), 15)

	if len(articles) != 1 {
		t.Fatalf("expected fresh entry kept, got %d articles", len(articles))
	}
	if articles[0].PublishedAt == nil {
		t.Fatal("expected parsed publish time")
	}
	if articles[0].PublishedAt.Hour() != published.Hour() {
		t.Errorf("expected time of day kept, got %v", articles[0].PublishedAt)
	}
}

func TestFetchKeepsUnparseableTimestamp(t *testing.T) {
	srv := serveRSS(t, "Feed", []rssItem{
		{title: "Mystery launch spotted", pubDate: "sometime last week"},
	})

	f := NewFetcher(5*time.Second, testClock)
	articles := f.Fetch(context.Background(), Endpoint{URL: srv.URL, Category: news.CategoryTech}, dedup.New(), 15)

	if len(articles) != 1 {
		t.Fatalf("expected unverifiable entry kept, got %d articles", len(articles))
	}
	if articles[0].PublishedAt != nil {
		t.Error("expected nil PublishedAt for unparseable timestamp")
	}
	if articles[0].PublishedRaw != "sometime last week" {
		t.Errorf("expected raw string preserved, got %q", articles[0].PublishedRaw)
	}
}

func TestFetchRejectsEmptyTitles(t *testing.T) {
	srv := serveRSS(t, "Feed", []rssItem{
		{title: "   ", pubDate: fresh()},
		{title: "Real headline here", pubDate: fresh()},
	})

	f := NewFetcher(5*time.Second, testClock)
	articles := f.Fetch(context.Background(), Endpoint{URL: srv.URL, Category: news.CategoryTech}, dedup.New(), 15)

	if len(articles) != 1 {
		t.Fatalf("expected empty-titled entry rejected, got %d articles", len(articles))
	}
}

func TestFetchCapsSummaryLength(t *testing.T) {
	srv := serveRSS(t, "Feed", []rssItem{
		{title: "Long story short", pubDate: fresh(), desc: strings.Repeat("x", 900)},
	})

	f := NewFetcher(5*time.Second, testClock)
	articles := f.Fetch(context.Background(), Endpoint{URL: srv.URL, Category: news.CategoryTech}, dedup.New(), 15)

	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	if got := len([]rune(articles[0].Summary)); got != maxSummaryLen {
		t.Errorf("expected summary capped at %d, got %d", maxSummaryLen, got)
	}
}

func TestFetchEndpointFailureYieldsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, testClock)
	articles := f.Fetch(context.Background(), Endpoint{URL: srv.URL, Category: news.CategoryTech}, dedup.New(), 15)

	if len(articles) != 0 {
		t.Errorf("expected no articles from failing endpoint, got %d", len(articles))
	}
}
