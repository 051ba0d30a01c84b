package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"newsbrief/internal/config"
	"newsbrief/internal/news"
)

var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func serveRSS(t *testing.T, title string, items ...string) *httptest.Server {
	t.Helper()
	body := fmt.Sprintf(`<?xml version="1.0"?><rss version="2.0"><channel><title>%s</title>%s</channel></rss>`, title, joinItems(items))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func joinItems(items []string) string {
	var out string
	for _, it := range items {
		out += it
	}
	return out
}

func rssItem(title string) string {
	pub := testNow.Add(-2 * time.Hour).Format(time.RFC1123Z)
	return fmt.Sprintf(`<item><title>%s</title><link>https://example.com/a</link><description>desc</description><pubDate>%s</pubDate></item>`, title, pub)
}

func testConfig(t *testing.T, feedURL string) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Categories = []config.CategorySources{
		{Name: news.CategoryTech, Feeds: []string{feedURL}},
	}
	cfg.Output.DataDir = t.TempDir()
	// Leave the analyzer unconfigured so enrichment uses defaults.
	cfg.Analyzer.APIKeyEnv = "NEWSBRIEF_TEST_MISSING_KEY"
	return cfg
}

func TestRunFullPipeline(t *testing.T) {
	srv := serveRSS(t, "Tech Feed", rssItem("ABCD 1234"), rssItem("EFGH 5678"))
	cfg := testConfig(t, srv.URL)

	p := New(cfg, testClock)
	result := p.Run(context.Background())

	if result.Failed() {
		t.Fatalf("pipeline failed: %+v", result.Steps)
	}
	if len(result.Steps) != 5 {
		t.Fatalf("expected 5 steps, got %d: %+v", len(result.Steps), result.Steps)
	}

	for _, name := range []string{"Collect", "Enrich", "Rank", "Report", "Catalog"} {
		found := false
		for _, s := range result.Steps {
			if s.Name == name {
				found = true
			}
		}
		if !found {
			t.Errorf("missing step %s", name)
		}
	}

	if _, err := os.Stat(result.Paths.Markdown); err != nil {
		t.Errorf("markdown report not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.DataDir, "data.json")); err != nil {
		t.Errorf("data.json not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.DataDir, "catalog.db")); err != nil {
		t.Errorf("catalog db not created: %v", err)
	}
}

func TestRunStopsWhenNothingCollected(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1/feed")

	p := New(cfg, testClock)
	result := p.Run(context.Background())

	if len(result.Steps) != 1 {
		t.Fatalf("expected a single failed step, got %+v", result.Steps)
	}
	if !errors.Is(result.Steps[0].Err, ErrNoArticles) {
		t.Errorf("expected ErrNoArticles, got %v", result.Steps[0].Err)
	}
	if !result.Failed() {
		t.Error("expected Failed() to report the aborted run")
	}
}

func TestRunSkipsCatalogWhenDisabled(t *testing.T) {
	srv := serveRSS(t, "Tech Feed", rssItem("ABCD 1234"))
	cfg := testConfig(t, srv.URL)
	cfg.Catalog.Enabled = false

	p := New(cfg, testClock)
	result := p.Run(context.Background())

	if result.Failed() {
		t.Fatalf("pipeline failed: %+v", result.Steps)
	}
	if len(result.Steps) != 4 {
		t.Fatalf("expected 4 steps without catalog, got %d", len(result.Steps))
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.DataDir, "catalog.db")); err == nil {
		t.Error("expected no catalog db when disabled")
	}
}
