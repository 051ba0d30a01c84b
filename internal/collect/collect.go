package collect

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"newsbrief/internal/config"
	"newsbrief/internal/dedup"
	"newsbrief/internal/news"
)

// Result holds the summary of one aggregation run.
type Result struct {
	Articles  []news.Article
	Endpoints int
	Failed    int
	Dropped   int // rejected as duplicate, stale, or capped
}

// Aggregator fans the fetcher out over every registry endpoint and
// merges the results into one recency-sorted, capped slice.
type Aggregator struct {
	fetcher     *Fetcher
	registry    []Endpoint
	perSource   int
	total       int
	concurrency int
}

// NewAggregator builds an aggregator from configuration.
func NewAggregator(cfg *config.Config, clock func() time.Time) *Aggregator {
	var registry []Endpoint
	for _, cs := range cfg.Categories {
		for _, url := range cs.Feeds {
			registry = append(registry, Endpoint{URL: url, Category: cs.Name})
		}
	}

	concurrency := cfg.Collect.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Aggregator{
		fetcher:     NewFetcher(time.Duration(cfg.Collect.TimeoutSeconds)*time.Second, clock),
		registry:    registry,
		perSource:   cfg.Limits.PerSource,
		total:       cfg.Limits.Total,
		concurrency: concurrency,
	}
}

// Registry returns the configured endpoints in registry order.
func (a *Aggregator) Registry() []Endpoint {
	return a.registry
}

// Collect runs one aggregation pass. The network stage fans out over a
// bounded worker pool; extraction and dedup then run sequentially in
// registry order so first-seen-wins is reproducible regardless of which
// fetch finished first. Collect never fails: endpoints that error out
// contribute zero articles, and an empty result is the caller's signal
// that every source failed.
func (a *Aggregator) Collect(ctx context.Context) *Result {
	feeds := a.downloadAll(ctx)

	det := dedup.New()
	r := &Result{Endpoints: len(a.registry)}
	entries := 0

	for i, ep := range a.registry {
		if feeds[i] == nil {
			r.Failed++
			continue
		}
		articles := a.fetcher.extract(feeds[i], ep, det, a.perSource)
		entries += len(feeds[i].Items)
		r.Articles = append(r.Articles, articles...)
		log.Printf("Collected %d articles from %s/%s", len(articles), ep.Category, ep.URL)
	}
	r.Dropped = entries - len(r.Articles)

	sortByRecency(r.Articles)
	if a.total > 0 && len(r.Articles) > a.total {
		r.Dropped += len(r.Articles) - a.total
		r.Articles = r.Articles[:a.total]
	}

	log.Printf("Aggregation complete: %d articles from %d endpoints (%d failed)",
		len(r.Articles), r.Endpoints, r.Failed)
	return r
}

// downloadAll fetches every endpoint through the worker pool and
// returns parsed feeds indexed by registry position. Failed endpoints
// are nil.
func (a *Aggregator) downloadAll(ctx context.Context) []*gofeed.Feed {
	feeds := make([]*gofeed.Feed, len(a.registry))
	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup

	for i, ep := range a.registry {
		wg.Add(1)
		go func(i int, ep Endpoint) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			feed, err := a.fetcher.download(ctx, ep.URL)
			if err != nil {
				log.Printf("Failed to fetch feed %s: %v", ep.URL, err)
				return
			}
			feeds[i] = feed
		}(i, ep)
	}
	wg.Wait()
	return feeds
}

// sortByRecency orders articles newest first by parsed publish time.
// Articles without a parseable timestamp sort last; ties keep their
// insertion (registry) order.
func sortByRecency(articles []news.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		ti, tj := articles[i].PublishedAt, articles[j].PublishedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
}
