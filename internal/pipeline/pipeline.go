// Package pipeline orchestrates the daily briefing run: collect,
// enrich, rank, report, catalog.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"newsbrief/internal/analyze"
	"newsbrief/internal/catalog"
	"newsbrief/internal/collect"
	"newsbrief/internal/config"
	"newsbrief/internal/llm"
	"newsbrief/internal/news"
	"newsbrief/internal/rank"
	"newsbrief/internal/report"
)

// ErrNoArticles means every configured source failed or returned
// nothing; there is no briefing to produce.
var ErrNoArticles = errors.New("no articles collected")

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Date  string
	Steps []StepResult
	Paths report.Paths
}

// Failed reports whether any step errored.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Pipeline wires the stages together from configuration.
type Pipeline struct {
	cfg      *config.Config
	provider llm.Provider
	clock    func() time.Time
}

// New creates a pipeline. A nil clock defaults to time.Now.
func New(cfg *config.Config, clock func() time.Time) *Pipeline {
	if clock == nil {
		clock = time.Now
	}
	provider := llm.NewChatClient(cfg.Analyzer.Endpoint, cfg.Analyzer.Model, cfg.Analyzer.APIKey())
	return &Pipeline{cfg: cfg, provider: provider, clock: clock}
}

// Run executes the full pipeline and returns per-step results. The run
// stops early only when collection yields nothing; enrichment failures
// degrade to default analyses instead of aborting.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{Date: p.clock().Format("2006-01-02")}

	log.Println("Step 1/5: Collecting articles...")
	agg := collect.NewAggregator(p.cfg, p.clock)
	collected := agg.Collect(ctx)
	if len(collected.Articles) == 0 {
		r.Steps = append(r.Steps, StepResult{Name: "Collect", Err: ErrNoArticles})
		return r
	}
	r.Steps = append(r.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Collected %d articles from %d endpoints (%d failed, %d dropped)",
			len(collected.Articles), collected.Endpoints, collected.Failed, collected.Dropped),
	})

	log.Println("Step 2/5: Enriching articles...")
	enricher := analyze.NewEnricher(p.provider, p.cfg.Analyzer.TargetLanguage, p.cfg.Analyzer.Concurrency)
	enriched := enricher.EnrichAll(ctx, collected.Articles)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Enrich",
		Summary: fmt.Sprintf("Enriched %d articles", len(enriched)),
	})

	log.Println("Step 3/5: Ranking articles...")
	ranked := rank.Top(enriched, p.cfg.Limits.Output)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Rank",
		Summary: fmt.Sprintf("Kept top %d of %d articles", len(ranked), len(enriched)),
	})

	log.Println("Step 4/5: Writing report...")
	step := p.runReport(r, ranked)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	if p.cfg.Catalog.Enabled {
		log.Println("Step 5/5: Updating catalog...")
		r.Steps = append(r.Steps, p.runCatalog(r, len(ranked)))
	}

	return r
}

func (p *Pipeline) runReport(r *Result, ranked []news.Enriched) StepResult {
	writer, err := report.NewWriter(p.reportsDir(), p.clock)
	if err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	paths, err := writer.Write(ranked)
	if err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	r.Paths = paths
	return StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("Report written to %s", paths.Markdown),
	}
}

func (p *Pipeline) runCatalog(r *Result, articleCount int) StepResult {
	db, err := catalog.Open(filepath.Join(p.cfg.GetDataDir(), "catalog.db"))
	if err != nil {
		return StepResult{Name: "Catalog", Err: err}
	}
	defer db.Close()

	if err := db.Record(r.Date, articleCount, r.Paths); err != nil {
		return StepResult{Name: "Catalog", Err: err}
	}
	if err := db.ExportIndex(p.cfg.GetDataDir()); err != nil {
		return StepResult{Name: "Catalog", Err: err}
	}
	return StepResult{
		Name:    "Catalog",
		Summary: fmt.Sprintf("Catalog updated for %s", r.Date),
	}
}

func (p *Pipeline) reportsDir() string {
	return filepath.Join(p.cfg.GetDataDir(), "reports")
}
