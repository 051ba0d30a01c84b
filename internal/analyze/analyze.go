package analyze

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"newsbrief/internal/llm"
	"newsbrief/internal/news"
)

const (
	analysisTimeout     = 30 * time.Second
	analysisTemperature = 0.7
	maxPromptSummary    = 300
)

const analysisPrompt = `You are a professional finance and technology news analyst. Analyze the following news item and return your assessment as JSON.

Title: %s
Source: %s
Summary: %s
Category: %s

Respond with ONLY this JSON (valid JSON, no other text):
{
    "core_point": "one-sentence core takeaway (15-30 words)",
    "fund_signal": "fund recommendation: buy/sell/hold plus a concrete direction (e.g. buy AI-themed funds), or \"not applicable\"",
    "fund_details": "short rationale for the fund recommendation",
    "dev_impact": "practical impact on independent developers",
    "relevance_score": score 1-10 where 10 is highest, based on practical value to investors and developers,
    "key_words": ["keyword1", "keyword2", "keyword3"],
    "relevance": "related fields as a comma-separated list (e.g. technology, finance, healthcare, energy, policy)",
    "impact_level": "high/medium/low plus a short explanation",
    "timeliness": "hot/fresh/steady/stale plus a short explanation",
    "certainty": "high/medium/low plus a short explanation",
    "opportunity_type": "startup opportunity/fund opportunity/both/not applicable plus a short explanation"
}

Notes:
1. Return only JSON, no other text
2. If the news is unrelated to investing, set fund_signal to "not applicable"
3. Assess dev_impact from an independent developer's perspective
4. Score relevance_score objectively
5. Every field must be filled in`

// Neutral per-field fallbacks used when the service response parses but
// a field is missing or malformed.
const (
	fallbackCorePoint   = "core point unavailable"
	fallbackFundSignal  = "not applicable"
	fallbackFundDetails = "see original article"
	fallbackDevImpact   = "no significant impact"
	fallbackPending     = "pending analysis"
	fallbackLevel       = "medium - pending analysis"
	fallbackOpportunity = "not applicable"
	defaultScore        = 5
)

// Enricher attaches a structured analysis, and optionally a translated
// title, to every aggregated article.
type Enricher struct {
	provider       llm.Provider
	targetLanguage string
	concurrency    int
}

// NewEnricher creates an enricher. A nil or unconfigured provider puts
// the whole batch into default-analysis mode.
func NewEnricher(provider llm.Provider, targetLanguage string, concurrency int) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{
		provider:       provider,
		targetLanguage: targetLanguage,
		concurrency:    concurrency,
	}
}

// EnrichAll enriches every article independently through a bounded
// worker pool. Results are reassembled by original index, so the output
// order always matches the input order regardless of call completion.
// Per-article failures are absorbed with the default analysis; EnrichAll
// itself never fails.
func (e *Enricher) EnrichAll(ctx context.Context, articles []news.Article) []news.Enriched {
	enriched := make([]news.Enriched, len(articles))

	if e.provider == nil || !e.provider.IsConfigured() {
		log.Println("No API key configured; using default analysis for the whole batch")
		for i, a := range articles {
			enriched[i] = news.Enriched{Article: a, Analysis: defaultAnalysis(a.Title)}
		}
		return enriched
	}

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i, a := range articles {
		wg.Add(1)
		go func(i int, a news.Article) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			enriched[i] = e.enrichOne(ctx, a)
		}(i, a)
	}
	wg.Wait()

	return enriched
}

// enrichOne translates the title when appropriate, then requests the
// structured analysis, substituting the default on any failure.
func (e *Enricher) enrichOne(ctx context.Context, article news.Article) news.Enriched {
	out := news.Enriched{Article: article}

	if translated, ok := e.translateTitle(ctx, article.Title); ok {
		out.OriginalTitle = article.Title
		out.Title = translated
	}

	out.Analysis = e.analyze(ctx, out.Article)
	return out
}

func (e *Enricher) analyze(ctx context.Context, article news.Article) news.Analysis {
	prompt := fmt.Sprintf(analysisPrompt,
		article.Title,
		article.Source,
		truncateRunes(article.Summary, maxPromptSummary),
		article.Category.Label(),
	)

	callCtx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	response, err := e.provider.Generate(callCtx, prompt, 0, analysisTemperature)
	if err != nil {
		log.Printf("Analysis call failed for %q: %v", article.Title, err)
		return defaultAnalysis(article.Title)
	}

	parsed := llm.ParseJSONResponse(response)
	if parsed == nil {
		log.Printf("Analysis response unparseable for %q", article.Title)
		return defaultAnalysis(article.Title)
	}

	return analysisFromPayload(parsed)
}

// analysisFromPayload copies every field out of the untrusted payload
// with independent per-field defaulting: one missing field falls back
// alone, it does not discard the rest.
func analysisFromPayload(m map[string]any) news.Analysis {
	score := llm.GetInt(m, "relevance_score", defaultScore)
	if score < 1 || score > 10 {
		score = defaultScore
	}

	return news.Analysis{
		CorePoint:       llm.GetString(m, "core_point", fallbackCorePoint),
		FundSignal:      llm.GetString(m, "fund_signal", fallbackFundSignal),
		FundDetails:     llm.GetString(m, "fund_details", fallbackFundDetails),
		DevImpact:       llm.GetString(m, "dev_impact", fallbackDevImpact),
		RelevanceScore:  score,
		KeyWords:        llm.GetStringList(m, "key_words"),
		Relevance:       llm.GetString(m, "relevance", fallbackPending),
		ImpactLevel:     llm.GetString(m, "impact_level", fallbackLevel),
		Timeliness:      llm.GetString(m, "timeliness", fallbackPending),
		Certainty:       llm.GetString(m, "certainty", fallbackLevel),
		OpportunityType: llm.GetString(m, "opportunity_type", fallbackOpportunity),
	}
}

// defaultAnalysis is the safe, fully-populated fallback used when the
// service is unconfigured or a call fails.
func defaultAnalysis(title string) news.Analysis {
	return news.Analysis{
		CorePoint:       truncateRunes(title, 30),
		FundSignal:      "requires manual review",
		FundDetails:     "see original article",
		DevImpact:       "see original article",
		RelevanceScore:  defaultScore,
		KeyWords:        nil,
		Relevance:       fallbackPending,
		ImpactLevel:     fallbackLevel,
		Timeliness:      fallbackPending,
		Certainty:       fallbackLevel,
		OpportunityType: fallbackOpportunity,
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
