package news

import "time"

// Category classifies an article by the feed group it came from.
type Category string

const (
	CategoryTech          Category = "tech"
	CategoryScience       Category = "science"
	CategorySociety       Category = "society"
	CategoryInternational Category = "international"
)

// Categories lists all known categories in display order.
var Categories = []Category{
	CategoryTech,
	CategoryScience,
	CategorySociety,
	CategoryInternational,
}

var categoryLabels = map[Category]string{
	CategoryTech:          "Technology",
	CategoryScience:       "Science",
	CategorySociety:       "Society",
	CategoryInternational: "International",
}

// Label returns the human-readable name of the category.
// Unknown categories fall back to the technology label, matching the
// enrichment prompt's behavior.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[CategoryTech]
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Article is the canonical unit produced by the feed fetcher.
type Article struct {
	Title        string     `json:"title"`
	Link         string     `json:"link"`
	Summary      string     `json:"summary"`
	PublishedRaw string     `json:"published"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	Category     Category   `json:"category"`
	Source       string     `json:"source"`
}

// Analysis is the structured assessment returned by the enrichment
// service, or the safe default when the service is unavailable.
type Analysis struct {
	CorePoint       string   `json:"core_point"`
	FundSignal      string   `json:"fund_signal"`
	FundDetails     string   `json:"fund_details"`
	DevImpact       string   `json:"dev_impact"`
	RelevanceScore  int      `json:"relevance_score"`
	KeyWords        []string `json:"key_words"`
	Relevance       string   `json:"relevance"`
	ImpactLevel     string   `json:"impact_level"`
	Timeliness      string   `json:"timeliness"`
	Certainty       string   `json:"certainty"`
	OpportunityType string   `json:"opportunity_type"`
}

// Enriched is an article merged with its analysis. It is the terminal
// entity of the pipeline; consumers must treat it as read-only.
type Enriched struct {
	Article
	Analysis
	OriginalTitle string `json:"original_title,omitempty"`
}
