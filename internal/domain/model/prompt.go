package model

import "time"

// PromptKind selects a GTMM generator.
type PromptKind string

const (
	PromptMarketResearch     PromptKind = "market_research"
	PromptLeadSourcing       PromptKind = "lead_sourcing"
	PromptCompetitorAnalysis PromptKind = "competitor_analysis"
	PromptContentCalendar    PromptKind = "content_calendar"
	PromptAdCopy             PromptKind = "ad_copy"
)

func (k PromptKind) Valid() bool {
	switch k {
	case PromptMarketResearch, PromptLeadSourcing, PromptCompetitorAnalysis,
		PromptContentCalendar, PromptAdCopy:
		return true
	}
	return false
}

// AdPlatforms are the ad networks the ad copy generator knows about.
var AdPlatforms = map[string]int{
	"facebook":  125, // primary text sweet spot, characters
	"instagram": 125,
	"google":    90,
	"tiktok":    100,
	"linkedin":  150,
}

type PromptRequest struct {
	Kind        PromptKind `json:"kind" yaml:"kind"`
	Niche       string     `json:"niche,omitempty" yaml:"niche"`
	Region      string     `json:"region,omitempty" yaml:"region"`
	Industry    string     `json:"industry,omitempty" yaml:"industry"`
	Audience    string     `json:"audience,omitempty" yaml:"audience"`
	Competitors []string   `json:"competitors,omitempty" yaml:"competitors"`
	Platform    string     `json:"platform,omitempty" yaml:"platform"`
	Product     string     `json:"product,omitempty" yaml:"product"`
	Count       int        `json:"count,omitempty" yaml:"count"`
}

type Prompt struct {
	Kind        PromptKind `json:"kind"`
	Text        string     `json:"prompt"`
	GeneratedAt time.Time  `json:"generated_at"`
}
