// Package types provides type definitions for structured data used throughout the interview-insights system.
package types

// Sentiment classifies a performance snippet.
type Sentiment string

// Sentiment values produced by the extraction stage.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Priority indicates how urgently a weakness should be addressed.
type Priority string

// Priority levels assigned by the synthesis stage.
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// PerformanceSnippet is a single factual observation extracted from the transcript.
// The quote is expected to be a verbatim excerpt; this is a prompt contract,
// not enforced mechanically.
type PerformanceSnippet struct {
	Topic      string    `json:"topic"`
	Quote      string    `json:"quote"`
	Assessment string    `json:"assessment"`
	Sentiment  Sentiment `json:"sentiment"`
}

// AnalysisReport is the extraction-stage output: an ordered list of snippets.
type AnalysisReport struct {
	Snippets []PerformanceSnippet `json:"snippets"`
}

// CandidateSummary is the headline view of the candidate.
type CandidateSummary struct {
	Headline          string `json:"headline"`
	OverallImpression string `json:"overall_impression"`
}

// StrengthInsight names a demonstrated competency with supporting evidence.
type StrengthInsight struct {
	Skill    string `json:"skill"`
	Evidence string `json:"evidence"`
}

// WeaknessInsight names an area for development with supporting evidence.
type WeaknessInsight struct {
	Skill    string   `json:"skill"`
	Evidence string   `json:"evidence"`
	Priority Priority `json:"priority"`
}

// Insights groups strengths and weaknesses.
type Insights struct {
	Strengths  []StrengthInsight `json:"strengths"`
	Weaknesses []WeaknessInsight `json:"weaknesses"`
}

// RoadmapStep is one period of the development roadmap.
type RoadmapStep struct {
	Timespan   string   `json:"timespan"`
	Focus      string   `json:"focus"`
	Activities []string `json:"activities"`
}

// RecommendedResource points at a learning resource. Link must be an
// absolute http(s) URL; the quality validator flags anything else.
type RecommendedResource struct {
	Topic  string `json:"topic"`
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

// DevelopmentPlan is the actionable part of the final report.
type DevelopmentPlan struct {
	PriorityTopics       []string              `json:"priority_topics"`
	Roadmap              []RoadmapStep         `json:"roadmap_2_weeks"`
	RecommendedResources []RecommendedResource `json:"recommended_resources"`
}

// FinalReport is the synthesis-stage output and the unit returned to callers
// and stored in the cache. It is never partially populated: the pipeline only
// produces it after both stages succeed.
type FinalReport struct {
	CandidateSummary CandidateSummary `json:"candidate_summary"`
	Insights         Insights         `json:"insights"`
	DevelopmentPlan  DevelopmentPlan  `json:"development_plan"`
}
