// Package quality provides advisory post-hoc checks on a completed final
// report. Issues are reported to the caller as warnings and never block the
// response - this is a quality signal, not a gate.
package quality

import (
	"fmt"
	"strings"

	"github.com/jonathan/interview-insights/internal/types"
)

// Thresholds for summary completeness.
const (
	minHeadlineLen   = 20
	minImpressionLen = 50
	minRoadmapSteps  = 2
)

// Result holds the outcome of a quality check.
type Result struct {
	Passed bool
	Issues []string
}

// Check inspects a final report for completeness and shape. It is a pure
// function: it never fails and never mutates the report.
func Check(report *types.FinalReport) Result {
	var issues []string

	if len(report.CandidateSummary.Headline) < minHeadlineLen {
		issues = append(issues, "headline is too short/generic")
	}
	if len(report.CandidateSummary.OverallImpression) < minImpressionLen {
		issues = append(issues, "overall impression lacks detail")
	}
	if len(report.Insights.Strengths) == 0 {
		issues = append(issues, "no strengths identified")
	}
	if len(report.Insights.Weaknesses) == 0 {
		issues = append(issues, "no weaknesses identified")
	}
	if len(report.DevelopmentPlan.PriorityTopics) == 0 {
		issues = append(issues, "no priority topics defined")
	}
	if len(report.DevelopmentPlan.Roadmap) < minRoadmapSteps {
		issues = append(issues, "development roadmap insufficiently detailed")
	}
	if len(report.DevelopmentPlan.RecommendedResources) == 0 {
		issues = append(issues, "no learning resources provided")
	}
	for _, resource := range report.DevelopmentPlan.RecommendedResources {
		link := strings.TrimSpace(resource.Link)
		switch {
		case link == "":
			issues = append(issues, fmt.Sprintf("resource %q has empty link", resource.Topic))
		case !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://"):
			issues = append(issues, fmt.Sprintf("resource %q has invalid link format", resource.Topic))
		}
	}

	return Result{Passed: len(issues) == 0, Issues: issues}
}
