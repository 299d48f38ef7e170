package review

import (
	"fmt"
	"math"
)

// Recommendation is an acceptance tier.
type Recommendation string

// Tiers from strongest to weakest.
const (
	StrongAccept     Recommendation = "strong_accept"
	WeakAccept       Recommendation = "weak_accept"
	BorderlineAccept Recommendation = "borderline_accept"
	BorderlineReject Recommendation = "borderline_reject"
	WeakReject       Recommendation = "weak_reject"
	Reject           Recommendation = "reject"
)

// maxCriticalIssues caps the merged issue list.
const maxCriticalIssues = 5

// overallScore is the arithmetic mean of the verdict scores, rounded to one
// decimal place.
func overallScore(verdicts []RoleVerdict) float64 {
	if len(verdicts) == 0 {
		return 0
	}
	var sum float64
	for _, v := range verdicts {
		sum += v.Score
	}
	return math.Round(sum/float64(len(verdicts))*10) / 10
}

// acceptProbability maps an overall score onto 0-100 via
// round(clamp((score-3)*16.67, 0, 100)). A linear heuristic anchored at
// 3 -> 0 and 9 -> ~100, not a calibrated probability.
func acceptProbability(score float64) int {
	p := (score - 3) * 16.67
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return int(math.Round(p))
}

// recommendFor maps an overall score to its tier. Thresholds are evaluated
// highest first; the first match wins.
func recommendFor(score float64) Recommendation {
	switch {
	case score >= 8:
		return StrongAccept
	case score >= 7:
		return WeakAccept
	case score >= 6:
		return BorderlineAccept
	case score >= 5:
		return BorderlineReject
	case score >= 4:
		return WeakReject
	default:
		return Reject
	}
}

// criticalIssueSources lists the roles whose weaknesses feed the critical
// list, in merge order, with their fixed tagging. The Impact_Assessor is
// deliberately absent: its weaknesses never enter the critical list.
var criticalIssueSources = []struct {
	role     Role
	category string
	severity string
}{
	{RoleTheorist, "novelty", "medium"},
	{RoleExperimentalist, "experiment", "high"},
}

// buildCriticalIssues merges reviewer weaknesses into the capped issue
// list: Theorist weaknesses first, then Experimentalist, ids numbered
// within each source list, truncated to maxCriticalIssues in that order.
func buildCriticalIssues(verdicts []RoleVerdict) []CriticalIssue {
	issues := make([]CriticalIssue, 0, maxCriticalIssues)
	for _, src := range criticalIssueSources {
		verdict, ok := verdictFor(verdicts, src.role)
		if !ok {
			continue
		}
		for i, weakness := range verdict.Weaknesses {
			if len(issues) == maxCriticalIssues {
				return issues
			}
			issues = append(issues, CriticalIssue{
				ID:       fmt.Sprintf("%s-%d", src.category, i+1),
				Category: src.category,
				Severity: src.severity,
				Text:     weakness,
			})
		}
	}
	return issues
}

// verdictFor finds the verdict a role produced.
func verdictFor(verdicts []RoleVerdict, role Role) (RoleVerdict, bool) {
	for _, v := range verdicts {
		if v.Role == role {
			return v, true
		}
	}
	return RoleVerdict{}, false
}

// sanitizeVerdict normalizes a parsed verdict before aggregation: nil lists
// become empty and out-of-range or NaN scores fall back to the neutral 5.
func sanitizeVerdict(v Verdict) Verdict {
	if v.Strengths == nil {
		v.Strengths = []string{}
	}
	if v.Weaknesses == nil {
		v.Weaknesses = []string{}
	}
	if math.IsNaN(v.Score) || v.Score < 0 || v.Score > 10 {
		v.Score = FallbackVerdict().Score
	}
	return v
}
