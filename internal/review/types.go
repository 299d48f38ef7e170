// Package review implements the multi-reviewer manuscript scoring pipeline.
//
// One submitted task fans out to three role-bound model completions, one per
// reviewer persona, joined into a single deterministic outcome: an overall
// score, an acceptance recommendation, and a capped list of critical issues.
// Upstream unreliability stays inside the pipeline: a reviewer whose call
// fails or whose answer does not parse degrades to a neutral verdict, and
// the aggregate is computed from whatever the three slots hold.
package review

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTask indicates a task that fails validation. Wrapped errors
// carry the failing field.
var ErrInvalidTask = errors.New("invalid review task")

// Section keys recognized in Task.Sections.
const (
	SectionAbstract     = "abstract"
	SectionIntroduction = "introduction"
	SectionMethod       = "method"
	SectionResults      = "results"
	SectionDiscussion   = "discussion"
)

// requiredSections must all be present and non-empty for a task to be
// reviewable. Discussion is optional.
var requiredSections = []string{
	SectionAbstract,
	SectionIntroduction,
	SectionMethod,
	SectionResults,
}

// Task is one manuscript submitted for review.
type Task struct {
	// Sections maps named document parts to their text. Required keys:
	// abstract, introduction, method, results. Optional: discussion.
	Sections map[string]string `json:"sections"`

	// Venue is the free-form name of the target publication venue.
	Venue string `json:"venue,omitempty"`

	// ProfileID selects venue-family framing by keyword matching.
	ProfileID string `json:"profileId,omitempty"`

	// AcceptedSamples and RejectedSamples hold prior-decision abstract
	// excerpts used for the optional comparative benchmark.
	AcceptedSamples []string `json:"acceptedSamples,omitempty"`
	RejectedSamples []string `json:"rejectedSamples,omitempty"`
}

// Validate checks the task invariants. It reports the first missing or
// empty required section.
func (t Task) Validate() error {
	if t.Sections == nil {
		return fmt.Errorf("%w: sections object is required", ErrInvalidTask)
	}
	for _, key := range requiredSections {
		if t.Sections[key] == "" {
			return fmt.Errorf("%w: section %q is required and must be non-empty", ErrInvalidTask, key)
		}
	}
	return nil
}

// HasComparisonSamples reports whether either sample set is non-empty.
func (t Task) HasComparisonSamples() bool {
	return len(t.AcceptedSamples) > 0 || len(t.RejectedSamples) > 0
}

// Verdict is one reviewer's structured result.
type Verdict struct {
	// Score is the reviewer's 0-10 rating.
	Score float64 `json:"score"`

	// Strengths and Weaknesses are ordered lists of short observations.
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`

	// Comment is short free text.
	Comment string `json:"comment"`
}

// FallbackVerdict is the neutral default substituted when a reviewer call
// fails or its answer does not parse.
func FallbackVerdict() Verdict {
	return Verdict{
		Score:      5,
		Strengths:  []string{},
		Weaknesses: []string{},
		Comment:    "",
	}
}

// RoleVerdict tags a verdict with the reviewer role that produced it. The
// verdict fields marshal inline, so one reviewer entry reads
// {role, focus, score, strengths, weaknesses, comment}.
type RoleVerdict struct {
	Role  Role   `json:"role"`
	Focus string `json:"focus"`
	Verdict

	// Fallback marks a verdict that was substituted after a failed call or
	// unparseable answer.
	Fallback bool `json:"fallback,omitempty"`
}

// CriticalIssue is one entry of the merged issue list.
type CriticalIssue struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Text     string `json:"text"`
}

// Benchmark compares the submission against the caller's accepted and
// rejected prior-decision samples.
type Benchmark struct {
	// NoveltyVsAccepted and RigorVsAccepted score the submission against
	// the average of the accepted samples, 0-10.
	NoveltyVsAccepted float64 `json:"noveltyVsAccepted"`
	RigorVsAccepted   float64 `json:"rigorVsAccepted"`

	// Gaps lists shortfalls relative to the accepted samples.
	Gaps []string `json:"gaps"`

	// StrengthsVsRejected lists advantages over the rejected samples.
	StrengthsVsRejected []string `json:"strengthsVsRejected"`
}

// Outcome is the aggregated, caller-facing review result.
type Outcome struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`

	// OverallScore is the mean of the three verdict scores, one decimal.
	OverallScore float64 `json:"overallScore"`

	// AcceptProbability is a 0-100 linear heuristic over OverallScore,
	// not a calibrated probability.
	AcceptProbability int `json:"acceptProbability"`

	// Recommendation is one of the fixed tiers, strong_accept down to
	// reject.
	Recommendation Recommendation `json:"recommendation"`

	// ReviewerScores holds the three verdicts in role table order.
	ReviewerScores []RoleVerdict `json:"reviewerScores"`

	// CriticalIssues is the merged, capped issue list.
	CriticalIssues []CriticalIssue `json:"criticalIssues"`

	// ComparativeBenchmark is present only when comparison samples were
	// supplied and the benchmark call succeeded.
	ComparativeBenchmark *Benchmark `json:"comparativeBenchmark,omitempty"`
}
