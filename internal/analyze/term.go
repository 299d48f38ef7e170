package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/refereed/internal/completion"
)

const termMaxTokens = 400

const termSystem = `You are an academic writing consultant judging word choice in scholarly manuscripts.
Decide whether the given term is too informal, colloquial or vague for formal academic prose and, when it is, suggest precise formal alternatives.

Respond ONLY with a JSON object inside a single ` + "```json" + ` fence, of this exact shape:
{"isInformal": <bool>, "suggestions": ["<formal alternative>"], "reason": "<one sentence>"}
No text outside the fence.`

// TermRequest asks whether a term is too informal for scholarly prose.
type TermRequest struct {
	Term      string `json:"term"`
	Context   string `json:"context"`
	ProfileID string `json:"profileId,omitempty"`
}

// TermAnalysis is the term-informality result.
type TermAnalysis struct {
	IsInformal  bool     `json:"isInformal"`
	Suggestions []string `json:"suggestions"`
	Reason      string   `json:"reason"`
}

func fallbackTermAnalysis() TermAnalysis {
	return TermAnalysis{IsInformal: false, Suggestions: []string{}, Reason: ""}
}

// Term judges whether a term is informal for academic writing and suggests
// formal alternatives.
func (s *Service) Term(ctx context.Context, req TermRequest) (*TermAnalysis, error) {
	if req.Term == "" {
		return nil, fmt.Errorf("%w: term is required", ErrInvalidInput)
	}

	prompt := buildTermPrompt(TermRequest{
		Term:      s.scrub(req.Term),
		Context:   s.scrub(req.Context),
		ProfileID: req.ProfileID,
	})

	analysis, err := invokeJSON(ctx, s, "term", prompt, completion.Options{MaxTokens: termMaxTokens}, fallbackTermAnalysis())
	if err != nil {
		return nil, err
	}
	if analysis.Suggestions == nil {
		analysis.Suggestions = []string{}
	}
	return &analysis, nil
}

func buildTermPrompt(req TermRequest) completion.Prompt {
	var user strings.Builder
	fmt.Fprintf(&user, "Term: %q\n", req.Term)
	if req.Context != "" {
		user.WriteString("\nSentence context:\n")
		user.WriteString(req.Context)
		user.WriteString("\n")
	}
	writeAnalysisVenue(&user, req.ProfileID)

	return completion.Prompt{System: termSystem, User: user.String()}
}
