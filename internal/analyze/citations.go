package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/refereed/internal/completion"
)

const (
	maxBatchCandidates = 100
	batchMaxTokens     = 2000
)

// Citation-placement actions. Anything else from the model normalizes to
// accept.
const (
	ActionRange  = "range"
	ActionMove   = "move"
	ActionAccept = "accept"
)

const batchSystem = `You are a citation-placement reviewer for scholarly manuscripts.
For every candidate decide: "range" when the citation should cover a span of sentences, "move" when it belongs elsewhere in the passage, "accept" when the current placement is fine. Provide the corrected placement text as the suggestion when the action is not "accept", null otherwise.

Respond ONLY with a JSON array inside a single ` + "```json" + ` fence, one object per candidate, of this exact shape:
[{"id": "<candidate id>", "action": "range"|"move"|"accept", "suggestion": "<corrected placement>"|null, "confidence": "high"|"medium"|"low", "rationale": "<one sentence>"}]
No text outside the fence.`

// CitationCandidate is one sentence whose citation placement is questioned.
type CitationCandidate struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Context string `json:"context"`
	Reason  string `json:"reason"`
}

// BatchRequest carries up to 100 candidates for one batched completion.
type BatchRequest struct {
	Candidates []CitationCandidate `json:"candidates"`
	ProfileID  string              `json:"profileId,omitempty"`
}

// CitationDecision is the per-candidate outcome, returned in input order.
type CitationDecision struct {
	ID         string  `json:"id"`
	Action     string  `json:"action"`
	Suggestion *string `json:"suggestion"`
	Confidence string  `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

func defaultDecision(id string) CitationDecision {
	return CitationDecision{ID: id, Action: ActionAccept, Confidence: ConfidenceLow}
}

// CitationsBatch reviews citation placement for all candidates in one
// completion call and returns one decision per candidate, input order
// preserved. Candidates the model skipped get the accept default.
func (s *Service) CitationsBatch(ctx context.Context, req BatchRequest) ([]CitationDecision, error) {
	if len(req.Candidates) == 0 || len(req.Candidates) > maxBatchCandidates {
		return nil, fmt.Errorf("%w: candidates must contain between 1 and %d entries", ErrInvalidInput, maxBatchCandidates)
	}

	scrubbed := make([]CitationCandidate, len(req.Candidates))
	for i, c := range req.Candidates {
		scrubbed[i] = CitationCandidate{
			ID:      c.ID,
			Text:    s.scrub(c.Text),
			Context: s.scrub(c.Context),
			Reason:  s.scrub(c.Reason),
		}
	}

	prompt := buildBatchPrompt(scrubbed, req.ProfileID)
	decisions, err := invokeJSON(ctx, s, "citations_batch", prompt, completion.Options{MaxTokens: batchMaxTokens}, []CitationDecision{})
	if err != nil {
		return nil, err
	}

	return alignDecisions(req.Candidates, decisions), nil
}

func buildBatchPrompt(candidates []CitationCandidate, profileID string) completion.Prompt {
	var user strings.Builder
	user.WriteString("# Citation candidates\n")
	for i, c := range candidates {
		fmt.Fprintf(&user, "\n%d. id: %s\n", i+1, c.ID)
		fmt.Fprintf(&user, "   text: %s\n", c.Text)
		if c.Context != "" {
			fmt.Fprintf(&user, "   context: %s\n", c.Context)
		}
		if c.Reason != "" {
			fmt.Fprintf(&user, "   flagged because: %s\n", c.Reason)
		}
	}
	writeAnalysisVenue(&user, profileID)

	return completion.Prompt{System: batchSystem, User: user.String()}
}

// alignDecisions rejoins model decisions to candidates by id. Input order
// wins; unmatched candidates and malformed fields fall back to the accept
// default.
func alignDecisions(candidates []CitationCandidate, decisions []CitationDecision) []CitationDecision {
	byID := make(map[string]CitationDecision, len(decisions))
	for _, d := range decisions {
		if _, dup := byID[d.ID]; !dup {
			byID[d.ID] = d
		}
	}

	aligned := make([]CitationDecision, len(candidates))
	for i, c := range candidates {
		decision, ok := byID[c.ID]
		if !ok {
			aligned[i] = defaultDecision(c.ID)
			continue
		}
		aligned[i] = normalizeDecision(decision)
	}
	return aligned
}

func normalizeDecision(d CitationDecision) CitationDecision {
	switch d.Action {
	case ActionRange, ActionMove, ActionAccept:
	default:
		d.Action = ActionAccept
	}
	d.Confidence = normalizeConfidence(d.Confidence)
	return d
}
