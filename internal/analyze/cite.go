package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/refereed/internal/completion"
)

const citeMaxTokens = 300

const citeSystem = `You classify whether a manuscript sentence needs a citation.
"GENERAL": common knowledge in the field, no citation required. "OWN": supported by this manuscript's own results or methods. "EXTERNAL": a claim that must cite external work.

Respond ONLY with a JSON object inside a single ` + "```json" + ` fence, of this exact shape:
{"type": "GENERAL"|"OWN"|"EXTERNAL", "reason": "<one sentence>"}
No text outside the fence.`

// CiteType classifies a sentence's citation need.
type CiteType string

const (
	// CiteGeneral marks common knowledge needing no citation.
	CiteGeneral CiteType = "GENERAL"
	// CiteOwn marks claims backed by the manuscript's own results.
	CiteOwn CiteType = "OWN"
	// CiteExternal marks claims that must cite external work.
	CiteExternal CiteType = "EXTERNAL"
)

// CiteRequest wraps one sentence to classify.
type CiteRequest struct {
	Sentence string `json:"sentence"`
}

// CitationNeed is the classification result.
type CitationNeed struct {
	Type   CiteType `json:"type"`
	Reason string   `json:"reason"`
}

func fallbackCitationNeed() CitationNeed {
	return CitationNeed{Type: CiteGeneral, Reason: ""}
}

// Cite classifies whether the sentence states common knowledge, the
// authors' own contribution, or a claim requiring an external citation.
func (s *Service) Cite(ctx context.Context, req CiteRequest) (*CitationNeed, error) {
	if req.Sentence == "" {
		return nil, fmt.Errorf("%w: sentence is required", ErrInvalidInput)
	}

	prompt := buildCitePrompt(s.scrub(req.Sentence))
	need, err := invokeJSON(ctx, s, "cite", prompt, completion.Options{MaxTokens: citeMaxTokens}, fallbackCitationNeed())
	if err != nil {
		return nil, err
	}

	need.Type = normalizeCiteType(need.Type)
	return &need, nil
}

func normalizeCiteType(t CiteType) CiteType {
	switch normalized := CiteType(strings.ToUpper(strings.TrimSpace(string(t)))); normalized {
	case CiteGeneral, CiteOwn, CiteExternal:
		return normalized
	default:
		return CiteGeneral
	}
}

func buildCitePrompt(sentence string) completion.Prompt {
	return completion.Prompt{
		System: citeSystem,
		User:   "Sentence:\n" + sentence + "\n",
	}
}
