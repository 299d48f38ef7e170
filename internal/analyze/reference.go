package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/refereed/internal/completion"
)

const referenceMaxTokens = 600

const referenceSystem = `You are a bibliographic editor normalizing reference entries for scholarly manuscripts.
Parse the raw entry into its parts and produce one clean formatted citation line.

Respond ONLY with a JSON object inside a single ` + "```json" + ` fence, of this exact shape:
{"formatted": "<full formatted reference>", "authors": ["<author>"], "title": "<title>", "venue": "<journal or proceedings>", "year": <number>, "doi": "<doi or empty string>", "confidence": "high"|"medium"|"low"}
No text outside the fence.`

// ReferenceRequest asks for one bibliographic entry to be normalized.
type ReferenceRequest struct {
	Input     string `json:"input"`
	Style     string `json:"style,omitempty"`
	ProfileID string `json:"profileId,omitempty"`
}

// Reference is the parsed and reformatted bibliographic entry.
type Reference struct {
	Formatted  string   `json:"formatted"`
	Authors    []string `json:"authors"`
	Title      string   `json:"title"`
	Venue      string   `json:"venue"`
	Year       int      `json:"year"`
	DOI        string   `json:"doi"`
	Confidence string   `json:"confidence"`
}

// fallbackReference echoes the input as the formatted entry so the caller
// always receives something renderable.
func fallbackReference(input string) Reference {
	return Reference{Formatted: input, Authors: []string{}, Confidence: ConfidenceLow}
}

// FormatReference parses a free-form reference string and reformats it in
// the requested style.
func (s *Service) FormatReference(ctx context.Context, req ReferenceRequest) (*Reference, error) {
	if req.Input == "" {
		return nil, fmt.Errorf("%w: input is required", ErrInvalidInput)
	}

	input := s.scrub(req.Input)
	prompt := buildReferencePrompt(input, req.Style, req.ProfileID)

	ref, err := invokeJSON(ctx, s, "format_reference", prompt, completion.Options{MaxTokens: referenceMaxTokens}, fallbackReference(input))
	if err != nil {
		return nil, err
	}

	if ref.Authors == nil {
		ref.Authors = []string{}
	}
	ref.Confidence = normalizeConfidence(ref.Confidence)
	return &ref, nil
}

func buildReferencePrompt(input, style, profileID string) completion.Prompt {
	var user strings.Builder
	user.WriteString("Raw reference entry:\n")
	user.WriteString(input)
	user.WriteString("\n")
	if style != "" {
		fmt.Fprintf(&user, "\nTarget citation style: %s\n", style)
	}
	writeAnalysisVenue(&user, profileID)

	return completion.Prompt{System: referenceSystem, User: user.String()}
}
