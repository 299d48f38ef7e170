package analyze

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeCandidates() []CitationCandidate {
	return []CitationCandidate{
		{ID: "c1", Text: "Deep networks generalize well [12].", Context: "Opening of related work.", Reason: "citation may cover both sentences"},
		{ID: "c2", Text: "This was later confirmed [13]."},
		{ID: "c3", Text: "Transformers dominate the benchmarks [14].", Reason: "placement looks late"},
	}
}

func TestCitationsBatch_Validation(t *testing.T) {
	tests := []struct {
		name       string
		candidates []CitationCandidate
	}{
		{"empty", nil},
		{"zero length", []CitationCandidate{}},
		{"one over the cap", func() []CitationCandidate {
			candidates := make([]CitationCandidate, maxBatchCandidates+1)
			for i := range candidates {
				candidates[i] = CitationCandidate{ID: fmt.Sprintf("c%d", i), Text: "sentence"}
			}
			return candidates
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{}
			svc := newTestService(t, client)

			got, err := svc.CitationsBatch(context.Background(), BatchRequest{Candidates: tt.candidates})
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.ErrorContains(t, err, "between 1 and 100")
			assert.Zero(t, client.callCount(), "no upstream call on a rejected batch")
		})
	}
}

func TestCitationsBatch_ExactlyAtCap(t *testing.T) {
	candidates := make([]CitationCandidate, maxBatchCandidates)
	for i := range candidates {
		candidates[i] = CitationCandidate{ID: fmt.Sprintf("c%d", i), Text: "sentence"}
	}
	client := &stubClient{text: fenced(`[]`)}
	svc := newTestService(t, client)

	got, err := svc.CitationsBatch(context.Background(), BatchRequest{Candidates: candidates})
	require.NoError(t, err)
	assert.Len(t, got, maxBatchCandidates)
	assert.Equal(t, 1, client.callCount(), "the whole batch is one completion call")
}

func TestCitationsBatch_AlignsDecisionsToInputOrder(t *testing.T) {
	suggestion := "after the second claim"
	client := &stubClient{text: fenced(`[
  {"id": "c3", "action": "move", "suggestion": "` + suggestion + `", "confidence": "high", "rationale": "Belongs after the claim it supports."},
  {"id": "c1", "action": "range", "suggestion": null, "confidence": "medium", "rationale": "Covers both sentences."},
  {"id": "c9", "action": "accept", "suggestion": null, "confidence": "low", "rationale": "No such candidate."}
]`)}
	svc := newTestService(t, client)

	got, err := svc.CitationsBatch(context.Background(), BatchRequest{Candidates: threeCandidates()})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, ActionRange, got[0].Action)
	assert.Nil(t, got[0].Suggestion)
	assert.Equal(t, ConfidenceMedium, got[0].Confidence)

	assert.Equal(t, "c2", got[1].ID, "skipped candidate stays in its slot")
	assert.Equal(t, ActionAccept, got[1].Action)
	assert.Nil(t, got[1].Suggestion)
	assert.Equal(t, ConfidenceLow, got[1].Confidence)
	assert.Empty(t, got[1].Rationale)

	assert.Equal(t, "c3", got[2].ID)
	assert.Equal(t, ActionMove, got[2].Action)
	require.NotNil(t, got[2].Suggestion)
	assert.Equal(t, suggestion, *got[2].Suggestion)
}

func TestCitationsBatch_NormalizesUnknownValues(t *testing.T) {
	client := &stubClient{text: fenced(`[
  {"id": "c1", "action": "rewrite", "suggestion": null, "confidence": "certain", "rationale": "made up values"}
]`)}
	svc := newTestService(t, client)

	got, err := svc.CitationsBatch(context.Background(), BatchRequest{
		Candidates: []CitationCandidate{{ID: "c1", Text: "sentence"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ActionAccept, got[0].Action)
	assert.Equal(t, ConfidenceLow, got[0].Confidence)
	assert.Equal(t, "made up values", got[0].Rationale)
}

func TestCitationsBatch_DuplicateIDFirstWins(t *testing.T) {
	client := &stubClient{text: fenced(`[
  {"id": "c1", "action": "move", "suggestion": null, "confidence": "high", "rationale": "first"},
  {"id": "c1", "action": "range", "suggestion": null, "confidence": "low", "rationale": "second"}
]`)}
	svc := newTestService(t, client)

	got, err := svc.CitationsBatch(context.Background(), BatchRequest{
		Candidates: []CitationCandidate{{ID: "c1", Text: "sentence"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ActionMove, got[0].Action)
	assert.Equal(t, "first", got[0].Rationale)
}

func TestCitationsBatch_UnparseableAnswerDefaultsAll(t *testing.T) {
	client := &stubClient{text: "Everything looks fine to me."}
	svc := newTestService(t, client)

	got, err := svc.CitationsBatch(context.Background(), BatchRequest{Candidates: threeCandidates()})
	require.NoError(t, err, "an unparseable batch answer is not a request failure")
	require.Len(t, got, 3)
	for i, decision := range got {
		assert.Equal(t, threeCandidates()[i].ID, decision.ID)
		assert.Equal(t, ActionAccept, decision.Action)
		assert.Equal(t, ConfidenceLow, decision.Confidence)
	}
}

func TestCitationsBatch_UpstreamFailurePropagates(t *testing.T) {
	errUpstream := errors.New("upstream 500")
	client := &stubClient{err: errUpstream}
	svc := newTestService(t, client)

	got, err := svc.CitationsBatch(context.Background(), BatchRequest{Candidates: threeCandidates()})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, 1, client.callCount())
}

func TestCitationsBatch_PromptListsCandidates(t *testing.T) {
	client := &stubClient{text: fenced(`[]`)}
	svc := newTestService(t, client)

	_, err := svc.CitationsBatch(context.Background(), BatchRequest{
		Candidates: threeCandidates(),
		ProfileID:  "acm-tocs",
	})
	require.NoError(t, err)

	prompt := client.lastPrompt()
	assert.Contains(t, prompt.User, "1. id: c1")
	assert.Contains(t, prompt.User, "2. id: c2")
	assert.Contains(t, prompt.User, "3. id: c3")
	assert.Contains(t, prompt.User, "Deep networks generalize well [12].")
	assert.Contains(t, prompt.User, "flagged because: placement looks late")
	assert.Contains(t, prompt.User, "ACM/Springer")
	assert.Contains(t, prompt.System, `"action"`)
}
