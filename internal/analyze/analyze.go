// Package analyze implements the single-call manuscript analyses: term
// informality, citation-placement batching, caption format parsing,
// reference formatting, and citation-need classification.
//
// Each operation issues at most one completion call. Upstream call failures
// propagate to the caller; an answer that does not parse degrades to the
// operation's neutral result instead.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/refereed/internal/completion"
	"github.com/fyrsmithlabs/refereed/internal/extraction"
	"github.com/fyrsmithlabs/refereed/internal/logging"
	"github.com/fyrsmithlabs/refereed/internal/review"
	"github.com/fyrsmithlabs/refereed/internal/secrets"
)

// ErrInvalidInput indicates a request that fails validation. Wrapped errors
// carry the failing field.
var ErrInvalidInput = errors.New("invalid analysis input")

// Confidence levels recognized in analysis results. Anything else from the
// model normalizes to low.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Service runs the single-call analyses against the completion backend.
type Service struct {
	client   completion.Client
	scrubber secrets.Scrubber
	logger   *zap.Logger
}

// NewService creates the analysis service. All dependencies are required.
func NewService(client completion.Client, scrubber secrets.Scrubber, logger *zap.Logger) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("completion client cannot be nil")
	}
	if scrubber == nil {
		return nil, fmt.Errorf("scrubber cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for analysis diagnostics")
	}
	return &Service{client: client, scrubber: scrubber, logger: logger}, nil
}

// scrub redacts secret material from one outbound text.
func (s *Service) scrub(text string) string {
	if text == "" || !s.scrubber.IsEnabled() {
		return text
	}
	return s.scrubber.Scrub(text).Scrubbed
}

// invokeJSON runs one completion and decodes its fenced JSON payload. A
// failed call is the caller's problem; an unparseable answer is not, it
// degrades to the fallback.
func invokeJSON[T any](ctx context.Context, s *Service, op string, prompt completion.Prompt, opts completion.Options, fallback T) (T, error) {
	res, err := s.client.Invoke(ctx, prompt, opts)
	if err != nil {
		return fallback, fmt.Errorf("%s analysis: %w", op, err)
	}

	decoded, decodeErr := extraction.Decode(res.Text, fallback)
	if decodeErr != nil {
		s.logger.Debug("analysis payload unparseable, using fallback", append(logging.ContextFields(ctx),
			zap.String("operation", op),
			zap.Error(decodeErr))...)
		Fallbacks.WithLabelValues(op).Inc()
	}
	return decoded, nil
}

// writeAnalysisVenue appends profile-derived venue framing, if any.
func writeAnalysisVenue(b *strings.Builder, profileID string) {
	context := review.VenueContext(profileID)
	if context == "" {
		return
	}
	b.WriteString("\n# Venue context\n")
	b.WriteString(context)
	b.WriteString("\n")
}

func normalizeConfidence(c string) string {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c
	default:
		return ConfidenceLow
	}
}
