package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fyrsmithlabs/refereed/internal/completion"
	"github.com/fyrsmithlabs/refereed/internal/embeddings"
	"github.com/fyrsmithlabs/refereed/internal/extraction"
	"github.com/fyrsmithlabs/refereed/internal/logging"
	"github.com/fyrsmithlabs/refereed/internal/secrets"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultBenchmarkMaxTokens = 800
	defaultMaxSamplesPerSet   = 3
)

// Config tunes the review pipeline.
type Config struct {
	// BenchmarkMaxTokens bounds the comparative benchmark completion.
	BenchmarkMaxTokens int

	// MaxSamplesPerSet caps how many accepted and rejected samples reach
	// the benchmark prompt.
	MaxSamplesPerSet int
}

// Service orchestrates one review: validate, scrub, optionally benchmark,
// fan out the three reviewer completions, aggregate.
type Service struct {
	client   completion.Client
	scrubber secrets.Scrubber
	sampler  embeddings.Sampler
	logger   *zap.Logger
	cfg      Config
}

// NewService creates the review service. The completion client, scrubber
// and logger are required; a nil sampler falls back to submission-order
// sample selection.
func NewService(client completion.Client, scrubber secrets.Scrubber, sampler embeddings.Sampler, logger *zap.Logger, cfg Config) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("completion client cannot be nil")
	}
	if scrubber == nil {
		return nil, fmt.Errorf("scrubber cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for review diagnostics")
	}
	if sampler == nil {
		sampler = embeddings.PrefixSampler{}
	}
	if cfg.BenchmarkMaxTokens <= 0 {
		cfg.BenchmarkMaxTokens = defaultBenchmarkMaxTokens
	}
	if cfg.MaxSamplesPerSet <= 0 {
		cfg.MaxSamplesPerSet = defaultMaxSamplesPerSet
	}

	return &Service{
		client:   client,
		scrubber: scrubber,
		sampler:  sampler,
		logger:   logger,
		cfg:      cfg,
	}, nil
}

// Review runs the full pipeline for one task.
//
// It fails only on a malformed task, on overall deadline expiry, or when
// every reviewer completion failed. Anything less degrades inside the
// outcome: a failed reviewer gets the fallback verdict, a failed benchmark
// is omitted.
func (s *Service) Review(ctx context.Context, task Task) (*Outcome, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	task = s.scrubTask(task)

	// The benchmark settles before the reviewer stage dispatches, so its
	// latency is paid once up front rather than competing with reviewers.
	var benchmark *Benchmark
	if task.HasComparisonSamples() {
		benchmark = s.runBenchmark(ctx, task)
	}

	verdicts, callErrs := s.runReviewers(ctx, task)

	if err := ctx.Err(); err != nil {
		// Deadline or cancellation mid-flight: the slots hold a mix of real
		// verdicts and deadline-induced fallbacks, which is not an outcome.
		return nil, fmt.Errorf("review aborted: %w", err)
	}
	if err := errors.Join(callErrs...); err != nil && allFailed(callErrs) {
		return nil, fmt.Errorf("all reviewer completions failed: %w", err)
	}

	score := overallScore(verdicts)
	outcome := &Outcome{
		ID:                   uuid.NewString(),
		GeneratedAt:          time.Now().UTC(),
		OverallScore:         score,
		AcceptProbability:    acceptProbability(score),
		Recommendation:       recommendFor(score),
		ReviewerScores:       verdicts,
		CriticalIssues:       buildCriticalIssues(verdicts),
		ComparativeBenchmark: benchmark,
	}

	s.logger.Info("review completed", append(logging.ContextFields(ctx),
		zap.String("outcome_id", outcome.ID),
		zap.Float64("overall_score", outcome.OverallScore),
		zap.String("recommendation", string(outcome.Recommendation)),
		zap.Bool("benchmarked", benchmark != nil))...)

	return outcome, nil
}

// runReviewers dispatches the three role-bound completions concurrently and
// joins all of them. Each goroutine writes only its own verdict and error
// slot; a failed or slow reviewer never cancels a sibling. callErrs holds
// upstream call failures only, not parse failures.
func (s *Service) runReviewers(ctx context.Context, task Task) ([]RoleVerdict, []error) {
	verdicts := make([]RoleVerdict, len(roleTable))
	callErrs := make([]error, len(roleTable))

	var wg sync.WaitGroup
	for i, spec := range roleTable {
		wg.Add(1)
		go func(i int, spec roleSpec) {
			defer wg.Done()
			verdicts[i], callErrs[i] = s.reviewOne(ctx, spec, task)
		}(i, spec)
	}
	wg.Wait()

	return verdicts, callErrs
}

// reviewOne runs a single reviewer: build prompt, invoke, decode. Failures
// degrade to the fallback verdict; only upstream call failures are also
// reported back for the all-failed check.
func (s *Service) reviewOne(ctx context.Context, spec roleSpec, task Task) (RoleVerdict, error) {
	rv := RoleVerdict{
		Role:     spec.role,
		Focus:    spec.focus,
		Verdict:  FallbackVerdict(),
		Fallback: true,
	}

	res, err := s.client.Invoke(ctx, buildPrompt(spec, task), completion.Options{})
	if err != nil {
		s.logger.Warn("reviewer completion failed, using fallback verdict",
			zap.String("role", string(spec.role)),
			zap.Error(err))
		FallbackVerdicts.WithLabelValues(string(spec.role)).Inc()
		return rv, err
	}

	verdict, decodeErr := extraction.Decode(res.Text, FallbackVerdict())
	if decodeErr != nil {
		s.logger.Debug("reviewer verdict unparseable, using fallback",
			zap.String("role", string(spec.role)),
			zap.Error(decodeErr))
		FallbackVerdicts.WithLabelValues(string(spec.role)).Inc()
		return rv, nil
	}

	rv.Verdict = sanitizeVerdict(verdict)
	rv.Fallback = false
	return rv, nil
}

// runBenchmark issues the single comparative completion. Best-effort: any
// failure logs, counts, and omits the benchmark without touching the rest
// of the pipeline.
func (s *Service) runBenchmark(ctx context.Context, task Task) *Benchmark {
	abstract := task.Sections[SectionAbstract]
	accepted := s.sampler.Select(ctx, abstract, task.AcceptedSamples, s.cfg.MaxSamplesPerSet)
	rejected := s.sampler.Select(ctx, abstract, task.RejectedSamples, s.cfg.MaxSamplesPerSet)

	prompt := buildBenchmarkPrompt(task, accepted, rejected)
	res, err := s.client.Invoke(ctx, prompt, completion.Options{MaxTokens: s.cfg.BenchmarkMaxTokens})
	if err != nil {
		s.logger.Warn("benchmark completion failed, omitting comparative benchmark", zap.Error(err))
		BenchmarksOmitted.Inc()
		return nil
	}

	benchmark, decodeErr := extraction.Decode(res.Text, Benchmark{})
	if decodeErr != nil {
		s.logger.Debug("benchmark payload unparseable, omitting comparative benchmark", zap.Error(decodeErr))
		BenchmarksOmitted.Inc()
		return nil
	}

	if benchmark.Gaps == nil {
		benchmark.Gaps = []string{}
	}
	if benchmark.StrengthsVsRejected == nil {
		benchmark.StrengthsVsRejected = []string{}
	}
	return &benchmark
}

// scrubTask redacts secret material from every outbound text field. The
// task is copied; the caller's maps and slices are never mutated.
func (s *Service) scrubTask(task Task) Task {
	if !s.scrubber.IsEnabled() {
		return task
	}

	total := 0
	sections := make(map[string]string, len(task.Sections))
	for key, text := range task.Sections {
		result := s.scrubber.Scrub(text)
		sections[key] = result.Scrubbed
		total += result.TotalFindings
	}
	task.Sections = sections

	var acceptedFindings, rejectedFindings int
	task.AcceptedSamples, acceptedFindings = s.scrubAll(task.AcceptedSamples)
	task.RejectedSamples, rejectedFindings = s.scrubAll(task.RejectedSamples)
	total += acceptedFindings + rejectedFindings

	if total > 0 {
		s.logger.Info("redacted secrets from review task", zap.Int("findings", total))
	}
	return task
}

func (s *Service) scrubAll(texts []string) ([]string, int) {
	if len(texts) == 0 {
		return texts, 0
	}
	clean := make([]string, len(texts))
	findings := 0
	for i, text := range texts {
		result := s.scrubber.Scrub(text)
		clean[i] = result.Scrubbed
		findings += result.TotalFindings
	}
	return clean, findings
}

// allFailed reports whether every slot carries an error.
func allFailed(errs []error) bool {
	for _, err := range errs {
		if err == nil {
			return false
		}
	}
	return len(errs) > 0
}
