package secrets

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Scrubber detects and redacts secrets from content.
type Scrubber interface {
	// Scrub redacts secrets from the content.
	Scrub(content string) *Result

	// IsEnabled returns whether scrubbing is enabled.
	IsEnabled() bool
}

// Config configures scrubbing.
type Config struct {
	Enabled bool
}

// scrubber is the default implementation backed by the Gitleaks SDK.
type scrubber struct {
	detector *detect.Detector
	mu       sync.Mutex
}

// New creates a Scrubber with the default Gitleaks ruleset. When scrubbing
// is disabled the returned Scrubber passes content through unchanged.
//
// The detector is built once here; loading the ruleset compiles several
// hundred patterns and is far too expensive to repeat per request.
func New(cfg Config) (Scrubber, error) {
	if !cfg.Enabled {
		return &NoopScrubber{}, nil
	}

	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("load gitleaks ruleset: %w", err)
	}

	return &scrubber{detector: detector}, nil
}

// MustNew creates a new Scrubber, panicking on error.
func MustNew(cfg Config) Scrubber {
	s, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

// Scrub redacts secrets from the content. Each detected secret value is
// replaced everywhere it occurs with a [REDACTED:rule-id] marker.
func (s *scrubber) Scrub(content string) *Result {
	start := time.Now()
	result := &Result{
		Scrubbed: content,
		Findings: make([]Finding, 0),
		ByRule:   make(map[string]int),
	}

	if content == "" {
		result.Duration = time.Since(start)
		return result
	}

	// The detector keeps mutable scan state, so calls are serialized.
	s.mu.Lock()
	findings := s.detector.DetectString(content)
	s.mu.Unlock()

	secretRules := make(map[string]string, len(findings))
	for _, f := range findings {
		result.Findings = append(result.Findings, Finding{
			RuleID:      f.RuleID,
			Description: f.Description,
			Line:        f.StartLine,
		})
		result.ByRule[f.RuleID]++

		if f.Secret != "" {
			if _, seen := secretRules[f.Secret]; !seen {
				secretRules[f.Secret] = f.RuleID
			}
		}
	}
	result.TotalFindings = len(result.Findings)

	if len(secretRules) > 0 {
		result.Scrubbed = replaceSecrets(content, secretRules)
	}

	for rule, n := range result.ByRule {
		RedactionsTotal.WithLabelValues(rule).Add(float64(n))
	}

	result.Duration = time.Since(start)
	return result
}

// IsEnabled returns true; disabled configurations get a NoopScrubber.
func (s *scrubber) IsEnabled() bool {
	return true
}

// replaceSecrets substitutes every occurrence of each secret value with its
// redaction marker. Longer secrets are replaced first so a secret containing
// another is not broken apart by the shorter replacement.
func replaceSecrets(content string, secretRules map[string]string) string {
	ordered := make([]string, 0, len(secretRules))
	for secret := range secretRules {
		ordered = append(ordered, secret)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})

	scrubbed := content
	for _, secret := range ordered {
		marker := "[REDACTED:" + secretRules[secret] + "]"
		scrubbed = strings.ReplaceAll(scrubbed, secret, marker)
	}
	return scrubbed
}

// NoopScrubber is a scrubber that does nothing (for testing or disabled mode).
type NoopScrubber struct{}

// Scrub returns content unchanged.
func (n *NoopScrubber) Scrub(content string) *Result {
	return &Result{
		Scrubbed: content,
		Findings: make([]Finding, 0),
		ByRule:   make(map[string]int),
	}
}

// IsEnabled returns false.
func (n *NoopScrubber) IsEnabled() bool {
	return false
}

// Compile-time check that both implementations satisfy Scrubber.
var _ Scrubber = (*scrubber)(nil)
var _ Scrubber = (*NoopScrubber)(nil)
