package secrets

import "time"

// Result contains the scrubbing result.
type Result struct {
	// Scrubbed is the content with secrets replaced by redaction markers
	Scrubbed string `json:"scrubbed"`

	// Findings contains the detected secrets (without actual values)
	Findings []Finding `json:"findings,omitempty"`

	// TotalFindings is the count of secrets found
	TotalFindings int `json:"total_findings"`

	// ByRule maps rule IDs to finding counts
	ByRule map[string]int `json:"by_rule,omitempty"`

	// Duration is how long scrubbing took
	Duration time.Duration `json:"duration"`
}

// Finding represents a detected secret.
type Finding struct {
	// RuleID identifies which gitleaks rule matched
	RuleID string `json:"rule_id"`

	// Description explains what was found
	Description string `json:"description"`

	// Line is the line number (1-indexed)
	Line int `json:"line,omitempty"`

	// The matched value is NOT included to avoid leaking the secret
}

// HasFindings returns true if any secrets were found.
func (r *Result) HasFindings() bool {
	return r.TotalFindings > 0
}

// RuleIDs returns the unique rule IDs that matched.
func (r *Result) RuleIDs() []string {
	ids := make([]string, 0, len(r.ByRule))
	for id := range r.ByRule {
		ids = append(ids, id)
	}
	return ids
}
