package review

import "strings"

// venueFamily pairs profile-id keywords with reviewer framing text.
type venueFamily struct {
	name     string
	keywords []string
	context  string
}

// venueFamilies is evaluated in fixed priority order; the first family with
// a keyword contained in the lowercased profile id wins. Profile ids are
// free-form, so overlaps happen (a profile mentioning both "ieee" and "acm"
// classifies as IEEE); the priority order resolves them deliberately.
var venueFamilies = []venueFamily{
	{
		name:     "ieee",
		keywords: []string{"ieee", "tpami", "transactions"},
		context:  "The target venue follows IEEE review conventions: weight technical correctness, completeness of derivations, and precision of notation and terminology.",
	},
	{
		name:     "nature-science",
		keywords: []string{"nature", "science", "pnas"},
		context:  "The target venue is a high-selectivity general-audience journal: weight breadth of significance and clarity for non-specialists over exhaustive technical detail.",
	},
	{
		name:     "ml-conference",
		keywords: []string{"neurips", "nips", "icml", "iclr", "aaai", "ijcai", "cvpr", "acl"},
		context:  "The target venue is a competitive machine-learning conference: weight novelty against the current state of the art, ablation coverage, and benchmark rigor.",
	},
	{
		name:     "acm-springer",
		keywords: []string{"acm", "springer", "lncs"},
		context:  "The target venue follows ACM/Springer journal conventions: weight methodological soundness, related-work positioning, and reproducibility of the artifact.",
	},
}

// VenueContext returns the reviewer framing text for a profile id, or the
// empty string when no family matches. Shared with the single-call analysis
// prompts, which frame by the same venue families.
func VenueContext(profileID string) string {
	if profileID == "" {
		return ""
	}
	id := strings.ToLower(profileID)
	for _, family := range venueFamilies {
		for _, keyword := range family.keywords {
			if strings.Contains(id, keyword) {
				return family.context
			}
		}
	}
	return ""
}
