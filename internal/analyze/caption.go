package analyze

import (
	"regexp"
	"strings"
)

// CaptionRequest wraps a raw figure or table caption.
type CaptionRequest struct {
	RawCaption string `json:"rawCaption"`
}

// Caption is a caption split into its labeling parts. When the input does
// not follow the label-number pattern the label fields stay empty and
// Content carries the whole input.
type Caption struct {
	Prefix    string `json:"prefix"`
	Number    string `json:"number"`
	Separator string `json:"separator"`
	Content   string `json:"content"`
}

// captionPattern splits "Figure 3: text" style captions: a label word, a
// possibly dotted number with an optional letter suffix, an optional
// separator, then the caption body.
var captionPattern = regexp.MustCompile(`^\s*(\p{L}+\.?)\s*(\d+(?:\.\d+)*[a-z]?)\s*([:.\-–—]?)\s*(.*)$`)

// ParseCaption splits a raw caption into prefix, number, separator and
// content. Deterministic local parse; no completion call involved.
func ParseCaption(raw string) Caption {
	matches := captionPattern.FindStringSubmatch(raw)
	if matches == nil {
		return Caption{Content: strings.TrimSpace(raw)}
	}
	return Caption{
		Prefix:    matches[1],
		Number:    matches[2],
		Separator: matches[3],
		Content:   strings.TrimSpace(matches[4]),
	}
}
