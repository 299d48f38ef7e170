// Package extraction recovers structured payloads from model completion
// text. Models are prompted to answer with a single fenced JSON block, but
// real completions arrive with prose around the fence, a missing fence, a
// bare JSON object, or truncated output. Decode tolerates all of those and
// degrades to a caller-supplied fallback instead of failing the request.
package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const fence = "```"

// Decode parses the JSON payload embedded in raw into a value of type T.
//
// The first fenced block wins: when raw contains one or more triple-backtick
// regions, only the interior of the first complete region is parsed. Without
// a fence the whole text is parsed as JSON. On empty input or any parse
// failure Decode returns fallback together with a diagnostic error; the
// returned value is always usable and the error is for logging only.
func Decode[T any](raw string, fallback T) (T, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return fallback, errors.New("empty completion text")
	}

	if payload, ok := fencedPayload(text); ok {
		var v T
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return fallback, fmt.Errorf("parse fenced payload: %w", err)
		}
		return v, nil
	}

	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return fallback, fmt.Errorf("parse completion text: %w", err)
	}
	return v, nil
}

// fencedPayload returns the interior of the first complete fenced block in
// text. An opening marker without a closing one is not a block; truncated
// completions fall through to the whole-text parse and from there to the
// fallback.
func fencedPayload(text string) (string, bool) {
	start := strings.Index(text, fence)
	if start == -1 {
		return "", false
	}
	body := text[start+len(fence):]
	body = strings.TrimPrefix(body, "json")
	end := strings.Index(body, fence)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}
