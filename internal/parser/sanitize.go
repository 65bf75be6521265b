package parser

import (
	"fmt"
	"strings"

	"medibill/internal/domain"
)

// ExtractJSONObject strips non-JSON wrapping from raw model output (markdown
// code fences, surrounding prose) and returns the outermost JSON object.
// Fails with domain.ErrMalformedResponse when no object can be located.
func ExtractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	// Prefer the content of a fenced block when present.
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = rest[:end]
		} else {
			s = rest
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in model output (raw: %s)", domain.ErrMalformedResponse, Truncate(raw, 200))
	}
	return s[start : end+1], nil
}

// Truncate shortens s for log and error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
