// Package llmjson turns raw model output into JSON that can be decoded
// strictly. Models wrap answers in code fences, prepend reasoning blocks or
// chat around the payload; Clean strips all of that so Decode can either
// succeed on a well-formed value or fail loudly.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse means the model returned no content at all.
	ErrEmptyResponse = errors.New("empty model response")
	// ErrMalformedResponse means the content could not be decoded as JSON.
	ErrMalformedResponse = errors.New("malformed model response")
)

// Clean strips <think> blocks and code fences and cuts s down to the
// outermost JSON object or array it contains.
func Clean(s string) string {
	s = stripThinkBlock(strings.TrimSpace(s))
	s = stripCodeFence(s)
	return extractJSON(s)
}

// Decode cleans raw and unmarshals it into v.
func Decode(raw string, v any) error {
	content := Clean(raw)
	if content == "" {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(content), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func stripThinkBlock(s string) string {
	const open, close = "<think>", "</think>"
	start := strings.Index(s, open)
	if start < 0 {
		return s
	}
	end := strings.Index(s[start:], close)
	if end < 0 {
		return strings.TrimSpace(s[:start])
	}
	return strings.TrimSpace(s[:start] + s[start+end+len(close):])
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// extractJSON keeps the span from the first '{' or '[' to the matching last
// closing bracket of the same kind.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(s, closer)
	if end < start {
		return s
	}
	return s[start : end+1]
}
