package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a surrounding markdown code fence (``` or ```json)
// from a model response. Content without fences comes back unchanged apart
// from whitespace trimming.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line (e.g. "json").
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseJSON cleans and unmarshals a JSON object from a model response,
// tolerating surrounding markdown or extra prose around the object.
func ParseJSON[T any](response string) (T, error) {
	return parseDelimited[T](StripCodeFences(response), '{', '}')
}

// ParseJSONArray is ParseJSON for responses whose top-level value is an array.
func ParseJSONArray[T any](response string) (T, error) {
	return parseDelimited[T](StripCodeFences(response), '[', ']')
}

func parseDelimited[T any](s string, open, closing byte) (T, error) {
	var zero T

	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closing)
	if start == -1 || end == -1 || start >= end {
		return zero, fmt.Errorf("no JSON value found in response (missing '%c')", open)
	}

	var result T
	if err := json.Unmarshal([]byte(s[start:end+1]), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return result, nil
}
