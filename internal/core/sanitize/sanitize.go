// Package sanitize prepares raw social-post text for embedding in a model
// prompt. Post text is scraped from arbitrary pages, so it may carry HTML
// markup, and it must not be able to break the JSON structure of the prompt
// or smuggle instructions into it.
package sanitize

import (
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxTextLen caps sanitized text in runes before it reaches a prompt.
	MaxTextLen = 2000
	// MinTextLen is the shortest text worth analyzing.
	MinTextLen = 5
)

// ErrTooShort means the post has no analyzable content after cleaning.
var ErrTooShort = errors.New("text too short to analyze")

var (
	policy  = bluemonday.StrictPolicy()
	breaker = strings.NewReplacer("<", "", ">", "", "{", "", "}", "")
)

// Clean strips HTML markup and JSON-breaking characters, trims whitespace and
// truncates to MaxTextLen runes. Re-applying Clean to its own output is a
// no-op. Returns ErrTooShort when fewer than MinTextLen characters remain.
func Clean(text string) (string, error) {
	s := policy.Sanitize(text)
	s = html.UnescapeString(s)
	s = breaker.Replace(s)
	s = strings.TrimSpace(s)

	if runes := []rune(s); len(runes) > MaxTextLen {
		s = strings.TrimSpace(string(runes[:MaxTextLen]))
	}

	if len([]rune(s)) < MinTextLen {
		return "", ErrTooShort
	}
	return s, nil
}
