// Package claims turns free-form post text into a short list of atomic,
// independently verifiable factual claims via a single model call.
package claims

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/credlens/credlens/internal/core/common"
	"github.com/credlens/credlens/internal/llm"
)

// Sentinel is returned as the only claim when nothing usable could be
// extracted. Callers never see an error from Extract.
const Sentinel = "Unable to extract claims from this post"

const (
	maxClaims   = 5
	maxClaimLen = 500

	// endMarker terminates the model output so a stop sequence can cut off
	// any trailing chatter.
	endMarker = "##END##"
)

type Extractor struct {
	llm llm.Client
}

func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{llm: client}
}

// Extract returns between 1 and 5 claim strings for the given sanitized text.
// All failure modes (model error, unparseable output, empty result) degrade
// to the single Sentinel claim; this function never returns an error.
func (e *Extractor) Extract(ctx context.Context, text string, imageCount int) []string {
	if len([]rune(strings.TrimSpace(text))) < 5 {
		return []string{Sentinel}
	}

	prompt := buildPrompt(text, imageCount)
	response, err := e.llm.Generate(ctx, prompt, llm.GenerateOptions{
		Temperature:     0,
		MaxOutputTokens: 512,
		StopSequences:   []string{endMarker},
		Seed:            42,
	})
	if err != nil {
		log.Printf("claim extraction model call failed: %v", err)
		return []string{Sentinel}
	}

	if parsed := parseClaims(response); len(parsed) > 0 {
		return parsed
	}
	return []string{Sentinel}
}

func buildPrompt(text string, imageCount int) string {
	var sb strings.Builder
	sb.WriteString(`Extract the atomic, verifiable factual claims from this social media post.

Rules:
- Return 2 to 5 claims, fewer only if the post contains fewer.
- Each claim must be a single, standalone factual assertion.
- Exclude opinions, jokes, questions and predictions about the future.
- Respond with a bare JSON array of strings. No markdown, no commentary.

`)
	fmt.Fprintf(&sb, "Post text: %s\n", text)
	if imageCount > 0 {
		fmt.Fprintf(&sb, "The post has %d attached image(s).\n", imageCount)
	}
	fmt.Fprintf(&sb, "\nEnd your output with %s", endMarker)
	return sb.String()
}

// parseClaims tries a strict JSON-array parse first, then falls back to
// splitting bulleted or quoted lines. Returns nil when neither yields a
// usable claim.
func parseClaims(response string) []string {
	if arr, err := common.ParseJSONArray[[]string](response); err == nil {
		if cleaned := cleanClaims(arr); len(cleaned) > 0 {
			return cleaned
		}
	}
	return cleanClaims(splitLines(response))
}

func splitLines(response string) []string {
	var out []string
	for _, line := range strings.Split(common.StripCodeFences(response), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•\"'0123456789. ")
		line = strings.TrimRight(line, "\",")
		if line != "" && line != endMarker {
			out = append(out, line)
		}
	}
	return out
}

func cleanClaims(raw []string) []string {
	var out []string
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if runes := []rune(c); len(runes) > maxClaimLen {
			c = string(runes[:maxClaimLen])
		}
		out = append(out, c)
		if len(out) == maxClaims {
			break
		}
	}
	return out
}
