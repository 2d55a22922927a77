package factcheck

import (
	"fmt"
	"strings"
)

// PromptVariant selects the wording of the grounded fact-check prompt. The
// pipeline is otherwise identical across variants.
type PromptVariant string

const (
	VariantStandard PromptVariant = "standard"
	VariantStrict   PromptVariant = "strict"
	VariantConcise  PromptVariant = "concise"
)

// ParseVariant maps a config string to a variant, defaulting to standard.
func ParseVariant(s string) PromptVariant {
	switch PromptVariant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantStrict:
		return VariantStrict
	case VariantConcise:
		return VariantConcise
	default:
		return VariantStandard
	}
}

const compactContract = `Respond with ONLY this compact JSON, nothing else:
{"oa":"<True|Likely True|Mixed|Likely False|False|Unverifiable>","oc":<0..1>,"claims":[{"c":"<claim>","r":<1..10>,"conf":<0..1>,"exp":"<short explanation>","src":["<url>"]}]}

Output rules:
- No markdown code fences. No inline citation markers like [1].
- At most 3 claims, at most 3 URLs per claim.
- Only direct publisher URLs. Never URL shorteners, redirectors or search/aggregator links.
- Never fabricate a URL. Omit src entirely rather than guessing.
- If a claim has no search grounding, its conf must be 0.4 or lower.
- If most claims lack grounding, oa must be "Unverifiable".`

// BuildPrompt assembles the grounded fact-check prompt. postDate, when
// non-empty, anchors the model's sense of "now" to when the post was made;
// imageClaims is sanitized text the client pulled out of the post's images.
func BuildPrompt(variant PromptVariant, text string, imageCount int, postDate, imageClaims string) string {
	var sb strings.Builder

	switch variant {
	case VariantStrict:
		sb.WriteString("You are a rigorous fact-checker. Verify every factual claim in this social media post against web search results. Treat unsupported claims as unverifiable rather than guessing.\n\n")
	case VariantConcise:
		sb.WriteString("Fact-check this social media post using web search.\n\n")
	default:
		sb.WriteString("Assess the credibility of this social media post. Identify its factual claims and verify each against web search results.\n\n")
	}

	fmt.Fprintf(&sb, "Post text: %s\n", text)
	if imageCount > 0 {
		fmt.Fprintf(&sb, "The post has %d attached image(s) whose content is not available to you.\n", imageCount)
	}
	if postDate != "" {
		fmt.Fprintf(&sb, "The post was published on %s; judge time-sensitive claims relative to that date.\n", postDate)
	}
	if imageClaims != "" {
		fmt.Fprintf(&sb, "Text extracted from the post's images: %s\n", imageClaims)
	}

	sb.WriteString("\n")
	sb.WriteString(compactContract)
	return sb.String()
}
