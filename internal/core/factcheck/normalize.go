package factcheck

import (
	"log"
	"strings"

	"github.com/credlens/credlens/internal/core/common"
	"github.com/credlens/credlens/internal/core/grounding"
	"github.com/credlens/credlens/internal/core/urlcheck"
)

const maxClaimsOut = 5

// Hosts counted as authoritative in the informational search metadata, on
// top of any .gov / .edu host.
var authoritativeHosts = map[string]struct{}{
	"apnews.com":  {},
	"reuters.com": {},
	"bbc.com":     {},
	"bbc.co.uk":   {},
	"who.int":     {},
	"nature.com":  {},
}

// Normalize reshapes the model's raw text plus the recovered grounding
// sources into the canonical Result. It never fails: unparseable model
// output degrades to an Unverifiable result with no claims.
func Normalize(rawText string, groundingSources []grounding.Source, searchQueries []string) *Result {
	body, err := common.ParseJSON[compactBody](rawText)
	if err != nil {
		log.Printf("model output did not parse, falling back to unverifiable: %v", err)
		body = compactBody{OA: string(AssessmentUnverifiable), OC: 0.5}
	}

	assessment := NormalizeAssessment(body.OA)
	confidence := clamp01(body.OC)
	groundingUsed := len(groundingSources) > 0

	titleByURL := make(map[string]string, len(groundingSources))
	for _, s := range groundingSources {
		titleByURL[s.URL] = s.Title
	}

	claims := make([]ClaimRating, 0, len(body.Claims))
	for _, mc := range body.Claims {
		if len(claims) == maxClaimsOut {
			break
		}
		claim := strings.TrimSpace(mc.C)
		if claim == "" {
			continue
		}

		urls := filterURLs(mc.Src)
		if len(urls) == 0 {
			// The model's own citations are unreliable; fall back to what
			// the grounding metadata says was actually consulted.
			for _, s := range groundingSources {
				urls = append(urls, s.URL)
			}
		}

		sources := make([]Source, 0, len(urls))
		for _, u := range urls {
			title := titleByURL[u]
			if title == "" {
				title = urlcheck.HostTitle(u)
			}
			sources = append(sources, Source{
				URL:              u,
				Title:            title,
				CredibilityScore: defaultCredibilityScore,
				RelevanceScore:   defaultRelevanceScore,
			})
		}

		claims = append(claims, ClaimRating{
			Claim:         claim,
			Rating:        assessment.Rating(),
			Confidence:    confidence,
			Explanation:   strings.TrimSpace(mc.Exp),
			Sources:       sources,
			GroundingUsed: groundingUsed,
		})
	}

	return &Result{
		OverallRating: OverallRating{
			Rating:      assessment.Rating(),
			Confidence:  confidence,
			Assessment:  assessment,
			Explanation: assessment.Explanation(),
		},
		Claims: claims,
		SearchMetadata: SearchMetadata{
			SourcesFound:         len(groundingSources),
			AuthoritativeSources: countAuthoritative(groundingSources),
			SearchQueries:        searchQueries,
		},
	}
}

func filterURLs(urls []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if urlcheck.Valid(u) && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

func countAuthoritative(sources []grounding.Source) int {
	n := 0
	for _, s := range sources {
		host := urlcheck.HostTitle(s.URL)
		if _, ok := authoritativeHosts[host]; ok {
			n++
			continue
		}
		if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") {
			n++
		}
	}
	return n
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
