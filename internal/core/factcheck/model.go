// Package factcheck runs the grounded credibility pipeline: prompt
// construction, the grounded model call, and normalization of the model's
// loosely-formatted output into the stable result schema the extension
// consumes.
package factcheck

import "strings"

// Assessment is one of the six fixed verdict labels. Anything else the model
// produces is coerced to Unverifiable.
type Assessment string

const (
	AssessmentTrue         Assessment = "True"
	AssessmentLikelyTrue   Assessment = "Likely True"
	AssessmentMixed        Assessment = "Mixed"
	AssessmentLikelyFalse  Assessment = "Likely False"
	AssessmentFalse        Assessment = "False"
	AssessmentUnverifiable Assessment = "Unverifiable"
)

// ratingTable fixes the numeric rating for each label. Ratings are always
// derived from the label, never computed independently.
var ratingTable = map[Assessment]int{
	AssessmentTrue:         9,
	AssessmentLikelyTrue:   8,
	AssessmentMixed:        6,
	AssessmentLikelyFalse:  3,
	AssessmentFalse:        1,
	AssessmentUnverifiable: 5,
}

var explanationTable = map[Assessment]string{
	AssessmentTrue:         "Claims are supported by evidence from authoritative sources",
	AssessmentLikelyTrue:   "Claims are mostly supported by available evidence",
	AssessmentMixed:        "Claims are partially supported; some aspects are disputed or lack evidence",
	AssessmentLikelyFalse:  "Claims are mostly unsupported or disputed by available evidence",
	AssessmentFalse:        "Claims are contradicted by evidence from authoritative sources",
	AssessmentUnverifiable: "Claims could not be verified against reliable sources",
}

func (a Assessment) Rating() int {
	if r, ok := ratingTable[a]; ok {
		return r
	}
	return ratingTable[AssessmentUnverifiable]
}

func (a Assessment) Explanation() string {
	if e, ok := explanationTable[a]; ok {
		return e
	}
	return explanationTable[AssessmentUnverifiable]
}

// NormalizeAssessment coerces a model-reported label to one of the six fixed
// values, matching case-insensitively.
func NormalizeAssessment(s string) Assessment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return AssessmentTrue
	case "likely true":
		return AssessmentLikelyTrue
	case "mixed":
		return AssessmentMixed
	case "likely false":
		return AssessmentLikelyFalse
	case "false":
		return AssessmentFalse
	default:
		return AssessmentUnverifiable
	}
}

// Default scores assigned to sources in absence of any finer signal.
const (
	defaultCredibilityScore = 7
	defaultRelevanceScore   = 8
)

// Source is one citation attached to a claim.
type Source struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	CredibilityScore int    `json:"credibilityScore"`
	RelevanceScore   int    `json:"relevanceScore"`
	Summary          string `json:"summary"`
}

// ClaimRating is one evaluated factual statement.
type ClaimRating struct {
	Claim         string   `json:"claim"`
	Rating        int      `json:"rating"`
	Confidence    float64  `json:"confidence"`
	Explanation   string   `json:"explanation"`
	Sources       []Source `json:"sources"`
	GroundingUsed bool     `json:"groundingUsed"`
}

type OverallRating struct {
	Rating      int        `json:"rating"`
	Confidence  float64    `json:"confidence"`
	Assessment  Assessment `json:"assessment"`
	Explanation string     `json:"explanation"`
}

type SearchMetadata struct {
	SourcesFound         int      `json:"sourcesFound"`
	AuthoritativeSources int      `json:"authoritativeSources"`
	SearchQueries        []string `json:"searchQueries"`
}

// Result is the top-level response. Built fresh per request, never persisted,
// never mutated after construction.
type Result struct {
	OverallRating  OverallRating  `json:"overallRating"`
	Claims         []ClaimRating  `json:"claims"`
	SearchMetadata SearchMetadata `json:"searchMetadata"`
}

// compactBody mirrors the ultra-compact JSON contract the grounded prompt
// demands from the model. Best-effort: the model violates it often enough
// that every consumer treats missing pieces as normal.
type compactBody struct {
	OA     string         `json:"oa"`
	OC     float64        `json:"oc"`
	Claims []compactClaim `json:"claims"`
}

type compactClaim struct {
	C    string   `json:"c"`
	R    int      `json:"r"`
	Conf float64  `json:"conf"`
	Exp  string   `json:"exp"`
	Src  []string `json:"src"`
}
