package grounding

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func TestExtractSourcesGroundingChunks(t *testing.T) {
	raw := tree(t, `{
		"groundingChunks": [
			{"web": {"uri": "https://apnews.com/x"}}
		]
	}`)

	got := ExtractSources(raw, 0)

	require.Len(t, got, 1)
	assert.Equal(t, "https://apnews.com/x", got[0].URL)
	assert.Equal(t, "apnews.com", got[0].Title)
}

func TestExtractSourcesUnderCandidates(t *testing.T) {
	raw := tree(t, `{
		"candidates": [{
			"content": {"parts": [{"text": "..."}]},
			"groundingMetadata": {
				"groundingChunks": [
					{"web": {"uri": "https://www.reuters.com/a", "title": "Reuters story"}},
					{"web": {"uri": "https://bls.gov/report"}}
				]
			}
		}]
	}`)

	got := ExtractSources(raw, 0)

	require.Len(t, got, 2)
	assert.Equal(t, "https://www.reuters.com/a", got[0].URL)
	assert.Equal(t, "Reuters story", got[0].Title)
	assert.Equal(t, "bls.gov", got[1].Title)
}

func TestExtractSourcesLegacySearchResults(t *testing.T) {
	raw := tree(t, `{
		"webSearchQueries": [{
			"query": "moon cheese",
			"webSearchResults": [
				{"url": "https://nasa.gov/moon", "title": "NASA on the Moon"},
				{"url": "https://nasa.gov/moon", "title": "duplicate"},
				{"url": "not a url", "title": "bad"}
			]
		}]
	}`)

	got := ExtractSources(raw, 0)

	require.Len(t, got, 1)
	assert.Equal(t, "https://nasa.gov/moon", got[0].URL)
	assert.Equal(t, "NASA on the Moon", got[0].Title)
}

// Unknown-but-grounding-looking shapes are picked up by the structural walk.
func TestExtractSourcesStructuralWalk(t *testing.T) {
	raw := tree(t, `{
		"searchResults": {
			"entries": null,
			"sources": [
				{"url": "https://who.int/report", "title": "WHO report"},
				{"uri": "https://example.org/page"}
			]
		}
	}`)

	got := ExtractSources(raw, 0)

	require.Len(t, got, 2)
	assert.Equal(t, "https://who.int/report", got[0].URL)
	assert.Equal(t, "https://example.org/page", got[1].URL)
	assert.Equal(t, "example.org", got[1].Title)
}

func TestExtractSourcesBareURLString(t *testing.T) {
	raw := tree(t, `{"sourceUrl": "https://bbc.co.uk/news/1"}`)

	got := ExtractSources(raw, 0)

	require.Len(t, got, 1)
	assert.Equal(t, "https://bbc.co.uk/news/1", got[0].URL)
	assert.Equal(t, "bbc.co.uk", got[0].Title)
}

func TestExtractSourcesDropsRedirectorsAndInvalid(t *testing.T) {
	raw := tree(t, `{
		"groundingChunks": [
			{"web": {"uri": "https://vertexaisearch.cloud.google.com/redirect/x"}},
			{"web": {"uri": "ftp://old.example.com"}},
			{"web": {"uri": "https://apnews.com/real"}}
		]
	}`)

	got := ExtractSources(raw, 0)

	require.Len(t, got, 1)
	assert.Equal(t, "https://apnews.com/real", got[0].URL)
}

func TestExtractSourcesCap(t *testing.T) {
	raw := tree(t, `{
		"groundingChunks": [
			{"web": {"uri": "https://a.com/1"}},
			{"web": {"uri": "https://a.com/2"}},
			{"web": {"uri": "https://a.com/3"}},
			{"web": {"uri": "https://a.com/4"}}
		]
	}`)

	got := ExtractSources(raw, 3)
	assert.Len(t, got, 3)
	assert.Equal(t, "https://a.com/1", got[0].URL)
}

func TestExtractSourcesMalformedNodesSkipped(t *testing.T) {
	raw := tree(t, `{
		"groundingChunks": [
			"just a string",
			{"web": 42},
			{"web": {"uri": 17}},
			{"web": {"uri": "https://ok.example.com/x"}}
		],
		"results": 9,
		"web": false
	}`)

	got := ExtractSources(raw, 0)

	require.Len(t, got, 1)
	assert.Equal(t, "https://ok.example.com/x", got[0].URL)
}

func TestExtractSourcesEmpty(t *testing.T) {
	assert.Empty(t, ExtractSources(map[string]any{}, 0))
	assert.Empty(t, ExtractSources(nil, 0))
}

func TestExtractQueries(t *testing.T) {
	raw := tree(t, `{
		"candidates": [{
			"groundingMetadata": {
				"webSearchQueries": ["moon made of cheese", "sky color green"]
			}
		}]
	}`)

	assert.Equal(t, []string{"moon made of cheese", "sky color green"}, ExtractQueries(raw))
	assert.Empty(t, ExtractQueries(map[string]any{}))
}
