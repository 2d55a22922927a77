// Package grounding recovers the real web sources a grounded model call
// actually used. The provider's self-reported source URLs are unreliable and
// sometimes fabricated; the grounding metadata attached to the raw response
// is the trustworthy record, but its shape is not contractually stable and
// has changed across provider versions. Extraction is therefore structural:
// the response is walked as a generic tree, descending only under keys that
// look grounding-related, rather than decoded against a schema that would
// break on the next API revision.
package grounding

import (
	"sort"
	"strings"

	"github.com/credlens/credlens/internal/core/urlcheck"
)

// Source is one recovered citation. Title falls back to the hostname when
// the metadata carries none.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// DefaultMaxSources caps how many grounding sources one request keeps.
const DefaultMaxSources = 5

const maxWalkDepth = 10

// Key-name substrings that mark a subtree as worth inspecting.
var interestingKeys = []string{"source", "result", "url", "web"}

// ExtractSources walks a raw provider response and returns the ordered,
// deduplicated list of valid sources, capped at max (DefaultMaxSources when
// max <= 0). Known metadata paths are tried first so their ordering wins;
// the generic walk then picks up anything those paths missed.
func ExtractSources(raw map[string]any, max int) []Source {
	if max <= 0 {
		max = DefaultMaxSources
	}
	c := &collector{max: max, seen: make(map[string]bool)}
	c.collectKnownPaths(raw)
	c.walk(raw, 0)
	return c.sources
}

// ExtractQueries returns the web search queries recorded in the grounding
// metadata, if any. Informational only.
func ExtractQueries(raw map[string]any) []string {
	var queries []string
	seen := make(map[string]bool)

	var walk func(node any, depth int)
	walk = func(node any, depth int) {
		if depth > maxWalkDepth {
			return
		}
		switch v := node.(type) {
		case map[string]any:
			for _, k := range sortedKeys(v) {
				if strings.Contains(strings.ToLower(k), "searchqueries") {
					if arr, ok := v[k].([]any); ok {
						for _, q := range arr {
							if s, ok := q.(string); ok && s != "" && !seen[s] {
								seen[s] = true
								queries = append(queries, s)
							}
						}
						continue
					}
				}
				walk(v[k], depth+1)
			}
		case []any:
			for _, item := range v {
				walk(item, depth+1)
			}
		}
	}
	walk(raw, 0)
	return queries
}

type collector struct {
	max     int
	seen    map[string]bool
	sources []Source
}

func (c *collector) add(url, title string) {
	if len(c.sources) >= c.max || !urlcheck.Valid(url) || c.seen[url] {
		return
	}
	c.seen[url] = true
	if title == "" {
		title = urlcheck.HostTitle(url)
	}
	c.sources = append(c.sources, Source{URL: url, Title: title})
}

// collectKnownPaths handles the metadata shapes observed so far:
// groundingChunks[].web.{uri,title} and the legacy
// webSearchQueries[].webSearchResults[].{url,title}, whether the metadata
// sits at the response root or under candidates[].groundingMetadata.
func (c *collector) collectKnownPaths(raw map[string]any) {
	c.collectMetadata(raw)
	for _, cand := range asSlice(raw["candidates"]) {
		m := asMap(cand)
		if meta := asMap(m["groundingMetadata"]); meta != nil {
			c.collectMetadata(meta)
		}
		if meta := asMap(m["grounding_metadata"]); meta != nil {
			c.collectMetadata(meta)
		}
	}
}

func (c *collector) collectMetadata(meta map[string]any) {
	chunks := asSlice(meta["groundingChunks"])
	if chunks == nil {
		chunks = asSlice(meta["grounding_chunks"])
	}
	for _, chunk := range chunks {
		web := asMap(asMap(chunk)["web"])
		c.add(asString(web["uri"]), asString(web["title"]))
	}
	for _, query := range asSlice(meta["webSearchQueries"]) {
		for _, res := range asSlice(asMap(query)["webSearchResults"]) {
			m := asMap(res)
			c.add(asString(m["url"]), asString(m["title"]))
		}
	}
}

// walk inspects any subtree reachable under grounding-looking key names and
// collects whatever resembles a {url, title} pair. A malformed node is
// skipped, never fatal.
func (c *collector) walk(node any, depth int) {
	if len(c.sources) >= c.max || depth > maxWalkDepth {
		return
	}
	switch v := node.(type) {
	case map[string]any:
		c.tryCollect(v)
		for _, k := range sortedKeys(v) {
			if !interestingKey(k) {
				continue
			}
			if s, ok := v[k].(string); ok {
				// A bare URL string under a url-ish key.
				if isURLKey(k) {
					c.add(s, asString(v["title"]))
				}
				continue
			}
			c.walk(v[k], depth+1)
		}
	case []any:
		for _, item := range v {
			c.walk(item, depth+1)
		}
	}
}

func (c *collector) tryCollect(m map[string]any) {
	url := asString(m["url"])
	if url == "" {
		url = asString(m["uri"])
	}
	if url != "" {
		c.add(url, asString(m["title"]))
	}
}

func interestingKey(k string) bool {
	k = strings.ToLower(k)
	for _, sub := range interestingKeys {
		if strings.Contains(k, sub) {
			return true
		}
	}
	return false
}

func isURLKey(k string) bool {
	k = strings.ToLower(k)
	return strings.Contains(k, "url") || strings.Contains(k, "uri")
}

// sortedKeys keeps the walk deterministic; Go map iteration order is not.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
