// Package urlcheck validates candidate citation URLs coming out of model
// responses and grounding metadata.
package urlcheck

import (
	"net/url"
	"strings"
	"unicode"
)

// Redirector and tracking hosts are rejected outright: links through them
// hide the real publisher, and grounding responses are full of them. The
// prompt forbids these, and the validator enforces it uniformly.
var redirectorHosts = map[string]struct{}{
	"t.co":                            {},
	"bit.ly":                          {},
	"goo.gl":                          {},
	"news.google.com":                 {},
	"vertexaisearch.cloud.google.com": {},
}

// Valid reports whether raw is an absolute http(s) URL with no whitespace or
// control characters and a non-redirector host.
func Valid(raw string) bool {
	if raw == "" {
		return false
	}
	for _, r := range raw {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if _, blocked := redirectorHosts[host]; blocked {
		return false
	}
	return true
}

// HostTitle derives a display title from a URL's hostname, with the "www."
// prefix stripped. Returns "" when the URL does not parse.
func HostTitle(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
