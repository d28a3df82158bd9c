// Package match implements the metadata normalization and similarity scoring
// used to pick a destination catalog item for a source track.
package match

import (
	"regexp"
	"strings"
)

// Junk vocabulary removed from titles and artist names before comparison.
// Each token may be followed by a 4-digit year ("Remastered 2011").
var junkRegex = regexp.MustCompile(`(?i)\b(official|music|lyric|visualizer|audio|video|hd|4k|remastered|remaster|remix|edit|version|live|unplugged|acoustic|extended|radio)(\s\d{4})?\b`)

var (
	featRegex    = regexp.MustCompile(`(?i)\(feat\..*?\)`)
	ftRegex      = regexp.MustCompile(`(?i)ft\..*`)
	bracketRegex = regexp.MustCompile(`[()\[\]{}]`)
)

// Normalize strips noise tokens from free-text track metadata so that two
// catalogs' renditions of the same song compare equal-ish.
//
// Deterministic and idempotent; always returns a string, possibly empty.
func Normalize(raw string) string {
	out := normalizePass(raw)
	// Stripping brackets can expose new junk tokens ("Li(ve)" -> "Live"),
	// so run to a fixed point. Each pass only removes characters.
	for prev := raw; out != prev; {
		prev = out
		out = normalizePass(prev)
	}
	return out
}

func normalizePass(s string) string {
	if s == "" {
		return ""
	}
	s = junkRegex.ReplaceAllString(s, "")
	s = featRegex.ReplaceAllString(s, "")
	s = ftRegex.ReplaceAllString(s, "")
	s = bracketRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
