package ai

import (
	"regexp"
	"strings"
)

// Models occasionally ignore the requested count; never return more than this.
const maxRecommendations = 30

var (
	numberedLine = regexp.MustCompile(`^\s*\d+[.)]?\s+(.+)$`)
	leadingJunk  = regexp.MustCompile(`^[\s\d.)\]*•\-–—]+`)
)

// recommendation separators, in the order they are recognized
var separators = []string{" - ", " by ", ":"}

// ParseRecommendations extracts "Song - Artist" lines from free-form model
// output. A strict pass accepts only numbered lines containing a recognized
// separator; if that yields nothing, a lenient pass tolerates missing
// numbering, bullet markers and surrounding punctuation.
func ParseRecommendations(content string) []string {
	lines := strings.Split(content, "\n")

	recommendations := parseStrict(lines)
	if len(recommendations) == 0 {
		recommendations = parseLenient(lines)
	}

	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}
	return recommendations
}

func parseStrict(lines []string) []string {
	var out []string
	for _, line := range lines {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		song := strings.TrimSpace(m[1])
		if hasSeparator(song) {
			out = append(out, song)
		}
	}
	return out
}

func parseLenient(lines []string) []string {
	var out []string
	for _, line := range lines {
		song := leadingJunk.ReplaceAllString(line, "")
		song = strings.Trim(song, " \t\"'`*")
		if len(song) < 3 || len(song) > 200 {
			continue
		}
		if hasSeparator(song) {
			out = append(out, song)
		}
	}
	return out
}

func hasSeparator(s string) bool {
	for _, sep := range separators {
		idx := strings.Index(s, sep)
		if idx <= 0 {
			continue
		}
		// Both sides of the separator must be non-empty.
		if strings.TrimSpace(s[idx+len(sep):]) != "" {
			return true
		}
	}
	return false
}

// SplitItem divides a recommendation into its two halves at the first
// recognized separator. ok is false when no separator is present.
func SplitItem(item string) (left, right, sep string, ok bool) {
	for _, s := range separators {
		idx := strings.Index(item, s)
		if idx <= 0 {
			continue
		}
		l := strings.TrimSpace(item[:idx])
		r := strings.TrimSpace(item[idx+len(s):])
		if l != "" && r != "" {
			return l, r, s, true
		}
	}
	return "", "", "", false
}
