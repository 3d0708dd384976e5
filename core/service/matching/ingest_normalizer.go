// Package matching resolves free-text student names from spreadsheets
// against the canonical roster.
package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	initialDotRe  = regexp.MustCompile(`\b([A-Za-z])\.`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	nonLetterRe   = regexp.MustCompile(`[^A-Z\s]`)
	garbageRes    = []*regexp.Regexp{
		regexp.MustCompile(`^\* `),
		regexp.MustCompile(`(?i)^si cal`),
		regexp.MustCompile(`(?i)^renovar`),
		regexp.MustCompile(`(?i)^model de pi`),
	}
)

// CleanName strips spreadsheet artifacts: asterisks, dots after single
// initials, repeated whitespace.
func CleanName(raw string) string {
	s := strings.ReplaceAll(raw, "*", "")
	s = initialDotRe.ReplaceAllString(s, "$1")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeCommaFormat rewrites "Surname, Name" as "Name Surname". Names
// without a comma pass through unchanged.
func NormalizeCommaFormat(name string) string {
	idx := strings.Index(name, ",")
	if idx < 0 {
		return name
	}
	last := strings.TrimSpace(name[:idx])
	first := strings.TrimSpace(name[idx+1:])
	if last == "" || first == "" {
		return strings.TrimSpace(strings.ReplaceAll(name, ",", " "))
	}
	return first + " " + last
}

// Normalize produces the canonical comparison key: uppercase ASCII letters
// and single spaces, accents stripped.
func Normalize(name string) string {
	s := strings.ToUpper(name)
	s = stripCombining(s)
	s = nonLetterRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func stripCombining(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tokenize splits a normalized name into its tokens.
func Tokenize(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}

// TokenizeForMatching drops single-letter tokens, which are almost always
// abbreviated middle names and match far too loosely.
func TokenizeForMatching(normalized string) []string {
	var out []string
	for _, t := range strings.Fields(normalized) {
		if len(t) > 1 {
			out = append(out, t)
		}
	}
	return out
}

// IsGarbage reports whether a cell is a known non-name artifact (legends,
// template reminders) that should be skipped without being reported.
func IsGarbage(raw string) bool {
	s := strings.TrimSpace(raw)
	for _, re := range garbageRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Levenshtein computes edit distance between two strings.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
