package pipeline

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	slugDisallowed    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespaceRun = regexp.MustCompile(`\s+`)
	slugHyphenRun     = regexp.MustCompile(`-+`)
)

// Slugify converts text into an anchor-safe slug: lower-cased, tags
// stripped, accents folded to their base letter, anything outside
// [a-z0-9 -] dropped, whitespace turned into hyphens and hyphen runs
// collapsed. It may return "".
func Slugify(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	s = tagPattern.ReplaceAllString(s, "")
	s = foldAccents(s)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugWhitespaceRun.ReplaceAllString(s, "-")
	return slugHyphenRun.ReplaceAllString(s, "-")
}

// foldAccents strips combining marks so "é" becomes "e".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
