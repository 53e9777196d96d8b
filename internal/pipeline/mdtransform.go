package pipeline

import (
	"context"
	"regexp"
	"strings"
)

var (
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	thematicBreak = regexp.MustCompile(`^\s*[-*_]{3,}\s*$`)

	// Markers directly followed by content, e.g. "#Title", "-item", "1.item".
	headingNoSpace     = regexp.MustCompile(`^(#{1,6})([^\s#].*)$`)
	bulletNoSpaceGuard = regexp.MustCompile(`^(\s*[-*+])[^\s*+-].*$`)
	bulletNoSpace      = regexp.MustCompile(`^(\s*[-*+])(\S.*)$`)
	orderedNoSpace     = regexp.MustCompile(`^(\s*\d+\.)([^\s\d].*)$`)
)

// MarkdownPreprocessor defines the contract for markdown preprocessing.
type MarkdownPreprocessor interface {
	PreprocessMarkdown(ctx context.Context, content string) string
}

// AuthoringNormalizer repairs common authoring slips before rendering:
// a missing space after heading hashes, bullet markers and ordered list
// numbers. Thematic breaks and fenced code are never touched.
type AuthoringNormalizer struct{}

// PreprocessMarkdown normalizes line endings, then fixes marker spacing
// line by line outside fenced code blocks.
func (p *AuthoringNormalizer) PreprocessMarkdown(ctx context.Context, content string) string {
	if ctx.Err() != nil {
		return content
	}
	content = normalizeLineEndings(content)
	return mapProse(content, normalizeLines)
}

// normalizeLineEndings converts \r\n and \r to \n.
func normalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

func normalizeLines(prose string) string {
	lines := strings.Split(prose, "\n")
	for i, line := range lines {
		lines[i] = normalizeLine(line)
	}
	return strings.Join(lines, "\n")
}

func normalizeLine(line string) string {
	if thematicBreak.MatchString(line) {
		return line
	}
	if headingNoSpace.MatchString(line) {
		return headingNoSpace.ReplaceAllString(line, "$1 $2")
	}
	if bulletNoSpaceGuard.MatchString(line) {
		return bulletNoSpace.ReplaceAllString(line, "$1 $2")
	}
	if orderedNoSpace.MatchString(line) {
		return orderedNoSpace.ReplaceAllString(line, "$1 $2")
	}
	return line
}
