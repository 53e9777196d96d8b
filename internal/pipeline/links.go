package pipeline

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// inlineRefPattern matches both [label](target) and ![alt](target).
	// RE2 has no lookbehind, so callers inspect the bang group to tell them apart.
	inlineRefPattern = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)]+)\)`)

	externalSchemePattern = regexp.MustCompile(`(?i)^(https?:|mailto:|tel:|data:|file:)`)
)

// documentExtensions lists the file extensions treated as linkable documents.
var documentExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".mdx":      {},
	".txt":      {},
}

// inlineRef is one inline link or image reference found in markdown text.
type inlineRef struct {
	image bool
	label string
	href  string
}

func parseInlineRef(groups []string) inlineRef {
	return inlineRef{
		image: groups[1] == "!",
		label: groups[2],
		href:  parseTarget(groups[3]),
	}
}

// parseTarget extracts the destination from the parenthesized part of a
// reference, dropping angle brackets and any trailing title.
func parseTarget(raw string) string {
	t := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(t, "<"); ok {
		if dest, _, found := strings.Cut(rest, ">"); found {
			return dest
		}
	}
	fields := strings.Fields(t)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// IsExternal reports whether href uses a scheme that is never rewritten or read.
func IsExternal(href string) bool {
	return externalSchemePattern.MatchString(href)
}

// IsDocumentPath reports whether the path carries a markdown document extension.
func IsDocumentPath(path string) bool {
	_, ok := documentExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// splitFragment separates "path#fragment". The fragment excludes the '#'.
func splitFragment(href string) (path, fragment string) {
	path, fragment, _ = strings.Cut(href, "#")
	return path, fragment
}

// decodeRef undoes percent-encoding, leaving malformed input as is.
func decodeRef(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		return decoded
	}
	return s
}

// resolveAgainst turns a relative reference into a normalized absolute path.
func resolveAgainst(dir, target string) string {
	target = filepath.FromSlash(decodeRef(target))
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(dir, target))
}

// NormalizePath returns the canonical form used for identity comparisons.
func NormalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// DocumentLinks returns the path part of every relative link to another
// document, in order of appearance. Fragments are stripped and duplicates
// are kept. Links inside fenced code blocks are ignored.
func DocumentLinks(markdown string) []string {
	var links []string
	eachProse(markdown, func(prose string) {
		for _, groups := range inlineRefPattern.FindAllStringSubmatch(prose, -1) {
			ref := parseInlineRef(groups)
			if ref.image || ref.label == "" || ref.href == "" || IsExternal(ref.href) {
				continue
			}
			path, _ := splitFragment(ref.href)
			if path == "" || !IsDocumentPath(path) {
				continue
			}
			links = append(links, path)
		}
	})
	return links
}
