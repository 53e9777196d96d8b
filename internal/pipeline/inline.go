package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// imageMIMETypes maps lower-cased image extensions to their MIME type.
var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".ico":  "image/x-icon",
	".avif": "image/avif",
}

const fallbackMIMEType = "application/octet-stream"

// ImageMIMEType returns the MIME type for an image path, by extension.
func ImageMIMEType(path string) string {
	if mime, ok := imageMIMETypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return fallbackMIMEType
}

// DataURI encodes content as a base64 data URI.
func DataURI(mime string, content []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content)
}

// IsInlineImageData reports whether dest is an embedded image payload.
func IsInlineImageData(dest []byte) bool {
	const prefix = "data:image/"
	return len(dest) >= len(prefix) && strings.EqualFold(string(dest[:len(prefix)]), prefix)
}

// Inliner replaces local image references with embedded data URIs.
type Inliner struct {
	readFile ReadFileFunc
}

// NewInliner creates an Inliner. A nil readFile reads from disk.
func NewInliner(readFile ReadFileFunc) *Inliner {
	if readFile == nil {
		readFile = OSReadFile
	}
	return &Inliner{readFile: readFile}
}

// Inline rewrites every local image reference of doc into a data URI with
// the same alt text. External, unreadable, and unresolvable references are
// left exactly as written. Documents without a source path are returned
// unchanged since relative references have nothing to resolve against.
func (in *Inliner) Inline(ctx context.Context, doc Document) (Document, []Skip) {
	if !doc.HasSource() || ctx.Err() != nil {
		return doc, nil
	}
	var skips []Skip
	doc.Markdown = mapProse(doc.Markdown, func(prose string) string {
		return inlineRefPattern.ReplaceAllStringFunc(prose, func(match string) string {
			ref := parseInlineRef(inlineRefPattern.FindStringSubmatch(match))
			if !ref.image || ref.href == "" {
				return match
			}
			out := in.embed(doc.Dir(), ref.href)
			uri, ok := out.Get()
			if !ok {
				if !isSilentSkip(out.Reason()) {
					skips = append(skips, Skip{
						Stage:  StageInline,
						Source: doc.SourcePath,
						Target: ref.href,
						Reason: out.Reason(),
					})
				}
				return match
			}
			return "![" + ref.label + "](" + uri + ")"
		})
	})
	return doc, skips
}

// embed reads one image reference and encodes it.
func (in *Inliner) embed(dir, href string) Outcome[string] {
	if IsExternal(href) {
		return Skipped[string](ErrExternalTarget)
	}
	path, _ := splitFragment(href)
	if path == "" {
		return Skipped[string](ErrAnchorTarget)
	}
	resolved := resolveAgainst(dir, path)
	content, err := in.readFile(resolved)
	if err != nil {
		return Skipped[string](fmt.Errorf("%w: %v", ErrUnreadable, err))
	}
	return Ok(DataURI(ImageMIMEType(resolved), content))
}

// isSilentSkip reports reasons that are expected and not worth reporting.
func isSilentSkip(reason error) bool {
	return reason == ErrExternalTarget || reason == ErrAnchorTarget
}
