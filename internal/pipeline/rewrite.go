package pipeline

import (
	"context"
)

// Rewriter points cross-document links and anchors at the namespaced ids
// of a single combined export.
type Rewriter struct {
	ns Namespace
}

// NewRewriter creates a Rewriter over the given namespace.
func NewRewriter(ns Namespace) *Rewriter {
	return &Rewriter{ns: ns}
}

// Rewrite returns doc with every non-image inline link resolved:
//   - external schemes pass through unchanged
//   - "#frag" becomes "#{docId}--{slug(frag)}", or "#{docId}" when the slug is empty
//   - a document in the namespace becomes its anchor, keeping any fragment
//   - any other relative target becomes an absolute file URL
//
// Links in documents without a source path only get their anchors rewritten.
func (r *Rewriter) Rewrite(ctx context.Context, doc Prepared) Prepared {
	if ctx.Err() != nil {
		return doc
	}
	doc.Markdown = mapProse(doc.Markdown, func(prose string) string {
		return inlineRefPattern.ReplaceAllStringFunc(prose, func(match string) string {
			ref := parseInlineRef(inlineRefPattern.FindStringSubmatch(match))
			if ref.image || ref.label == "" || ref.href == "" {
				return match
			}
			href, changed := r.resolve(doc, ref.href)
			if !changed {
				return match
			}
			return "[" + ref.label + "](" + href + ")"
		})
	})
	return doc
}

func (r *Rewriter) resolve(doc Prepared, href string) (string, bool) {
	if IsExternal(href) {
		return href, false
	}
	path, fragment := splitFragment(href)
	if path == "" {
		return "#" + anchorFor(doc.DocID, fragment), true
	}
	if !doc.HasSource() {
		return href, false
	}
	target := resolveAgainst(doc.Dir(), path)
	if id, ok := r.ns.Lookup(target); ok {
		return "#" + anchorFor(id, fragment), true
	}
	out := pathToFileURL(target)
	if fragment != "" {
		out += "#" + fragment
	}
	return out, true
}

// anchorFor namespaces a raw fragment under docID.
func anchorFor(docID, fragment string) string {
	slug := Slugify(decodeRef(fragment))
	if slug == "" {
		return docID
	}
	return Anchor(docID, slug)
}
