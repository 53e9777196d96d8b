package pipeline

import (
	"strconv"
)

// DocID returns the export-wide identifier of the document at index.
// The 1-based position is always appended so ids stay unique even when two
// documents share a file name. Unsaved documents become "doc-{n}".
func DocID(index int, sourcePath string) string {
	n := strconv.Itoa(index + 1)
	if sourcePath == "" {
		return "doc-" + n
	}
	slug := Slugify(TitleFromPath(sourcePath))
	if slug == "" {
		return "doc-" + n
	}
	return slug + "-" + n
}

// AssignDocIDs numbers documents in order.
func AssignDocIDs(docs []Document) []Prepared {
	prepared := make([]Prepared, len(docs))
	for i, d := range docs {
		prepared[i] = Prepared{Document: d, DocID: DocID(i, d.SourcePath)}
	}
	return prepared
}

// Namespace maps normalized source paths to document ids.
type Namespace map[string]string

// NewNamespace indexes every prepared document that has a source path.
// When two documents share a path the first one wins.
func NewNamespace(docs []Prepared) Namespace {
	ns := make(Namespace, len(docs))
	for _, d := range docs {
		if !d.HasSource() {
			continue
		}
		key := NormalizePath(d.SourcePath)
		if _, taken := ns[key]; !taken {
			ns[key] = d.DocID
		}
	}
	return ns
}

// Lookup returns the document id registered for path.
func (ns Namespace) Lookup(path string) (string, bool) {
	id, ok := ns[NormalizePath(path)]
	return id, ok
}

// Anchor joins a document id and a heading slug into a namespaced anchor.
func Anchor(docID, slug string) string {
	return docID + "--" + slug
}

// HeadingIDs hands out heading slugs that are unique within one document.
type HeadingIDs struct {
	seen map[string]int
	used map[string]struct{}
}

// NewHeadingIDs creates an empty generator.
func NewHeadingIDs() *HeadingIDs {
	return &HeadingIDs{
		seen: make(map[string]int),
		used: make(map[string]struct{}),
	}
}

// Next returns the slug for a heading with the given text and level.
// Empty slugs fall back to "heading-{level}". Repeats get "-2", "-3", ...
// and a suffix that would collide with an earlier literal slug is skipped.
func (h *HeadingIDs) Next(text string, level int) string {
	base := Slugify(text)
	if base == "" {
		base = "heading-" + strconv.Itoa(level)
	}
	candidate := base
	for {
		count := h.seen[base]
		h.seen[base] = count + 1
		if count > 0 {
			candidate = base + "-" + strconv.Itoa(count+1)
		}
		if _, taken := h.used[candidate]; !taken {
			break
		}
	}
	h.used[candidate] = struct{}{}
	return candidate
}
