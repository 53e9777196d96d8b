package pipeline

import (
	"context"
	"fmt"
)

// Collector expands a root document into the set of documents reachable
// through relative markdown links.
type Collector struct {
	readFile ReadFileFunc
}

// NewCollector creates a Collector. A nil readFile reads from disk.
func NewCollector(readFile ReadFileFunc) *Collector {
	if readFile == nil {
		readFile = OSReadFile
	}
	return &Collector{readFile: readFile}
}

// Collect returns the root followed by every document reachable from it,
// in depth-first pre-order. Each path appears once, so cycles terminate.
// Unreadable targets are reported as skips and never abort the walk.
// A root without a source path is returned alone.
func (c *Collector) Collect(ctx context.Context, root Document) ([]Document, []Skip) {
	if !root.HasSource() {
		return []Document{root}, nil
	}
	w := &graphWalk{
		read:    c.readFile,
		visited: make(map[string]struct{}),
	}
	root.SourcePath = NormalizePath(root.SourcePath)
	if root.Title == "" {
		root.Title = TitleFromPath(root.SourcePath)
	}
	w.emit(ctx, root)
	return w.ordered, w.skips
}

type graphWalk struct {
	read    ReadFileFunc
	visited map[string]struct{}
	ordered []Document
	skips   []Skip
}

func (w *graphWalk) emit(ctx context.Context, doc Document) {
	w.visited[doc.SourcePath] = struct{}{}
	w.ordered = append(w.ordered, doc)
	for _, target := range DocumentLinks(doc.Markdown) {
		if ctx.Err() != nil {
			return
		}
		w.visit(ctx, doc.SourcePath, resolveAgainst(doc.Dir(), target))
	}
}

func (w *graphWalk) visit(ctx context.Context, from, path string) {
	if _, seen := w.visited[path]; seen {
		return
	}
	w.visited[path] = struct{}{}
	data, err := w.read(path)
	if err != nil {
		w.skips = append(w.skips, Skip{
			Stage:  StageCollect,
			Source: from,
			Target: path,
			Reason: fmt.Errorf("%w: %v", ErrUnreadable, err),
		})
		return
	}
	w.emit(ctx, Document{
		Title:      TitleFromPath(path),
		Markdown:   string(data),
		SourcePath: path,
	})
}
