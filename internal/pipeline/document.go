package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Document is one markdown source flowing through the pipeline.
type Document struct {
	Title      string
	Markdown   string
	SourcePath string // absolute path on disk, empty for unsaved content
}

// HasSource reports whether the document is backed by a file on disk.
func (d Document) HasSource() bool {
	return d.SourcePath != ""
}

// Dir returns the directory relative references are resolved against.
func (d Document) Dir() string {
	return filepath.Dir(d.SourcePath)
}

// FileName returns the base name of the source file, or "" when unsaved.
func (d Document) FileName() string {
	if !d.HasSource() {
		return ""
	}
	return filepath.Base(d.SourcePath)
}

// Prepared is a document with its export-wide identifier assigned.
type Prepared struct {
	Document
	DocID string
}

// ReadFileFunc reads a file by absolute path.
// Stages receive one so tests can serve content without touching disk.
type ReadFileFunc func(path string) ([]byte, error)

// OSReadFile is the ReadFileFunc backed by the local filesystem.
func OSReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) // #nosec G304 -- paths come from the user's own documents
}

// TitleFromPath derives a display title from a file name.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Stage names the pipeline step that produced a Skip.
type Stage string

const (
	StageCollect Stage = "collect"
	StageInline  Stage = "inline"
	StageDiagram Stage = "diagram"
)

// Reasons a best-effort step was skipped.
var (
	ErrUnreadable     = errors.New("target could not be read")
	ErrExternalTarget = errors.New("target has an external scheme")
	ErrAnchorTarget   = errors.New("target is an in-document anchor")
	ErrNoSourcePath   = errors.New("document has no source path")
)

// Skip records a best-effort step that degraded instead of failing the export.
type Skip struct {
	Stage  Stage
	Source string // document the reference was found in
	Target string // reference that could not be followed
	Reason error
}

func (s Skip) Error() string {
	if s.Target == "" {
		return string(s.Stage) + ": " + s.Reason.Error()
	}
	return string(s.Stage) + " " + s.Target + ": " + s.Reason.Error()
}

func (s Skip) Unwrap() error {
	return s.Reason
}

// Outcome is the result of a step that may either produce a value or be skipped.
type Outcome[T any] struct {
	value  T
	reason error
}

// Ok wraps a produced value.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Skipped records why no value was produced.
func Skipped[T any](reason error) Outcome[T] {
	return Outcome[T]{reason: reason}
}

// Get returns the value and whether one was produced.
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.reason == nil
}

// Reason returns why the step was skipped, or nil.
func (o Outcome[T]) Reason() error {
	return o.reason
}
