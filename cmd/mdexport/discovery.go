package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/pipeline"
)

// Sentinel errors for input discovery.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrNotDirectory       = errors.New("input must be a directory")
	ErrInvalidExtension   = errors.New("file must be a markdown document (.md, .markdown, .mdx, .txt)")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidExclude     = errors.New("invalid exclude pattern")
	ErrOutputConflict     = errors.New("--output must be a directory when exporting several files")
	ErrReadInput          = errors.New("failed to read markdown file")
)

// readDocument loads path as a Document titled after its file name.
func readDocument(path string) (mdexport.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return mdexport.Document{}, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	data, err := os.ReadFile(abs) // #nosec G304 -- user-provided input
	if err != nil {
		return mdexport.Document{}, fmt.Errorf("%w: %w", ErrReadInput, err)
	}
	return mdexport.Document{
		Title:      pipeline.TitleFromPath(abs),
		Markdown:   string(data),
		SourcePath: abs,
	}, nil
}

// inputFile validates a file argument of the file command.
func inputFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() || !pipeline.IsDocumentPath(path) {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, path)
	}
	return nil
}

// inputDir validates a directory argument of the folder and project commands.
func inputDir(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return abs, nil
}

// discoverFolder returns the markdown documents directly inside dir, sorted
// by file name. Unreadable files are logged and left out.
func discoverFolder(dir string, logger *zap.Logger) ([]mdexport.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var docs []mdexport.Document
	for _, entry := range entries {
		if entry.IsDir() || !pipeline.IsDocumentPath(entry.Name()) {
			continue
		}
		doc, err := readDocument(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Warn("skipping unreadable document", zap.String("path", entry.Name()), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// discoverProject walks root recursively in lexical order and returns every
// markdown document not matched by an exclude pattern. Patterns are
// doublestar globs relative to root using forward slashes.
func discoverProject(root string, excludes []string, logger *zap.Logger) ([]mdexport.Document, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidExclude, pattern)
		}
	}

	var docs []mdexport.Document
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if excluded(filepath.ToSlash(rel), excludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !pipeline.IsDocumentPath(path) {
			return nil
		}

		doc, err := readDocument(path)
		if err != nil {
			logger.Warn("skipping unreadable document", zap.String("path", rel), zap.Error(err))
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(pattern, rel) {
			return true
		}
	}
	return false
}

// resolveOutputPath determines where an export is written when no prompt is
// shown. output may be a .pdf file or a directory.
func resolveOutputPath(sourceDir, title, output, defaultDir string) string {
	name := mdexport.DefaultFileName(title)

	switch {
	case output != "" && strings.EqualFold(filepath.Ext(output), ".pdf"):
		return output
	case output != "":
		return filepath.Join(output, name)
	case defaultDir != "":
		return filepath.Join(defaultDir, name)
	case sourceDir != "":
		return filepath.Join(sourceDir, name)
	default:
		return name
	}
}

// htmlOutputPath returns the HTML path corresponding to a PDF path.
func htmlOutputPath(pdfPath string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + ".html"
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > mdexport.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, mdexport.MaxPoolSize)
	}
	return nil
}
