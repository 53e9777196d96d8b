package mdexport

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/i18n"
)

// Entry identifies which entry point started an export.
type Entry string

// Entry points.
const (
	EntryFile    Entry = "file"
	EntryFolder  Entry = "folder"
	EntryProject Entry = "project"
)

// StatusKind classifies the outcome of an entry point.
type StatusKind int

// Status kinds.
const (
	StatusExported StatusKind = iota
	StatusCanceled
	StatusNoDocuments
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusExported:
		return "exported"
	case StatusCanceled:
		return "canceled"
	case StatusNoDocuments:
		return "no-documents"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// Status is the result of an entry point. Message is always localized and
// safe to show to the user; Err keeps the cause for logs and exit codes.
type Status struct {
	Kind    StatusKind
	Message string
	Path    string // written PDF, set when Kind == StatusExported
	Skips   []Skip
	Err     error
}

// DestinationRequest describes the save prompt shown to the user.
type DestinationRequest struct {
	Title       string // dialog title
	DefaultName string // "{title}.pdf"
}

// DestinationPrompter asks where to write the PDF.
// ok == false or an empty path means the user canceled.
type DestinationPrompter interface {
	PromptDestination(ctx context.Context, req DestinationRequest) (path string, ok bool, err error)
}

// DestinationFunc adapts a function to DestinationPrompter.
type DestinationFunc func(ctx context.Context, req DestinationRequest) (string, bool, error)

// PromptDestination calls f.
func (f DestinationFunc) PromptDestination(ctx context.Context, req DestinationRequest) (string, bool, error) {
	return f(ctx, req)
}

// FixedDestination always answers path without asking. An empty path
// answers the default name in the working directory.
func FixedDestination(path string) DestinationPrompter {
	return DestinationFunc(func(_ context.Context, req DestinationRequest) (string, bool, error) {
		if path == "" {
			return req.DefaultName, true, nil
		}
		return path, true, nil
	})
}

// Revealer shows a written file to the user.
type Revealer interface {
	Reveal(ctx context.Context, path string) error
}

// OSRevealer opens the folder containing the file in the OS file browser.
type OSRevealer struct{}

// Reveal starts the platform file browser without waiting for it.
func (OSRevealer) Reveal(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", "-R", path) // #nosec G204 -- path is our own output
	case "windows":
		cmd = exec.CommandContext(ctx, "explorer", "/select,", path) // #nosec G204 -- path is our own output
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", filepath.Dir(path)) // #nosec G204 -- path is our own output
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// noReveal is used when revealing is disabled.
type noReveal struct{}

func (noReveal) Reveal(context.Context, string) error { return nil }

// exporter is the part of Exporter the Coordinator depends on.
type exporter interface {
	Collect(ctx context.Context, root Document) ([]Document, []Skip)
	Export(ctx context.Context, title string, docs []Document, opts ExportOptions) (*Result, error)
}

var _ exporter = (*Exporter)(nil)

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithPrompter sets how the destination is chosen. Default: FixedDestination("").
func WithPrompter(p DestinationPrompter) CoordinatorOption {
	return func(c *Coordinator) {
		if p != nil {
			c.prompter = p
		}
	}
}

// WithRevealer sets how the result is shown. nil disables revealing.
func WithRevealer(r Revealer) CoordinatorOption {
	return func(c *Coordinator) {
		if r == nil {
			r = noReveal{}
		}
		c.revealer = r
	}
}

// WithMessages sets the localized message set.
func WithMessages(m *i18n.Messages) CoordinatorOption {
	return func(c *Coordinator) {
		if m != nil {
			c.messages = m
		}
	}
}

// WithCoordinatorLogger sets the logger for failures and reveal errors.
func WithCoordinatorLogger(logger *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Coordinator runs the user-facing export flow behind the three entry points.
// It is the only place errors are turned into user text.
type Coordinator struct {
	exporter exporter
	prompter DestinationPrompter
	revealer Revealer
	messages *i18n.Messages
	logger   *zap.Logger
}

// NewCoordinator wraps exp. Reveal defaults to the OS file browser and
// messages to the system language.
func NewCoordinator(exp *Exporter, opts ...CoordinatorOption) *Coordinator {
	return newCoordinator(exp, opts...)
}

func newCoordinator(exp exporter, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		exporter: exp,
		prompter: FixedDestination(""),
		revealer: OSRevealer{},
		messages: i18n.New(i18n.PreferenceSystem, nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExportFile exports req and every document reachable from it through
// relative links.
func (c *Coordinator) ExportFile(ctx context.Context, req FileRequest) Status {
	return c.run(ctx, EntryFile, req.Title, req.Options, func(ctx context.Context) ([]Document, []Skip) {
		return c.exporter.Collect(ctx, req.Document)
	})
}

// ExportFolder exports a folder's pre-enumerated documents.
func (c *Coordinator) ExportFolder(ctx context.Context, req BatchRequest) Status {
	return c.run(ctx, EntryFolder, req.Title, req.Options, staticDocuments(req.Documents))
}

// ExportProject exports a whole workspace's pre-enumerated documents.
func (c *Coordinator) ExportProject(ctx context.Context, req BatchRequest) Status {
	return c.run(ctx, EntryProject, req.Title, req.Options, staticDocuments(req.Documents))
}

func staticDocuments(docs []Document) func(context.Context) ([]Document, []Skip) {
	return func(context.Context) ([]Document, []Skip) {
		return docs, nil
	}
}

// run is the shared flow: destination, documents, export, write, verify, reveal.
func (c *Coordinator) run(ctx context.Context, entry Entry, title string, opts *ExportOptions, documents func(context.Context) ([]Document, []Skip)) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			status = c.failed(entry, fmt.Errorf("%w: %v", ErrInternal, r))
		}
	}()

	path, ok, err := c.prompter.PromptDestination(ctx, DestinationRequest{
		Title:       c.messages.SaveDialogTitle(),
		DefaultName: DefaultFileName(title),
	})
	if err != nil {
		return c.failed(entry, fmt.Errorf("choosing destination: %w", err))
	}
	if !ok || strings.TrimSpace(path) == "" {
		return Status{Kind: StatusCanceled, Message: c.messages.Canceled()}
	}
	path = fileutil.EnsureExtension(path, ".pdf")

	docs, skips := documents(ctx)
	if len(docs) == 0 {
		return Status{Kind: StatusNoDocuments, Message: c.messages.NoDocuments(), Skips: skips, Err: ErrNoDocuments}
	}

	exportOpts := DefaultExportOptions()
	if opts != nil {
		exportOpts = *opts
	}

	c.logger.Info("exporting",
		zap.String("entry", string(entry)),
		zap.Int("documents", len(docs)),
		zap.String("destination", path),
	)

	result, err := c.exporter.Export(ctx, title, docs, exportOpts)
	if err != nil {
		return c.failed(entry, err)
	}
	skips = append(skips, result.Skips...)

	size, err := fileutil.WriteOutput(path, result.PDF)
	if err != nil {
		return c.failed(entry, err)
	}

	if err := c.revealer.Reveal(ctx, path); err != nil {
		c.logger.Debug("reveal failed", zap.String("path", path), zap.Error(err))
	}

	c.logger.Info("exported", zap.String("path", path), zap.Int64("bytes", size))
	return Status{
		Kind:    StatusExported,
		Message: c.messages.Exported(path),
		Path:    path,
		Skips:   skips,
	}
}

// failed converts err into the entry's generic failure message.
// An empty output always reports the file-level message.
func (c *Coordinator) failed(entry Entry, err error) Status {
	c.logger.Error("export failed", zap.String("entry", string(entry)), zap.Error(err))

	msg := c.messages.GenericError()
	if !errors.Is(err, ErrEmptyOutput) {
		switch entry {
		case EntryFolder:
			msg = c.messages.FolderError()
		case EntryProject:
			msg = c.messages.ProjectError()
		}
	}
	return Status{Kind: StatusFailed, Message: msg, Err: err}
}

// DefaultFileName is the suggested destination for title.
func DefaultFileName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "document"
	}
	return title + ".pdf"
}
