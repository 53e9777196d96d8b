package mdexport

import (
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-mdexport/internal/pipeline"
)

// Document is one markdown source to export.
type Document struct {
	Title      string
	Markdown   string
	SourcePath string // absolute path on disk, empty for unsaved content
}

// ExportOptions toggles the source metadata shown under each section title.
// They do not change which documents are exported or how links resolve.
type ExportOptions struct {
	IncludeSourcePath bool
	IncludeFileName   bool
}

// DefaultExportOptions shows both the file name and the full path.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{IncludeSourcePath: true, IncludeFileName: true}
}

// FileRequest exports a single document and everything it links to.
type FileRequest struct {
	Document
	Options *ExportOptions // nil = DefaultExportOptions
}

// BatchRequest exports a pre-enumerated document set (folder or project).
type BatchRequest struct {
	Title     string
	Documents []Document
	Options   *ExportOptions // nil = DefaultExportOptions
}

// Skip records a best-effort step that degraded instead of failing.
type Skip struct {
	Stage  string // "collect", "inline" or "diagram"
	Source string // document the reference was found in
	Target string
	Reason error
}

func (s Skip) Error() string {
	return s.toPipeline().Error()
}

func (s Skip) Unwrap() error {
	return s.Reason
}

// Result holds the output of one export.
type Result struct {
	HTML   []byte
	PDF    []byte
	Skips  []Skip
	States []RenderState // render states visited, empty when HTMLOnly
}

// Backend names a Chrome driver.
type Backend string

// Supported backends.
const (
	BackendRod      Backend = "rod"
	BackendChromedp Backend = "chromedp"
)

// Diagram engine defaults.
const (
	DefaultDiagramTheme  = "default"
	DefaultDiagramScript = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"
)

// defaultTimeout bounds one export including browser start.
const defaultTimeout = 2 * time.Minute

// Option configures an Exporter.
type Option func(*Exporter)

// exporterConfig holds internal configuration for Exporter.
type exporterConfig struct {
	timeout      time.Duration
	assetPath    string
	backend      Backend
	browserBin   string
	noSandbox    bool
	diagramTheme string
	diagramSrc   string
	lang         string
}

// WithTimeout sets the per-export timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdexport: WithTimeout duration must be positive")
	}
	return func(e *Exporter) {
		e.cfg.timeout = d
	}
}

// WithLogger sets the logger used for skips and stage transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAssetPath overrides embedded styles, templates and scripts with files
// from dir. Missing files fall back to the embedded ones.
func WithAssetPath(dir string) Option {
	return func(e *Exporter) {
		e.cfg.assetPath = dir
	}
}

// WithBackend selects the Chrome driver.
func WithBackend(b Backend) Option {
	return func(e *Exporter) {
		e.cfg.backend = b
	}
}

// WithBrowserBin uses a pre-installed browser binary instead of downloading one.
func WithBrowserBin(path string) Option {
	return func(e *Exporter) {
		e.cfg.browserBin = path
	}
}

// WithNoSandbox disables the Chrome sandbox, required in most containers.
func WithNoSandbox(disable bool) Option {
	return func(e *Exporter) {
		e.cfg.noSandbox = disable
	}
}

// WithDiagrams sets the mermaid theme and the engine script.
// script is a URL, a local file path, or "" for the asset/CDN default.
func WithDiagrams(theme, script string) Option {
	return func(e *Exporter) {
		if theme != "" {
			e.cfg.diagramTheme = theme
		}
		e.cfg.diagramSrc = script
	}
}

// WithDocumentLang sets the lang attribute of the composed HTML.
func WithDocumentLang(lang string) Option {
	return func(e *Exporter) {
		e.cfg.lang = lang
	}
}

// WithReadFile replaces the filesystem used to follow links and images.
func WithReadFile(fn func(path string) ([]byte, error)) Option {
	return func(e *Exporter) {
		if fn != nil {
			e.readFile = fn
		}
	}
}

func toPipelineDocs(docs []Document) []pipeline.Document {
	out := make([]pipeline.Document, len(docs))
	for i, d := range docs {
		out[i] = pipeline.Document(d)
	}
	return out
}

func fromPipelineDocs(docs []pipeline.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document(d)
	}
	return out
}

func fromPipelineSkips(skips []pipeline.Skip) []Skip {
	out := make([]Skip, 0, len(skips))
	for _, s := range skips {
		out = append(out, Skip{Stage: string(s.Stage), Source: s.Source, Target: s.Target, Reason: s.Reason})
	}
	return out
}

func (s Skip) toPipeline() pipeline.Skip {
	return pipeline.Skip{Stage: pipeline.Stage(s.Stage), Source: s.Source, Target: s.Target, Reason: s.Reason}
}
