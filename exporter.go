package mdexport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/alnah/go-mdexport/internal/assets"
	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.MarkdownPreprocessor = (*pipeline.AuthoringNormalizer)(nil)
	_ pipeline.HTMLConverter        = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.HTMLPostProcessor    = (*pipeline.DOMPostProcessor)(nil)
)

// Exporter runs the export pipeline for one document set at a time.
// Create with NewExporter, call Export, and Close when done.
// Exports on the same Exporter may run concurrently; each gets its own tab.
type Exporter struct {
	cfg           exporterConfig
	logger        *zap.Logger
	readFile      pipeline.ReadFileFunc
	assetLoader   assets.AssetLoader
	normalizer    pipeline.MarkdownPreprocessor
	htmlConverter pipeline.HTMLConverter
	postProcessor pipeline.HTMLPostProcessor
	composer      *pipeline.Composer
	script        diagramScript
	factory       surfaceFactory
}

// NewExporter creates an Exporter with default configuration.
// Returns error if assets cannot be loaded or the backend is unknown.
// The browser is started lazily on the first Export.
func NewExporter(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		cfg: exporterConfig{
			timeout:      defaultTimeout,
			backend:      BackendRod,
			diagramTheme: DefaultDiagramTheme,
		},
		logger:        zap.NewNop(),
		readFile:      pipeline.OSReadFile,
		normalizer:    &pipeline.AuthoringNormalizer{},
		htmlConverter: pipeline.NewGoldmarkConverter(),
		postProcessor: &pipeline.DOMPostProcessor{},
	}

	for _, opt := range opts {
		opt(e)
	}

	resolver, err := assets.NewAssetResolver(e.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}
	e.assetLoader = resolver

	if err := e.loadComposer(); err != nil {
		return nil, err
	}

	script, err := e.resolveDiagramScript()
	if err != nil {
		return nil, err
	}
	e.script = script

	// Tests inject a fake factory before this point.
	if e.factory == nil {
		factory, err := newSurfaceFactory(e.cfg, e.logger)
		if err != nil {
			return nil, err
		}
		e.factory = factory
	}

	return e, nil
}

func (e *Exporter) loadComposer() error {
	css, err := e.assetLoader.LoadStyle(assets.DefaultStyleName)
	if err != nil {
		return fmt.Errorf("loading style: %w", err)
	}
	tmpl, err := e.assetLoader.LoadTemplate(assets.DefaultTemplateName)
	if err != nil {
		return fmt.Errorf("loading document template: %w", err)
	}
	composer, err := pipeline.NewComposer(tmpl, css)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrComposeRender, err)
	}
	e.composer = composer
	return nil
}

// resolveDiagramScript picks the mermaid engine source.
// Priority: configured URL or file > scripts/mermaid.js asset > CDN.
func (e *Exporter) resolveDiagramScript() (diagramScript, error) {
	src := e.cfg.diagramSrc
	switch {
	case fileutil.IsURL(src):
		return diagramScript{URL: src}, nil
	case src != "":
		content, err := os.ReadFile(src) // #nosec G304 -- user-provided path
		if err != nil {
			return diagramScript{}, fmt.Errorf("%w: %v", ErrDiagramScript, err)
		}
		return diagramScript{Content: string(content)}, nil
	}

	content, err := e.assetLoader.LoadScript(assets.DiagramScriptName)
	if err == nil {
		return diagramScript{Content: content}, nil
	}
	if !errors.Is(err, assets.ErrScriptNotFound) {
		return diagramScript{}, fmt.Errorf("%w: %v", ErrDiagramScript, err)
	}
	return diagramScript{URL: DefaultDiagramScript}, nil
}

// Collect returns root followed by every document reachable from it through
// relative document links, in depth-first discovery order.
// A root without SourcePath is returned alone.
func (e *Exporter) Collect(ctx context.Context, root Document) ([]Document, []Skip) {
	docs, skips := pipeline.NewCollector(e.readFile).Collect(ctx, pipeline.Document(root))
	out := fromPipelineSkips(skips)
	e.logSkips(out)
	return fromPipelineDocs(docs), out
}

// ComposeHTML runs every stage up to rasterization and returns the printable
// HTML. Result.PDF is nil.
func (e *Exporter) ComposeHTML(ctx context.Context, title string, docs []Document, opts ExportOptions) (result *Result, err error) {
	defer recoverInternal(&err)

	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	htmlContent, skips, err := e.compose(ctx, title, docs, opts)
	if err != nil {
		return nil, err
	}
	return &Result{HTML: []byte(htmlContent), Skips: skips}, nil
}

// Export runs the full pipeline and returns the composed HTML and the PDF.
// Best-effort degradations are listed in Result.Skips.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (e *Exporter) Export(ctx context.Context, title string, docs []Document, opts ExportOptions) (result *Result, err error) {
	defer recoverInternal(&err)

	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	htmlContent, skips, err := e.compose(ctx, title, docs, opts)
	if err != nil {
		return nil, err
	}

	job := renderJob{
		HTML:     htmlContent,
		Diagrams: strings.Contains(htmlContent, pipeline.DiagramPlaceholder),
		Theme:    e.cfg.diagramTheme,
		Script:   e.script,
	}
	report, err := renderPDF(ctx, e.factory, job, e.logger)
	skips = append(skips, report.Skips...)
	e.logSkips(report.Skips)
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}

	return &Result{
		HTML:   []byte(htmlContent),
		PDF:    report.PDF,
		Skips:  skips,
		States: report.States,
	}, nil
}

// compose inlines images, assigns ids, rewrites links, renders every document
// and assembles the sections.
func (e *Exporter) compose(ctx context.Context, title string, docs []Document, opts ExportOptions) (string, []Skip, error) {
	inliner := pipeline.NewInliner(e.readFile)
	inlined := make([]pipeline.Document, len(docs))
	var skips []pipeline.Skip
	for i, doc := range toPipelineDocs(docs) {
		var docSkips []pipeline.Skip
		inlined[i], docSkips = inliner.Inline(ctx, doc)
		skips = append(skips, docSkips...)
	}

	prepared := pipeline.AssignDocIDs(inlined)
	rewriter := pipeline.NewRewriter(pipeline.NewNamespace(prepared))

	rendered := make([]pipeline.Rendered, 0, len(prepared))
	for _, doc := range prepared {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}

		doc = rewriter.Rewrite(ctx, doc)
		md := e.normalizer.PreprocessMarkdown(ctx, doc.Markdown)

		fragment, err := e.htmlConverter.ToHTML(ctx, md)
		if err != nil {
			return "", nil, fmt.Errorf("converting %q to HTML: %w", doc.Title, err)
		}
		fragment, err = e.postProcessor.PostProcess(ctx, fragment, doc.DocID)
		if err != nil {
			return "", nil, fmt.Errorf("post-processing %q: %w", doc.Title, err)
		}

		e.logger.Debug("document rendered",
			zap.String("doc_id", doc.DocID),
			zap.Int("html_size", len(fragment)),
		)
		rendered = append(rendered, pipeline.Rendered{Prepared: doc, Body: fragment})
	}

	htmlContent, err := e.composer.Compose(ctx, title, rendered, pipeline.ComposeOptions{
		IncludeFileName:   opts.IncludeFileName,
		IncludeSourcePath: opts.IncludeSourcePath,
		Lang:              e.cfg.lang,
	})
	if err != nil {
		return "", nil, err
	}

	out := fromPipelineSkips(skips)
	e.logSkips(out)
	return htmlContent, out, nil
}

// Close releases browser resources.
func (e *Exporter) Close() error {
	if e.factory != nil {
		return e.factory.Close()
	}
	return nil
}

func (e *Exporter) logSkips(skips []Skip) {
	for _, s := range skips {
		e.logger.Warn("export step skipped",
			zap.String("stage", s.Stage),
			zap.String("source", s.Source),
			zap.String("target", s.Target),
			zap.Error(s.Reason),
		)
	}
}

func recoverInternal(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrInternal, r)
	}
}
