package mdexport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/alnah/go-mdexport/internal/pipeline"
)

// RenderState is a step of the rasterization lifecycle.
type RenderState int

// Render states in the order they are entered.
// StateDiagramsReady is only entered when the document set has diagrams.
const (
	StateIdle RenderState = iota
	StateLoaded
	StateDiagramsReady
	StateFontsReady
	StateRasterized
	StateDestroyed
)

var renderStateNames = [...]string{
	StateIdle:          "idle",
	StateLoaded:        "loaded",
	StateDiagramsReady: "diagrams-ready",
	StateFontsReady:    "fonts-ready",
	StateRasterized:    "rasterized",
	StateDestroyed:     "destroyed",
}

func (s RenderState) String() string {
	if s < 0 || int(s) >= len(renderStateNames) {
		return fmt.Sprintf("RenderState(%d)", int(s))
	}
	return renderStateNames[s]
}

// A4 in inches.
const (
	paperWidthInches  = 8.27
	paperHeightInches = 11.69
)

// diagramScript is the mermaid engine, either fetched from URL or inlined.
type diagramScript struct {
	URL     string
	Content string
}

// surface is one isolated, script-capable browser tab.
type surface interface {
	// Load replaces the tab content with html and waits for the load event.
	Load(ctx context.Context, html string) error
	// AddScript appends a script element and waits for it to execute.
	AddScript(ctx context.Context, script diagramScript) error
	// Eval runs an async JS function and returns its string result.
	Eval(ctx context.Context, fn string) (string, error)
	// PrintPDF prints the tab: A4, backgrounds on, CSS page size preferred.
	PrintPDF(ctx context.Context) ([]byte, error)
	Destroy() error
}

// surfaceFactory owns a browser and opens fresh tabs on it.
type surfaceFactory interface {
	NewSurface(ctx context.Context) (surface, error)
	Close() error
}

// renderJob is the input of one rasterization.
type renderJob struct {
	HTML     string
	Diagrams bool
	Theme    string
	Script   diagramScript
}

// renderReport is what a rasterization produced, even a failed one.
type renderReport struct {
	PDF    []byte
	States []RenderState
	Skips  []Skip
}

func (r *renderReport) enter(s RenderState, logger *zap.Logger) {
	r.States = append(r.States, s)
	logger.Debug("render state", zap.Stringer("state", s))
}

// diagramJS initializes mermaid and renders every placeholder. It resolves to
// an error message instead of rejecting so a broken diagram never fails the export.
const diagramJS = `async () => {
  const nodes = Array.from(document.querySelectorAll("div.mermaid"));
  if (nodes.length === 0) return "";
  if (!window.mermaid) return "mermaid is not defined";
  try {
    window.mermaid.initialize({ startOnLoad: false, theme: %s });
    await window.mermaid.run({ nodes });
    return "";
  } catch (err) {
    return String((err && err.message) || err || "unknown error");
  }
}`

// fontsJS waits for web fonts. Hosts without the Font Loading API resolve at once.
const fontsJS = `async () => {
  if (document.fonts && document.fonts.ready) {
    await document.fonts.ready;
  }
  return "";
}`

// renderPDF drives one surface through the render states.
// The surface is destroyed on every path, including failures and panics.
func renderPDF(ctx context.Context, factory surfaceFactory, job renderJob, logger *zap.Logger) (report *renderReport, err error) {
	report = &renderReport{}
	report.enter(StateIdle, logger)

	s, err := factory.NewSurface(ctx)
	if err != nil {
		return report, err
	}
	defer func() {
		if derr := s.Destroy(); derr != nil {
			logger.Warn("destroying render surface", zap.Error(derr))
		}
		report.enter(StateDestroyed, logger)
	}()

	if err := s.Load(ctx, job.HTML); err != nil {
		return report, err
	}
	report.enter(StateLoaded, logger)

	if job.Diagrams {
		if skip, ok := runDiagrams(ctx, s, job); !ok {
			report.Skips = append(report.Skips, skip)
		}
		report.enter(StateDiagramsReady, logger)
	}

	if _, err := s.Eval(ctx, fontsJS); err != nil {
		return report, fmt.Errorf("%w: waiting for fonts: %v", ErrPageLoad, err)
	}
	report.enter(StateFontsReady, logger)

	pdf, err := s.PrintPDF(ctx)
	if err != nil {
		return report, err
	}
	report.PDF = pdf
	report.enter(StateRasterized, logger)

	return report, nil
}

// runDiagrams loads the engine and renders placeholders. Failures come back
// as a Skip; only context cancellation is left for the next step to surface.
func runDiagrams(ctx context.Context, s surface, job renderJob) (Skip, bool) {
	outcome := diagramOutcome(ctx, s, job)
	if _, ok := outcome.Get(); ok {
		return Skip{}, true
	}
	return Skip{Stage: string(pipeline.StageDiagram), Reason: outcome.Reason()}, false
}

func diagramOutcome(ctx context.Context, s surface, job renderJob) pipeline.Outcome[struct{}] {
	if err := s.AddScript(ctx, job.Script); err != nil {
		return pipeline.Skipped[struct{}](fmt.Errorf("%w: %v", ErrDiagramScript, err))
	}

	theme, err := json.Marshal(job.Theme)
	if err != nil {
		return pipeline.Skipped[struct{}](fmt.Errorf("%w: %v", ErrDiagramEngine, err))
	}
	msg, err := s.Eval(ctx, fmt.Sprintf(diagramJS, theme))
	switch {
	case err != nil:
		return pipeline.Skipped[struct{}](fmt.Errorf("%w: %v", ErrDiagramEngine, err))
	case msg != "":
		return pipeline.Skipped[struct{}](fmt.Errorf("%w: %s", ErrDiagramEngine, msg))
	}
	return pipeline.Ok(struct{}{})
}

// newSurfaceFactory returns the factory for cfg.backend.
func newSurfaceFactory(cfg exporterConfig, logger *zap.Logger) (surfaceFactory, error) {
	switch cfg.backend {
	case BackendRod, "":
		return newRodFactory(cfg, logger), nil
	case BackendChromedp:
		return newChromedpFactory(cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.backend)
	}
}

// errSurfaceClosed is returned when a tab is requested after Close.
var errSurfaceClosed = errors.New("browser already closed")
