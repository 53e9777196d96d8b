package mdexport

import (
	"errors"

	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrNoDocuments      = errors.New("no documents to export")
	ErrHTMLConversion   = pipeline.ErrHTMLConversion
	ErrComposeRender    = pipeline.ErrComposeRender
	ErrPDFGeneration    = errors.New("PDF generation failed")
	ErrBrowserConnect   = errors.New("failed to connect to browser")
	ErrPageCreate       = errors.New("failed to create browser page")
	ErrPageLoad         = errors.New("failed to load page")
	ErrUnknownBackend   = errors.New("unknown rendering backend")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrEmptyOutput      = fileutil.ErrEmptyOutput
	ErrInternal         = errors.New("internal error")

	// Best-effort reasons reported in Skip.Reason.
	ErrUnreadable    = pipeline.ErrUnreadable
	ErrDiagramEngine = errors.New("diagram engine failed")
	ErrDiagramScript = errors.New("diagram engine script could not be loaded")
)
