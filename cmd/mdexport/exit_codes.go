package main

import (
	"context"
	"errors"
	"os"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/hints"
)

// Exit codes for the mdexport CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0   // Export written
	ExitGeneral  = 1   // General/unexpected error
	ExitUsage    = 2   // Invalid flags, config, or validation
	ExitIO       = 3   // Missing input, unwritable output, nothing to export
	ExitBrowser  = 4   // Browser/Chrome errors
	ExitCanceled = 130 // Prompt aborted or interrupted
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		return ExitCanceled
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdexport.ErrBrowserConnect) ||
		errors.Is(err, mdexport.ErrPageCreate) ||
		errors.Is(err, mdexport.ErrPageLoad) ||
		errors.Is(err, mdexport.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, mdexport.ErrNoDocuments) ||
		errors.Is(err, mdexport.ErrEmptyOutput) ||
		errors.Is(err, fileutil.ErrOutputDirectory) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigInvalid) ||
		errors.Is(err, mdexport.ErrInvalidAssetPath) ||
		errors.Is(err, mdexport.ErrUnknownBackend) ||
		errors.Is(err, mdexport.ErrDiagramScript) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrNotDirectory) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExclude) ||
		errors.Is(err, ErrOutputConflict) ||
		errors.Is(err, ErrTooManyInputs) ||
		errors.Is(err, ErrUnknownCommand) {
		return ExitUsage
	}

	return ExitGeneral
}

// exitCodeForStatus maps a coordinator outcome to an exit code.
func exitCodeForStatus(s mdexport.Status) int {
	switch s.Kind {
	case mdexport.StatusExported:
		return ExitSuccess
	case mdexport.StatusCanceled:
		return ExitCanceled
	case mdexport.StatusNoDocuments:
		return ExitIO
	default:
		if code := exitCodeFor(s.Err); code != ExitSuccess {
			return code
		}
		return ExitGeneral
	}
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, configName string, getenv func(string) string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, mdexport.ErrBrowserConnect):
		return hints.ForBrowserConnect(getenv)
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, mdexport.ErrDiagramScript):
		return hints.ForDiagramScript()
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths(configName))
	case errors.Is(err, fileutil.ErrOutputDirectory):
		return hints.ForOutputDirectory()
	case errors.Is(err, mdexport.ErrNoDocuments):
		return hints.ForNoDocuments()
	default:
		return ""
	}
}
