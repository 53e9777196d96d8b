package main

// Notes:
// - exitCodeFor: we test sentinel errors from the library, config and CLI,
//   plus wrapped errors to verify the errors.Is chain.
// - hintFor: we check which errors get a hint, not the hint wording.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
	"github.com/alnah/go-mdexport/internal/fileutil"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},

		// Browser errors (exit 4)
		{"browser connect", mdexport.ErrBrowserConnect, ExitBrowser},
		{"page create", mdexport.ErrPageCreate, ExitBrowser},
		{"page load", mdexport.ErrPageLoad, ExitBrowser},
		{"pdf generation", mdexport.ErrPDFGeneration, ExitBrowser},
		{"wrapped browser connect", fmt.Errorf("converting to PDF: %w", mdexport.ErrBrowserConnect), ExitBrowser},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"no documents", mdexport.ErrNoDocuments, ExitIO},
		{"empty output", mdexport.ErrEmptyOutput, ExitIO},
		{"output directory", fileutil.ErrOutputDirectory, ExitIO},
		{"read input", ErrReadInput, ExitIO},
		{"no input", ErrNoInput, ExitIO},

		// Usage/config/validation errors (exit 2)
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"config invalid", config.ErrConfigInvalid, ExitUsage},
		{"asset path", mdexport.ErrInvalidAssetPath, ExitUsage},
		{"unknown backend", mdexport.ErrUnknownBackend, ExitUsage},
		{"diagram script", mdexport.ErrDiagramScript, ExitUsage},
		{"extension", ErrInvalidExtension, ExitUsage},
		{"not a directory", ErrNotDirectory, ExitUsage},
		{"workers", ErrInvalidWorkerCount, ExitUsage},
		{"exclude", ErrInvalidExclude, ExitUsage},
		{"output conflict", ErrOutputConflict, ExitUsage},
		{"too many inputs", ErrTooManyInputs, ExitUsage},
		{"unknown command", ErrUnknownCommand, ExitUsage},

		// Interrupted
		{"canceled", fmt.Errorf("export: %w", context.Canceled), ExitCanceled},

		// General
		{"internal", mdexport.ErrInternal, ExitGeneral},
		{"unknown", errors.New("boom"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeForStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status mdexport.Status
		want   int
	}{
		{"exported", mdexport.Status{Kind: mdexport.StatusExported}, ExitSuccess},
		{"canceled", mdexport.Status{Kind: mdexport.StatusCanceled}, ExitCanceled},
		{"no documents", mdexport.Status{Kind: mdexport.StatusNoDocuments}, ExitIO},
		{"failed with browser error", mdexport.Status{Kind: mdexport.StatusFailed, Err: mdexport.ErrPageLoad}, ExitBrowser},
		{"failed without cause", mdexport.Status{Kind: mdexport.StatusFailed}, ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeForStatus(tt.status); got != tt.want {
				t.Errorf("exitCodeForStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExitCodes_Conventions(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Error("exit codes 0, 1 and 2 must keep their Unix meaning")
	}
	for _, code := range []int{ExitIO, ExitBrowser} {
		if code >= 126 {
			t.Errorf("custom exit code %d collides with shell-reserved codes", code)
		}
	}
}

func TestHintFor(t *testing.T) {
	t.Parallel()

	getenv := func(string) string { return "" }
	tests := []struct {
		name     string
		err      error
		wantHint bool
	}{
		{"nil", nil, false},
		{"browser connect", fmt.Errorf("x: %w", mdexport.ErrBrowserConnect), true},
		{"timeout", context.DeadlineExceeded, true},
		{"diagram script", mdexport.ErrDiagramScript, true},
		{"config not found", config.ErrConfigNotFound, true},
		{"output directory", fileutil.ErrOutputDirectory, true},
		{"no documents", mdexport.ErrNoDocuments, true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := hintFor(tt.err, "mdexport", getenv)
			if hasHint := strings.Contains(got, "hint:"); hasHint != tt.wantHint {
				t.Errorf("hintFor(%v) = %q, want hint: %v", tt.err, got, tt.wantHint)
			}
		})
	}
}
