//go:build integration

package mdexport

// Notes:
// - Runs the real browser backends. rod downloads Chromium on first run if
//   none is found; chromedp needs an installed Chrome.
// - Diagrams use the CDN script, so the mermaid case needs network access.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testTimeout = 60 * time.Second

func assertValidPDF(t *testing.T, data []byte) {
	t.Helper()

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("data does not have PDF magic bytes, got prefix: %q", data[:min(10, len(data))])
	}
	if len(data) < 100 {
		t.Errorf("PDF data suspiciously small: %d bytes", len(data))
	}
}

func integrationOptions(backend Backend) []Option {
	opts := []Option{WithBackend(backend), WithTimeout(testTimeout)}
	if os.Getenv("ROD_NO_SANDBOX") == "1" {
		opts = append(opts, WithNoSandbox(true))
	}
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		opts = append(opts, WithBrowserBin(bin))
	}
	return opts
}

func TestExport_Integration(t *testing.T) {
	dir := t.TempDir()
	index := filepath.Join(dir, "index.md")
	if err := os.WriteFile(index, []byte("# Index\n\nSee [setup](setup.md#install).\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "setup.md"), []byte("# Setup\n\n## Install\n\n```mermaid\ngraph TD; A-->B\n```\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, backend := range []Backend{BackendRod, BackendChromedp} {
		t.Run(string(backend), func(t *testing.T) {
			exp, err := NewExporter(integrationOptions(backend)...)
			if err != nil {
				t.Fatalf("NewExporter() error = %v", err)
			}
			defer exp.Close()

			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()

			root := Document{Title: "Index", SourcePath: index}
			data, _ := os.ReadFile(index)
			root.Markdown = string(data)

			docs, skips := exp.Collect(ctx, root)
			if len(docs) != 2 || len(skips) != 0 {
				t.Fatalf("Collect() = %d docs, skips %v", len(docs), skips)
			}

			result, err := exp.Export(ctx, "Index", docs, DefaultExportOptions())
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			assertValidPDF(t, result.PDF)
			if last := result.States[len(result.States)-1]; last != StateDestroyed {
				t.Errorf("last state = %v, want destroyed", last)
			}
		})
	}
}

func TestCoordinator_ExportFile_Integration(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "notes.pdf")

	exp, err := NewExporter(integrationOptions(BackendRod)...)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	defer exp.Close()

	c := NewCoordinator(exp, WithPrompter(FixedDestination(out)), WithRevealer(nil))
	status := c.ExportFile(context.Background(), FileRequest{
		Document: Document{Title: "Notes", Markdown: "# Notes\n\n- [x] done\n"},
	})
	if status.Kind != StatusExported {
		t.Fatalf("status = %+v", status)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading PDF: %v", err)
	}
	assertValidPDF(t, data)
}
