package mdexport

// Notes:
// - Documents live in an in-memory map served through WithReadFile; paths are
//   POSIX absolute, so these tests skip on Windows.
// - The browser is replaced with fakeFactory from render_test.go.

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memFS map[string]string

func (m memFS) read(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(content), nil
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX absolute paths")
	}
}

func newTestExporter(t *testing.T, f surfaceFactory, opts ...Option) *Exporter {
	t.Helper()
	exp, err := NewExporter(append(opts, withFactory(f))...)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	t.Cleanup(func() { _ = exp.Close() })
	return exp
}

// ---------------------------------------------------------------------------
// Collect
// ---------------------------------------------------------------------------

func TestExporter_Collect(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	files := memFS{
		"/notes/b.md":     "# B\n\nback to [a](a.md), see [c](sub/c.md)",
		"/notes/sub/c.md": "# C",
	}
	exp := newTestExporter(t, newFakeFactory(), WithReadFile(files.read))

	root := Document{Title: "A", Markdown: "[b](b.md) [gone](missing.md)", SourcePath: "/notes/a.md"}
	docs, skips := exp.Collect(context.Background(), root)

	var titles []string
	for _, d := range docs {
		titles = append(titles, d.Title)
	}
	if want := []string{"A", "b", "c"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
	if len(skips) != 1 || !errors.Is(skips[0], ErrUnreadable) {
		t.Errorf("skips = %v, want one unreadable", skips)
	}
}

func TestExporter_Collect_Unsaved(t *testing.T) {
	t.Parallel()

	exp := newTestExporter(t, newFakeFactory())
	root := Document{Title: "Scratch", Markdown: "# Title"}

	docs, skips := exp.Collect(context.Background(), root)
	if !reflect.DeepEqual(docs, []Document{root}) {
		t.Errorf("docs = %v, want only root", docs)
	}
	if len(skips) != 0 {
		t.Errorf("skips = %v", skips)
	}
}

// ---------------------------------------------------------------------------
// ComposeHTML
// ---------------------------------------------------------------------------

func TestExporter_ComposeHTML(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	files := memFS{"/notes/img/dot.png": "\x89PNG"}
	exp := newTestExporter(t, newFakeFactory(), WithReadFile(files.read), WithDocumentLang("es"))

	aMarkdown := "# Intro\n\n# Intro\n\n" +
		"[next](b.md#Set%20Up) [local](#intro) [outside](../other.md) [web](https://example.com)\n\n" +
		"![dot](img/dot.png)\n\n" +
		"- [x] done\n- [ ] todo\n\n" +
		"```mermaid\nflowchart LR\n A-->B\n```\n"
	docs := []Document{
		{Title: "a", SourcePath: "/notes/a.md", Markdown: aMarkdown},
		{Title: "b", SourcePath: "/notes/b.md", Markdown: "## Set Up\n\n:smile:"},
	}

	result, err := exp.ComposeHTML(context.Background(), "Notes", docs, ExportOptions{IncludeFileName: true})
	if err != nil {
		t.Fatalf("ComposeHTML() error = %v", err)
	}
	if result.PDF != nil {
		t.Error("ComposeHTML should not produce a PDF")
	}

	html := string(result.HTML)
	wantContains := []string{
		`<html lang="es">`,
		`<section class="doc-section page-break-after" id="a-1">`,
		`<section class="doc-section" id="b-2">`,
		`1. a`,
		`2. b`,
		`id="a-1--intro"`,
		`id="a-1--intro-2"`,
		`href="#b-2--set-up"`,
		`href="#a-1--intro"`,
		`href="file:///other.md"`,
		`href="https://example.com"`,
		`src="data:image/png;base64,iVBORw=="`,
		`<input type="checkbox" disabled="" checked=""/>`,
		`<div class="mermaid">`,
		`A--&gt;B`,
		`id="b-2--set-up"`,
		"😄",
		`<span class="meta-chip">a.md</span>`,
	}
	for _, want := range wantContains {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if strings.Contains(html, "/notes/a.md</span>") {
		t.Error("full path chip shown although IncludeSourcePath is false")
	}
}

func TestExporter_ComposeHTML_Deterministic(t *testing.T) {
	t.Parallel()

	exp := newTestExporter(t, newFakeFactory())
	docs := []Document{
		{Title: "one", Markdown: "# Same\n\n# Same"},
		{Title: "two", Markdown: "# Same"},
	}

	first, err := exp.ComposeHTML(context.Background(), "T", docs, DefaultExportOptions())
	if err != nil {
		t.Fatalf("ComposeHTML() error = %v", err)
	}
	second, err := exp.ComposeHTML(context.Background(), "T", docs, DefaultExportOptions())
	if err != nil {
		t.Fatalf("ComposeHTML() error = %v", err)
	}
	if string(first.HTML) != string(second.HTML) {
		t.Error("two runs over the same documents produced different HTML")
	}
	for _, want := range []string{`id="doc-1--same"`, `id="doc-1--same-2"`, `id="doc-2--same"`} {
		if !strings.Contains(string(first.HTML), want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestExporter_ComposeHTML_NoDocuments(t *testing.T) {
	t.Parallel()

	exp := newTestExporter(t, newFakeFactory())
	_, err := exp.ComposeHTML(context.Background(), "T", nil, DefaultExportOptions())
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("error = %v, want ErrNoDocuments", err)
	}
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func TestExporter_Export(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		markdown     string
		wantDiagrams bool
	}{
		{"plain", "# Hello\n\nworld", false},
		{"backtick diagram", "```mermaid\ngraph TD\n```", true},
		{"tilde diagram", "~~~ mermaid\ngraph TD\n~~~", true},
		{"four backtick diagram", "````mermaid\ngraph TD\n````", true},
		{"capitalized info string", "```Mermaid\ngraph TD\n```", true},
		{"diagram shown as example", "````md\n```mermaid\ngraph TD\n```\n````", false},
		{"other fence", "```go\nfmt.Println()\n```", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFakeFactory()
			exp := newTestExporter(t, f, WithDiagrams("dark", "https://cdn.test/mermaid.js"))

			result, err := exp.Export(context.Background(), "T", []Document{{Title: "x", Markdown: tt.markdown}}, DefaultExportOptions())
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if string(result.PDF) != "%PDF-1.7 fake" {
				t.Errorf("PDF = %q", result.PDF)
			}
			if f.surface.loaded != string(result.HTML) {
				t.Error("surface did not load the composed HTML")
			}

			hasDiagramState := false
			for _, s := range result.States {
				if s == StateDiagramsReady {
					hasDiagramState = true
				}
			}
			if hasDiagramState != tt.wantDiagrams {
				t.Errorf("diagrams state = %v, want %v (states %v)", hasDiagramState, tt.wantDiagrams, result.States)
			}
			if tt.wantDiagrams && f.surface.scripts[0].URL != "https://cdn.test/mermaid.js" {
				t.Errorf("script = %+v", f.surface.scripts[0])
			}
		})
	}
}

func TestExporter_Export_DiagramFailureIsLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	f := &fakeFactory{surface: &fakeSurface{diagramResult: "Syntax error in graph"}}
	exp := newTestExporter(t, f, WithLogger(zap.New(core)))

	result, err := exp.Export(context.Background(), "T", []Document{{Markdown: "```mermaid\nnope\n```"}}, DefaultExportOptions())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(result.Skips) != 1 || !errors.Is(result.Skips[0], ErrDiagramEngine) {
		t.Errorf("Skips = %v, want one diagram skip", result.Skips)
	}
	if logs.FilterMessage("export step skipped").Len() != 1 {
		t.Errorf("expected one skip warning, got %v", logs.All())
	}
}

func TestExporter_Export_RenderError(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{surface: &fakeSurface{printErr: ErrPDFGeneration}}
	exp := newTestExporter(t, f)

	_, err := exp.Export(context.Background(), "T", []Document{{Markdown: "x"}}, DefaultExportOptions())
	if !errors.Is(err, ErrPDFGeneration) {
		t.Errorf("error = %v, want ErrPDFGeneration", err)
	}
	if f.surface.destroyed != 1 {
		t.Errorf("destroyed = %d, want 1", f.surface.destroyed)
	}
}

func TestExporter_Export_RecoversPanic(t *testing.T) {
	t.Parallel()

	exp := newTestExporter(t, newFakeFactory())
	exp.htmlConverter = panickingConverter{}

	_, err := exp.Export(context.Background(), "T", []Document{{Markdown: "x"}}, DefaultExportOptions())
	if !errors.Is(err, ErrInternal) {
		t.Errorf("error = %v, want ErrInternal", err)
	}
}

type panickingConverter struct{}

func (panickingConverter) ToHTML(context.Context, string) (string, error) {
	panic("boom")
}

// ---------------------------------------------------------------------------
// NewExporter
// ---------------------------------------------------------------------------

func TestNewExporter_DiagramScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scriptPath := dir + string(os.PathSeparator) + "mermaid.js"
	if err := os.WriteFile(scriptPath, []byte("window.mermaid = {}"), 0o600); err != nil {
		t.Fatal(err)
	}

	assetDir := t.TempDir()
	if err := os.MkdirAll(assetDir+string(os.PathSeparator)+"scripts", 0o750); err != nil {
		t.Fatal(err)
	}
	assetScript := assetDir + string(os.PathSeparator) + "scripts" + string(os.PathSeparator) + "mermaid.js"
	if err := os.WriteFile(assetScript, []byte("/* asset */"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts []Option
		want diagramScript
	}{
		{"default CDN", nil, diagramScript{URL: DefaultDiagramScript}},
		{"configured URL", []Option{WithDiagrams("", "https://example.com/m.js")}, diagramScript{URL: "https://example.com/m.js"}},
		{"configured file", []Option{WithDiagrams("", scriptPath)}, diagramScript{Content: "window.mermaid = {}"}},
		{"asset directory", []Option{WithAssetPath(assetDir)}, diagramScript{Content: "/* asset */"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exp := newTestExporter(t, newFakeFactory(), tt.opts...)
			if exp.script != tt.want {
				t.Errorf("script = %+v, want %+v", exp.script, tt.want)
			}
		})
	}
}

func TestNewExporter_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"missing script file", []Option{WithDiagrams("", "/does/not/exist.js"), withFactory(newFakeFactory())}, ErrDiagramScript},
		{"bad asset path", []Option{WithAssetPath("/does/not/exist"), withFactory(newFakeFactory())}, ErrInvalidAssetPath},
		{"unknown backend", []Option{WithBackend("webkit")}, ErrUnknownBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewExporter(tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestWithTimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithTimeout(0) should panic")
		}
	}()
	WithTimeout(0)
}

func TestExporter_Close(t *testing.T) {
	t.Parallel()

	f := newFakeFactory()
	exp, err := NewExporter(withFactory(f))
	if err != nil {
		t.Fatal(err)
	}
	if err := exp.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.closed {
		t.Error("Close did not close the browser factory")
	}
}
