package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// renderFlags holds browser-related flags.
type renderFlags struct {
	backend    string
	browserBin string
	timeout    string
	noSandbox  bool
}

// diagramFlags holds mermaid flags.
type diagramFlags struct {
	theme  string
	script string
}

// contentFlags holds per-document options.
type contentFlags struct {
	noFileName   bool
	noSourcePath bool
	lang         string
}

// exportFlags holds all flags for the file, folder and project commands.
type exportFlags struct {
	common    commonFlags
	output    string
	title     string
	workers   int
	assetPath string
	html      bool // write composed HTML instead of a PDF
	yes       bool // never prompt for a destination
	noReveal  bool
	render    renderFlags
	diagrams  diagramFlags
	content   contentFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addRenderFlags adds browser flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVar(&f.backend, "backend", "", "browser driver: rod, chromedp")
	fs.StringVar(&f.browserBin, "browser-bin", "", "Chrome/Chromium binary")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-export timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.noSandbox, "no-sandbox", false, "disable the Chrome sandbox")
}

// addDiagramFlags adds mermaid flags to a FlagSet.
func addDiagramFlags(fs *flag.FlagSet, f *diagramFlags) {
	fs.StringVar(&f.theme, "mermaid-theme", "", "mermaid theme (default, dark, forest, neutral)")
	fs.StringVar(&f.script, "mermaid-script", "", "mermaid script URL or file")
}

// addContentFlags adds per-document flags to a FlagSet.
func addContentFlags(fs *flag.FlagSet, f *contentFlags) {
	fs.BoolVar(&f.noFileName, "no-file-name", false, "omit the file name chip")
	fs.BoolVar(&f.noSourcePath, "no-source-path", false, "omit the source path chip")
	fs.StringVar(&f.lang, "lang", "", "message language: system, en-US, es-MX")
}

// parseExportFlags parses flags for an export command and returns positional args.
func parseExportFlags(name string, args []string, usage func(io.Writer), stderr io.Writer) (*exportFlags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &exportFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output PDF file or directory")
	fs.StringVar(&f.title, "title", "", "title used for the default file name")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.BoolVar(&f.html, "html", false, "write composed HTML instead of a PDF")
	fs.BoolVarP(&f.yes, "yes", "y", false, "never prompt for a destination")
	fs.BoolVar(&f.noReveal, "no-reveal", false, "do not open the output folder")

	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)
	addDiagramFlags(fs, &f.diagrams)
	addContentFlags(fs, &f.content)

	fs.Usage = func() { usage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}
