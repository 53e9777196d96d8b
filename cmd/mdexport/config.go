package main

import (
	"fmt"
	"strings"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
)

// loadConfig resolves the effective configuration.
// Priority: flags > environment > config file > defaults.
func loadConfig(f *exportFlags, getenv func(string) string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.common.config != "" {
		loaded, err := config.LoadConfig(f.common.config)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	mergeFlags(f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags overlays explicitly set flags onto cfg.
func mergeFlags(f *exportFlags, cfg *config.Config) {
	setString := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Language, f.content.lang)
	setString(&cfg.Assets.BasePath, f.assetPath)
	setString(&cfg.Mermaid.Theme, f.diagrams.theme)
	setString(&cfg.Mermaid.Script, f.diagrams.script)
	setString(&cfg.Render.Backend, f.render.backend)
	setString(&cfg.Render.BrowserBin, f.render.browserBin)
	setString(&cfg.Render.Timeout, f.render.timeout)

	if f.workers > 0 {
		cfg.Render.Workers = f.workers
	}
	if f.content.noFileName {
		cfg.Export.IncludeFileName = false
	}
	if f.content.noSourcePath {
		cfg.Export.IncludeSourcePath = false
	}

	switch {
	case f.common.verbose:
		cfg.Log.Level = "debug"
	case f.common.quiet:
		cfg.Log.Level = "error"
	}
}

// exportOptions converts the export section to library options.
func exportOptions(cfg *config.Config) mdexport.ExportOptions {
	return mdexport.ExportOptions{
		IncludeFileName:   cfg.Export.IncludeFileName,
		IncludeSourcePath: cfg.Export.IncludeSourcePath,
	}
}

// exporterOptions converts cfg to the options every pooled Exporter is built with.
func exporterOptions(cfg *config.Config, f *exportFlags, lang string, getenv func(string) string) []mdexport.Option {
	backend := cfg.Render.Backend
	if backend == "" {
		backend = config.BackendRod
	}
	return []mdexport.Option{
		mdexport.WithTimeout(cfg.Render.TimeoutDuration()),
		mdexport.WithAssetPath(cfg.Assets.BasePath),
		mdexport.WithBackend(mdexport.Backend(backend)),
		mdexport.WithBrowserBin(cfg.Render.BrowserBin),
		mdexport.WithNoSandbox(f.render.noSandbox || getenv("ROD_NO_SANDBOX") == "1"),
		mdexport.WithDiagrams(cfg.Mermaid.Theme, cfg.Mermaid.Script),
		mdexport.WithDocumentLang(lang),
	}
}
