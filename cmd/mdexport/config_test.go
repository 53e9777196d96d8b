package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
)

func TestLoadConfig_Priority(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "mdexport.yaml")
	content := "render:\n  backend: chromedp\n  timeout: 30s\nmermaid:\n  theme: forest\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	env := map[string]string{"MDEXPORT_TIMEOUT": "45s"}
	f := &exportFlags{
		common:   commonFlags{config: cfgPath},
		diagrams: diagramFlags{theme: "dark"},
	}

	cfg, err := loadConfig(f, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.Render.Backend != config.BackendChromedp {
		t.Errorf("Backend = %q, want file value", cfg.Render.Backend)
	}
	if cfg.Render.TimeoutDuration() != 45*time.Second {
		t.Errorf("Timeout = %v, want env value", cfg.Render.TimeoutDuration())
	}
	if cfg.Mermaid.Theme != "dark" {
		t.Errorf("Theme = %q, want flag value", cfg.Mermaid.Theme)
	}
}

func TestMergeFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flags exportFlags
		check func(t *testing.T, cfg *config.Config)
	}{
		{
			name:  "no flags keeps defaults",
			flags: exportFlags{},
			check: func(t *testing.T, cfg *config.Config) {
				if !reflect.DeepEqual(cfg, config.DefaultConfig()) {
					t.Errorf("cfg changed: %+v", cfg)
				}
			},
		},
		{
			name:  "content toggles",
			flags: exportFlags{content: contentFlags{noFileName: true, noSourcePath: true, lang: "es-MX"}},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Export.IncludeFileName || cfg.Export.IncludeSourcePath {
					t.Errorf("Export = %+v, want both disabled", cfg.Export)
				}
				if cfg.Language != "es-MX" {
					t.Errorf("Language = %q", cfg.Language)
				}
			},
		},
		{
			name:  "verbose wins over quiet",
			flags: exportFlags{common: commonFlags{verbose: true, quiet: true}},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Log.Level != "debug" {
					t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
				}
			},
		},
		{
			name:  "quiet",
			flags: exportFlags{common: commonFlags{quiet: true}},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Log.Level != "error" {
					t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
				}
			},
		},
		{
			name:  "render flags",
			flags: exportFlags{workers: 3, render: renderFlags{backend: "chromedp", browserBin: "/bin/chrome", timeout: "1m"}},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Render.Workers != 3 || cfg.Render.Backend != "chromedp" || cfg.Render.BrowserBin != "/bin/chrome" || cfg.Render.Timeout != "1m" {
					t.Errorf("Render = %+v", cfg.Render)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			mergeFlags(&tt.flags, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestExporterOptions_BuildExporter(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Render.Backend = config.BackendChromedp
	opts := exporterOptions(cfg, &exportFlags{}, "en-US", func(string) string { return "" })

	exp, err := mdexport.NewExporter(opts...)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
