// Package config loads and validates the exporter's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigInvalid   = errors.New("invalid config")
)

// AppDirName is the directory under the user config dir searched for configs.
const AppDirName = "go-mdexport"

// Render backends.
const (
	BackendRod      = "rod"
	BackendChromedp = "chromedp"
)

// Language preferences besides explicit tags.
const LanguageSystem = "system"

// Limits.
const (
	MaxWorkers      = 8
	MaxPathLength   = 4096
	MaxExcludes     = 256
	DefaultTimeout  = 2 * time.Minute
	DefaultLogLevel = "warn"
)

// DefaultDiagramScript is the diagram engine loaded when no script is configured.
const DefaultDiagramScript = "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js"

// Config holds all configuration for an export run.
type Config struct {
	Language string        `yaml:"language"`
	Export   ExportConfig  `yaml:"export"`
	Output   OutputConfig  `yaml:"output"`
	Assets   AssetsConfig  `yaml:"assets"`
	Mermaid  MermaidConfig `yaml:"mermaid"`
	Render   RenderConfig  `yaml:"render"`
	Project  ProjectConfig `yaml:"project"`
	Log      LogConfig     `yaml:"log"`
}

// ExportConfig holds the default per-export options.
type ExportConfig struct {
	IncludeFileName   bool `yaml:"includeFileName"`
	IncludeSourcePath bool `yaml:"includeSourcePath"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // empty = next to the source
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
}

// MermaidConfig configures the diagram engine.
type MermaidConfig struct {
	Theme  string `yaml:"theme"`
	Script string `yaml:"script"` // URL or file path; empty = assets, then CDN
}

// RenderConfig configures the headless browser.
type RenderConfig struct {
	Backend    string `yaml:"backend"`
	Timeout    string `yaml:"timeout"` // Go duration, e.g. "90s"
	BrowserBin string `yaml:"browserBin"`
	Workers    int    `yaml:"workers"` // 0 = auto
}

// ProjectConfig configures project discovery.
type ProjectConfig struct {
	Exclude []string `yaml:"exclude"` // doublestar patterns relative to the root
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Language, validation.Length(0, 35)),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}
	sections := []struct {
		name string
		v    validation.Validatable
	}{
		{"output", &c.Output},
		{"assets", &c.Assets},
		{"mermaid", &c.Mermaid},
		{"render", &c.Render},
		{"project", &c.Project},
		{"log", &c.Log},
	}
	for _, s := range sections {
		if err := s.v.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfigInvalid, s.name, err)
		}
	}
	return nil
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultDir, validation.Length(0, MaxPathLength)),
	)
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BasePath, validation.Length(0, MaxPathLength)),
	)
}

// Validate validates the diagram configuration.
func (c *MermaidConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Theme, validation.In("", "default", "neutral", "dark", "forest", "base")),
		validation.Field(&c.Script, validation.Length(0, MaxPathLength)),
	)
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.In("", BackendRod, BackendChromedp)),
		validation.Field(&c.Timeout, validation.By(isPositiveDuration)),
		validation.Field(&c.BrowserBin, validation.Length(0, MaxPathLength)),
		validation.Field(&c.Workers, validation.Min(0), validation.Max(MaxWorkers)),
	)
}

// TimeoutDuration returns the parsed timeout, or DefaultTimeout when unset.
func (c *RenderConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultTimeout
}

// Validate validates the project configuration.
func (c *ProjectConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Exclude, validation.Length(0, MaxExcludes)),
	)
}

// Validate validates the log configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("", "debug", "info", "warn", "error")),
		validation.Field(&c.File, validation.Length(0, MaxPathLength)),
		validation.Field(&c.MaxSizeMB, validation.Min(0)),
		validation.Field(&c.MaxBackups, validation.Min(0)),
	)
}

func isPositiveDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 90s or 2m")
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Language: LanguageSystem,
		Export: ExportConfig{
			IncludeFileName:   true,
			IncludeSourcePath: true,
		},
		Mermaid: MermaidConfig{Theme: "default"},
		Render:  RenderConfig{Backend: BackendRod},
		Project: ProjectConfig{Exclude: []string{".git/**", "node_modules/**"}},
		Log:     LogConfig{Level: DefaultLogLevel},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's searched in the current directory, then in the user
// config directory. Keys absent from the file keep their defaults and
// ${VAR} references are expanded from the environment.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists where a config name is looked up, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDirName, name+ext))
		}
	}
	return paths
}

func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
