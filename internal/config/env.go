package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables that override file values. Flags override both.
const (
	EnvLanguage      = "MDEXPORT_LANG"
	EnvBackend       = "MDEXPORT_BACKEND"
	EnvTimeout       = "MDEXPORT_TIMEOUT"
	EnvWorkers       = "MDEXPORT_WORKERS"
	EnvDiagramScript = "MDEXPORT_MERMAID_SCRIPT"
	EnvAssetPath     = "MDEXPORT_ASSET_PATH"
	EnvLogLevel      = "MDEXPORT_LOG_LEVEL"
	EnvBrowserBin    = "ROD_BROWSER_BIN"
)

// ApplyEnv overlays environment overrides onto c and revalidates.
// getenv is injected so callers and tests control the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	setString(&c.Language, EnvLanguage)
	setString(&c.Render.Backend, EnvBackend)
	setString(&c.Render.Timeout, EnvTimeout)
	setString(&c.Render.BrowserBin, EnvBrowserBin)
	setString(&c.Mermaid.Script, EnvDiagramScript)
	setString(&c.Assets.BasePath, EnvAssetPath)
	setString(&c.Log.Level, EnvLogLevel)

	if v := strings.TrimSpace(getenv(EnvWorkers)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrConfigInvalid, EnvWorkers, err)
		}
		c.Render.Workers = n
	}

	return c.Validate()
}
