// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"strings"

	"github.com/alnah/go-mdexport/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether a known CI environment variable is set.
func InCI(getenv func(string) string) bool {
	for _, key := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"} {
		if getenv(key) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect returns hints for browser launch and connection errors.
func ForBrowserConnect(getenv func(string) string) string {
	var hints []string

	if (InCI(getenv) || IsInContainer()) && getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use an installed Chrome")
	}
	hints = append(hints, "or try --backend chromedp")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large exports or slow diagram rendering, raise --timeout")
}

// ForDiagramScript returns a hint for an unreachable diagram engine.
func ForDiagramScript() string {
	return format("offline? point mermaid.script or --mermaid-script at a local mermaid.min.js")
}

// ForConfigNotFound suggests --config or creating a config in the user config dir.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(filepath2slash(p), "/go-mdexport/") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForNoDocuments returns a hint when discovery found nothing to export.
func ForNoDocuments() string {
	return format("supported extensions: .md, .markdown, .mdx, .txt")
}

func filepath2slash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
