package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/hints"
)

// Doctor statuses.
const (
	doctorReady    = "ready"
	doctorWarnings = "warnings"
	doctorErrors   = "errors"
)

// doctorResult is the full report, printed as text or JSON.
type doctorResult struct {
	Status   string      `json:"status"`
	Chrome   chromeInfo  `json:"chrome"`
	Diagrams diagramInfo `json:"diagrams"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
	Backend string `json:"backend"`
}

// diagramInfo reports where the mermaid engine comes from.
type diagramInfo struct {
	Source string `json:"source"` // "url", "file" or "cdn"
	Script string `json:"script"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

func (r *doctorResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorResult) fail(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// runDoctorCmd prints the report and returns ExitGeneral only when a check
// failed; warnings still exit 0.
func runDoctorCmd(args []string, env *Environment) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOutput := fs.Bool("json", false, "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	result := runDoctor(env.Getenv)

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == doctorErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func runDoctor(getenv func(string) string) *doctorResult {
	result := &doctorResult{
		Status: doctorReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  getenv("ROD_NO_SANDBOX"),
			BrowserBin: getenv(config.EnvBrowserBin),
		},
	}

	for _, check := range []func(*doctorResult, func(string) string){
		checkChrome,
		checkDiagrams,
		checkEnvironment,
	} {
		check(result, getenv)
	}
	checkSystem(result)

	switch {
	case len(result.Errors) > 0:
		result.Status = doctorErrors
	case len(result.Warnings) > 0:
		result.Status = doctorWarnings
	}
	return result
}

// checkChrome locates the browser the selected backend will drive.
func checkChrome(result *doctorResult, getenv func(string) string) {
	result.Chrome.Backend = cmp.Or(getenv(config.EnvBackend), string(mdexport.BackendRod))
	rod := result.Chrome.Backend == string(mdexport.BackendRod)

	bin := result.Env.BrowserBin
	if bin == "" {
		found := false
		if bin, found = launcher.LookPath(); !found {
			if rod {
				// rod downloads a browser on first use.
				result.warn("Chrome/Chromium not found. rod will download one on first export; set %s to use an installed browser", config.EnvBrowserBin)
			} else {
				result.fail("Chrome/Chromium not found. Install Chrome or set %s", config.EnvBrowserBin)
			}
			return
		}
	}

	if !fileutil.FileExists(bin) {
		result.fail("Chrome not found at %s", bin)
		return
	}
	result.Chrome.Found = true
	result.Chrome.Path = bin
	result.Chrome.Sandbox = result.Env.NoSandbox != "1"

	out, err := exec.Command(bin, "--version").Output() // #nosec G204 -- browser path from env or well-known locations
	if err != nil {
		result.warn("Could not get Chrome version: %v", err)
		return
	}
	result.Chrome.Version = strings.TrimSpace(string(out))
}

// checkDiagrams reports the mermaid source and verifies a local script exists.
func checkDiagrams(result *doctorResult, getenv func(string) string) {
	script := getenv(config.EnvDiagramScript)
	switch {
	case script == "":
		result.Diagrams = diagramInfo{Source: "cdn", Script: mdexport.DefaultDiagramScript}
		result.warn("Diagrams load mermaid from the CDN; offline exports render them as code")
	case fileutil.IsURL(script):
		result.Diagrams = diagramInfo{Source: "url", Script: script}
	default:
		result.Diagrams = diagramInfo{Source: "file", Script: script}
		if !fileutil.FileExists(script) {
			result.fail("Mermaid script not found at %s", script)
		}
	}
}

func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)
	result.Env.CI = hints.InCI(getenv)

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.warn("Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer reports whether we run inside a container and which signal
// gave it away.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("MDEXPORT_CONTAINER") == "1" {
		return true, "MDEXPORT_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for page files is writable.
func checkSystem(result *doctorResult) {
	f, err := os.CreateTemp("", "mdexport-doctor-*")
	if err != nil {
		result.fail("Temp directory not writable: %s", os.TempDir())
		return
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	result.System.TempWritable = true
}

// doctorLine is one "[LEVEL] text" row of the text report.
type doctorLine struct {
	level string
	text  string
}

func okLine(format string, args ...any) doctorLine {
	return doctorLine{"OK", fmt.Sprintf(format, args...)}
}

type doctorSection struct {
	title string
	lines []doctorLine
}

func doctorSections(r *doctorResult) []doctorSection {
	browser := []doctorLine{okLine("Backend: %s", r.Chrome.Backend)}
	if r.Chrome.Found {
		browser = append(browser, okLine("Found at %s", r.Chrome.Path))
		if r.Chrome.Version != "" {
			browser = append(browser, okLine("Version: %s", r.Chrome.Version))
		}
		sandbox := "enabled"
		if !r.Chrome.Sandbox {
			sandbox = "disabled (ROD_NO_SANDBOX=1)"
		}
		browser = append(browser, okLine("Sandbox: %s", sandbox))
	} else {
		browser = append(browser, doctorLine{"WARN", "Not found"})
	}

	environment := []doctorLine{okLine("Platform: %s/%s", r.Env.OS, r.Env.Arch)}
	if r.Env.Container {
		environment = append(environment, okLine("Container: detected (%s)", r.Env.ContainerHint))
	}
	if r.Env.CI {
		environment = append(environment, okLine("CI: detected"))
	}

	temp := okLine("Temp directory: writable")
	if !r.System.TempWritable {
		temp = doctorLine{"ERROR", "Temp directory: not writable"}
	}

	return []doctorSection{
		{"Chrome/Chromium", browser},
		{"Diagrams", []doctorLine{okLine("Mermaid (%s): %s", r.Diagrams.Source, r.Diagrams.Script)}},
		{"Environment", environment},
		{"System", []doctorLine{temp}},
	}
}

var doctorStatusText = map[string]string{
	doctorReady:    "Ready to export",
	doctorWarnings: "Ready with warnings",
	doctorErrors:   "Not ready (see errors above)",
}

// printDoctorResult writes the human-readable report.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintf(w, "mdexport doctor\n\n")

	for _, section := range doctorSections(r) {
		fmt.Fprintln(w, section.title)
		for _, line := range section.lines {
			fmt.Fprintf(w, "  [%s] %s\n", line.level, line.text)
		}
		fmt.Fprintln(w)
	}

	for _, group := range []struct {
		title, level string
		items        []string
	}{
		{"Warnings:", "WARN", r.Warnings},
		{"Errors:", "ERROR", r.Errors},
	} {
		if len(group.items) == 0 {
			continue
		}
		fmt.Fprintln(w, group.title)
		for _, item := range group.items {
			fmt.Fprintf(w, "  [%s] %s\n", group.level, item)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Status: %s\n", doctorStatusText[r.Status])
}
