package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdexport <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  file       Export markdown files and the documents they link to")
	fmt.Fprintln(w, "  folder     Export every markdown file in a folder")
	fmt.Fprintln(w, "  project    Export every markdown file in a project tree")
	fmt.Fprintln(w, "  doctor     Check the browser setup")
	fmt.Fprintln(w, "  config     Print the effective configuration")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdexport help <command>' for details on a specific command.")
}

func printFileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdexport file <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export each input together with every document reachable through")
	fmt.Fprintln(w, "relative links into one PDF. Several inputs are exported in parallel.")
	printExportFlags(w)
}

func printFolderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdexport folder <dir> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export the markdown files directly inside dir, sorted by name,")
	fmt.Fprintln(w, "into one PDF.")
	printExportFlags(w)
}

func printProjectUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdexport project <dir> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export every markdown file under dir, sorted by path, into one PDF.")
	fmt.Fprintln(w, "Paths matching project.exclude in the config are left out.")
	printExportFlags(w)
}

func printExportFlags(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>         Output PDF file or directory")
	fmt.Fprintln(w, "      --title <s>             Title used for the default file name")
	fmt.Fprintln(w, "  -c, --config <name>         Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>           Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "  -y, --yes                   Never prompt for a destination")
	fmt.Fprintln(w, "      --no-reveal             Do not open the output folder")
	fmt.Fprintln(w, "      --html                  Write composed HTML instead of a PDF")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Content:")
	fmt.Fprintln(w, "      --no-file-name          Omit the file name chip")
	fmt.Fprintln(w, "      --no-source-path        Omit the source path chip")
	fmt.Fprintln(w, "      --lang <tag>            Message language: system, en-US, es-MX")
	fmt.Fprintln(w, "      --asset-path <dir>      Custom styles, templates and scripts")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --mermaid-theme <s>     Mermaid theme")
	fmt.Fprintln(w, "      --mermaid-script <s>    Mermaid script URL or file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "      --backend <s>           Driver: rod, chromedp")
	fmt.Fprintln(w, "      --browser-bin <path>    Chrome/Chromium binary")
	fmt.Fprintln(w, "  -t, --timeout <d>           Per-export timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --no-sandbox            Disable the Chrome sandbox")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet                 Only show errors")
	fmt.Fprintln(w, "  -v, --verbose               Show debug logs")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "file":
		printFileUsage(env.Stdout)
	case "folder":
		printFolderUsage(env.Stdout)
	case "project":
		printProjectUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: mdexport doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, diagram and environment setup.")
	case "config":
		fmt.Fprintln(env.Stdout, "Usage: mdexport config [-c <name>] [--default]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Print the effective configuration as YAML.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdexport version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdexport help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
