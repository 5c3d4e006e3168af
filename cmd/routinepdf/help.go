package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: routinepdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  export     Export routine files to PDF, JPG or text")
	fmt.Fprintln(w, "  parse      Turn pasted workout or meal text into a routine file")
	fmt.Fprintln(w, "  serve      Run the HTTP API")
	fmt.Fprintln(w, "  themes     List available themes")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'routinepdf help <command>' for details on a specific command.")
}

// printExportUsage prints usage for the export command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: routinepdf export <routine>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export routine files (YAML or JSON) to PDF, JPG or plain text.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: output.defaultDir or .)")
	fmt.Fprintln(w, "  -f, --format <list>       pdf, jpg, txt, a comma list, or all (default: pdf)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Export timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Look:")
	fmt.Fprintln(w, "      --theme <id|file>     Theme id or YAML file (see 'routinepdf themes')")
	fmt.Fprintln(w, "      --decoration <s>      minimal, standard, rich")
	fmt.Fprintln(w, "  -m, --mode <s>            Image layout: desktop, mobile")
	fmt.Fprintln(w, "      --group-size <n>      Days per PDF group (1-7)")
	fmt.Fprintln(w, "      --phone <s>           Contact phone in the footer")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles, templates and themes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       a4, a5, letter")
	fmt.Fprintln(w, "      --orientation <s>     portrait, landscape")
	fmt.Fprintln(w, "      --margin <f>          Margin in millimeters (0-50)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printParseUsage prints usage for the parse command.
func printParseUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: routinepdf parse <text-file|-> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Send pasted program text to the AI parser and write the routine.")
	fmt.Fprintln(w, "Reads LOVABLE_API_KEY from the environment or a .env file.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <file>       .json or .yaml file (default: JSON on stdout)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: routinepdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve /api/v1/themes, /parse, /preview and /export/{pdf,jpg,txt}.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: server.addr)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles, templates and themes")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printThemesUsage prints usage for the themes command.
func printThemesUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: routinepdf themes [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List theme ids and names. The configured theme is marked with *.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --asset-path <dir>    Custom styles, templates and themes")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  ROUTINEPDF_CONFIG, ROUTINEPDF_THEME, ROUTINEPDF_TIMEOUT, ROUTINEPDF_WORKERS, ...")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Chrome binary; ROD_NO_SANDBOX=1 for containers")
}

// runHelp prints help for a command, or the main usage.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "export":
		printExportUsage(env.Stdout)
	case "parse":
		printParseUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "themes":
		printThemesUsage(env.Stdout)
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
