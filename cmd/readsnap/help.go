package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: readsnap [flags] <url|file.html>...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extract reading-app content as Markdown, a print-ready HTML snapshot,")
	fmt.Fprintln(w, "JSON or PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -f, --format <s>          markdown, html, json, pdf (default: markdown)")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: stdout for one input)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --asset-path <dir>    Override embedded styles and templates")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extraction:")
	fmt.Fprintln(w, "      --wrapper             Search frames and shadow roots (html, json, pdf)")
	fmt.Fprintln(w, "      --no-strip-ui         Keep toolbars, panels and hidden elements")
	fmt.Fprintln(w, "      --no-fix-print        Keep print countermeasures in styles")
	fmt.Fprintln(w, "      --no-images           Leave images as remote references")
	fmt.Fprintln(w, "      --no-ready            Skip scrolling for lazy content")
	fmt.Fprintln(w, "      --step-delay <d>      Pause per scroll step (e.g. 150ms)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Limit per input (e.g. 2m)")
	fmt.Fprintln(w, "      --preview             Also write an HTML preview of the Markdown")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "      --dump-config         Print the effective config as YAML")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
	fmt.Fprintln(w, "      --version             Print version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  READSNAP_CONFIG, READSNAP_FORMAT, READSNAP_OUTPUT_DIR, READSNAP_TIMEOUT,")
	fmt.Fprintln(w, "  READSNAP_STEP_DELAY, READSNAP_WORKERS, ROD_BROWSER_BIN, ROD_NO_SANDBOX")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 error, 2 usage, 3 I/O, 4 browser, 5 no content")
}
