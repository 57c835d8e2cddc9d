package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-readsnap/internal/config"
)

// ErrUsage reports invalid flags or arguments.
var ErrUsage = errors.New("invalid usage")

// cliFlags holds every command-line flag.
type cliFlags struct {
	config     string
	format     string
	output     string
	assetPath  string
	wrapper    bool
	noStripUI  bool
	noFixPrint bool
	noImages   bool
	noReady    bool
	stepDelay  time.Duration
	preview    bool
	timeout    time.Duration
	workers    int
	verbose    bool
	quiet      bool
	version    bool
	dumpConfig bool
	help       bool
}

// newFlagSet declares the flags on a fresh set bound to f.
func newFlagSet(f *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("readsnap", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.StringVarP(&f.format, "format", "f", "", "output format: "+strings.Join(config.Formats(), ", ")+" (default: markdown)")
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: stdout for a single input)")
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory overriding the embedded styles and templates")
	fs.BoolVar(&f.wrapper, "wrapper", false, "search frames and shadow roots for the content (html, json, pdf)")
	fs.BoolVar(&f.noStripUI, "no-strip-ui", false, "keep toolbars, panels and hidden elements")
	fs.BoolVar(&f.noFixPrint, "no-fix-print", false, "keep print countermeasures in collected styles")
	fs.BoolVar(&f.noImages, "no-images", false, "leave images as remote references")
	fs.BoolVar(&f.noReady, "no-ready", false, "skip scrolling for lazy content")
	fs.DurationVar(&f.stepDelay, "step-delay", 0, "pause per scroll step (default: from config, 150ms)")
	fs.BoolVar(&f.preview, "preview", false, "also write an HTML preview of the Markdown (needs --output)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "limit per input, readiness included (default: 2m)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (default: auto)")
	fs.BoolVar(&f.dumpConfig, "dump-config", false, "print the effective configuration as YAML and exit")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.BoolVarP(&f.help, "help", "h", false, "show this help")
	return fs
}

// parseFlags parses args (without the program name) and returns the flags
// and the positional inputs.
func parseFlags(args []string) (*cliFlags, []string, error) {
	f := &cliFlags{}
	fs := newFlagSet(f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if err := f.validate(); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

func (f *cliFlags) validate() error {
	if f.format != "" {
		f.format = strings.ToLower(f.format)
		if !slices.Contains(config.Formats(), f.format) {
			return fmt.Errorf("%w: --format %q (must be one of %s)", ErrUsage, f.format, strings.Join(config.Formats(), ", "))
		}
	}
	if f.verbose && f.quiet {
		return fmt.Errorf("%w: --verbose and --quiet are mutually exclusive", ErrUsage)
	}
	if f.workers < 0 {
		return fmt.Errorf("%w: --workers must be positive", ErrUsage)
	}
	if f.timeout < 0 || f.stepDelay < 0 {
		return fmt.Errorf("%w: durations must be positive", ErrUsage)
	}
	return nil
}
