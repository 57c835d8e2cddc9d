package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-readsnap"
	"github.com/alnah/go-readsnap/internal/config"
	"github.com/alnah/go-readsnap/internal/hints"
	"github.com/alnah/go-readsnap/internal/yamlutil"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrReadInput   = errors.New("failed to read input")
	ErrWriteOutput = errors.New("failed to write output")
)

// params groups what every input of a batch shares.
type params struct {
	format    string
	outputDir string
	wrapper   bool
	preview   bool
	options   readsnap.Options
	timeout   time.Duration
	workers   int
}

// run executes one CLI invocation and returns the exit code.
func run(ctx context.Context, f *cliFlags, inputs []string, env *Environment, log zerolog.Logger) int {
	if f.help {
		printUsage(env.Stdout)
		return ExitSuccess
	}
	if f.version {
		fmt.Fprintf(env.Stdout, "readsnap %s\n", Version)
		return ExitSuccess
	}

	ec := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Environ(), log)

	cfg, err := loadConfig(f, ec)
	if err != nil {
		return fail(env, err)
	}
	p, err := mergeFlags(f, ec, cfg)
	if err != nil {
		return fail(env, err)
	}

	if f.dumpConfig {
		data, err := yamlutil.Marshal(cfg)
		if err != nil {
			return fail(env, err)
		}
		_, _ = env.Stdout.Write(data)
		return ExitSuccess
	}

	if err := checkInputs(inputs, p); err != nil {
		return fail(env, err)
	}

	opts := []readsnap.Option{readsnap.WithConfig(cfg), readsnap.WithLogger(log)}
	if p.timeout > 0 {
		opts = append(opts, readsnap.WithTimeout(p.timeout))
	}
	size := readsnap.ResolvePoolSize(p.workers)
	if size > len(inputs) {
		size = len(inputs)
	}
	log.Debug().Str("stage", "cli").Int("workers", size).Int("inputs", len(inputs)).Str("format", p.format).Msg("starting")

	pool := readsnap.NewExtractorPool(size, opts...)
	defer func() {
		if err := pool.Close(); err != nil {
			log.Warn().Str("stage", "cli").Err(err).Msg("closing browsers")
		}
	}()

	results := runBatch(ctx, pool, inputs, p, env)
	return printResults(results, p, f.quiet, env, log)
}

// loadConfig loads the file named by --config or READSNAP_CONFIG, or the
// defaults when neither is set.
func loadConfig(f *cliFlags, ec *envConfig) (*config.Config, error) {
	name := f.config
	if name == "" {
		name = ec.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(name)
}

// mergeFlags applies CLI flags over environment variables over the config
// file, writes the result back into cfg and returns the batch parameters.
func mergeFlags(f *cliFlags, ec *envConfig, cfg *config.Config) (*params, error) {
	p := &params{
		format:    firstNonEmpty(f.format, ec.Format, strings.ToLower(cfg.Output.Format), config.FormatMarkdown),
		outputDir: firstNonEmpty(f.output, ec.OutputDir, cfg.Output.DefaultDir),
		wrapper:   f.wrapper,
		preview:   f.preview,
		timeout:   firstPositive(f.timeout, ec.Timeout),
		workers:   f.workers,
		options: readsnap.Options{
			StripUI:   !f.noStripUI,
			FixPrint:  !f.noFixPrint,
			Ready:     !f.noReady,
			StepDelay: firstPositive(f.stepDelay, ec.StepDelay),
		},
	}
	if p.workers == 0 {
		p.workers = ec.Workers
	}

	cfg.Output.Format = p.format
	cfg.Output.DefaultDir = p.outputDir
	if f.noImages {
		cfg.Images.Inline = false
	}
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// checkInputs rejects combinations that have nowhere to write.
func checkInputs(inputs []string, p *params) error {
	if len(inputs) == 0 {
		return ErrNoInput
	}
	if p.outputDir == "" && len(inputs) > 1 {
		return fmt.Errorf("%w: --output is required for %d inputs", ErrUsage, len(inputs))
	}
	if p.preview && (p.outputDir == "" || p.format != config.FormatMarkdown) {
		return fmt.Errorf("%w: --preview needs --output and the markdown format", ErrUsage)
	}
	return nil
}

// fail prints err with its hint and returns its exit code.
func fail(env *Environment, err error) int {
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, true))
	return exitCodeFor(err)
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, wrapper bool) string {
	switch {
	case errors.Is(err, readsnap.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, readsnap.ErrTimeoutExceeded):
		return hints.ForTimeout()
	case errors.Is(err, readsnap.ErrNoContentFound):
		return hints.ForNoContent(wrapper)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(triedPaths(err))
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}

// triedPaths recovers the searched locations from a config lookup error.
func triedPaths(err error) []string {
	_, list, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(list, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
