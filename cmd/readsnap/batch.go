package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-readsnap"
	"github.com/alnah/go-readsnap/internal/config"
	"github.com/alnah/go-readsnap/internal/fileutil"
	"github.com/alnah/go-readsnap/internal/hints"
)

// extensions maps output formats to file extensions.
var extensions = map[string]string{
	config.FormatMarkdown: "md",
	config.FormatHTML:     "html",
	config.FormatJSON:     "json",
	config.FormatPDF:      "pdf",
}

// Result holds the outcome of one input.
type Result struct {
	Input       string
	OutputPath  string // empty when written to stdout
	PreviewPath string
	// Warning is a non-fatal problem, such as images left remote.
	Warning  error
	Err      error
	Duration time.Duration
}

// output is what one extraction produced before it is written.
type output struct {
	title   string
	data    []byte
	preview []byte
	warning error
}

// Pool abstracts extractor pool operations for testability.
type Pool interface {
	Acquire() (*readsnap.Extractor, error)
	Release(*readsnap.Extractor)
	Size() int
}

// Compile-time check that ExtractorPool implements Pool.
var _ Pool = (*readsnap.ExtractorPool)(nil)

// runBatch processes inputs concurrently using the extractor pool. Results
// keep the input order. A worker whose extractor cannot be built leaves its
// jobs to the others; inputs no worker reached fail with that error.
func runBatch(ctx context.Context, pool Pool, inputs []string, p *params, env *Environment) []Result {
	if len(inputs) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(inputs))
	results := make([]Result, len(inputs))
	namer := fileutil.NewNamer()
	jobs := make(chan int, len(inputs))
	done := make([]bool, len(inputs))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var acquireErr error

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ext, err := pool.Acquire()
			if err != nil {
				if errors.Is(err, readsnap.ErrPoolClosed) {
					for idx := range jobs {
						results[idx] = Result{Input: inputs[idx], Err: err}
						done[idx] = true
					}
					return
				}
				mu.Lock()
				acquireErr = err
				mu.Unlock()
				return
			}
			defer pool.Release(ext)

			for idx := range jobs {
				done[idx] = true
				if err := ctx.Err(); err != nil {
					results[idx] = Result{Input: inputs[idx], Err: err}
					continue
				}
				results[idx] = processInput(ctx, ext, inputs[idx], p, namer, env)
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	for i := range inputs {
		if !done[i] {
			results[i] = Result{Input: inputs[i], Err: acquireErr}
		}
	}
	return results
}

// processInput extracts one input and writes its output.
func processInput(ctx context.Context, ext *readsnap.Extractor, input string, p *params, namer *fileutil.Namer, env *Environment) (res Result) {
	start := env.Now()
	res.Input = input
	defer func() { res.Duration = env.Now().Sub(start) }()

	out, err := extract(ctx, ext, input, p)
	res.Warning = out.warning
	if err != nil && out.data == nil {
		res.Err = err
		return res
	}

	if p.outputDir == "" {
		if _, werr := env.Stdout.Write(out.data); werr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrWriteOutput, werr)
		}
		res.Err = err
		return res
	}

	name := namer.Name(out.title, fallbackName(input), extensions[p.format])
	path, werr := fileutil.WriteFile(p.outputDir, name, out.data)
	if werr != nil {
		res.Err = fmt.Errorf("%w: %v", ErrWriteOutput, werr)
		return res
	}
	res.OutputPath = path

	if out.preview != nil {
		previewName := strings.TrimSuffix(name, "."+extensions[p.format]) + ".html"
		if res.PreviewPath, werr = fileutil.WriteFile(p.outputDir, previewName, out.preview); werr != nil {
			res.Err = fmt.Errorf("%w: %v", ErrWriteOutput, werr)
			return res
		}
	}
	res.Err = err
	return res
}

// extract opens input and renders it in the requested format. A JSON
// extraction failure still produces output: the error envelope.
func extract(ctx context.Context, ext *readsnap.Extractor, input string, p *params) (output, error) {
	sc, release, err := openScope(ctx, ext, input)
	if err != nil {
		return jsonFailure(p, err)
	}
	defer release()

	if p.format == config.FormatMarkdown {
		return markdownOutput(ctx, ext, sc, p)
	}

	extractContent := ext.ExtractContent
	if p.wrapper {
		extractContent = ext.ExtractContentFromWrapper
	}
	doc, err := extractContent(ctx, sc, p.options)
	if err != nil {
		return jsonFailure(p, err)
	}

	switch p.format {
	case config.FormatHTML:
		snap, err := ext.Snapshot(doc)
		return output{title: doc.Title, data: []byte(snap)}, err
	case config.FormatJSON:
		data, err := json.MarshalIndent(readsnap.NewResponse(doc, nil), "", "  ")
		return output{title: doc.Title, data: append(data, '\n')}, err
	default:
		pdf, err := ext.PrintPDF(ctx, doc)
		if err != nil {
			return output{}, err
		}
		return output{title: doc.Title, data: pdf}, nil
	}
}

func markdownOutput(ctx context.Context, ext *readsnap.Extractor, sc readsnap.Scope, p *params) (output, error) {
	doc, err := ext.ExtractMarkdown(ctx, sc, p.options)
	if err != nil {
		return output{}, err
	}
	out := output{title: doc.Title, data: []byte(doc.Text + "\n"), warning: doc.Err()}
	if p.preview {
		page, err := ext.Preview(ctx, doc)
		if err != nil {
			return output{}, err
		}
		out.preview = []byte(page)
	}
	return out, nil
}

// jsonFailure returns err, with the error envelope as output in JSON mode.
func jsonFailure(p *params, err error) (output, error) {
	if p.format != config.FormatJSON {
		return output{}, err
	}
	data, merr := json.MarshalIndent(readsnap.NewResponse(nil, err), "", "  ")
	if merr != nil {
		return output{}, err
	}
	return output{data: append(data, '\n')}, err
}

// openScope loads a URL in the browser or parses a saved file. release
// closes the browser tab.
func openScope(ctx context.Context, ext *readsnap.Extractor, input string) (readsnap.Scope, func(), error) {
	if fileutil.IsURL(input) {
		page, err := ext.Open(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return page, func() { _ = page.Close() }, nil
	}
	sc, err := ext.LoadFile(input)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return sc, func() {}, nil
}

// fallbackName names outputs of untitled documents after their input.
func fallbackName(input string) string {
	if fileutil.IsURL(input) {
		return input
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// printResults reports every result and returns the exit code of the first
// failure in input order.
func printResults(results []Result, p *params, quiet bool, env *Environment, log zerolog.Logger) int {
	code := ExitSuccess
	failed := 0
	wrapper := p.wrapper || p.format == config.FormatMarkdown

	for _, r := range results {
		if r.Warning != nil {
			log.Warn().Str("stage", "cli").Str("input", r.Input).Err(r.Warning).Msg("partial result" + hints.ForPartialImages())
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v%s\n", r.Input, r.Err, hintFor(r.Err, wrapper))
			if code == ExitSuccess {
				code = exitCodeFor(r.Err)
			}
			continue
		}
		log.Debug().Str("stage", "cli").Str("input", r.Input).Dur("took", r.Duration).Msg("done")
		if quiet || r.OutputPath == "" {
			continue
		}
		fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		if r.PreviewPath != "" {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.PreviewPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return code
}
