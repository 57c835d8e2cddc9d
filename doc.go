// Package readsnap extracts the rendered content of a web reading app into
// a sanitized HTML snapshot for printing, or into Markdown with LaTeX math
// and inlined images.
//
// # Quick Start
//
// Open a page, wait for lazy content, and convert it:
//
//	ext, err := readsnap.NewExtractor()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ext.Close()
//
//	page, err := ext.Open(ctx, "https://reader.example/book/42")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer page.Close()
//
//	doc, err := ext.ExtractMarkdown(ctx, page, readsnap.Options{
//	    StripUI: true,
//	    Ready:   true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(doc.Text)
//
// # Pipeline
//
//  1. Readiness: scroll in steps until lazy placeholders are gone, then wait
//     for math typesetting and images (bounded, never fatal)
//  2. Location: find the content scope across shadow roots and frames
//  3. Styles: collect stylesheets in document order, optionally removing
//     print countermeasures
//  4. Sanitization: clean a copy of the scope (scripts, UI chrome, hidden
//     elements, print-warning banner, relative URLs)
//  5. Markdown: render the tree, math as LaTeX, then inline remote images
//
// ExtractContent and ExtractContentFromWrapper stop after step 4 and return
// an ExtractionResult; Snapshot turns it into a standalone HTML document and
// PrintPDF prints that with Chrome.
//
// # Offline Scopes
//
// Saved pages work without a browser. Declarative shadow roots and srcdoc
// or same-directory frames are entered like live ones:
//
//	sc, err := ext.LoadFile("chapter.html")
//	res, err := ext.ExtractContentFromWrapper(ctx, sc, readsnap.Options{StripUI: true})
//
// # Configuration
//
// Host selectors, timings and image fetching come from a YAML file:
//
//	cfg, err := readsnap.LoadConfig("reader")
//	ext, err := readsnap.NewExtractor(
//	    readsnap.WithConfig(cfg),
//	    readsnap.WithLogger(logger),
//	    readsnap.WithTimeout(3*time.Minute),
//	)
//
// # Parallel Processing
//
// For batch work, ExtractorPool hands out Extractors with their own browser:
//
//	pool := readsnap.NewExtractorPool(readsnap.ResolvePoolSize(0))
//	defer pool.Close()
//
//	ext, err := pool.Acquire()
//	defer pool.Release(ext)
//
// # Browser Requirements
//
// Live pages and PDF printing require Chrome/Chromium. The go-rod library
// downloads a managed Chromium on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package readsnap
