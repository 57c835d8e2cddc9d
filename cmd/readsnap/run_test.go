package main

// Notes:
// - runMain: end-to-end runs over saved pages, so no browser is needed.
//   Every run passes --no-images and --no-ready to stay offline; the PDF
//   format and URL inputs need Chrome and are covered by the root
//   integration tests.
// - Output is captured through an injected Environment; stdout and stderr
//   buffers are locked because workers log concurrently.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	*Environment
	stdout *lockedBuffer
	stderr *lockedBuffer
}

func newTestEnv(vars map[string]string) *testEnv {
	stdout, stderr := &lockedBuffer{}, &lockedBuffer{}
	environ := make([]string, 0, len(vars))
	for k, v := range vars {
		environ = append(environ, k+"="+v)
	}
	return &testEnv{
		Environment: &Environment{
			Now:     time.Now,
			Stdout:  stdout,
			Stderr:  stderr,
			Getenv:  func(k string) string { return vars[k] },
			Environ: func() []string { return environ },
		},
		stdout: stdout,
		stderr: stderr,
	}
}

func chapterPage(title string) string {
	return `<html><head><title>` + title + `</title>
<style>p { margin: 0 }</style>
</head><body>
<nav class="toolbar">Menu</nav>
<div id="book-content">
<h1>Limits</h1>
<p>` + strings.Repeat("lorem ", 250) + `</p>
<p>Ratio <math><mfrac><mi>a</mi><mi>b</mi></mfrac></math> here.</p>
<img src="fig.png" alt="Figure">
</div></body></html>`
}

func writePage(t *testing.T, dir, name, markup string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(markup), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

var offline = []string{"--no-images", "--no-ready"}

func args(extra ...string) []string {
	return append(append([]string{}, offline...), extra...)
}

// ---------------------------------------------------------------------------
// TestRunMain_Info - Help, version and configuration dump
// ---------------------------------------------------------------------------

func TestRunMain_Info(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"help", []string{"--help"}, []string{"Usage: readsnap", "--wrapper"}},
		{"version", []string{"--version"}, []string{"readsnap " + Version}},
		{"dump config", []string{"--dump-config", "-f", "html"}, []string{"format: html", "stepPixels:", "contentMarker:"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(nil)
			if code := runMain(tt.args, env.Environment); code != ExitSuccess {
				t.Fatalf("runMain() = %d, want %d; stderr: %s", code, ExitSuccess, env.stderr)
			}
			for _, s := range tt.want {
				if !strings.Contains(env.stdout.String(), s) {
					t.Errorf("stdout missing %q:\n%s", s, env.stdout)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Usage - Invalid invocations
// ---------------------------------------------------------------------------

func TestRunMain_Usage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	page := writePage(t, dir, "page.html", chapterPage("Chapter"))

	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr string
	}{
		{"unknown flag", []string{"--bogus"}, ExitUsage, "invalid usage"},
		{"no input", args(), ExitUsage, "no input"},
		{"several inputs to stdout", args(page, page), ExitUsage, "--output is required"},
		{"preview without output", args("--preview", page), ExitUsage, "--preview"},
		{"preview with json", args("--preview", "-f", "json", "-o", dir, page), ExitUsage, "--preview"},
		{"missing config", args("-c", filepath.Join(dir, "none.yaml"), page), ExitUsage, "config file not found"},
		{"missing asset dir", args("--asset-path", filepath.Join(dir, "none"), page), ExitUsage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(nil)
			if code := runMain(tt.args, env.Environment); code != tt.want {
				t.Fatalf("runMain() = %d, want %d; stderr: %s", code, tt.want, env.stderr)
			}
			if !strings.Contains(env.stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, want %q", env.stderr, tt.wantErr)
			}
			if env.stdout.String() != "" && !strings.HasPrefix(env.stdout.String(), "Usage") {
				t.Errorf("stdout = %q, want nothing written", env.stdout)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Markdown - Default format
// ---------------------------------------------------------------------------

func TestRunMain_Markdown(t *testing.T) {
	t.Parallel()

	t.Run("stdout", func(t *testing.T) {
		t.Parallel()
		page := writePage(t, t.TempDir(), "page.html", chapterPage("Chapter 3"))
		env := newTestEnv(nil)

		if code := runMain(args(page), env.Environment); code != ExitSuccess {
			t.Fatalf("runMain() = %d; stderr: %s", code, env.stderr)
		}
		out := env.stdout.String()
		for _, s := range []string{"# Limits", `\frac{a}{b}`, "![Figure](file://"} {
			if !strings.Contains(out, s) {
				t.Errorf("markdown missing %q:\n%s", s, out)
			}
		}
		if strings.Contains(out, "Menu") {
			t.Errorf("markdown contains reader chrome:\n%s", out)
		}
	})

	t.Run("output directory with preview", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		page := writePage(t, dir, "page.html", chapterPage("Chapter 3"))
		out := filepath.Join(dir, "out")
		env := newTestEnv(nil)

		if code := runMain(args("-o", out, "--preview", page), env.Environment); code != ExitSuccess {
			t.Fatalf("runMain() = %d; stderr: %s", code, env.stderr)
		}
		md, err := os.ReadFile(filepath.Join(out, "chapter-3.md"))
		if err != nil {
			t.Fatalf("reading markdown: %v", err)
		}
		if !strings.Contains(string(md), "# Limits") {
			t.Errorf("markdown = %q, want heading", md)
		}
		preview, err := os.ReadFile(filepath.Join(out, "chapter-3.html"))
		if err != nil {
			t.Fatalf("reading preview: %v", err)
		}
		if !strings.Contains(string(preview), "Limits") {
			t.Errorf("preview missing content")
		}
		if !strings.Contains(env.stdout.String(), "Created "+filepath.Join(out, "chapter-3.md")) {
			t.Errorf("stdout = %q, want Created line", env.stdout)
		}
	})

	t.Run("quiet", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		page := writePage(t, dir, "page.html", chapterPage("Chapter 3"))
		env := newTestEnv(nil)

		if code := runMain(args("-q", "-o", filepath.Join(dir, "out"), page), env.Environment); code != ExitSuccess {
			t.Fatalf("runMain() = %d; stderr: %s", code, env.stderr)
		}
		if env.stdout.String() != "" {
			t.Errorf("stdout = %q, want nothing with --quiet", env.stdout)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunMain_Batch - Several inputs
// ---------------------------------------------------------------------------

func TestRunMain_Batch(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	first := writePage(t, dir, "one.html", chapterPage("Same Title"))
	second := writePage(t, dir, "two.html", chapterPage("Same Title"))
	empty := writePage(t, dir, "empty.html", `<html><body><p>short</p></body></html>`)
	out := filepath.Join(dir, "out")
	env := newTestEnv(nil)

	code := runMain(args("-w", "2", "-o", out, first, empty, second), env.Environment)
	if code != ExitNoContent {
		t.Fatalf("runMain() = %d, want %d; stderr: %s", code, ExitNoContent, env.stderr)
	}

	for _, name := range []string{"same-title.md", "same-title-2.md"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("output %s: %v", name, err)
		}
	}
	if !strings.Contains(env.stderr.String(), "FAILED "+empty) {
		t.Errorf("stderr = %q, want FAILED line for %s", env.stderr, empty)
	}
	if !strings.Contains(env.stdout.String(), "2 succeeded, 1 failed") {
		t.Errorf("stdout = %q, want summary", env.stdout)
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_Formats - HTML and JSON
// ---------------------------------------------------------------------------

func TestRunMain_Formats(t *testing.T) {
	t.Parallel()

	t.Run("html", func(t *testing.T) {
		t.Parallel()
		page := writePage(t, t.TempDir(), "page.html", chapterPage("Chapter 3"))
		env := newTestEnv(nil)

		if code := runMain(args("-f", "html", page), env.Environment); code != ExitSuccess {
			t.Fatalf("runMain() = %d; stderr: %s", code, env.stderr)
		}
		out := env.stdout.String()
		for _, s := range []string{"<title>Chapter 3</title>", "Limits", "margin: 0"} {
			if !strings.Contains(out, s) {
				t.Errorf("snapshot missing %q", s)
			}
		}
		if strings.Contains(out, "Menu") {
			t.Errorf("snapshot contains reader chrome")
		}
	})

	t.Run("html keeping ui", func(t *testing.T) {
		t.Parallel()
		page := writePage(t, t.TempDir(), "page.html", chapterPage("Chapter 3"))
		env := newTestEnv(nil)

		if code := runMain(args("-f", "html", "--no-strip-ui", page), env.Environment); code != ExitSuccess {
			t.Fatalf("runMain() = %d; stderr: %s", code, env.stderr)
		}
		if !strings.Contains(env.stdout.String(), "Menu") {
			t.Errorf("snapshot dropped reader chrome despite --no-strip-ui")
		}
	})

	t.Run("json from environment", func(t *testing.T) {
		t.Parallel()
		page := writePage(t, t.TempDir(), "page.html", chapterPage("Chapter 3"))
		env := newTestEnv(map[string]string{"READSNAP_FORMAT": "json"})

		if code := runMain(args(page), env.Environment); code != ExitSuccess {
			t.Fatalf("runMain() = %d; stderr: %s", code, env.stderr)
		}
		var got struct {
			BodyMarkup string `json:"bodyMarkup"`
			Title      string `json:"title"`
			BaseURI    string `json:"baseURI"`
			Styles     []struct {
				Kind string `json:"kind"`
			} `json:"styles"`
		}
		if err := json.Unmarshal([]byte(env.stdout.String()), &got); err != nil {
			t.Fatalf("decoding %q: %v", env.stdout, err)
		}
		if got.Title != "Chapter 3" || !strings.HasPrefix(got.BaseURI, "file://") {
			t.Errorf("title, baseURI = %q, %q", got.Title, got.BaseURI)
		}
		if !strings.Contains(got.BodyMarkup, "Limits") || len(got.Styles) != 1 {
			t.Errorf("body has Limits = %v, styles = %d, want true, 1", strings.Contains(got.BodyMarkup, "Limits"), len(got.Styles))
		}
	})

	t.Run("json failure envelope", func(t *testing.T) {
		t.Parallel()
		page := writePage(t, t.TempDir(), "shell.html", `<html><body><p>short</p></body></html>`)
		env := newTestEnv(nil)

		if code := runMain(args("-f", "json", "--wrapper", page), env.Environment); code != ExitNoContent {
			t.Fatalf("runMain() = %d, want %d; stderr: %s", code, ExitNoContent, env.stderr)
		}
		var got struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if err := json.Unmarshal([]byte(env.stdout.String()), &got); err != nil {
			t.Fatalf("decoding %q: %v", env.stdout, err)
		}
		if got.Code != "no_content" || got.Error == "" {
			t.Errorf("envelope = %+v, want no_content", got)
		}
	})

	t.Run("format from config file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		page := writePage(t, dir, "page.html", chapterPage("Chapter 3"))
		cfgPath := writePage(t, dir, "readsnap.yaml", "output:\n  format: html\n")
		env := newTestEnv(nil)

		if code := runMain(args("-c", cfgPath, page), env.Environment); code != ExitSuccess {
			t.Fatalf("runMain() = %d; stderr: %s", code, env.stderr)
		}
		if !strings.Contains(env.stdout.String(), "<title>Chapter 3</title>") {
			t.Errorf("stdout is not an HTML snapshot:\n%s", env.stdout)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunMain_Failures - Per-input errors
// ---------------------------------------------------------------------------

func TestRunMain_Failures(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	shell := writePage(t, dir, "shell.html", `<html><body><p>short</p></body></html>`)

	tests := []struct {
		name     string
		args     []string
		want     int
		wantHint string
	}{
		{"missing file", args(filepath.Join(dir, "absent.html")), ExitIO, "failed to read input"},
		{"no content", args(shell), ExitNoContent, "FAILED " + shell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(nil)
			if code := runMain(tt.args, env.Environment); code != tt.want {
				t.Fatalf("runMain() = %d, want %d; stderr: %s", code, tt.want, env.stderr)
			}
			if !strings.Contains(env.stderr.String(), tt.wantHint) {
				t.Errorf("stderr = %q, want %q", env.stderr, tt.wantHint)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRunMain_UnknownEnvVar - Typo warnings reach stderr
// ---------------------------------------------------------------------------

func TestRunMain_UnknownEnvVar(t *testing.T) {
	t.Parallel()
	env := newTestEnv(map[string]string{"READSNAP_WORKER": "2"})

	if code := runMain([]string{"--dump-config"}, env.Environment); code != ExitSuccess {
		t.Fatalf("runMain() = %d; stderr: %s", code, env.stderr)
	}
	if !strings.Contains(env.stderr.String(), "READSNAP_WORKER") {
		t.Errorf("stderr = %q, want warning for READSNAP_WORKER", env.stderr)
	}
}
