// Package fileutil provides temp files, input classification and output
// naming for the CLI and PDF printing.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Sentinel errors for file utility operations.
var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// WriteTempFile creates a temporary file with the given content and extension.
// Returns the file path and a cleanup function to remove the file.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}

	tmpFile, err := os.CreateTemp("", "readsnap-*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}

	path = tmpFile.Name()
	cleanup = func() { _ = os.Remove(path) }

	if _, writeErr := tmpFile.WriteString(content); writeErr != nil {
		_ = tmpFile.Close()
		cleanup()
		return "", nil, fmt.Errorf("writing temp file: %w", writeErr)
	}

	if closeErr := tmpFile.Close(); closeErr != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp file: %w", closeErr)
	}

	return path, cleanup, nil
}

// ValidateExtension checks that the extension is safe for use in file names.
func ValidateExtension(extension string) error {
	if extension == "" {
		return ErrExtensionEmpty
	}
	if strings.ContainsAny(extension, "/\\\x00") {
		return ErrExtensionPathTraversal
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// WriteFile writes data to dir/name, creating dir when needed.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- output documents are meant to be shared
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// maxSlugLength keeps generated names well under file system limits.
const maxSlugLength = 80

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a document title into a file name stem: accents folded,
// lower-case ASCII words joined by dashes. It returns "" when nothing
// usable is left.
func Slug(title string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(folded), "-"), "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}

// Namer hands out distinct output file names. It is safe for concurrent
// use.
type Namer struct {
	mu   sync.Mutex
	used map[string]bool
}

// NewNamer returns an empty Namer.
func NewNamer() *Namer {
	return &Namer{used: make(map[string]bool)}
}

// Name returns "<slug>.<ext>" for title, falling back to fallback when the
// title has no usable characters. Repeated stems get -2, -3 and so on.
func (n *Namer) Name(title, fallback, ext string) string {
	stem := Slug(title)
	if stem == "" {
		stem = Slug(fallback)
	}
	if stem == "" {
		stem = "document"
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	candidate := stem
	for i := 2; n.used[candidate]; i++ {
		candidate = stem + "-" + strconv.Itoa(i)
	}
	n.used[candidate] = true
	return candidate + "." + ext
}
