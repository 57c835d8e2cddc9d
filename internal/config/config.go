// Package config loads readsnap configuration files.
//
// A configuration tunes extraction to the host application's markup
// (selectors, warning phrase), the readiness timings, image inlining and
// the browser. Every field is optional: zero values fall through to the
// defaults of the component that consumes them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-readsnap/internal/scope"
	"github.com/alnah/go-readsnap/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxSelectorLength  = 1024
	MaxPhraseLength    = 500
	MaxURLLength       = 2048 // Browser limit
	MaxUserAgentLength = 512
	MaxPathLength      = 4096
)

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatPDF      = "pdf"
)

// Formats lists the accepted output formats.
func Formats() []string {
	return []string{FormatMarkdown, FormatHTML, FormatJSON, FormatPDF}
}

// Config holds all configuration for extraction.
type Config struct {
	Host      HostConfig      `yaml:"host"`
	Locate    LocateConfig    `yaml:"locate"`
	Readiness ReadinessConfig `yaml:"readiness"`
	Images    ImagesConfig    `yaml:"images"`
	Browser   BrowserConfig   `yaml:"browser"`
	Output    OutputConfig    `yaml:"output"`
	Assets    AssetsConfig    `yaml:"assets"`
}

// HostConfig describes the reading application's markup.
type HostConfig struct {
	ShadowHost          string   `yaml:"shadowHost"`          // Element owning the encapsulated reader
	ContentFrame        string   `yaml:"contentFrame"`        // Marked frame inside the shadow root
	ContentMarker       string   `yaml:"contentMarker"`       // Required by the body strategy
	ExtraUISelectors    []string `yaml:"extraUISelectors"`    // Appended to the built-in chrome set
	WarningPhrase       string   `yaml:"warningPhrase"`       // Print-warning banner text
	BannerSlack         int      `yaml:"bannerSlack"`         // Extra characters a removed ancestor may hold
	MathSelector        string   `yaml:"mathSelector"`        // Math containers
	LazyAttrs           []string `yaml:"lazyAttrs"`           // Lazy image source attributes, in order
	PlaceholderSelector string   `yaml:"placeholderSelector"` // Unrendered lazy content
	DetectLanguage      *bool    `yaml:"detectLanguage"`      // Guess unlabeled code fences (default: true)
}

// LocateConfig tunes the content search.
type LocateConfig struct {
	FrameTextMin int `yaml:"frameTextMin"` // default: 500
	BodyTextMin  int `yaml:"bodyTextMin"`  // default: 1000
	MaxDepth     int `yaml:"maxDepth"`     // default: 4
}

// ReadinessConfig tunes the scroll-and-poll sequence. Durations use
// time.ParseDuration syntax ("150ms", "10s").
type ReadinessConfig struct {
	StepPixels     int    `yaml:"stepPixels"`
	StepDelay      string `yaml:"stepDelay"`
	FinalPause     string `yaml:"finalPause"`
	PollInterval   string `yaml:"pollInterval"`
	PollCeiling    string `yaml:"pollCeiling"`
	TopPause       string `yaml:"topPause"`
	TypesetTimeout string `yaml:"typesetTimeout"`
	ImageTimeout   string `yaml:"imageTimeout"`
	SettleDelay    string `yaml:"settleDelay"`
}

// ImagesConfig tunes image inlining.
type ImagesConfig struct {
	Inline            bool    `yaml:"inline"`
	Concurrency       int     `yaml:"concurrency"`
	Timeout           string  `yaml:"timeout"` // Per request
	MaxBytes          int64   `yaml:"maxBytes"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"` // 0 = unlimited
	UserAgent         string  `yaml:"userAgent"`
}

// BrowserConfig selects and configures Chrome.
type BrowserConfig struct {
	Bin               string `yaml:"bin"`       // Empty = ROD_BROWSER_BIN or rod's download
	RemoteURL         string `yaml:"remoteURL"` // DevTools websocket of a running browser
	NoSandbox         bool   `yaml:"noSandbox"`
	Stealth           bool   `yaml:"stealth"`
	NavigationTimeout string `yaml:"navigationTimeout"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Empty = stdout for a single input
	Format     string `yaml:"format"`     // markdown, html, json, pdf
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// Validate rejects malformed or out-of-range fields. Called
// automatically by LoadConfig, but available for library users who build
// a Config in code.
func (c *Config) Validate() error {
	selectors := []struct{ field, value string }{
		{"host.shadowHost", c.Host.ShadowHost},
		{"host.contentFrame", c.Host.ContentFrame},
		{"host.contentMarker", c.Host.ContentMarker},
		{"host.mathSelector", c.Host.MathSelector},
		{"host.placeholderSelector", c.Host.PlaceholderSelector},
	}
	for i, sel := range c.Host.ExtraUISelectors {
		selectors = append(selectors, struct{ field, value string }{fmt.Sprintf("host.extraUISelectors[%d]", i), sel})
	}
	for _, s := range selectors {
		if err := validateSelector(s.field, s.value); err != nil {
			return err
		}
	}
	if err := validateFieldLength("host.warningPhrase", c.Host.WarningPhrase, MaxPhraseLength); err != nil {
		return err
	}
	for i, attr := range c.Host.LazyAttrs {
		if strings.TrimSpace(attr) == "" {
			return fmt.Errorf("%w: host.lazyAttrs[%d]: empty attribute name", ErrInvalidValue, i)
		}
	}

	ints := []struct {
		field string
		value int
	}{
		{"host.bannerSlack", c.Host.BannerSlack},
		{"locate.frameTextMin", c.Locate.FrameTextMin},
		{"locate.bodyTextMin", c.Locate.BodyTextMin},
		{"locate.maxDepth", c.Locate.MaxDepth},
		{"readiness.stepPixels", c.Readiness.StepPixels},
		{"images.concurrency", c.Images.Concurrency},
	}
	for _, n := range ints {
		if n.value < 0 {
			return fmt.Errorf("%w: %s: must not be negative, got %d", ErrInvalidValue, n.field, n.value)
		}
	}
	if c.Images.MaxBytes < 0 {
		return fmt.Errorf("%w: images.maxBytes: must not be negative, got %d", ErrInvalidValue, c.Images.MaxBytes)
	}
	if c.Images.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: images.requestsPerSecond: must not be negative, got %.2f", ErrInvalidValue, c.Images.RequestsPerSecond)
	}
	if err := validateFieldLength("images.userAgent", c.Images.UserAgent, MaxUserAgentLength); err != nil {
		return err
	}

	durations := []struct{ field, value string }{
		{"readiness.stepDelay", c.Readiness.StepDelay},
		{"readiness.finalPause", c.Readiness.FinalPause},
		{"readiness.pollInterval", c.Readiness.PollInterval},
		{"readiness.pollCeiling", c.Readiness.PollCeiling},
		{"readiness.topPause", c.Readiness.TopPause},
		{"readiness.typesetTimeout", c.Readiness.TypesetTimeout},
		{"readiness.imageTimeout", c.Readiness.ImageTimeout},
		{"readiness.settleDelay", c.Readiness.SettleDelay},
		{"images.timeout", c.Images.Timeout},
		{"browser.navigationTimeout", c.Browser.NavigationTimeout},
	}
	for _, d := range durations {
		if err := validateDuration(d.field, d.value); err != nil {
			return err
		}
	}

	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("browser.remoteURL", c.Browser.RemoteURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	if c.Output.Format != "" {
		switch strings.ToLower(c.Output.Format) {
		case FormatMarkdown, FormatHTML, FormatJSON, FormatPDF:
		default:
			return fmt.Errorf("%w: output.format: %q (must be one of %s)", ErrInvalidValue, c.Output.Format, strings.Join(Formats(), ", "))
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateSelector(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if err := validateFieldLength(fieldName, value, MaxSelectorLength); err != nil {
		return err
	}
	if err := scope.ValidateSelector(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, fieldName, err)
	}
	return nil
}

func validateDuration(fieldName, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidValue, fieldName, err)
	}
	if d < 0 {
		return fmt.Errorf("%w: %s: must not be negative, got %s", ErrInvalidValue, fieldName, value)
	}
	return nil
}

// Duration parses a validated duration field. Empty or unparsable values
// yield zero, which consumers read as "use the default".
func Duration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// DefaultConfig returns the configuration used without a config file:
// component defaults everywhere, image inlining and stealth on.
func DefaultConfig() *Config {
	return &Config{
		Images:  ImagesConfig{Inline: true},
		Browser: BrowserConfig{Stealth: true},
		Output:  OutputConfig{Format: FormatMarkdown},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, the user config directory
// ($XDG_CONFIG_HOME/go-readsnap/ on Linux).
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-readsnap", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
