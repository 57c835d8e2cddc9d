// Package inline replaces remote image references in Markdown with
// embedded data URIs.
package inline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// ErrPartialAssetFailure reports that some images kept their remote URL.
var ErrPartialAssetFailure = errors.New("some images could not be inlined")

// Defaults.
const (
	DefaultConcurrency = 6
	DefaultTimeout     = 15 * time.Second
	DefaultMaxBytes    = 10 << 20
	DefaultUserAgent   = "Mozilla/5.0 (compatible; readsnap/1.0)"
)

// Options configures an Inliner. Zero fields take the defaults.
type Options struct {
	Concurrency int
	// Timeout bounds each retrieval.
	Timeout time.Duration
	// MaxBytes caps the size of one image.
	MaxBytes int64
	// RequestsPerSecond paces retrievals. Zero means no pacing.
	RequestsPerSecond float64
	UserAgent         string
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	return o
}

// Report summarizes one Inline call.
type Report struct {
	// Total is the number of distinct remote URLs referenced.
	Total int
	// Embedded lists the URLs replaced by a payload, in first-seen order.
	Embedded []string
	// Failed lists the URLs left as written, in first-seen order.
	Failed []string
}

// Err returns ErrPartialAssetFailure when any image failed, nil otherwise.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d", ErrPartialAssetFailure, len(r.Failed), r.Total)
}

// Inliner fetches and embeds images.
type Inliner struct {
	client *http.Client
	opts   Options
	log    zerolog.Logger
}

// New returns an Inliner. A nil client uses http.DefaultClient.
func New(client *http.Client, opts Options, log zerolog.Logger) *Inliner {
	if client == nil {
		client = http.DefaultClient
	}
	return &Inliner{client: client, opts: opts.withDefaults(), log: log}
}

// imageRef matches ![alt](http...) with an escaped alt text.
var imageRef = regexp.MustCompile(`!\[((?:[^\]\\]|\\.)*)\]\((https?://[^\s)]+)\)`)

// URLs returns the distinct remote image URLs of markdown in first-seen
// order.
func URLs(markdown string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range imageRef.FindAllStringSubmatch(markdown, -1) {
		if u := m[2]; !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// Inline fetches every distinct remote image concurrently, then rewrites
// markdown in a single pass. References whose retrieval failed are left
// exactly as written. The text is always returned; failures are listed in
// the report.
func (in *Inliner) Inline(ctx context.Context, markdown string) (string, Report) {
	urls := URLs(markdown)
	report := Report{Total: len(urls)}
	if len(urls) == 0 {
		return markdown, report
	}

	var limiter *rate.Limiter
	if in.opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(in.opts.RequestsPerSecond), 1)
	}

	payloads := make([]string, len(urls))
	var g errgroup.Group
	g.SetLimit(in.opts.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					in.log.Debug().Str("stage", "inline").Str("url", u).Err(err).Msg("pacing aborted")
					return nil
				}
			}
			data, err := in.fetch(ctx, u)
			if err != nil {
				in.log.Debug().Str("stage", "inline").Str("url", u).Err(err).Msg("image kept remote")
				return nil
			}
			payloads[i] = data
			return nil
		})
	}
	_ = g.Wait()

	resolved := make(map[string]string, len(urls))
	for i, u := range urls {
		if payloads[i] == "" {
			report.Failed = append(report.Failed, u)
			continue
		}
		resolved[u] = payloads[i]
		report.Embedded = append(report.Embedded, u)
	}

	out := imageRef.ReplaceAllStringFunc(markdown, func(ref string) string {
		m := imageRef.FindStringSubmatch(ref)
		data, ok := resolved[m[2]]
		if !ok {
			return ref
		}
		return "![" + m[1] + "](" + data + ")"
	})
	return out, report
}

// fetch retrieves one image and encodes it as a data URI.
func (in *Inliner) fetch(ctx context.Context, u string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, in.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", in.opts.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := in.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.StatusCode == http.StatusNoContent {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, in.opts.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > in.opts.MaxBytes {
		return "", fmt.Errorf("image exceeds %d bytes", in.opts.MaxBytes)
	}
	if len(body) == 0 {
		return "", errors.New("empty body")
	}

	mediaType := contentType(resp.Header.Get("Content-Type"), body)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("not an image: %s", mediaType)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

// contentType prefers the declared media type and sniffs when it is absent
// or generic.
func contentType(header string, body []byte) string {
	if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
		return mt
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(body))
	return mt
}
