// Package locate finds the scope that holds the readable content of a
// reader page, across shadow hosts and nested frames.
package locate

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/alnah/go-readsnap/internal/scope"
)

// ErrNoContentFound is returned when no strategy yields a scope.
var ErrNoContentFound = errors.New("no content found")

// Strategy names the rule that selected a scope.
type Strategy string

const (
	StrategyShadowFrame Strategy = "shadow-frame"
	StrategyFrameText   Strategy = "frame-text"
	StrategyMarkedBody  Strategy = "marked-body"
)

// Default thresholds and selectors.
const (
	DefaultHostSelector  = "#reader-host, reader-frame"
	DefaultFrameSelector = `iframe[data-role="content"]`
	DefaultContentMarker = "#book-content, .book-content, article"
	DefaultFrameTextMin  = 500
	DefaultBodyTextMin   = 1000
	DefaultMaxDepth      = 4
)

// Options configures a Locator. Zero fields take the defaults.
type Options struct {
	HostSelector  string
	FrameSelector string
	ContentMarker string
	FrameTextMin  int
	BodyTextMin   int
	MaxDepth      int
}

func (o Options) withDefaults() Options {
	if o.HostSelector == "" {
		o.HostSelector = DefaultHostSelector
	}
	if o.FrameSelector == "" {
		o.FrameSelector = DefaultFrameSelector
	}
	if o.ContentMarker == "" {
		o.ContentMarker = DefaultContentMarker
	}
	if o.FrameTextMin <= 0 {
		o.FrameTextMin = DefaultFrameTextMin
	}
	if o.BodyTextMin <= 0 {
		o.BodyTextMin = DefaultBodyTextMin
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	return o
}

// Result is a located content scope.
type Result struct {
	Scope    scope.Scope
	Strategy Strategy
	Depth    int
}

// Locator runs the ordered search strategies.
type Locator struct {
	opts Options
	log  zerolog.Logger
}

// New returns a Locator.
func New(opts Options, log zerolog.Logger) *Locator {
	return &Locator{opts: opts.withDefaults(), log: log}
}

// Locate searches sc. The strategies, tried in order at every level, are:
//
//  1. enter the shadow root of the host element, pick the marked frame (any
//     frame when none is marked) and search its document recursively;
//  2. take the first frame whose body text exceeds FrameTextMin;
//  3. take sc itself when its body text exceeds BodyTextMin and it holds
//     the content marker.
//
// Inaccessible frames and failing scope calls skip to the next candidate.
func (l *Locator) Locate(ctx context.Context, sc scope.Scope) (*Result, error) {
	res, err := l.locate(ctx, sc, 0)
	if err != nil {
		return nil, err
	}
	l.log.Debug().Str("stage", "locate").Str("strategy", string(res.Strategy)).Int("depth", res.Depth).Msg("content scope found")
	return res, nil
}

func (l *Locator) locate(ctx context.Context, sc scope.Scope, depth int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if depth < l.opts.MaxDepth {
		if res := l.shadowFrame(ctx, sc, depth); res != nil {
			return res, nil
		}
	}
	if res := l.frameText(ctx, sc, depth); res != nil {
		return res, nil
	}
	if l.markedBody(ctx, sc) {
		return &Result{Scope: sc, Strategy: StrategyMarkedBody, Depth: depth}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w (depth %d)", ErrNoContentFound, depth)
}

func (l *Locator) shadowFrame(ctx context.Context, sc scope.Scope, depth int) *Result {
	shadow, ok := sc.ShadowRoot(ctx, l.opts.HostSelector)
	if !ok {
		return nil
	}
	frames, err := shadow.Frames(ctx, l.opts.FrameSelector)
	if err != nil || len(frames) == 0 {
		frames, err = shadow.Frames(ctx, "")
		if err != nil {
			l.skip(err, "listing shadow frames")
			return nil
		}
	}
	for _, f := range frames {
		root, ok := f.Root(ctx)
		if !ok {
			l.log.Debug().Str("stage", "locate").Int("depth", depth).Msg("shadow frame not accessible")
			continue
		}
		res, err := l.locate(ctx, root, depth+1)
		if err != nil {
			continue
		}
		if res.Strategy != StrategyShadowFrame && res.Depth == depth+1 {
			res.Strategy = StrategyShadowFrame
		}
		return res
	}
	return nil
}

func (l *Locator) frameText(ctx context.Context, sc scope.Scope, depth int) *Result {
	frames, err := sc.Frames(ctx, "")
	if err != nil {
		l.skip(err, "listing frames")
		return nil
	}
	for _, f := range frames {
		root, ok := f.Root(ctx)
		if !ok {
			continue
		}
		n, err := root.BodyTextLen(ctx)
		if err != nil {
			l.skip(err, "measuring frame text")
			continue
		}
		if n > l.opts.FrameTextMin {
			return &Result{Scope: root, Strategy: StrategyFrameText, Depth: depth + 1}
		}
	}
	return nil
}

func (l *Locator) markedBody(ctx context.Context, sc scope.Scope) bool {
	n, err := sc.BodyTextLen(ctx)
	if err != nil {
		l.skip(err, "measuring body text")
		return false
	}
	if n <= l.opts.BodyTextMin {
		return false
	}
	ok, err := sc.Has(ctx, l.opts.ContentMarker)
	if err != nil {
		l.skip(err, "matching content marker")
		return false
	}
	return ok
}

func (l *Locator) skip(err error, what string) {
	l.log.Debug().Str("stage", "locate").Err(err).Msg(what + " failed; trying next candidate")
}
