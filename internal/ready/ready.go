// Package ready drives a page through the scroll-and-wait sequence that makes
// lazily rendered content real before it is extracted.
package ready

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrTimeoutExceeded reports that a bounded wait gave up. It is never fatal.
var ErrTimeoutExceeded = errors.New("readiness wait timed out")

// Metrics describes the scrollable root.
type Metrics struct {
	ScrollHeight   int
	ViewportHeight int
	ScrollY        int
}

// Driver is the live page surface the sequence needs.
type Driver interface {
	Metrics(ctx context.Context) (Metrics, error)
	ScrollTo(ctx context.Context, y int) error
	// Placeholders counts elements still waiting for lazy content.
	Placeholders(ctx context.Context) (int, error)
	// Typeset asks the math library to typeset pending content without
	// waiting for it.
	Typeset(ctx context.Context) error
	// AwaitTypeset blocks until the math library signals completion.
	AwaitTypeset(ctx context.Context) error
	ImageCount(ctx context.Context) (int, error)
	// WaitImage blocks until image i has loaded or failed.
	WaitImage(ctx context.Context, i int) error
}

// Defaults.
const (
	DefaultStepDelay      = 150 * time.Millisecond
	DefaultStepPixels     = 800
	DefaultFinalPause     = time.Second
	DefaultPollInterval   = 250 * time.Millisecond
	DefaultPollCeiling    = 10 * time.Second
	DefaultTopPause       = 300 * time.Millisecond
	DefaultTypesetTimeout = 5 * time.Second
	DefaultImageTimeout   = 5 * time.Second
	DefaultSettleDelay    = 500 * time.Millisecond

	// maxSteps bounds the walk on pages that keep growing.
	maxSteps = 1000
)

// Options configures a Conductor. Zero fields take the defaults, except
// StepPixels which falls back to the viewport height first.
type Options struct {
	StepPixels     int
	StepDelay      time.Duration
	FinalPause     time.Duration
	PollInterval   time.Duration
	PollCeiling    time.Duration
	TopPause       time.Duration
	TypesetTimeout time.Duration
	ImageTimeout   time.Duration
	SettleDelay    time.Duration
}

func (o Options) withDefaults() Options {
	set := func(d *time.Duration, def time.Duration) {
		if *d <= 0 {
			*d = def
		}
	}
	set(&o.StepDelay, DefaultStepDelay)
	set(&o.FinalPause, DefaultFinalPause)
	set(&o.PollInterval, DefaultPollInterval)
	set(&o.PollCeiling, DefaultPollCeiling)
	set(&o.TopPause, DefaultTopPause)
	set(&o.TypesetTimeout, DefaultTypesetTimeout)
	set(&o.ImageTimeout, DefaultImageTimeout)
	set(&o.SettleDelay, DefaultSettleDelay)
	return o
}

// Report records what one run did.
type Report struct {
	Steps int
	Polls int
	// Remaining is the placeholder count when polling stopped.
	Remaining       int
	TypesetTimedOut bool
	ImagesTimedOut  int
	// Canceled holds the context error when the run was cut short.
	Canceled error
}

// Err returns the context error of a canceled run, ErrTimeoutExceeded when
// any wait gave up, nil otherwise.
func (r Report) Err() error {
	switch {
	case r.Canceled != nil:
		return r.Canceled
	case r.Remaining > 0:
		return fmt.Errorf("%w: %d placeholders left", ErrTimeoutExceeded, r.Remaining)
	case r.TypesetTimedOut:
		return fmt.Errorf("%w: typesetting", ErrTimeoutExceeded)
	case r.ImagesTimedOut > 0:
		return fmt.Errorf("%w: %d images", ErrTimeoutExceeded, r.ImagesTimedOut)
	}
	return nil
}

// Conductor runs the readiness sequence against a Driver.
type Conductor struct {
	drv   Driver
	opts  Options
	log   zerolog.Logger
	sleep func(context.Context, time.Duration) error
}

// New returns a Conductor.
func New(drv Driver, opts Options, log zerolog.Logger) *Conductor {
	return &Conductor{drv: drv, opts: opts.withDefaults(), log: log, sleep: sleep}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run walks the page to the bottom, polls until lazy placeholders are gone,
// returns to the top, then waits for typesetting and images. Driver errors
// are logged and skipped; every wait is bounded.
func (c *Conductor) Run(ctx context.Context) Report {
	var rep Report
	steps := []func(context.Context, *Report) error{c.walk, c.poll, c.top, c.typeset, c.images}
	for _, step := range steps {
		if err := step(ctx, &rep); err != nil {
			rep.Canceled = err
			return rep
		}
	}
	if err := c.sleep(ctx, c.opts.SettleDelay); err != nil {
		rep.Canceled = err
	}
	c.log.Debug().Str("stage", "ready").Int("steps", rep.Steps).Int("polls", rep.Polls).
		Int("remaining", rep.Remaining).Msg("readiness sequence done")
	return rep
}

// walk scrolls down in fixed increments, then jumps to the true bottom.
func (c *Conductor) walk(ctx context.Context, rep *Report) error {
	m, err := c.drv.Metrics(ctx)
	if err != nil {
		c.skip(err, "reading scroll metrics")
		return ctx.Err()
	}
	step := c.opts.StepPixels
	if step <= 0 {
		step = m.ViewportHeight
	}
	if step <= 0 {
		step = DefaultStepPixels
	}

	for y := step; y < m.ScrollHeight && rep.Steps < maxSteps; y += step {
		if err := c.drv.ScrollTo(ctx, y); err != nil {
			c.skip(err, "scrolling")
		}
		rep.Steps++
		if err := c.sleep(ctx, c.opts.StepDelay); err != nil {
			return err
		}
		// Lazy content grows the page while we walk.
		if fresh, err := c.drv.Metrics(ctx); err == nil {
			m = fresh
		}
	}

	if err := c.drv.ScrollTo(ctx, m.ScrollHeight); err != nil {
		c.skip(err, "jumping to bottom")
	}
	return c.sleep(ctx, c.opts.FinalPause)
}

// poll waits for placeholders to disappear, nudging the typesetter on each
// round. It returns at once when none are left.
func (c *Conductor) poll(ctx context.Context, rep *Report) error {
	rounds := int(c.opts.PollCeiling / c.opts.PollInterval)
	for {
		n, err := c.drv.Placeholders(ctx)
		if err != nil {
			c.skip(err, "counting placeholders")
			return ctx.Err()
		}
		rep.Remaining = n
		if n == 0 {
			return nil
		}
		if rep.Polls >= rounds {
			c.log.Debug().Str("stage", "ready").Int("remaining", n).Msg("placeholder polling hit its ceiling")
			return nil
		}
		if err := c.drv.Typeset(ctx); err != nil {
			c.skip(err, "triggering typesetting")
		}
		rep.Polls++
		if err := c.sleep(ctx, c.opts.PollInterval); err != nil {
			return err
		}
	}
}

func (c *Conductor) top(ctx context.Context, _ *Report) error {
	if err := c.drv.ScrollTo(ctx, 0); err != nil {
		c.skip(err, "scrolling to top")
	}
	return c.sleep(ctx, c.opts.TopPause)
}

func (c *Conductor) typeset(ctx context.Context, rep *Report) error {
	timedOut, err := race(ctx, c.opts.TypesetTimeout, c.drv.AwaitTypeset)
	if err != nil {
		c.skip(err, "awaiting typesetting")
	}
	rep.TypesetTimedOut = timedOut
	return ctx.Err()
}

// images waits for every image concurrently, each wait bounded on its own.
func (c *Conductor) images(ctx context.Context, rep *Report) error {
	n, err := c.drv.ImageCount(ctx)
	if err != nil {
		c.skip(err, "counting images")
		return ctx.Err()
	}
	var timedOut atomic.Int32
	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			late, err := race(ctx, c.opts.ImageTimeout, func(ctx context.Context) error {
				return c.drv.WaitImage(ctx, i)
			})
			if late {
				timedOut.Add(1)
			}
			if err != nil {
				c.skip(err, "awaiting image")
			}
			return nil
		})
	}
	_ = g.Wait()
	rep.ImagesTimedOut = int(timedOut.Load())
	return ctx.Err()
}

// race runs fn against a timer. On timeout fn keeps running and its result
// is dropped.
func race(ctx context.Context, d time.Duration, fn func(context.Context) error) (timedOut bool, err error) {
	done := make(chan error, 1)
	go func() { done <- fn(ctx) }()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case err := <-done:
		return false, err
	case <-t.C:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Conductor) skip(err error, what string) {
	c.log.Debug().Str("stage", "ready").Err(err).Msg(what + " failed")
}
