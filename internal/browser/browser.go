// Package browser drives headless Chrome through rod. Its Page is a live
// content scope and the driver of the readiness sequence.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"

	"github.com/alnah/go-readsnap/internal/process"
)

// Sentinel errors for browser failures.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
)

// Config selects and configures the Chrome instance.
type Config struct {
	// Bin is the Chrome binary. Empty lets rod find or download one.
	Bin string
	// RemoteURL connects to a running Chrome instead of launching one.
	RemoteURL string
	NoSandbox bool
	// Stealth masks the automation fingerprint of new pages.
	Stealth bool
}

// WithEnv fills Bin from ROD_BROWSER_BIN and turns NoSandbox on for CI,
// containers (a preinstalled binary) and ROD_NO_SANDBOX.
func (c Config) WithEnv(getenv func(string) string) Config {
	if c.Bin == "" {
		c.Bin = getenv("ROD_BROWSER_BIN")
	}
	if getenv("CI") == "true" || getenv("ROD_BROWSER_BIN") != "" {
		c.NoSandbox = true
	}
	if v, err := strconv.ParseBool(getenv("ROD_NO_SANDBOX")); err == nil && v {
		c.NoSandbox = true
	}
	return c
}

// Browser is a connected Chrome instance.
type Browser struct {
	rod     *rod.Browser
	lnch    *launcher.Launcher
	stealth bool
	log     zerolog.Logger
}

// Launch starts Chrome, or connects to cfg.RemoteURL, and returns the
// connected browser. Environment overrides are applied.
func Launch(ctx context.Context, cfg Config, log zerolog.Logger) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg = cfg.WithEnv(os.Getenv)

	b := &Browser{stealth: cfg.Stealth, log: log}
	controlURL := cfg.RemoteURL
	if controlURL == "" {
		l := launcher.New().Context(ctx).Headless(true)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		if cfg.NoSandbox {
			l = l.NoSandbox(true)
		}
		if cfg.Stealth {
			l = l.Set("disable-blink-features", "AutomationControlled")
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
		}
		controlURL = u
		b.lnch = l
		log.Debug().Str("stage", "browser").Str("url", u).Bool("stealth", cfg.Stealth).Msg("launched chrome")
	}

	b.rod = rod.New().ControlURL(controlURL)
	if err := b.rod.Connect(); err != nil {
		b.kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return b, nil
}

// Wrap adopts an already connected rod browser. Close does not shut it down.
func Wrap(rb *rod.Browser, stealthPages bool, log zerolog.Logger) *Browser {
	return &Browser{rod: rb, stealth: stealthPages, log: log}
}

// Rod returns the underlying rod browser.
func (b *Browser) Rod() *rod.Browser { return b.rod }

// newPage opens a blank tab, stealthy when configured.
func (b *Browser) newPage() (*rod.Page, error) {
	if b.stealth {
		return stealth.Page(b.rod)
	}
	return b.rod.Page(proto.TargetCreateTarget{})
}

// Close shuts down a launched browser and its process group. Adopted and
// remote browsers are left running.
func (b *Browser) Close() error {
	if b.lnch == nil {
		return nil
	}
	err := b.rod.Close()
	b.kill()
	return err
}

func (b *Browser) kill() {
	if b.lnch == nil {
		return
	}
	if err := process.KillTree(b.lnch.PID()); err != nil {
		b.log.Debug().Str("stage", "browser").Err(err).Msg("process group already gone")
	}
	b.lnch.Kill()
	b.lnch.Cleanup()
	b.lnch = nil
}
