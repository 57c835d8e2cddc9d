// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-readsnap/internal/fileutil"
)

// IsInContainer reports whether the process runs inside a Docker
// container, where Chrome cannot start with its sandbox. Tests swap it.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ciEnv lists variables set by the CI runners readsnap is exercised on.
var ciEnv = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

func inCI() bool {
	for _, k := range ciEnv {
		if os.Getenv(k) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect returns hints for a browser that failed to launch or
// connect. The sandbox hint appears only in CI or a container, and only
// while ROD_NO_SANDBOX is unset; the binary hint appears while
// ROD_BROWSER_BIN is unset.
func ForBrowserConnect() string {
	var hints []string
	if (inCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	return formatHints(hints)
}

// ForTimeout returns a hint for pages that did not settle in time. The
// readiness poll ceiling and the whole-extraction timeout are both
// adjustable.
func ForTimeout() string {
	return format("for slow or very long pages, raise --timeout or readiness.pollCeiling")
}

// ForNoContent returns a hint for pages where no content scope was found.
// wrapper reports whether the frame search was enabled.
func ForNoContent(wrapper bool) string {
	if !wrapper {
		return format("the page may wrap its content in frames; retry with --wrapper")
	}
	return format("check host.shadowHost, host.contentFrame and host.contentMarker in your config")
}

// ForPartialImages returns a hint when some images stayed remote.
func ForPartialImages() string {
	return format("failed images keep their original URL; use -v to see which ones")
}

// ForConfigNotFound returns a hint for a --config name that matched no
// file. When one of the searched paths lies under ~/.config/go-readsnap,
// it is offered as the place to create the file.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-readsnap") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns a hint for an output directory that could not
// be created.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// format prefixes hint with the "\n  hint: " marker. An empty hint stays
// empty.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins hints with "; " under a single marker.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
