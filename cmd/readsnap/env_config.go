package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // READSNAP_CONFIG: config file name or path
	Format     string        // READSNAP_FORMAT: output format
	OutputDir  string        // READSNAP_OUTPUT_DIR: output directory
	Timeout    time.Duration // READSNAP_TIMEOUT: limit per input
	StepDelay  time.Duration // READSNAP_STEP_DELAY: pause per scroll step
	Workers    int           // READSNAP_WORKERS: parallel browsers
}

// knownEnvVars lists valid READSNAP_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"READSNAP_CONFIG":     true,
	"READSNAP_FORMAT":     true,
	"READSNAP_OUTPUT_DIR": true,
	"READSNAP_TIMEOUT":    true,
	"READSNAP_STEP_DELAY": true,
	"READSNAP_WORKERS":    true,
}

// loadEnvConfig reads the READSNAP_* variables. Malformed numbers and
// durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("READSNAP_CONFIG"),
		Format:     strings.ToLower(getenv("READSNAP_FORMAT")),
		OutputDir:  getenv("READSNAP_OUTPUT_DIR"),
		Timeout:    positiveDuration(getenv("READSNAP_TIMEOUT")),
		StepDelay:  positiveDuration(getenv("READSNAP_STEP_DELAY")),
	}
	if w, err := strconv.Atoi(getenv("READSNAP_WORKERS")); err == nil && w > 0 {
		cfg.Workers = w
	}
	return cfg
}

func positiveDuration(s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return 0
}

// warnUnknownEnvVars logs a warning for each unrecognized READSNAP_*
// variable, to catch typos like READSNAP_WORKER.
func warnUnknownEnvVars(environ []string, log zerolog.Logger) {
	for _, env := range environ {
		if !strings.HasPrefix(env, "READSNAP_") {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			log.Warn().Str("stage", "cli").Str("name", name).Msg("unknown environment variable (typo?)")
		}
	}
}
