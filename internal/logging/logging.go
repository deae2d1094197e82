// Package logging configures the gateway's cosmossdk.io/log logger from
// a level string, mirroring the RUST_LOG-style level knob the native
// chain tooling this gateway fronts exposes as an environment variable.
package logging

import (
	"fmt"
	"os"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
)

// DefaultLevel is used when no level is configured, matching the
// upstream tool's "INFO" default.
const DefaultLevel = "info"

// New returns a logger writing human-readable console lines to stderr, filtered
// at level (one of zerolog's level names: debug, info, warn, error).
func New(level string) (log.Logger, error) {
	if level == "" {
		level = DefaultLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging: parse level %q: %w", level, err)
	}
	return log.NewLogger(os.Stderr, log.LevelOption(parsed)), nil
}
