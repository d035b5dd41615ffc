// Package ttyguard keeps terminal capability probes out of machine-read
// output. Importing it sets CI=1 before any TUI starts when the process
// runs a robot command or a headless export, which stops termenv from
// writing OSC/DSR queries to stdout.
package ttyguard

import (
	"os"
	"strings"
)

// Environment switches that force the guard on.
const (
	EnvRobot    = "STRATA_ROBOT"
	EnvTestMode = "STRATA_TEST_MODE"
)

func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !Suppress(os.Args[1:], os.Getenv(EnvRobot) == "1", os.Getenv(EnvTestMode) != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

// Suppress reports whether terminal queries must be disabled for args.
func Suppress(args []string, envRobot, envTest bool) bool {
	if envRobot || envTest {
		return true
	}
	for _, arg := range args {
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		name, _, _ = strings.Cut(name, "=")
		switch {
		case strings.HasPrefix(name, "robot-"):
			return true
		case name == "export", name == "version", name == "help":
			return true
		}
	}
	return false
}
