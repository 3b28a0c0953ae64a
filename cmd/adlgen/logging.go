// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// logLevel maps the verbosity switches to a log level. Quiet wins, because
// it also disables info-level tool output.
func logLevel(verbose, quiet bool) log.Level {
	switch {
	case quiet:
		return log.WarnLevel
	case verbose:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// newLogger creates the logger tool output goes to and installs it as the
// slog default for internal diagnostics.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "adlgen",
		Level:  level,
	})
	slog.SetDefault(slog.New(logger))
	return logger
}
