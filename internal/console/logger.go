// SPDX-License-Identifier: MPL-2.0

package console

import (
	"github.com/charmbracelet/log"
)

// ToolDocker is the tool name Docker build and pull messages are logged under.
const ToolDocker = "docker"

type (
	// ToolLogger receives one line of tool output at a time.
	ToolLogger interface {
		// Info logs a line of regular tool output.
		Info(tool, message string)
		// Error logs a line of tool diagnostics.
		Error(tool, message string)
		// InfoEnabled reports whether Info lines are shown to the user.
		InfoEnabled() bool
	}

	// CharmLogger is a ToolLogger backed by a charmbracelet logger.
	CharmLogger struct {
		logger *log.Logger
	}
)

// NewCharmLogger wraps logger as a ToolLogger.
func NewCharmLogger(logger *log.Logger) *CharmLogger {
	return &CharmLogger{logger: logger}
}

// Info logs message at info level with the tool name attached.
func (l *CharmLogger) Info(tool, message string) {
	l.logger.Info(message, "tool", tool)
}

// Error logs message at error level with the tool name attached.
func (l *CharmLogger) Error(tool, message string) {
	l.logger.Error(message, "tool", tool)
}

// InfoEnabled reports whether the logger level admits info messages.
func (l *CharmLogger) InfoEnabled() bool {
	return l.logger.GetLevel() <= log.InfoLevel
}
