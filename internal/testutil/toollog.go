// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
)

type (
	// LogEntry is one line captured by ToolLog.
	LogEntry struct {
		Level   string // "info" or "error"
		Tool    string
		Message string
	}

	// ToolLog is a console.ToolLogger that records every line.
	ToolLog struct {
		mu      sync.Mutex
		entries []LogEntry
		infoOn  bool
	}
)

// NewToolLog returns a ToolLog. infoEnabled is what InfoEnabled reports.
func NewToolLog(infoEnabled bool) *ToolLog {
	return &ToolLog{infoOn: infoEnabled}
}

// Info records an info line.
func (l *ToolLog) Info(tool, message string) {
	l.add("info", tool, message)
}

// Error records an error line.
func (l *ToolLog) Error(tool, message string) {
	l.add("error", tool, message)
}

// InfoEnabled implements console.ToolLogger.
func (l *ToolLog) InfoEnabled() bool {
	return l.infoOn
}

// Entries returns all recorded lines in order.
func (l *ToolLog) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), l.entries...)
}

// Messages returns the messages recorded at level for tool, in order.
func (l *ToolLog) Messages(level, tool string) []string {
	var out []string
	for _, e := range l.Entries() {
		if e.Level == level && e.Tool == tool {
			out = append(out, e.Message)
		}
	}
	return out
}

func (l *ToolLog) add(level, tool, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Tool: tool, Message: message})
}
