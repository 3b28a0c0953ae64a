// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
)

// ErrExecutionFailed is the sentinel matched by every ExecutionError.
var ErrExecutionFailed = errors.New("tool execution failed")

// ExecutionError reports a failed tool run. For a non-zero exit, ExitCode
// is set and Err is nil; for any other failure Reason describes the step
// that failed and Err holds the cause.
type ExecutionError struct {
	Tool     string
	ExitCode ExitCode
	Reason   string
	Err      error
}

func (e *ExecutionError) Error() string {
	switch {
	case e.Err == nil && e.Reason == "":
		return fmt.Sprintf("%s error (%d)", e.Tool, e.ExitCode)
	case e.Err == nil:
		return fmt.Sprintf("%s error: %s", e.Tool, e.Reason)
	case e.Reason == "":
		return fmt.Sprintf("%s error: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("%s error: %s: %v", e.Tool, e.Reason, e.Err)
	}
}

// Unwrap returns the sentinel and, when present, the cause.
func (e *ExecutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExecutionFailed}
	}
	return []error{ErrExecutionFailed, e.Err}
}

func stepFailed(tool, reason string, err error) error {
	return &ExecutionError{Tool: tool, Reason: reason, Err: err}
}
