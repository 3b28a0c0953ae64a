// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/helix-collective/adlgen/internal/issue"
)

// reportFailure writes err, followed by its catalog help when it has
// one, and returns the ExitError the command should fail with.
func reportFailure(w io.Writer, err error, verbose bool) error {
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	if entry, ok := issue.CatalogIssue(err); ok {
		if rendered, renderErr := entry.Render("dark"); renderErr == nil {
			fmt.Fprint(w, rendered)
		} else {
			fmt.Fprint(w, entry.Markdown())
		}
	}
	return &ExitError{Code: 1, Err: err, Reported: true}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
