// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/kustrace/kustrace/internal/issue"
)

// ExitError carries an explicit process exit code through fang.Execute.
type ExitError struct {
	// Code is the process exit code.
	Code int
	// Err is the underlying error, may be nil for silent exits.
	Err error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ExitError) Unwrap() error { return e.Err }

// formatErrorForDisplay renders an error for terminal output, expanding
// ActionableError suggestions (and, in verbose mode, the error chain).
func formatErrorForDisplay(err error, verbose bool) string {
	var actionable *issue.ActionableError
	if errors.As(err, &actionable) {
		return actionable.Format(verbose)
	}
	return err.Error()
}

// renderIssueHelp prints the remediation guidance for a catalog issue, when
// one exists for the failure at hand.
func renderIssueHelp(w io.Writer, id issue.Id) {
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, err := entry.Render("dark")
	if err != nil {
		logger.Warn("failed to render issue help", "issue", int(id), "error", err)
		return
	}
	fmt.Fprint(w, rendered)
}

// issueForConfigError maps config load failures to their catalog entry.
func issueForConfigError() issue.Id {
	return issue.ConfigLoadFailedId
}
