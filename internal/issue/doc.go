// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// It defines a catalog of known failure conditions with Markdown-formatted
// remediation guidance, rendered at the CLI boundary when a run hits one of
// them, plus an ActionableError type for wrapping errors with operation
// context and suggestions.
package issue
