// SPDX-License-Identifier: MPL-2.0

// Package report defines the boundary to the downstream policy engine and
// adapts its findings back into base/overlay-aware resource identifiers
// using the run's provenance map.
package report

import "context"

// Status is the outcome of one check against one resource.
type Status string

const (
	// StatusPassed means the check held.
	StatusPassed Status = "passed"
	// StatusFailed means the check was violated.
	StatusFailed Status = "failed"
	// StatusSkipped means the check was suppressed for this resource.
	StatusSkipped Status = "skipped"
)

type (
	// Finding is one per-resource result reported by the policy engine.
	// Engines see only the flat generated files, so DocumentPath points into
	// the private output tree and ResourceID is engine-native; the adapter
	// rewrites both into unit-aware form.
	Finding struct {
		// CheckID identifies the policy rule.
		CheckID string `json:"check_id"`
		// CheckName is the rule's human-readable name.
		CheckName string `json:"check_name"`
		// Status is the check outcome.
		Status Status `json:"status"`
		// DocumentPath is the generated file the finding refers to.
		DocumentPath string `json:"document_path"`
		// ResourceID is the engine's identifier for the resource.
		ResourceID string `json:"resource_id"`
		// Message carries optional detail from the engine.
		Message string `json:"message,omitempty"`
	}

	// Engine is the external policy engine run against the aggregated
	// output tree. Implementations are collaborators outside this module;
	// tests supply fakes.
	Engine interface {
		Check(ctx context.Context, outputRoot string) ([]Finding, error)
	}
)
