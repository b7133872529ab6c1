// SPDX-License-Identifier: MPL-2.0

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type (
	// UnitResult summarizes one processed kustomization unit.
	UnitResult struct {
		// Dir is the unit's absolute directory.
		Dir string `json:"dir"`
		// Kind is "base", "overlay" or "unknown".
		Kind string `json:"kind"`
		// OverlayName is set for overlays.
		OverlayName string `json:"overlay_name,omitempty"`
		// Documents is the number of documents finalized for this unit.
		Documents int `json:"documents"`
		// Error holds the per-unit failure that stopped its processing, if
		// any. A unit error never stops the run.
		Error string `json:"error,omitempty"`
	}

	// Summary aggregates one full run.
	Summary struct {
		// RunID identifies the run.
		RunID string `json:"run_id"`
		// KustomizeVersion is the probed version of the external binary.
		KustomizeVersion string `json:"kustomize_version,omitempty"`
		// OutputRoot is the private output tree (only meaningful when the
		// run was asked to keep it).
		OutputRoot string `json:"output_root,omitempty"`
		// Units lists every discovered unit in processing order.
		Units []UnitResult `json:"units"`
		// Documents is the total number of finalized documents.
		Documents int `json:"documents"`
		// Findings holds the adapted engine findings.
		Findings []Finding `json:"findings"`
		// EngineError is set when the downstream engine itself failed.
		EngineError string `json:"engine_error,omitempty"`
	}
)

// Counts returns the number of passed, failed and skipped findings.
func (s *Summary) Counts() (passed, failed, skipped int) {
	for _, f := range s.Findings {
		switch f.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// WriteJSON renders the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteText renders a plain human-readable summary. Styling is applied by
// the CLI layer, which owns the terminal.
func (s *Summary) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", s.RunID)
	if s.KustomizeVersion != "" {
		fmt.Fprintf(&b, "kustomize version: %s\n", s.KustomizeVersion)
	}
	fmt.Fprintf(&b, "units: %d, documents: %d\n", len(s.Units), s.Documents)

	for _, u := range s.Units {
		switch {
		case u.Error != "":
			fmt.Fprintf(&b, "  %-7s %s (error: %s)\n", u.Kind, u.Dir, u.Error)
		case u.OverlayName != "":
			fmt.Fprintf(&b, "  %-7s %s (name %s, %d documents)\n", u.Kind, u.Dir, u.OverlayName, u.Documents)
		default:
			fmt.Fprintf(&b, "  %-7s %s (%d documents)\n", u.Kind, u.Dir, u.Documents)
		}
	}

	passed, failed, skipped := s.Counts()
	fmt.Fprintf(&b, "findings: %d passed, %d failed, %d skipped\n", passed, failed, skipped)
	for _, f := range s.Findings {
		fmt.Fprintf(&b, "  [%s] %s %s (%s)\n", f.Status, f.CheckID, f.ResourceID, f.DocumentPath)
	}
	if s.EngineError != "" {
		fmt.Fprintf(&b, "engine error: %s\n", s.EngineError)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
