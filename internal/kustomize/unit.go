// SPDX-License-Identifier: MPL-2.0

package kustomize

import (
	"path/filepath"

	"github.com/google/uuid"
)

// ManifestName is the fixed filename that marks a directory as a
// kustomization unit.
const ManifestName = "kustomization.yaml"

const (
	// KindUnknown means classification found none of the recognized
	// structural keys. Unknown units are excluded from base resolution.
	KindUnknown UnitKind = iota
	// KindBase marks a unit that declares a resources list.
	KindBase
	// KindOverlay marks a unit that declares patches and/or base references.
	KindOverlay
)

// FallbackPrefix is the synthetic overlay-name prefix used when an overlay's
// declared base reference could not be validated against the ancestor walk.
const FallbackPrefix = "UNVALIDATEDBASEDIR"

type (
	// UnitKind classifies a kustomization unit.
	UnitKind int

	// Unit is one kustomization directory together with everything learned
	// about it during classification and base resolution. A Unit is created
	// by Classify, mutated in place by Resolver, and read-only afterward.
	Unit struct {
		// Path is the absolute directory containing the manifest.
		Path string
		// ManifestPath is the absolute path of the manifest file itself.
		ManifestPath string
		// Kind is the classification result.
		Kind UnitKind
		// DeclaredBaseRefs holds the manifest's "bases" entries in declared
		// order. Relative paths, possibly empty.
		DeclaredBaseRefs []string
		// Raw is the parsed manifest content. Keys beyond the recognized
		// structural ones are preserved but ignored.
		Raw map[string]any

		// CalculatedBasePath is the absolute path of a structurally matching
		// base found by the ancestor walk. Empty when no base matched.
		CalculatedBasePath string
		// ValidatedBasePath is set only when CalculatedBasePath resolves
		// identically to the first declared base reference.
		ValidatedBasePath string
		// OverlayName is the environment name for an overlay. Always set on
		// overlays after resolution; never set on bases.
		OverlayName string
	}

	// Run is the per-run context that owns all state shared between the
	// pipeline stages: the known-bases and known-overlays registries and the
	// full discovery-ordered unit list. Each run gets its own Run so
	// concurrent runs never interfere.
	Run struct {
		// ID uniquely identifies this run in logs and the summary.
		ID string
		// Units holds every classified unit in discovery order, including
		// Unknown ones.
		Units []*Unit
		// Bases is the known-bases registry.
		Bases []*Unit
		// Overlays is the known-overlays registry.
		Overlays []*Unit
	}
)

// String returns the lowercase kind name used in resource identifiers.
func (k UnitKind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// NewRun creates an empty per-run context with a fresh run ID.
func NewRun() *Run {
	return &Run{ID: uuid.NewString()}
}

// Register appends a classified unit to the run, routing it into the
// matching registry. Unknown units are kept in Units only.
func (r *Run) Register(u *Unit) {
	r.Units = append(r.Units, u)
	switch u.Kind {
	case KindBase:
		r.Bases = append(r.Bases, u)
	case KindOverlay:
		r.Overlays = append(r.Overlays, u)
	}
}

// DirStem returns the final path component of the unit directory. It is the
// raw material for the synthetic fallback overlay name.
func (u *Unit) DirStem() string {
	return filepath.Base(u.Path)
}
