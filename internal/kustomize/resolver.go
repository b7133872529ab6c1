// SPDX-License-Identifier: MPL-2.0

package kustomize

import (
	"path/filepath"

	"github.com/charmbracelet/log"
)

// BaseMatchPolicy decides whether an ancestor directory of an overlay
// structurally "owns" a known base. The policy receives one ancestor of the
// overlay directory and one candidate base unit.
type BaseMatchPolicy func(ancestor string, base *Unit) bool

// GrandparentMatch is the conventional nesting policy: an ancestor matches a
// base when it sits exactly two levels above the base's manifest, i.e. it is
// the parent of the base directory. Intermediate wrapper directories between
// the overlay and that ancestor are tolerated because every ancestor of the
// overlay is tested.
func GrandparentMatch(ancestor string, base *Unit) bool {
	return ancestor == filepath.Dir(base.Path)
}

// Resolver derives base relationships and overlay names for every overlay in
// a run. Resolution never fails a run: an overlay that cannot be matched or
// validated still receives a deterministic synthetic name.
type Resolver struct {
	// Policy decides structural matches. Nil means GrandparentMatch.
	Policy BaseMatchPolicy

	// Logger defaults to the package-level default logger.
	Logger *log.Logger
}

// Resolve processes every overlay registered with the run. For each overlay
// it walks the overlay directory's ancestors from nearest to root, testing
// every known base against the match policy. Matches overwrite the
// calculated base path as the walk proceeds, so with several structurally
// matching bases the one matched at the outermost ancestor (and latest in
// registry order for that ancestor) ends up recorded. Ties are deliberately
// not broken further; validation against the declared refs sorts them out.
func (r *Resolver) Resolve(run *Run) {
	for _, overlay := range run.Overlays {
		r.resolveOverlay(overlay, run.Bases)
	}
}

func (r *Resolver) resolveOverlay(overlay *Unit, bases []*Unit) {
	logger := r.logger()
	policy := r.Policy
	if policy == nil {
		policy = GrandparentMatch
	}

	for _, ancestor := range ancestors(overlay.Path) {
		for _, base := range bases {
			if policy(ancestor, base) {
				overlay.CalculatedBasePath = base.Path
			}
		}
	}

	if name, ok := r.validate(overlay); ok {
		overlay.OverlayName = name
		logger.Debug("overlay validated against declared base",
			"overlay", overlay.Path,
			"base", overlay.ValidatedBasePath,
			"name", name)
		return
	}

	overlay.OverlayName = FallbackPrefix + "/" + overlay.DirStem()
	logger.Warn("could not confirm base dir for overlay; using synthetic name",
		"overlay", overlay.Path,
		"name", overlay.OverlayName)
}

// validate checks the first declared base reference against the calculated
// base path and, on success, names the overlay by its path relative to the
// validated base's parent directory.
func (r *Resolver) validate(overlay *Unit) (string, bool) {
	if overlay.CalculatedBasePath == "" || len(overlay.DeclaredBaseRefs) == 0 {
		return "", false
	}

	declared := filepath.Clean(filepath.Join(overlay.Path, overlay.DeclaredBaseRefs[0]))
	if declared != overlay.CalculatedBasePath {
		return "", false
	}

	overlay.ValidatedBasePath = overlay.CalculatedBasePath
	name, err := filepath.Rel(filepath.Dir(overlay.CalculatedBasePath), overlay.Path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(name), true
}

// ancestors returns every ancestor directory of path from nearest to the
// filesystem root, excluding path itself.
func ancestors(path string) []string {
	var out []string
	for {
		parent := filepath.Dir(path)
		if parent == path {
			return out
		}
		out = append(out, parent)
		path = parent
	}
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}
