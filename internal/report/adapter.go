// SPDX-License-Identifier: MPL-2.0

package report

import (
	"github.com/charmbracelet/log"

	"github.com/kustrace/kustrace/internal/provenance"
)

// MissSentinelPrefix prefixes the resource identifier of a finding whose
// document path has no provenance entry. Such a finding signals an internal
// inconsistency; it is surfaced, never dropped.
const MissSentinelPrefix = "unknown:provenance-miss:"

// Adapter rewrites engine findings so their resource identifiers carry the
// base/overlay context recovered from the provenance map.
type Adapter struct {
	// Prov is the run's provenance map, consulted read-only.
	Prov *provenance.Map

	// Logger defaults to the package-level default logger.
	Logger *log.Logger
}

// Adapt returns the findings with rewritten identifiers. For a document
// produced by an overlay the identifier becomes
// "overlay:<overlayName>:<resourceID>"; for a base, "base:<resourceID>".
// DocumentPath is rewritten to the originating manifest so the final report
// points at a file the user actually wrote.
func (a *Adapter) Adapt(findings []Finding) []Finding {
	out := make([]Finding, len(findings))
	for i, f := range findings {
		origin, ok := a.Prov.Lookup(f.DocumentPath)
		if !ok {
			a.logger().Warn("finding refers to a document with no provenance entry",
				"path", f.DocumentPath, "resource", f.ResourceID)
			f.ResourceID = MissSentinelPrefix + f.ResourceID
			out[i] = f
			continue
		}

		if origin.OverlayName != "" {
			f.ResourceID = origin.UnitKind + ":" + origin.OverlayName + ":" + f.ResourceID
		} else {
			f.ResourceID = origin.UnitKind + ":" + f.ResourceID
		}
		f.DocumentPath = origin.ManifestPath
		out[i] = f
	}
	return out
}

func (a *Adapter) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.Default()
}
