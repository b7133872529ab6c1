// SPDX-License-Identifier: MPL-2.0

// Package provenance records which kustomization unit produced each
// generated resource file, so downstream findings against temporary paths
// can be mapped back to the base or overlay a user actually wrote.
package provenance

type (
	// Origin identifies the unit that produced a generated file.
	Origin struct {
		// UnitKind is "base" or "overlay".
		UnitKind string
		// OverlayName is set for overlays only.
		OverlayName string
		// ManifestPath is the absolute path of the unit's kustomization.yaml.
		ManifestPath string
	}

	// Map is the run-scoped, append-only mapping from a finalized document
	// path to the Origin that produced it. Entries are never removed during
	// a run; recording the same path twice overwrites the earlier entry,
	// which is exactly the last-writer-wins collision policy of the renamer.
	//
	// A Map is owned by a single run and is not safe for concurrent use.
	Map struct {
		entries map[string]Origin
	}
)

// NewMap returns an empty provenance map.
func NewMap() *Map {
	return &Map{entries: make(map[string]Origin)}
}

// Record associates a finalized document path with its origin, replacing
// any earlier entry for the same path.
func (m *Map) Record(path string, origin Origin) {
	m.entries[path] = origin
}

// Lookup returns the origin recorded for path, if any.
func (m *Map) Lookup(path string) (Origin, bool) {
	origin, ok := m.entries[path]
	return origin, ok
}

// Has reports whether path already has an entry. The renamer uses this to
// log overwrites before they happen.
func (m *Map) Has(path string) bool {
	_, ok := m.entries[path]
	return ok
}

// Len returns the number of recorded entries.
func (m *Map) Len() int {
	return len(m.entries)
}
