// SPDX-License-Identifier: MPL-2.0

package provenance

import "testing"

func TestMap_RecordAndLookup(t *testing.T) {
	m := NewMap()
	origin := Origin{UnitKind: "overlay", OverlayName: "prod", ManifestPath: "/src/prod/kustomization.yaml"}

	m.Record("/out/prod/ConfigMap-default-x.yaml", origin)

	got, ok := m.Lookup("/out/prod/ConfigMap-default-x.yaml")
	if !ok {
		t.Fatal("Lookup() miss for recorded path")
	}
	if got != origin {
		t.Errorf("Lookup() = %+v, want %+v", got, origin)
	}
	if !m.Has("/out/prod/ConfigMap-default-x.yaml") {
		t.Error("Has() = false for recorded path")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestMap_MissingPath(t *testing.T) {
	m := NewMap()
	if _, ok := m.Lookup("/out/nope.yaml"); ok {
		t.Error("Lookup() hit for unrecorded path")
	}
	if m.Has("/out/nope.yaml") {
		t.Error("Has() = true for unrecorded path")
	}
}

func TestMap_LastWriterWins(t *testing.T) {
	m := NewMap()
	first := Origin{UnitKind: "base", ManifestPath: "/src/base/kustomization.yaml"}
	second := Origin{UnitKind: "overlay", OverlayName: "prod", ManifestPath: "/src/prod/kustomization.yaml"}

	m.Record("/out/ConfigMap-default-x.yaml", first)
	m.Record("/out/ConfigMap-default-x.yaml", second)

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	got, _ := m.Lookup("/out/ConfigMap-default-x.yaml")
	if got != second {
		t.Errorf("Lookup() = %+v, want the later entry %+v", got, second)
	}
}
