// SPDX-License-Identifier: MPL-2.0

package kustomize

import (
	"path/filepath"
	"strings"
	"testing"
)

// classifyAll builds a run from manifest dirs laid out under root.
func classifyAll(t *testing.T, dirs ...string) *Run {
	t.Helper()
	run := NewRun()
	for _, d := range dirs {
		if _, err := Classify(run, d); err != nil {
			t.Fatalf("Classify(%s) error = %v", d, err)
		}
	}
	return run
}

func TestResolver_SiblingOverlay(t *testing.T) {
	root := t.TempDir()
	base := writeManifest(t, root, "app/base", "resources:\n- cm.yaml\n")
	prod := writeManifest(t, root, "app/prod", "patchesStrategicMerge:\n- patch.yaml\nbases:\n- ../base\n")

	run := classifyAll(t, base, prod)
	(&Resolver{}).Resolve(run)

	overlay := run.Overlays[0]
	if overlay.CalculatedBasePath != base {
		t.Errorf("CalculatedBasePath = %q, want %q", overlay.CalculatedBasePath, base)
	}
	if overlay.ValidatedBasePath != base {
		t.Errorf("ValidatedBasePath = %q, want %q", overlay.ValidatedBasePath, base)
	}
	if overlay.OverlayName != "prod" {
		t.Errorf("OverlayName = %q, want %q", overlay.OverlayName, "prod")
	}
}

func TestResolver_NestedOverlayKeepsIntermediateSegments(t *testing.T) {
	root := t.TempDir()
	base := writeManifest(t, root, "app/base", "resources:\n- cm.yaml\n")
	prod := writeManifest(t, root, "app/overlays/prod", "bases:\n- ../../base\n")

	run := classifyAll(t, base, prod)
	(&Resolver{}).Resolve(run)

	overlay := run.Overlays[0]
	if overlay.OverlayName != "overlays/prod" {
		t.Errorf("OverlayName = %q, want %q", overlay.OverlayName, "overlays/prod")
	}
	if overlay.ValidatedBasePath != base {
		t.Errorf("ValidatedBasePath = %q, want %q", overlay.ValidatedBasePath, base)
	}
}

func TestResolver_FallbackNames(t *testing.T) {
	tests := []struct {
		name      string
		manifests func(t *testing.T, root string) (overlayDir string)
	}{
		{
			// The declared ref points somewhere the ancestor walk never found.
			name: "declared ref disagrees with calculated base",
			manifests: func(t *testing.T, root string) string {
				writeManifest(t, root, "app/base", "resources:\n- cm.yaml\n")
				return writeManifest(t, root, "app/prod", "bases:\n- ../../elsewhere/base\n")
			},
		},
		{
			name: "no known base at all",
			manifests: func(t *testing.T, root string) string {
				return writeManifest(t, root, "app/prod", "bases:\n- ../base\n")
			},
		},
		{
			name: "overlay without declared refs",
			manifests: func(t *testing.T, root string) string {
				writeManifest(t, root, "app/base", "resources:\n- cm.yaml\n")
				return writeManifest(t, root, "app/prod", "patchesStrategicMerge:\n- patch.yaml\n")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			overlayDir := tt.manifests(t, root)

			run := NewRun()
			for _, d := range collectUnitDirs(t, root) {
				if _, err := Classify(run, d); err != nil {
					t.Fatal(err)
				}
			}
			(&Resolver{}).Resolve(run)

			var overlay *Unit
			for _, o := range run.Overlays {
				if o.Path == overlayDir {
					overlay = o
				}
			}
			if overlay == nil {
				t.Fatal("overlay not registered")
			}
			want := FallbackPrefix + "/prod"
			if overlay.OverlayName != want {
				t.Errorf("OverlayName = %q, want %q", overlay.OverlayName, want)
			}
			if overlay.ValidatedBasePath != "" {
				t.Errorf("ValidatedBasePath = %q, want empty", overlay.ValidatedBasePath)
			}
		})
	}
}

func TestResolver_OutermostMatchWins(t *testing.T) {
	root := t.TempDir()
	// Two structurally matching bases: one sibling of the overlay and one a
	// level further out. The walk visits the nearer ancestor first and the
	// farther one last, so the outer base overwrites the inner match.
	inner := writeManifest(t, root, "env/app/base", "resources:\n- cm.yaml\n")
	outer := writeManifest(t, root, "env/base", "resources:\n- cm.yaml\n")
	overlay := writeManifest(t, root, "env/app/prod", "bases:\n- ../base\n")

	run := classifyAll(t, inner, outer, overlay)
	(&Resolver{}).Resolve(run)

	o := run.Overlays[0]
	if o.CalculatedBasePath != outer {
		t.Errorf("CalculatedBasePath = %q, want outer base %q", o.CalculatedBasePath, outer)
	}
	// The declared ref resolves to the inner base, so validation fails and
	// the synthetic name applies.
	if !strings.HasPrefix(o.OverlayName, FallbackPrefix+"/") {
		t.Errorf("OverlayName = %q, want %s fallback", o.OverlayName, FallbackPrefix)
	}
}

func TestResolver_CustomPolicy(t *testing.T) {
	root := t.TempDir()
	base := writeManifest(t, root, "modules/base", "resources:\n- cm.yaml\n")
	overlay := writeManifest(t, root, "envs/prod", "bases:\n- ../../modules/base\n")

	// GrandparentMatch cannot connect these trees; a permissive policy can.
	run := classifyAll(t, base, overlay)
	r := &Resolver{Policy: func(_ string, b *Unit) bool { return b.Path == base }}
	r.Resolve(run)

	o := run.Overlays[0]
	if o.ValidatedBasePath != base {
		t.Errorf("ValidatedBasePath = %q, want %q", o.ValidatedBasePath, base)
	}
	if o.OverlayName != "envs/prod" {
		t.Errorf("OverlayName = %q, want %q", o.OverlayName, "envs/prod")
	}
}

func TestGrandparentMatch(t *testing.T) {
	base := &Unit{Path: filepath.Join("/repo", "app", "base")}
	if !GrandparentMatch(filepath.Join("/repo", "app"), base) {
		t.Error("parent of the base dir should match")
	}
	if GrandparentMatch("/repo", base) {
		t.Error("grandparent of the base dir should not match")
	}
	if GrandparentMatch(base.Path, base) {
		t.Error("the base dir itself should not match")
	}
}

func TestAncestors(t *testing.T) {
	got := ancestors(filepath.Join(string(filepath.Separator), "a", "b", "c"))
	want := []string{
		filepath.Join(string(filepath.Separator), "a", "b"),
		filepath.Join(string(filepath.Separator), "a"),
		string(filepath.Separator),
	}
	if len(got) != len(want) {
		t.Fatalf("ancestors() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ancestors()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// collectUnitDirs reuses the scanner to find every manifest dir under root.
func collectUnitDirs(t *testing.T, root string) []string {
	t.Helper()
	dirs, err := (&Scanner{}).Scan(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	return dirs
}
