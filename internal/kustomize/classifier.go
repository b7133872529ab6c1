// SPDX-License-Identifier: MPL-2.0

package kustomize

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var (
	// ErrManifestParse is the sentinel wrapped by ManifestParseError.
	ErrManifestParse = errors.New("kustomization manifest parse failure")

	// ErrClassificationAmbiguous is the sentinel wrapped by
	// ClassificationAmbiguousError.
	ErrClassificationAmbiguous = errors.New("kustomization classification ambiguous")
)

// Structural keys recognized by the classifier. Any other manifest content
// is carried along unparsed.
const (
	keyResources   = "resources"
	keyBases       = "bases"
	keyPatchesList = "patchesStrategicMerge"
)

type (
	// ManifestParseError reports a malformed kustomization.yaml. The unit is
	// skipped and the run continues with the remaining units.
	ManifestParseError struct {
		ManifestPath string
		Err          error
	}

	// ClassificationAmbiguousError reports a manifest with none of the
	// recognized structural keys. The unit stays in the run as Unknown but
	// is excluded from base resolution and rendering.
	ClassificationAmbiguousError struct {
		ManifestPath string
	}
)

// Error implements the error interface.
func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.ManifestPath, e.Err)
}

// Unwrap returns ErrManifestParse so callers can use errors.Is; the yaml
// cause is available via the Err field.
func (e *ManifestParseError) Unwrap() error { return ErrManifestParse }

// Error implements the error interface.
func (e *ClassificationAmbiguousError) Error() string {
	return fmt.Sprintf("%s declares none of %q, %q or %q", e.ManifestPath, keyResources, keyPatchesList, keyBases)
}

// Unwrap returns ErrClassificationAmbiguous for errors.Is chains.
func (e *ClassificationAmbiguousError) Unwrap() error { return ErrClassificationAmbiguous }

// Classify loads the manifest of the unit directory dir and determines its
// kind, evaluated in priority order:
//
//  1. a "resources" list marks a base;
//  2. a "patchesStrategicMerge" list marks an overlay, recording "bases"
//     references when also present;
//  3. a "bases" list alone marks an overlay, recording the references;
//  4. none of the above is a classification failure.
//
// On success the unit is registered with the run's matching registry. A
// parse failure returns a ManifestParseError and no unit; a classification
// failure returns the Unknown unit together with a
// ClassificationAmbiguousError so the caller can warn and keep going.
func Classify(run *Run, dir string) (*Unit, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	manifestPath := filepath.Join(absDir, ManifestName)

	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestParseError{ManifestPath: manifestPath, Err: err}
	}

	var content map[string]any
	if err := yaml.Unmarshal(raw, &content); err != nil {
		return nil, &ManifestParseError{ManifestPath: manifestPath, Err: err}
	}

	unit := &Unit{
		Path:         absDir,
		ManifestPath: manifestPath,
		Raw:          content,
	}

	_, hasResources := content[keyResources]
	_, hasPatches := content[keyPatchesList]
	_, hasBases := content[keyBases]

	switch {
	case hasResources:
		unit.Kind = KindBase
	case hasPatches:
		unit.Kind = KindOverlay
		if hasBases {
			unit.DeclaredBaseRefs = stringList(content[keyBases])
		}
	case hasBases:
		unit.Kind = KindOverlay
		unit.DeclaredBaseRefs = stringList(content[keyBases])
	default:
		unit.Kind = KindUnknown
		run.Register(unit)
		return unit, &ClassificationAmbiguousError{ManifestPath: manifestPath}
	}

	run.Register(unit)
	return unit, nil
}

// stringList coerces a decoded YAML sequence into its string entries,
// dropping anything that is not a scalar string.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
