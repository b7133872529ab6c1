// SPDX-License-Identifier: MPL-2.0

// Package render turns kustomization units into individually addressable
// resource files. It invokes the external kustomize binary per unit, splits
// the concatenated YAML stream the tool prints into one file per document,
// and renames each file after the resource it contains while recording
// provenance back to the originating unit.
package render
