// SPDX-License-Identifier: MPL-2.0

// Package kustomize discovers kustomization units in a directory tree,
// classifies them as bases or overlays, and resolves each overlay to its
// nearest matching base so that overlays can be given stable, human-readable
// names derived from their position relative to that base.
package kustomize
