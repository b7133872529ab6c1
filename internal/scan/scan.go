// SPDX-License-Identifier: MPL-2.0

// Package scan is the composition root of a kustrace run. It drives the
// pipeline end to end: discover unit directories, classify and resolve
// them, template each unit with kustomize, split and tag the output, hand
// the aggregated tree to the policy engine, and adapt the findings.
//
// Processing is strictly sequential and every per-unit failure is isolated:
// one broken unit never stops the others. The only fatal condition after
// startup is failing to create the private output root.
package scan

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kustrace/kustrace/internal/kustomize"
	"github.com/kustrace/kustrace/internal/provenance"
	"github.com/kustrace/kustrace/internal/render"
	"github.com/kustrace/kustrace/internal/report"
)

// Options configures one run.
type Options struct {
	// Root is the directory tree to walk. Optional when Files is set.
	Root string
	// Files is an explicit list of kustomization.yaml paths. Optional.
	Files []string
	// SkipPatterns are doublestar globs excluded from the walk.
	SkipPatterns []string
	// KustomizeCommand overrides the kustomize binary. Empty means the
	// default.
	KustomizeCommand string
	// KeepOutput retains the private output tree after the run and records
	// its path in the summary.
	KeepOutput bool
	// Engine is the downstream policy engine. Nil renders and tags without
	// checking.
	Engine report.Engine
	// Policy overrides the base matching convention. Nil means the
	// grandparent convention.
	Policy kustomize.BaseMatchPolicy
	// Logger defaults to the package-level default logger.
	Logger *log.Logger
}

// Run executes one full scan and returns its summary. The returned error is
// non-nil only for run-fatal conditions: an unusable kustomize binary, a
// failed directory walk, or an uncreatable output root.
func Run(ctx context.Context, opts Options) (*report.Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	builder := &render.Builder{Command: opts.KustomizeCommand, Logger: logger}
	version, err := builder.Probe(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("kustomize binary usable", "version", version)

	scanner := &kustomize.Scanner{SkipPatterns: opts.SkipPatterns, Logger: logger}
	dirs, err := scanner.Scan(opts.Root, opts.Files)
	if err != nil {
		return nil, err
	}

	run := kustomize.NewRun()
	summary := &report.Summary{RunID: run.ID, KustomizeVersion: version}
	unitErrors := make(map[string]string)

	for _, dir := range dirs {
		unit, err := kustomize.Classify(run, dir)
		switch {
		case errors.Is(err, kustomize.ErrClassificationAmbiguous):
			logger.Warn("kustomization has no recognizable structure; excluding from resolution",
				"dir", dir, "error", err)
		case err != nil:
			logger.Warn("skipping unit with unreadable manifest", "dir", dir, "error", err)
			unitErrors[dir] = err.Error()
		default:
			logger.Debug("classified kustomization", "dir", dir, "kind", unit.Kind.String())
		}
	}

	resolver := &kustomize.Resolver{Policy: opts.Policy, Logger: logger}
	resolver.Resolve(run)

	outputRoot, err := os.MkdirTemp("", "kustrace-*")
	if err != nil {
		return nil, err
	}
	if opts.KeepOutput {
		summary.OutputRoot = outputRoot
		logger.Info("keeping output tree", "dir", outputRoot)
	} else {
		defer os.RemoveAll(outputRoot)
	}

	prov := provenance.NewMap()
	for _, unit := range run.Units {
		result := report.UnitResult{
			Dir:         unit.Path,
			Kind:        unit.Kind.String(),
			OverlayName: unit.OverlayName,
		}

		if unit.Kind == kustomize.KindUnknown {
			summary.Units = append(summary.Units, result)
			continue
		}

		n, err := renderUnit(ctx, builder, prov, outputRoot, unit, logger)
		result.Documents = n
		summary.Documents += n
		if err != nil {
			logger.Warn("unit processing failed; continuing with remaining units",
				"dir", unit.Path, "error", err)
			result.Error = err.Error()
		}
		summary.Units = append(summary.Units, result)
	}

	// Manifests that failed to parse never became units; surface them too.
	for dir, msg := range unitErrors {
		if !hasUnit(run, dir) {
			summary.Units = append(summary.Units, report.UnitResult{
				Dir: dir, Kind: kustomize.KindUnknown.String(), Error: msg,
			})
		}
	}

	if opts.Engine != nil {
		findings, err := opts.Engine.Check(ctx, outputRoot)
		if err != nil {
			logger.Warn("policy engine failed", "error", err)
			summary.EngineError = err.Error()
		} else {
			adapter := &report.Adapter{Prov: prov, Logger: logger}
			summary.Findings = adapter.Adapt(findings)
		}
	}

	return summary, nil
}

// renderUnit templates one unit and splits/tags its stream. The returned
// count covers documents finalized before any failure.
func renderUnit(ctx context.Context, builder *render.Builder, prov *provenance.Map, outputRoot string, unit *kustomize.Unit, logger *log.Logger) (int, error) {
	stream, err := builder.Build(ctx, unit.Path)
	if err != nil {
		return 0, err
	}

	outDir := filepath.Join(outputRoot, unitOutputPath(unit))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, err
	}

	tagger := &render.Tagger{
		Prov:   prov,
		Logger: logger,
		Origin: provenance.Origin{
			UnitKind:     unit.Kind.String(),
			OverlayName:  unit.OverlayName,
			ManifestPath: unit.ManifestPath,
		},
	}
	splitter := &render.Splitter{
		OutDir: outDir,
		Finalize: func(path string, ordinal int) error {
			finalPath, err := tagger.Tag(path)
			var missing *render.MissingKindError
			if errors.As(err, &missing) {
				logger.Warn("document has no kind; leaving temp file unnamed and untracked",
					"path", path, "ordinal", ordinal)
				return nil
			}
			if err != nil {
				return err
			}
			logger.Debug("finalized document", "ordinal", ordinal, "path", finalPath)
			return nil
		},
	}
	return splitter.Split(bytes.NewReader(stream))
}

// unitOutputPath derives the unit's subdirectory inside the output root from
// its resolved path context: bases land under the last few components of
// their own directory, overlays under their base's path context plus the
// overlay name. An overlay whose base walk came up empty falls back to its
// own directory context so the fallback never fails the run.
func unitOutputPath(unit *kustomize.Unit) string {
	switch unit.Kind {
	case kustomize.KindOverlay:
		base := unit.CalculatedBasePath
		if base == "" {
			base = unit.Path
		}
		return filepath.Join(significantTail(base, 3), filepath.FromSlash(unit.OverlayName))
	default:
		return significantTail(unit.Path, 3)
	}
}

// significantTail returns the last n path components of path, joined.
func significantTail(path string, n int) string {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	filtered := parts[:0]
	for _, p := range parts {
		if p != "" {
			filtered = append(filtered, p)
		}
	}
	if len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}
	return filepath.Join(filtered...)
}

func hasUnit(run *kustomize.Run, dir string) bool {
	for _, u := range run.Units {
		if u.Path == dir {
			return true
		}
	}
	return false
}
