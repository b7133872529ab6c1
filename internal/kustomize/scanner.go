// SPDX-License-Identifier: MPL-2.0

package kustomize

import (
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// Scanner finds directories that directly contain a kustomization manifest.
//
// Two input modes exist and may be combined: an explicit file list, where
// only entries literally named kustomization.yaml contribute their parent
// directory (no walking), and a root path, which is walked recursively with
// excluded path components pruned before descent. Directories discovered
// through both modes are not deduplicated; downstream stages must tolerate
// re-processing.
type Scanner struct {
	// SkipPatterns are doublestar globs. A directory or file is excluded
	// when a pattern matches either its root-relative slash path or its
	// final path component.
	SkipPatterns []string

	// Logger defaults to the package-level default logger.
	Logger *log.Logger
}

// Scan returns the absolute paths of all unit directories found under root
// and/or named by files. Either argument may be empty. The result preserves
// walk order and is never nil.
func (s *Scanner) Scan(root string, files []string) ([]string, error) {
	logger := s.logger()
	dirs := []string{}

	if len(files) > 0 {
		logger.Info("running with an explicit file list; entries must be kustomization.yaml files")
		for _, f := range files {
			if filepath.Base(f) != ManifestName {
				continue
			}
			abs, err := filepath.Abs(filepath.Dir(f))
			if err != nil {
				logger.Warn("skipping file with unresolvable path", "file", f, "error", err)
				continue
			}
			dirs = append(dirs, abs)
		}
	}

	if root == "" {
		return dirs, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees are skipped, not fatal.
			logger.Warn("skipping unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if path != absRoot && s.excluded(rel) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Name() != ManifestName || s.excluded(rel) {
			return nil
		}
		dirs = append(dirs, filepath.Dir(path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// excluded reports whether a root-relative path matches any skip pattern.
// Patterns are tested against the slash form of the whole relative path and
// against the final component, so both "**/vendor/**" and "vendor" work.
func (s *Scanner) excluded(rel string) bool {
	slashed := filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, pattern := range s.SkipPatterns {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func (s *Scanner) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}
