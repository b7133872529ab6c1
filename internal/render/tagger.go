// SPDX-License-Identifier: MPL-2.0

package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/kustrace/kustrace/internal/provenance"
)

const (
	// defaultNamespace substitutes for a missing metadata.namespace.
	defaultNamespace = "default"
	// defaultName substitutes for a missing metadata.name.
	defaultName = "noname"
	// docExt is the extension given to finalized document files.
	docExt = ".yaml"
)

// ErrMissingKind is the sentinel wrapped by MissingKindError.
var ErrMissingKind = errors.New("document has no kind")

type (
	// MissingKindError reports a document without a kind field. Such a
	// document cannot be named or checked meaningfully, so it keeps its
	// ordinal temp filename and gets no provenance entry. Only that one
	// document is affected.
	MissingKindError struct {
		Path string
	}

	// docHead is the minimal identifying slice of a generated document.
	docHead struct {
		Kind     string `yaml:"kind"`
		Metadata struct {
			Name      string `yaml:"name"`
			Namespace string `yaml:"namespace"`
		} `yaml:"metadata"`
	}

	// Tagger renames finalized document files to descriptive
	// "<kind>-<namespace>-<name>.yaml" names and records provenance for the
	// new path. Names are not guaranteed unique: a later document with the
	// same identity in the same unit directory silently replaces the earlier
	// file and its provenance entry. Last-writer-wins is the inherited
	// behavior; whether it is intended policy upstream is unresolved, so it
	// is documented here rather than corrected.
	Tagger struct {
		// Prov receives one entry per successfully renamed document.
		Prov *provenance.Map

		// Origin identifies the unit whose documents are being tagged.
		Origin provenance.Origin

		// Logger defaults to the package-level default logger.
		Logger *log.Logger
	}
)

// Error implements the error interface.
func (e *MissingKindError) Error() string {
	return fmt.Sprintf("%s: document has no kind field", e.Path)
}

// Unwrap returns ErrMissingKind for errors.Is chains.
func (e *MissingKindError) Unwrap() error { return ErrMissingKind }

// Tag parses the identifying fields of the finalized document at path,
// renames the file within its directory, and records the provenance entry.
// It returns the final path.
func (t *Tagger) Tag(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var head docHead
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("parse document %s: %w", path, err)
	}
	if head.Kind == "" {
		return "", &MissingKindError{Path: path}
	}

	namespace := head.Metadata.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}
	name := head.Metadata.Name
	if name == "" {
		name = defaultName
	}

	finalPath := filepath.Join(filepath.Dir(path), head.Kind+"-"+namespace+"-"+name+docExt)
	if t.Prov.Has(finalPath) {
		t.logger().Debug("duplicate document identity; overwriting earlier file",
			"path", finalPath, "unit", t.Origin.ManifestPath)
	}
	if err := os.Rename(path, finalPath); err != nil {
		return "", err
	}

	t.Prov.Record(finalPath, t.Origin)
	return finalPath, nil
}

func (t *Tagger) logger() *log.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return log.Default()
}
