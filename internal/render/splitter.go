// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Separator is the document boundary line in a kustomize build stream.
const Separator = "---"

// headerKey is the token every document must open with, immediately after a
// separator line.
const headerKey = "apiVersion:"

// ErrMalformedStream is the sentinel wrapped by MalformedStreamError.
var ErrMalformedStream = errors.New("malformed document stream")

// Splitter states. The automaton has exactly two: in expectHeader the
// previous line was a separator and the next line must be a version header;
// in inDocument lines accumulate into the open document (or are discarded as
// pre-stream noise while no document is open).
type splitState int

const (
	stateInDocument splitState = iota
	stateExpectHeader
)

type (
	// MalformedStreamError reports a violation of the separator/header
	// protocol. Splitting of the affected stream stops; documents finalized
	// before the violation are unaffected and already-written partial output
	// stays on disk.
	MalformedStreamError struct {
		// Line is the 1-based line number within the stream, counting the
		// synthetic leading separator.
		Line int
		// Text is the offending line.
		Text string
		// Reason describes which protocol rule was violated.
		Reason string
	}

	// FinalizeFunc receives each closed document file: its path (an
	// ordinal-named temp file inside OutDir) and its zero-based ordinal.
	// Returning an error aborts the split.
	FinalizeFunc func(path string, ordinal int) error

	// Splitter parses one concatenated build stream into per-document files
	// under OutDir, named by their zero-based ordinal, preserving stream
	// order. A synthetic leading separator is prepended so the first
	// document is handled like every other one.
	Splitter struct {
		// OutDir is the unit's private output directory. It must exist.
		OutDir string

		// Finalize is called for every completed document. May be nil.
		Finalize FinalizeFunc
	}
)

// Error implements the error interface.
func (e *MalformedStreamError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Unwrap returns ErrMalformedStream for errors.Is chains.
func (e *MalformedStreamError) Unwrap() error { return ErrMalformedStream }

// Split consumes the stream and returns the number of documents finalized.
// On a MalformedStreamError the count covers only the documents completed
// before the violation.
func (s *Splitter) Split(stream io.Reader) (int, error) {
	var (
		state    = stateInDocument
		current  *os.File
		ordinal  int
		finished int
		lineNum  int
	)

	// The currently open file is closed but not finalized on the error
	// paths below: partial output stays on disk for inspection.
	abandon := func() {
		if current != nil {
			current.Close()
			current = nil
		}
	}

	scanner := bufio.NewScanner(io.MultiReader(strings.NewReader(Separator+"\n"), stream))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), " \t\r")

		if line == Separator {
			state = stateExpectHeader
			continue
		}

		if state == stateExpectHeader {
			if !strings.HasPrefix(line, headerKey) {
				abandon()
				return finished, &MalformedStreamError{
					Line:   lineNum,
					Text:   line,
					Reason: "separator must be followed by an " + headerKey + " header",
				}
			}
			if current != nil {
				if err := s.finalize(current, ordinal-1); err != nil {
					return finished, err
				}
				current = nil
				finished++
			}
			f, err := os.OpenFile(s.docPath(ordinal), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return finished, err
			}
			current = f
			ordinal++
			if _, err := fmt.Fprintf(current, "%s\n%s\n", Separator, line); err != nil {
				abandon()
				return finished, err
			}
			state = stateInDocument
			continue
		}

		if strings.HasPrefix(line, headerKey) {
			// A top-level version header inside a document body means the
			// automaton lost synchronization with the stream.
			abandon()
			return finished, &MalformedStreamError{
				Line:   lineNum,
				Text:   line,
				Reason: headerKey + " header not preceded by a separator",
			}
		}

		if current == nil {
			// Pre-stream noise before the first document.
			continue
		}
		if _, err := fmt.Fprintln(current, line); err != nil {
			abandon()
			return finished, err
		}
	}
	if err := scanner.Err(); err != nil {
		abandon()
		return finished, err
	}

	if current != nil {
		if err := s.finalize(current, ordinal-1); err != nil {
			return finished, err
		}
		finished++
	}
	return finished, nil
}

func (s *Splitter) finalize(f *os.File, ordinal int) error {
	path := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	if s.Finalize == nil {
		return nil
	}
	return s.Finalize(path, ordinal)
}

func (s *Splitter) docPath(ordinal int) string {
	return filepath.Join(s.OutDir, strconv.Itoa(ordinal))
}
