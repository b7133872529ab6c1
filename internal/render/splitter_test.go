// SPDX-License-Identifier: MPL-2.0

package render

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestSplitter_SingleDocument(t *testing.T) {
	out := t.TempDir()
	stream := "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: x\n"

	var got []string
	s := &Splitter{OutDir: out, Finalize: func(path string, ordinal int) error {
		got = append(got, strconv.Itoa(ordinal)+":"+filepath.Base(path))
		return nil
	}}

	n, err := s.Split(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("Split() = %d, want 1", n)
	}
	if len(got) != 1 || got[0] != "0:0" {
		t.Fatalf("finalize calls = %v, want [0:0]", got)
	}

	raw, err := os.ReadFile(filepath.Join(out, "0"))
	if err != nil {
		t.Fatal(err)
	}
	want := "---\n" + stream
	if string(raw) != want {
		t.Errorf("document content = %q, want %q", raw, want)
	}
}

func TestSplitter_MultipleDocumentsInOrder(t *testing.T) {
	out := t.TempDir()
	stream := "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: a\n" +
		"---\n" +
		"apiVersion: v1\nkind: Service\nmetadata:\n  name: b\n" +
		"---\n" +
		"apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: c\n"

	var ordinals []int
	s := &Splitter{OutDir: out, Finalize: func(path string, ordinal int) error {
		if filepath.Base(path) != strconv.Itoa(ordinal) {
			t.Errorf("finalized %s with ordinal %d", path, ordinal)
		}
		ordinals = append(ordinals, ordinal)
		return nil
	}}

	n, err := s.Split(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Split() = %d, want 3", n)
	}
	for i, o := range ordinals {
		if o != i {
			t.Errorf("ordinals = %v, want 0..2 in order", ordinals)
			break
		}
	}
}

func TestSplitter_TrailingWhitespaceAndBlankLines(t *testing.T) {
	out := t.TempDir()
	// Separators may carry trailing spaces or a CR; blank lines between
	// documents belong to the open document.
	stream := "apiVersion: v1\nkind: ConfigMap\n\n--- \r\napiVersion: v1\nkind: Secret\n"

	s := &Splitter{OutDir: out}
	n, err := s.Split(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Split() = %d, want 2", n)
	}
}

func TestSplitter_EmptyStream(t *testing.T) {
	s := &Splitter{OutDir: t.TempDir(), Finalize: func(string, int) error {
		t.Error("finalize must not run for an empty stream")
		return nil
	}}
	n, err := s.Split(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("Split() = %d, want 0", n)
	}
}

func TestSplitter_HeaderWithoutSeparator(t *testing.T) {
	out := t.TempDir()
	stream := "apiVersion: v1\nkind: ConfigMap\napiVersion: v2\n"

	s := &Splitter{OutDir: out}
	n, err := s.Split(strings.NewReader(stream))
	if !errors.Is(err, ErrMalformedStream) {
		t.Fatalf("Split() error = %v, want ErrMalformedStream", err)
	}
	if n != 0 {
		t.Errorf("Split() = %d, want 0 finalized documents", n)
	}

	var merr *MalformedStreamError
	if !errors.As(err, &merr) {
		t.Fatal("error should be a *MalformedStreamError")
	}
	// Line 1 is the synthetic separator, so the repeated header sits at 4.
	if merr.Line != 4 {
		t.Errorf("Line = %d, want 4", merr.Line)
	}

	// The partial first document stays on disk under its ordinal name.
	raw, err := os.ReadFile(filepath.Join(out, "0"))
	if err != nil {
		t.Fatalf("partial output missing: %v", err)
	}
	if !strings.Contains(string(raw), "kind: ConfigMap") {
		t.Errorf("partial output = %q", raw)
	}
}

func TestSplitter_SeparatorWithoutHeader(t *testing.T) {
	stream := "apiVersion: v1\nkind: ConfigMap\n---\nkind: Service\n"

	finalized := 0
	s := &Splitter{OutDir: t.TempDir(), Finalize: func(string, int) error {
		finalized++
		return nil
	}}

	n, err := s.Split(strings.NewReader(stream))
	if !errors.Is(err, ErrMalformedStream) {
		t.Fatalf("Split() error = %v, want ErrMalformedStream", err)
	}
	if n != 0 || finalized != 0 {
		t.Errorf("n = %d, finalized = %d; the open document must not be finalized", n, finalized)
	}
}

func TestSplitter_ErrorAfterCompletedDocuments(t *testing.T) {
	stream := "apiVersion: v1\nkind: ConfigMap\n" +
		"---\n" +
		"apiVersion: v1\nkind: Secret\n" +
		"---\n" +
		"not-a-header\n"

	s := &Splitter{OutDir: t.TempDir()}
	n, err := s.Split(strings.NewReader(stream))
	if !errors.Is(err, ErrMalformedStream) {
		t.Fatalf("Split() error = %v, want ErrMalformedStream", err)
	}
	// Opening the second document finalized the first; the second is closed
	// but never finalized because the violation lands before a third opens.
	if n != 1 {
		t.Errorf("Split() = %d, want 1 completed document", n)
	}
}

func TestSplitter_FinalizeErrorAborts(t *testing.T) {
	stream := "apiVersion: v1\nkind: ConfigMap\n---\napiVersion: v1\nkind: Secret\n"
	boom := errors.New("boom")

	s := &Splitter{OutDir: t.TempDir(), Finalize: func(string, int) error { return boom }}
	n, err := s.Split(strings.NewReader(stream))
	if !errors.Is(err, boom) {
		t.Fatalf("Split() error = %v, want boom", err)
	}
	if n != 0 {
		t.Errorf("Split() = %d, want 0", n)
	}
}
