// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/kustrace/kustrace/internal/config"
	"github.com/kustrace/kustrace/internal/issue"
)

// resetScanFlags restores the flag-bound package state around a test.
func resetScanFlags(t *testing.T) {
	t.Helper()
	origFiles, origSkip, origCommand, origKeep := scanFiles, scanSkipPaths, scanCommand, scanKeep
	origCfg := cfg
	t.Cleanup(func() {
		scanFiles, scanSkipPaths, scanCommand, scanKeep = origFiles, origSkip, origCommand, origKeep
		cfg = origCfg
	})
	scanFiles, scanSkipPaths, scanCommand, scanKeep = nil, nil, "", false
	cfg = config.DefaultConfig()
}

func TestScanOptions_DefaultRoot(t *testing.T) {
	resetScanFlags(t)

	opts := scanOptions(nil)
	if opts.Root != "." {
		t.Errorf("Root = %q, want %q", opts.Root, ".")
	}
}

func TestScanOptions_ExplicitRoot(t *testing.T) {
	resetScanFlags(t)

	opts := scanOptions([]string{"deploy/k8s"})
	if opts.Root != "deploy/k8s" {
		t.Errorf("Root = %q", opts.Root)
	}
}

func TestScanOptions_FilesSuppressDefaultRoot(t *testing.T) {
	resetScanFlags(t)
	scanFiles = []string{"a/kustomization.yaml"}

	opts := scanOptions(nil)
	if opts.Root != "" {
		t.Errorf("Root = %q, want empty when only files are given", opts.Root)
	}
	if len(opts.Files) != 1 {
		t.Errorf("Files = %v", opts.Files)
	}
}

func TestScanOptions_FlagsWinOverConfig(t *testing.T) {
	resetScanFlags(t)
	cfg.KustomizeCommand = "/from/config"
	cfg.SkipPaths = []string{"vendor/**"}
	scanCommand = "/from/flag"
	scanSkipPaths = []string{"third_party/**"}
	scanKeep = true

	opts := scanOptions(nil)
	if opts.KustomizeCommand != "/from/flag" {
		t.Errorf("KustomizeCommand = %q", opts.KustomizeCommand)
	}
	if !opts.KeepOutput {
		t.Error("KeepOutput = false, want true")
	}
	// Config skips and flag skips are merged, config first.
	if len(opts.SkipPatterns) != 2 || opts.SkipPatterns[0] != "vendor/**" || opts.SkipPatterns[1] != "third_party/**" {
		t.Errorf("SkipPatterns = %v", opts.SkipPatterns)
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("3 failed findings")
	err := &ExitError{Code: 1, Err: cause}
	if err.Error() != "3 failed findings" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}

	silent := &ExitError{Code: 2}
	if !strings.Contains(silent.Error(), "exit code 2") {
		t.Errorf("Error() = %q", silent.Error())
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	plain := errors.New("plain failure")
	if got := formatErrorForDisplay(plain, false); got != "plain failure" {
		t.Errorf("formatErrorForDisplay() = %q", got)
	}

	actionable := &issue.ActionableError{
		Operation:   "load configuration",
		Suggestions: []string{"Check the YAML syntax"},
	}
	got := formatErrorForDisplay(actionable, false)
	if !strings.Contains(got, "Check the YAML syntax") {
		t.Errorf("formatErrorForDisplay() = %q, want suggestions expanded", got)
	}
}
