// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultCommand is the kustomize binary invoked when no override is
// configured.
const DefaultCommand = "kustomize"

// ErrTemplatingInvocation is the sentinel wrapped by TemplatingInvocationError.
var ErrTemplatingInvocation = errors.New("kustomize invocation failed")

type (
	// Builder shells out to the kustomize binary. The call blocks until the
	// child process exits; callers wanting an upper bound pass a context
	// with a deadline, which kills the child on expiry.
	Builder struct {
		// Command is the binary name or path. Empty means DefaultCommand.
		Command string

		// Logger defaults to the package-level default logger.
		Logger *log.Logger
	}

	// TemplatingInvocationError reports a failed kustomize build for one
	// unit directory. The unit's output is skipped and the run continues.
	TemplatingInvocationError struct {
		Dir    string
		Stderr string
		Err    error
	}
)

// Error implements the error interface.
func (e *TemplatingInvocationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("kustomize build %s: %v: %s", e.Dir, e.Err, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("kustomize build %s: %v", e.Dir, e.Err)
}

// Unwrap returns ErrTemplatingInvocation for errors.Is chains; the process
// error is available via the Err field.
func (e *TemplatingInvocationError) Unwrap() error { return ErrTemplatingInvocation }

// Build runs "<command> build <dir>" and returns the raw concatenated
// document stream from stdout.
func (b *Builder) Build(ctx context.Context, dir string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.command(), "build", dir)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &TemplatingInvocationError{Dir: dir, Stderr: stderr.String(), Err: err}
	}

	b.logger().Info("templated kustomization", "dir", dir, "bytes", stdout.Len())
	return stdout.Bytes(), nil
}

// Probe runs "<command> version" and returns the reported version string.
// It is the system-dependency check run before any unit work starts: a
// probe failure means no build could possibly succeed.
func (b *Builder) Probe(ctx context.Context) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.command(), "version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &TemplatingInvocationError{Dir: "", Stderr: stderr.String(), Err: err}
	}

	out := stdout.String()
	if !strings.Contains(out, "Version:") {
		return "", &TemplatingInvocationError{
			Dir:    "",
			Stderr: strings.TrimSpace(out),
			Err:    errors.New("unrecognized version output"),
		}
	}
	return parseVersion(out), nil
}

// parseVersion extracts the bare version token from output such as
// "{Version:kustomize/v5.0.1 GitCommit:... GoOs:linux ...}".
func parseVersion(out string) string {
	rest := out[strings.Index(out, "Version:")+len("Version:"):]
	rest = strings.TrimLeft(rest, " \t")
	if i := strings.IndexAny(rest, " \t\r\n}"); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		rest = rest[i+1:]
	}
	return strings.TrimSpace(rest)
}

func (b *Builder) command() string {
	if b.Command != "" {
		return b.Command
	}
	return DefaultCommand
}

func (b *Builder) logger() *log.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return log.Default()
}
