// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kustrace/kustrace/internal/issue"
	"github.com/kustrace/kustrace/internal/render"
	"github.com/kustrace/kustrace/internal/report"
	"github.com/kustrace/kustrace/internal/scan"
)

var (
	scanFiles     []string
	scanSkipPaths []string
	scanCommand   string
	scanKeep      bool
	scanFormat    string

	scanCmd = &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a kustomize tree and report provenance-tagged results",
		Long: `Scan discovers kustomization.yaml units under the given root (default "."),
templates each unit with kustomize, and splits the output into one file per
generated resource, named <kind>-<namespace>-<name>.yaml. Every file is
mapped back to the base or overlay that produced it.

With --file, only the listed kustomization.yaml files are processed and the
directory walk is skipped unless a root is also given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().StringArrayVar(&scanFiles, "file", nil, "explicit kustomization.yaml file (repeatable)")
	scanCmd.Flags().StringArrayVar(&scanSkipPaths, "skip-path", nil, "doublestar glob to exclude from the walk (repeatable)")
	scanCmd.Flags().StringVar(&scanCommand, "kustomize-command", "", "kustomize binary to invoke (default from config)")
	scanCmd.Flags().BoolVar(&scanKeep, "keep-output", false, "keep the private output tree for inspection")
	scanCmd.Flags().StringVarP(&scanFormat, "output", "o", "", "summary format: text or json (default from config)")
}

func runScan(cmd *cobra.Command, args []string) error {
	opts := scanOptions(args)

	summary, err := scan.Run(cmd.Context(), opts)
	if err != nil {
		if errors.Is(err, render.ErrTemplatingInvocation) {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
			renderIssueHelp(os.Stderr, issue.KustomizeNotFoundId)
			return &ExitError{Code: 2, Err: err}
		}
		return err
	}

	if len(summary.Units) == 0 {
		renderIssueHelp(os.Stderr, issue.NoUnitsFoundId)
	}

	if err := writeSummary(summary); err != nil {
		return err
	}

	if _, failed, _ := summary.Counts(); failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%d failed findings", failed)}
	}
	return nil
}

// scanOptions merges config-file settings with the scan flags; flags win.
func scanOptions(args []string) scan.Options {
	root := ""
	if len(args) > 0 {
		root = args[0]
	} else if len(scanFiles) == 0 {
		root = "."
	}

	command := cfg.KustomizeCommand
	if scanCommand != "" {
		command = scanCommand
	}

	return scan.Options{
		Root:             root,
		Files:            scanFiles,
		SkipPatterns:     append(append([]string{}, cfg.SkipPaths...), scanSkipPaths...),
		KustomizeCommand: command,
		KeepOutput:       scanKeep || cfg.KeepOutput,
		Logger:           logger,
	}
}

func writeSummary(summary *report.Summary) error {
	format := cfg.OutputFormat
	if scanFormat != "" {
		format = scanFormat
	}
	switch format {
	case "json":
		return summary.WriteJSON(os.Stdout)
	case "", "text":
		return summary.WriteText(os.Stdout)
	default:
		return fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}
