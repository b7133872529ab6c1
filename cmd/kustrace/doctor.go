// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kustrace/kustrace/internal/issue"
	"github.com/kustrace/kustrace/internal/render"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the external kustomize binary is usable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		builder := &render.Builder{Command: cfg.KustomizeCommand, Logger: logger}
		version, err := builder.Probe(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, ErrorStyle.Render("✗ ")+err.Error())
			renderIssueHelp(os.Stderr, issue.KustomizeNotFoundId)
			return &ExitError{Code: 2, Err: err}
		}
		fmt.Fprintln(os.Stdout, SuccessStyle.Render("✓ ")+"kustomize "+version+" ("+builderCommand()+")")
		return nil
	},
}

func builderCommand() string {
	if cfg.KustomizeCommand != "" {
		return cfg.KustomizeCommand
	}
	return render.DefaultCommand
}
