// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/kustrace/kustrace/internal/scan"
	"github.com/kustrace/kustrace/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Re-scan the tree whenever a kustomization.yaml changes",
	Long: `Watch monitors the tree for kustomization.yaml changes and re-runs the
scan after a short debounce, so a burst of editor writes triggers a single
re-scan. Interrupt with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	rescan := func(ctx context.Context, changed []string) error {
		logger.Info("manifest change detected; re-scanning", "changed", len(changed))
		opts := scanOptions([]string{root})
		summary, err := scan.Run(ctx, opts)
		if err != nil {
			return err
		}
		return writeSummary(summary)
	}

	// Run once up front so the first report does not wait for a change.
	if err := rescan(cmd.Context(), nil); err != nil {
		logger.Error("initial scan failed", "error", err)
	}

	w, err := watch.New(watch.Config{
		Root:     root,
		Ignore:   cfg.SkipPaths,
		Debounce: time.Duration(cfg.Watch.DebounceMs) * time.Millisecond,
		OnChange: rescan,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	logger.Info("watching for kustomization changes", "root", root)
	return w.Run(cmd.Context())
}
