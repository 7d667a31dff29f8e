// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ifc-pages/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the site when IFC files change",
	Long: `Watch runs an incremental build, then watches the input directory and
rebuilds whenever an .ifc file is created, written, renamed or removed.
Bursts of events are collapsed into one build. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	addSiteFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before rebuilding")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, siteFlags); err != nil {
		return err
	}
	if err := bindFlags(cmd, map[string]string{"debounce": "watch.debounce"}); err != nil {
		return err
	}

	cfg := siteConfig()
	cfg.Incremental = true

	rebuild := func(ctx context.Context) error {
		result, err := buildSite(ctx, cfg, os.Stdout)
		if err != nil {
			return err
		}
		if result.HasFailures() {
			return fmt.Errorf("%d of %d model(s) failed: %w", result.Failed, result.Total(), result.Err())
		}
		return nil
	}

	ctx := cmd.Context()
	if err := rebuild(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: initial build: %v\n", err)
	}

	err := watch.Run(ctx, cfg.IFCDir, watchConfig().Debounce, rebuild, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
