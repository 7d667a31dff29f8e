// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ifc-pages/internal/catalog"
	"github.com/pdiddy/ifc-pages/internal/convert"
	"github.com/pdiddy/ifc-pages/internal/site"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Convert every IFC model and generate the static site",
	Long: `Build discovers *.ifc files under the input directory, converts each one
to model.glb with IfcConvert, extracts metadata.json, copies the viewer into
site/<model>/ and writes the root listing (index.html, models.json,
.nojekyll).

By default the site directory is rebuilt from scratch. With --incremental,
models whose input is unchanged since the last build are skipped and
outputs of deleted inputs are removed.

A model that fails to convert is reported and left out of the listing; the
command exits non-zero after the remaining models are built.`,
	RunE: runBuild,
}

func init() {
	addSiteFlags(buildCmd)
	buildCmd.Flags().Bool("incremental", false, "skip models unchanged since the last build")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, siteFlags); err != nil {
		return err
	}
	if err := bindFlags(cmd, map[string]string{"incremental": "site.incremental"}); err != nil {
		return err
	}

	result, err := buildSite(cmd.Context(), siteConfig(), os.Stdout)
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d of %d model(s) failed", result.Failed, result.Total())
	}
	return nil
}

// buildSite wires the converter and catalog into a builder and runs one
// build. The catalog is closed before returning.
func buildSite(ctx context.Context, cfg types.SiteConfig, w io.Writer) (site.Result, error) {
	conv, err := convert.New(ctx, conversionConfig(), w)
	if err != nil {
		return site.Result{}, err
	}

	store, err := catalog.Open(catalogConfig())
	if err != nil {
		return site.Result{}, err
	}
	defer store.Close()

	return site.NewBuilder(cfg, conv, store, w).Build(ctx)
}
