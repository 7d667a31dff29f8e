// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ifc-pages/internal/catalog"
	"github.com/pdiddy/ifc-pages/internal/watch"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "ifc-pages/0.1"
)

// setDefaults registers the value of every config key used when neither a
// flag, the environment, nor the config file sets it.
func setDefaults() {
	viper.SetDefault("site.ifc_dir", "ifc")
	viper.SetDefault("site.site_dir", "site")
	viper.SetDefault("site.workers", 1)
	viper.SetDefault("site.title", "IFC models")
	viper.SetDefault("conversion.backend", string(types.BackendLocal))
	viper.SetDefault("fetch.timeout", defaultTimeout)
	viper.SetDefault("fetch.download_delay", defaultDelay)
	viper.SetDefault("fetch.user_agent", defaultUserAgent)
	viper.SetDefault("fetch.max_retries", 5)
	viper.SetDefault("catalog.path", catalog.DefaultPath)
	viper.SetDefault("catalog.max_results", 20)
	viper.SetDefault("watch.debounce", watch.DefaultDebounce)
}

// bindFlags binds the named flags of cmd to config keys. Binding happens
// when cmd runs so that commands sharing a key do not override each
// other's flags.
func bindFlags(cmd *cobra.Command, pairs map[string]string) error {
	for flag, key := range pairs {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag --%s", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", flag, err)
		}
	}
	return nil
}

// siteFlags are shared by build and watch.
var siteFlags = map[string]string{
	"ifc-dir":         "site.ifc_dir",
	"site-dir":        "site.site_dir",
	"viewer-template": "site.viewer_template",
	"root-template":   "site.root_template",
	"include":         "site.include",
	"exclude":         "site.exclude",
	"workers":         "site.workers",
	"title":           "site.title",
	"backend":         "conversion.backend",
	"ifcconvert":      "conversion.binary",
	"image":           "conversion.image",
	"convert-arg":     "conversion.extra_args",
	"convert-timeout": "conversion.timeout",
	"catalog":         "catalog.path",
}

func addSiteFlags(cmd *cobra.Command) {
	cmd.Flags().String("ifc-dir", "ifc", "directory with .ifc inputs")
	cmd.Flags().String("site-dir", "site", "output directory published to GitHub Pages")
	cmd.Flags().String("viewer-template", "", "viewer HTML file or asset directory (default: built-in viewer)")
	cmd.Flags().String("root-template", "", "listing page template (default: built-in page)")
	cmd.Flags().StringSlice("include", nil, "only build files matching these glob patterns")
	cmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
	cmd.Flags().Int("workers", 1, "models converted concurrently")
	cmd.Flags().String("title", "IFC models", "title of the listing page")
	addConversionFlags(cmd)
	cmd.Flags().String("catalog", catalog.DefaultPath, "catalog database path")
}

func addConversionFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", string(types.BackendLocal), "where IfcConvert runs: local or container")
	cmd.Flags().String("ifcconvert", "", "path to IfcConvert (default: $IFCCONVERT_BIN, then PATH)")
	cmd.Flags().String("image", "", "container image providing IfcConvert (container backend)")
	cmd.Flags().StringSlice("convert-arg", nil, "extra argument passed to IfcConvert (repeatable)")
	cmd.Flags().Duration("convert-timeout", 0, "per-model conversion timeout (0 = none)")
}

func siteConfig() types.SiteConfig {
	return types.SiteConfig{
		IFCDir:         viper.GetString("site.ifc_dir"),
		SiteDir:        viper.GetString("site.site_dir"),
		ViewerTemplate: viper.GetString("site.viewer_template"),
		RootTemplate:   viper.GetString("site.root_template"),
		Include:        viper.GetStringSlice("site.include"),
		Exclude:        viper.GetStringSlice("site.exclude"),
		Workers:        viper.GetInt("site.workers"),
		Incremental:    viper.GetBool("site.incremental"),
		Title:          viper.GetString("site.title"),
	}
}

func conversionConfig() types.ConversionConfig {
	return types.ConversionConfig{
		Backend:   types.ConversionBackend(viper.GetString("conversion.backend")),
		Binary:    viper.GetString("conversion.binary"),
		Image:     viper.GetString("conversion.image"),
		ExtraArgs: viper.GetStringSlice("conversion.extra_args"),
		Timeout:   viper.GetDuration("conversion.timeout"),
	}
}

func fetchConfig() types.FetchConfig {
	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("fetch.timeout"),
			UserAgent: viper.GetString("fetch.user_agent"),
		},
		IFCDir:        viper.GetString("site.ifc_dir"),
		DownloadDelay: viper.GetDuration("fetch.download_delay"),
		MaxRetries:    viper.GetInt("fetch.max_retries"),
		Token:         viper.GetString("fetch.token"),
	}
}

func catalogConfig() types.CatalogConfig {
	return types.CatalogConfig{
		Path:       viper.GetString("catalog.path"),
		MaxResults: viper.GetInt("catalog.max_results"),
	}
}

func watchConfig() types.WatchConfig {
	return types.WatchConfig{
		Debounce: viper.GetDuration("watch.debounce"),
	}
}
