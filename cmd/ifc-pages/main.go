// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ifc-pages CLI.
// ifc-pages turns the .ifc files under ifc/ into a static site: one viewer
// page per model with model.glb and metadata.json, plus a root listing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ifc-pages/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the ifc-pages CLI.
var rootCmd = &cobra.Command{
	Use:   "ifc-pages",
	Short: "Publish IFC building models as a static 3D viewer site",
	Long: `ifc-pages converts IFC (Industry Foundation Classes) models into a static
site for GitHub Pages. Each file under ifc/ becomes site/<model>/ with a
Three.js viewer, model.glb produced by IfcConvert, and metadata.json with
element properties keyed by GlobalId. The site root lists every model.

Geometry conversion is delegated to IfcConvert, run from the host or from
a docker/podman image.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ifc-pages.yaml or ~/.config/ifc-pages/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ifc-pages")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ifc-pages"))
		}
	}

	viper.SetEnvPrefix("IFC_PAGES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
