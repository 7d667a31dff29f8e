package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ifc-pages/internal/fetch"
	"github.com/pdiddy/ifc-pages/internal/secrets"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [urls...]",
	Short: "Download IFC files into the input directory",
	Long: `Fetch downloads IFC models over HTTP(S) into the input directory, for files
too large to upload through the browser. Existing files are skipped,
throttled requests (HTTP 429/503) are retried with backoff, and a bearer
token is read from .secrets/download-token when --token is not given.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("ifc-dir", "ifc", "directory to download into")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 1s)")
	fetchCmd.Flags().Int("max-retries", 5, "retries for throttled requests")
	fetchCmd.Flags().String("token", "", "bearer token sent with each request")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more IFC file URLs")
	}
	if err := bindFlags(cmd, map[string]string{
		"ifc-dir":     "site.ifc_dir",
		"timeout":     "fetch.timeout",
		"delay":       "fetch.download_delay",
		"max-retries": "fetch.max_retries",
	}); err != nil {
		return err
	}

	cfg := fetchConfig()
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.DownloadDelay == 0 {
		cfg.DownloadDelay = defaultDelay
	}
	token, _ := cmd.Flags().GetString("token")
	cfg.Token = secrets.Resolve(loadedSecrets, secrets.DownloadToken, token, cfg.Token)

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	result := fetch.Batch(cmd.Context(), client, args, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed to download", result.Failed)
	}
	return nil
}
