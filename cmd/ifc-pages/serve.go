package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the generated site over HTTP",
	Long: `Serve publishes the site directory on a local HTTP server so the viewer
can fetch model.glb and metadata.json the way it does on GitHub Pages.
Opening index.html from disk does not work because browsers block those
requests for file:// pages.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("site-dir", "site", "directory to serve")
	serveCmd.Flags().String("addr", "127.0.0.1:8000", "listen address")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{"site-dir": "site.site_dir"}); err != nil {
		return err
	}
	dir := viper.GetString("site.site_dir")
	addr, _ := cmd.Flags().GetString("addr")

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("site directory %s: %w (run ifc-pages build first)", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(dir)))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stdout, "serving: %s at http://%s/ (Ctrl-C to stop)\n", dir, addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving %s: %w", dir, err)
	}
	return nil
}
