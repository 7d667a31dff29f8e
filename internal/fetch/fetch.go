// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads IFC files into the input directory. It exists
// for models too large for a browser upload to the repository: the file
// lands in the input directory exactly as an upload would.
package fetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/ifc-pages/internal/httputil"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

// stepMagic opens every STEP physical file.
const stepMagic = "ISO-10303-21"

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Files      []string
}

// Total returns the total number of URLs processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// File downloads rawURL into cfg.IFCDir. The file name comes from the URL
// path or, failing that, from the Content-Disposition header, and must end
// in .ifc. An existing file with the same name is left alone and reported
// as skipped.
func File(ctx context.Context, client *http.Client, rawURL string, cfg types.FetchConfig, w io.Writer) (dest string, skipped bool, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false, fmt.Errorf("not an http(s) URL: %q", rawURL)
	}

	name := nameFromURL(u)
	if name != "" {
		dest = filepath.Join(cfg.IFCDir, name)
		if _, err := os.Stat(dest); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
			return dest, true, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries, w)
	if err != nil {
		return "", false, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	if name == "" {
		name = nameFromDisposition(resp.Header.Get("Content-Disposition"))
		if name == "" {
			return "", false, fmt.Errorf("cannot determine an .ifc file name for %s", rawURL)
		}
		dest = filepath.Join(cfg.IFCDir, name)
		if _, err := os.Stat(dest); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
			return dest, true, nil
		}
	}

	if err := os.MkdirAll(cfg.IFCDir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating directory %s: %w", cfg.IFCDir, err)
	}

	fmt.Fprintf(w, "downloading: %s (%s)\n", name, u.Host)
	if err := save(resp.Body, dest); err != nil {
		return "", false, fmt.Errorf("downloading %s: %w", name, err)
	}
	return dest, false, nil
}

// Batch downloads every URL, printing per-item status and returning a
// summary. It continues after individual failures and applies
// cfg.DownloadDelay between consecutive requests.
func Batch(ctx context.Context, client *http.Client, urls []string, cfg types.FetchConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, u := range urls {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", u, ctx.Err())
			result.Failed++
			continue
		}
		if i > 0 && cfg.DownloadDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.DownloadDelay):
			}
		}
		dest, skipped, err := File(ctx, client, u, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", u, err)
			result.Failed++
			continue
		}
		if skipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Files = append(result.Files, dest)
	}
	fmt.Fprintf(w, "\nFetch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// save streams body to a temporary file beside destPath and renames it
// into place once the content is complete and looks like a STEP file. A
// half-written file never appears under its final name, so a concurrent
// watch build cannot pick it up.
func save(body io.Reader, destPath string) error {
	br := bufio.NewReader(body)
	head, _ := br.Peek(64)
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(bytes.TrimSpace(head), []byte(stepMagic)) {
		return fmt.Errorf("response is not an IFC (STEP) file")
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, br)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func nameFromURL(u *url.URL) string {
	return ifcName(path.Base(u.Path))
}

func nameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return ifcName(params["filename"])
}

// ifcName returns the base of name when it is a usable .ifc file name.
func ifcName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return ""
	}
	if !strings.EqualFold(filepath.Ext(name), ".ifc") {
		return ""
	}
	return name
}
