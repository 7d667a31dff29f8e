// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch rebuilds the site when .ifc files in the input directory
// change.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/ifc-pages/internal/site"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc runs one build. Its error is reported and watching continues.
type RebuildFunc func(ctx context.Context) error

// Relevant reports whether ev concerns an input model: a create, write,
// remove or rename of a visible .ifc file.
func Relevant(ev fsnotify.Event) bool {
	if !site.IsIFC(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) ||
		ev.Has(fsnotify.Rename)
}

// Run watches dir until ctx is cancelled. After a relevant event it waits
// for debounce without further events, then calls rebuild. Builds never
// overlap: events that arrive during a build schedule one more build.
func Run(ctx context.Context, dir string, debounce time.Duration, rebuild RebuildFunc, w io.Writer) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	fmt.Fprintf(w, "watching: %s (debounce %v)\n", dir, debounce)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !Relevant(ev) {
				continue
			}
			fmt.Fprintf(w, "changed: %s (%s)\n", filepath.Base(ev.Name), ev.Op)
			pending = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "warning: watcher: %v\n", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := rebuild(ctx); err != nil {
				fmt.Fprintf(w, "warning: rebuild failed: %v\n", err)
			}

		case <-ctx.Done():
			fmt.Fprintln(w, "watch stopped")
			return nil
		}
	}
}
