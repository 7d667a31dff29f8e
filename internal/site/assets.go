// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	cp "github.com/otiai10/copy"

	"github.com/pdiddy/ifc-pages/pkg/types"
)

//go:embed assets/viewer assets/root/index.html.tmpl
var assets embed.FS

const (
	viewerRoot   = "assets/viewer"
	rootTemplate = "assets/root/index.html.tmpl"
	viewerIndex  = "index.html"
)

// viewer is the set of files copied into every model directory.
type viewer struct {
	// src is a directory whose contents are copied, or a single file
	// copied as index.html.
	src   string
	isDir bool
	// cleanup removes a staged copy of the embedded viewer.
	cleanup func()
}

// loadViewer resolves the viewer assets. An empty override stages the
// embedded viewer in a temporary directory. An override may be a single
// HTML file or a directory that contains index.html.
func loadViewer(override string) (*viewer, error) {
	if override == "" {
		dir, err := os.MkdirTemp("", "ifc-pages-viewer-*")
		if err != nil {
			return nil, fmt.Errorf("staging viewer: %w", err)
		}
		if err := writeFS(assets, viewerRoot, dir); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("staging viewer: %w", err)
		}
		return &viewer{src: dir, isDir: true, cleanup: func() { os.RemoveAll(dir) }}, nil
	}

	info, err := os.Stat(override)
	if err != nil {
		return nil, fmt.Errorf("viewer template not found: %w", err)
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(override, viewerIndex)); err != nil {
			return nil, fmt.Errorf("viewer template directory %s has no %s", override, viewerIndex)
		}
		return &viewer{src: override, isDir: true, cleanup: func() {}}, nil
	}
	return &viewer{src: override, cleanup: func() {}}, nil
}

// install copies the viewer into dir.
func (v *viewer) install(dir string) error {
	dest := dir
	if !v.isDir {
		dest = filepath.Join(dir, viewerIndex)
	}
	if err := cp.Copy(v.src, dest); err != nil {
		return fmt.Errorf("copying viewer: %w", err)
	}
	return nil
}

// writeFS materializes the subtree root of fsys under dir.
func writeFS(fsys fs.FS, root, dir string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, root), "/")
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// rootPage is the data passed to the listing template.
type rootPage struct {
	Title  string
	Models []types.ModelEntry
}

// loadRootTemplate parses the listing page, from override when given.
func loadRootTemplate(override string) (*template.Template, error) {
	if override == "" {
		return template.ParseFS(assets, rootTemplate)
	}
	if _, err := os.Stat(override); err != nil {
		return nil, fmt.Errorf("root template not found: %w", err)
	}
	t, err := template.ParseFiles(override)
	if err != nil {
		return nil, fmt.Errorf("parsing root template: %w", err)
	}
	return t, nil
}

func renderRoot(t *template.Template, page rootPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("rendering root index: %w", err)
	}
	return buf.Bytes(), nil
}
