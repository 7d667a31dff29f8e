// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package site builds the static site published to GitHub Pages: one
// directory per IFC model holding the viewer, model.glb, and
// metadata.json, plus a root listing backed by models.json.
package site

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/ifc-pages/internal/catalog"
	"github.com/pdiddy/ifc-pages/internal/convert"
	"github.com/pdiddy/ifc-pages/internal/metadata"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

// Output file names.
const (
	GLBFile      = "model.glb"
	MetadataFile = "metadata.json"
	ModelsFile   = "models.json"
	IndexFile    = "index.html"
	NoJekyllFile = ".nojekyll"
)

// Result summarizes a build.
type Result struct {
	Built   int
	Skipped int
	Failed  int

	// Models holds the published models in listing order.
	Models []types.Model

	errs *multierror.Error
}

// Total returns the number of models processed.
func (r Result) Total() int {
	return r.Built + r.Skipped + r.Failed
}

// HasFailures reports whether any model failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Err returns the per-model failures combined, or nil.
func (r Result) Err() error {
	return r.errs.ErrorOrNil()
}

// Builder runs site builds.
type Builder struct {
	cfg   types.SiteConfig
	conv  convert.Converter
	store *catalog.Store
	w     io.Writer
	now   func() time.Time

	mu sync.Mutex
}

// NewBuilder creates a builder. store may be nil for clean builds; it is
// required in incremental mode. Progress is written to w.
func NewBuilder(cfg types.SiteConfig, conv convert.Converter, store *catalog.Store, w io.Writer) *Builder {
	if cfg.IFCDir == "" {
		cfg.IFCDir = "ifc"
	}
	if cfg.SiteDir == "" {
		cfg.SiteDir = "site"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Title == "" {
		cfg.Title = "IFC models"
	}
	return &Builder{cfg: cfg, conv: conv, store: store, w: w, now: time.Now}
}

// outcome is the result of building one input.
type outcome struct {
	model  types.Model
	status types.BuildStatus
	err    error
}

// Build converts every selected input and regenerates the listing.
// Per-model failures do not stop the build; they are counted in the
// Result and excluded from models.json. The returned error covers
// problems that prevent any build: bad templates or patterns, or an
// unusable site directory.
func (b *Builder) Build(ctx context.Context) (Result, error) {
	view, err := loadViewer(b.cfg.ViewerTemplate)
	if err != nil {
		return Result{}, err
	}
	defer view.cleanup()

	rootTmpl, err := loadRootTemplate(b.cfg.RootTemplate)
	if err != nil {
		return Result{}, err
	}

	filter, err := NewFilter(b.cfg.Include, b.cfg.Exclude)
	if err != nil {
		return Result{}, err
	}
	if b.cfg.Incremental && b.store == nil {
		return Result{}, errors.New("incremental builds need the catalog")
	}

	inputs, err := Discover(b.cfg.IFCDir, filter)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(b.w, "info: %s does not exist, nothing to do\n", b.cfg.IFCDir)
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("reading %s: %w", b.cfg.IFCDir, err)
	}

	if err := b.prepareSiteDir(ctx, inputs); err != nil {
		return Result{}, err
	}

	fmt.Fprintf(b.w, "building: %d models with %s (%d workers)\n", len(inputs), b.conv.Name(), b.cfg.Workers)

	outcomes := make([]outcome, len(inputs))
	p := pool.New().WithMaxGoroutines(b.cfg.Workers)
	for i, in := range inputs {
		p.Go(func() {
			var log bytes.Buffer
			outcomes[i] = b.buildModel(ctx, in, view, &log)
			b.mu.Lock()
			b.w.Write(log.Bytes())
			b.mu.Unlock()
		})
	}
	p.Wait()

	var result Result
	for i, o := range outcomes {
		switch o.status {
		case types.StatusBuilt:
			result.Built++
		case types.StatusSkipped:
			result.Skipped++
		case types.StatusFailed:
			result.Failed++
			result.errs = multierror.Append(result.errs, fmt.Errorf("%s: %w", inputs[i].Name, o.err))
			continue
		}
		result.Models = append(result.Models, o.model)
	}

	if err := b.writeListing(rootTmpl, result.Models); err != nil {
		return result, err
	}

	fmt.Fprintf(b.w, "\nBuild summary: %d built, %d skipped, %d failed (total: %d)\n",
		result.Built, result.Skipped, result.Failed, result.Total())
	fmt.Fprintf(b.w, "site: %s\n", b.cfg.SiteDir)
	return result, nil
}

// prepareSiteDir empties the site directory in clean mode. In both modes
// it drops output directories and catalog rows of models whose input is
// gone.
func (b *Builder) prepareSiteDir(ctx context.Context, inputs []Input) error {
	if !b.cfg.Incremental {
		if err := os.RemoveAll(b.cfg.SiteDir); err != nil {
			return fmt.Errorf("cleaning %s: %w", b.cfg.SiteDir, err)
		}
	}
	if err := os.MkdirAll(b.cfg.SiteDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", b.cfg.SiteDir, err)
	}
	if b.store == nil {
		return nil
	}

	current := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		current[in.Slug] = true
	}
	known, err := b.store.Models(ctx)
	if err != nil {
		return err
	}
	for _, m := range known {
		if current[m.Slug] {
			continue
		}
		if b.cfg.Incremental {
			if err := os.RemoveAll(filepath.Join(b.cfg.SiteDir, m.Slug)); err != nil {
				return fmt.Errorf("removing stale %s: %w", m.Slug, err)
			}
			fmt.Fprintf(b.w, "removed: %s (input gone)\n", m.Slug)
		}
		if err := b.store.RemoveModel(ctx, m.Slug); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildModel(ctx context.Context, in Input, view *viewer, w io.Writer) outcome {
	fmt.Fprintf(w, "\n=== %s -> %s ===\n", in.Name, in.Slug)

	model := types.Model{
		Slug:       in.Slug,
		Name:       in.Name,
		SourcePath: in.Path,
	}
	fail := func(err error) outcome {
		fmt.Fprintf(w, "failed:  %s (%v)\n", in.Name, err)
		model.Status = types.StatusFailed
		model.Updated = b.now().UTC()
		if b.store != nil {
			if rerr := b.store.RecordModel(ctx, model, nil); rerr != nil {
				fmt.Fprintf(w, "warning: catalog update failed: %v\n", rerr)
			}
		}
		return outcome{model: model, status: types.StatusFailed, err: err}
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	digest, err := fileSHA256(in.Path)
	if err != nil {
		return fail(err)
	}
	model.SHA256 = digest

	outDir := filepath.Join(b.cfg.SiteDir, in.Slug)

	if b.cfg.Incremental {
		if prev, ok := b.unchanged(ctx, in.Slug, digest, outDir); ok {
			fmt.Fprintf(w, "skipped: %s (unchanged)\n", in.Name)
			return outcome{model: *prev, status: types.StatusSkipped}
		}
	}

	// A rebuilt model never keeps files from an earlier build.
	if err := os.RemoveAll(outDir); err != nil {
		return fail(fmt.Errorf("cleaning %s: %w", outDir, err))
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fail(fmt.Errorf("creating %s: %w", outDir, err))
	}

	if err := b.conv.Convert(ctx, in.Path, filepath.Join(outDir, GLBFile)); err != nil {
		os.RemoveAll(outDir)
		return fail(err)
	}

	fmt.Fprintf(w, "extracting: %s metadata\n", in.Name)
	md, parsed, err := metadata.ExtractFile(in.Path)
	if err != nil {
		fmt.Fprintf(w, "warning: metadata extraction failed, writing empty %s: %v\n", MetadataFile, err)
		md = types.Metadata{}
	} else {
		model.Schema = parsed.Schema()
		if parsed.Truncated() {
			fmt.Fprintf(w, "warning: %s is truncated, metadata covers the %d instances before the cut\n", in.Name, parsed.Len())
		}
	}
	if err := metadata.Write(filepath.Join(outDir, MetadataFile), md); err != nil {
		os.RemoveAll(outDir)
		return fail(err)
	}

	if err := view.install(outDir); err != nil {
		os.RemoveAll(outDir)
		return fail(err)
	}

	model.Status = types.StatusBuilt
	model.Updated = b.now().UTC()
	model.ElementCount = len(md)

	if b.store != nil {
		if err := b.store.RecordModel(ctx, model, md); err != nil {
			fmt.Fprintf(w, "warning: catalog update failed: %v\n", err)
		}
	}
	fmt.Fprintf(w, "built:   %s (%d elements)\n", in.Slug, len(md))
	return outcome{model: model, status: types.StatusBuilt}
}

// unchanged returns the cataloged model when its recorded digest matches
// and every output file is still present.
func (b *Builder) unchanged(ctx context.Context, slug, digest, outDir string) (*types.Model, bool) {
	prev, err := b.store.Model(ctx, slug)
	if err != nil || prev == nil || prev.Status == types.StatusFailed || prev.SHA256 != digest {
		return nil, false
	}
	for _, name := range []string{GLBFile, MetadataFile, IndexFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			return nil, false
		}
	}
	prev.Status = types.StatusSkipped
	return prev, true
}

// writeListing writes models.json, the root index, and .nojekyll.
func (b *Builder) writeListing(rootTmpl *template.Template, models []types.Model) error {
	entries := make([]types.ModelEntry, len(models))
	for i, m := range models {
		entries[i] = m.Entry()
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding %s: %w", ModelsFile, err)
	}
	if err := os.WriteFile(filepath.Join(b.cfg.SiteDir, ModelsFile), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ModelsFile, err)
	}

	page, err := renderRoot(rootTmpl, rootPage{Title: b.cfg.Title, Models: entries})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(b.cfg.SiteDir, IndexFile), page, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", IndexFile, err)
	}

	// GitHub Pages runs Jekyll unless told not to, which hides files
	// starting with an underscore.
	if err := os.WriteFile(filepath.Join(b.cfg.SiteDir, NoJekyllFile), nil, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", NoJekyllFile, err)
	}
	return nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
