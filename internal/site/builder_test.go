// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package site

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ifc-pages/internal/catalog"
	"github.com/pdiddy/ifc-pages/pkg/types"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 45, 0, time.UTC)

// fakeConverter writes a minimal GLB for every input not listed in fail.
type fakeConverter struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *fakeConverter) Name() string { return "fake" }

func (f *fakeConverter) Convert(_ context.Context, ifcPath, glbPath string) error {
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(ifcPath))
	f.mu.Unlock()
	if f.fail[filepath.Base(ifcPath)] {
		return errors.New("IfcConvert: exit status 1")
	}
	return os.WriteFile(glbPath, minimalGLB(), 0o644)
}

func minimalGLB() []byte {
	doc := []byte(`{"asset":{"version":"2.0"}}`)
	for len(doc)%4 != 0 {
		doc = append(doc, ' ')
	}
	var b bytes.Buffer
	for _, v := range []uint32{0x46546C67, 2, uint32(20 + len(doc)), uint32(len(doc)), 0x4E4F534A} {
		binary.Write(&b, binary.LittleEndian, v)
	}
	b.Write(doc)
	return b.Bytes()
}

type fixture struct {
	root  string
	cfg   types.SiteConfig
	conv  *fakeConverter
	store *catalog.Store
	log   *bytes.Buffer
}

func newFixture(t *testing.T, files ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	ifcDir := filepath.Join(root, "ifc")
	require.NoError(t, os.MkdirAll(ifcDir, 0o755))

	house, err := os.ReadFile(filepath.Join("..", "ifc", "testdata", "house.ifc"))
	require.NoError(t, err)
	for _, name := range files {
		require.NoError(t, os.WriteFile(filepath.Join(ifcDir, name), house, 0o644))
	}

	store, err := catalog.Open(types.CatalogConfig{Path: filepath.Join(root, ".ifc-pages", "catalog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return &fixture{
		root: root,
		cfg: types.SiteConfig{
			IFCDir:  ifcDir,
			SiteDir: filepath.Join(root, "site"),
		},
		conv:  &fakeConverter{fail: map[string]bool{}},
		store: store,
		log:   &bytes.Buffer{},
	}
}

func (f *fixture) build(t *testing.T) Result {
	t.Helper()
	b := NewBuilder(f.cfg, f.conv, f.store, f.log)
	b.now = func() time.Time { return fixedNow }
	res, err := b.Build(context.Background())
	require.NoError(t, err, f.log.String())
	return res
}

func (f *fixture) site(parts ...string) string {
	return filepath.Join(append([]string{f.cfg.SiteDir}, parts...)...)
}

func readEntries(t *testing.T, path string) []types.ModelEntry {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entries []types.ModelEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func TestBuild_Clean(t *testing.T) {
	f := newFixture(t, "Casa Modelo.ifc", "Edifício Central.IFC", "anexo.ifc")
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.IFCDir, "notes.txt"), []byte("x"), 0o644))

	// Leftovers from an earlier build disappear in clean mode.
	require.NoError(t, os.MkdirAll(f.site("old-model"), 0o755))

	res := f.build(t)
	assert.Equal(t, 3, res.Built)
	assert.False(t, res.HasFailures())
	assert.NoError(t, res.Err())
	assert.NoDirExists(t, f.site("old-model"))

	for _, slug := range []string{"casa-modelo", "edificio-central", "anexo"} {
		assert.FileExists(t, f.site(slug, GLBFile))
		assert.FileExists(t, f.site(slug, MetadataFile))
		assert.FileExists(t, f.site(slug, IndexFile))
		assert.FileExists(t, f.site(slug, "viewer.js"))
	}
	assert.FileExists(t, f.site(NoJekyllFile))

	entries := readEntries(t, f.site(ModelsFile))
	assert.Equal(t, []types.ModelEntry{
		{Name: "Casa Modelo", Path: "casa-modelo", Updated: "2026-03-14 09:30 UTC"},
		{Name: "Edifício Central", Path: "edificio-central", Updated: "2026-03-14 09:30 UTC"},
		{Name: "anexo", Path: "anexo", Updated: "2026-03-14 09:30 UTC"},
	}, entries)

	raw, err := os.ReadFile(f.site(ModelsFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Edifício Central", "non-ASCII names are written as-is")
	assert.Contains(t, string(raw), "\n  {", "models.json is indented")

	index, err := os.ReadFile(f.site(IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<a href="casa-modelo/">Casa Modelo</a>`)
	assert.Contains(t, string(index), "<title>IFC models</title>")
}

func TestBuild_MetadataContent(t *testing.T) {
	f := newFixture(t, "house.ifc")
	f.build(t)

	data, err := os.ReadFile(f.site("house", MetadataFile))
	require.NoError(t, err)
	var md types.Metadata
	require.NoError(t, json.Unmarshal(data, &md))
	assert.Len(t, md, 8)
	assert.Contains(t, string(data), "Térreo")

	m, err := f.store.Model(context.Background(), "house")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "IFC4", m.Schema)
	assert.Equal(t, 8, m.ElementCount)
	assert.Equal(t, types.StatusBuilt, m.Status)
}

func TestBuild_MissingInputDir(t *testing.T) {
	f := newFixture(t)
	f.cfg.IFCDir = filepath.Join(f.root, "nope")

	res := f.build(t)
	assert.Zero(t, res.Total())
	assert.Contains(t, f.log.String(), "does not exist, nothing to do")
	assert.NoDirExists(t, f.cfg.SiteDir)
}

func TestBuild_EmptyInputDir(t *testing.T) {
	f := newFixture(t)
	res := f.build(t)
	assert.Zero(t, res.Total())
	assert.Empty(t, readEntries(t, f.site(ModelsFile)))

	index, err := os.ReadFile(f.site(IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(index), "No models yet")
}

func TestBuild_MissingTemplates(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *types.SiteConfig, root string)
		want   string
	}{
		{
			name:   "viewer file",
			modify: func(cfg *types.SiteConfig, root string) { cfg.ViewerTemplate = filepath.Join(root, "viewer", "index.html") },
			want:   "viewer template not found",
		},
		{
			name:   "root file",
			modify: func(cfg *types.SiteConfig, root string) { cfg.RootTemplate = filepath.Join(root, "viewer", "root_index.html") },
			want:   "root template not found",
		},
		{
			name: "viewer dir without index",
			modify: func(cfg *types.SiteConfig, root string) {
				os.MkdirAll(filepath.Join(root, "viewer-assets"), 0o755)
				cfg.ViewerTemplate = filepath.Join(root, "viewer-assets")
			},
			want: "has no index.html",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "house.ifc")
			tt.modify(&f.cfg, f.root)

			_, err := NewBuilder(f.cfg, f.conv, f.store, f.log).Build(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, f.conv.calls, "no conversion runs before templates are checked")
		})
	}
}

func TestBuild_TemplateOverrides(t *testing.T) {
	f := newFixture(t, "house.ifc")

	viewerFile := filepath.Join(f.root, "viewer.html")
	require.NoError(t, os.WriteFile(viewerFile, []byte("<p>custom viewer</p>"), 0o644))
	rootFile := filepath.Join(f.root, "root.html")
	require.NoError(t, os.WriteFile(rootFile, []byte(`<h1>{{.Title}}</h1>{{range .Models}}[{{.Path}}]{{end}}`), 0o644))
	f.cfg.ViewerTemplate = viewerFile
	f.cfg.RootTemplate = rootFile
	f.cfg.Title = "Projetos"

	f.build(t)

	viewer, err := os.ReadFile(f.site("house", IndexFile))
	require.NoError(t, err)
	assert.Equal(t, "<p>custom viewer</p>", string(viewer))
	assert.NoFileExists(t, f.site("house", "viewer.js"))

	root, err := os.ReadFile(f.site(IndexFile))
	require.NoError(t, err)
	assert.Equal(t, "<h1>Projetos</h1>[house]", string(root))
}

func TestBuild_ViewerDirectoryOverride(t *testing.T) {
	f := newFixture(t, "house.ifc")
	dir := filepath.Join(f.root, "viewer")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("viewer"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib", "app.js"), []byte("app"), 0o644))
	f.cfg.ViewerTemplate = dir

	f.build(t)
	assert.FileExists(t, f.site("house", "index.html"))
	assert.FileExists(t, f.site("house", "lib", "app.js"))
}

func TestBuild_FailedModelExcluded(t *testing.T) {
	f := newFixture(t, "a.ifc", "b.ifc", "c.ifc")
	f.conv.fail["b.ifc"] = true

	res := f.build(t)
	assert.Equal(t, 2, res.Built)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, res.HasFailures())
	require.Error(t, res.Err())
	assert.Contains(t, res.Err().Error(), "b: IfcConvert: exit status 1")

	assert.NoDirExists(t, f.site("b"))
	entries := readEntries(t, f.site(ModelsFile))
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Path)
	assert.Equal(t, "c", entries[1].Path)
	assert.Contains(t, f.log.String(), "failed:  b")

	m, err := f.store.Model(context.Background(), "b")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, types.StatusFailed, m.Status)
}

func TestBuild_UnparseableMetadata(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.IFCDir, "broken.ifc"), []byte("not step at all"), 0o644))

	res := f.build(t)
	assert.Equal(t, 1, res.Built)

	data, err := os.ReadFile(f.site("broken", MetadataFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
	assert.Contains(t, f.log.String(), "warning: metadata extraction failed")
}

func TestBuild_TruncatedInputKeepsMetadata(t *testing.T) {
	f := newFixture(t)
	house, err := os.ReadFile(filepath.Join("..", "ifc", "testdata", "house.ifc"))
	require.NoError(t, err)
	cut := bytes.Index(house, []byte("#24=IFCFURNITURE($,$,'Sem"))
	require.Positive(t, cut)
	partial := append(house[:cut:cut], []byte("#24=IFCFURNITURE($,$,'Sem")...)
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.IFCDir, "partial.ifc"), partial, 0o644))

	res := f.build(t)
	assert.Equal(t, 1, res.Built)

	data, err := os.ReadFile(f.site("partial", MetadataFile))
	require.NoError(t, err)
	var md map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &md))
	assert.Contains(t, md, "2O2Fr$t4X7Zf8NOew3FLOH", "wall before the cut")
	assert.Contains(t, md, "0DWgwt6o1FOx7466fPk$jl", "slab before the cut")
	assert.NotContains(t, md, "2YvctVUKr0kugbFTf53O9M", "space after the cut")
	assert.Contains(t, f.log.String(), "warning: partial is truncated")
}

func TestBuild_Incremental(t *testing.T) {
	f := newFixture(t, "a.ifc", "b.ifc")
	f.cfg.Incremental = true

	first := f.build(t)
	assert.Equal(t, 2, first.Built)
	assert.Len(t, f.conv.calls, 2)

	// Nothing changed: both skipped, listing unchanged.
	second := f.build(t)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, f.conv.calls, 2)
	assert.Len(t, readEntries(t, f.site(ModelsFile)), 2)

	// Changed input and a deleted output are rebuilt; a removed input is dropped.
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.IFCDir, "a.ifc"), []byte("ISO-10303-21;\nDATA;\nENDSEC;\nEND-ISO-10303-21;\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(f.cfg.IFCDir, "b.ifc")))
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.IFCDir, "c.ifc"), []byte("ISO-10303-21;\nDATA;\nENDSEC;\n"), 0o644))

	third := f.build(t)
	assert.Equal(t, 2, third.Built)
	assert.Equal(t, 0, third.Skipped)
	assert.NoDirExists(t, f.site("b"))
	assert.Contains(t, f.log.String(), "removed: b (input gone)")

	entries := readEntries(t, f.site(ModelsFile))
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Path)
	assert.Equal(t, "c", entries[1].Path)

	require.NoError(t, os.Remove(f.site("c", GLBFile)))
	fourth := f.build(t)
	assert.Equal(t, 1, fourth.Built)
	assert.Equal(t, 1, fourth.Skipped)
	assert.FileExists(t, f.site("c", GLBFile))
}

func TestBuild_IncrementalRetriesFailures(t *testing.T) {
	f := newFixture(t, "a.ifc")
	f.cfg.Incremental = true
	f.conv.fail["a.ifc"] = true

	assert.Equal(t, 1, f.build(t).Failed)

	delete(f.conv.fail, "a.ifc")
	res := f.build(t)
	assert.Equal(t, 1, res.Built)
}

func TestBuild_IncrementalNeedsCatalog(t *testing.T) {
	f := newFixture(t, "a.ifc")
	f.cfg.Incremental = true

	_, err := NewBuilder(f.cfg, f.conv, nil, f.log).Build(context.Background())
	assert.ErrorContains(t, err, "need the catalog")
}

func TestBuild_ParallelMatchesSequential(t *testing.T) {
	names := []string{"e.ifc", "a.ifc", "d.ifc", "b.ifc", "c.ifc"}
	f := newFixture(t, names...)
	f.cfg.Workers = 4

	res := f.build(t)
	assert.Equal(t, 5, res.Built)

	var slugs []string
	for _, e := range readEntries(t, f.site(ModelsFile)) {
		slugs = append(slugs, e.Path)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, slugs)
}

func TestBuild_WithoutCatalog(t *testing.T) {
	f := newFixture(t, "a.ifc")
	b := NewBuilder(f.cfg, f.conv, nil, f.log)
	res, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Built)
}

func TestBuild_Filters(t *testing.T) {
	f := newFixture(t, "casa-1.ifc", "casa-2.ifc", "escola.ifc", "casa-rascunho.ifc")
	f.cfg.Include = []string{"casa-*"}
	f.cfg.Exclude = []string{"*rascunho*"}

	res := f.build(t)
	assert.Equal(t, 2, res.Built)
	assert.ElementsMatch(t, []string{"casa-1.ifc", "casa-2.ifc"}, f.conv.calls)
}

func TestBuild_BadPattern(t *testing.T) {
	f := newFixture(t, "a.ifc")
	f.cfg.Include = []string{"[a-"}
	_, err := NewBuilder(f.cfg, f.conv, f.store, f.log).Build(context.Background())
	assert.ErrorContains(t, err, "invalid include pattern")
}
