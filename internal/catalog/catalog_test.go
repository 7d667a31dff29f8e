package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ifc-pages/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := types.CatalogConfig{
		Path:       filepath.Join(t.TempDir(), "state", "catalog.db"),
		MaxResults: 20,
	}
	store, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func str(s string) *string { return &s }

func sampleModel(slug string) types.Model {
	return types.Model{
		Slug:       slug,
		Name:       "Casa " + slug,
		SourcePath: "ifc/" + slug + ".ifc",
		SHA256:     "abc123",
		Schema:     "IFC4",
		Updated:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Status:     types.StatusBuilt,
	}
}

func sampleMetadata() types.Metadata {
	return types.Metadata{
		"2O2Fr$t4X7Zf8NOew3FLOH": {
			Type:   "IfcWallStandardCase",
			Name:   str("Parede externa"),
			Tag:    str("W-01"),
			Storey: str("Térreo"),
			Psets: map[string]types.PropertySet{
				"Pset_WallCommon": {"FireRating": "EI 60", "IsExternal": true, "id": 45},
			},
		},
		"1hOSvn6df7F8_7GcBWlRGQ": {
			Type:   "IfcDoor",
			Name:   str("Porta principal"),
			Storey: str("Térreo"),
			Psets:  map[string]types.PropertySet{},
		},
		"0DWgwt6o1FOx7466fPk$jl": {
			Type:   "IfcSlab",
			Name:   str("Laje"),
			Storey: str("Upper Floor"),
			Psets:  map[string]types.PropertySet{},
		},
	}
}

// --- schema tests ---

func TestOpenCreatesSchema(t *testing.T) {
	store := testStore(t)

	tables := []string{"models", "elements"}
	if store.FullText() {
		tables = append(tables, "elements_fts")
	}
	for _, table := range tables {
		var count int
		err := store.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
	if _, err := os.Stat(store.Path()); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestOpenTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	for i := 0; i < 2; i++ {
		store, err := Open(types.CatalogConfig{Path: path})
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		store.Close()
	}
}

// --- model tests ---

func TestRecordModel(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.RecordModel(ctx, sampleModel("casa"), sampleMetadata()); err != nil {
		t.Fatal(err)
	}

	m, err := store.Model(ctx, "casa")
	if err != nil {
		t.Fatal(err)
	}
	if m == nil {
		t.Fatal("model not found")
	}
	if m.ElementCount != 3 {
		t.Errorf("ElementCount = %d, want 3", m.ElementCount)
	}
	if m.Schema != "IFC4" {
		t.Errorf("Schema = %q, want IFC4", m.Schema)
	}
	if !m.Updated.Equal(sampleModel("casa").Updated) {
		t.Errorf("Updated = %v", m.Updated)
	}
	if m.Status != types.StatusBuilt {
		t.Errorf("Status = %q", m.Status)
	}
}

func TestRecordModelReplacesElements(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.RecordModel(ctx, sampleModel("casa"), sampleMetadata()); err != nil {
		t.Fatal(err)
	}
	md := types.Metadata{"3abc": {Type: "IfcBeam", Psets: map[string]types.PropertySet{}}}
	if err := store.RecordModel(ctx, sampleModel("casa"), md); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(ctx, SearchOptions{Model: "casa"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].GUID != "3abc" {
		t.Errorf("results = %+v, want only 3abc", results)
	}
}

func TestModelHash(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if _, ok, err := store.ModelHash(ctx, "missing"); err != nil || ok {
		t.Errorf("ModelHash(missing) = ok %v, err %v", ok, err)
	}

	if err := store.RecordModel(ctx, sampleModel("casa"), nil); err != nil {
		t.Fatal(err)
	}
	digest, ok, err := store.ModelHash(ctx, "casa")
	if err != nil || !ok || digest != "abc123" {
		t.Errorf("ModelHash(casa) = %q, %v, %v", digest, ok, err)
	}

	failed := sampleModel("casa")
	failed.Status = types.StatusFailed
	if err := store.RecordModel(ctx, failed, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.ModelHash(ctx, "casa"); ok {
		t.Error("failed model should have no recorded hash")
	}
}

func TestModelsAndRemove(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for _, slug := range []string{"zeta", "alpha"} {
		if err := store.RecordModel(ctx, sampleModel(slug), sampleMetadata()); err != nil {
			t.Fatal(err)
		}
	}

	models, err := store.Models(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(models) != 2 || models[0].Slug != "alpha" || models[1].Slug != "zeta" {
		t.Fatalf("Models = %+v, want alpha, zeta", models)
	}

	if err := store.RemoveModel(ctx, "zeta"); err != nil {
		t.Fatal(err)
	}
	models, _ = store.Models(ctx)
	if len(models) != 1 {
		t.Errorf("got %d models after remove, want 1", len(models))
	}
	results, _ := store.Search(ctx, SearchOptions{Model: "zeta"})
	if len(results) != 0 {
		t.Errorf("elements of removed model still present: %d", len(results))
	}
}

// --- search tests ---

func TestSearch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if err := store.RecordModel(ctx, sampleModel("casa"), sampleMetadata()); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordModel(ctx, sampleModel("escola"), sampleMetadata()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		opts SearchOptions
		want int
	}{
		{"everything", SearchOptions{}, 6},
		{"by model", SearchOptions{Model: "casa"}, 3},
		{"by exact type", SearchOptions{Type: "IfcDoor"}, 2},
		{"by supertype", SearchOptions{Type: "IfcWall", Model: "casa"}, 1},
		{"by storey", SearchOptions{Storey: "Upper Floor"}, 2},
		{"name term", SearchOptions{Query: "Porta"}, 2},
		{"quoted tag", SearchOptions{Query: `"W-01"`, Model: "escola"}, 1},
		{"property value", SearchOptions{Query: "EI", Model: "casa"}, 1},
		{"no match", SearchOptions{Query: "xyzzy"}, 0},
		{"limit", SearchOptions{MaxResults: 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Search(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != tt.want {
				t.Errorf("got %d results, want %d", len(results), tt.want)
			}
		})
	}
}

// punctuatedMetadata holds names, tags and property values whose
// punctuation collides with FTS5 query syntax or LIKE wildcards.
func punctuatedMetadata() types.Metadata {
	return types.Metadata{
		"3vB2YO$MX4xv5uCqZZG05x": {
			Type: "IfcDoor",
			Name: str("Porta corta-fogo"),
			Tag:  str("D-101"),
			Psets: map[string]types.PropertySet{
				"Pset_DoorCommon": {"FireRating": "EI-30", "Width": 1.5},
			},
		},
		"2O2Fr$t4X7Zf8NOew3FLOH": {
			Type:  "IfcWall",
			Name:  str("Parede 100%"),
			Tag:   str("W-01"),
			Psets: map[string]types.PropertySet{},
		},
		"0DWgwt6o1FOx7466fPk$jl": {
			Type:  "IfcSlab",
			Name:  str("Laje"),
			Tag:   str("S.1"),
			Psets: map[string]types.PropertySet{},
		},
	}
}

// runPunctuatedSearch checks queries that must behave the same with and
// without FTS5.
func runPunctuatedSearch(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	if err := store.RecordModel(ctx, sampleModel("obra"), punctuatedMetadata()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"D-101", 1},
		{"W-01", 1},
		{`"W-01"`, 1},
		{`W-01"`, 1},
		{"S.1", 1},
		{"1.5", 1},
		{"EI-30", 1},
		{"100%", 1},
		{"corta-fogo D-101", 1},
		{"corta-fogo W-01", 0},
		{"NOT", 0},
		{`"`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := store.Search(ctx, SearchOptions{Query: tt.query})
			if err != nil {
				t.Fatalf("search %q: %v", tt.query, err)
			}
			if len(results) != tt.want {
				t.Errorf("search %q: got %d results, want %d", tt.query, len(results), tt.want)
			}
		})
	}
}

func TestSearchPunctuatedTerms(t *testing.T) {
	runPunctuatedSearch(t, testStore(t))
}

func TestSearchLikeWildcardsAreLiteral(t *testing.T) {
	store := testStore(t)
	if store.FullText() {
		t.Skip("substring search only runs without FTS5")
	}
	ctx := context.Background()
	if err := store.RecordModel(ctx, sampleModel("obra"), punctuatedMetadata()); err != nil {
		t.Fatal(err)
	}
	for _, q := range []string{"W_01", "D%1", `Porta\`} {
		results, err := store.Search(ctx, SearchOptions{Query: q})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 0 {
			t.Errorf("search %q: got %d results, want 0", q, len(results))
		}
	}
}

func TestFTSQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"W-01", `"W-01"`},
		{`"W-01"`, `"W-01"`},
		{"corta-fogo  D-101", `"corta-fogo" "D-101"`},
		{"NOT 1.5", `"NOT" "1.5"`},
		{`a"b`, `"a""b"`},
	}
	for _, tt := range tests {
		if got := ftsQuery(tt.in); got != tt.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"W-01", "%W-01%"},
		{"100%", `%100\%%`},
		{"W_01", `%W\_01%`},
		{`a\b`, `%a\\b%`},
	}
	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearchRestoresFields(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if err := store.RecordModel(ctx, sampleModel("casa"), sampleMetadata()); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(ctx, SearchOptions{Type: "IfcWallStandardCase"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.GUID != "2O2Fr$t4X7Zf8NOew3FLOH" || r.Model != "casa" {
		t.Errorf("GUID/Model = %q/%q", r.GUID, r.Model)
	}
	if r.Tag == nil || *r.Tag != "W-01" {
		t.Errorf("Tag = %v", r.Tag)
	}
	if r.Storey == nil || *r.Storey != "Térreo" {
		t.Errorf("Storey = %v", r.Storey)
	}
	if got := r.Psets["Pset_WallCommon"]["FireRating"]; got != "EI 60" {
		t.Errorf("FireRating = %v", got)
	}

	door, _ := store.Search(ctx, SearchOptions{Type: "IfcDoor"})
	if len(door) != 1 || door[0].Tag != nil {
		t.Errorf("door tag should be null: %+v", door)
	}
}

func TestTypeCounts(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	store.RecordModel(ctx, sampleModel("casa"), sampleMetadata())
	store.RecordModel(ctx, sampleModel("escola"), sampleMetadata())

	counts, err := store.TypeCounts(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if counts["IfcDoor"] != 2 {
		t.Errorf("IfcDoor = %d, want 2", counts["IfcDoor"])
	}
	counts, _ = store.TypeCounts(ctx, "casa")
	if counts["IfcSlab"] != 1 {
		t.Errorf("IfcSlab in casa = %d, want 1", counts["IfcSlab"])
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	store.RecordModel(ctx, sampleModel("casa"), sampleMetadata())

	path, err := store.ExportYAML(ctx, "", SearchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "export.yaml" || filepath.Dir(path) != filepath.Dir(store.Path()) {
		t.Errorf("export path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc Export
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Models) != 1 || len(doc.Elements) != 3 {
		t.Errorf("export has %d models and %d elements", len(doc.Models), len(doc.Elements))
	}
	if !strings.Contains(string(data), "guid: 2O2Fr$t4X7Zf8NOew3FLOH") {
		t.Errorf("element GUID not inlined in YAML:\n%s", data)
	}
}

func TestExportJSONFiltered(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	store.RecordModel(ctx, sampleModel("casa"), sampleMetadata())
	store.RecordModel(ctx, sampleModel("escola"), sampleMetadata())

	out := filepath.Join(t.TempDir(), "doors.json")
	path, err := store.ExportJSON(ctx, out, SearchOptions{Model: "escola", Type: "IfcDoor"})
	if err != nil {
		t.Fatal(err)
	}
	if path != out {
		t.Errorf("path = %s, want %s", path, out)
	}

	data, _ := os.ReadFile(out)
	var doc struct {
		Models   []map[string]any `json:"models"`
		Elements []map[string]any `json:"elements"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Models) != 1 || doc.Models[0]["slug"] != "escola" {
		t.Errorf("models = %v", doc.Models)
	}
	if len(doc.Elements) != 1 || doc.Elements[0]["type"] != "IfcDoor" {
		t.Errorf("elements = %v", doc.Elements)
	}
}
