//go:build sqlite_fts5

package catalog

import (
	"context"
	"testing"
)

func TestSearchFullTextHyphenatedTags(t *testing.T) {
	store := testStore(t)
	if !store.FullText() {
		t.Fatal("built with sqlite_fts5 but the catalog has no full-text index")
	}
	runPunctuatedSearch(t, store)
}

func TestSearchFullTextRanksTagMatch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if err := store.RecordModel(ctx, sampleModel("obra"), punctuatedMetadata()); err != nil {
		t.Fatal(err)
	}

	results, err := store.Search(ctx, SearchOptions{Query: "D-101"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Tag == nil || *results[0].Tag != "D-101" {
		t.Errorf("tag = %v, want D-101", results[0].Tag)
	}
	if got := results[0].Psets["Pset_DoorCommon"]["FireRating"]; got != "EI-30" {
		t.Errorf("FireRating = %v, want EI-30", got)
	}
}
