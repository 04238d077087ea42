//go:build sqlite_fts5

package pages

import (
	"testing"

	"github.com/starford/kenaz-canvas/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages_fts`).Scan(&count); err != nil {
		t.Fatalf("pages_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	p := models.Page{ID: "fts", Path: "fts.md", Title: "FTS Page", Checksum: "f1", Tags: []string{"search"}}
	if err := db.Upsert(p, nil, "Canvases link to powerful full-text pages."); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	results, err := db.Search("powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "fts" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(models.Page{ID: "gone", Path: "gone.md", Checksum: "g"}, nil, "vanishing content")
	_ = db.Delete("gone")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.ID == "gone" {
			t.Error("deleted page still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(models.Page{ID: "evo", Path: "evo.md", Title: "Old", Checksum: "1"}, nil, "original text")
	_ = db.Upsert(models.Page{ID: "evo", Path: "evo.md", Title: "New", Checksum: "2"}, nil, "replacement text")

	results, _ := db.Search("original", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
