package pages

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/models"
	"github.com/starford/kenaz-canvas/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "kenaz-canvas-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&count); err != nil {
		t.Fatalf("pages table missing: %v", err)
	}
}

func TestIDFromPath(t *testing.T) {
	cases := map[string]string{
		"a.md":           "a",
		"notes/today.md": "notes/today",
		"plain":          "plain",
	}
	for in, want := range cases {
		if got := IDFromPath(in); got != want {
			t.Errorf("IDFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpsertGetAndTitle(t *testing.T) {
	db := testDB(t)
	p := models.Page{ID: "notes/hello", Path: "notes/hello.md", Title: "Hello", Summary: "hi", Tags: []string{"go"}, Checksum: "abc", UpdatedAt: time.Now()}
	if err := db.Upsert(p, []string{"Greeting"}, "body"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := db.Get("notes/hello")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Hello" || got.Checksum != "abc" || len(got.Tags) != 1 {
		t.Errorf("page = %+v", got)
	}
	if title, ok := db.PageTitle("notes/hello"); !ok || title != "Hello" {
		t.Errorf("PageTitle = %q, %v", title, ok)
	}
	if _, ok := db.PageTitle("missing"); ok {
		t.Error("PageTitle for a missing page should report false")
	}

	p.Title = ""
	p.Checksum = "def"
	if err := db.Upsert(p, nil, "body"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if title, _ := db.PageTitle("notes/hello"); title != "hello" {
		t.Errorf("untitled page title = %q, want file name", title)
	}
}

func TestGetNotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveByTitleAndAlias(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(models.Page{ID: "projects/kenaz", Path: "projects/kenaz.md", Title: "Kenaz Project"}, []string{"kz"}, "")

	for _, ref := range []string{"projects/kenaz", "kenaz project", "KZ"} {
		p, err := db.Resolve(ref)
		if err != nil {
			t.Errorf("Resolve(%q): %v", ref, err)
			continue
		}
		if p.ID != "projects/kenaz" {
			t.Errorf("Resolve(%q) = %s", ref, p.ID)
		}
	}
	if _, err := db.Resolve("unknown"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListAndDelete(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"c", "a", "b"} {
		_ = db.Upsert(models.Page{ID: id, Path: id + ".md", Title: id}, nil, "")
	}
	list, total, err := db.List(2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("list = %+v total=%d", list, total)
	}

	if err := db.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get("a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("deleted page still present")
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(models.Page{ID: "s", Path: "s.md", Title: "Search Me", Checksum: "1"}, nil, "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func TestSyncRegistersAndRemoves(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("a.md", []byte("# Alpha\n\nFirst page."))
	_ = store.Write("sub/b.md", []byte("---\ntitle: Beta\n---\nbody"))

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	a, err := db.Get("a")
	if err != nil {
		t.Fatalf("Get a: %v", err)
	}
	if a.Title != "Alpha" || a.Summary != "First page." {
		t.Errorf("a = %+v", a)
	}
	if title, _ := db.PageTitle("sub/b"); title != "Beta" {
		t.Errorf("sub/b title = %q", title)
	}

	_ = store.Delete("a.md")
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := db.Get("a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("stale page not removed by sync")
	}
}
