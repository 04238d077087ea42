// Package testutil provides shared test helpers for setting up vaults,
// page registries and scene stores.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/kenaz-canvas/internal/pages"
	"github.com/starford/kenaz-canvas/internal/storage"
)

// TestDB creates a temporary page registry that is automatically cleaned up.
func TestDB(t *testing.T) *pages.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "kenaz-canvas-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := pages.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// TestScenes creates a file-backed scene store in a temporary directory.
func TestScenes(t *testing.T) *storage.FSScenes {
	t.Helper()
	scenes, err := storage.NewFSScenes(filepath.Join(t.TempDir(), "scenes"))
	if err != nil {
		t.Fatal(err)
	}
	return scenes
}

// WritePage writes a Markdown page into the vault.
func WritePage(t *testing.T, store storage.Provider, path, content string) {
	t.Helper()
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
}
