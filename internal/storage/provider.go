// Package storage holds the vault file system and the stores that persist
// canvas scenes.
package storage

import (
	"context"

	"github.com/starford/kenaz-canvas/internal/canvas/scene"
	"github.com/starford/kenaz-canvas/internal/models"
)

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.PageFile, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to vault root).
	Delete(path string) error
}

// SceneStore persists one scene per (vault, page) pair.
type SceneStore interface {
	// Load returns apperr.ErrNotFound when nothing is stored for the key.
	Load(ctx context.Context, vault, page string) (scene.Data, error)
	Save(ctx context.Context, vault, page string, d scene.Data) error
	Delete(ctx context.Context, vault, page string) error
	// List returns the ids of the pages in vault that have a stored scene.
	List(ctx context.Context, vault string) ([]string, error)
}

var (
	_ Provider   = (*FS)(nil)
	_ SceneStore = (*FSScenes)(nil)
	_ SceneStore = (*RedisScenes)(nil)
)
