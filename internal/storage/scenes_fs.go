package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
)

const sceneExt = ".canvas.json"

// FSScenes stores each scene as a JSON file at <root>/<vault>/<page>.canvas.json.
// Vault and page ids are path-escaped so nested page ids map to one file.
type FSScenes struct {
	fs *FS
}

// NewFSScenes creates a scene store rooted at dir, creating it if needed.
func NewFSScenes(dir string) (*FSScenes, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir scenes: %w", err)
	}
	fs, err := NewFS(dir)
	if err != nil {
		return nil, err
	}
	return &FSScenes{fs: fs}, nil
}

func sceneFile(vault, page string) (string, error) {
	if vault == "" || page == "" {
		return "", fmt.Errorf("storage: empty scene key: %w", apperr.ErrInvalidInput)
	}
	if vault == "." || vault == ".." {
		return "", fmt.Errorf("storage: vault %q: %w", vault, apperr.ErrInvalidInput)
	}
	return path.Join(url.PathEscape(vault), url.PathEscape(page)+sceneExt), nil
}

// Load reads and decodes the stored scene.
func (s *FSScenes) Load(_ context.Context, vault, page string) (scene.Data, error) {
	name, err := sceneFile(vault, page)
	if err != nil {
		return scene.Data{}, err
	}
	raw, err := s.fs.Read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return scene.Data{}, apperr.ErrNotFound
		}
		return scene.Data{}, err
	}
	var d scene.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return scene.Data{}, fmt.Errorf("storage: decode scene %s/%s: %w", vault, page, err)
	}
	return d, nil
}

// Save atomically replaces the stored scene.
func (s *FSScenes) Save(_ context.Context, vault, page string, d scene.Data) error {
	name, err := sceneFile(vault, page)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("storage: encode scene: %w", err)
	}
	return s.fs.Write(name, raw)
}

// Delete removes the stored scene. Deleting a missing scene is not an error.
func (s *FSScenes) Delete(_ context.Context, vault, page string) error {
	name, err := sceneFile(vault, page)
	if err != nil {
		return err
	}
	if err := s.fs.Delete(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns the page ids with a stored scene in vault, sorted.
func (s *FSScenes) List(_ context.Context, vault string) ([]string, error) {
	dir, err := s.fs.safePath(url.PathEscape(vault))
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("storage: list scenes: %w", err)
	}
	out := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, sceneExt) {
			continue
		}
		page, err := url.PathUnescape(strings.TrimSuffix(name, sceneExt))
		if err != nil {
			continue
		}
		out = append(out, page)
	}
	sort.Strings(out)
	return out, nil
}
