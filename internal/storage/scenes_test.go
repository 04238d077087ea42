package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas/geom"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
)

func sampleScene() scene.Data {
	return scene.Data{
		Cards: []scene.Card{
			{ID: "a", Kind: scene.KindText, X: 0, Y: 0, Width: 240, Height: 144, Color: scene.ColorBlue, Header: "A", Body: "line\nline"},
			{ID: "b", Kind: scene.KindNoteLink, X: 480, Y: 0, Width: 240, Height: 144, Color: scene.ColorDefault, PageID: "notes/today"},
		},
		Edges: []scene.Edge{
			{ID: "e", From: "a", FromSide: geom.SideRight, To: "b", ToSide: geom.SideLeft, Color: scene.ColorDefault},
		},
	}
}

// runSceneStoreTests exercises the SceneStore contract against any backend.
func runSceneStoreTests(t *testing.T, store SceneStore) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		_, err := store.Load(ctx, "v1", "nothing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		want := sampleScene()
		require.NoError(t, store.Save(ctx, "v1", "notes/today", want))
		got, err := store.Load(ctx, "v1", "notes/today")
		require.NoError(t, err)
		assert.Equal(t, want.Cards[0].Body, got.Cards[0].Body)
		assert.Equal(t, want.Cards[1].PageID, got.Cards[1].PageID)
		assert.Equal(t, want.Edges, got.Edges)
	})

	t.Run("overwrite", func(t *testing.T) {
		d := sampleScene()
		d.Edges = nil
		require.NoError(t, store.Save(ctx, "v1", "notes/today", d))
		got, err := store.Load(ctx, "v1", "notes/today")
		require.NoError(t, err)
		assert.Empty(t, got.Edges)
	})

	t.Run("list and delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "v1", "alpha", scene.Data{}))
		require.NoError(t, store.Save(ctx, "v2", "beta", scene.Data{}))

		pages, err := store.List(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "notes/today"}, pages)

		require.NoError(t, store.Delete(ctx, "v1", "alpha"))
		require.NoError(t, store.Delete(ctx, "v1", "alpha"))
		pages, err = store.List(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, []string{"notes/today"}, pages)

		_, err = store.Load(ctx, "v1", "alpha")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("empty key", func(t *testing.T) {
		err := store.Save(ctx, "", "p", scene.Data{})
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	})
}

func TestFSScenes(t *testing.T) {
	store, err := NewFSScenes(filepath.Join(t.TempDir(), "scenes"))
	require.NoError(t, err)
	runSceneStoreTests(t, store)
}

func TestFSScenesMalformedPayload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSScenes(dir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "v"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v", "p"+sceneExt), []byte("{not json"), 0o644))

	_, err = store.Load(context.Background(), "v", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
}

func TestFSScenesTraversalEscaped(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSScenes(filepath.Join(dir, "scenes"))
	require.NoError(t, err)
	ctx := context.Background()
	assert.ErrorIs(t, store.Save(ctx, "..", "p", scene.Data{}), apperr.ErrInvalidInput)
	require.NoError(t, store.Save(ctx, "v", "../../evil", scene.Data{}))

	matches, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	assert.Empty(t, matches, "scene written outside the store root")
	pages, err := store.List(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, []string{"../../evil"}, pages)
}

func TestRedisScenes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisScenes(client, "test:")
	runSceneStoreTests(t, store)

	assert.True(t, mr.Exists("test:scene:v1:notes/today"))
}

func TestRedisScenesUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	store := NewRedisScenes(client, "")
	_, err := store.Load(context.Background(), "v", "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)
	assert.Error(t, store.Save(context.Background(), "v", "p", scene.Data{}))
}
