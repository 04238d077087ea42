package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
)

// RedisScenes stores scenes as JSON strings. A per-vault set tracks which
// pages have a scene so List does not need SCAN.
type RedisScenes struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisScenes creates a scene store using client. Keys are namespaced by
// prefix, e.g. "kenaz-canvas:".
func NewRedisScenes(client redis.UniversalClient, prefix string) *RedisScenes {
	return &RedisScenes{client: client, prefix: prefix}
}

func (s *RedisScenes) sceneKey(vault, page string) string {
	return fmt.Sprintf("%sscene:%s:%s", s.prefix, vault, page)
}

func (s *RedisScenes) vaultKey(vault string) string {
	return fmt.Sprintf("%sscenes:%s", s.prefix, vault)
}

// Load fetches and decodes the stored scene.
func (s *RedisScenes) Load(ctx context.Context, vault, page string) (scene.Data, error) {
	raw, err := s.client.Get(ctx, s.sceneKey(vault, page)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return scene.Data{}, apperr.ErrNotFound
		}
		return scene.Data{}, fmt.Errorf("storage: redis get: %w", err)
	}
	var d scene.Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return scene.Data{}, fmt.Errorf("storage: decode scene %s/%s: %w", vault, page, err)
	}
	return d, nil
}

// Save writes the scene and registers the page in the vault set in one
// transaction.
func (s *RedisScenes) Save(ctx context.Context, vault, page string, d scene.Data) error {
	if vault == "" || page == "" {
		return fmt.Errorf("storage: empty scene key: %w", apperr.ErrInvalidInput)
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("storage: encode scene: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.sceneKey(vault, page), raw, 0)
		p.SAdd(ctx, s.vaultKey(vault), page)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: redis save: %w", err)
	}
	return nil
}

// Delete removes the scene and its vault set entry.
func (s *RedisScenes) Delete(ctx context.Context, vault, page string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.sceneKey(vault, page))
		p.SRem(ctx, s.vaultKey(vault), page)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: redis delete: %w", err)
	}
	return nil
}

// List returns the page ids with a stored scene in vault, sorted.
func (s *RedisScenes) List(ctx context.Context, vault string) ([]string, error) {
	pages, err := s.client.SMembers(ctx, s.vaultKey(vault)).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: redis list: %w", err)
	}
	sort.Strings(pages)
	return pages, nil
}
