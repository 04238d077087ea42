// Package canvasservice keeps the live canvas instances of a process and the
// direct scene edits shared by the REST and MCP surfaces.
package canvasservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas"
	"github.com/starford/kenaz-canvas/internal/models"
	"github.com/starford/kenaz-canvas/internal/pages"
	"github.com/starford/kenaz-canvas/internal/storage"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger handed to every instance.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithCanvasOptions appends options applied to every opened instance.
func WithCanvasOptions(opts ...canvas.Option) Option {
	return func(s *Service) { s.canvasOpts = append(s.canvasOpts, opts...) }
}

// WithSavedHook registers fn to run after any instance saves.
func WithSavedHook(fn canvas.SavedFunc) Option {
	return func(s *Service) { s.onSaved = fn }
}

// Service owns at most one live instance per (vault, page).
type Service struct {
	store      storage.SceneStore
	pages      pages.Registry
	logger     *slog.Logger
	canvasOpts []canvas.Option
	onSaved    canvas.SavedFunc

	mu    sync.Mutex
	open  map[canvas.Key]*canvas.Instance
	group singleflight.Group

	// closing holds the keys whose instance is still flushing; the channel
	// closes once the final save has returned.
	closing map[canvas.Key]chan struct{}
}

// New creates a canvas service. reg may be nil, in which case note-link
// titles and page lookups are unavailable.
func New(store storage.SceneStore, reg pages.Registry, opts ...Option) *Service {
	s := &Service{
		store:   store,
		pages:   reg,
		logger:  slog.Default(),
		open:    make(map[canvas.Key]*canvas.Instance),
		closing: make(map[canvas.Key]chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open returns the live instance for (vault, page), loading it from the
// store on first use. Concurrent opens of the same key share one load, and a
// load waits for a previous instance of the key to finish closing.
func (s *Service) Open(ctx context.Context, vault, page string) (*canvas.Instance, error) {
	key := canvas.Key{Vault: vault, Page: page}
	if inst, ok := s.lookup(key); ok {
		return inst, nil
	}
	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		if inst, ok := s.lookup(key); ok {
			return inst, nil
		}
		if err := s.awaitClosed(ctx, key); err != nil {
			return nil, err
		}
		inst, err := canvas.Open(ctx, key, s.store, s.instanceOptions()...)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.open[key] = inst
		s.mu.Unlock()
		s.logger.Info("canvas opened", slog.String("vault", vault), slog.String("page", page))
		return inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*canvas.Instance), nil
}

func (s *Service) instanceOptions() []canvas.Option {
	opts := []canvas.Option{canvas.WithLogger(s.logger)}
	if s.pages != nil {
		opts = append(opts, canvas.WithPages(s.pages))
	}
	if s.onSaved != nil {
		opts = append(opts, canvas.WithSavedHook(s.onSaved))
	}
	return append(opts, s.canvasOpts...)
}

func (s *Service) lookup(key canvas.Key) (*canvas.Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.open[key]
	return inst, ok
}

// Get returns the instance for (vault, page) only if it is already open.
func (s *Service) Get(vault, page string) (*canvas.Instance, bool) {
	return s.lookup(canvas.Key{Vault: vault, Page: page})
}

// awaitClosed blocks while an instance of key is flushing its final save.
func (s *Service) awaitClosed(ctx context.Context, key canvas.Key) error {
	for {
		s.mu.Lock()
		done, ok := s.closing[key]
		s.mu.Unlock()
		if !ok {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// detach removes key from the live set and marks it closing. Callers must
// hold s.mu and call finishClose once the instance is closed.
func (s *Service) detach(key canvas.Key) chan struct{} {
	delete(s.open, key)
	done := make(chan struct{})
	s.closing[key] = done
	return done
}

func (s *Service) finishClose(key canvas.Key, done chan struct{}) {
	s.mu.Lock()
	if s.closing[key] == done {
		delete(s.closing, key)
	}
	s.mu.Unlock()
	close(done)
}

// Close flushes and disposes the instance for (vault, page). The key cannot
// be reopened until the flush has finished.
func (s *Service) Close(ctx context.Context, vault, page string) error {
	key := canvas.Key{Vault: vault, Page: page}
	s.mu.Lock()
	inst, ok := s.open[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("canvas %s: %w", key, apperr.ErrNotFound)
	}
	done := s.detach(key)
	s.mu.Unlock()
	defer s.finishClose(key, done)

	s.logger.Info("canvas closed", slog.String("vault", vault), slog.String("page", page))
	return inst.Close(ctx)
}

// CloseAll disposes every open instance. It is called on shutdown.
func (s *Service) CloseAll(ctx context.Context) error {
	type detached struct {
		inst *canvas.Instance
		done chan struct{}
	}
	s.mu.Lock()
	all := make([]detached, 0, len(s.open))
	for key, inst := range s.open {
		all = append(all, detached{inst: inst, done: s.detach(key)})
	}
	s.mu.Unlock()

	var errs []error
	for _, c := range all {
		if err := c.inst.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.inst.Key(), err))
		}
		s.finishClose(c.inst.Key(), c.done)
	}
	return errors.Join(errs...)
}

// OpenKeys lists the keys of the live instances.
func (s *Service) OpenKeys() []canvas.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]canvas.Key, 0, len(s.open))
	for k := range s.open {
		keys = append(keys, k)
	}
	return keys
}

// ListCanvases returns the pages of vault that have a stored scene.
func (s *Service) ListCanvases(ctx context.Context, vault string) ([]string, error) {
	return s.store.List(ctx, vault)
}

// ResolvePage looks a page up by id, title or alias.
func (s *Service) ResolvePage(_ context.Context, ref string) (*models.Page, error) {
	if s.pages == nil {
		return nil, apperr.ErrNotFound
	}
	return s.pages.Resolve(ref)
}

// Page returns the registry entry for id.
func (s *Service) Page(_ context.Context, id string) (*models.Page, error) {
	if s.pages == nil {
		return nil, apperr.ErrNotFound
	}
	return s.pages.Get(id)
}

// SearchPages runs a full-text search over the page registry.
func (s *Service) SearchPages(_ context.Context, query string, limit int) ([]pages.SearchResult, error) {
	if s.pages == nil {
		return []pages.SearchResult{}, nil
	}
	return s.pages.Search(query, limit)
}
