package canvasservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
)

// AddCard places c on the canvas as one undoable action. A note-link page
// reference given by title or alias is stored as the canonical page id;
// an unresolved reference is kept as given.
func (s *Service) AddCard(ctx context.Context, vault, page string, c scene.Card) (scene.Card, error) {
	inst, err := s.Open(ctx, vault, page)
	if err != nil {
		return scene.Card{}, err
	}
	if c.Kind == scene.KindNoteLink {
		if c.PageID == "" {
			return scene.Card{}, fmt.Errorf("note-link card without page: %w", apperr.ErrInvalidInput)
		}
		if p, err := s.ResolvePage(ctx, c.PageID); err == nil {
			c.PageID = p.ID
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return scene.Card{}, err
		}
	}
	var added scene.Card
	err = inst.Mutate(func(sc *scene.Scene) error {
		added, err = sc.AddCard(c)
		return err
	})
	return added, err
}

// UpdateCard applies patch to one card. A text change grows a text card to
// fit, as an inline edit does.
func (s *Service) UpdateCard(ctx context.Context, vault, page, id string, patch scene.CardPatch) (scene.Card, error) {
	inst, err := s.Open(ctx, vault, page)
	if err != nil {
		return scene.Card{}, err
	}
	var updated scene.Card
	err = inst.Mutate(func(sc *scene.Scene) error {
		if updated, err = sc.UpdateCard(id, patch); err != nil {
			return err
		}
		if patch.Header == nil && patch.Body == nil {
			return nil
		}
		grown, err := sc.AutoGrow(id)
		if err != nil || !grown {
			return err
		}
		updated, _ = sc.Card(id)
		return nil
	})
	return updated, err
}

// DeleteCard removes a card and every edge attached to it.
func (s *Service) DeleteCard(ctx context.Context, vault, page, id string) error {
	inst, err := s.Open(ctx, vault, page)
	if err != nil {
		return err
	}
	return inst.Mutate(func(sc *scene.Scene) error { return sc.DeleteCard(id) })
}

// Reorder moves a card to the top (front) or bottom of the z-order.
func (s *Service) Reorder(ctx context.Context, vault, page, id string, front bool) error {
	inst, err := s.Open(ctx, vault, page)
	if err != nil {
		return err
	}
	return inst.Mutate(func(sc *scene.Scene) error {
		if front {
			return sc.BringToFront(id)
		}
		return sc.SendToBack(id)
	})
}

// AddEdge connects two cards.
func (s *Service) AddEdge(ctx context.Context, vault, page string, e scene.Edge) (scene.Edge, error) {
	inst, err := s.Open(ctx, vault, page)
	if err != nil {
		return scene.Edge{}, err
	}
	var added scene.Edge
	err = inst.Mutate(func(sc *scene.Scene) error {
		added, err = sc.AddEdge(e)
		return err
	})
	return added, err
}

// DeleteEdge removes one edge.
func (s *Service) DeleteEdge(ctx context.Context, vault, page, id string) error {
	inst, err := s.Open(ctx, vault, page)
	if err != nil {
		return err
	}
	return inst.Mutate(func(sc *scene.Scene) error { return sc.DeleteEdge(id) })
}
