package scene

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas/geom"
)

// Scene is the live, editable set of cards and edges for one page.
// It is not safe for concurrent use; the owning canvas instance serializes access.
type Scene struct {
	cards []Card
	edges []Edge
	rev   uint64

	now   func() time.Time
	newID func() string
}

// Option configures a Scene.
type Option func(*Scene)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Scene) { s.now = now }
}

// WithIDs overrides the id generator.
func WithIDs(newID func() string) Option {
	return func(s *Scene) { s.newID = newID }
}

// New returns an empty scene.
func New(opts ...Option) *Scene {
	s := &Scene{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromData builds a scene from persisted data. Edges whose endpoints do not
// both resolve, and cards with a duplicate or empty id, are dropped. The
// number of dropped records is returned.
func FromData(d Data, opts ...Option) (*Scene, int) {
	s := New(opts...)
	seen := make(map[string]bool, len(d.Cards))
	dropped := 0
	for _, c := range d.Cards {
		if c.ID == "" || seen[c.ID] {
			dropped++
			continue
		}
		seen[c.ID] = true
		if !c.Kind.Valid() {
			c.Kind = KindText
		}
		if !c.Color.Valid() {
			c.Color = ColorDefault
		}
		s.cards = append(s.cards, c)
	}
	for _, e := range d.Edges {
		if e.ID == "" || !seen[e.From] || !seen[e.To] {
			dropped++
			continue
		}
		if !e.Color.Valid() {
			e.Color = ColorDefault
		}
		s.edges = append(s.edges, e)
	}
	return s, dropped
}

// Revision increases on every committed mutation.
func (s *Scene) Revision() uint64 { return s.rev }

// Data returns a deep copy of the scene contents.
func (s *Scene) Data() Data {
	return Data{Cards: s.cards, Edges: s.edges}.Clone()
}

// Snapshot returns a deep copy suitable for the undo history.
func (s *Scene) Snapshot() Data { return s.Data() }

// Restore replaces the scene contents with a copy of d.
func (s *Scene) Restore(d Data) {
	c := d.Clone()
	s.cards, s.edges = c.Cards, c.Edges
	s.rev++
}

// Cards returns a copy of the cards in z-order (back to front).
func (s *Scene) Cards() []Card { return slices.Clone(s.cards) }

// Edges returns a copy of the edges.
func (s *Scene) Edges() []Edge { return slices.Clone(s.edges) }

// Card looks up a card by id.
func (s *Scene) Card(id string) (Card, bool) {
	if i := s.cardIndex(id); i >= 0 {
		return s.cards[i], true
	}
	return Card{}, false
}

// Edge looks up an edge by id.
func (s *Scene) Edge(id string) (Edge, bool) {
	if i := s.edgeIndex(id); i >= 0 {
		return s.edges[i], true
	}
	return Edge{}, false
}

func (s *Scene) cardIndex(id string) int {
	return slices.IndexFunc(s.cards, func(c Card) bool { return c.ID == id })
}

func (s *Scene) edgeIndex(id string) int {
	return slices.IndexFunc(s.edges, func(e Edge) bool { return e.ID == id })
}

// checkSize validates already-snapped dimensions.
func checkSize(w, h float64) error {
	if w < MinCardWidth || h < MinCardHeight {
		return fmt.Errorf("scene: %gx%g below minimum %gx%g: %w", w, h, MinCardWidth, MinCardHeight, apperr.ErrInvalidGeometry)
	}
	return nil
}

// AddCard inserts c on top of the z-order. Missing id, kind, color and size
// are defaulted; geometry is snapped to the grid.
func (s *Scene) AddCard(c Card) (Card, error) {
	if c.ID == "" {
		c.ID = s.newID()
	} else if s.cardIndex(c.ID) >= 0 {
		return Card{}, fmt.Errorf("scene: card %s: %w", c.ID, apperr.ErrAlreadyExists)
	}
	if c.Kind == "" {
		c.Kind = KindText
	}
	if !c.Kind.Valid() {
		return Card{}, fmt.Errorf("scene: kind %q: %w", c.Kind, apperr.ErrInvalidInput)
	}
	if c.Color == "" {
		c.Color = ColorDefault
	}
	if !c.Color.Valid() {
		return Card{}, fmt.Errorf("scene: color %q: %w", c.Color, apperr.ErrInvalidInput)
	}
	if c.Width == 0 {
		c.Width = DefaultCardWidth
	}
	if c.Height == 0 {
		c.Height = DefaultCardHeight
	}
	c.X, c.Y, c.Width, c.Height = geom.Snap(c.X), geom.Snap(c.Y), geom.Snap(c.Width), geom.Snap(c.Height)
	if err := checkSize(c.Width, c.Height); err != nil {
		return Card{}, err
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.cards = append(s.cards, c)
	s.rev++
	return c, nil
}

// UpdateCard applies patch to the card. Geometry fields present in the patch
// are snapped to the grid; a result below the minimum size is rejected with
// apperr.ErrInvalidGeometry and nothing changes.
func (s *Scene) UpdateCard(id string, patch CardPatch) (Card, error) {
	i := s.cardIndex(id)
	if i < 0 {
		return Card{}, fmt.Errorf("scene: card %s: %w", id, apperr.ErrUnknownCard)
	}
	c := s.cards[i]
	if patch.X != nil {
		c.X = geom.Snap(*patch.X)
	}
	if patch.Y != nil {
		c.Y = geom.Snap(*patch.Y)
	}
	if patch.Width != nil {
		c.Width = geom.Snap(*patch.Width)
	}
	if patch.Height != nil {
		c.Height = geom.Snap(*patch.Height)
	}
	if patch.Width != nil || patch.Height != nil {
		if err := checkSize(c.Width, c.Height); err != nil {
			return Card{}, err
		}
	}
	if patch.Color != nil {
		if !patch.Color.Valid() {
			return Card{}, fmt.Errorf("scene: color %q: %w", *patch.Color, apperr.ErrInvalidInput)
		}
		c.Color = *patch.Color
	}
	if patch.Header != nil {
		c.Header = strings.ReplaceAll(*patch.Header, "\n", " ")
	}
	if patch.Body != nil {
		c.Body = *patch.Body
	}
	if patch.Label != nil {
		c.Label = *patch.Label
	}
	if patch.PageID != nil {
		c.PageID = *patch.PageID
	}
	c.UpdatedAt = s.now()
	s.cards[i] = c
	s.rev++
	return c, nil
}

// ResizeCard sets the box of a card from a resize gesture. The position snaps
// to the grid but the size is kept as given, so an edge the gesture left in
// place stays put even on an auto-grown card.
func (s *Scene) ResizeCard(id string, box geom.Rect) (Card, error) {
	i := s.cardIndex(id)
	if i < 0 {
		return Card{}, fmt.Errorf("scene: card %s: %w", id, apperr.ErrUnknownCard)
	}
	if err := checkSize(box.W, box.H); err != nil {
		return Card{}, err
	}
	c := s.cards[i]
	c.X, c.Y = geom.Snap(box.X), geom.Snap(box.Y)
	c.Width, c.Height = box.W, box.H
	c.UpdatedAt = s.now()
	s.cards[i] = c
	s.rev++
	return c, nil
}

// MoveCards sets the position of several cards at once, snapping each to the
// grid. Unknown ids fail the whole call.
func (s *Scene) MoveCards(pos map[string]geom.Point) error {
	for id := range pos {
		if s.cardIndex(id) < 0 {
			return fmt.Errorf("scene: move %s: %w", id, apperr.ErrUnknownCard)
		}
	}
	now := s.now()
	for i := range s.cards {
		p, ok := pos[s.cards[i].ID]
		if !ok {
			continue
		}
		s.cards[i].X = geom.Snap(p.X)
		s.cards[i].Y = geom.Snap(p.Y)
		s.cards[i].UpdatedAt = now
	}
	s.rev++
	return nil
}

// DeleteCard removes a card and every edge touching it.
func (s *Scene) DeleteCard(id string) error {
	if s.cardIndex(id) < 0 {
		return fmt.Errorf("scene: delete %s: %w", id, apperr.ErrUnknownCard)
	}
	s.DeleteCards([]string{id})
	return nil
}

// DeleteCards removes the given cards and every edge touching any of them.
// Unknown ids are ignored. It returns the number of cards removed.
func (s *Scene) DeleteCards(ids []string) int {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	before := len(s.cards)
	s.cards = slices.DeleteFunc(s.cards, func(c Card) bool { return gone[c.ID] })
	s.edges = slices.DeleteFunc(s.edges, func(e Edge) bool { return gone[e.From] || gone[e.To] })
	n := before - len(s.cards)
	if n > 0 {
		s.rev++
	}
	return n
}

// AddEdge connects two existing cards.
func (s *Scene) AddEdge(e Edge) (Edge, error) {
	if s.cardIndex(e.From) < 0 || s.cardIndex(e.To) < 0 {
		return Edge{}, fmt.Errorf("scene: edge %s->%s: %w", e.From, e.To, apperr.ErrUnknownCard)
	}
	if !e.FromSide.Valid() || !e.ToSide.Valid() {
		return Edge{}, fmt.Errorf("scene: edge sides %q/%q: %w", e.FromSide, e.ToSide, apperr.ErrInvalidInput)
	}
	if e.Color == "" {
		e.Color = ColorDefault
	}
	if !e.Color.Valid() {
		return Edge{}, fmt.Errorf("scene: color %q: %w", e.Color, apperr.ErrInvalidInput)
	}
	if e.ID == "" {
		e.ID = s.newID()
	} else if s.edgeIndex(e.ID) >= 0 {
		return Edge{}, fmt.Errorf("scene: edge %s: %w", e.ID, apperr.ErrAlreadyExists)
	}
	s.edges = append(s.edges, e)
	s.rev++
	return e, nil
}

// DeleteEdge removes one edge.
func (s *Scene) DeleteEdge(id string) error {
	i := s.edgeIndex(id)
	if i < 0 {
		return fmt.Errorf("scene: edge %s: %w", id, apperr.ErrNotFound)
	}
	s.edges = slices.Delete(s.edges, i, i+1)
	s.rev++
	return nil
}

// Duplicate copies the given cards shifted by offset. Edges are copied only
// when both endpoints are among the duplicated cards. It returns the new card
// ids in the order of the originals.
func (s *Scene) Duplicate(ids []string, offset geom.Point) []string {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	remap := make(map[string]string, len(ids))
	var out []string
	now := s.now()
	for _, c := range slices.Clone(s.cards) {
		if !want[c.ID] {
			continue
		}
		dup := c
		dup.ID = s.newID()
		dup.X = geom.Snap(c.X + offset.X)
		dup.Y = geom.Snap(c.Y + offset.Y)
		dup.CreatedAt, dup.UpdatedAt = now, now
		remap[c.ID] = dup.ID
		out = append(out, dup.ID)
		s.cards = append(s.cards, dup)
	}
	for _, e := range slices.Clone(s.edges) {
		from, okFrom := remap[e.From]
		to, okTo := remap[e.To]
		if !okFrom || !okTo {
			continue
		}
		dup := e
		dup.ID = s.newID()
		dup.From, dup.To = from, to
		s.edges = append(s.edges, dup)
	}
	if len(out) > 0 {
		s.rev++
	}
	return out
}

// BringToFront moves the card to the top of the z-order.
func (s *Scene) BringToFront(id string) error {
	i := s.cardIndex(id)
	if i < 0 {
		return fmt.Errorf("scene: %s: %w", id, apperr.ErrUnknownCard)
	}
	c := s.cards[i]
	s.cards = append(slices.Delete(s.cards, i, i+1), c)
	s.rev++
	return nil
}

// SendToBack moves the card to the bottom of the z-order.
func (s *Scene) SendToBack(id string) error {
	i := s.cardIndex(id)
	if i < 0 {
		return fmt.Errorf("scene: %s: %w", id, apperr.ErrUnknownCard)
	}
	c := s.cards[i]
	s.cards = slices.Insert(slices.Delete(s.cards, i, i+1), 0, c)
	s.rev++
	return nil
}

// Text layout metrics used by AutoGrow.
const (
	headerLineHeight = 32.0
	bodyLineHeight   = 20.0
	cardPadding      = 24.0
	charsPerUnit     = 1.0 / 8.0
)

// AutoGrow raises a text card's height to fit its header and body. The
// resulting height is computed, not snapped. It reports whether the card grew.
func (s *Scene) AutoGrow(id string) (bool, error) {
	i := s.cardIndex(id)
	if i < 0 {
		return false, fmt.Errorf("scene: %s: %w", id, apperr.ErrUnknownCard)
	}
	c := s.cards[i]
	if c.Kind != KindText {
		return false, nil
	}
	need := ContentHeight(c)
	if need <= c.Height {
		return false, nil
	}
	s.cards[i].Height = need
	s.cards[i].UpdatedAt = s.now()
	s.rev++
	return true, nil
}

// ContentHeight estimates the height needed to show all text of a card at
// its current width.
func ContentHeight(c Card) float64 {
	perLine := int((c.Width - 2*cardPadding) * charsPerUnit)
	if perLine < 1 {
		perLine = 1
	}
	lines := 0
	if c.Body != "" {
		for _, l := range strings.Split(c.Body, "\n") {
			n := len([]rune(l))
			lines += max(1, (n+perLine-1)/perLine)
		}
	}
	return 2*cardPadding + headerLineHeight + float64(lines)*bodyLineHeight
}
