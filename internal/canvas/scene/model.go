// Package scene defines the canvas scene model: cards, edges and the plain
// data shape used for persistence and undo snapshots.
package scene

import (
	"time"

	"github.com/starford/kenaz-canvas/internal/canvas/geom"
)

// Size limits for cards, in world units.
const (
	MinCardWidth      = 120.0
	MinCardHeight     = 60.0
	DefaultCardWidth  = 240.0
	DefaultCardHeight = 144.0
)

// Kind is the type of content a card holds.
type Kind string

const (
	KindText     Kind = "text"
	KindNoteLink Kind = "note-link"
	KindGroup    Kind = "group"
)

// Valid reports whether k is a known card kind.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindNoteLink, KindGroup:
		return true
	}
	return false
}

// Color is a palette token.
type Color string

const (
	ColorDefault Color = "default"
	ColorRed     Color = "red"
	ColorOrange  Color = "orange"
	ColorYellow  Color = "yellow"
	ColorGreen   Color = "green"
	ColorBlue    Color = "blue"
	ColorPurple  Color = "purple"
	ColorPink    Color = "pink"
)

// Palette lists every color token in display order.
var Palette = []Color{ColorDefault, ColorRed, ColorOrange, ColorYellow, ColorGreen, ColorBlue, ColorPurple, ColorPink}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// Card is a positioned rectangular content unit.
type Card struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Color     Color     `json:"color"`
	Header    string    `json:"header"`
	Body      string    `json:"body"`
	Label     string    `json:"label,omitempty"`
	PageID    string    `json:"pageId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Box returns the card geometry as a rectangle.
func (c Card) Box() geom.Rect {
	return geom.Rect{X: c.X, Y: c.Y, W: c.Width, H: c.Height}
}

// Edge is a directed connector between two card anchors.
type Edge struct {
	ID       string    `json:"id"`
	From     string    `json:"fromCardId"`
	FromSide geom.Side `json:"fromSide"`
	To       string    `json:"toCardId"`
	ToSide   geom.Side `json:"toSide"`
	Color    Color     `json:"color"`
	Label    string    `json:"label,omitempty"`
}

// Data is the plain {cards, edges} shape. It is what gets persisted and what
// undo snapshots hold.
type Data struct {
	Cards []Card `json:"cards"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of d. Card and Edge hold only value fields, so
// copying the slices is enough.
func (d Data) Clone() Data {
	out := Data{
		Cards: make([]Card, len(d.Cards)),
		Edges: make([]Edge, len(d.Edges)),
	}
	copy(out.Cards, d.Cards)
	copy(out.Edges, d.Edges)
	return out
}

// CardPatch holds optional card field updates; nil fields are left unchanged.
type CardPatch struct {
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Color  *Color   `json:"color,omitempty"`
	Header *string  `json:"header,omitempty"`
	Body   *string  `json:"body,omitempty"`
	Label  *string  `json:"label,omitempty"`
	PageID *string  `json:"pageId,omitempty"`
}

// Geometry reports whether the patch touches position or size.
func (p CardPatch) Geometry() bool {
	return p.X != nil || p.Y != nil || p.Width != nil || p.Height != nil
}
