// Package minimap projects the whole scene and the current viewport into a
// small fixed-size overview and maps clicks on it back to world space.
package minimap

import (
	"math"

	"github.com/starford/kenaz-canvas/internal/canvas/geom"
)

// Overview size and world padding around the content.
const (
	Width   = 140.0
	Height  = 100.0
	Padding = 100.0
)

// Block is one card as drawn on the minimap.
type Block struct {
	ID  string    `json:"id"`
	Box geom.Rect `json:"box"`
}

// Minimap is a projection of world space into the overview.
type Minimap struct {
	Bounds   geom.Rect  `json:"bounds"`
	Scale    float64    `json:"scale"`
	Offset   geom.Point `json:"offset"`
	Blocks   []Block    `json:"blocks"`
	Viewport geom.Rect  `json:"viewport"`
}

// Project fits the union of the card boxes plus Padding into the overview
// with a uniform scale and centres it. An empty scene projects the viewport
// alone.
func Project(ids []string, boxes []geom.Rect, viewport geom.Rect) Minimap {
	bounds, ok := geom.Bounds(boxes)
	if ok {
		bounds = bounds.Expand(Padding)
	} else {
		bounds = viewport
	}
	scale := 1.0
	if bounds.W > 0 && bounds.H > 0 {
		scale = math.Min(Width/bounds.W, Height/bounds.H)
	}
	m := Minimap{
		Bounds: bounds,
		Scale:  scale,
		Offset: geom.Point{
			X: (Width - bounds.W*scale) / 2,
			Y: (Height - bounds.H*scale) / 2,
		},
		Blocks: make([]Block, 0, len(boxes)),
	}
	for i, b := range boxes {
		m.Blocks = append(m.Blocks, Block{ID: ids[i], Box: m.project(b)})
	}
	m.Viewport = m.project(viewport)
	return m
}

func (m Minimap) project(r geom.Rect) geom.Rect {
	return geom.Rect{
		X: (r.X-m.Bounds.X)*m.Scale + m.Offset.X,
		Y: (r.Y-m.Bounds.Y)*m.Scale + m.Offset.Y,
		W: r.W * m.Scale,
		H: r.H * m.Scale,
	}
}

// ToWorld inverse-projects a point on the overview into world space.
func (m Minimap) ToWorld(p geom.Point) geom.Point {
	return geom.Point{
		X: (p.X-m.Offset.X)/m.Scale + m.Bounds.X,
		Y: (p.Y-m.Offset.Y)/m.Scale + m.Bounds.Y,
	}
}

// Contains reports whether p lies inside the overview.
func (m Minimap) Contains(p geom.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= Width && p.Y <= Height
}
