// Package geom holds the pure spatial queries used by the canvas: boxes,
// grid snapping, viewport culling, alignment guides, anchors and edge paths.
package geom

import "math"

// GridUnit is the spacing of the canvas grid in world units.
const GridUnit = 24.0

// CullPadding is the viewport padding, in screen units, kept around the
// visible area so cards just off screen are still emitted.
const CullPadding = 200.0

// Point is a 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rect is an axis-aligned box.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RectFromPoints returns the box spanned by two corners in any order.
func RectFromPoints(a, b Point) Rect {
	x0, x1 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y0, y1 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Center returns the midpoint of the box.
func (r Rect) Center() Point { return Point{r.CenterX(), r.CenterY()} }

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	r.X += d.X
	r.Y += d.Y
	return r
}

// Expand grows r by pad on every side.
func (r Rect) Expand(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, W: r.W + 2*pad, H: r.H + 2*pad}
}

// Contains reports whether p lies inside r, borders included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Intersects reports whether the boxes share at least one point.
// Touching borders count as an intersection.
func (r Rect) Intersects(o Rect) bool {
	return r.X <= o.Right() && o.X <= r.Right() && r.Y <= o.Bottom() && o.Y <= r.Bottom()
}

// Union returns the smallest box containing both.
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.Right(), o.Right())
	y1 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Bounds returns the union of rects and false when rects is empty.
func Bounds(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	out := rects[0]
	for _, r := range rects[1:] {
		out = out.Union(r)
	}
	return out, true
}

// Snap rounds v to the nearest multiple of GridUnit. Snap(Snap(v)) == Snap(v).
func Snap(v float64) float64 {
	return math.Round(v/GridUnit) * GridUnit
}

// SnapUp rounds v up to the next multiple of GridUnit.
func SnapUp(v float64) float64 {
	return math.Ceil(v/GridUnit) * GridUnit
}

// SnapDown rounds v down to the previous multiple of GridUnit.
func SnapDown(v float64) float64 {
	return math.Floor(v/GridUnit) * GridUnit
}

// SnapRect snaps every component of r to the grid.
func SnapRect(r Rect) Rect {
	return Rect{X: Snap(r.X), Y: Snap(r.Y), W: Snap(r.W), H: Snap(r.H)}
}

// Visible reports whether box intersects the viewport (in world units)
// expanded by CullPadding/zoom on every side.
func Visible(box, viewport Rect, zoom float64) bool {
	return box.Intersects(viewport.Expand(CullPadding / zoom))
}
