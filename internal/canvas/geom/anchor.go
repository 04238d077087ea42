package geom

import (
	"fmt"
	"math"
)

// Side names one of the four edges of a card.
type Side string

const (
	SideTop    Side = "top"
	SideRight  Side = "right"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
)

// Sides lists every side in clockwise order starting at the top.
var Sides = []Side{SideTop, SideRight, SideBottom, SideLeft}

// Valid reports whether s is one of the four sides.
func (s Side) Valid() bool {
	switch s {
	case SideTop, SideRight, SideBottom, SideLeft:
		return true
	}
	return false
}

// Normal returns the outward unit vector of the side.
func (s Side) Normal() Point {
	switch s {
	case SideTop:
		return Point{0, -1}
	case SideRight:
		return Point{1, 0}
	case SideBottom:
		return Point{0, 1}
	case SideLeft:
		return Point{-1, 0}
	}
	return Point{}
}

// Anchor returns the midpoint of the given side of box.
func Anchor(box Rect, s Side) Point {
	switch s {
	case SideTop:
		return Point{box.CenterX(), box.Y}
	case SideRight:
		return Point{box.Right(), box.CenterY()}
	case SideBottom:
		return Point{box.CenterX(), box.Bottom()}
	case SideLeft:
		return Point{box.X, box.CenterY()}
	}
	return box.Center()
}

// ClosestSide classifies p against box: the offset from the center on each
// axis is normalised by the box's extent on that axis, and the axis with the
// larger normalised offset decides the side.
func ClosestSide(box Rect, p Point) Side {
	dx := p.X - box.CenterX()
	dy := p.Y - box.CenterY()
	nx, ny := dx, dy
	if box.W > 0 {
		nx = dx / box.W
	}
	if box.H > 0 {
		ny = dy / box.H
	}
	if math.Abs(nx) >= math.Abs(ny) {
		if dx >= 0 {
			return SideRight
		}
		return SideLeft
	}
	if dy >= 0 {
		return SideBottom
	}
	return SideTop
}

// MinControlOffset is the floor for the Bezier control-point distance.
const MinControlOffset = 50.0

// Path is a cubic Bezier curve between two anchors.
type Path struct {
	From Point `json:"from"`
	C1   Point `json:"c1"`
	C2   Point `json:"c2"`
	To   Point `json:"to"`
}

// EdgePath builds the curve leaving from along fromSide's normal and entering
// to along toSide's normal. The control offset is the largest of half the
// horizontal distance, half the vertical distance and MinControlOffset.
func EdgePath(from Point, fromSide Side, to Point, toSide Side) Path {
	off := math.Max(math.Max(math.Abs(to.X-from.X)*0.5, math.Abs(to.Y-from.Y)*0.5), MinControlOffset)
	n1 := fromSide.Normal()
	n2 := toSide.Normal()
	return Path{
		From: from,
		C1:   Point{from.X + n1.X*off, from.Y + n1.Y*off},
		C2:   Point{to.X + n2.X*off, to.Y + n2.Y*off},
		To:   to,
	}
}

// At evaluates the curve at t in [0,1].
func (p Path) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return Point{
		X: a*p.From.X + b*p.C1.X + c*p.C2.X + d*p.To.X,
		Y: a*p.From.Y + b*p.C1.Y + c*p.C2.Y + d*p.To.Y,
	}
}

// Bounds returns the box around all four control points, which always
// contains the curve.
func (p Path) Bounds() Rect {
	r, _ := Bounds([]Rect{
		{X: p.From.X, Y: p.From.Y},
		{X: p.C1.X, Y: p.C1.Y},
		{X: p.C2.X, Y: p.C2.Y},
		{X: p.To.X, Y: p.To.Y},
	})
	return r
}

// SVG renders the curve as an SVG path "d" attribute.
func (p Path) SVG() string {
	return fmt.Sprintf("M %g %g C %g %g, %g %g, %g %g",
		p.From.X, p.From.Y, p.C1.X, p.C1.Y, p.C2.X, p.C2.Y, p.To.X, p.To.Y)
}
