package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapIdempotent(t *testing.T) {
	for _, v := range []float64{0, 1, 11.9, 12, 12.1, 23, 24, 37.5, -5, -13, -48, 1000.4, 279.99} {
		once := Snap(v)
		assert.Equal(t, once, Snap(once), "snap twice for %v", v)
		assert.Zero(t, math.Mod(once, GridUnit), "snap result on grid for %v", v)
	}
	for _, v := range []float64{0, 24, 48, -72, 480} {
		assert.Equal(t, v, Snap(v), "aligned value %v must not move", v)
	}
}

func TestVisible(t *testing.T) {
	viewport := Rect{X: 0, Y: 0, W: 1000, H: 800}

	t.Run("inside", func(t *testing.T) {
		assert.True(t, Visible(Rect{X: 100, Y: 100, W: 50, H: 50}, viewport, 1))
	})
	t.Run("within padding", func(t *testing.T) {
		assert.True(t, Visible(Rect{X: 1150, Y: 0, W: 10, H: 10}, viewport, 1))
	})
	t.Run("touching padded border", func(t *testing.T) {
		assert.True(t, Visible(Rect{X: 1200, Y: 0, W: 10, H: 10}, viewport, 1))
		assert.True(t, Visible(Rect{X: -260, Y: -260, W: 60, H: 60}, viewport, 1))
	})
	t.Run("outside padding", func(t *testing.T) {
		assert.False(t, Visible(Rect{X: 1201, Y: 0, W: 10, H: 10}, viewport, 1))
		assert.False(t, Visible(Rect{X: 0, Y: -300, W: 10, H: 99}, viewport, 1))
	})
	t.Run("padding scales with zoom", func(t *testing.T) {
		box := Rect{X: 1300, Y: 0, W: 10, H: 10}
		assert.False(t, Visible(box, viewport, 1))
		assert.True(t, Visible(box, viewport, 0.5))
	})
}

func TestComputeSnap(t *testing.T) {
	targets := []Target{
		{ID: "a", Box: Rect{X: 0, Y: 0, W: 240, H: 120}},
		{ID: "b", Box: Rect{X: 500, Y: 300, W: 120, H: 120}},
		{ID: "drag", Box: Rect{X: 3, Y: 3, W: 240, H: 120}},
	}
	dragging := map[string]bool{"drag": true}

	t.Run("snaps left edges", func(t *testing.T) {
		res := ComputeSnap(Rect{X: 5, Y: 200, W: 240, H: 120}, targets, dragging)
		assert.Equal(t, -5.0, res.Delta.X)
		assert.Equal(t, 0.0, res.Delta.Y)
		require.NotEmpty(t, res.Guides)
		for _, g := range res.Guides {
			assert.Equal(t, AxisX, g.Axis)
		}
	})

	t.Run("independent axes", func(t *testing.T) {
		res := ComputeSnap(Rect{X: 504, Y: 6, W: 120, H: 120}, targets, dragging)
		assert.Equal(t, -4.0, res.Delta.X)
		assert.Equal(t, -6.0, res.Delta.Y)
	})

	t.Run("nothing within threshold", func(t *testing.T) {
		res := ComputeSnap(Rect{X: 300, Y: 700, W: 50, H: 50}, targets, dragging)
		assert.Equal(t, Point{}, res.Delta)
		assert.Empty(t, res.Guides)
	})

	t.Run("dragged cards ignored", func(t *testing.T) {
		res := ComputeSnap(Rect{X: 1003, Y: 1003, W: 240, H: 120}, []Target{targets[2]}, dragging)
		assert.Equal(t, Point{}, res.Delta)
	})

	t.Run("deterministic", func(t *testing.T) {
		box := Rect{X: 250, Y: 297, W: 240, H: 120}
		first := ComputeSnap(box, targets, dragging)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, ComputeSnap(box, targets, dragging))
		}
	})
}

func TestClosestSide(t *testing.T) {
	box := Rect{X: 0, Y: 0, W: 400, H: 100}
	cases := []struct {
		p    Point
		want Side
	}{
		{Point{390, 50}, SideRight},
		{Point{5, 50}, SideLeft},
		{Point{200, 2}, SideTop},
		{Point{200, 98}, SideBottom},
		// 100 right of center is a quarter of the width; 40 down is 40% of the height.
		{Point{300, 90}, SideBottom},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClosestSide(box, c.p), "point %+v", c.p)
	}
}

func TestAnchor(t *testing.T) {
	box := Rect{X: 0, Y: 0, W: 200, H: 100}
	assert.Equal(t, Point{100, 0}, Anchor(box, SideTop))
	assert.Equal(t, Point{200, 50}, Anchor(box, SideRight))
	assert.Equal(t, Point{100, 100}, Anchor(box, SideBottom))
	assert.Equal(t, Point{0, 50}, Anchor(box, SideLeft))
}

func TestEdgePath(t *testing.T) {
	t.Run("floor offset", func(t *testing.T) {
		p := EdgePath(Point{0, 0}, SideRight, Point{40, 10}, SideLeft)
		assert.Equal(t, Point{50, 0}, p.C1)
		assert.Equal(t, Point{-10, 10}, p.C2)
	})
	t.Run("distance offset", func(t *testing.T) {
		p := EdgePath(Point{0, 0}, SideBottom, Point{100, 400}, SideTop)
		assert.Equal(t, Point{0, 200}, p.C1)
		assert.Equal(t, Point{100, 200}, p.C2)
	})
	t.Run("endpoints", func(t *testing.T) {
		p := EdgePath(Point{10, 20}, SideRight, Point{300, 90}, SideLeft)
		assert.Equal(t, p.From, p.At(0))
		assert.InDelta(t, p.To.X, p.At(1).X, 1e-9)
		assert.InDelta(t, p.To.Y, p.At(1).Y, 1e-9)
		assert.Contains(t, p.SVG(), "M 10 20 C")
	})
}
