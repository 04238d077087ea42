package camera

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/kenaz-canvas/internal/canvas/geom"
)

func TestZoomAtKeepsCursorFixed(t *testing.T) {
	points := []geom.Point{{0, 0}, {400, 300}, {-50, 1200}, {1919, 1079}}
	factors := []float64{0.5, 0.9, 1.1, 2, 10, 0.01}
	for _, p := range points {
		for _, f := range factors {
			c := FromState(State{X: 37, Y: -120, Zoom: 0.8})
			before := c.ScreenToWorld(p)
			c.ZoomAt(p, f)
			after := c.ScreenToWorld(p)
			assert.InDelta(t, before.X, after.X, 1e-9, "p=%v f=%v", p, f)
			assert.InDelta(t, before.Y, after.Y, 1e-9, "p=%v f=%v", p, f)
		}
	}
}

func TestZoomClamped(t *testing.T) {
	c := New()
	c.ZoomAt(geom.Point{}, 100)
	assert.Equal(t, MaxZoom, c.Zoom())
	c.ZoomAt(geom.Point{}, 0.0001)
	assert.Equal(t, MinZoom, c.Zoom())
}

func TestWorldScreenRoundTrip(t *testing.T) {
	c := FromState(State{X: 12, Y: 34, Zoom: 1.7})
	w := geom.Point{X: -300, Y: 77}
	got := c.ScreenToWorld(c.WorldToScreen(w))
	assert.InDelta(t, w.X, got.X, 1e-9)
	assert.InDelta(t, w.Y, got.Y, 1e-9)
}

func TestFitToContent(t *testing.T) {
	c := New()
	c.FitToContent([]geom.Rect{{X: 0, Y: 0, W: 1000, H: 500}, {X: 1000, Y: 500, W: 840, H: 340}}, 1000, 500)
	// Bounds 1840x840 plus 80 margin = 2000x1000, fits at 0.5.
	assert.InDelta(t, 0.5, c.Zoom(), 1e-9)
	center := c.WorldToScreen(geom.Point{X: 920, Y: 420})
	assert.InDelta(t, 500, center.X, 1e-9)
	assert.InDelta(t, 250, center.Y, 1e-9)

	c.FitToContent([]geom.Rect{{X: 0, Y: 0, W: 120, H: 72}}, 1920, 1080)
	assert.Equal(t, MaxFitZoom, c.Zoom(), "a single small card must not over-zoom")

	c.FitToContent(nil, 800, 600)
	assert.Equal(t, State{Zoom: 1}, c.State())
}

func TestDirectAndInertialPan(t *testing.T) {
	c := New()
	t0 := time.Unix(0, 0)
	c.BeginPan(geom.Point{X: 100, Y: 100}, t0)
	c.MovePan(geom.Point{X: 110, Y: 100}, t0.Add(FrameTime))
	c.MovePan(geom.Point{X: 140, Y: 100}, t0.Add(2*FrameTime))
	assert.Equal(t, 40.0, c.State().X, "direct pan tracks 1:1")

	require.True(t, c.EndPan())
	// Velocity comes from the last two samples only.
	assert.InDelta(t, 30, c.Velocity().X, 1e-9)

	frames := 0
	for c.Step() {
		frames++
		require.Less(t, frames, 1000)
	}
	assert.False(t, c.Inertial())
	assert.Greater(t, c.State().X, 40.0+30)
}

func TestEndPanWithoutMovement(t *testing.T) {
	c := New()
	c.BeginPan(geom.Point{}, time.Unix(0, 0))
	assert.False(t, c.EndPan())
	assert.False(t, c.Step())
}
