// Package camera owns the pan/zoom transform of a canvas:
// screen = world*zoom + (x, y).
package camera

import (
	"math"
	"time"

	"github.com/starford/kenaz-canvas/internal/canvas/geom"
)

// Zoom limits.
const (
	MinZoom    = 0.1
	MaxZoom    = 4.0
	MaxFitZoom = 1.5
	FitMargin  = 80.0
)

// Inertia tuning. Speeds are in screen units per frame.
const (
	Friction  = 0.92
	StopSpeed = 0.5
	FrameTime = time.Second / 60
)

// State is the serializable transform.
type State struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

type sample struct {
	p geom.Point
	t time.Time
}

// Camera holds the transform plus the pan gesture bookkeeping.
type Camera struct {
	state State

	panning  bool
	last     geom.Point
	samples  [2]sample
	nSamples int
	velocity geom.Point
}

// New returns a camera at the origin with zoom 1.
func New() *Camera {
	return &Camera{state: State{Zoom: 1}}
}

// FromState returns a camera with the given transform, zoom clamped.
func FromState(s State) *Camera {
	if s.Zoom == 0 {
		s.Zoom = 1
	}
	s.Zoom = clampZoom(s.Zoom)
	return &Camera{state: s}
}

func clampZoom(z float64) float64 {
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// State returns the current transform.
func (c *Camera) State() State { return c.state }

// Zoom returns the current scale.
func (c *Camera) Zoom() float64 { return c.state.Zoom }

// WorldToScreen maps a world point onto the screen.
func (c *Camera) WorldToScreen(p geom.Point) geom.Point {
	return geom.Point{X: p.X*c.state.Zoom + c.state.X, Y: p.Y*c.state.Zoom + c.state.Y}
}

// ScreenToWorld maps a screen point into world space.
func (c *Camera) ScreenToWorld(p geom.Point) geom.Point {
	return geom.Point{X: (p.X - c.state.X) / c.state.Zoom, Y: (p.Y - c.state.Y) / c.state.Zoom}
}

// WorldRect maps a screen-space viewport of size w×h into world space.
func (c *Camera) WorldRect(w, h float64) geom.Rect {
	return geom.RectFromPoints(c.ScreenToWorld(geom.Point{}), c.ScreenToWorld(geom.Point{X: w, Y: h}))
}

// ScreenRect maps a world box onto the screen.
func (c *Camera) ScreenRect(r geom.Rect) geom.Rect {
	p := c.WorldToScreen(geom.Point{X: r.X, Y: r.Y})
	return geom.Rect{X: p.X, Y: p.Y, W: r.W * c.state.Zoom, H: r.H * c.state.Zoom}
}

// PanBy shifts the camera offset by a screen-space delta.
func (c *Camera) PanBy(dx, dy float64) {
	c.state.X += dx
	c.state.Y += dy
}

// ZoomAt scales by factor around the screen point p so the world point under
// p stays fixed. The new zoom is clamped; the offset uses the clamped ratio.
func (c *Camera) ZoomAt(p geom.Point, factor float64) {
	if factor <= 0 {
		return
	}
	next := clampZoom(c.state.Zoom * factor)
	ratio := next / c.state.Zoom
	c.state.X = p.X - ratio*(p.X-c.state.X)
	c.state.Y = p.Y - ratio*(p.Y-c.state.Y)
	c.state.Zoom = next
}

// CenterOn moves the camera so world point w sits in the middle of a
// viewport of size vw×vh. Zoom is unchanged.
func (c *Camera) CenterOn(w geom.Point, vw, vh float64) {
	c.state.X = vw/2 - w.X*c.state.Zoom
	c.state.Y = vh/2 - w.Y*c.state.Zoom
}

// FitToContent frames the union of boxes plus FitMargin inside a viewport of
// size vw×vh. The zoom is clamped to [MinZoom, MaxFitZoom]. Without boxes it
// resets to the origin at zoom 1.
func (c *Camera) FitToContent(boxes []geom.Rect, vw, vh float64) {
	c.Stop()
	bounds, ok := geom.Bounds(boxes)
	if !ok || vw <= 0 || vh <= 0 {
		c.state = State{Zoom: 1}
		return
	}
	bounds = bounds.Expand(FitMargin)
	zoom := math.Min(vw/bounds.W, vh/bounds.H)
	c.state.Zoom = math.Min(MaxFitZoom, math.Max(MinZoom, zoom))
	c.CenterOn(bounds.Center(), vw, vh)
}

// BeginPan starts a direct pan at screen point p.
func (c *Camera) BeginPan(p geom.Point, at time.Time) {
	c.Stop()
	c.panning = true
	c.last = p
	c.samples[0] = sample{p: p, t: at}
	c.nSamples = 1
}

// MovePan tracks the pointer 1:1 and records the sample for velocity.
func (c *Camera) MovePan(p geom.Point, at time.Time) {
	if !c.panning {
		return
	}
	c.PanBy(p.X-c.last.X, p.Y-c.last.Y)
	c.last = p
	if c.nSamples == 2 {
		c.samples[0] = c.samples[1]
	}
	c.nSamples = min(c.nSamples+1, 2)
	c.samples[c.nSamples-1] = sample{p: p, t: at}
}

// EndPan finishes the direct pan and seeds the inertial velocity from the
// last two samples. It reports whether inertia will run.
func (c *Camera) EndPan() bool {
	if !c.panning {
		return false
	}
	c.panning = false
	c.velocity = geom.Point{}
	if c.nSamples < 2 {
		return false
	}
	a, b := c.samples[0], c.samples[1]
	dt := b.t.Sub(a.t)
	if dt <= 0 {
		return false
	}
	frames := float64(dt) / float64(FrameTime)
	c.velocity = geom.Point{X: (b.p.X - a.p.X) / frames, Y: (b.p.Y - a.p.Y) / frames}
	if speed(c.velocity) < StopSpeed {
		c.velocity = geom.Point{}
		return false
	}
	return true
}

// Panning reports whether a direct pan is active.
func (c *Camera) Panning() bool { return c.panning }

// Inertial reports whether the camera is still gliding.
func (c *Camera) Inertial() bool { return c.velocity != geom.Point{} }

// Velocity returns the current inertial velocity in screen units per frame.
func (c *Camera) Velocity() geom.Point { return c.velocity }

// Step advances the inertial glide by one frame. It returns false once the
// speed has decayed below StopSpeed, after which the glide is over.
func (c *Camera) Step() bool {
	if !c.Inertial() {
		return false
	}
	c.PanBy(c.velocity.X, c.velocity.Y)
	c.velocity.X *= Friction
	c.velocity.Y *= Friction
	if speed(c.velocity) < StopSpeed {
		c.velocity = geom.Point{}
		return false
	}
	return true
}

// Stop cancels any inertial glide.
func (c *Camera) Stop() { c.velocity = geom.Point{} }

func speed(v geom.Point) float64 { return math.Hypot(v.X, v.Y) }
