// Package interact is the pointer and keyboard state machine of the canvas.
//
// Gestures keep their in-progress geometry in a transient state owned by the
// controller. The scene is only mutated when a gesture is released, and each
// release records exactly one undo snapshot.
package interact

import (
	"math"
	"strings"

	"github.com/starford/kenaz-canvas/internal/canvas/camera"
	"github.com/starford/kenaz-canvas/internal/canvas/geom"
	"github.com/starford/kenaz-canvas/internal/canvas/history"
	"github.com/starford/kenaz-canvas/internal/canvas/render"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
)

// Hit-test sizes in screen units.
const (
	anchorOffset    = 12.0
	anchorRadius    = 8.0
	handleTolerance = 6.0
)

// Gesture offsets in world units.
const (
	DuplicateOffset = 2 * geom.GridUnit
	NudgeStep       = geom.GridUnit
	NudgeStepLarge  = 4 * geom.GridUnit
)

// WheelSensitivity converts wheel delta into an exponential zoom factor.
const WheelSensitivity = 1.0 / 500

// Transient is the uncommitted state of the active gesture.
type Transient struct {
	State   State
	Live    map[string]geom.Rect
	Guides  []geom.Guide
	Marquee *geom.Rect
	Draft   *geom.Path
}

type dragState struct {
	primary string
	start   map[string]geom.Rect
	offset  geom.Point
}

type resizeState struct {
	id     string
	handle Handle
	start  geom.Rect
	box    geom.Rect
}

type marqueeState struct {
	base map[string]bool
	rect geom.Rect
}

type draftState struct {
	from     string
	fromSide geom.Side
	to       geom.Point
}

// Controller routes input to the scene, camera and history.
type Controller struct {
	scene *scene.Scene
	hist  *history.Manager
	cam   *camera.Camera

	state     State
	selection map[string]bool
	hovered   string
	textFocus bool

	origin  geom.Point // world position of the press
	drag    *dragState
	resize  *resizeState
	marquee *marqueeState
	draft   *draftState
	guides  []geom.Guide
}

// New returns an idle controller.
func New(s *scene.Scene, h *history.Manager, cam *camera.Camera) *Controller {
	return &Controller{
		scene:     s,
		hist:      h,
		cam:       cam,
		state:     StateIdle,
		selection: map[string]bool{},
	}
}

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// Hovered returns the card under the pointer while idle.
func (c *Controller) Hovered() string { return c.hovered }

// SetTextFocus marks whether an inline text field has focus. Keyboard
// shortcuts are ignored while it does.
func (c *Controller) SetTextFocus(focused bool) { c.textFocus = focused }

// Selection returns the selected card ids in z-order.
func (c *Controller) Selection() []string {
	var out []string
	for _, card := range c.scene.Cards() {
		if c.selection[card.ID] {
			out = append(out, card.ID)
		}
	}
	return out
}

// SelectedSet returns a copy of the selection as a set.
func (c *Controller) SelectedSet() map[string]bool {
	out := make(map[string]bool, len(c.selection))
	for id := range c.selection {
		out[id] = true
	}
	return out
}

// Select replaces the selection.
func (c *Controller) Select(ids ...string) {
	c.selection = map[string]bool{}
	for _, id := range ids {
		if _, ok := c.scene.Card(id); ok {
			c.selection[id] = true
		}
	}
}

// Transient returns the live state of the active gesture.
func (c *Controller) Transient() Transient {
	t := Transient{State: c.state}
	switch {
	case c.drag != nil:
		t.Live = make(map[string]geom.Rect, len(c.drag.start))
		for id, b := range c.drag.start {
			t.Live[id] = b.Translate(c.drag.offset)
		}
		t.Guides = c.guides
	case c.resize != nil:
		t.Live = map[string]geom.Rect{c.resize.id: c.resize.box}
	case c.marquee != nil:
		r := c.marquee.rect
		t.Marquee = &r
	case c.draft != nil:
		if card, ok := c.scene.Card(c.draft.from); ok {
			from := geom.Anchor(card.Box(), c.draft.fromSide)
			// The loose end faces back toward the source anchor.
			toSide := geom.ClosestSide(geom.Rect{X: c.draft.to.X, Y: c.draft.to.Y}, from)
			p := geom.EdgePath(from, c.draft.fromSide, c.draft.to, toSide)
			t.Draft = &p
		}
	}
	return t
}

// Apply runs fn as one undoable logical action. A failing fn is rolled back.
// Only an fn that succeeds and changes the scene is recorded.
func (c *Controller) Apply(fn func(s *scene.Scene) error) error {
	before := c.scene.Snapshot()
	rev := c.scene.Revision()
	if err := fn(c.scene); err != nil {
		if c.scene.Revision() != rev {
			c.scene.Restore(before)
		}
		return err
	}
	if c.scene.Revision() != rev {
		c.hist.Record(before)
	}
	c.pruneSelection()
	return nil
}

// EditText commits an inline text edit and grows the card to fit.
func (c *Controller) EditText(id, header, body string) error {
	return c.Apply(func(s *scene.Scene) error {
		if _, err := s.UpdateCard(id, scene.CardPatch{Header: &header, Body: &body}); err != nil {
			return err
		}
		_, err := s.AutoGrow(id)
		return err
	})
}

// Undo restores the previous snapshot.
func (c *Controller) Undo() bool {
	ok := c.hist.Undo()
	c.pruneSelection()
	return ok
}

// Redo re-applies the next snapshot.
func (c *Controller) Redo() bool {
	ok := c.hist.Redo()
	c.pruneSelection()
	return ok
}

func (c *Controller) pruneSelection() {
	for id := range c.selection {
		if _, ok := c.scene.Card(id); !ok {
			delete(c.selection, id)
		}
	}
}

// Wheel zooms around the pointer.
func (c *Controller) Wheel(ev Wheel) {
	c.cam.ZoomAt(ev.Pos, math.Exp(-ev.DeltaY*WheelSensitivity))
}

// PointerDown starts a gesture from idle.
func (c *Controller) PointerDown(ev Pointer) {
	if c.state != StateIdle {
		return
	}
	world := c.cam.ScreenToWorld(ev.Pos)
	c.origin = world

	if ev.Button == ButtonMiddle || (ev.Button == ButtonPrimary && ev.Mods.Pan) {
		c.cam.BeginPan(ev.Pos, ev.Time)
		c.state = StatePanning
		return
	}
	if ev.Button != ButtonPrimary {
		return
	}
	c.cam.Stop()

	tier := render.TierFor(c.cam.Zoom())
	c.hovered = c.hoverAt(world)

	if tier.Editable() {
		if id, side, ok := c.anchorAt(world); ok {
			c.draft = &draftState{from: id, fromSide: side, to: world}
			c.state = StateDraftingEdge
			return
		}
		if id, h, ok := c.handleAt(world); ok {
			card, _ := c.scene.Card(id)
			c.resize = &resizeState{id: id, handle: h, start: card.Box(), box: card.Box()}
			c.state = StateResizing
			return
		}
	}

	if id := c.cardAt(world); id != "" {
		switch {
		case ev.Mods.Shift && c.selection[id]:
			delete(c.selection, id)
			return
		case ev.Mods.Shift:
			c.selection[id] = true
		case !c.selection[id]:
			c.selection = map[string]bool{id: true}
		}
		if !tier.Interactive() {
			return
		}
		c.beginDrag(id)
		return
	}

	base := map[string]bool{}
	if ev.Mods.Shift {
		base = c.SelectedSet()
	} else {
		c.selection = map[string]bool{}
	}
	c.marquee = &marqueeState{base: base, rect: geom.Rect{X: world.X, Y: world.Y}}
	c.state = StateMarquee
}

func (c *Controller) beginDrag(primary string) {
	start := make(map[string]geom.Rect, len(c.selection))
	for _, card := range c.scene.Cards() {
		if c.selection[card.ID] {
			start[card.ID] = card.Box()
		}
	}
	c.drag = &dragState{primary: primary, start: start}
	c.guides = nil
	c.state = StateDraggingCards
}

// PointerMove updates the active gesture, or the hover target when idle.
func (c *Controller) PointerMove(ev Pointer) {
	world := c.cam.ScreenToWorld(ev.Pos)
	switch c.state {
	case StateIdle:
		c.hovered = c.hoverAt(world)
	case StatePanning:
		c.cam.MovePan(ev.Pos, ev.Time)
	case StateDraggingCards:
		c.moveDrag(world)
	case StateMarquee:
		c.moveMarquee(world)
	case StateDraftingEdge:
		c.draft.to = world
	case StateResizing:
		c.moveResize(world)
	}
}

func (c *Controller) moveDrag(world geom.Point) {
	d := world.Sub(c.origin)
	p := c.drag.start[c.drag.primary]
	// All selected cards move by the primary card's grid-snapped offset, so
	// relative positions are preserved.
	offset := geom.Point{X: geom.Snap(p.X+d.X) - p.X, Y: geom.Snap(p.Y+d.Y) - p.Y}

	var boxes []geom.Rect
	for _, b := range c.drag.start {
		boxes = append(boxes, b.Translate(offset))
	}
	union, _ := geom.Bounds(boxes)
	dragging := make(map[string]bool, len(c.drag.start))
	for id := range c.drag.start {
		dragging[id] = true
	}
	snap := geom.ComputeSnap(union, c.targets(), dragging)
	c.drag.offset = offset
	c.guides = onGridGuides(snap)
}

// onGridGuides keeps the guides of axes that are already aligned. A guide
// delta is shorter than a grid unit, so the grid snap on commit would undo
// it; those axes show no guide instead of a position that will not stick.
func onGridGuides(snap geom.SnapResult) []geom.Guide {
	var out []geom.Guide
	for _, g := range snap.Guides {
		if (g.Axis == geom.AxisX && snap.Delta.X == 0) || (g.Axis == geom.AxisY && snap.Delta.Y == 0) {
			out = append(out, g)
		}
	}
	return out
}

func (c *Controller) targets() []geom.Target {
	cards := c.scene.Cards()
	out := make([]geom.Target, len(cards))
	for i, card := range cards {
		out[i] = geom.Target{ID: card.ID, Box: card.Box()}
	}
	return out
}

func (c *Controller) moveMarquee(world geom.Point) {
	c.marquee.rect = geom.RectFromPoints(c.origin, world)
	sel := make(map[string]bool, len(c.marquee.base))
	for id := range c.marquee.base {
		sel[id] = true
	}
	for _, card := range c.scene.Cards() {
		if card.Box().Intersects(c.marquee.rect) {
			sel[card.ID] = true
		}
	}
	c.selection = sel
}

func (c *Controller) moveResize(world geom.Point) {
	r := c.resize
	d := world.Sub(c.origin)
	minW := geom.SnapUp(scene.MinCardWidth)
	minH := geom.SnapUp(scene.MinCardHeight)
	// Only the moving edge snaps. The fixed edge may be off-grid on an
	// auto-grown card and must not move.
	left, top, right, bottom := r.start.X, r.start.Y, r.start.Right(), r.start.Bottom()
	if r.handle.west() {
		left = math.Min(geom.Snap(r.start.X+d.X), geom.SnapDown(right-minW))
	}
	if r.handle.east() {
		right = math.Max(geom.Snap(r.start.Right()+d.X), left+minW)
	}
	if r.handle.north() {
		top = math.Min(geom.Snap(r.start.Y+d.Y), geom.SnapDown(bottom-minH))
	}
	if r.handle.south() {
		bottom = math.Max(geom.Snap(r.start.Bottom()+d.Y), top+minH)
	}
	r.box = geom.Rect{X: left, Y: top, W: right - left, H: bottom - top}
}

// PointerUp commits the active gesture and returns to idle.
func (c *Controller) PointerUp(ev Pointer) error {
	if c.state == StateIdle {
		return nil
	}
	c.PointerMove(ev)
	return c.release()
}

// Blur force-releases any active gesture at the last known pointer position,
// committing it as a normal release would.
func (c *Controller) Blur() error {
	if c.state == StateIdle {
		return nil
	}
	return c.release()
}

func (c *Controller) release() error {
	defer c.reset()
	switch c.state {
	case StatePanning:
		c.cam.EndPan()
	case StateDraggingCards:
		if c.drag.offset == (geom.Point{}) {
			return nil
		}
		pos := make(map[string]geom.Point, len(c.drag.start))
		for id, b := range c.drag.start {
			pos[id] = geom.Point{X: b.X + c.drag.offset.X, Y: b.Y + c.drag.offset.Y}
		}
		return c.Apply(func(s *scene.Scene) error { return s.MoveCards(pos) })
	case StateResizing:
		r := c.resize
		if r.box == r.start {
			return nil
		}
		box := r.box
		return c.Apply(func(s *scene.Scene) error {
			_, err := s.ResizeCard(r.id, box)
			return err
		})
	case StateDraftingEdge:
		to := c.cardAt(c.draft.to)
		if to == "" || to == c.draft.from {
			return nil
		}
		card, _ := c.scene.Card(to)
		e := scene.Edge{
			From:     c.draft.from,
			FromSide: c.draft.fromSide,
			To:       to,
			ToSide:   geom.ClosestSide(card.Box(), c.draft.to),
		}
		return c.Apply(func(s *scene.Scene) error {
			_, err := s.AddEdge(e)
			return err
		})
	}
	return nil
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.drag, c.resize, c.marquee, c.draft, c.guides = nil, nil, nil, nil, nil
}

// Key handles keyboard shortcuts. Escape clears the selection in any state
// and cancels a marquee. Everything else only runs from idle without inline
// text focus.
func (c *Controller) Key(ev Key) error {
	if ev.Key == "Escape" {
		c.selection = map[string]bool{}
		if c.state == StateMarquee {
			// The marquee would rebuild the selection on the next move.
			c.reset()
		}
		return nil
	}
	if c.state != StateIdle || c.textFocus {
		return nil
	}
	key := ev.Key
	if len(key) == 1 {
		key = strings.ToLower(key)
	}
	switch {
	case ev.Mods.Command() && key == "a":
		c.selection = map[string]bool{}
		for _, card := range c.scene.Cards() {
			c.selection[card.ID] = true
		}
	case ev.Mods.Command() && key == "d":
		return c.duplicateSelection()
	case ev.Mods.Command() && key == "z" && ev.Mods.Shift, ev.Mods.Command() && key == "y":
		c.Redo()
	case ev.Mods.Command() && key == "z":
		c.Undo()
	case key == "Delete" || key == "Backspace":
		ids := c.Selection()
		if len(ids) == 0 {
			return nil
		}
		err := c.Apply(func(s *scene.Scene) error {
			s.DeleteCards(ids)
			return nil
		})
		c.selection = map[string]bool{}
		return err
	case strings.HasPrefix(key, "Arrow"):
		return c.nudge(key, ev.Mods.Shift)
	}
	return nil
}

func (c *Controller) duplicateSelection() error {
	ids := c.Selection()
	if len(ids) == 0 {
		return nil
	}
	var dups []string
	err := c.Apply(func(s *scene.Scene) error {
		dups = s.Duplicate(ids, geom.Point{X: DuplicateOffset, Y: DuplicateOffset})
		return nil
	})
	if err == nil {
		c.Select(dups...)
	}
	return err
}

func (c *Controller) nudge(key string, large bool) error {
	step := NudgeStep
	if large {
		step = NudgeStepLarge
	}
	var d geom.Point
	switch key {
	case "ArrowLeft":
		d.X = -step
	case "ArrowRight":
		d.X = step
	case "ArrowUp":
		d.Y = -step
	case "ArrowDown":
		d.Y = step
	default:
		return nil
	}
	ids := c.Selection()
	if len(ids) == 0 {
		return nil
	}
	pos := make(map[string]geom.Point, len(ids))
	for _, id := range ids {
		card, _ := c.scene.Card(id)
		pos[id] = geom.Point{X: card.X + d.X, Y: card.Y + d.Y}
	}
	return c.Apply(func(s *scene.Scene) error { return s.MoveCards(pos) })
}

// cardAt returns the topmost card containing the world point.
func (c *Controller) cardAt(p geom.Point) string {
	cards := c.scene.Cards()
	for i := len(cards) - 1; i >= 0; i-- {
		if cards[i].Box().Contains(p) {
			return cards[i].ID
		}
	}
	return ""
}

// hoverAt is like cardAt but reaches out to the anchor dots around a card.
func (c *Controller) hoverAt(p geom.Point) string {
	reach := (anchorOffset + anchorRadius) / c.cam.Zoom()
	cards := c.scene.Cards()
	for i := len(cards) - 1; i >= 0; i-- {
		if cards[i].Box().Expand(reach).Contains(p) {
			return cards[i].ID
		}
	}
	return ""
}

// AnchorDot returns the world position of the drawn anchor dot for a side.
func AnchorDot(box geom.Rect, side geom.Side, zoom float64) geom.Point {
	a := geom.Anchor(box, side)
	n := side.Normal()
	return geom.Point{X: a.X + n.X*anchorOffset/zoom, Y: a.Y + n.Y*anchorOffset/zoom}
}

func (c *Controller) anchorAt(p geom.Point) (string, geom.Side, bool) {
	if c.hovered == "" {
		return "", "", false
	}
	card, ok := c.scene.Card(c.hovered)
	if !ok {
		return "", "", false
	}
	zoom := c.cam.Zoom()
	r := anchorRadius / zoom
	for _, side := range geom.Sides {
		dot := AnchorDot(card.Box(), side, zoom)
		if math.Hypot(p.X-dot.X, p.Y-dot.Y) <= r {
			return card.ID, side, true
		}
	}
	return "", "", false
}

// handleAt finds a resize handle of a selected card under the world point.
func (c *Controller) handleAt(p geom.Point) (string, Handle, bool) {
	tol := handleTolerance / c.cam.Zoom()
	cards := c.scene.Cards()
	for i := len(cards) - 1; i >= 0; i-- {
		card := cards[i]
		if !c.selection[card.ID] {
			continue
		}
		b := card.Box()
		if !b.Expand(tol).Contains(p) {
			continue
		}
		nearW := math.Abs(p.X-b.X) <= tol
		nearE := math.Abs(p.X-b.Right()) <= tol
		nearN := math.Abs(p.Y-b.Y) <= tol
		nearS := math.Abs(p.Y-b.Bottom()) <= tol
		var h Handle
		switch {
		case nearN && nearW:
			h = HandleNW
		case nearN && nearE:
			h = HandleNE
		case nearS && nearW:
			h = HandleSW
		case nearS && nearE:
			h = HandleSE
		case nearN:
			h = HandleN
		case nearS:
			h = HandleS
		case nearW:
			h = HandleW
		case nearE:
			h = HandleE
		default:
			continue
		}
		return card.ID, h, true
	}
	return "", "", false
}
