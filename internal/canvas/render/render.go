// Package render chooses a level of detail from the zoom and builds the list
// of viewport-visible cards and edges to draw.
package render

import (
	"github.com/starford/kenaz-canvas/internal/canvas/camera"
	"github.com/starford/kenaz-canvas/internal/canvas/geom"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
)

// Tier is a rendering fidelity level.
type Tier string

const (
	TierDot     Tier = "dot"
	TierReduced Tier = "reduced"
	TierFull    Tier = "full"
)

// Tier boundaries.
const (
	ReducedZoom = 0.2
	FullZoom    = 0.45
)

// TierFor picks the tier for a zoom level. It depends on nothing else.
func TierFor(zoom float64) Tier {
	switch {
	case zoom < ReducedZoom:
		return TierDot
	case zoom < FullZoom:
		return TierReduced
	default:
		return TierFull
	}
}

// Interactive reports whether cards can be dragged at this tier.
func (t Tier) Interactive() bool { return t != TierDot }

// Editable reports whether inline editing, resize handles and anchor dots
// are available at this tier.
func (t Tier) Editable() bool { return t == TierFull }

// PageResolver maps note-link page ids to titles.
type PageResolver interface {
	PageTitle(pageID string) (string, bool)
}

// Input is everything a frame is built from.
type Input struct {
	Scene    *scene.Scene
	Camera   *camera.Camera
	Width    float64
	Height   float64
	Selected map[string]bool
	// Live holds uncommitted geometry for cards in an active gesture.
	Live     map[string]geom.Rect
	Guides   []geom.Guide
	Marquee  *geom.Rect
	Draft    *geom.Path
	Unfolded map[string]bool
	Pages    PageResolver
}

// CardView is one card as drawn.
type CardView struct {
	ID         string      `json:"id"`
	Kind       scene.Kind  `json:"kind"`
	Color      scene.Color `json:"color"`
	World      geom.Rect   `json:"world"`
	Screen     geom.Rect   `json:"screen"`
	Header     string      `json:"header,omitempty"`
	Body       string      `json:"body,omitempty"`
	Label      string      `json:"label,omitempty"`
	PageTitle  string      `json:"pageTitle,omitempty"`
	Selected   bool        `json:"selected"`
	Editable   bool        `json:"editable"`
	Handles    bool        `json:"handles"`
	Anchors    bool        `json:"anchors"`
	Unfolded   bool        `json:"unfolded,omitempty"`
	BrokenLink bool        `json:"brokenLink,omitempty"`
	ZIndex     int         `json:"z"`
}

// EdgeView is one edge as drawn, in world coordinates.
type EdgeView struct {
	ID       string      `json:"id"`
	From     string      `json:"from"`
	To       string      `json:"to"`
	Color    scene.Color `json:"color"`
	Label    string      `json:"label,omitempty"`
	Path     string      `json:"path"`
	LabelPos geom.Point  `json:"labelPos"`
}

// Frame is the render output for one viewport.
type Frame struct {
	Tier    Tier         `json:"tier"`
	Camera  camera.State `json:"camera"`
	Cards   []CardView   `json:"cards"`
	Edges   []EdgeView   `json:"edges"`
	Guides  []geom.Guide `json:"guides,omitempty"`
	Marquee *geom.Rect   `json:"marquee,omitempty"`
	Draft   string       `json:"draft,omitempty"`
	Total   int          `json:"total"`
}

// Build culls the scene against the viewport and renders what remains at
// the tier chosen by the camera zoom.
func Build(in Input) Frame {
	zoom := in.Camera.Zoom()
	tier := TierFor(zoom)
	view := in.Camera.WorldRect(in.Width, in.Height)

	cards := in.Scene.Cards()
	boxes := make(map[string]geom.Rect, len(cards))
	out := Frame{
		Tier:   tier,
		Camera: in.Camera.State(),
		Cards:  []CardView{},
		Edges:  []EdgeView{},
		Guides: in.Guides,
		Total:  len(cards),
	}
	for z, c := range cards {
		box := c.Box()
		if live, ok := in.Live[c.ID]; ok {
			box = live
		}
		boxes[c.ID] = box
		if !geom.Visible(box, view, zoom) {
			continue
		}
		out.Cards = append(out.Cards, cardView(c, box, z, tier, in))
	}

	for _, e := range in.Scene.Edges() {
		from, okFrom := boxes[e.From]
		to, okTo := boxes[e.To]
		if !okFrom || !okTo {
			continue
		}
		p := geom.EdgePath(geom.Anchor(from, e.FromSide), e.FromSide, geom.Anchor(to, e.ToSide), e.ToSide)
		if !geom.Visible(p.Bounds(), view, zoom) {
			continue
		}
		out.Edges = append(out.Edges, EdgeView{
			ID:       e.ID,
			From:     e.From,
			To:       e.To,
			Color:    e.Color,
			Label:    e.Label,
			Path:     p.SVG(),
			LabelPos: p.At(0.5),
		})
	}

	if in.Marquee != nil {
		m := *in.Marquee
		out.Marquee = &m
	}
	if in.Draft != nil {
		out.Draft = in.Draft.SVG()
	}
	return out
}

func cardView(c scene.Card, box geom.Rect, z int, tier Tier, in Input) CardView {
	v := CardView{
		ID:       c.ID,
		Kind:     c.Kind,
		Color:    c.Color,
		World:    box,
		Screen:   in.Camera.ScreenRect(box),
		Selected: in.Selected[c.ID],
		ZIndex:   z,
	}
	if tier == TierDot {
		return v
	}
	v.Header = c.Header
	if c.Kind == scene.KindGroup {
		v.Label = c.Label
	}
	if c.Kind == scene.KindNoteLink && in.Pages != nil {
		if title, ok := in.Pages.PageTitle(c.PageID); ok {
			v.PageTitle = title
		} else {
			v.BrokenLink = true
		}
	}
	if tier == TierFull {
		v.Body = c.Body
		v.Editable = c.Kind == scene.KindText
		v.Handles = v.Selected
		v.Anchors = true
		v.Unfolded = in.Unfolded[c.ID]
	}
	return v
}
