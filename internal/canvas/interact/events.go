package interact

import (
	"time"

	"github.com/starford/kenaz-canvas/internal/canvas/geom"
)

// State is the controller's gesture state.
type State string

const (
	StateIdle          State = "idle"
	StatePanning       State = "panning"
	StateDraggingCards State = "dragging-cards"
	StateMarquee       State = "marquee-selecting"
	StateDraftingEdge  State = "drafting-edge"
	StateResizing      State = "resizing-card"
)

// Button is a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Mods are the modifier keys held during an event. Pan is the pan modifier
// (Space held down).
type Mods struct {
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Meta  bool `json:"meta,omitempty"`
	Pan   bool `json:"pan,omitempty"`
}

// Command reports whether the platform command key (Ctrl or Meta) is held.
func (m Mods) Command() bool { return m.Ctrl || m.Meta }

// Pointer is a pointer event in screen coordinates.
type Pointer struct {
	Pos    geom.Point `json:"pos"`
	Button Button     `json:"button"`
	Mods   Mods       `json:"mods"`
	Time   time.Time  `json:"time"`
}

// Key is a key press. Key uses DOM key names ("a", "Escape", "ArrowLeft").
type Key struct {
	Key  string `json:"key"`
	Mods Mods   `json:"mods"`
}

// Wheel is a wheel event at a screen position.
type Wheel struct {
	Pos    geom.Point `json:"pos"`
	DeltaY float64    `json:"deltaY"`
}

// Handle identifies one of the eight resize handles.
type Handle string

const (
	HandleN  Handle = "n"
	HandleS  Handle = "s"
	HandleE  Handle = "e"
	HandleW  Handle = "w"
	HandleNE Handle = "ne"
	HandleNW Handle = "nw"
	HandleSE Handle = "se"
	HandleSW Handle = "sw"
)

func (h Handle) west() bool  { return h == HandleW || h == HandleNW || h == HandleSW }
func (h Handle) east() bool  { return h == HandleE || h == HandleNE || h == HandleSE }
func (h Handle) north() bool { return h == HandleN || h == HandleNE || h == HandleNW }
func (h Handle) south() bool { return h == HandleS || h == HandleSE || h == HandleSW }
