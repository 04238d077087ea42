package canvas

import (
	"fmt"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/canvas/interact"
)

// EventType names an input event.
type EventType string

const (
	EventPointerDown EventType = "pointerdown"
	EventPointerMove EventType = "pointermove"
	EventPointerUp   EventType = "pointerup"
	EventKey         EventType = "key"
	EventWheel       EventType = "wheel"
	EventBlur        EventType = "blur"
	EventFocus       EventType = "focus"
	EventEdit        EventType = "edit"
)

// TextEdit is a committed inline edit of a text card.
type TextEdit struct {
	CardID string `json:"cardId"`
	Header string `json:"header"`
	Body   string `json:"body"`
}

// Event is one input event as delivered by a client. Exactly the payload
// matching Type is set. Focus reports whether an inline text field gained
// (true) or lost (false) focus.
type Event struct {
	Type    EventType         `json:"type"`
	Pointer *interact.Pointer `json:"pointer,omitempty"`
	Key     *interact.Key     `json:"key,omitempty"`
	Wheel   *interact.Wheel   `json:"wheel,omitempty"`
	Focus   bool              `json:"focus,omitempty"`
	Edit    *TextEdit         `json:"edit,omitempty"`
}

// Validate checks that the payload required by Type is present.
func (e Event) Validate() error {
	missing := false
	switch e.Type {
	case EventPointerDown, EventPointerMove, EventPointerUp:
		missing = e.Pointer == nil
	case EventKey:
		missing = e.Key == nil
	case EventWheel:
		missing = e.Wheel == nil
	case EventEdit:
		missing = e.Edit == nil
	case EventBlur, EventFocus:
	default:
		return fmt.Errorf("canvas: unknown event type %q: %w", e.Type, apperr.ErrInvalidInput)
	}
	if missing {
		return fmt.Errorf("canvas: %s event without payload: %w", e.Type, apperr.ErrInvalidInput)
	}
	return nil
}
