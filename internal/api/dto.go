package api

import (
	"github.com/starford/kenaz-canvas/internal/canvas"
	"github.com/starford/kenaz-canvas/internal/canvas/camera"
	"github.com/starford/kenaz-canvas/internal/canvas/geom"
	"github.com/starford/kenaz-canvas/internal/canvas/render"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
	"github.com/starford/kenaz-canvas/internal/models"
	"github.com/starford/kenaz-canvas/internal/pages"
)

// CanvasState is the full state of an open canvas.
type CanvasState struct {
	Vault     string       `json:"vault" example:"main" validate:"required"`
	Page      string       `json:"page" example:"projects/atlas" validate:"required"`
	Scene     scene.Data   `json:"scene" validate:"required"`
	Camera    camera.State `json:"camera" validate:"required"`
	Selection []string     `json:"selection" validate:"required"`
	CanUndo   bool         `json:"canUndo"`
	CanRedo   bool         `json:"canRedo"`
}

// CanvasListResponse lists the pages of a vault that have a stored canvas.
type CanvasListResponse struct {
	Vault string   `json:"vault" example:"main" validate:"required"`
	Pages []string `json:"pages" validate:"required"`
}

// EventsRequest is a batch of input events applied in order. Width and
// Height, when positive, report the client viewport.
type EventsRequest struct {
	Events []canvas.Event `json:"events" validate:"required"`
	Width  float64        `json:"width,omitempty" example:"1280"`
	Height float64        `json:"height,omitempty" example:"800"`
}

// FrameResponse is a rendered frame plus the interaction state a client
// needs to draw its chrome.
type FrameResponse struct {
	Frame     render.Frame `json:"frame" validate:"required"`
	Selection []string     `json:"selection" validate:"required"`
	State     string       `json:"state" example:"idle" validate:"required"`
	CanUndo   bool         `json:"canUndo"`
	CanRedo   bool         `json:"canRedo"`
	// Errors lists events of the batch that were rejected.
	Errors []string `json:"errors,omitempty"`
}

// MinimapClickRequest is a click in minimap pixel coordinates.
type MinimapClickRequest struct {
	X float64 `json:"x" example:"70"`
	Y float64 `json:"y" example:"50"`
}

// CameraResponse wraps the camera after a camera operation.
type CameraResponse struct {
	Camera camera.State `json:"camera" validate:"required"`
}

// HistoryResponse is returned by undo and redo.
type HistoryResponse struct {
	Changed bool `json:"changed"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

// CreateCardRequest is the request body for adding a card. Zero size means
// the default size.
type CreateCardRequest struct {
	Kind   scene.Kind  `json:"kind" example:"text"`
	X      float64     `json:"x" example:"48"`
	Y      float64     `json:"y" example:"96"`
	Width  float64     `json:"width,omitempty" example:"240"`
	Height float64     `json:"height,omitempty" example:"144"`
	Color  scene.Color `json:"color,omitempty" example:"blue"`
	Header string      `json:"header,omitempty" example:"Idea"`
	Body   string      `json:"body,omitempty"`
	Label  string      `json:"label,omitempty"`
	PageID string      `json:"pageId,omitempty" example:"projects/atlas"`
}

func (r CreateCardRequest) card() scene.Card {
	return scene.Card{
		Kind:   r.Kind,
		X:      r.X,
		Y:      r.Y,
		Width:  r.Width,
		Height: r.Height,
		Color:  r.Color,
		Header: r.Header,
		Body:   r.Body,
		Label:  r.Label,
		PageID: r.PageID,
	}
}

// CreateEdgeRequest is the request body for connecting two cards.
type CreateEdgeRequest struct {
	From     string      `json:"fromCardId" validate:"required"`
	FromSide geom.Side   `json:"fromSide" example:"right" validate:"required"`
	To       string      `json:"toCardId" validate:"required"`
	ToSide   geom.Side   `json:"toSide" example:"left" validate:"required"`
	Color    scene.Color `json:"color,omitempty"`
	Label    string      `json:"label,omitempty"`
}

// UnfoldResponse reports the unfolded render flag of a card.
type UnfoldResponse struct {
	Unfolded bool `json:"unfolded"`
}

// PageDetail is a page registry entry (aliased from the domain layer).
type PageDetail = models.Page

// SearchResponse wraps page search results.
type SearchResponse struct {
	Results []pages.SearchResult `json:"results" validate:"required"`
}
