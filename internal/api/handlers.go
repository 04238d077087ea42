package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kenaz-canvas/internal/canvas"
	"github.com/starford/kenaz-canvas/internal/canvas/geom"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
	"github.com/starford/kenaz-canvas/internal/canvasservice"
)

// maxBody bounds request bodies.
const maxBody = 4 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *canvasservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *canvasservice.Service) *Handler {
	return &Handler{svc: svc}
}

// urlParam returns a decoded route parameter. Page ids contain slashes, which
// clients send encoded (notes%2Ftoday).
func urlParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func canvasKey(r *http.Request) (vault, page string) {
	return urlParam(r, "vault"), urlParam(r, "page")
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func floatQuery(r *http.Request, name string) float64 {
	v, _ := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	return v
}

// instance opens (or reuses) the canvas named by the route.
func (h *Handler) instance(w http.ResponseWriter, r *http.Request) (*canvas.Instance, bool) {
	vault, page := canvasKey(r)
	inst, err := h.svc.Open(r.Context(), vault, page)
	if err != nil {
		writeError(w, "open canvas", err)
		return nil, false
	}
	return inst, true
}

func stateOf(inst *canvas.Instance) CanvasState {
	canUndo, canRedo := inst.History()
	key := inst.Key()
	return CanvasState{
		Vault:     key.Vault,
		Page:      key.Page,
		Scene:     inst.Scene(),
		Camera:    inst.Camera(),
		Selection: nonNil(inst.Selection()),
		CanUndo:   canUndo,
		CanRedo:   canRedo,
	}
}

func frameOf(inst *canvas.Instance, w, h float64) FrameResponse {
	canUndo, canRedo := inst.History()
	return FrameResponse{
		Frame:     inst.Frame(w, h),
		Selection: nonNil(inst.Selection()),
		State:     string(inst.State()),
		CanUndo:   canUndo,
		CanRedo:   canRedo,
	}
}

// ListCanvases handles GET /api/canvases/{vault}.
//
//	@Summary		List pages that have a stored canvas
//	@Tags			canvases
//	@Produce		json
//	@Param			vault	path		string	true	"Vault id"
//	@Success		200		{object}	CanvasListResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault} [get]
func (h *Handler) ListCanvases(w http.ResponseWriter, r *http.Request) {
	vault := urlParam(r, "vault")
	list, err := h.svc.ListCanvases(r.Context(), vault)
	if err != nil {
		writeError(w, "list canvases", err)
		return
	}
	writeJSON(w, http.StatusOK, CanvasListResponse{Vault: vault, Pages: nonNil(list)})
}

// OpenCanvas handles POST /api/canvases/{vault}/{page}/open.
//
//	@Summary		Open a canvas, loading it from the store on first use
//	@Tags			canvases
//	@Produce		json
//	@Param			vault	path		string	true	"Vault id"
//	@Param			page	path		string	true	"Page id (URL-encoded)"
//	@Param			w		query		number	false	"Viewport width"
//	@Param			h		query		number	false	"Viewport height"
//	@Success		200		{object}	CanvasState
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/open [post]
func (h *Handler) OpenCanvas(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	inst.SetViewport(floatQuery(r, "w"), floatQuery(r, "h"))
	writeJSON(w, http.StatusOK, stateOf(inst))
}

// CloseCanvas handles DELETE /api/canvases/{vault}/{page}.
//
//	@Summary		Flush and close an open canvas
//	@Tags			canvases
//	@Param			vault	path	string	true	"Vault id"
//	@Param			page	path	string	true	"Page id (URL-encoded)"
//	@Success		204		"Canvas closed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page} [delete]
func (h *Handler) CloseCanvas(w http.ResponseWriter, r *http.Request) {
	vault, page := canvasKey(r)
	if err := h.svc.Close(r.Context(), vault, page); err != nil {
		writeError(w, "close canvas", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetScene handles GET /api/canvases/{vault}/{page}/scene.
//
//	@Summary		Get the scene, camera and selection of a canvas
//	@Tags			canvases
//	@Produce		json
//	@Success		200	{object}	CanvasState
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/scene [get]
func (h *Handler) GetScene(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateOf(inst))
}

// PostEvents handles POST /api/canvases/{vault}/{page}/events.
//
//	@Summary		Apply a batch of pointer, key and wheel events
//	@Tags			canvases
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EventsRequest	true	"Events in order"
//	@Success		200		{object}	FrameResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/events [post]
func (h *Handler) PostEvents(w http.ResponseWriter, r *http.Request) {
	var req EventsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	inst.SetViewport(req.Width, req.Height)
	var rejected []string
	if err := inst.Dispatch(req.Events...); err != nil {
		if errors.Is(err, canvas.ErrClosed) {
			writeError(w, "dispatch events", err)
			return
		}
		rejected = strings.Split(err.Error(), "\n")
	}
	resp := frameOf(inst, req.Width, req.Height)
	resp.Errors = rejected
	writeJSON(w, http.StatusOK, resp)
}

// GetFrame handles GET /api/canvases/{vault}/{page}/frame.
//
//	@Summary		Render the visible part of a canvas
//	@Tags			canvases
//	@Produce		json
//	@Param			w	query		number	false	"Viewport width"
//	@Param			h	query		number	false	"Viewport height"
//	@Success		200	{object}	FrameResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/frame [get]
func (h *Handler) GetFrame(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, frameOf(inst, floatQuery(r, "w"), floatQuery(r, "h")))
}

// GetMinimap handles GET /api/canvases/{vault}/{page}/minimap.
//
//	@Summary		Project the canvas and viewport into the minimap
//	@Tags			canvases
//	@Produce		json
//	@Param			w	query		number	false	"Viewport width"
//	@Param			h	query		number	false	"Viewport height"
//	@Success		200	{object}	minimap.Minimap
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/minimap [get]
func (h *Handler) GetMinimap(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	inst.SetViewport(floatQuery(r, "w"), floatQuery(r, "h"))
	writeJSON(w, http.StatusOK, inst.Minimap())
}

// MinimapClick handles POST /api/canvases/{vault}/{page}/minimap/click.
//
//	@Summary		Recentre the camera on a minimap click
//	@Tags			canvases
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MinimapClickRequest	true	"Click in minimap pixels"
//	@Success		200		{object}	CameraResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/minimap/click [post]
func (h *Handler) MinimapClick(w http.ResponseWriter, r *http.Request) {
	var req MinimapClickRequest
	if !decodeBody(w, r, &req) {
		return
	}
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	cam := inst.MinimapClick(geom.Point{X: req.X, Y: req.Y})
	writeJSON(w, http.StatusOK, CameraResponse{Camera: cam})
}

// Fit handles POST /api/canvases/{vault}/{page}/fit.
//
//	@Summary		Fit the camera to all cards
//	@Tags			canvases
//	@Produce		json
//	@Success		200	{object}	CameraResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/fit [post]
func (h *Handler) Fit(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	inst.SetViewport(floatQuery(r, "w"), floatQuery(r, "h"))
	writeJSON(w, http.StatusOK, CameraResponse{Camera: inst.Fit()})
}

// Undo handles POST /api/canvases/{vault}/{page}/undo.
//
//	@Summary		Undo the last action
//	@Tags			canvases
//	@Produce		json
//	@Success		200	{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/undo [post]
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, (*canvas.Instance).Undo)
}

// Redo handles POST /api/canvases/{vault}/{page}/redo.
//
//	@Summary		Redo the last undone action
//	@Tags			canvases
//	@Produce		json
//	@Success		200	{object}	HistoryResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/redo [post]
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, (*canvas.Instance).Redo)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request, step func(*canvas.Instance) (bool, error)) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	changed, err := step(inst)
	if err != nil {
		writeError(w, "history", err)
		return
	}
	canUndo, canRedo := inst.History()
	writeJSON(w, http.StatusOK, HistoryResponse{Changed: changed, CanUndo: canUndo, CanRedo: canRedo})
}

// CreateCard handles POST /api/canvases/{vault}/{page}/cards.
//
//	@Summary		Add a card
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateCardRequest	true	"Card to add"
//	@Success		201		{object}	scene.Card
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/cards [post]
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vault, page := canvasKey(r)
	card, err := h.svc.AddCard(r.Context(), vault, page, req.card())
	if err != nil {
		writeError(w, "create card", err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// UpdateCard handles PATCH /api/canvases/{vault}/{page}/cards/{id}.
//
//	@Summary		Update card fields; omitted fields are unchanged
//	@Tags			cards
//	@Accept			json
//	@Produce		json
//	@Param			body	body		scene.CardPatch	true	"Fields to change"
//	@Success		200		{object}	scene.Card
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/cards/{id} [patch]
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	var patch scene.CardPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	vault, page := canvasKey(r)
	card, err := h.svc.UpdateCard(r.Context(), vault, page, urlParam(r, "id"), patch)
	if err != nil {
		writeError(w, "update card", err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/canvases/{vault}/{page}/cards/{id}.
//
//	@Summary		Delete a card and its edges
//	@Tags			cards
//	@Success		204	"Card deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/cards/{id} [delete]
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	vault, page := canvasKey(r)
	if err := h.svc.DeleteCard(r.Context(), vault, page, urlParam(r, "id")); err != nil {
		writeError(w, "delete card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReorderCard handles POST /api/canvases/{vault}/{page}/cards/{id}/front and /back.
//
//	@Summary		Move a card to the top or bottom of the z-order
//	@Tags			cards
//	@Success		204	"Card moved"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/cards/{id}/front [post]
//	@Router			/canvases/{vault}/{page}/cards/{id}/back [post]
func (h *Handler) ReorderCard(front bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vault, page := canvasKey(r)
		if err := h.svc.Reorder(r.Context(), vault, page, urlParam(r, "id"), front); err != nil {
			writeError(w, "reorder card", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ToggleUnfold handles POST /api/canvases/{vault}/{page}/cards/{id}/unfold.
//
//	@Summary		Toggle the unfolded render state of a card
//	@Tags			cards
//	@Produce		json
//	@Success		200	{object}	UnfoldResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/cards/{id}/unfold [post]
func (h *Handler) ToggleUnfold(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	unfolded, err := inst.ToggleUnfold(urlParam(r, "id"))
	if err != nil {
		writeError(w, "toggle unfold", err)
		return
	}
	writeJSON(w, http.StatusOK, UnfoldResponse{Unfolded: unfolded})
}

// CreateEdge handles POST /api/canvases/{vault}/{page}/edges.
//
//	@Summary		Connect two cards
//	@Tags			edges
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateEdgeRequest	true	"Edge to add"
//	@Success		201		{object}	scene.Edge
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/edges [post]
func (h *Handler) CreateEdge(w http.ResponseWriter, r *http.Request) {
	var req CreateEdgeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	vault, page := canvasKey(r)
	edge, err := h.svc.AddEdge(r.Context(), vault, page, scene.Edge{
		From:     req.From,
		FromSide: req.FromSide,
		To:       req.To,
		ToSide:   req.ToSide,
		Color:    req.Color,
		Label:    req.Label,
	})
	if err != nil {
		writeError(w, "create edge", err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// DeleteEdge handles DELETE /api/canvases/{vault}/{page}/edges/{id}.
//
//	@Summary		Delete an edge
//	@Tags			edges
//	@Success		204	"Edge deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvases/{vault}/{page}/edges/{id} [delete]
func (h *Handler) DeleteEdge(w http.ResponseWriter, r *http.Request) {
	vault, page := canvasKey(r)
	if err := h.svc.DeleteEdge(r.Context(), vault, page, urlParam(r, "id")); err != nil {
		writeError(w, "delete edge", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetPage handles GET /api/pages/*.
//
//	@Summary		Get a page registry entry by id, title or alias
//	@Tags			pages
//	@Produce		json
//	@Param			ref	path		string	true	"Page id, title or alias"
//	@Success		200	{object}	PageDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/pages/{ref} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimPrefix(urlParam(r, "*"), "/")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("page id is required"))
		return
	}
	p, err := h.svc.ResolvePage(r.Context(), ref)
	if err != nil {
		writeError(w, "get page", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SearchPages handles GET /api/search.
//
//	@Summary		Full-text search across vault pages
//	@Tags			pages
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) SearchPages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchPages(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: nonNil(results)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
