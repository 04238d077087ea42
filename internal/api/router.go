package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/kenaz-canvas/internal/canvasservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *canvasservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Canvas lifecycle and view.
	r.Get("/canvases/{vault}", h.ListCanvases)
	r.Delete("/canvases/{vault}/{page}", h.CloseCanvas)
	r.Post("/canvases/{vault}/{page}/open", h.OpenCanvas)
	r.Get("/canvases/{vault}/{page}/scene", h.GetScene)
	r.Post("/canvases/{vault}/{page}/events", h.PostEvents)
	r.Get("/canvases/{vault}/{page}/frame", h.GetFrame)
	r.Get("/canvases/{vault}/{page}/minimap", h.GetMinimap)
	r.Post("/canvases/{vault}/{page}/minimap/click", h.MinimapClick)
	r.Post("/canvases/{vault}/{page}/fit", h.Fit)
	r.Post("/canvases/{vault}/{page}/undo", h.Undo)
	r.Post("/canvases/{vault}/{page}/redo", h.Redo)

	// Direct scene edits.
	r.Post("/canvases/{vault}/{page}/cards", h.CreateCard)
	r.Patch("/canvases/{vault}/{page}/cards/{id}", h.UpdateCard)
	r.Delete("/canvases/{vault}/{page}/cards/{id}", h.DeleteCard)
	r.Post("/canvases/{vault}/{page}/cards/{id}/front", h.ReorderCard(true))
	r.Post("/canvases/{vault}/{page}/cards/{id}/back", h.ReorderCard(false))
	r.Post("/canvases/{vault}/{page}/cards/{id}/unfold", h.ToggleUnfold)
	r.Post("/canvases/{vault}/{page}/edges", h.CreateEdge)
	r.Delete("/canvases/{vault}/{page}/edges/{id}", h.DeleteEdge)

	// Page registry.
	r.Get("/pages/*", h.GetPage)
	r.Get("/search", h.SearchPages)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
