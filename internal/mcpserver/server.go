// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes canvas tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/kenaz-canvas/internal/canvas/geom"
	"github.com/starford/kenaz-canvas/internal/canvas/scene"
	"github.com/starford/kenaz-canvas/internal/canvasservice"
)

// Server wraps the MCP server with canvas tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *canvasservice.Service
	vault string
}

// New creates a new MCP server with all canvas tools registered. Tools act on
// canvases of vault.
func New(svc *canvasservice.Service, vault string) *Server {
	s := &Server{svc: svc, vault: vault}

	s.mcp = server.NewMCPServer(
		"Kenaz Canvas",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_canvas",
		mcp.WithDescription("Return the cards and edges of the canvas attached to a vault page."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page id the canvas belongs to (e.g. projects/atlas)")),
	), s.getCanvas)

	s.mcp.AddTool(mcp.NewTool("list_canvases",
		mcp.WithDescription("List the pages that have a stored canvas."),
	), s.listCanvases)

	s.mcp.AddTool(mcp.NewTool("add_card",
		mcp.WithDescription("Add a card to a canvas. Read the format first via "+
			"the get_canvas_format tool or the kenaz://canvas-format resource."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page id the canvas belongs to")),
		mcp.WithString("kind", mcp.Description("text (default), note-link or group")),
		mcp.WithNumber("x", mcp.Description("Left edge in world units")),
		mcp.WithNumber("y", mcp.Description("Top edge in world units")),
		mcp.WithNumber("width", mcp.Description("Width in world units (default 240)")),
		mcp.WithNumber("height", mcp.Description("Height in world units (default 144)")),
		mcp.WithString("color", mcp.Description("Palette color (default, red, orange, yellow, green, blue, purple, pink)")),
		mcp.WithString("header", mcp.Description("Single-line header")),
		mcp.WithString("body", mcp.Description("Card text")),
		mcp.WithString("target", mcp.Description("note-link only: page id, title or alias")),
	), s.addCard)

	s.mcp.AddTool(mcp.NewTool("connect_cards",
		mcp.WithDescription("Draw an edge between two cards of a canvas."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page id the canvas belongs to")),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source card id")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target card id")),
		mcp.WithString("from_side", mcp.Description("top, right, bottom or left; omitted picks the side facing the target")),
		mcp.WithString("to_side", mcp.Description("top, right, bottom or left; omitted picks the side facing the source")),
		mcp.WithString("label", mcp.Description("Optional edge label")),
	), s.connectCards)

	s.mcp.AddTool(mcp.NewTool("delete_card",
		mcp.WithDescription("Delete a card and every edge attached to it."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page id the canvas belongs to")),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Card id")),
	), s.deleteCard)

	s.mcp.AddTool(mcp.NewTool("resolve_page",
		mcp.WithDescription("Look up a vault page by id, title or alias."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Page id, title or alias")),
	), s.resolvePage)

	s.mcp.AddTool(mcp.NewTool("search_pages",
		mcp.WithDescription("Full-text search through vault page titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPages)

	s.mcp.AddTool(mcp.NewTool("get_canvas_format",
		mcp.WithDescription("Returns the canvas format: card kinds, grid, sizes and edge sides. "+
			"Call this before adding cards."),
	), s.getCanvasFormat)

	// Resource: canvas format contract.
	s.mcp.AddResource(
		mcp.NewResource("kenaz://canvas-format", "Canvas Format",
			mcp.WithResourceDescription("Card and edge model of a canvas."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCanvasFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inst, err := s.svc.Open(ctx, s.vault, page)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(inst.Scene())
}

func (s *Server) listCanvases(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.svc.ListCanvases(ctx, s.vault)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("no canvases found"), nil
	}
	return mcp.NewToolResultText(strings.Join(list, "\n")), nil
}

func (s *Server) addCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	card := scene.Card{
		Kind:   scene.Kind(req.GetString("kind", string(scene.KindText))),
		X:      req.GetFloat("x", 0),
		Y:      req.GetFloat("y", 0),
		Width:  req.GetFloat("width", 0),
		Height: req.GetFloat("height", 0),
		Color:  scene.Color(req.GetString("color", "")),
		Header: req.GetString("header", ""),
		Body:   req.GetString("body", ""),
		PageID: req.GetString("target", ""),
	}
	added, err := s.svc.AddCard(ctx, s.vault, page, card)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(added)
}

func (s *Server) connectCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	edge := scene.Edge{
		From:     from,
		FromSide: geom.Side(req.GetString("from_side", "")),
		To:       to,
		ToSide:   geom.Side(req.GetString("to_side", "")),
		Label:    req.GetString("label", ""),
	}
	if edge.FromSide == "" || edge.ToSide == "" {
		if err := s.facingSides(ctx, page, &edge); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	added, err := s.svc.AddEdge(ctx, s.vault, page, edge)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(added)
}

// facingSides fills the missing sides of e with the side of each card that
// faces the centre of the other.
func (s *Server) facingSides(ctx context.Context, page string, e *scene.Edge) error {
	inst, err := s.svc.Open(ctx, s.vault, page)
	if err != nil {
		return err
	}
	boxes := map[string]geom.Rect{}
	for _, c := range inst.Scene().Cards {
		boxes[c.ID] = c.Box()
	}
	fromBox, okFrom := boxes[e.From]
	toBox, okTo := boxes[e.To]
	if !okFrom || !okTo {
		return fmt.Errorf("unknown card: %s or %s", e.From, e.To)
	}
	if e.FromSide == "" {
		e.FromSide = geom.ClosestSide(fromBox, toBox.Center())
	}
	if e.ToSide == "" {
		e.ToSide = geom.ClosestSide(toBox, fromBox.Center())
	}
	return nil
}

func (s *Server) deleteCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteCard(ctx, s.vault, page, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) resolvePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.ResolvePage(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", ref)), nil
	}
	return jsonResult(p)
}

func (s *Server) searchPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchPages(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) getCanvasFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CanvasFormatContract), nil
}

func (s *Server) readCanvasFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "kenaz://canvas-format",
			MIMEType: "text/markdown",
			Text:     CanvasFormatContract,
		},
	}, nil
}
