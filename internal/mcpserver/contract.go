package mcpserver

// CanvasFormatContract describes the scene model that LLM consumers read
// through get_canvas and build with the card and edge tools.
const CanvasFormatContract = `# Canvas Format

A canvas belongs to one vault page and holds cards and edges on an infinite
plane. World coordinates grow right (x) and down (y).

## Cards

` + "```" + `json
{
  "id": "1b9d6bcd-...",
  "kind": "text",            // text | note-link | group
  "x": 48, "y": 96,          // top-left corner, snapped to a 24-unit grid
  "width": 240, "height": 144,
  "color": "default",        // default red orange yellow green blue purple pink
  "header": "Title line",
  "body": "Free text",
  "pageId": "projects/atlas" // note-link only
}
` + "```" + `

Rules:

1. Positions and sizes are multiples of 24. Other values are rounded.
2. Width is at least 120 and height at least 60 (72 after snapping).
   Omitted sizes default to 240×144.
3. **note-link** cards point at a vault page. Pass the page id, title or alias;
   it is stored as the page id. Use ` + "`" + `resolve_page` + "`" + ` to check a reference first.
4. **group** cards are frames drawn behind other cards; they do not own them.
5. Later cards are drawn on top of earlier ones.

## Edges

` + "```" + `json
{ "id": "...", "fromCardId": "a", "fromSide": "right", "toCardId": "b", "toSide": "left" }
` + "```" + `

Sides are top, right, bottom or left. When omitted, ` + "`" + `connect_cards` + "`" + ` picks the
sides that face each other. Deleting a card deletes its edges.

## Layout tips

- Leave at least one grid unit (24) between cards.
- Lay out a flow left to right with 96 units between columns.
`
