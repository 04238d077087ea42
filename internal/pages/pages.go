package pages

import (
	"strings"

	"github.com/starford/kenaz-canvas/internal/models"
)

// Registry is the page lookup surface used by canvases, the API and the MCP
// server. Consumers depend on it rather than on *DB.
type Registry interface {
	Get(id string) (*models.Page, error)
	Resolve(ref string) (*models.Page, error)
	PageTitle(id string) (string, bool)
	List(limit, offset int) ([]models.Page, int, error)
	Search(query string, limit int) ([]SearchResult, error)
}

var _ Registry = (*DB)(nil)

// IDFromPath maps a vault-relative Markdown path to its page id.
func IDFromPath(path string) string {
	return strings.TrimSuffix(strings.ReplaceAll(path, "\\", "/"), ".md")
}
