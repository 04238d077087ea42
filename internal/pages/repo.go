package pages

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/kenaz-canvas/internal/apperr"
	"github.com/starford/kenaz-canvas/internal/models"
)

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const pageColumns = `id, path, title, summary, tags, checksum, updated_at`

// Upsert inserts or replaces a page and its search entry within a transaction.
func (db *DB) Upsert(p models.Page, aliases []string, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("pages: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if p.Tags == nil {
		p.Tags = []string{}
	}
	if aliases == nil {
		aliases = []string{}
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	tagsJSON, _ := json.Marshal(p.Tags)
	aliasJSON, _ := json.Marshal(aliases)

	_, err = tx.Exec(`
		INSERT INTO pages (id, path, title, summary, tags, aliases, body, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path       = excluded.path,
			title      = excluded.title,
			summary    = excluded.summary,
			tags       = excluded.tags,
			aliases    = excluded.aliases,
			body       = excluded.body,
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, p.ID, p.Path, p.Title, p.Summary, string(tagsJSON), string(aliasJSON), body, p.Checksum, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pages: upsert: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, p.ID, p.Title, body, p.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a page and its search entry.
func (db *DB) Delete(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("pages: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	if _, err := tx.Exec(`DELETE FROM pages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("pages: delete: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(r rowScanner) (*models.Page, error) {
	var (
		p    models.Page
		tags string
	)
	if err := r.Scan(&p.ID, &p.Path, &p.Title, &p.Summary, &tags, &p.Checksum, &p.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(tags), &p.Tags)
	return &p, nil
}

// Get returns the page with the given id, or apperr.ErrNotFound.
func (db *DB) Get(id string) (*models.Page, error) {
	p, err := scanPage(db.conn.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pages: get: %w", err)
	}
	return p, nil
}

// Resolve finds a page by id, then by case-insensitive title or alias.
func (db *DB) Resolve(ref string) (*models.Page, error) {
	ref = strings.TrimSpace(ref)
	if p, err := db.Get(ref); !errors.Is(err, apperr.ErrNotFound) {
		return p, err
	}
	p, err := scanPage(db.conn.QueryRow(`
		SELECT `+pageColumns+` FROM pages
		WHERE lower(title) = lower(?)
		   OR EXISTS (SELECT 1 FROM json_each(pages.aliases) WHERE lower(json_each.value) = lower(?))
		ORDER BY id
		LIMIT 1
	`, ref, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pages: resolve: %w", err)
	}
	return p, nil
}

// PageTitle returns the display title for a page id. Pages without a title
// fall back to the last path segment of the id.
func (db *DB) PageTitle(id string) (string, bool) {
	var title string
	if err := db.conn.QueryRow(`SELECT title FROM pages WHERE id = ?`, id).Scan(&title); err != nil {
		return "", false
	}
	if title == "" {
		title = id[strings.LastIndex(id, "/")+1:]
	}
	return title, true
}

// List returns pages ordered by id together with the total count.
func (db *DB) List(limit, offset int) ([]models.Page, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pages: count: %w", err)
	}
	rows, err := db.conn.Query(`SELECT `+pageColumns+` FROM pages ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pages: list: %w", err)
	}
	defer rows.Close()

	out := []models.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// Checksums returns the stored checksum of every page keyed by path.
func (db *DB) Checksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("pages: checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
