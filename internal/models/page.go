// Package models defines the vault page types shared by storage and the page
// registry.
package models

import "time"

// Page is a vault Markdown page as known to the registry. ID is the
// vault-relative path without the .md extension.
type Page struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageFile is a lightweight listing entry for a Markdown file on disk.
type PageFile struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
