// Package parser reads the metadata of a vault Markdown page: frontmatter,
// title, aliases, tags and a short summary used on note-link cards.
package parser

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// SummaryLimit is the maximum summary length in runes.
const SummaryLimit = 160

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Result holds the output of parsing a Markdown page.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Aliases     []string
	Tags        []string
	Summary     string
}

// Parse extracts page metadata from raw Markdown bytes. Malformed
// frontmatter is not an error; the whole input is then treated as body.
func Parse(data []byte) (*Result, error) {
	fm, body := splitFrontmatter(data)
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		Aliases:     stringList(fm, "aliases"),
		Tags:        extractTags(body, fm),
		Summary:     summarize(body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// stringList reads a frontmatter key holding either a string or a list of
// strings.
func stringList(fm map[string]any, key string) []string {
	var out []string
	switch v := fm[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

// extractTags collects frontmatter tags followed by inline #tags, deduplicated.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, t := range stringList(fm, "tags") {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// summarize returns the first paragraph of prose, skipping headings, joined
// onto one line and cut at SummaryLimit runes.
func summarize(body string) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" && len(parts) > 0:
			return truncate(strings.Join(parts, " "))
		case trimmed == "", strings.HasPrefix(trimmed, "#"):
			continue
		default:
			parts = append(parts, trimmed)
		}
	}
	return truncate(strings.Join(parts, " "))
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= SummaryLimit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:SummaryLimit-1])) + "…"
}
