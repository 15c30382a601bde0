// Package retrieval turns a user question into ranked documentation passages.
// It embeds the query, searches the vector index with a metadata predicate
// built from the request's product/version filter, and collapses chunked
// results so each source document appears once.
package retrieval

import (
	"strings"

	"github.com/wattsjs/askcisco/internal/index"
)

// Document is one retrieved documentation chunk with its citation metadata.
// Multiple documents may share a Source when the source was split into chunks
// at indexing time.
type Document struct {
	Content  string
	Source   string
	Title    string
	Subtitle string
	Products []string
	Versions []string
	Outdated bool
}

// Metadata is the citation payload for one document, serialized into the
// x-response-data response header so clients can render sources without
// parsing the generated text.
type Metadata struct {
	Source   string   `json:"source"`
	Title    string   `json:"title,omitempty"`
	Subtitle string   `json:"subtitle,omitempty"`
	Products []string `json:"products,omitempty"`
	Versions []string `json:"versions,omitempty"`
}

// Metadata returns the citation metadata for the document.
func (d Document) Metadata() Metadata {
	return Metadata{
		Source:   d.Source,
		Title:    d.Title,
		Subtitle: d.Subtitle,
		Products: d.Products,
		Versions: d.Versions,
	}
}

// documentFromPoint maps an index search result onto a Document. The indexing
// pipeline stores the chunk text under "content" and the citation fields under
// a nested "metadata" object; singular and plural tag fields are merged.
func documentFromPoint(p index.Point) Document {
	meta, _ := p.Payload["metadata"].(map[string]any)
	return Document{
		Content:  stringField(p.Payload, "content"),
		Source:   stringField(meta, "source"),
		Title:    stringField(meta, "title"),
		Subtitle: stringField(meta, "subtitle"),
		Products: tagField(meta, "product", "products"),
		Versions: tagField(meta, "version", "versions"),
		Outdated: boolField(meta, "outdated"),
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

// tagField merges a scalar tag field with its plural list form into one slice,
// dropping blanks and duplicates while preserving order.
func tagField(m map[string]any, scalar, plural string) []string {
	var tags []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		tags = append(tags, s)
	}

	if s, ok := m[scalar].(string); ok {
		add(s)
	}
	if list, ok := m[plural].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				add(s)
			}
		}
	}
	return tags
}
