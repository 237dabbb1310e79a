// Package jsonapi shapes generated records as JSON:API documents.
//
// Relationships are link-only: a resource advertises a "related" URL for each
// relationship its entity owns and never embeds linkage data.
package jsonapi

import (
	"fmt"
	"strconv"

	"github.com/mark3labs/schema2api/internal/mockdata"
	"github.com/mark3labs/schema2api/internal/schema"
)

// MediaType is the JSON:API content type.
const MediaType = "application/vnd.api+json"

type Links struct {
	Self    string `json:"self,omitempty"`
	Related string `json:"related,omitempty"`
}

type Relationship struct {
	Links Links `json:"links"`
}

type Resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    map[string]any          `json:"attributes"`
	Links         Links                   `json:"links"`
	Relationships map[string]Relationship `json:"relationships"`
}

// Document is a top-level data document. Data holds a *Resource or a
// []*Resource.
type Document struct {
	Data any `json:"data"`
}

type ErrorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

type ErrorDocument struct {
	Errors []ErrorObject `json:"errors"`
}

// FormatResource converts record into a resource of typeName. It returns nil
// for a nil record, which callers use to signal "not found".
func FormatResource(record mockdata.Record, typeName string, graph *schema.Graph) *Resource {
	if record == nil {
		return nil
	}
	id := record.ID()

	attrs := make(map[string]any, len(record))
	for k, v := range record {
		if k == "id" {
			continue
		}
		attrs[k] = v
	}

	rels := make(map[string]Relationship)
	if e, ok := graph.EntityForType(typeName); ok {
		for _, name := range e.RelationshipNames() {
			rels[name] = Relationship{Links: Links{Related: fmt.Sprintf("/%s/%s/%s", typeName, id, name)}}
		}
	}

	return &Resource{
		ID:            id,
		Type:          typeName,
		Attributes:    attrs,
		Links:         Links{Self: fmt.Sprintf("/%s/%s", typeName, id)},
		Relationships: rels,
	}
}

// FormatCollection formats records in order. The result is never nil so an
// empty collection encodes as [].
func FormatCollection(records []mockdata.Record, typeName string, graph *schema.Graph) []*Resource {
	out := make([]*Resource, 0, len(records))
	for _, rec := range records {
		out = append(out, FormatResource(rec, typeName, graph))
	}
	return out
}

// FormatError builds a single-error document.
func FormatError(status int, title, detail string) ErrorDocument {
	return ErrorDocument{Errors: []ErrorObject{{
		Status: strconv.Itoa(status),
		Title:  title,
		Detail: detail,
	}}}
}
