// Package routes derives the HTTP route table for a schema and binds it to a
// router.
//
// Derivation and binding are separate steps: Infer and Manual produce a plain
// Table that can be inspected, printed or described as OpenAPI; a Binder then
// attaches handlers to a gorilla/mux router.
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/schema2api/internal/schema"
)

// ErrDuplicateRoute is returned when two manual endpoints share a path.
var ErrDuplicateRoute = errors.New("duplicate route")

// ErrInvalidPath is returned for manual endpoints whose path is unusable.
var ErrInvalidPath = errors.New("invalid endpoint path")

type Kind string

const (
	KindCollection       Kind = "collection"
	KindItem             Kind = "item"
	KindRelated          Kind = "related"
	KindManualItem       Kind = "manual-item"
	KindManualCollection Kind = "manual-collection"
)

// Route is one derived entry of the table.
type Route struct {
	Method string
	// Pattern is the router template, e.g. "/universities/{id}/programs".
	Pattern string
	Kind    Kind

	// Type is the pluralized resource type served (inferred mode).
	Type string
	// Entity is the singular entity the route belongs to (inferred mode).
	Entity string
	// Relationship names the child collection of a related route, and
	// ForeignKey the attribute children carry.
	Relationship string
	ForeignKey   string

	// Template is the response template of a manual endpoint.
	Template map[string]any
}

// Display renders the pattern with ":param" markers, as users write paths.
func (r Route) Display() string {
	segs := schema.PathSegments(r.Pattern)
	for i, s := range segs {
		if schema.IsParamSegment(s) {
			segs[i] = ":" + schema.ParamName(s)
		}
	}
	return "/" + strings.Join(segs, "/")
}

// Params returns the path parameter names in order.
func (r Route) Params() []string {
	var out []string
	for _, s := range schema.PathSegments(r.Pattern) {
		if schema.IsParamSegment(s) {
			out = append(out, schema.ParamName(s))
		}
	}
	return out
}

func (r Route) String() string {
	return fmt.Sprintf("%-4s %s", r.Method, r.Display())
}

type Table []Route

// Infer derives, for every entity in discovery order, the collection route,
// the single-item route and one related route per relationship.
func Infer(graph *schema.Graph) Table {
	var t Table
	for _, name := range graph.Names() {
		e, _ := graph.Entity(name)
		plural := e.Plural()
		t = append(t,
			Route{Method: http.MethodGet, Pattern: "/" + plural, Kind: KindCollection, Type: plural, Entity: e.Name},
			Route{Method: http.MethodGet, Pattern: "/" + plural + "/{id}", Kind: KindItem, Type: plural, Entity: e.Name},
		)
		for _, rel := range e.RelationshipNames() {
			t = append(t, Route{
				Method:       http.MethodGet,
				Pattern:      "/" + plural + "/{id}/" + rel,
				Kind:         KindRelated,
				Type:         plural,
				Entity:       e.Name,
				Relationship: rel,
				ForeignKey:   e.ForeignKey(),
			})
		}
	}
	return t
}

// Manual derives one route per endpoint. Paths must start with "/" and be
// unique once parameter names are ignored.
func Manual(endpoints []schema.Endpoint) (Table, error) {
	t := make(Table, 0, len(endpoints))
	seen := make(map[string]string, len(endpoints))
	for _, ep := range endpoints {
		pattern, err := MuxPattern(ep.Path)
		if err != nil {
			return nil, err
		}
		shape := shapeKey(pattern)
		if prev, dup := seen[shape]; dup {
			return nil, fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateRoute, ep.Path, prev)
		}
		seen[shape] = ep.Path

		kind := KindManualCollection
		if ep.IsSingleItem() {
			kind = KindManualItem
		}
		t = append(t, Route{Method: http.MethodGet, Pattern: pattern, Kind: kind, Template: ep.Response})
	}
	return t, nil
}

// MuxPattern converts a user path such as "/users/:id" into a router
// template ("/users/{id}").
func MuxPattern(p string) (string, error) {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q must start with \"/\"", ErrInvalidPath, p)
	}
	segs := schema.PathSegments(p)
	for i, s := range segs {
		if !schema.IsParamSegment(s) {
			continue
		}
		name := schema.ParamName(s)
		if name == "" {
			return "", fmt.Errorf("%w: %q has an unnamed parameter", ErrInvalidPath, p)
		}
		segs[i] = "{" + name + "}"
	}
	return "/" + strings.Join(segs, "/"), nil
}

func shapeKey(pattern string) string {
	segs := schema.PathSegments(pattern)
	for i, s := range segs {
		if schema.IsParamSegment(s) {
			segs[i] = "{}"
		}
	}
	return "/" + strings.Join(segs, "/")
}
