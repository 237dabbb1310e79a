package schema

import (
	"sort"
	"strings"
)

// Entity graph definitions shared by the parser, the data generator, the
// formatter and the route table builder.

type RelationKind string

const (
	HasMany RelationKind = "hasMany"
)

type Relationship struct {
	Kind   RelationKind `json:"type"`
	Entity string       `json:"entity"` // singular target entity
}

type Entity struct {
	Name          string                  `json:"name"`
	Relationships map[string]Relationship `json:"relationships"` // by pluralized child name

	relOrder []string
}

// Plural returns the collection name used for routes and dataset keys.
func (e *Entity) Plural() string { return Pluralize(e.Name) }

// ForeignKey is the attribute children of e carry to reference it.
func (e *Entity) ForeignKey() string { return e.Name + "Id" }

// RelationshipNames lists relationship names in the order they were declared.
// Entries added to the map directly follow, sorted.
func (e *Entity) RelationshipNames() []string {
	out := append([]string(nil), e.relOrder...)
	if len(out) == len(e.Relationships) {
		return out
	}
	known := make(map[string]bool, len(out))
	for _, n := range out {
		known[n] = true
	}
	var extra []string
	for n := range e.Relationships {
		if !known[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Graph maps normalized entity names to entities. Discovery order is kept so
// everything derived from a graph is deterministic.
type Graph struct {
	entities map[string]*Entity
	order    []string
	plurals  map[string]string
}

func NewGraph() *Graph {
	return &Graph{
		entities: make(map[string]*Entity),
		plurals:  make(map[string]string),
	}
}

// Ensure returns the entity for name, registering it when absent.
func (g *Graph) Ensure(name string) *Entity {
	name = NormalizeName(name)
	if e, ok := g.entities[name]; ok {
		return e
	}
	e := &Entity{Name: name, Relationships: make(map[string]Relationship)}
	g.entities[name] = e
	g.order = append(g.order, name)
	g.plurals[Pluralize(name)] = name
	return e
}

// AddHasMany registers both entities and links parent to child.
func (g *Graph) AddHasMany(parent, child string) {
	p := g.Ensure(parent)
	c := g.Ensure(child)
	rel := Pluralize(c.Name)
	if _, exists := p.Relationships[rel]; !exists {
		p.relOrder = append(p.relOrder, rel)
	}
	p.Relationships[rel] = Relationship{Kind: HasMany, Entity: c.Name}
}

func (g *Graph) Entity(name string) (*Entity, bool) {
	e, ok := g.entities[NormalizeName(name)]
	return e, ok
}

// EntityForType resolves a pluralized type name (as used in URLs) back to its
// entity. Names registered through the graph always round-trip; anything else
// goes through the inflector.
func (g *Graph) EntityForType(typeName string) (*Entity, bool) {
	if g == nil {
		return nil, false
	}
	if name, ok := g.plurals[typeName]; ok {
		return g.entities[name], true
	}
	return g.Entity(Singularize(typeName))
}

// Names returns entity names in discovery order.
func (g *Graph) Names() []string {
	return append([]string(nil), g.order...)
}

func (g *Graph) Len() int { return len(g.order) }

// Parents returns every entity owning a relationship to child, in discovery order.
func (g *Graph) Parents(child string) []*Entity {
	child = NormalizeName(child)
	var out []*Entity
	for _, name := range g.order {
		e := g.entities[name]
		for _, rel := range e.relOrder {
			if e.Relationships[rel].Entity == child {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// NormalizeName lower-cases a name and joins its words with hyphens.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), "-")
}
