// Package mockdata builds the in-memory dataset served in inferred mode.
//
// Generation runs in two passes. The first pass fills every entity's
// collection with base records; the second links each child record to a
// randomly chosen parent through a "<parent>Id" foreign key. Splitting the
// passes means the order in which entities were discovered does not matter.
package mockdata

import (
	"io"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mark3labs/schema2api/internal/fake"
	"github.com/mark3labs/schema2api/internal/schema"
)

// DefaultCount is the number of records generated per entity.
const DefaultCount = 20

type Options struct {
	// Count is the size of every collection; DefaultCount when <= 0.
	Count int
	// Seed makes ids and values reproducible; zero means random.
	Seed int64
	// Resolver supplies names and timestamps. A new one is created when nil.
	Resolver *fake.Resolver
	Logger   *logrus.Logger
}

type Generator struct {
	count    int
	resolver *fake.Resolver
	ids      io.Reader
	log      *logrus.Logger
}

func NewGenerator(opts Options) *Generator {
	g := &Generator{
		count:    opts.Count,
		resolver: opts.Resolver,
		log:      opts.Logger,
	}
	if g.count <= 0 {
		g.count = DefaultCount
	}
	if g.resolver == nil {
		g.resolver = fake.NewResolver(fake.WithSeed(opts.Seed), fake.WithLogger(opts.Logger))
	}
	if opts.Seed != 0 {
		g.ids = rand.New(rand.NewSource(opts.Seed))
	}
	if g.log == nil {
		g.log = logrus.New()
		g.log.SetOutput(io.Discard)
	}
	return g
}

// baseAttributes are generated for every record, besides its id.
var baseAttributes = []struct {
	field string
	kind  fake.Kind
}{
	{"name", fake.KindCompany},
	{"createdAt", fake.KindDatePast},
}

// Generate builds a dataset with default options.
func Generate(graph *schema.Graph) *Store {
	return NewGenerator(Options{}).Generate(graph)
}

// Generate builds and links every collection described by graph.
func (g *Generator) Generate(graph *schema.Graph) *Store {
	store := newStore()
	faker := g.resolver.Faker()

	for _, name := range graph.Names() {
		e, _ := graph.Entity(name)
		plural := e.Plural()
		for i := 0; i < g.count; i++ {
			rec := Record{"id": g.newID()}
			for _, attr := range baseAttributes {
				if gen, ok := g.resolver.Lookup(attr.kind); ok {
					rec[attr.field] = gen(faker, g.resolver.Now())
				}
			}
			store.add(plural, rec)
		}
	}

	for _, name := range graph.Names() {
		parent, _ := graph.Entity(name)
		parents := store.Collection(parent.Plural())
		for _, rel := range parent.RelationshipNames() {
			children, ok := store.collections[rel]
			if !ok || len(parents) == 0 {
				g.log.WithFields(logrus.Fields{"parent": parent.Name, "relationship": rel}).
					Debug("no collection to link, skipping relationship")
				continue
			}
			fk := parent.ForeignKey()
			for _, child := range children {
				child[fk] = parents[faker.Number(0, len(parents)-1)].ID()
			}
		}
	}

	g.log.WithFields(logrus.Fields{"collections": len(store.order), "records": store.Len()}).
		Debug("generated mock dataset")
	return store
}

func (g *Generator) newID() string {
	if g.ids != nil {
		if id, err := uuid.NewRandomFromReader(g.ids); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}
