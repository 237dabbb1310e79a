package mockdata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/schema2api/internal/fake"
	"github.com/mark3labs/schema2api/internal/schema"
)

const universitySentence = "a university has many programs and each program has many domains"

func TestGenerate_CollectionSizes(t *testing.T) {
	store := Generate(schema.Parse(universitySentence))

	assert.Equal(t, []string{"universities", "programs", "domains"}, store.Names())
	for _, name := range store.Names() {
		assert.Len(t, store.Collection(name), DefaultCount, name)
	}
}

func TestGenerate_CustomCount(t *testing.T) {
	store := NewGenerator(Options{Count: 3}).Generate(schema.Parse(universitySentence))
	for _, name := range store.Names() {
		assert.Len(t, store.Collection(name), 3, name)
	}
}

func TestGenerate_BaseAttributes(t *testing.T) {
	store := Generate(schema.Parse(universitySentence))

	for _, rec := range store.Collection("universities") {
		assert.NotEmpty(t, rec.ID())
		assert.NotEmpty(t, rec["name"])
		_, err := time.Parse(time.RFC3339, rec["createdAt"].(string))
		assert.NoError(t, err)
		assert.NotContains(t, rec, "universityId")
	}
}

func TestGenerate_BaseAttributesFollowRegistry(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	resolver := fake.NewResolver(
		fake.WithGenerator(fake.KindCompany, func(*gofakeit.Faker, time.Time) any { return "Acme" }),
		fake.WithClock(func() time.Time { return fixed }),
	)
	store := NewGenerator(Options{Count: 2, Resolver: resolver}).Generate(schema.Parse("a team has many players"))

	for _, name := range store.Names() {
		for _, rec := range store.Collection(name) {
			assert.Equal(t, "Acme", rec["name"])
			created, err := time.Parse(time.RFC3339, rec["createdAt"].(string))
			require.NoError(t, err)
			assert.False(t, created.After(fixed))
			assert.False(t, created.Before(fixed.AddDate(-1, 0, 0)))
		}
	}
}

func TestGenerate_UniqueIDsAcrossRun(t *testing.T) {
	store := Generate(schema.Parse(universitySentence))

	seen := make(map[string]bool)
	for _, name := range store.Names() {
		for _, rec := range store.Collection(name) {
			require.False(t, seen[rec.ID()], "duplicate id %s", rec.ID())
			seen[rec.ID()] = true
		}
	}
	assert.Len(t, seen, 3*DefaultCount)
}

func TestGenerate_ReferentialIntegrity(t *testing.T) {
	graph := schema.Parse("a company has many teams and each team has many engineers and a company has many offices")
	store := Generate(graph)

	for _, name := range graph.Names() {
		parent, _ := graph.Entity(name)
		for _, rel := range parent.RelationshipNames() {
			children := store.Collection(rel)
			require.NotEmpty(t, children)
			for _, child := range children {
				fk, ok := child[parent.ForeignKey()].(string)
				require.True(t, ok, "%s record missing %s", rel, parent.ForeignKey())
				assert.True(t, store.Exists(parent.Plural(), fk), "dangling %s=%s", parent.ForeignKey(), fk)
			}
		}
	}
}

func TestGenerate_ChildrenOfMatchesForeignKey(t *testing.T) {
	store := Generate(schema.Parse(universitySentence))

	total := 0
	for _, uni := range store.Collection("universities") {
		kids := store.ChildrenOf("programs", "universityId", uni.ID())
		for _, k := range kids {
			assert.Equal(t, uni.ID(), k["universityId"])
		}
		total += len(kids)
	}
	assert.Equal(t, DefaultCount, total)

	assert.NotNil(t, store.ChildrenOf("programs", "universityId", "missing"))
	assert.Empty(t, store.ChildrenOf("programs", "universityId", "missing"))
}

func TestGenerate_MissingChildCollectionIsNoop(t *testing.T) {
	graph := schema.NewGraph()
	parent := graph.Ensure("library")
	parent.Relationships["ghosts"] = schema.Relationship{Kind: schema.HasMany, Entity: "ghost"}

	store := Generate(graph)
	assert.Equal(t, []string{"libraries"}, store.Names())
	assert.False(t, store.Has("ghosts"))
}

func TestGenerate_SeedIsReproducible(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	build := func() []byte {
		resolver := fake.NewResolver(fake.WithSeed(42), fake.WithClock(func() time.Time { return now }))
		store := NewGenerator(Options{Seed: 42, Resolver: resolver}).Generate(schema.Parse(universitySentence))
		b, err := json.Marshal(store)
		require.NoError(t, err)
		return b
	}
	assert.JSONEq(t, string(build()), string(build()))
}

func TestStore_Find(t *testing.T) {
	store := Generate(schema.Parse(universitySentence))
	first := store.Collection("programs")[0]

	got, ok := store.Find("programs", first.ID())
	require.True(t, ok)
	assert.Equal(t, first, got)

	_, ok = store.Find("programs", "nope")
	assert.False(t, ok)
	_, ok = store.Find("nothing", first.ID())
	assert.False(t, ok)
}
