// Package fake resolves declarative generator references such as
// "faker.person.fullName" into mock values.
//
// References are looked up in a closed registry of generator kinds. Anything
// that is not a reference is a literal and passes through untouched; a
// reference the registry does not know also passes through, with a warning.
package fake

import (
	"io"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Prefix marks a string value as a generator reference.
const Prefix = "faker."

// Outcome says how Resolve produced its value.
type Outcome int

const (
	OutcomeLiteral Outcome = iota
	OutcomeGenerated
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLiteral:
		return "literal"
	case OutcomeGenerated:
		return "generated"
	case OutcomeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Resolver turns references into values. It is safe for concurrent use.
type Resolver struct {
	faker    *gofakeit.Faker
	registry map[Kind]Generator
	log      *logrus.Logger
	unknown  prometheus.Counter
	now      func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSeed makes generated values reproducible. Zero keeps a random seed.
func WithSeed(seed int64) Option {
	return func(r *Resolver) { r.faker = gofakeit.New(seed) }
}

func WithLogger(log *logrus.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// WithUnknownCounter counts references that did not resolve.
func WithUnknownCounter(c prometheus.Counter) Option {
	return func(r *Resolver) { r.unknown = c }
}

// WithClock fixes the reference time for date generators.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithGenerator registers an extra generator kind, or replaces a built-in one.
func WithGenerator(kind Kind, gen Generator) Option {
	return func(r *Resolver) { r.registry[kind] = gen }
}

func NewResolver(opts ...Option) *Resolver {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &Resolver{
		faker:    gofakeit.New(0),
		registry: make(map[Kind]Generator, len(builtins)),
		log:      discard,
		now:      time.Now,
	}
	for k, g := range builtins {
		r.registry[k] = g
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Faker exposes the underlying source so other generators share the seed.
func (r *Resolver) Faker() *gofakeit.Faker { return r.faker }

// Now returns the resolver's reference time.
func (r *Resolver) Now() time.Time { return r.now() }

// Lookup returns the generator registered for kind.
func (r *Resolver) Lookup(kind Kind) (Generator, bool) {
	g, ok := r.registry[kind]
	return g, ok
}

// Resolve returns the value for ref. Non-strings and strings without the
// reference prefix are literals. Unknown references come back unchanged.
func (r *Resolver) Resolve(ref any) (any, Outcome) {
	s, ok := ref.(string)
	if !ok || !strings.HasPrefix(s, Prefix) {
		return ref, OutcomeLiteral
	}
	gen, ok := r.Lookup(Kind(strings.TrimPrefix(s, Prefix)))
	if !ok {
		r.log.WithField("reference", s).Warn("generator reference not found, using original string")
		if r.unknown != nil {
			r.unknown.Inc()
		}
		return s, OutcomeUnknown
	}
	return gen(r.faker, r.now()), OutcomeGenerated
}

// GenerateAttributes resolves every leaf of schema into a fresh object with
// the same shape. Arrays are walked element by element.
func (r *Resolver) GenerateAttributes(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema))
	for key, value := range schema {
		out[key] = r.generateValue(value)
	}
	return out
}

func (r *Resolver) generateValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return r.GenerateAttributes(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = r.generateValue(item)
		}
		return items
	default:
		resolved, _ := r.Resolve(v)
		return resolved
	}
}
