// Package app assembles a runnable mock API from either a relationship
// sentence (inferred mode) or a list of endpoint definitions (manual mode).
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/mark3labs/schema2api/internal/emitter"
	"github.com/mark3labs/schema2api/internal/fake"
	"github.com/mark3labs/schema2api/internal/mockdata"
	"github.com/mark3labs/schema2api/internal/routes"
	"github.com/mark3labs/schema2api/internal/schema"
	"github.com/mark3labs/schema2api/internal/server"
	"github.com/mark3labs/schema2api/internal/spec"
)

// ErrNoEntities is returned when a sentence yields an empty entity graph.
var ErrNoEntities = errors.New("no entities found in relationship sentence")

type Mode string

const (
	ModeInferred Mode = "inferred"
	ModeManual   Mode = "manual"
)

// Options tune generation and serving. Zero values pick defaults.
type Options struct {
	Count     int
	Seed      int64
	CacheSize int
	Logger    *logrus.Logger
	Info      spec.Info
}

// API is a fully assembled mock API, ready to be served or exported.
type API struct {
	Mode      Mode
	Graph     *schema.Graph
	Clauses   []schema.Clause
	Endpoints []schema.Endpoint
	Store     *mockdata.Store
	Table     routes.Table
	Doc       *openapi3.T

	Registry *prometheus.Registry
	Metrics  *server.Metrics
	Resolver *fake.Resolver

	opts    Options
	openAPI []byte
	binder  *routes.Binder
}

// BuildInferred parses sentence, generates the linked dataset and derives the
// route table from the entity graph.
func BuildInferred(ctx context.Context, sentence string, opts Options) (*API, error) {
	opts = withDefaults(opts)
	res := schema.ParseDetailed(sentence)
	for _, miss := range res.Misses {
		opts.Logger.WithFields(logrus.Fields{"clause": miss.Clause, "reason": miss.Reason}).Debug("clause skipped")
	}
	if res.Graph.Len() == 0 {
		return nil, ErrNoEntities
	}

	for _, c := range res.Clauses {
		opts.Logger.WithFields(logrus.Fields{"parent": c.Parent, "child": c.Child}).Debug("clause matched")
	}

	a := newAPI(ModeInferred, opts)
	a.Graph = res.Graph
	a.Clauses = res.Clauses
	a.Store = mockdata.NewGenerator(mockdata.Options{
		Count:    opts.Count,
		Seed:     opts.Seed,
		Resolver: a.Resolver,
		Logger:   opts.Logger,
	}).Generate(res.Graph)
	for _, name := range a.Store.Names() {
		a.Metrics.DatasetRecords.WithLabelValues(name).Set(float64(len(a.Store.Collection(name))))
	}
	opts.Logger.WithFields(logrus.Fields{
		"entities": res.Graph.Len(),
		"records":  a.Store.Len(),
	}).Info("dataset generated")

	a.Table = routes.Infer(res.Graph)
	if err := a.finish(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// BuildManual derives the route table from explicit endpoint definitions.
func BuildManual(ctx context.Context, endpoints []schema.Endpoint, opts Options) (*API, error) {
	opts = withDefaults(opts)
	table, err := routes.Manual(endpoints)
	if err != nil {
		return nil, err
	}

	a := newAPI(ModeManual, opts)
	a.Endpoints = endpoints
	a.Table = table
	if err := a.finish(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func withDefaults(opts Options) Options {
	if opts.Count <= 0 {
		opts.Count = mockdata.DefaultCount
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
		opts.Logger.SetOutput(io.Discard)
	}
	return opts
}

func newAPI(mode Mode, opts Options) *API {
	registry := prometheus.NewRegistry()
	metrics := server.NewMetrics(registry)
	return &API{
		Mode:     mode,
		Registry: registry,
		Metrics:  metrics,
		Resolver: fake.NewResolver(
			fake.WithSeed(opts.Seed),
			fake.WithLogger(opts.Logger),
			fake.WithUnknownCounter(metrics.UnresolvedReferences),
		),
		opts: opts,
	}
}

func (a *API) finish(ctx context.Context) error {
	doc, err := spec.Describe(ctx, a.Table, a.Graph, a.opts.Info)
	if err != nil {
		return err
	}
	js, err := spec.MarshalJSON(doc)
	if err != nil {
		return err
	}
	binder, err := routes.NewBinder(routes.Options{
		Store:     a.Store,
		Graph:     a.Graph,
		Resolver:  a.Resolver,
		Count:     a.opts.Count,
		CacheSize: a.opts.CacheSize,
		Logger:    a.opts.Logger,
	})
	if err != nil {
		return err
	}
	a.Doc, a.openAPI, a.binder = doc, js, binder
	return nil
}

// Mount binds the route table on r.
func (a *API) Mount(r *mux.Router) error {
	return a.binder.Bind(r, a.Table)
}

// Server builds an HTTP server for the API. Table, OpenAPI and metrics in cfg
// are filled in from a.
func (a *API) Server(cfg server.Config) (*server.Server, error) {
	cfg.Registry = a.Registry
	cfg.Metrics = a.Metrics
	cfg.Table = a.Table
	cfg.OpenAPI = a.openAPI
	if cfg.Logger == nil {
		cfg.Logger = a.opts.Logger
	}
	return server.New(cfg, a.Mount)
}

// Bundle returns what `export` writes. Inferred mode exports the dataset as
// db.json; manual mode exports one sample response per route as samples.json.
func (a *API) Bundle() emitter.Bundle {
	b := emitter.Bundle{Doc: a.Doc, Table: a.Table}
	switch a.Mode {
	case ModeInferred:
		b.DataFile, b.Data = "db.json", a.Store
	case ModeManual:
		b.DataFile, b.Data = "samples.json", a.Samples()
	}
	return b
}

// Samples renders one response per manual route, keyed by display path.
func (a *API) Samples() map[string]any {
	out := make(map[string]any, len(a.Table))
	for _, rt := range a.Table {
		switch rt.Kind {
		case routes.KindManualItem:
			out[rt.Display()] = a.Resolver.GenerateAttributes(rt.Template)
		case routes.KindManualCollection:
			items := make([]map[string]any, a.opts.Count)
			for i := range items {
				items[i] = a.Resolver.GenerateAttributes(rt.Template)
			}
			out[rt.Display()] = items
		}
	}
	return out
}

// Summary is a one-line description used in logs.
func (a *API) Summary() string {
	return fmt.Sprintf("%s mode, %d routes", a.Mode, len(a.Table))
}
