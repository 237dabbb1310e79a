package routes

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/mark3labs/schema2api/internal/fake"
	"github.com/mark3labs/schema2api/internal/jsonapi"
	"github.com/mark3labs/schema2api/internal/mockdata"
	"github.com/mark3labs/schema2api/internal/schema"
)

// DefaultCount is the number of objects a manual collection route returns.
const DefaultCount = 20

const (
	titleNotFound       = "Resource Not Found"
	titleParentNotFound = "Parent Resource Not Found"
)

// Options configures a Binder. Store and Graph are required for inferred
// routes, Resolver for manual ones.
type Options struct {
	Store    *mockdata.Store
	Graph    *schema.Graph
	Resolver *fake.Resolver
	// Count is the size of manual collection responses.
	Count int
	// CacheSize bounds the inferred-mode response cache. Zero or less
	// disables it.
	CacheSize int
	Logger    *logrus.Logger
}

// Binder attaches handlers for a route table to a router.
type Binder struct {
	store    *mockdata.Store
	graph    *schema.Graph
	resolver *fake.Resolver
	count    int
	cache    *lru.Cache[string, cachedResponse]
	log      *logrus.Logger
}

type cachedResponse struct {
	status int
	body   []byte
}

func NewBinder(opts Options) (*Binder, error) {
	b := &Binder{
		store:    opts.Store,
		graph:    opts.Graph,
		resolver: opts.Resolver,
		count:    opts.Count,
		log:      opts.Logger,
	}
	if b.count <= 0 {
		b.count = DefaultCount
	}
	if b.log == nil {
		b.log = logrus.New()
		b.log.SetOutput(io.Discard)
	}
	if b.resolver == nil {
		b.resolver = fake.NewResolver(fake.WithLogger(b.log))
	}
	if opts.CacheSize > 0 {
		c, err := lru.New[string, cachedResponse](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("response cache: %w", err)
		}
		b.cache = c
	}
	return b, nil
}

// Bind registers every route of t on router. Inferred routes require a store.
func (b *Binder) Bind(router *mux.Router, t Table) error {
	for _, rt := range t {
		h, err := b.handler(rt)
		if err != nil {
			return err
		}
		router.Handle(rt.Pattern, h).Methods(rt.Method).Name(rt.Display())
		b.log.WithFields(logrus.Fields{"method": rt.Method, "path": rt.Display(), "kind": rt.Kind}).Debug("route bound")
	}
	return nil
}

func (b *Binder) handler(rt Route) (http.Handler, error) {
	switch rt.Kind {
	case KindCollection, KindItem, KindRelated:
		if b.store == nil {
			return nil, fmt.Errorf("route %s: inferred routes need a data store", rt.Display())
		}
		return b.cached(b.inferred(rt)), nil
	case KindManualItem:
		return b.manualItem(rt), nil
	case KindManualCollection:
		return b.manualCollection(rt), nil
	default:
		return nil, fmt.Errorf("route %s: unknown kind %q", rt.Display(), rt.Kind)
	}
}

type renderFunc func(r *http.Request) (int, any)

func (b *Binder) inferred(rt Route) renderFunc {
	switch rt.Kind {
	case KindCollection:
		return func(*http.Request) (int, any) {
			return http.StatusOK, jsonapi.Document{Data: jsonapi.FormatCollection(b.store.Collection(rt.Type), rt.Type, b.graph)}
		}
	case KindItem:
		return func(r *http.Request) (int, any) {
			id := mux.Vars(r)["id"]
			rec, ok := b.store.Find(rt.Type, id)
			if !ok {
				return notFound(titleNotFound, rt.Type, id)
			}
			return http.StatusOK, jsonapi.Document{Data: jsonapi.FormatResource(rec, rt.Type, b.graph)}
		}
	default:
		return func(r *http.Request) (int, any) {
			id := mux.Vars(r)["id"]
			if !b.store.Exists(rt.Type, id) {
				return notFound(titleParentNotFound, rt.Type, id)
			}
			children := b.store.ChildrenOf(rt.Relationship, rt.ForeignKey, id)
			return http.StatusOK, jsonapi.Document{Data: jsonapi.FormatCollection(children, rt.Relationship, b.graph)}
		}
	}
}

func notFound(title, typeName, id string) (int, any) {
	detail := fmt.Sprintf("No resource of type '%s' with ID '%s' was found.", typeName, id)
	return http.StatusNotFound, jsonapi.FormatError(http.StatusNotFound, title, detail)
}

// cached serves render through the response cache. Inferred responses depend
// only on the request path since the store never changes. Only successful
// responses are cached.
func (b *Binder) cached(render renderFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if b.cache != nil {
			if resp, ok := b.cache.Get(key); ok {
				write(w, resp.status, jsonapi.MediaType, resp.body)
				return
			}
		}
		status, doc := render(r)
		body, err := json.Marshal(doc)
		if err != nil {
			b.fail(w, r, err)
			return
		}
		if b.cache != nil && status == http.StatusOK {
			b.cache.Add(key, cachedResponse{status: status, body: body})
		}
		write(w, status, jsonapi.MediaType, body)
	})
}

func (b *Binder) manualItem(rt Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.writeManual(w, r, b.resolver.GenerateAttributes(rt.Template))
	})
}

func (b *Binder) manualCollection(rt Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		items := make([]map[string]any, b.count)
		for i := range items {
			items[i] = b.resolver.GenerateAttributes(rt.Template)
		}
		b.writeManual(w, r, items)
	})
}

func (b *Binder) writeManual(w http.ResponseWriter, r *http.Request, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		b.fail(w, r, err)
		return
	}
	write(w, http.StatusOK, "application/json", body)
}

func (b *Binder) fail(w http.ResponseWriter, r *http.Request, err error) {
	b.log.WithError(err).WithField("path", r.URL.Path).Error("encode response")
	body, _ := json.Marshal(jsonapi.FormatError(http.StatusInternalServerError, "Internal Server Error", ""))
	write(w, http.StatusInternalServerError, jsonapi.MediaType, body)
}

func write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
