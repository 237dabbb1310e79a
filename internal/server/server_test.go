package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/schema2api/internal/jsonapi"
	"github.com/mark3labs/schema2api/internal/routes"
	"github.com/mark3labs/schema2api/internal/schema"
)

func newTestServer(t *testing.T, cfg Config, mount MountFunc) *Server {
	t.Helper()
	s, err := New(cfg, mount)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, Config{}, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestServer_RequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestServer_NotFoundIsJSONAPI(t *testing.T) {
	s := newTestServer(t, Config{}, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/nowhere")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, jsonapi.MediaType, rec.Header().Get("Content-Type"))

	var doc jsonapi.ErrorDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, "404", doc.Errors[0].Status)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, Config{}, func(r *mux.Router) error {
		r.HandleFunc("/things", func(w http.ResponseWriter, _ *http.Request) {}).Methods(http.MethodGet)
		return nil
	})

	rec := do(t, s.Handler(), http.MethodPost, "/things")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "Method Not Allowed")
}

func TestServer_IndexListsRoutes(t *testing.T) {
	table := routes.Infer(schema.Parse("a team has many players"))
	s := newTestServer(t, Config{Table: table}, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Routes []indexEntry `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Routes, len(table))
	assert.Equal(t, "/teams/:id/players", body.Routes[2].Path)
	assert.Equal(t, "related", body.Routes[2].Kind)
}

func TestServer_OpenAPI(t *testing.T) {
	s := newTestServer(t, Config{OpenAPI: []byte(`{"openapi":"3.0.3"}`)}, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"openapi":"3.0.3"}`, rec.Body.String())

	empty := newTestServer(t, Config{}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, empty.Handler(), http.MethodGet, "/openapi.json").Code)
}

func TestServer_MountedRoutesWin(t *testing.T) {
	s := newTestServer(t, Config{}, func(r *mux.Router) error {
		r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("mine"))
		}).Methods(http.MethodGet)
		return nil
	})
	assert.Equal(t, "mine", do(t, s.Handler(), http.MethodGet, "/").Body.String())
}

func TestServer_MountError(t *testing.T) {
	_, err := New(Config{}, func(*mux.Router) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}

func TestServer_RecoversFromPanics(t *testing.T) {
	var logs bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logs)

	s := newTestServer(t, Config{Logger: log}, func(r *mux.Router) error {
		r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
		return nil
	})

	rec := do(t, s.Handler(), http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
	assert.Contains(t, logs.String(), "kaboom")

	// The access log still records the request.
	assert.Contains(t, logs.String(), `msg="request failed"`)
	assert.Contains(t, logs.String(), "path=/boom")
	assert.Contains(t, logs.String(), "status=500")
}

func TestServer_MetricsUseRouteTemplates(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	s := newTestServer(t, Config{Registry: registry, Metrics: metrics}, func(r *mux.Router) error {
		r.HandleFunc("/users/{id}", func(w http.ResponseWriter, _ *http.Request) {}).Methods(http.MethodGet)
		return nil
	})

	do(t, s.Handler(), http.MethodGet, "/users/1")
	do(t, s.Handler(), http.MethodGet, "/users/2")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/users/{id}", "200")))

	rec := do(t, s.Handler(), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "schema2api_http_requests_total")
}

func TestServer_ServeAndShutdown(t *testing.T) {
	s := newTestServer(t, Config{ShutdownTimeout: time.Second}, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestBanner(t *testing.T) {
	var out strings.Builder
	Banner(&out, "http://localhost:3000", routes.Infer(schema.Parse("a team has many players")))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Generated the following endpoints:\n"))
	assert.Contains(t, text, "GET  http://localhost:3000/teams/:id/players\n")
	assert.Equal(t, 5, strings.Count(text, "GET"))
}

func TestServer_Swap(t *testing.T) {
	mount := func(body string) MountFunc {
		return func(r *mux.Router) error {
			r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(body))
			}).Methods(http.MethodGet)
			return nil
		}
	}
	s := newTestServer(t, Config{}, mount("v1"))
	h := s.Handler()
	assert.Equal(t, "v1", do(t, h, http.MethodGet, "/version").Body.String())

	s.Swap(newTestServer(t, Config{}, mount("v2")))
	assert.Equal(t, "v2", do(t, h, http.MethodGet, "/version").Body.String())
}
