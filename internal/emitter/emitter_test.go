package emitter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/schema2api/internal/mockdata"
	"github.com/mark3labs/schema2api/internal/routes"
	"github.com/mark3labs/schema2api/internal/schema"
	"github.com/mark3labs/schema2api/internal/spec"
)

func sampleBundle(t *testing.T) Bundle {
	t.Helper()
	graph := schema.Parse("a team has many players")
	table := routes.Infer(graph)
	doc, err := spec.Describe(context.Background(), table, graph, spec.Info{Title: "Teams"})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	store := mockdata.NewGenerator(mockdata.Options{Count: 3, Seed: 7}).Generate(graph)
	return Bundle{DataFile: "db.json", Data: store, Doc: doc, Table: table}
}

func TestEmit_DryRun_Plan(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	res, err := Emit(context.Background(), sampleBundle(t), Options{OutDir: dir, DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	want := []string{"db.json", "openapi.json", "openapi.yaml", "routes.txt"}
	if len(res.Planned) != len(want) {
		t.Fatalf("planned %d files, want %d: %+v", len(res.Planned), len(want), res.Planned)
	}
	for i, p := range want {
		if res.Planned[i].RelPath != p {
			t.Fatalf("planned[%d] = %s, want %s", i, res.Planned[i].RelPath, p)
		}
		if res.Planned[i].Size == 0 {
			t.Fatalf("planned %s has zero size", p)
		}
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected no files written on dry-run")
	}
}

func TestEmit_WriteAndContents(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if _, err := Emit(context.Background(), sampleBundle(t), Options{OutDir: dir}); err != nil {
		t.Fatalf("emit: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "db.json"))
	if err != nil {
		t.Fatalf("read db.json: %v", err)
	}
	var db map[string][]map[string]any
	if err := json.Unmarshal(raw, &db); err != nil {
		t.Fatalf("db.json: %v", err)
	}
	if len(db["teams"]) != 3 || len(db["players"]) != 3 {
		t.Fatalf("unexpected collection sizes: teams=%d players=%d", len(db["teams"]), len(db["players"]))
	}
	if _, ok := db["players"][0]["teamId"]; !ok {
		t.Fatalf("players missing teamId: %v", db["players"][0])
	}

	js, err := os.ReadFile(filepath.Join(dir, "openapi.json"))
	if err != nil {
		t.Fatalf("read openapi.json: %v", err)
	}
	doc, err := openapi3.NewLoader().LoadFromData(js)
	if err != nil {
		t.Fatalf("reload openapi.json: %v", err)
	}
	if doc.Paths.Find("/teams/{id}/players") == nil {
		t.Fatalf("openapi.json missing related path")
	}

	ym, err := os.ReadFile(filepath.Join(dir, "openapi.yaml"))
	if err != nil {
		t.Fatalf("read openapi.yaml: %v", err)
	}
	if !strings.Contains(string(ym), "openapi: 3.0.3\n") {
		t.Fatalf("openapi.yaml missing version line:\n%s", ym)
	}

	rt, err := os.ReadFile(filepath.Join(dir, "routes.txt"))
	if err != nil {
		t.Fatalf("read routes.txt: %v", err)
	}
	if got := strings.Count(string(rt), "\n"); got != 5 {
		t.Fatalf("routes.txt has %d lines, want 5", got)
	}
	if !strings.Contains(string(rt), "/teams/:id/players") {
		t.Fatalf("routes.txt missing related route:\n%s", rt)
	}
}

func TestEmit_NonEmptyDirRequiresForce(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := sampleBundle(t)

	if _, err := Emit(context.Background(), b, Options{OutDir: dir}); err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Fatalf("expected not empty error, got %v", err)
	}
	if _, err := Emit(context.Background(), b, Options{OutDir: dir, Force: true}); err != nil {
		t.Fatalf("force emit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "openapi.json")); err != nil {
		t.Fatalf("openapi.json not written: %v", err)
	}
}

func TestEmit_ManualSamplesWithoutData(t *testing.T) {
	t.Parallel()
	table, err := routes.Manual([]schema.Endpoint{{Path: "/users", Response: map[string]any{"id": "faker.string.uuid"}}})
	if err != nil {
		t.Fatalf("manual: %v", err)
	}
	doc, err := spec.Describe(context.Background(), table, nil, spec.Info{})
	if err != nil {
		t.Fatalf("describe: %v", err)
	}

	res, err := Emit(context.Background(), Bundle{Doc: doc, Table: table}, Options{OutDir: t.TempDir(), DryRun: true})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	for _, pf := range res.Planned {
		if pf.RelPath == "db.json" {
			t.Fatalf("nil data should not plan a data file")
		}
	}
}

func TestEmit_Validation(t *testing.T) {
	t.Parallel()
	if _, err := Emit(context.Background(), Bundle{}, Options{}); err == nil {
		t.Fatalf("expected error for missing OutDir")
	}
	if _, err := Emit(context.Background(), Bundle{}, Options{OutDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error for nil document")
	}
}
