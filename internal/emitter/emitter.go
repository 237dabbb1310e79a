// Package emitter writes a generated API to disk as fixtures: the dataset (or
// manual-mode samples), the OpenAPI description in JSON and YAML, and a plain
// route listing.
package emitter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/schema2api/internal/routes"
	"github.com/mark3labs/schema2api/internal/spec"
)

// Options controls where and how fixtures are written.
type Options struct {
	OutDir  string // required; target directory
	Force   bool   // overwrite a non-empty directory
	DryRun  bool   // don't write, only plan
	Verbose bool
}

// Bundle is what gets exported.
type Bundle struct {
	// DataFile names the data fixture, e.g. "db.json" or "samples.json".
	DataFile string
	// Data is encoded as indented JSON into DataFile. Nil skips the file.
	Data  any
	Doc   *openapi3.T
	Table routes.Table
}

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result returns the planned files.
type Result struct {
	OutDir  string
	Planned []PlannedFile
}

// Emit renders b into opts.OutDir.
func Emit(ctx context.Context, b Bundle, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("emitter: OutDir is required")
	}
	if b.Doc == nil {
		return nil, fmt.Errorf("emitter: nil OpenAPI document")
	}

	files := map[string][]byte{}
	if b.Data != nil {
		name := b.DataFile
		if name == "" {
			name = "db.json"
		}
		data, err := json.MarshalIndent(b.Data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		files[name] = append(data, '\n')
	}

	js, err := spec.MarshalJSON(b.Doc)
	if err != nil {
		return nil, err
	}
	files["openapi.json"] = js

	ym, err := spec.MarshalYAML(b.Doc)
	if err != nil {
		return nil, err
	}
	files["openapi.yaml"] = ym

	files["routes.txt"] = []byte(renderRoutes(b.Table))

	// Plan in deterministic order
	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, filepath.ToSlash(p))
	}
	sort.Strings(rels)

	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	abs, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolve out dir: %w", err)
	}
	if !opts.DryRun {
		if err := writeFiles(abs, files, opts.Force); err != nil {
			return nil, err
		}
	}
	return &Result{OutDir: abs, Planned: planned}, nil
}

func renderRoutes(t routes.Table) string {
	var b strings.Builder
	for _, rt := range t {
		fmt.Fprintf(&b, "%s\t%s\n", rt.String(), rt.Kind)
	}
	return b.String()
}

func writeFiles(abs string, files map[string][]byte, force bool) error {
	// Pre-flight: if directory exists and not empty and not force, error.
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("emitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	for rel, content := range files {
		p := filepath.Join(abs, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		// atomic write via temp file + rename
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}
