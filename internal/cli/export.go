package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/schema2api/internal/app"
	"github.com/mark3labs/schema2api/internal/emitter"
)

var exportRunner = runExport

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the generated dataset and OpenAPI description to disk",
		Long: "Build the API exactly as infer or manual would and write its fixtures " +
			"(db.json or samples.json, openapi.json, openapi.yaml, routes.txt) to an output directory.",
		Example: strings.TrimSpace(`  schema2api export --schema "a team has many players" --out ./fixtures
  schema2api export --endpoints endpoints.yaml --out ./fixtures --force --dry-run`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "export", args)
			if err != nil {
				return err
			}
			return exportRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("schema", "", "Relationship sentence; \"-\" reads it from stdin")
	flags.String("endpoints", "", "Path or URL to the endpoints file (YAML/JSON or OpenAPI)")
	flags.String("out", "", "Output directory (default "+defaultOut+")")
	flags.Int("count", 0, "Records per collection (default 20)")
	flags.Int64("seed", 0, "Seed for reproducible data (0 is random)")
	flags.String("title", "", "Title of the generated OpenAPI document")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite existing output when set")

	return cmd
}

func runExport(ctx context.Context, cfg *Config) error {
	log := newLogger(cfg.Verbose)

	var (
		api *app.API
		err error
	)
	if cfg.Schema != "" {
		api, err = buildInferred(ctx, cfg, log)
	} else {
		api, err = buildManual(ctx, cfg, log)
	}
	if err != nil {
		return err
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	res, err := emitter.Emit(ctx, api.Bundle(), emitter.Options{
		OutDir:  cfg.Out,
		Force:   cfg.Force,
		DryRun:  cfg.DryRun,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		return wrapOutputError(err, absOut)
	}

	paths := make([]string, 0, len(res.Planned))
	for _, p := range res.Planned {
		paths = append(paths, p.RelPath)
	}
	if cfg.DryRun {
		printPlan(absOut, len(res.Planned), paths)
		return nil
	}
	log.WithField("files", strings.Join(paths, ",")).Debug("export complete")
	fmt.Fprintf(os.Stdout, "Wrote %d files to %s\n", len(res.Planned), res.OutDir)
	return nil
}
