package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/schema2api/internal/schema"
	"github.com/mark3labs/schema2api/internal/server"
)

var inferRunner = runInfer

func newInferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer [sentence...]",
		Short: "Serve a JSON:API mock derived from a relationship sentence",
		Long: "Parse a plain-English relationship sentence into entities, generate a linked " +
			"mock dataset and serve collection, item and related routes for every entity.",
		Example: strings.TrimSpace(`  schema2api infer "a university has many programs and each program has many domains"
  echo "a team has many players" | schema2api infer --schema - --dry-run
  schema2api --config schema2api.yaml infer --addr :8080 --seed 42`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "infer", args)
			if err != nil {
				return err
			}
			return inferRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("schema", "", "Relationship sentence; \"-\" reads it from stdin")
	addServeFlags(flags)
	flags.Int("cache-size", 0, "Rendered responses to cache (default 256, 0 disables)")

	return cmd
}

func runInfer(ctx context.Context, cfg *Config) error {
	log := newLogger(cfg.Verbose)
	api, err := buildInferred(ctx, cfg, log)
	if err != nil {
		return err
	}
	if cfg.DryRun {
		server.Banner(os.Stdout, baseURL(cfg.Addr), api.Table)
		fmt.Fprintln(os.Stdout, "Understood relationships:")
		for _, c := range api.Clauses {
			fmt.Fprintf(os.Stdout, "  %s has many %s\n", c.Parent, schema.Pluralize(c.Child))
		}
		return nil
	}
	return serve(ctx, api, cfg, log, nil)
}
