package cli

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/schema2api/internal/app"
	"github.com/mark3labs/schema2api/internal/server"
)

var manualRunner = runManual

func newManualCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Serve plain JSON routes from endpoint definitions",
		Long: "Serve one GET route per endpoint definition. Each response is generated fresh " +
			"from the endpoint's template; faker references are replaced by mock values. " +
			"An OpenAPI 3 or Swagger 2 document is accepted in place of an endpoints file.",
		Example: strings.TrimSpace(`  schema2api manual --endpoints endpoints.yaml
  schema2api manual --endpoints https://example.com/openapi.json --dry-run`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, "manual", args)
			if err != nil {
				return err
			}
			return manualRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("endpoints", "", "Path or URL to the endpoints file (YAML/JSON or OpenAPI)")
	flags.Bool("watch", false, "Reload routes when the endpoints file changes")
	addServeFlags(flags)

	return cmd
}

func addServeFlags(flags *pflag.FlagSet) {
	flags.String("addr", "", "Listen address (default "+server.DefaultAddr+")")
	flags.Int("count", 0, "Records per collection (default 20)")
	flags.Int64("seed", 0, "Seed for reproducible data (0 is random)")
	flags.Duration("shutdown-timeout", 0, "Graceful shutdown timeout (default 10s)")
	flags.String("title", "", "Title of the generated OpenAPI document")
	flags.Bool("dry-run", false, "Print the route table without serving")
}

func runManual(ctx context.Context, cfg *Config) error {
	log := newLogger(cfg.Verbose)
	api, err := buildManual(ctx, cfg, log)
	if err != nil {
		return err
	}
	if cfg.DryRun {
		server.Banner(os.Stdout, baseURL(cfg.Addr), api.Table)
		return nil
	}

	var watch watchFunc
	if cfg.Watch {
		watch = func(ctx context.Context, s *server.Server) error {
			return app.Watch(ctx, cfg.Endpoints, log, func(ctx context.Context) error {
				next, err := buildManual(ctx, cfg, log)
				if err != nil {
					return err
				}
				ns, err := next.Server(cfg.serverConfig(log))
				if err != nil {
					return err
				}
				s.Swap(ns)
				server.Banner(os.Stdout, baseURL(cfg.Addr), next.Table)
				return nil
			})
		}
	}
	return serve(ctx, api, cfg, log, watch)
}
