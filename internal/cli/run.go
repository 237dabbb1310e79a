package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/schema2api/internal/app"
	"github.com/mark3labs/schema2api/internal/routes"
	"github.com/mark3labs/schema2api/internal/server"
	"github.com/mark3labs/schema2api/internal/spec"
)

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func (c *Config) appOptions(log *logrus.Logger) app.Options {
	return app.Options{
		Count:     c.Count,
		Seed:      c.Seed,
		CacheSize: c.CacheSize,
		Logger:    log,
		Info:      spec.Info{Title: c.Title},
	}
}

// buildInferred and buildManual map library failures into usage errors where
// the user can fix the input.
func buildInferred(ctx context.Context, cfg *Config, log *logrus.Logger) (*app.API, error) {
	api, err := app.BuildInferred(ctx, cfg.Schema, cfg.appOptions(log))
	if err != nil {
		if errors.Is(err, app.ErrNoEntities) {
			return nil, newUsageErrorf("%v: %q\nHint: write clauses like \"a university has many programs\".", err, cfg.Schema)
		}
		return nil, err
	}
	return api, nil
}

func buildManual(ctx context.Context, cfg *Config, log *logrus.Logger) (*app.API, error) {
	endpoints, err := spec.LoadEndpoints(ctx, cfg.Endpoints)
	if err != nil {
		return nil, specUsageError(err)
	}
	api, err := app.BuildManual(ctx, endpoints, cfg.appOptions(log))
	if err != nil {
		if errors.Is(err, routes.ErrDuplicateRoute) || errors.Is(err, routes.ErrInvalidPath) {
			return nil, newUsageErrorf("endpoints: %v", err)
		}
		return nil, specUsageError(err)
	}
	return api, nil
}

// specUsageError maps structured loader errors into friendly messages.
func specUsageError(err error) error {
	var se *spec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := se.Message
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return newUsageError(msg)
}

func (c *Config) serverConfig(log *logrus.Logger) server.Config {
	return server.Config{
		Addr:            c.Addr,
		ShutdownTimeout: c.ShutdownTimeout,
		Logger:          log,
	}
}

// watchFunc runs alongside a serving server until ctx is done.
type watchFunc func(ctx context.Context, s *server.Server) error

// serve prints the banner and runs the server until SIGINT or SIGTERM. When
// watch is set it runs next to the server and either one failing stops both.
func serve(ctx context.Context, api *app.API, cfg *Config, log *logrus.Logger, watch watchFunc) error {
	s, err := api.Server(cfg.serverConfig(log))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server.Banner(os.Stdout, baseURL(s.Addr()), api.Table)
	log.WithField("api", api.Summary()).Debug("starting server")
	if watch == nil {
		return s.Run(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(gctx) })
	g.Go(func() error { return watch(gctx, s) })
	return g.Wait()
}

func baseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func printPlan(outDir string, count int, relPaths []string) {
	fmt.Fprintf(os.Stdout, "Planned writes to %s (%d files):\n", outDir, count)
	for _, p := range relPaths {
		fmt.Fprintf(os.Stdout, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	// Provide clearer guidance for common FS failures.
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "output directory") {
		return newUsageErrorf("output error for %s: %s\nHint: choose a different --out or use --force when appropriate.", outDir, msg)
	}
	return err
}
