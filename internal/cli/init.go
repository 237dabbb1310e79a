package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

const defaultConfigFile = "schema2api.yaml"

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample schema2api configuration file",
		Long:  "Scaffold a commented schema2api configuration file that documents available options.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageErrorf("init: %q already exists (use --force to overwrite)", absPath)
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageErrorf("init: cannot create parent directory: %v", err)
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageErrorf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err)
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageErrorf("init: cannot place file at %s: %v", absPath, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML is a commented example config documenting available options.
const sampleConfigYAML = `# schema2api configuration (YAML)
# All fields are optional. Command-line flags override config values.

# Relationship sentence for "infer" (and "export" in inferred mode).
# schema: a university has many programs and each program has many domains

# Endpoints file for "manual" (and "export" in manual mode). Local path or
# http/https URL; YAML/JSON endpoint lists and OpenAPI documents are accepted.
# endpoints: ./endpoints.yaml

# Reload the endpoints file on change while "manual" is serving.
# watch: false

# Listen address.
# addr: ":3000"

# Records per collection, and objects per manual collection response.
# count: 20

# Seed for reproducible ids and values. 0 picks a random seed.
# seed: 0

# Rendered inferred-mode responses kept in an LRU cache. 0 disables it.
# cacheSize: 256

# Graceful shutdown timeout (Go duration or seconds).
# shutdownTimeout: 10s

# Title of the generated OpenAPI document.
# title: University API

# Output directory for "export".
# out: ./mock-api

# Print the route table (infer/manual) or planned files (export) only.
# dryRun: false

# Overwrite a non-empty export directory.
# force: false

# Enable verbose logging.
# verbose: false
`
