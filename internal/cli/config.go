package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/schema2api/internal/mockdata"
	"github.com/mark3labs/schema2api/internal/server"
)

// Config captures all inputs that influence a command after merging defaults,
// config file values, and CLI overrides. Each command reads the fields it
// needs.
type Config struct {
	Schema          string
	Endpoints       string
	Addr            string
	Count           int
	Seed            int64
	CacheSize       int
	ShutdownTimeout time.Duration
	Title           string
	Out             string
	ConfigPath      string
	DryRun          bool
	Force           bool
	Verbose         bool
	Watch           bool
}

const (
	defaultOut       = "mock-api"
	defaultCacheSize = 256
)

func defaultConfig() Config {
	return Config{
		Addr:            server.DefaultAddr,
		Count:           mockdata.DefaultCount,
		CacheSize:       defaultCacheSize,
		ShutdownTimeout: server.DefaultShutdownTimeout,
		Out:             defaultOut,
	}
}

// resolveConfig builds the configuration for the named command. Positional
// arguments, when given, are the relationship sentence.
func resolveConfig(cmd *cobra.Command, command string, args []string) (*Config, error) {
	cfg := defaultConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		if cmd.Flags().Changed("schema") {
			return nil, newUsageErrorf("%s: pass the sentence either as arguments or with --schema, not both", command)
		}
		cfg.Schema = strings.Join(args, " ")
	}
	if strings.TrimSpace(cfg.Schema) == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("%s: read sentence from stdin: %w", command, err)
		}
		cfg.Schema = string(data)
	}

	cfg.normalize()
	if err := cfg.validate(command); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyFlagOverrides(flags *pflag.FlagSet, cfg *Config) error {
	for _, name := range []string{"schema", "endpoints", "addr", "title", "out"} {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		value = strings.TrimSpace(value)
		switch name {
		case "schema":
			cfg.Schema = value
		case "endpoints":
			cfg.Endpoints = value
		case "addr":
			cfg.Addr = value
		case "title":
			cfg.Title = value
		case "out":
			cfg.Out = value
		}
	}
	if flags.Changed("count") {
		value, err := flags.GetInt("count")
		if err != nil {
			return err
		}
		cfg.Count = value
	}
	if flags.Changed("seed") {
		value, err := flags.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = value
	}
	if flags.Changed("cache-size") {
		value, err := flags.GetInt("cache-size")
		if err != nil {
			return err
		}
		cfg.CacheSize = value
	}
	if flags.Changed("shutdown-timeout") {
		value, err := flags.GetDuration("shutdown-timeout")
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = value
	}
	if flags.Changed("dry-run") {
		value, err := flags.GetBool("dry-run")
		if err != nil {
			return err
		}
		cfg.DryRun = value
	}
	if flags.Changed("force") {
		value, err := flags.GetBool("force")
		if err != nil {
			return err
		}
		cfg.Force = value
	}
	if flags.Changed("watch") {
		value, err := flags.GetBool("watch")
		if err != nil {
			return err
		}
		cfg.Watch = value
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	return nil
}

func (c *Config) normalize() {
	c.Schema = strings.Join(strings.Fields(c.Schema), " ")
	c.Endpoints = strings.TrimSpace(c.Endpoints)
	c.Addr = strings.TrimSpace(c.Addr)
	c.Title = strings.TrimSpace(c.Title)
	c.Out = strings.TrimSpace(c.Out)
	if c.Addr == "" {
		c.Addr = server.DefaultAddr
	}
}

func (c *Config) validate(command string) error {
	switch command {
	case "infer":
		if c.Schema == "" {
			return newUsageError("infer: a relationship sentence is required (arguments, --schema, stdin via --schema -, or config file)")
		}
	case "manual":
		if c.Endpoints == "" {
			return newUsageError("manual: --endpoints is required (set via flag or config file)")
		}
		if c.Watch && isURL(c.Endpoints) {
			return newUsageError("manual: --watch needs a local endpoints file, not a URL")
		}
	case "export":
		switch {
		case c.Schema == "" && c.Endpoints == "":
			return newUsageError("export: one of --schema or --endpoints is required")
		case c.Schema != "" && c.Endpoints != "":
			return newUsageError("export: --schema and --endpoints are mutually exclusive")
		}
		if c.Out == "" {
			return newUsageError("export: --out must not be empty")
		}
	}

	if c.Count <= 0 {
		return newUsageErrorf("%s: --count must be positive, got %d", command, c.Count)
	}
	if c.CacheSize < 0 {
		return newUsageErrorf("%s: --cache-size must not be negative, got %d", command, c.CacheSize)
	}
	if c.ShutdownTimeout <= 0 {
		return newUsageErrorf("%s: --shutdown-timeout must be positive, got %s", command, c.ShutdownTimeout)
	}

	return nil
}

func applyConfigFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newUsageErrorf("read config file %q: %v", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return newUsageErrorf("parse config file %q: %v", path, err)
	}

	for key, value := range raw {
		var ferr error
		switch normalizeKey(key) {
		case "schema":
			cfg.Schema, ferr = valueAsString(value)
		case "endpoints":
			cfg.Endpoints, ferr = valueAsString(value)
		case "addr":
			cfg.Addr, ferr = valueAsString(value)
		case "title":
			cfg.Title, ferr = valueAsString(value)
		case "out":
			cfg.Out, ferr = valueAsString(value)
		case "count":
			cfg.Count, ferr = valueAsInt(value)
		case "seed":
			var n int
			n, ferr = valueAsInt(value)
			cfg.Seed = int64(n)
		case "cachesize":
			cfg.CacheSize, ferr = valueAsInt(value)
		case "shutdowntimeout":
			cfg.ShutdownTimeout, ferr = valueAsDuration(value)
		case "dryrun":
			cfg.DryRun, ferr = valueAsBool(value)
		case "force":
			cfg.Force, ferr = valueAsBool(value)
		case "verbose":
			cfg.Verbose, ferr = valueAsBool(value)
		case "watch":
			cfg.Watch, ferr = valueAsBool(value)
		default:
			return newUsageErrorf("config file %q: unknown field %q", path, key)
		}
		if ferr != nil {
			return newUsageErrorf("config field %q: %v", key, ferr)
		}
	}

	return nil
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != float64(int(val)) {
			return 0, fmt.Errorf("expected integer, got %v", val)
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value %q", val)
		}
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// valueAsDuration accepts Go duration strings ("5s") or a number of seconds.
func valueAsDuration(v any) (time.Duration, error) {
	switch val := v.(type) {
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", val)
		}
		return d, nil
	case nil:
		return 0, nil
	default:
		n, err := valueAsInt(v)
		if err != nil {
			return 0, fmt.Errorf("expected duration, got %T", v)
		}
		return time.Duration(n) * time.Second, nil
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}
