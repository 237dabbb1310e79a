package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/schema2api/internal/schema"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	ConversionError ErrorCode = "ConversionError"
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/endpoints/0/path"
	Cause       error
}

func (e *SpecError) Error() string {
	if e.JSONPointer != "" {
		return fmt.Sprintf("%s (at %s)", e.Message, e.JSONPointer)
	}
	return e.Message
}

func (e *SpecError) Unwrap() error { return e.Cause }

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }

// LoadEndpoints reads manual-mode endpoint definitions.
//
// input may be a filesystem path or an http/https URL. The document is YAML or
// JSON and is either an endpoint file:
//
//	endpoints:
//	  - path: /users/:id
//	    response: {id: faker.string.uuid, name: faker.person.fullName}
//	  - path: /users
//	    responseBody: '{"id": "faker.string.uuid"}'
//
// (a bare top-level list is accepted too) or an OpenAPI 3 / Swagger 2 document,
// whose GET operations are turned into endpoints by ImportOpenAPI.
func LoadEndpoints(ctx context.Context, input string, opts ...Option) ([]schema.Endpoint, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "endpoints: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	raw, location, err := readInput(ctx, input, settings)
	if err != nil {
		return nil, err
	}
	return ParseEndpoints(ctx, raw, location)
}

func readInput(ctx context.Context, input string, settings Settings) ([]byte, string, error) {
	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme == "file" {
			return nil, input, &SpecError{Code: InputError, Message: "endpoints: file:// URLs are not supported, pass a path", Location: input}
		}
		if scheme != "http" && scheme != "https" {
			return nil, input, &SpecError{Code: InputError, Message: fmt.Sprintf("endpoints: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, err := fetchWithRetry(ctx, input, settings)
		if err != nil {
			return nil, input, &SpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", input, err), Location: input, Cause: err}
		}
		return raw, input, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, input, &SpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: input, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, abs, &SpecError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return raw, abs, nil
}

// ParseEndpoints decodes an endpoint document already in memory. location is
// only used in error messages.
func ParseEndpoints(ctx context.Context, raw []byte, location string) ([]schema.Endpoint, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &SpecError{Code: InputError, Message: "endpoints: document is empty", Location: location}
	}

	var root any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse endpoints: %v", err), Location: location, Cause: err}
	}

	var (
		items   []any
		pointer = "#"
	)
	switch doc := root.(type) {
	case []any:
		items = doc
	case map[string]any:
		if version := specVersion(doc); version != 0 {
			return ImportOpenAPI(ctx, raw, location)
		}
		list, ok := doc["endpoints"].([]any)
		if !ok {
			return nil, &SpecError{Code: ValidationError, Message: "endpoints: expected an \"endpoints\" list", Location: location, JSONPointer: "#/endpoints"}
		}
		items = list
		pointer = "#/endpoints"
	default:
		return nil, &SpecError{Code: ValidationError, Message: "endpoints: expected a list or a mapping with \"endpoints\"", Location: location, JSONPointer: "#"}
	}

	if len(items) == 0 {
		return nil, &SpecError{Code: ValidationError, Message: "endpoints: no endpoints defined", Location: location, JSONPointer: pointer}
	}

	out := make([]schema.Endpoint, 0, len(items))
	seen := make(map[string]int, len(items))
	for i, item := range items {
		at := fmt.Sprintf("%s/%d", pointer, i)
		ep, err := decodeEndpoint(item, at, location)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[ep.Path]; dup {
			return nil, &SpecError{Code: ValidationError, Message: fmt.Sprintf("endpoints: path %q already defined by entry %d", ep.Path, prev), Location: location, JSONPointer: at + "/path"}
		}
		seen[ep.Path] = i
		out = append(out, ep)
	}
	return out, nil
}

func decodeEndpoint(item any, at, location string) (schema.Endpoint, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return schema.Endpoint{}, &SpecError{Code: ValidationError, Message: "endpoints: entry must be a mapping", Location: location, JSONPointer: at}
	}

	path, _ := m["path"].(string)
	path = strings.TrimSpace(path)
	if path == "" {
		return schema.Endpoint{}, &SpecError{Code: ValidationError, Message: "endpoints: path is required", Location: location, JSONPointer: at + "/path"}
	}
	if !strings.HasPrefix(path, "/") {
		return schema.Endpoint{}, &SpecError{Code: ValidationError, Message: fmt.Sprintf("endpoints: path %q must start with \"/\"", path), Location: location, JSONPointer: at + "/path"}
	}

	var response map[string]any
	switch {
	case m["response"] != nil:
		r, ok := stringKeys(m["response"]).(map[string]any)
		if !ok {
			return schema.Endpoint{}, &SpecError{Code: ValidationError, Message: "endpoints: response must be an object", Location: location, JSONPointer: at + "/response"}
		}
		response = r
	case m["responseBody"] != nil:
		body, ok := m["responseBody"].(string)
		if !ok {
			return schema.Endpoint{}, &SpecError{Code: ValidationError, Message: "endpoints: responseBody must be a JSON string", Location: location, JSONPointer: at + "/responseBody"}
		}
		if err := json.Unmarshal([]byte(body), &response); err != nil {
			return schema.Endpoint{}, &SpecError{Code: ParseError, Message: fmt.Sprintf("endpoints: responseBody is not a JSON object: %v", err), Location: location, JSONPointer: at + "/responseBody", Cause: err}
		}
	default:
		return schema.Endpoint{}, &SpecError{Code: ValidationError, Message: "endpoints: response or responseBody is required", Location: location, JSONPointer: at}
	}
	if response == nil {
		response = map[string]any{}
	}
	return schema.Endpoint{Path: path, Response: response}, nil
}

// specVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else 0.
func specVersion(root map[string]any) int {
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3
		}
	}
	if v, ok := root["swagger"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "2.") {
			return 2
		}
	}
	return 0
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs one GET. retry reports whether the failure is transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
