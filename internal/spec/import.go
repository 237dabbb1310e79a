package spec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/schema2api/internal/fake"
	"github.com/mark3labs/schema2api/internal/schema"
)

// maxTemplateDepth stops recursive schemas from expanding forever.
const maxTemplateDepth = 6

// ImportOpenAPI turns the GET operations of an OpenAPI 3 or Swagger 2 document
// into manual-mode endpoints. Each endpoint's template is derived from the
// JSON schema of its success response: string formats and property names pick
// a generator reference, examples and enums become literals. A collection
// response (array) contributes its item schema.
func ImportOpenAPI(ctx context.Context, raw []byte, location string) ([]schema.Endpoint, error) {
	doc, err := loadOpenAPI(ctx, raw, location)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var out []schema.Endpoint
	for _, p := range paths {
		item := doc.Paths[p]
		if item == nil || item.Get == nil {
			continue
		}
		tmpl := map[string]any{}
		if s := successSchema(item.Get); s != nil {
			if s.Type == openapi3.TypeArray && s.Items != nil && s.Items.Value != nil {
				s = s.Items.Value
			}
			if t, ok := templateFor("", s, 0).(map[string]any); ok {
				tmpl = t
			}
		}
		out = append(out, schema.Endpoint{Path: p, Response: tmpl})
	}
	if len(out) == 0 {
		return nil, &SpecError{Code: ValidationError, Message: "openapi: document has no GET operations", Location: location, JSONPointer: "#/paths"}
	}
	return out, nil
}

func loadOpenAPI(ctx context.Context, raw []byte, location string) (*openapi3.T, error) {
	var root map[string]any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse openapi: %v", err), Location: location, Cause: err}
	}

	var doc *openapi3.T
	switch specVersion(root) {
	case 3:
		loader := openapi3.NewLoader()
		d, err := loader.LoadFromData(raw)
		if err != nil {
			return nil, mapValidateOrParseErr(err, location)
		}
		doc = d
	case 2:
		// openapi2.T only decodes from JSON, so re-encode the generic tree.
		js, err := json.Marshal(stringKeys(root))
		if err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse swagger: %v", err), Location: location, Cause: err}
		}
		var v2 openapi2.T
		if err := json.Unmarshal(js, &v2); err != nil {
			return nil, &SpecError{Code: ParseError, Message: fmt.Sprintf("parse swagger: %v", err), Location: location, Cause: err}
		}
		d, err := openapi2conv.ToV3(&v2)
		if err != nil {
			return nil, &SpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: location, Cause: err}
		}
		doc = d
	default:
		return nil, &SpecError{Code: ParseError, Message: "openapi: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')", Location: location}
	}

	if err := doc.Validate(ctx); err != nil && !canProceedDespiteValidation(err) {
		return nil, mapValidateOrParseErr(err, location)
	}
	return doc, nil
}

// stringKeys rewrites the map[any]any nodes YAML produces for non-string keys
// (such as unquoted response codes) so the tree can be encoded as JSON.
func stringKeys(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = stringKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = stringKeys(val)
		}
		return out
	default:
		return v
	}
}

// successSchema returns the JSON schema of the first 2xx (or default)
// response of op.
func successSchema(op *openapi3.Operation) *openapi3.Schema {
	codes := make([]string, 0, len(op.Responses))
	for code := range op.Responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	pick := func(code string) *openapi3.Schema {
		ref := op.Responses[code]
		if ref == nil || ref.Value == nil {
			return nil
		}
		mt := ref.Value.Content.Get("application/json")
		if mt == nil {
			for _, v := range ref.Value.Content {
				mt = v
				break
			}
		}
		if mt == nil || mt.Schema == nil {
			return nil
		}
		return mt.Schema.Value
	}
	for _, code := range codes {
		if strings.HasPrefix(code, "2") {
			if s := pick(code); s != nil {
				return s
			}
		}
	}
	return pick("default")
}

func templateFor(name string, s *openapi3.Schema, depth int) any {
	if s == nil || depth > maxTemplateDepth {
		return nil
	}
	if s.Example != nil {
		return s.Example
	}
	if len(s.Enum) > 0 {
		return s.Enum[0]
	}
	if len(s.AllOf) > 0 {
		merged := map[string]any{}
		for _, part := range s.AllOf {
			if m, ok := templateFor(name, part.Value, depth+1).(map[string]any); ok {
				for k, v := range m {
					merged[k] = v
				}
			}
		}
		return merged
	}
	for _, alt := range [][]*openapi3.SchemaRef{s.OneOf, s.AnyOf} {
		if len(alt) > 0 {
			return templateFor(name, alt[0].Value, depth+1)
		}
	}

	switch s.Type {
	case openapi3.TypeObject, "":
		if s.Type == "" && len(s.Properties) == 0 {
			return ref(fake.KindLoremWord)
		}
		obj := make(map[string]any, len(s.Properties))
		for prop, ps := range s.Properties {
			if ps == nil {
				continue
			}
			obj[prop] = templateFor(prop, ps.Value, depth+1)
		}
		return obj
	case openapi3.TypeArray:
		if s.Items == nil {
			return []any{}
		}
		return []any{templateFor(singular(name), s.Items.Value, depth+1)}
	case openapi3.TypeString:
		return ref(stringKind(name, s.Format))
	case openapi3.TypeInteger:
		return ref(fake.KindInt)
	case openapi3.TypeNumber:
		if kindForName(name) == fake.KindPrice {
			return ref(fake.KindPrice)
		}
		return ref(fake.KindFloat)
	case openapi3.TypeBoolean:
		return ref(fake.KindBoolean)
	default:
		return nil
	}
}

func ref(k fake.Kind) string { return fake.Prefix + string(k) }

func stringKind(name, format string) fake.Kind {
	switch format {
	case "uuid":
		return fake.KindUUID
	case "email":
		return fake.KindEmail
	case "date-time", "date":
		return fake.KindDatePast
	case "uri", "url":
		return fake.KindURL
	case "ipv4":
		return fake.KindIPv4
	case "hostname":
		return fake.KindDomain
	}
	if k := kindForName(name); k != "" {
		return k
	}
	return fake.KindLoremWord
}

var wordRe = regexp.MustCompile(`[A-Z]?[a-z0-9]+|[A-Z]+`)

// kindForName guesses a generator from a property name such as "firstName" or
// "created_at".
func kindForName(name string) fake.Kind {
	words := wordRe.FindAllString(name, -1)
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	key := strings.Join(words, "")
	last := ""
	if len(words) > 0 {
		last = words[len(words)-1]
	}

	switch key {
	case "id", "uuid", "guid":
		return fake.KindUUID
	case "firstname", "givenname":
		return fake.KindFirstName
	case "lastname", "surname", "familyname":
		return fake.KindLastName
	case "name", "fullname", "displayname":
		return fake.KindFullName
	case "username", "login", "handle":
		return fake.KindUsername
	case "jobtitle", "title":
		return fake.KindJobTitle
	case "gender", "sex":
		return fake.KindGender
	case "company", "companyname", "organization":
		return fake.KindCompany
	case "description", "bio", "summary", "body":
		return fake.KindLoremParagraph
	case "zip", "zipcode", "postcode", "postalcode":
		return fake.KindZip
	case "address", "street", "streetaddress":
		return fake.KindStreet
	}
	switch last {
	case "id":
		return fake.KindUUID
	case "email":
		return fake.KindEmail
	case "phone":
		return fake.KindPhone
	case "url", "website", "link", "avatar":
		return fake.KindURL
	case "at", "date", "time":
		return fake.KindDatePast
	case "city":
		return fake.KindCity
	case "country":
		return fake.KindCountry
	case "color", "colour":
		return fake.KindColor
	case "price", "amount", "cost":
		return fake.KindPrice
	case "product":
		return fake.KindProductName
	case "domain", "host", "hostname":
		return fake.KindDomain
	case "ip":
		return fake.KindIPv4
	}
	return ""
}

func singular(name string) string {
	if name == "" {
		return ""
	}
	return schema.Singularize(strings.ToLower(name))
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	// Heuristics: some loader errors are parse errors.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "parse") || strings.Contains(msg, "invalid character") || strings.Contains(msg, "unmarshal") {
		code = ParseError
	}
	return &SpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	var me openapi3.MultiError
	if errors.As(err, &me) && len(me) > 0 {
		return extractJSONPointer(me[0])
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors a
// best-effort import can ignore, such as unresolved $ref entries.
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref") || strings.Contains(s, "found unresolved ref")
}
