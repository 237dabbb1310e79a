package spec

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/schema2api/internal/fake"
	"github.com/mark3labs/schema2api/internal/jsonapi"
	"github.com/mark3labs/schema2api/internal/routes"
	"github.com/mark3labs/schema2api/internal/schema"
)

// Info is the document metadata of a described API.
type Info struct {
	Title       string
	Version     string
	Description string
}

// Describe builds an OpenAPI 3 document for a route table and validates it.
// graph is used for inferred routes and may be nil for a manual table.
func Describe(ctx context.Context, table routes.Table, graph *schema.Graph, info Info) (*openapi3.T, error) {
	if info.Title == "" {
		info.Title = "schema2api mock API"
	}
	if info.Version == "" {
		info.Version = "0.0.0"
	}

	d := &describer{
		graph: graph,
		doc: &openapi3.T{
			OpenAPI: "3.0.3",
			Info: &openapi3.Info{
				Title:       info.Title,
				Version:     info.Version,
				Description: info.Description,
			},
			Paths:      openapi3.Paths{},
			Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
		},
	}
	for _, rt := range table {
		if err := d.add(rt); err != nil {
			return nil, err
		}
	}
	if err := d.doc.Validate(ctx); err != nil {
		return nil, &SpecError{Code: ValidationError, Message: fmt.Sprintf("openapi: %v", err), JSONPointer: extractJSONPointer(err), Cause: err}
	}
	return d.doc, nil
}

type describer struct {
	graph *schema.Graph
	doc   *openapi3.T
}

func (d *describer) add(rt routes.Route) error {
	op := openapi3.NewOperation()
	op.OperationID = operationID(rt)
	for _, p := range rt.Params() {
		op.AddParameter(openapi3.NewPathParameter(p).WithSchema(openapi3.NewStringSchema()))
	}

	switch rt.Kind {
	case routes.KindCollection:
		op.Summary = fmt.Sprintf("List %s", rt.Type)
		op.Tags = []string{rt.Type}
		op.Responses = openapi3.Responses{
			"200": d.jsonAPIResponse("The full collection.", d.collectionDocument(rt.Type)),
		}
	case routes.KindItem:
		op.Summary = fmt.Sprintf("Fetch one of %s", rt.Type)
		op.Tags = []string{rt.Type}
		op.Responses = openapi3.Responses{
			"200": d.jsonAPIResponse("The resource.", d.itemDocument(rt.Type)),
			"404": d.jsonAPIResponse("Resource Not Found.", d.errorDocument()),
		}
	case routes.KindRelated:
		op.Summary = fmt.Sprintf("List %s of one of %s", rt.Relationship, rt.Type)
		op.Tags = []string{rt.Type}
		op.Responses = openapi3.Responses{
			"200": d.jsonAPIResponse("Related resources, possibly none.", d.collectionDocument(rt.Relationship)),
			"404": d.jsonAPIResponse("Parent Resource Not Found.", d.errorDocument()),
		}
	case routes.KindManualItem, routes.KindManualCollection:
		item := TemplateSchema(rt.Template)
		body := item
		desc := "A generated object."
		if rt.Kind == routes.KindManualCollection {
			body = openapi3.NewArraySchema().WithItems(item)
			desc = "Generated objects."
		}
		op.Summary = fmt.Sprintf("Mock %s", rt.Display())
		op.Responses = openapi3.Responses{
			"200": &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchema(body)},
		}
	default:
		return fmt.Errorf("openapi: route %s has unknown kind %q", rt.Display(), rt.Kind)
	}

	item := d.doc.Paths[rt.Pattern]
	if item == nil {
		item = &openapi3.PathItem{}
		d.doc.Paths[rt.Pattern] = item
	}
	item.SetOperation(rt.Method, op)
	return nil
}

func operationID(rt routes.Route) string {
	parts := []string{strings.ToLower(rt.Method)}
	for _, seg := range schema.PathSegments(rt.Pattern) {
		if schema.IsParamSegment(seg) {
			seg = "by-" + schema.ParamName(seg)
		}
		parts = append(parts, seg)
	}
	return pascal(strings.Join(parts, "-"))
}

func (d *describer) jsonAPIResponse(desc string, ref *openapi3.SchemaRef) *openapi3.ResponseRef {
	resp := openapi3.NewResponse().
		WithDescription(desc).
		WithContent(openapi3.NewContentWithSchemaRef(ref, []string{jsonapi.MediaType}))
	return &openapi3.ResponseRef{Value: resp}
}

// schema registers s under name once and returns a reference to it.
func (d *describer) schema(name string, s *openapi3.Schema) *openapi3.SchemaRef {
	if existing, ok := d.doc.Components.Schemas[name]; ok {
		return openapi3.NewSchemaRef("#/components/schemas/"+name, existing.Value)
	}
	d.doc.Components.Schemas[name] = openapi3.NewSchemaRef("", s)
	return openapi3.NewSchemaRef("#/components/schemas/"+name, s)
}

func (d *describer) errorDocument() *openapi3.SchemaRef {
	return d.schema("ErrorDocument", errorDocumentSchema())
}

func (d *describer) itemDocument(typeName string) *openapi3.SchemaRef {
	res := d.resource(typeName)
	return d.schema(pascal(schema.Singularize(typeName))+"Document",
		required(openapi3.NewObjectSchema().WithPropertyRef("data", res), "data"))
}

func (d *describer) collectionDocument(typeName string) *openapi3.SchemaRef {
	res := d.resource(typeName)
	data := openapi3.NewArraySchema()
	data.Items = res
	return d.schema(pascal(schema.Singularize(typeName))+"CollectionDocument",
		required(openapi3.NewObjectSchema().WithProperty("data", data), "data"))
}

// resource describes a JSON:API resource of typeName: the generated base
// attributes, one foreign key per parent and one related link per
// relationship.
func (d *describer) resource(typeName string) *openapi3.SchemaRef {
	attrs := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("createdAt", openapi3.NewDateTimeSchema())
	rels := openapi3.NewObjectSchema()

	if e, ok := d.graph.EntityForType(typeName); ok {
		for _, parent := range d.graph.Parents(e.Name) {
			attrs.WithProperty(parent.ForeignKey(), openapi3.NewUUIDSchema())
		}
		for _, name := range e.RelationshipNames() {
			rels.WithProperty(name, openapi3.NewObjectSchema().
				WithProperty("links", openapi3.NewObjectSchema().WithProperty("related", openapi3.NewStringSchema())))
		}
	}

	links := openapi3.NewObjectSchema().WithProperty("self", openapi3.NewStringSchema())
	res := required(openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("type", openapi3.NewStringSchema().WithEnum(typeName)).
		WithProperty("attributes", attrs).
		WithProperty("links", links).
		WithProperty("relationships", rels),
		"id", "type", "attributes", "links", "relationships")

	return d.schema(pascal(schema.Singularize(typeName))+"Resource", res)
}

func errorDocumentSchema() *openapi3.Schema {
	errObj := required(openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("detail", openapi3.NewStringSchema()),
		"status", "title")
	return required(openapi3.NewObjectSchema().
		WithProperty("errors", openapi3.NewArraySchema().WithItems(errObj)),
		"errors")
}

func required(s *openapi3.Schema, names ...string) *openapi3.Schema {
	s.Required = names
	return s
}

// TemplateSchema infers a JSON schema from a manual-mode template. Generator
// references map to the type (and format) of the values they produce.
func TemplateSchema(tmpl map[string]any) *openapi3.Schema {
	return valueSchema(tmpl)
}

func valueSchema(v any) *openapi3.Schema {
	switch x := v.(type) {
	case map[string]any:
		obj := openapi3.NewObjectSchema()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.WithProperty(k, valueSchema(x[k]))
		}
		return obj
	case []any:
		arr := openapi3.NewArraySchema()
		if len(x) > 0 {
			arr.WithItems(valueSchema(x[0]))
		}
		return arr
	case string:
		if strings.HasPrefix(x, fake.Prefix) {
			return kindSchema(fake.Kind(strings.TrimPrefix(x, fake.Prefix)))
		}
		return openapi3.NewStringSchema()
	case bool:
		return openapi3.NewBoolSchema()
	case int, int64, uint64:
		return openapi3.NewIntegerSchema()
	case float64:
		if x == float64(int64(x)) {
			return openapi3.NewIntegerSchema()
		}
		return openapi3.NewFloat64Schema()
	case nil:
		s := openapi3.NewSchema()
		s.Nullable = true
		return s
	default:
		return openapi3.NewSchema()
	}
}

func kindSchema(k fake.Kind) *openapi3.Schema {
	switch k {
	case fake.KindUUID:
		return openapi3.NewUUIDSchema()
	case fake.KindEmail:
		return openapi3.NewStringSchema().WithFormat("email")
	case fake.KindURL:
		return openapi3.NewStringSchema().WithFormat("uri")
	case fake.KindIPv4:
		return openapi3.NewStringSchema().WithFormat("ipv4")
	case fake.KindDatePast, fake.KindDateFuture, fake.KindDateRecent:
		return openapi3.NewDateTimeSchema()
	case fake.KindInt:
		return openapi3.NewIntegerSchema()
	case fake.KindFloat, fake.KindPrice:
		return openapi3.NewFloat64Schema()
	case fake.KindBoolean:
		return openapi3.NewBoolSchema()
	default:
		return openapi3.NewStringSchema()
	}
}

// pascal turns "research-group" or "get-users-by-id" into "ResearchGroup" /
// "GetUsersById".
func pascal(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// MarshalJSON renders doc as indented JSON.
func MarshalJSON(doc *openapi3.T) ([]byte, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode openapi json: %w", err)
	}
	return append(b, '\n'), nil
}

// MarshalYAML renders doc as block-style YAML, keeping the key order of the
// JSON encoding.
func MarshalYAML(doc *openapi3.T) ([]byte, error) {
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(js, &node); err != nil {
		return nil, fmt.Errorf("encode openapi yaml: %w", err)
	}
	clearStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("encode openapi yaml: %w", err)
	}
	return out, nil
}

func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
