package spec

import (
	"context"
	"errors"
	"testing"
)

const petstoreV3 = `openapi: 3.0.0
info:
  title: Pets
  version: "1.0.0"
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
    post:
      responses:
        "201":
          description: created
  /pets/{petId}:
    get:
      parameters:
        - in: path
          name: petId
          required: true
          schema:
            type: string
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /admin:
    post:
      responses:
        "204":
          description: done
components:
  schemas:
    Pet:
      type: object
      properties:
        id:
          type: string
          format: uuid
        name:
          type: string
        ownerEmail:
          type: string
          format: email
        status:
          type: string
          enum: [available, sold]
        age:
          type: integer
        weight:
          type: number
        vaccinated:
          type: boolean
        createdAt:
          type: string
          format: date-time
        nickname:
          type: string
          example: Rex
        tags:
          type: array
          items:
            type: string
`

func TestImportOpenAPI_V3(t *testing.T) {
	t.Parallel()
	eps, err := ParseEndpoints(context.Background(), []byte(petstoreV3), "pets.yaml")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(eps) != 2 {
		t.Fatalf("expected 2 GET endpoints, got %d: %+v", len(eps), eps)
	}
	if eps[0].Path != "/pets" || eps[0].IsSingleItem() {
		t.Fatalf("unexpected first endpoint: %+v", eps[0])
	}
	if eps[1].Path != "/pets/{petId}" || !eps[1].IsSingleItem() {
		t.Fatalf("unexpected second endpoint: %+v", eps[1])
	}

	want := map[string]any{
		"id":         "faker.string.uuid",
		"name":       "faker.person.fullName",
		"ownerEmail": "faker.internet.email",
		"status":     "available",
		"age":        "faker.number.int",
		"weight":     "faker.number.float",
		"vaccinated": "faker.datatype.boolean",
		"createdAt":  "faker.date.past",
		"nickname":   "Rex",
	}
	for _, ep := range eps {
		for k, v := range want {
			if ep.Response[k] != v {
				t.Fatalf("%s: %s = %#v, want %#v", ep.Path, k, ep.Response[k], v)
			}
		}
		tags, ok := ep.Response["tags"].([]any)
		if !ok || len(tags) != 1 || tags[0] != "faker.lorem.word" {
			t.Fatalf("%s: unexpected tags template %#v", ep.Path, ep.Response["tags"])
		}
	}
}

func TestImportOpenAPI_V2(t *testing.T) {
	t.Parallel()
	doc := `swagger: "2.0"
info:
  title: Sample
  version: "1.0.0"
produces: [application/json]
paths:
  /users/{id}:
    get:
      parameters:
        - in: path
          name: id
          required: true
          type: string
      responses:
        "200":
          description: ok
          schema:
            type: object
            properties:
              firstName:
                type: string
              website:
                type: string
`
	eps, err := ParseEndpoints(context.Background(), []byte(doc), "swagger.yaml")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(eps) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(eps))
	}
	if eps[0].Response["firstName"] != "faker.person.firstName" {
		t.Fatalf("unexpected firstName template: %#v", eps[0].Response)
	}
	if eps[0].Response["website"] != "faker.internet.url" {
		t.Fatalf("unexpected website template: %#v", eps[0].Response)
	}
}

func TestImportOpenAPI_NoGetOperations(t *testing.T) {
	t.Parallel()
	doc := `openapi: 3.0.0
info:
  title: Writes
  version: "1.0.0"
paths:
  /things:
    post:
      responses:
        "201":
          description: created
`
	_, err := ParseEndpoints(context.Background(), []byte(doc), "writes.yaml")
	requireSpecError(t, err, ValidationError)
}

func TestImportOpenAPI_Invalid(t *testing.T) {
	t.Parallel()
	doc := `openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`
	_, err := ParseEndpoints(context.Background(), []byte(doc), "bad.yaml")
	if err == nil {
		t.Fatalf("expected validation error for incomplete responses")
	}
	var se *SpecError
	if !errors.As(err, &se) || (se.Code != ValidationError && se.Code != ParseError) {
		t.Fatalf("expected ValidationError/ParseError, got %v", err)
	}
}

func TestKindForName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"userId":      "string.uuid",
		"first_name":  "person.firstName",
		"LastName":    "person.lastName",
		"homePhone":   "phone.number",
		"updated_at":  "date.past",
		"countryCode": "",
		"city":        "location.city",
		"unitPrice":   "commerce.price",
		"zip":         "location.zipCode",
		"whatever":    "",
	}
	for name, want := range cases {
		if got := string(kindForName(name)); got != want {
			t.Errorf("kindForName(%q) = %q, want %q", name, got, want)
		}
	}
}
