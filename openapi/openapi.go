// Package openapi describes mounted resources as an OpenAPI 3 document. The
// document backs the info endpoints and, when enabled, request validation in
// the router.
package openapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/drblury/mongoweaver/query"
	"github.com/drblury/mongoweaver/resource"
	"github.com/drblury/mongoweaver/schema"
)

const objectIDPattern = "^[0-9a-fA-F]{24}$"

// Option configures Build.
type Option func(*options)

type options struct {
	title       string
	version     string
	description string
	servers     []string
}

// WithTitle sets the document title.
func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithVersion sets the API version.
func WithVersion(version string) Option {
	return func(o *options) {
		o.version = version
	}
}

// WithDescription sets the API description.
func WithDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// WithServer adds a server URL.
func WithServer(url string) Option {
	return func(o *options) {
		o.servers = append(o.servers, url)
	}
}

// Build describes every route of resources and validates the result.
func Build(resources []*resource.Resource, opts ...Option) (*openapi3.T, error) {
	settings := &options{title: "mongoweaver", version: "1.0.0"}
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       settings.title,
			Version:     settings.version,
			Description: settings.description,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
	for _, url := range settings.servers {
		doc.AddServer(&openapi3.Server{URL: url})
	}

	for _, r := range resources {
		if r == nil {
			continue
		}
		addResource(doc, r)
	}

	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("openapi: invalid document: %w", err)
	}
	return doc, nil
}

// Marshal renders doc as JSON.
func Marshal(doc *openapi3.T) ([]byte, error) {
	return doc.MarshalJSON()
}

func addResource(doc *openapi3.T, r *resource.Resource) {
	m := r.Model().Schema()
	name := m.Name()
	inputName := name + "Input"

	doc.Components.Schemas[name] = openapi3.NewSchemaRef("", ModelSchema(m, false))
	doc.Components.Schemas[inputName] = openapi3.NewSchemaRef("", ModelSchema(m, true))
	output := &openapi3.SchemaRef{Ref: "#/components/schemas/" + name, Value: doc.Components.Schemas[name].Value}
	input := &openapi3.SchemaRef{Ref: "#/components/schemas/" + inputName, Value: doc.Components.Schemas[inputName].Value}

	for _, route := range r.Routes() {
		op := openapi3.NewOperation()
		op.Tags = []string{name}
		op.OperationID = operationID(route, name)

		if strings.Contains(route.Path, ":"+resource.IDParam) {
			op.AddParameter(openapi3.NewPathParameter(resource.IDParam).
				WithSchema(idSchema(m)).
				WithDescription("Document id."))
		}

		switch route.Operation {
		case resource.OpFind:
			op.Summary = "List " + name + " documents"
			addQueryParameters(op, true)
			op.AddResponse(http.StatusOK, openapi3.NewResponse().
				WithDescription("Matching documents. The total count is reported in a header.").
				WithJSONSchema(openapi3.NewArraySchema().WithItems(output.Value)))
		case resource.OpFindByID:
			op.Summary = "Get a " + name + " document"
			addQueryParameters(op, false)
			op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("The document.").WithJSONSchemaRef(output))
			op.AddResponse(http.StatusNoContent, openapi3.NewResponse().WithDescription("No document has this id."))
		case resource.OpCreate:
			op.Summary = "Create a " + name + " document"
			op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithJSONSchemaRef(input)}
			op.AddResponse(http.StatusCreated, openapi3.NewResponse().WithDescription("The saved document.").WithJSONSchemaRef(output))
			op.AddResponse(http.StatusBadRequest, validationResponse())
		case resource.OpSave:
			if route.Method == http.MethodPut {
				op.Summary = "Replace the visible fields of a " + name + " document"
			} else {
				op.Summary = "Update fields of a " + name + " document"
			}
			op.AddParameter(openapi3.NewQueryParameter(query.ParamSelect).WithSchema(openapi3.NewStringSchema()))
			op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithJSONSchemaRef(input)}
			op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("The updated document.").WithJSONSchemaRef(output))
			op.AddResponse(http.StatusNoContent, openapi3.NewResponse().WithDescription("No document has this id."))
			op.AddResponse(http.StatusBadRequest, validationResponse())
		case resource.OpRemove:
			op.Summary = "Delete a " + name + " document"
			op.AddParameter(openapi3.NewQueryParameter(query.ParamSelect).WithSchema(openapi3.NewStringSchema()))
			op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("The deleted document.").WithJSONSchemaRef(output))
			op.AddResponse(http.StatusNoContent, openapi3.NewResponse().WithDescription("No document has this id."))
		}

		doc.AddOperation(openAPIPath(route.Path), route.Method, op)
	}
}

func addQueryParameters(op *openapi3.Operation, paging bool) {
	if paging {
		op.AddParameter(openapi3.NewQueryParameter(query.ParamSkip).
			WithSchema(openapi3.NewIntegerSchema().WithMin(0)).
			WithDescription("Number of documents to skip."))
		op.AddParameter(openapi3.NewQueryParameter(query.ParamLimit).
			WithSchema(openapi3.NewIntegerSchema().WithMin(0)).
			WithDescription("Maximum number of documents to return."))
		op.AddParameter(openapi3.NewQueryParameter(query.ParamSort).
			WithSchema(openapi3.NewStringSchema()).
			WithDescription("Fields to sort by, prefixed with - for descending order."))
	}
	op.AddParameter(openapi3.NewQueryParameter(query.ParamSelect).
		WithSchema(openapi3.NewStringSchema()).
		WithDescription("Fields to include, or to exclude when prefixed with -."))
	op.AddParameter(openapi3.NewQueryParameter(query.ParamPopulate).
		WithSchema(openapi3.NewStringSchema()).
		WithDescription("Reference fields to populate, e.g. owner[name]:pets."))
}

func validationResponse() *openapi3.Response {
	return openapi3.NewResponse().
		WithDescription("The document failed validation. " + resource.HeaderErrorMessage + " lists the messages.").
		WithJSONSchema(openapi3.NewObjectSchema().WithProperty("error", openapi3.NewObjectSchema()))
}

// ModelSchema converts the visible fields of m to a JSON schema. Input schemas
// omit _id and required lists; required paths are enforced when the document
// is validated.
func ModelSchema(m *schema.Model, input bool) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	for _, f := range m.Fields() {
		if m.IsHidden(f.Path) || f.Path == m.VersionKey() {
			continue
		}
		if input && f.Path == schema.IDPath {
			continue
		}
		segments := strings.Split(f.Path, ".")
		parent := root
		for _, segment := range segments[:len(segments)-1] {
			parent = childObject(parent, segment)
		}
		leaf := segments[len(segments)-1]
		parent.WithProperty(leaf, fieldSchema(f, input))
		if !input && f.Required {
			parent.Required = append(parent.Required, leaf)
		}
	}
	return root
}

func childObject(parent *openapi3.Schema, name string) *openapi3.Schema {
	if ref, ok := parent.Properties[name]; ok && ref.Value != nil {
		return ref.Value
	}
	child := openapi3.NewObjectSchema()
	parent.WithProperty(name, child)
	return child
}

func fieldSchema(f schema.Field, input bool) *openapi3.Schema {
	var s *openapi3.Schema
	switch f.Type {
	case schema.String:
		s = openapi3.NewStringSchema()
	case schema.Number:
		s = openapi3.NewFloat64Schema()
	case schema.Boolean:
		s = openapi3.NewBoolSchema()
	case schema.ObjectID:
		s = openapi3.NewStringSchema().WithPattern(objectIDPattern)
		if f.IsRef() && !input {
			// populated refs are documents
			s = &openapi3.Schema{OneOf: openapi3.SchemaRefs{
				openapi3.NewSchemaRef("", s),
				openapi3.NewSchemaRef("", openapi3.NewObjectSchema()),
			}}
		}
	case schema.Date:
		s = openapi3.NewDateTimeSchema()
	default:
		s = &openapi3.Schema{}
	}
	s.Nullable = !f.Required && f.Type != schema.Mixed
	if f.Array {
		return openapi3.NewArraySchema().WithItems(s)
	}
	return s
}

func idSchema(m *schema.Model) *openapi3.Schema {
	if f, ok := m.Field(schema.IDPath); ok && f.Type != schema.ObjectID {
		return fieldSchema(schema.Field{Path: f.Path, Type: f.Type, Required: true}, true)
	}
	return openapi3.NewStringSchema().WithPattern(objectIDPattern)
}

func operationID(route resource.Route, name string) string {
	title := strings.ToUpper(name[:1]) + name[1:]
	switch {
	case route.Operation == resource.OpFind:
		return "find" + title
	case route.Operation == resource.OpFindByID:
		return "find" + title + "ById"
	case route.Operation == resource.OpCreate:
		return "create" + title
	case route.Method == http.MethodPut:
		return "replace" + title
	case route.Method == http.MethodPatch:
		return "update" + title
	case route.Operation == resource.OpRemove:
		return "remove" + title
	}
	return strings.ToLower(route.Method) + title
}

// openAPIPath converts httprouter parameters to OpenAPI templates.
func openAPIPath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ":") {
			segments[i] = "{" + segment[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}
