// Package mongoweaver turns document model definitions into REST endpoints
// backed by MongoDB. Each mounted model gets list, read, create, replace,
// update and delete routes that honour hidden fields, query-string filtering,
// sorting, paging, field selection and population of referenced documents.
//
// # Packages
//
//   - schema: model definitions, hidden-field resolution, casting and
//     validation.
//   - query: query-string translation into filters and query options, plus the
//     omit helpers that scrub hidden paths.
//   - store: the storage interface with MongoDB and in-memory implementations.
//   - document: model-bound documents with save, remove and populate.
//   - resource: the route generator with default handlers that callers can
//     extend or replace per operation.
//   - openapi: OpenAPI 3 documents derived from mounted resources.
//   - router: net/http middleware chain with request validation, CORS, rate
//     limiting, metrics and request logging.
//   - responder: JSON rendering and RFC 9457 problem documents.
//   - info and probe: status, health, readiness, version and documentation
//     endpoints.
//   - config: the YAML file read by cmd/mongoweaver.
//
// # Quick Start
//
//	person := schema.MustNew("person", []schema.Field{
//	    {Path: "name", Type: schema.String, Required: true},
//	    {Path: "_secret", Type: schema.String},
//	})
//	reg, _ := schema.NewRegistry(person)
//	db := document.NewDatabase(reg, store.NewMongo(client.Database("app")))
//
//	people := resource.New(db.Bind(person), resource.AllMethods())
//	hr := httprouter.New()
//	resource.Mount(hr, people)
//
//	mux := router.New(hr, router.WithLogger(logger))
//	_ = http.ListenAndServe(":8080", mux)
//
// Handlers run as a chain. resource.Custom(audit, resource.Builtin) runs audit
// before the default handler of the operation, and omitting Builtin replaces it.
package mongoweaver
