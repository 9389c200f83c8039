// Package resource generates REST routes for a document model.
//
// A Resource mounts up to five operations on an httprouter.Router:
//
//	GET    /person      find
//	GET    /person/:id  findById
//	POST   /person      create
//	PUT    /person/:id  save (overwrite)
//	PATCH  /person/:id  save (partial)
//	DELETE /person/:id  remove
//
// Every route first runs an init step that disables caching, translates the
// $skip, $limit, $sort, $select and $populate parameters and strips hidden
// fields from the filter and the body. The operation's handlers run next. A
// Custom method table entry replaces the default handler, or wraps it when
// Builtin is part of the list:
//
//	resource.Custom(audit, resource.Builtin, notify)
//
// Default handlers split into pre-work, a call to next and post-work. Above,
// audit wraps the whole default create and notify runs after the document is
// built but before it is saved.
package resource
