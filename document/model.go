// Package document binds schema models to a store and offers the ORM-level
// operations the resource handlers rely on: lean reads, counts, updates by id,
// reference population and Document values that know how to save and remove
// themselves.
package document

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/drblury/mongoweaver/query"
	"github.com/drblury/mongoweaver/schema"
	"github.com/drblury/mongoweaver/store"
)

// Database resolves models from a registry against a store.
type Database struct {
	registry *schema.Registry
	store    store.Store
}

// NewDatabase creates a Database.
func NewDatabase(reg *schema.Registry, st store.Store) *Database {
	return &Database{registry: reg, store: st}
}

// Registry returns the registry used to resolve refs.
func (db *Database) Registry() *schema.Registry { return db.registry }

// Model looks up a registered model by name.
func (db *Database) Model(name string) (*Model, error) {
	m, err := db.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	return db.Bind(m), nil
}

// Bind attaches a schema model to the database's store.
func (db *Database) Bind(m *schema.Model) *Model {
	return &Model{schema: m, db: db, coll: db.store.Collection(m.Collection())}
}

// Model runs queries for one schema model.
type Model struct {
	schema *schema.Model
	db     *Database
	coll   store.Collection
}

// UpdateOptions control FindByIDAndUpdate.
type UpdateOptions struct {
	// Overwrite replaces every visible field: fields missing from the body are
	// reset to their defaults or removed. Hidden fields are left untouched.
	Overwrite bool
	// RunValidators validates the update before it is written.
	RunValidators bool
	// Select is applied to the returned document.
	Select string
}

// Schema returns the underlying model definition.
func (m *Model) Schema() *schema.Model { return m.schema }

// Name returns the model name.
func (m *Model) Name() string { return m.schema.Name() }

// Database returns the database the model is bound to.
func (m *Model) Database() *Database { return m.db }

// Find returns plain documents matching filter, shaped by opts.
func (m *Model) Find(ctx context.Context, filter map[string]any, opts query.Options) ([]bson.M, error) {
	cast, err := m.schema.CastFilter(filter)
	if err != nil {
		return nil, err
	}
	return m.coll.Find(ctx, cast, store.FindOptions{
		Sort:       query.Sort(opts.Sort),
		Skip:       opts.Skip,
		Limit:      opts.Limit,
		Projection: query.Projection(opts.Select, m.schema.Hidden()),
	})
}

// Count returns the number of documents matching filter, ignoring paging.
func (m *Model) Count(ctx context.Context, filter map[string]any) (int64, error) {
	cast, err := m.schema.CastFilter(filter)
	if err != nil {
		return 0, err
	}
	return m.coll.Count(ctx, cast)
}

// FindByID returns the plain document with the given id, or nil.
func (m *Model) FindByID(ctx context.Context, id any, sel string) (bson.M, error) {
	filter, err := m.idFilter(id)
	if err != nil {
		return nil, err
	}
	return m.coll.FindOne(ctx, filter, query.Projection(sel, m.schema.Hidden()))
}

// Get loads the document with the given id, or returns nil when it does not
// exist.
func (m *Model) Get(ctx context.Context, id any, sel string) (*Document, error) {
	data, err := m.FindByID(ctx, id, sel)
	if err != nil || data == nil {
		return nil, err
	}
	return m.load(data), nil
}

// FindByIDAndUpdate casts body, optionally validates it, applies it to the
// document with the given id and returns the updated document, or nil when no
// document has that id.
func (m *Model) FindByIDAndUpdate(ctx context.Context, id any, body map[string]any, opts UpdateOptions) (*Document, error) {
	filter, err := m.idFilter(id)
	if err != nil {
		return nil, err
	}
	doc, err := m.schema.Cast(body)
	if err != nil {
		return nil, err
	}
	delete(doc, schema.IDPath)

	if opts.Overwrite {
		m.applyVisibleDefaults(doc)
	}
	if opts.RunValidators {
		if err := m.schema.Validate(doc, !opts.Overwrite); err != nil {
			return nil, err
		}
	}

	update := bson.M{}
	if set := m.schema.Flatten(doc); len(set) > 0 {
		update["$set"] = set
	}
	if opts.Overwrite {
		if unset := m.unsetMissing(doc); len(unset) > 0 {
			update["$unset"] = unset
		}
	}

	projection := query.Projection(opts.Select, m.schema.Hidden())
	var data bson.M
	if len(update) == 0 {
		data, err = m.coll.FindOne(ctx, filter, projection)
	} else {
		data, err = m.coll.FindOneAndUpdate(ctx, filter, update, projection)
	}
	if err != nil || data == nil {
		return nil, err
	}
	return m.load(data), nil
}

// applyVisibleDefaults fills absent visible paths with their defaults. Hidden
// paths are not reset by an overwrite.
func (m *Model) applyVisibleDefaults(doc bson.M) {
	defaults := bson.M{}
	m.schema.ApplyDefaults(defaults)
	for path, v := range m.schema.Flatten(defaults) {
		if path == schema.IDPath || m.schema.IsHidden(path) {
			continue
		}
		if _, ok := schema.GetPath(doc, path); ok {
			continue
		}
		schema.SetPath(doc, path, v)
	}
}

// unsetMissing lists the visible paths absent from doc. Paths nested below a
// path that is being set are skipped.
func (m *Model) unsetMissing(doc bson.M) bson.M {
	unset := bson.M{}
	for _, f := range m.schema.Fields() {
		if f.Path == schema.IDPath || m.schema.IsHidden(f.Path) {
			continue
		}
		if _, ok := schema.GetPath(doc, f.Path); ok {
			continue
		}
		if parentSet(doc, f.Path) {
			continue
		}
		unset[f.Path] = ""
	}
	return unset
}

func parentSet(doc bson.M, path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] != '.' {
			continue
		}
		if v, ok := schema.GetPath(doc, path[:i]); ok {
			if _, isMap := schema.AsMap(v); !isMap {
				return true
			}
		}
	}
	return false
}

// New builds an unsaved document from body. Unknown fields are dropped and
// defaults applied; cast failures are reported by Save.
func (m *Model) New(body map[string]any) *Document {
	data, err := m.schema.Cast(body)
	if err != nil {
		data = bson.M{}
		for _, f := range m.schema.Fields() {
			raw, ok := schema.GetPath(body, f.Path)
			if !ok {
				continue
			}
			if v, castErr := m.schema.CastValue(f.Path, raw); castErr == nil {
				schema.SetPath(data, f.Path, v)
			}
		}
	}
	m.schema.ApplyDefaults(data)
	return &Document{model: m, data: data, isNew: true, castErr: err, modified: map[string]struct{}{}}
}

func (m *Model) load(data bson.M) *Document {
	return &Document{model: m, data: data, modified: map[string]struct{}{}}
}

func (m *Model) idFilter(id any) (bson.M, error) {
	cast, err := m.schema.CastID(id)
	if err != nil {
		return nil, err
	}
	return bson.M{schema.IDPath: cast}, nil
}

func (m *Model) String() string {
	return fmt.Sprintf("document.Model(%s)", m.schema.Name())
}
