package document

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/drblury/mongoweaver/query"
	"github.com/drblury/mongoweaver/schema"
	"github.com/drblury/mongoweaver/store"
)

// Populate replaces the reference ids in docs with the referenced documents.
// docs may be a single document or a list of them. Each hop issues one $in
// query; single refs that do not resolve become nil and unresolved entries of
// ref lists are dropped.
func (m *Model) Populate(ctx context.Context, docs any, pops []query.Populate) error {
	targets := collectDocs(docs)
	if len(targets) == 0 {
		return nil
	}
	for _, pop := range pops {
		if err := m.populateOne(ctx, targets, pop); err != nil {
			return fmt.Errorf("populate %s.%s: %w", m.Name(), pop.Path, err)
		}
	}
	return nil
}

func (m *Model) populateOne(ctx context.Context, targets []map[string]any, pop query.Populate) error {
	if pop.Model == nil {
		return nil
	}

	var ids primitive.A
	seen := map[string]struct{}{}
	for _, doc := range targets {
		v, ok := schema.GetPath(doc, pop.Path)
		if !ok || v == nil {
			continue
		}
		for _, id := range refIDs(v) {
			key := idKey(id)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	ref := m.db.Bind(pop.Model)
	hidden := pop.Model.Hidden()
	found, err := ref.coll.Find(ctx, bson.M{schema.IDPath: bson.M{"$in": ids}}, store.FindOptions{
		Projection: keepID(query.Projection(pop.Select, hidden)),
	})
	if err != nil {
		return err
	}
	if len(pop.Populate) > 0 {
		if err := ref.Populate(ctx, found, pop.Populate); err != nil {
			return err
		}
	}
	query.OmitDocument(found, hidden)

	byID := make(map[string]bson.M, len(found))
	for _, doc := range found {
		byID[idKey(doc[schema.IDPath])] = doc
	}

	for _, doc := range targets {
		v, ok := schema.GetPath(doc, pop.Path)
		if !ok || v == nil {
			continue
		}
		if items, isList := schema.AsSlice(v); isList {
			resolved := make(primitive.A, 0, len(items))
			for _, id := range items {
				if hit, ok := byID[idKey(id)]; ok {
					resolved = append(resolved, hit)
				}
			}
			schema.SetPath(doc, pop.Path, resolved)
			continue
		}
		if hit, ok := byID[idKey(v)]; ok {
			schema.SetPath(doc, pop.Path, hit)
		} else {
			schema.SetPath(doc, pop.Path, nil)
		}
	}
	return nil
}

// keepID drops an _id exclusion; ids are needed to match populated documents.
func keepID(proj bson.D) bson.D {
	out := proj[:0:0]
	for _, e := range proj {
		if e.Key == schema.IDPath {
			continue
		}
		out = append(out, e)
	}
	return out
}

func collectDocs(docs any) []map[string]any {
	if doc, ok := schema.AsMap(docs); ok {
		return []map[string]any{doc}
	}
	items, ok := schema.AsSlice(docs)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if doc, ok := schema.AsMap(item); ok {
			out = append(out, doc)
		}
	}
	return out
}

func refIDs(v any) []any {
	if items, ok := schema.AsSlice(v); ok {
		return items
	}
	return []any{v}
}

func idKey(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprintf("%T:%v", id, id)
}
