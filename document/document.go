package document

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/drblury/mongoweaver/jsonutil"
	"github.com/drblury/mongoweaver/query"
	"github.com/drblury/mongoweaver/schema"
)

// ErrNotFound is returned when a stored document disappeared before a write.
var ErrNotFound = errors.New("document: not found")

// Saver is implemented by values that can persist themselves.
type Saver interface {
	Save(ctx context.Context) error
}

// Remover is implemented by values that can delete themselves.
type Remover interface {
	Remove(ctx context.Context) error
}

// Document is a model instance. New documents are inserted on Save; loaded
// documents write only the paths changed through Set.
type Document struct {
	model    *Model
	data     bson.M
	isNew    bool
	castErr  error
	modified map[string]struct{}
}

var (
	_ Saver   = (*Document)(nil)
	_ Remover = (*Document)(nil)
)

// Model returns the model the document belongs to.
func (d *Document) Model() *Model { return d.model }

// ID returns the document identity.
func (d *Document) ID() any { return d.data[schema.IDPath] }

// IsNew reports whether the document has not been inserted yet.
func (d *Document) IsNew() bool { return d.isNew }

// Get reads a dotted path.
func (d *Document) Get(path string) (any, bool) {
	return schema.GetPath(d.data, path)
}

// Set casts v to the type of path and marks the path modified.
func (d *Document) Set(path string, v any) error {
	if path == schema.IDPath && !d.isNew {
		return fmt.Errorf("document: %s cannot be changed", schema.IDPath)
	}
	cast, err := d.model.schema.CastValue(path, v)
	if err != nil {
		return err
	}
	schema.SetPath(d.data, path, cast)
	d.modified[path] = struct{}{}
	return nil
}

// Modified lists the paths changed since the document was loaded or saved.
func (d *Document) Modified() []string {
	out := make([]string, 0, len(d.modified))
	for path := range d.modified {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Data returns the raw document, including hidden paths.
func (d *Document) Data() bson.M { return d.data }

// Public returns a copy of the document without hidden paths.
func (d *Document) Public() bson.M {
	out := schema.Clone(d.data).(bson.M)
	query.OmitDocument(out, d.model.schema.Hidden())
	return out
}

// MarshalJSON renders the public view of the document.
func (d *Document) MarshalJSON() ([]byte, error) {
	return jsonutil.Marshal(d.Public())
}

// Save validates and writes the document.
func (d *Document) Save(ctx context.Context) error {
	if d.castErr != nil {
		return d.castErr
	}
	s := d.model.schema

	if d.isNew {
		if err := s.Validate(d.data, false); err != nil {
			return err
		}
		if err := d.model.coll.Insert(ctx, d.data); err != nil {
			return err
		}
		d.isNew = false
		d.modified = map[string]struct{}{}
		return nil
	}

	if len(d.modified) == 0 {
		return nil
	}
	set := bson.M{}
	for path := range d.modified {
		v, _ := schema.GetPath(d.data, path)
		set[path] = v
	}
	if err := s.Validate(set, true); err != nil {
		return err
	}
	matched, err := d.model.coll.UpdateOne(ctx, bson.M{schema.IDPath: d.ID()}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if matched == 0 {
		return fmt.Errorf("%w: %s %v", ErrNotFound, s.Name(), d.ID())
	}
	d.modified = map[string]struct{}{}
	return nil
}

// Remove deletes the document.
func (d *Document) Remove(ctx context.Context) error {
	if d.isNew {
		return nil
	}
	_, err := d.model.coll.DeleteOne(ctx, bson.M{schema.IDPath: d.ID()})
	return err
}
