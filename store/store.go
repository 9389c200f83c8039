// Package store is the data-layer boundary used by document models. Store
// implementations hand back plain bson.M documents; a missing document is
// reported as a nil document and a nil error.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// FindOptions shape a multi-document read.
type FindOptions struct {
	Sort       bson.D
	Skip       int64
	Limit      int64
	Projection bson.D
}

// Store resolves collections by name.
type Store interface {
	Collection(name string) Collection
}

// Collection is the set of operations document models need.
type Collection interface {
	Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	FindOne(ctx context.Context, filter bson.M, projection bson.D) (bson.M, error)
	Insert(ctx context.Context, doc bson.M) error
	// FindOneAndUpdate applies update to the first match and returns the
	// updated document.
	FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M, projection bson.D) (bson.M, error)
	UpdateOne(ctx context.Context, filter bson.M, update bson.M) (int64, error)
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
}
