package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo serves collections from a MongoDB database.
type Mongo struct {
	db *mongo.Database
}

// NewMongo wraps a connected database handle.
func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db}
}

// Collection implements Store.
func (m *Mongo) Collection(name string) Collection {
	return &MongoCollection{coll: m.db.Collection(name)}
}

// MongoCollection implements Collection with the official driver.
type MongoCollection struct {
	coll *mongo.Collection
}

// NewMongoCollection wraps a single driver collection.
func NewMongoCollection(coll *mongo.Collection) *MongoCollection {
	return &MongoCollection{coll: coll}
}

func (c *MongoCollection) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	findOpts := options.Find()
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if len(opts.Projection) > 0 {
		findOpts.SetProjection(opts.Projection)
	}

	cur, err := c.coll.Find(ctx, orEmpty(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("store: find in %s: %w", c.coll.Name(), err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", c.coll.Name(), err)
	}
	out := make([]bson.M, len(docs))
	for i, doc := range docs {
		out[i] = normalizeDoc(doc)
	}
	return out, nil
}

func (c *MongoCollection) Count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("store: count in %s: %w", c.coll.Name(), err)
	}
	return n, nil
}

func (c *MongoCollection) FindOne(ctx context.Context, filter bson.M, projection bson.D) (bson.M, error) {
	opts := options.FindOne()
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	var doc bson.M
	err := c.coll.FindOne(ctx, orEmpty(filter), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: find one in %s: %w", c.coll.Name(), err)
	}
	return normalizeDoc(doc), nil
}

func (c *MongoCollection) Insert(ctx context.Context, doc bson.M) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("store: insert into %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *MongoCollection) FindOneAndUpdate(ctx context.Context, filter bson.M, update bson.M, projection bson.D) (bson.M, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	var doc bson.M
	err := c.coll.FindOneAndUpdate(ctx, orEmpty(filter), update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: update in %s: %w", c.coll.Name(), err)
	}
	return normalizeDoc(doc), nil
}

func (c *MongoCollection) UpdateOne(ctx context.Context, filter bson.M, update bson.M) (int64, error) {
	res, err := c.coll.UpdateOne(ctx, orEmpty(filter), update)
	if err != nil {
		return 0, fmt.Errorf("store: update in %s: %w", c.coll.Name(), err)
	}
	return res.MatchedCount, nil
}

func (c *MongoCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, orEmpty(filter))
	if err != nil {
		return 0, fmt.Errorf("store: delete from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

func orEmpty(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

// normalizeDoc rewrites nested primitive.D values the driver may decode into
// bson.M so callers only ever see one document shape.
func normalizeDoc(doc bson.M) bson.M {
	for key, v := range doc {
		doc[key] = normalize(v)
	}
	return doc
}

func normalize(v any) any {
	switch t := v.(type) {
	case primitive.D:
		m := make(bson.M, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case primitive.M:
		return normalizeDoc(t)
	case primitive.A:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	}
	return v
}
