package store

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoCollection(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	id := primitive.NewObjectID()

	mt.Run("find normalizes nested documents", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.items", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: id}, {Key: "name", Value: "a"}, {Key: "meta", Value: bson.D{{Key: "tag", Value: "x"}}}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "b"}},
		))

		docs, err := NewMongoCollection(mt.Coll).Find(ctx, bson.M{"name": bson.M{"$in": bson.A{"a", "b"}}}, FindOptions{
			Sort:       bson.D{{Key: "name", Value: 1}},
			Limit:      2,
			Projection: bson.D{{Key: "secret", Value: 0}},
		})
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 2 || docs[0]["name"] != "a" || docs[0]["_id"] != id {
			mt.Fatalf("unexpected documents: %#v", docs)
		}
		meta, ok := docs[0]["meta"].(bson.M)
		if !ok || meta["tag"] != "x" {
			mt.Fatalf("expected nested bson.M, got %#v", docs[0]["meta"])
		}
	})

	mt.Run("find surfaces command errors", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query", Name: "BadValue"}))

		if _, err := NewMongoCollection(mt.Coll).Find(ctx, nil, FindOptions{}); err == nil {
			mt.Fatal("expected error")
		}
	})

	mt.Run("count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.items", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(7)}}))

		n, err := NewMongoCollection(mt.Coll).Count(ctx, bson.M{})
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if n != 7 {
			mt.Fatalf("expected 7, got %d", n)
		}
	})

	mt.Run("find one missing returns nil", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.items", mtest.FirstBatch))

		doc, err := NewMongoCollection(mt.Coll).FindOne(ctx, bson.M{"_id": id}, nil)
		if err != nil || doc != nil {
			mt.Fatalf("expected nil document and error, got %v %v", doc, err)
		}
	})

	mt.Run("find one", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.items", mtest.FirstBatch, bson.D{{Key: "_id", Value: id}}))

		doc, err := NewMongoCollection(mt.Coll).FindOne(ctx, bson.M{"_id": id}, bson.D{{Key: "name", Value: 1}})
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if doc["_id"] != id {
			mt.Fatalf("unexpected document %#v", doc)
		}
	})

	mt.Run("insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := NewMongoCollection(mt.Coll).Insert(ctx, bson.M{"_id": id, "name": "a"}); err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
	})

	mt.Run("find one and update", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{{Key: "_id", Value: id}, {Key: "name", Value: "renamed"}}},
		})

		doc, err := NewMongoCollection(mt.Coll).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"name": "renamed"}}, nil)
		if err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
		if doc["name"] != "renamed" {
			mt.Fatalf("unexpected document %#v", doc)
		}
	})

	mt.Run("find one and update missing", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		doc, err := NewMongoCollection(mt.Coll).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"name": "x"}}, nil)
		if err != nil || doc != nil {
			mt.Fatalf("expected nil document and error, got %v %v", doc, err)
		}
	})

	mt.Run("update one", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		n, err := NewMongoCollection(mt.Coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"name": "x"}})
		if err != nil || n != 1 {
			mt.Fatalf("expected one match, got %d %v", n, err)
		}
	})

	mt.Run("delete one", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		n, err := NewMongoCollection(mt.Coll).DeleteOne(ctx, bson.M{"_id": id})
		if err != nil || n != 1 {
			mt.Fatalf("expected one deletion, got %d %v", n, err)
		}
	})
}
