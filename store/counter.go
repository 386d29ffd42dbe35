package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Integer _id values are allocated from per-collection counter documents with
// an atomic $inc, so concurrent batch inserts can never hand out the same id.

var counterNames = []string{"books", "users", "comments"}

// SyncCounters raises each counter to at least the current max _id of its
// collection. Called once at startup; $max keeps it safe against a counter
// that is already ahead.
func (db *DB) SyncCounters(ctx context.Context) error {
	for _, name := range counterNames {
		var last struct {
			ID int `bson:"_id"`
		}
		err := db.Database.Collection(name).
			FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.M{"_id": -1})).
			Decode(&last)
		if err != nil && err != mongo.ErrNoDocuments {
			return err
		}
		_, err = db.counters().UpdateOne(ctx,
			bson.M{"_id": name},
			bson.M{"$max": bson.M{"seq": last.ID}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// nextIDs reserves n sequential ids for the named collection and returns the
// first of the range.
func (db *DB) nextIDs(ctx context.Context, name string, n int) (int, error) {
	var counter struct {
		Seq int `bson:"seq"`
	}
	err := db.counters().FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": n}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq - n + 1, nil
}
