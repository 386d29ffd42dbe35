package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a query matches no document.
var ErrNotFound = errors.New("not found")

type DB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &DB{
		Client:   client,
		Database: client.Database(dbName),
	}, nil
}

func (db *DB) Books() *mongo.Collection {
	return db.Database.Collection("books")
}

func (db *DB) Users() *mongo.Collection {
	return db.Database.Collection("users")
}

func (db *DB) Comments() *mongo.Collection {
	return db.Database.Collection("comments")
}

func (db *DB) Livrarias() *mongo.Collection {
	return db.Database.Collection("livrarias")
}

func (db *DB) counters() *mongo.Collection {
	return db.Database.Collection("counters")
}

// EnsureIndexes creates the indexes the query layer depends on. The 2dsphere
// index is required by $near and $geoIntersects on livrarias.geometry.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.Livrarias().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "geometry", Value: "2dsphere"}},
	})
	if err != nil {
		return err
	}
	_, err = db.Comments().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "book_id", Value: 1}},
	})
	return err
}

func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.Client.Disconnect(ctx)
}
