package store

import (
	"context"

	"github.com/livrarias/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (db *DB) ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	skip := int64((page - 1) * limit)
	cur, err := db.Users().Find(ctx, bson.M{},
		options.Find().SetSkip(skip).SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	total, err := db.Users().CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (db *DB) InsertUsers(ctx context.Context, users []models.User) ([]models.User, error) {
	first, err := db.nextIDs(ctx, "users", len(users))
	if err != nil {
		return nil, err
	}
	docs := make([]interface{}, len(users))
	for i := range users {
		users[i].ID = first + i
		docs[i] = users[i]
	}
	if _, err := db.Users().InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return users, nil
}

func (db *DB) UserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := db.Users().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *DB) DeleteUser(ctx context.Context, id int) error {
	res, err := db.Users().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateUser(ctx context.Context, id int, fields bson.M) error {
	delete(fields, "_id")
	res, err := db.Users().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UsersReviewedBook returns every user whose embedded review list mentions
// the book, used to compute its average score.
func (db *DB) UsersReviewedBook(ctx context.Context, bookID int) ([]models.User, error) {
	cur, err := db.Users().Find(ctx, bson.M{"reviews.book_id": bookID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UsersByIDs fetches the authors of a comment set in one query.
func (db *DB) UsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	cur, err := db.Users().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
