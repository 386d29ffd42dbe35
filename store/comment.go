package store

import (
	"context"

	"github.com/livrarias/backend/models"
	"go.mongodb.org/mongo-driver/bson"
)

// InsertComment allocates the next id and stores the comment.
func (db *DB) InsertComment(ctx context.Context, comment *models.Comment) error {
	id, err := db.nextIDs(ctx, "comments", 1)
	if err != nil {
		return err
	}
	comment.ID = id
	_, err = db.Comments().InsertOne(ctx, comment)
	return err
}

func (db *DB) DeleteComment(ctx context.Context, id int) error {
	res, err := db.Comments().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) CommentsForBook(ctx context.Context, bookID int) ([]models.Comment, error) {
	cur, err := db.Comments().Find(ctx, bson.M{"book_id": bookID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
