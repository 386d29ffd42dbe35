package store

import (
	"context"
	"time"

	"github.com/livrarias/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// bookProjection maps a joined book document back to top-level fields after a
// $lookup, keeping the extra metric field supplied by the caller.
func bookProjection(from string, metric string) bson.D {
	return bson.D{
		{Key: "_id", Value: "$" + from + "._id"},
		{Key: "title", Value: "$" + from + ".title"},
		{Key: "isbn", Value: "$" + from + ".isbn"},
		{Key: "pageCount", Value: "$" + from + ".pageCount"},
		{Key: "price", Value: "$" + from + ".price"},
		{Key: "publishedDate", Value: "$" + from + ".publishedDate"},
		{Key: "thumbnailUrl", Value: "$" + from + ".thumbnailUrl"},
		{Key: "shortDescription", Value: "$" + from + ".shortDescription"},
		{Key: "longDescription", Value: "$" + from + ".longDescription"},
		{Key: "status", Value: "$" + from + ".status"},
		{Key: "authors", Value: "$" + from + ".authors"},
		{Key: "categories", Value: "$" + from + ".categories"},
		{Key: metric, Value: 1},
	}
}

func (db *DB) ListBooks(ctx context.Context, page, limit int) ([]models.Book, int64, error) {
	skip := int64((page - 1) * limit)
	cur, err := db.Books().Find(ctx, bson.M{},
		options.Find().SetSkip(skip).SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	total, err := db.Books().CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// InsertBooks assigns sequential ids to the batch and inserts it. The caller
// gets the books back with ids filled in.
func (db *DB) InsertBooks(ctx context.Context, books []models.Book) ([]models.Book, error) {
	first, err := db.nextIDs(ctx, "books", len(books))
	if err != nil {
		return nil, err
	}
	docs := make([]interface{}, len(books))
	for i := range books {
		books[i].ID = first + i
		docs[i] = books[i]
	}
	if _, err := db.Books().InsertMany(ctx, docs); err != nil {
		return nil, err
	}
	return books, nil
}

func (db *DB) BookByID(ctx context.Context, id int) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) DeleteBook(ctx context.Context, id int) error {
	res, err := db.Books().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBook merges the given fields into the document; fields absent from
// the map are left untouched.
func (db *DB) UpdateBook(ctx context.Context, id int, fields bson.M) error {
	delete(fields, "_id")
	res, err := db.Books().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) BooksByIDs(ctx context.Context, ids []int) ([]models.Book, error) {
	cur, err := db.Books().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// TopByAverageScore unwinds every user's reviews, averages scores per book,
// joins book metadata and returns the best `limit` books. No skip: this
// ranking is a hard-truncated leaderboard, not a paginated list.
func (db *DB) TopByAverageScore(ctx context.Context, limit int) ([]models.RatedBook, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$reviews"}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$reviews.book_id"},
			{Key: "averageScore", Value: bson.D{{Key: "$avg", Value: "$reviews.score"}}},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "books"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "bookInfo"},
		}}},
		bson.D{{Key: "$unwind", Value: "$bookInfo"}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "averageScore", Value: -1}}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$project", Value: bookProjection("bookInfo", "averageScore")}},
	}
	cur, err := db.Users().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.RatedBook
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// FiveStarBooks ranks books by how many score-5 reviews they received. Books
// without a five-star review never appear.
func (db *DB) FiveStarBooks(ctx context.Context, page, limit int) ([]models.FiveStarBook, int64, error) {
	groupFiveStars := mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$reviews"}},
		bson.D{{Key: "$match", Value: bson.D{{Key: "reviews.score", Value: 5}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$reviews.book_id"},
			{Key: "fiveStarReviews", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	pipeline := append(mongo.Pipeline{}, groupFiveStars...)
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "books"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "bookInfo"},
		}}},
		bson.D{{Key: "$unwind", Value: "$bookInfo"}},
		bson.D{{Key: "$project", Value: bookProjection("bookInfo", "fiveStarReviews")}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "fiveStarReviews", Value: -1}}}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	)
	cur, err := db.Users().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var books []models.FiveStarBook
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	total, err := db.aggregateCount(ctx, db.Users(), groupFiveStars)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// BooksWithComments ranks commented books by their comment count.
func (db *DB) BooksWithComments(ctx context.Context, page, limit int) ([]models.CommentedBook, int64, error) {
	groupByBook := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$book_id"},
			{Key: "numberOfComments", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	pipeline := append(mongo.Pipeline{}, groupByBook...)
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "numberOfComments", Value: -1}}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "books"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "bookDetails"},
		}}},
		bson.D{{Key: "$unwind", Value: "$bookDetails"}},
		bson.D{{Key: "$project", Value: bookProjection("bookDetails", "numberOfComments")}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	)
	cur, err := db.Comments().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var books []models.CommentedBook
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	total, err := db.aggregateCount(ctx, db.Comments(), groupByBook)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// ReviewsByJob counts reviews per reviewer job title.
func (db *DB) ReviewsByJob(ctx context.Context, page, limit int) ([]models.JobReviews, int64, error) {
	groupByJob := mongo.Pipeline{
		bson.D{{Key: "$unwind", Value: "$reviews"}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$job"},
			{Key: "numberOfReviews", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	pipeline := append(mongo.Pipeline{}, groupByJob...)
	pipeline = append(pipeline,
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "job", Value: "$_id"},
			{Key: "numberOfReviews", Value: 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "numberOfReviews", Value: -1}}}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	)
	cur, err := db.Users().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var jobs []models.JobReviews
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, 0, err
	}
	total, err := db.aggregateCount(ctx, db.Users(), groupByJob)
	if err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// BooksByReviewVolume left-joins comments onto every book and sorts by the
// joined array size. order must be 1 (asc) or -1 (desc).
func (db *DB) BooksByReviewVolume(ctx context.Context, order, page, limit int) ([]models.ReviewVolume, int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "comments"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "book_id"},
			{Key: "as", Value: "reviews"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "numberOfReviews", Value: bson.D{{Key: "$size", Value: "$reviews"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "title", Value: 1},
			{Key: "numberOfReviews", Value: 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "numberOfReviews", Value: order}}}},
		bson.D{{Key: "$skip", Value: (page - 1) * limit}},
		bson.D{{Key: "$limit", Value: limit}},
	}
	cur, err := db.Books().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var books []models.ReviewVolume
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	// Every book appears in this ranking, so the plain collection count is
	// the pipeline total.
	total, err := db.Books().CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// YearRange returns the [start, end) UTC interval covering a calendar year.
func YearRange(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

func (db *DB) BooksByYear(ctx context.Context, year, page, limit int) ([]models.Book, int64, error) {
	start, end := YearRange(year)
	filter := bson.M{"publishedDate": bson.M{"$gte": start, "$lt": end}}
	total, err := db.Books().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	skip := int64((page - 1) * limit)
	cur, err := db.Books().Find(ctx, filter,
		options.Find().SetSkip(skip).SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// BookFilter narrows the book listing; zero values mean "no constraint".
// PriceOrder is 1, -1 or 0 (no price sort).
type BookFilter struct {
	Category   string
	Author     string
	PriceOrder int
}

func (f BookFilter) query() bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["categories"] = bson.M{"$in": []string{f.Category}}
	}
	if f.Author != "" {
		filter["authors"] = bson.M{"$in": []string{f.Author}}
	}
	return filter
}

func (db *DB) FilterBooks(ctx context.Context, f BookFilter, page, limit int) ([]models.Book, int64, error) {
	filter := f.query()
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	if f.PriceOrder != 0 {
		opts.SetSort(bson.D{{Key: "price", Value: f.PriceOrder}})
	}
	cur, err := db.Books().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, 0, err
	}
	total, err := db.Books().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// aggregateCount runs the grouping stages followed by $count and returns the
// number of groups, used for pagination totals alongside a paged pipeline.
func (db *DB) aggregateCount(ctx context.Context, coll *mongo.Collection, stages mongo.Pipeline) (int64, error) {
	pipeline := append(mongo.Pipeline{}, stages...)
	pipeline = append(pipeline, bson.D{{Key: "$count", Value: "total"}})
	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var res []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &res); err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0].Total, nil
}
