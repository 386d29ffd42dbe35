package store

import (
	"context"

	"github.com/livrarias/backend/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (db *DB) LivrariaByID(ctx context.Context, id int) (*models.Livraria, error) {
	var livraria models.Livraria
	err := db.Livrarias().FindOne(ctx, bson.M{"_id": id}).Decode(&livraria)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &livraria, nil
}

// AddBooksToLivraria adds book ids to a livraria's set. $addToSet keeps the
// operation idempotent: re-adding an id never duplicates it.
func (db *DB) AddBooksToLivraria(ctx context.Context, id int, bookIDs []int) error {
	res, err := db.Livrarias().UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"books": bson.M{"$each": bookIDs}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func geoPoint(lon, lat float64) bson.M {
	return bson.M{"type": "Point", "coordinates": []float64{lon, lat}}
}

// LivrariasNear returns livrarias within radius meters of the point, ordered
// by increasing distance by the 2dsphere index.
func (db *DB) LivrariasNear(ctx context.Context, lon, lat float64, radius int) ([]models.Livraria, error) {
	filter := bson.M{
		"geometry": bson.M{
			"$near": bson.M{
				"$geometry":    geoPoint(lon, lat),
				"$maxDistance": radius,
			},
		},
	}
	cur, err := db.Livrarias().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var livrarias []models.Livraria
	if err := cur.All(ctx, &livrarias); err != nil {
		return nil, err
	}
	return livrarias, nil
}

// LivrariasWithinPolygon returns point-type livrarias inside the closed
// polygon described by coords ([lon, lat] pairs).
func (db *DB) LivrariasWithinPolygon(ctx context.Context, coords [][]float64) ([]models.Livraria, error) {
	polygon := bson.M{
		"type":        "Polygon",
		"coordinates": [][][]float64{coords},
	}
	filter := bson.M{
		"geometry.type": "Point",
		"geometry": bson.M{
			"$geoWithin": bson.M{"$geometry": polygon},
		},
	}
	cur, err := db.Livrarias().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var livrarias []models.Livraria
	if err := cur.All(ctx, &livrarias); err != nil {
		return nil, err
	}
	return livrarias, nil
}

// FeiraContainsPoint reports whether the point falls inside the polygon of
// the livraria named "Feira do Livro".
func (db *DB) FeiraContainsPoint(ctx context.Context, lon, lat float64) (bool, error) {
	filter := bson.M{
		"name":          "Feira do Livro",
		"geometry.type": "Polygon",
		"geometry": bson.M{
			"$geoIntersects": bson.M{"$geometry": geoPoint(lon, lat)},
		},
	}
	err := db.Livrarias().FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
