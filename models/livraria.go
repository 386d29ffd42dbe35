package models

// Geometry carries a GeoJSON Point or Polygon as stored. Coordinates stay
// untyped because the two shapes nest differently; MongoDB validates them
// against the 2dsphere index.
type Geometry struct {
	Type        string      `bson:"type" json:"type"`
	Coordinates interface{} `bson:"coordinates" json:"coordinates"`
}

// Livraria is a bookstore with a geo location and a deduplicated set of
// book ids curated onto it.
type Livraria struct {
	ID       int      `bson:"_id" json:"_id"`
	Name     string   `bson:"name" json:"name"`
	Geometry Geometry `bson:"geometry" json:"geometry"`
	Books    []int    `bson:"books,omitempty" json:"books,omitempty"`
}
