package models

// Review is embedded in a user document; it has no identity of its own.
// book_id may reference a book that no longer exists.
type Review struct {
	BookID int     `bson:"book_id" json:"book_id"`
	Score  float64 `bson:"score" json:"score"`
}

type User struct {
	ID          int      `bson:"_id" json:"_id"`
	FirstName   string   `bson:"first_name" json:"first_name"`
	LastName    string   `bson:"last_name" json:"last_name"`
	Job         string   `bson:"job,omitempty" json:"job,omitempty"`
	YearOfBirth int      `bson:"year_of_birth,omitempty" json:"year_of_birth,omitempty"`
	Reviews     []Review `bson:"reviews,omitempty" json:"reviews,omitempty"`
}

// UserSummary is the shape returned by the user detail endpoint.
type UserSummary struct {
	ID        int    `json:"_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
