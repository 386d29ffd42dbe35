package models

import "time"

type Comment struct {
	ID      int       `bson:"_id" json:"_id"`
	BookID  int       `bson:"book_id" json:"book_id"`
	UserID  int       `bson:"user_id" json:"user_id"`
	Comment string    `bson:"comment" json:"comment"`
	Date    time.Time `bson:"date" json:"date"`
}

// CommentWithAuthor is a comment enriched with its author's public fields,
// joined in memory by the book detail endpoint.
type CommentWithAuthor struct {
	Comment         Comment `json:"comment"`
	UserFirstName   string  `json:"userFirstName"`
	UserLastName    string  `json:"userLastName"`
	UserJob         string  `json:"userJob"`
	UserYearOfBirth int     `json:"userYearOfBirth"`
}
