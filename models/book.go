package models

import "time"

// Book ids are integers assigned by the API from the counter sequence,
// not ObjectIDs, to match the dataset the collections were seeded from.
type Book struct {
	ID               int        `bson:"_id" json:"_id"`
	Title            string     `bson:"title" json:"title"`
	Authors          []string   `bson:"authors,omitempty" json:"authors,omitempty"`
	ISBN             string     `bson:"isbn,omitempty" json:"isbn,omitempty"`
	PageCount        int        `bson:"pageCount,omitempty" json:"pageCount,omitempty"`
	Price            float64    `bson:"price,omitempty" json:"price,omitempty"`
	PublishedDate    *time.Time `bson:"publishedDate,omitempty" json:"publishedDate,omitempty"`
	ThumbnailURL     string     `bson:"thumbnailUrl,omitempty" json:"thumbnailUrl,omitempty"`
	ShortDescription string     `bson:"shortDescription,omitempty" json:"shortDescription,omitempty"`
	LongDescription  string     `bson:"longDescription,omitempty" json:"longDescription,omitempty"`
	Status           string     `bson:"status,omitempty" json:"status,omitempty"`
	Categories       []string   `bson:"categories,omitempty" json:"categories,omitempty"`
}
