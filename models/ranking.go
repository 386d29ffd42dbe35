package models

// Projections produced by the ranking aggregation pipelines. Each embeds the
// full book document plus the metric the pipeline grouped on.

type RatedBook struct {
	Book         `bson:",inline"`
	AverageScore float64 `bson:"averageScore" json:"averageScore"`
}

type FiveStarBook struct {
	Book            `bson:",inline"`
	FiveStarReviews int `bson:"fiveStarReviews" json:"fiveStarReviews"`
}

type CommentedBook struct {
	Book             `bson:",inline"`
	NumberOfComments int `bson:"numberOfComments" json:"numberOfComments"`
}

// ReviewVolume is the slim projection of the ratings/:order pipeline.
type ReviewVolume struct {
	ID              int    `bson:"_id" json:"_id"`
	Title           string `bson:"title" json:"title"`
	NumberOfReviews int    `bson:"numberOfReviews" json:"numberOfReviews"`
}

// JobReviews counts reviews written by users sharing a job title.
type JobReviews struct {
	Job             string `bson:"job" json:"job"`
	NumberOfReviews int    `bson:"numberOfReviews" json:"numberOfReviews"`
}

// BookWithRating is a book joined with the score one user gave it.
type BookWithRating struct {
	Book   `bson:",inline"`
	Rating float64 `json:"rating"`
}
