package entity

import "github.com/google/uuid"

type Review struct {
	Base
	TitleID  uuid.UUID `db:"title_id"`
	AuthorID uuid.UUID `db:"author_id"`
	Text     string    `db:"text"`
	Score    int       `db:"score"` // 1-10
}

const (
	MinScore = 1
	MaxScore = 10
)

// ValidScore reports whether score lies in [MinScore, MaxScore].
func ValidScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}

// RatingStats is the aggregate of a title's review scores.
type RatingStats struct {
	Average *float64
	Count   int64
}
