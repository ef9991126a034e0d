package entity

import "github.com/google/uuid"

type Title struct {
	Base
	Name        string     `db:"name"`
	Year        int        `db:"year"`
	Description *string    `db:"description"`
	CategoryID  *uuid.UUID `db:"category_id"`
	Rating      *float64   `db:"rating"` // mean review score, nil without reviews
}

// TitleFilter narrows title listings. Nil fields are not applied.
type TitleFilter struct {
	CategorySlug *string
	GenreSlug    *string
	Name         *string
	Year         *int
}
