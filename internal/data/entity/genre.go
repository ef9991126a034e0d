package entity

type Genre struct {
	Base
	Name string `db:"name"`
	Slug string `db:"slug"`
}
