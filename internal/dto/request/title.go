package request

// CreateTitleRequest references its category and genres by slug.
type CreateTitleRequest struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Year        int      `json:"year" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,slug"`
	Genre       []string `json:"genre,omitempty" validate:"omitempty,dive,slug"`
}

type UpdateTitleRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
	Year        *int      `json:"year,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty" validate:"omitempty,slug"`
	Genre       *[]string `json:"genre,omitempty" validate:"omitempty,dive,slug"`
}

type TitleListRequest struct {
	PaginatedRequest
	Category *string
	Genre    *string
	Name     *string
	Year     *int
}
