package response

import "review-api/internal/data/entity"

type TitleResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating"`
	Description *string           `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

func TitleToResponse(title *entity.Title, category *entity.Category, genres []*entity.Genre) TitleResponse {
	resp := TitleResponse{
		ID:          title.ID.String(),
		Name:        title.Name,
		Year:        title.Year,
		Rating:      title.Rating,
		Description: title.Description,
		Genre:       make([]GenreResponse, 0, len(genres)),
	}

	if category != nil {
		c := CategoryToResponse(category)
		resp.Category = &c
	}
	for _, g := range genres {
		resp.Genre = append(resp.Genre, GenreToResponse(g))
	}

	return resp
}
