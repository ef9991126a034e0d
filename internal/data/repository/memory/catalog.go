package memory

import (
	"context"
	"sort"

	"review-api/internal/data/entity"
	"review-api/pkg/apperror"

	"github.com/google/uuid"
)

func slugTaken(kind string) error {
	return apperror.Conflict(kind+" slug already exists",
		map[string]string{"slug": "A " + kind + " with this slug already exists"})
}

type categoryRepository struct {
	s *store
}

func (r *categoryRepository) slugUsed(category *entity.Category) bool {
	for id, other := range r.s.categories {
		if id != category.ID && other.Slug == category.Slug {
			return true
		}
	}
	return false
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	r.s.Lock()
	defer r.s.Unlock()

	if r.slugUsed(category) {
		return slugTaken("category")
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r *categoryRepository) find(match func(entity.Category) bool) *entity.Category {
	r.s.RLock()
	defer r.s.RUnlock()

	for _, category := range r.s.categories {
		if match(category) {
			found := category
			return &found
		}
	}
	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	return r.find(func(c entity.Category) bool { return c.ID == id }), nil
}

func (r *categoryRepository) FindBySlug(ctx context.Context, slug string) (*entity.Category, error) {
	return r.find(func(c entity.Category) bool { return c.Slug == slug }), nil
}

func (r *categoryRepository) matching(search *string) []*entity.Category {
	r.s.RLock()
	defer r.s.RUnlock()

	var categories []*entity.Category
	for _, category := range r.s.categories {
		if contains(category.Name, search) {
			found := category
			categories = append(categories, &found)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories
}

func (r *categoryRepository) FindAll(ctx context.Context, search *string, limit, offset int) ([]*entity.Category, error) {
	return page(r.matching(search), limit, offset), nil
}

func (r *categoryRepository) CountAll(ctx context.Context, search *string) (int64, error) {
	return int64(len(r.matching(search))), nil
}

func (r *categoryRepository) Update(ctx context.Context, category *entity.Category) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.categories[category.ID]; !ok {
		return apperror.NotFound("category %s not found", category.Slug)
	}
	if r.slugUsed(category) {
		return slugTaken("category")
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return apperror.NotFound("category %s not found", id.String())
	}
	delete(r.s.categories, id)

	for titleID, title := range r.s.titles {
		if title.CategoryID != nil && *title.CategoryID == id {
			title.CategoryID = nil
			r.s.titles[titleID] = title
		}
	}
	return nil
}

func (r *categoryRepository) CountTitles(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	var count int64
	for _, title := range r.s.titles {
		if title.CategoryID != nil && *title.CategoryID == id {
			count++
		}
	}
	return count, nil
}

type genreRepository struct {
	s *store
}

func (r *genreRepository) slugUsed(genre *entity.Genre) bool {
	for id, other := range r.s.genres {
		if id != genre.ID && other.Slug == genre.Slug {
			return true
		}
	}
	return false
}

func (r *genreRepository) Create(ctx context.Context, genre *entity.Genre) error {
	r.s.Lock()
	defer r.s.Unlock()

	if r.slugUsed(genre) {
		return slugTaken("genre")
	}
	r.s.genres[genre.ID] = *genre
	return nil
}

func (r *genreRepository) filter(match func(entity.Genre) bool) []*entity.Genre {
	r.s.RLock()
	defer r.s.RUnlock()

	var genres []*entity.Genre
	for _, genre := range r.s.genres {
		if match(genre) {
			found := genre
			genres = append(genres, &found)
		}
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].Name < genres[j].Name })
	return genres
}

func first(genres []*entity.Genre) *entity.Genre {
	if len(genres) == 0 {
		return nil
	}
	return genres[0]
}

func (r *genreRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Genre, error) {
	return first(r.filter(func(g entity.Genre) bool { return g.ID == id })), nil
}

func (r *genreRepository) FindBySlug(ctx context.Context, slug string) (*entity.Genre, error) {
	return first(r.filter(func(g entity.Genre) bool { return g.Slug == slug })), nil
}

func (r *genreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]*entity.Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	wanted := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		wanted[slug] = true
	}
	return r.filter(func(g entity.Genre) bool { return wanted[g.Slug] }), nil
}

func (r *genreRepository) FindByTitleID(ctx context.Context, titleID uuid.UUID) ([]*entity.Genre, error) {
	r.s.RLock()
	linked := map[uuid.UUID]bool{}
	for _, link := range r.s.titleGenres {
		if link.TitleID == titleID {
			linked[link.GenreID] = true
		}
	}
	r.s.RUnlock()

	return r.filter(func(g entity.Genre) bool { return linked[g.ID] }), nil
}

func (r *genreRepository) FindAll(ctx context.Context, search *string, limit, offset int) ([]*entity.Genre, error) {
	return page(r.filter(func(g entity.Genre) bool { return contains(g.Name, search) }), limit, offset), nil
}

func (r *genreRepository) CountAll(ctx context.Context, search *string) (int64, error) {
	return int64(len(r.filter(func(g entity.Genre) bool { return contains(g.Name, search) }))), nil
}

func (r *genreRepository) Update(ctx context.Context, genre *entity.Genre) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.genres[genre.ID]; !ok {
		return apperror.NotFound("genre %s not found", genre.Slug)
	}
	if r.slugUsed(genre) {
		return slugTaken("genre")
	}
	r.s.genres[genre.ID] = *genre
	return nil
}

func (r *genreRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.genres[id]; !ok {
		return apperror.NotFound("genre %s not found", id.String())
	}
	delete(r.s.genres, id)

	for linkID, link := range r.s.titleGenres {
		if link.GenreID == id {
			delete(r.s.titleGenres, linkID)
		}
	}
	return nil
}

func (r *genreRepository) CountTitles(ctx context.Context, id uuid.UUID) (int64, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	var count int64
	for _, link := range r.s.titleGenres {
		if link.GenreID == id {
			count++
		}
	}
	return count, nil
}

type titleRepository struct {
	s *store
}

func (r *titleRepository) Create(ctx context.Context, title *entity.Title) error {
	r.s.Lock()
	defer r.s.Unlock()

	if title.CategoryID != nil {
		if _, ok := r.s.categories[*title.CategoryID]; !ok {
			return apperror.Field("category", "Category does not exist")
		}
	}
	r.s.titles[title.ID] = *title
	return nil
}

func (r *titleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Title, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	title, ok := r.s.titles[id]
	if !ok {
		return nil, nil
	}
	return &title, nil
}

// LockForUpdate is a plain read; the transactor already serializes writers.
func (r *titleRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Title, error) {
	return r.FindByID(ctx, id)
}

func (r *titleRepository) matches(title entity.Title, filter entity.TitleFilter) bool {
	if filter.CategorySlug != nil {
		if title.CategoryID == nil {
			return false
		}
		category, ok := r.s.categories[*title.CategoryID]
		if !ok || category.Slug != *filter.CategorySlug {
			return false
		}
	}
	if filter.GenreSlug != nil {
		tagged := false
		for _, link := range r.s.titleGenres {
			if link.TitleID == title.ID && r.s.genres[link.GenreID].Slug == *filter.GenreSlug {
				tagged = true
				break
			}
		}
		if !tagged {
			return false
		}
	}
	if !contains(title.Name, filter.Name) {
		return false
	}
	if filter.Year != nil && title.Year != *filter.Year {
		return false
	}
	return true
}

func (r *titleRepository) matching(filter entity.TitleFilter) []*entity.Title {
	r.s.RLock()
	defer r.s.RUnlock()

	var titles []*entity.Title
	for _, title := range r.s.titles {
		if r.matches(title, filter) {
			found := title
			titles = append(titles, &found)
		}
	}
	sort.Slice(titles, func(i, j int) bool {
		if titles[i].Year != titles[j].Year {
			return titles[i].Year > titles[j].Year
		}
		return titles[i].Name < titles[j].Name
	})
	return titles
}

func (r *titleRepository) FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error) {
	return page(r.matching(filter), limit, offset), nil
}

func (r *titleRepository) CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *titleRepository) Update(ctx context.Context, title *entity.Title) error {
	r.s.Lock()
	defer r.s.Unlock()

	current, ok := r.s.titles[title.ID]
	if !ok {
		return apperror.NotFound("title %s not found", title.ID.String())
	}
	if title.CategoryID != nil {
		if _, ok := r.s.categories[*title.CategoryID]; !ok {
			return apperror.Field("category", "Category does not exist")
		}
	}

	updated := *title
	updated.Rating = current.Rating
	r.s.titles[title.ID] = updated
	return nil
}

func (r *titleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.titles[id]; !ok {
		return apperror.NotFound("title %s not found", id.String())
	}
	delete(r.s.titles, id)

	for linkID, link := range r.s.titleGenres {
		if link.TitleID == id {
			delete(r.s.titleGenres, linkID)
		}
	}
	for reviewID, review := range r.s.reviews {
		if review.TitleID == id {
			r.s.deleteReview(reviewID)
		}
	}
	return nil
}

func (r *titleRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating *float64) error {
	r.s.Lock()
	defer r.s.Unlock()

	title, ok := r.s.titles[id]
	if !ok {
		return nil
	}
	title.Rating = rating
	r.s.titles[id] = title
	return nil
}

type titleGenreRepository struct {
	s *store
}

func (r *titleGenreRepository) CreateBatch(ctx context.Context, links []*entity.TitleGenre) error {
	r.s.Lock()
	defer r.s.Unlock()

	for _, link := range links {
		duplicate := false
		for _, existing := range r.s.titleGenres {
			if existing.TitleID == link.TitleID && existing.GenreID == link.GenreID {
				duplicate = true
				break
			}
		}
		if !duplicate {
			r.s.titleGenres[link.ID] = *link
		}
	}
	return nil
}

func (r *titleGenreRepository) DeleteByTitleID(ctx context.Context, titleID uuid.UUID) error {
	r.s.Lock()
	defer r.s.Unlock()

	for id, link := range r.s.titleGenres {
		if link.TitleID == titleID {
			delete(r.s.titleGenres, id)
		}
	}
	return nil
}
