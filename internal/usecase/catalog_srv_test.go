package usecase

import (
	"context"
	"testing"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/dto/request"
	"review-api/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryWritesAreAdminOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice", entity.RoleUser)
	moderator := f.user(t, "mod", entity.RoleModerator)

	req := &request.CreateCategoryRequest{Name: "Films", Slug: "films"}

	_, err := f.service.Category.Create(context.Background(), req)
	assertKind(t, err, apperror.KindUnauthorized, "")

	_, err = f.service.Category.Create(as(alice), req)
	assertKind(t, err, apperror.KindPermissionDenied, "")

	_, err = f.service.Category.Create(as(moderator), req)
	assertKind(t, err, apperror.KindPermissionDenied, "")
}

func TestCategoryCrud(t *testing.T) {
	f := newFixture(t)
	admin := as(f.user(t, "root", entity.RoleAdmin))

	created, err := f.service.Category.Create(admin, &request.CreateCategoryRequest{Name: "Films", Slug: "films"})
	require.NoError(t, err)
	assert.Equal(t, "films", created.Slug)

	_, err = f.service.Category.Create(admin, &request.CreateCategoryRequest{Name: "Movies", Slug: "films"})
	assertKind(t, err, apperror.KindValidation, "slug")

	_, err = f.service.Category.Create(admin, &request.CreateCategoryRequest{Name: "Bad", Slug: "bad slug!"})
	assertKind(t, err, apperror.KindValidation, "slug")

	renamed, err := f.service.Category.Update(admin, "films", &request.UpdateCategoryRequest{Slug: ptr("movies"), Name: ptr("Movies")})
	require.NoError(t, err)
	assert.Equal(t, "movies", renamed.Slug)

	got, err := f.service.Category.Get(context.Background(), "movies")
	require.NoError(t, err)
	assert.Equal(t, "Movies", got.Name)

	list, err := f.service.Category.List(context.Background(), &request.ListRequest{Search: ptr("mov")})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Pagination.Total)

	require.NoError(t, f.service.Category.Delete(admin, "movies"))
	_, err = f.service.Category.Get(context.Background(), "movies")
	assertKind(t, err, apperror.KindNotFound, "")
}

func TestReferencedSlugIsImmutable(t *testing.T) {
	f := newFixture(t)
	admin := as(f.user(t, "root", entity.RoleAdmin))

	_, err := f.service.Category.Create(admin, &request.CreateCategoryRequest{Name: "Films", Slug: "films"})
	require.NoError(t, err)
	_, err = f.service.Genre.Create(admin, &request.CreateGenreRequest{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)

	_, err = f.service.Title.Create(admin, &request.CreateTitleRequest{
		Name:     "Stalker",
		Year:     1979,
		Category: ptr("films"),
		Genre:    []string{"drama"},
	})
	require.NoError(t, err)

	_, err = f.service.Category.Update(admin, "films", &request.UpdateCategoryRequest{Slug: ptr("cinema")})
	assertKind(t, err, apperror.KindValidation, "slug")

	_, err = f.service.Genre.Update(admin, "drama", &request.UpdateGenreRequest{Slug: ptr("dramas")})
	assertKind(t, err, apperror.KindValidation, "slug")

	// Renaming without touching the slug is fine.
	_, err = f.service.Genre.Update(admin, "drama", &request.UpdateGenreRequest{Name: ptr("Drama film")})
	require.NoError(t, err)
}

func TestTitleValidation(t *testing.T) {
	f := newFixture(t)
	admin := as(f.user(t, "root", entity.RoleAdmin))

	_, err := f.service.Genre.Create(admin, &request.CreateGenreRequest{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		req   request.CreateTitleRequest
		field string
	}{
		{"future year", request.CreateTitleRequest{Name: "Later", Year: time.Now().Year() + 1}, "year"},
		{"missing name", request.CreateTitleRequest{Year: 2000}, "name"},
		{"unknown category", request.CreateTitleRequest{Name: "X", Year: 2000, Category: ptr("nope")}, "category"},
		{"unknown genre", request.CreateTitleRequest{Name: "X", Year: 2000, Genre: []string{"drama", "nope"}}, "genre"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Title.Create(admin, &tt.req)
			assertKind(t, err, apperror.KindValidation, tt.field)
		})
	}
}

func TestTitleCrudAndFilters(t *testing.T) {
	f := newFixture(t)
	admin := as(f.user(t, "root", entity.RoleAdmin))

	_, err := f.service.Category.Create(admin, &request.CreateCategoryRequest{Name: "Films", Slug: "films"})
	require.NoError(t, err)
	_, err = f.service.Genre.Create(admin, &request.CreateGenreRequest{Name: "Drama", Slug: "drama"})
	require.NoError(t, err)
	_, err = f.service.Genre.Create(admin, &request.CreateGenreRequest{Name: "Crime", Slug: "crime"})
	require.NoError(t, err)

	godfather, err := f.service.Title.Create(admin, &request.CreateTitleRequest{
		Name:     "The Godfather",
		Year:     1972,
		Category: ptr("films"),
		Genre:    []string{"drama", "crime"},
	})
	require.NoError(t, err)
	require.NotNil(t, godfather.Category)
	assert.Equal(t, "films", godfather.Category.Slug)
	assert.Len(t, godfather.Genre, 2)
	assert.Nil(t, godfather.Rating)

	_, err = f.service.Title.Create(admin, &request.CreateTitleRequest{Name: "Heat", Year: 1995, Genre: []string{"crime"}})
	require.NoError(t, err)

	list, err := f.service.Title.List(context.Background(), &request.TitleListRequest{Genre: ptr("drama")})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "The Godfather", list.Data[0].Name)

	list, err = f.service.Title.List(context.Background(), &request.TitleListRequest{Name: ptr("hea")})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Heat", list.Data[0].Name)

	updated, err := f.service.Title.Update(admin, godfather.ID, &request.UpdateTitleRequest{Genre: &[]string{"crime"}})
	require.NoError(t, err)
	require.Len(t, updated.Genre, 1)
	assert.Equal(t, "crime", updated.Genre[0].Slug)

	// Deleting the category leaves the title without one.
	require.NoError(t, f.service.Category.Delete(admin, "films"))
	got, err := f.service.Title.Get(context.Background(), godfather.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Category)

	require.NoError(t, f.service.Title.Delete(admin, godfather.ID))
	_, err = f.service.Title.Get(context.Background(), godfather.ID)
	assertKind(t, err, apperror.KindNotFound, "")
}
