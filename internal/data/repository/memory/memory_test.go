package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/data/repository"
	"review-api/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTitle(t *testing.T, repo *repository.Repository, name string, year int, category *entity.Category, genres ...*entity.Genre) *entity.Title {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	title := &entity.Title{Base: entity.NewBase(now), Name: name, Year: year}
	if category != nil {
		title.CategoryID = &category.ID
	}
	require.NoError(t, repo.Title.Create(ctx, title))

	var links []*entity.TitleGenre
	for _, g := range genres {
		links = append(links, &entity.TitleGenre{BaseSimple: entity.NewBaseSimple(now), TitleID: title.ID, GenreID: g.ID})
	}
	require.NoError(t, repo.TitleGenre.CreateBatch(ctx, links))
	return title
}

func TestTitleFilters(t *testing.T) {
	ctx := context.Background()
	repo := New()
	now := time.Now()

	films := &entity.Category{Base: entity.NewBase(now), Name: "Films", Slug: "films"}
	books := &entity.Category{Base: entity.NewBase(now), Name: "Books", Slug: "books"}
	drama := &entity.Genre{Base: entity.NewBase(now), Name: "Drama", Slug: "drama"}
	require.NoError(t, repo.Category.Create(ctx, films))
	require.NoError(t, repo.Category.Create(ctx, books))
	require.NoError(t, repo.Genre.Create(ctx, drama))

	seedTitle(t, repo, "The Godfather", 1972, films, drama)
	seedTitle(t, repo, "Godzilla", 1954, films)
	seedTitle(t, repo, "War and Peace", 1869, books, drama)

	category := "films"
	genre := "drama"
	name := "GOD"
	year := 1954

	tests := []struct {
		name   string
		filter entity.TitleFilter
		want   []string
	}{
		{"no filter", entity.TitleFilter{}, []string{"The Godfather", "Godzilla", "War and Peace"}},
		{"category", entity.TitleFilter{CategorySlug: &category}, []string{"The Godfather", "Godzilla"}},
		{"genre", entity.TitleFilter{GenreSlug: &genre}, []string{"The Godfather", "War and Peace"}},
		{"name contains", entity.TitleFilter{Name: &name}, []string{"The Godfather", "Godzilla"}},
		{"year", entity.TitleFilter{Year: &year}, []string{"Godzilla"}},
		{"category and genre", entity.TitleFilter{CategorySlug: &category, GenreSlug: &genre}, []string{"The Godfather"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			titles, err := repo.Title.FindAll(ctx, tt.filter, 10, 0)
			require.NoError(t, err)

			var got []string
			for _, title := range titles {
				got = append(got, title.Name)
			}
			assert.Equal(t, tt.want, got)

			total, err := repo.Title.CountAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.EqualValues(t, len(tt.want), total)
		})
	}
}

func TestCascades(t *testing.T) {
	ctx := context.Background()
	repo := New()
	now := time.Now()

	films := &entity.Category{Base: entity.NewBase(now), Name: "Films", Slug: "films"}
	require.NoError(t, repo.Category.Create(ctx, films))
	title := seedTitle(t, repo, "Alien", 1979, films)

	author := &entity.User{Base: entity.NewBase(now), Username: "ripley", Email: "ripley@x.com", Role: entity.RoleUser}
	require.NoError(t, repo.User.Create(ctx, author))

	review := &entity.Review{Base: entity.NewBase(now), TitleID: title.ID, AuthorID: author.ID, Text: "tense", Score: 9}
	require.NoError(t, repo.Review.Create(ctx, review))
	comment := &entity.Comment{Base: entity.NewBase(now), ReviewID: review.ID, AuthorID: author.ID, Text: "agreed"}
	require.NoError(t, repo.Comment.Create(ctx, comment))

	require.NoError(t, repo.Category.Delete(ctx, films.ID))
	got, err := repo.Title.FindByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.CategoryID)

	require.NoError(t, repo.User.Delete(ctx, author.ID))
	gone, err := repo.Review.FindByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	goneComment, err := repo.Comment.FindByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Nil(t, goneComment)
}

func TestUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repo := New()
	now := time.Now()

	alice := &entity.User{Base: entity.NewBase(now), Username: "alice", Email: "a@x.com"}
	require.NoError(t, repo.User.Create(ctx, alice))

	err := repo.User.Create(ctx, &entity.User{Base: entity.NewBase(now), Username: "alice", Email: "b@x.com"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	drama := &entity.Genre{Base: entity.NewBase(now), Name: "Drama", Slug: "drama"}
	require.NoError(t, repo.Genre.Create(ctx, drama))
	err = repo.Genre.Create(ctx, &entity.Genre{Base: entity.NewBase(now), Name: "Drama 2", Slug: "drama"})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	title := seedTitle(t, repo, "Heat", 1995, nil)
	review := &entity.Review{Base: entity.NewBase(now), TitleID: title.ID, AuthorID: alice.ID, Text: "ok", Score: 7}
	require.NoError(t, repo.Review.Create(ctx, review))
	err = repo.Review.Create(ctx, &entity.Review{Base: entity.NewBase(now), TitleID: title.ID, AuthorID: alice.ID, Text: "again", Score: 3})
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestInTxNests(t *testing.T) {
	ctx := context.Background()
	repo := New()

	calls := 0
	err := repo.InTx(ctx, func(tx *repository.Repository) error {
		calls++
		return tx.InTx(ctx, func(inner *repository.Repository) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := New()
	title := &entity.Title{Base: entity.NewBase(time.Now()), Name: "Solaris", Year: 1972}

	boom := errors.New("boom")
	err := repo.InTx(ctx, func(tx *repository.Repository) error {
		require.NoError(t, tx.Title.Create(ctx, title))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Title.FindByID(ctx, title.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInTxIsolatesReaders(t *testing.T) {
	ctx := context.Background()
	repo := New()
	title := seedTitle(t, repo, "Solaris", 1972, nil)
	rating := 7.0

	err := repo.InTx(ctx, func(tx *repository.Repository) error {
		require.NoError(t, tx.Title.UpdateRating(ctx, title.ID, &rating))

		outside, err := repo.Title.FindByID(ctx, title.ID)
		require.NoError(t, err)
		assert.Nil(t, outside.Rating, "uncommitted rating visible outside the unit")

		inside, err := tx.Title.FindByID(ctx, title.ID)
		require.NoError(t, err)
		require.NotNil(t, inside.Rating)
		return nil
	})
	require.NoError(t, err)

	got, err := repo.Title.FindByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.InDelta(t, 7.0, *got.Rating, 1e-9)
}

func TestWritersWaitForUnitOfWork(t *testing.T) {
	ctx := context.Background()
	repo := New()

	entered := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = repo.InTx(ctx, func(tx *repository.Repository) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	written := make(chan struct{})
	go func() {
		genre := &entity.Genre{Base: entity.NewBase(time.Now()), Name: "Drama", Slug: "drama"}
		assert.NoError(t, repo.Genre.Create(ctx, genre))
		close(written)
	}()

	select {
	case <-written:
		t.Fatal("write completed while a unit of work was open")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	wg.Wait()
	<-written

	got, err := repo.Genre.FindBySlug(ctx, "drama")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
