package usecase

import (
	"context"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/data/repository"
	"review-api/internal/dto/request"
	"review-api/internal/dto/response"
	"review-api/internal/policy"
	"review-api/pkg/apperror"
	"review-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GenreService interface {
	List(ctx context.Context, req *request.ListRequest) (*response.PaginatedResponse[response.GenreResponse], error)
	Get(ctx context.Context, slug string) (*response.GenreResponse, error)
	Create(ctx context.Context, req *request.CreateGenreRequest) (*response.GenreResponse, error)
	Update(ctx context.Context, slug string, req *request.UpdateGenreRequest) (*response.GenreResponse, error)
	Delete(ctx context.Context, slug string) error
}

type genreService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewGenreService(repo *repository.Repository, log *zap.Logger) GenreService {
	return &genreService{
		repo: repo,
		log:  log.With(zap.String("service", "genre")),
	}
}

func (s *genreService) List(ctx context.Context, req *request.ListRequest) (*response.PaginatedResponse[response.GenreResponse], error) {
	req.Normalize()

	genres, err := s.repo.Genre.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fail(s.log, "list genres", err)
	}
	total, err := s.repo.Genre.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fail(s.log, "count genres", err)
	}

	data := make([]response.GenreResponse, 0, len(genres))
	for _, genre := range genres {
		data = append(data, response.GenreToResponse(genre))
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *genreService) find(ctx context.Context, slug string) (*entity.Genre, error) {
	genre, err := s.repo.Genre.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fail(s.log, "find genre", err, zap.String("slug", slug))
	}
	if genre == nil {
		return nil, apperror.NotFound("genre %s not found", slug)
	}
	return genre, nil
}

func (s *genreService) Get(ctx context.Context, slug string) (*response.GenreResponse, error) {
	genre, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}

	resp := response.GenreToResponse(genre)
	return &resp, nil
}

func (s *genreService) Create(ctx context.Context, req *request.CreateGenreRequest) (*response.GenreResponse, error) {
	if _, err := authorize(ctx, policy.ActionCreate, policy.ResourceGenre, uuid.Nil); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	existing, err := s.repo.Genre.FindBySlug(ctx, req.Slug)
	if err != nil {
		return nil, fail(s.log, "check genre slug", err, zap.String("slug", req.Slug))
	}
	if existing != nil {
		return nil, apperror.Field("slug", "A genre with this slug already exists")
	}

	genre := &entity.Genre{
		Base: entity.NewBase(time.Now()),
		Name: req.Name,
		Slug: req.Slug,
	}
	if err := s.repo.Genre.Create(ctx, genre); err != nil {
		return nil, fail(s.log, "create genre", err, zap.String("slug", req.Slug))
	}

	s.log.Info("Genre created", zap.String("slug", genre.Slug))

	resp := response.GenreToResponse(genre)
	return &resp, nil
}

func (s *genreService) Update(ctx context.Context, slug string, req *request.UpdateGenreRequest) (*response.GenreResponse, error) {
	if _, err := authorize(ctx, policy.ActionUpdate, policy.ResourceGenre, uuid.Nil); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	genre, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}

	if req.Slug != nil && *req.Slug != genre.Slug {
		used, err := s.repo.Genre.CountTitles(ctx, genre.ID)
		if err != nil {
			return nil, fail(s.log, "count genre titles", err, zap.String("slug", slug))
		}
		if used > 0 {
			return nil, apperror.Field("slug", "Slug cannot change while titles reference this genre")
		}

		existing, err := s.repo.Genre.FindBySlug(ctx, *req.Slug)
		if err != nil {
			return nil, fail(s.log, "check genre slug", err, zap.String("slug", *req.Slug))
		}
		if existing != nil {
			return nil, apperror.Field("slug", "A genre with this slug already exists")
		}
		genre.Slug = *req.Slug
	}
	if req.Name != nil {
		genre.Name = *req.Name
	}
	genre.UpdatedAt = time.Now()

	if err := s.repo.Genre.Update(ctx, genre); err != nil {
		return nil, fail(s.log, "update genre", err, zap.String("slug", slug))
	}

	resp := response.GenreToResponse(genre)
	return &resp, nil
}

// Delete removes the genre and untags every title that had it.
func (s *genreService) Delete(ctx context.Context, slug string) error {
	if _, err := authorize(ctx, policy.ActionDelete, policy.ResourceGenre, uuid.Nil); err != nil {
		return err
	}

	genre, err := s.find(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.repo.Genre.Delete(ctx, genre.ID); err != nil {
		return fail(s.log, "delete genre", err, zap.String("slug", slug))
	}

	s.log.Info("Genre deleted", zap.String("slug", slug))
	return nil
}
