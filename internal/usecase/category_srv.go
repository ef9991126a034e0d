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

type CategoryService interface {
	List(ctx context.Context, req *request.ListRequest) (*response.PaginatedResponse[response.CategoryResponse], error)
	Get(ctx context.Context, slug string) (*response.CategoryResponse, error)
	Create(ctx context.Context, req *request.CreateCategoryRequest) (*response.CategoryResponse, error)
	Update(ctx context.Context, slug string, req *request.UpdateCategoryRequest) (*response.CategoryResponse, error)
	Delete(ctx context.Context, slug string) error
}

type categoryService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCategoryService(repo *repository.Repository, log *zap.Logger) CategoryService {
	return &categoryService{
		repo: repo,
		log:  log.With(zap.String("service", "category")),
	}
}

func (s *categoryService) List(ctx context.Context, req *request.ListRequest) (*response.PaginatedResponse[response.CategoryResponse], error) {
	req.Normalize()

	categories, err := s.repo.Category.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fail(s.log, "list categories", err)
	}
	total, err := s.repo.Category.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fail(s.log, "count categories", err)
	}

	data := make([]response.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		data = append(data, response.CategoryToResponse(category))
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *categoryService) find(ctx context.Context, slug string) (*entity.Category, error) {
	category, err := s.repo.Category.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fail(s.log, "find category", err, zap.String("slug", slug))
	}
	if category == nil {
		return nil, apperror.NotFound("category %s not found", slug)
	}
	return category, nil
}

func (s *categoryService) Get(ctx context.Context, slug string) (*response.CategoryResponse, error) {
	category, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (s *categoryService) Create(ctx context.Context, req *request.CreateCategoryRequest) (*response.CategoryResponse, error) {
	if _, err := authorize(ctx, policy.ActionCreate, policy.ResourceCategory, uuid.Nil); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	existing, err := s.repo.Category.FindBySlug(ctx, req.Slug)
	if err != nil {
		return nil, fail(s.log, "check category slug", err, zap.String("slug", req.Slug))
	}
	if existing != nil {
		return nil, apperror.Field("slug", "A category with this slug already exists")
	}

	category := &entity.Category{
		Base: entity.NewBase(time.Now()),
		Name: req.Name,
		Slug: req.Slug,
	}
	if err := s.repo.Category.Create(ctx, category); err != nil {
		return nil, fail(s.log, "create category", err, zap.String("slug", req.Slug))
	}

	s.log.Info("Category created", zap.String("slug", category.Slug))

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (s *categoryService) Update(ctx context.Context, slug string, req *request.UpdateCategoryRequest) (*response.CategoryResponse, error) {
	if _, err := authorize(ctx, policy.ActionUpdate, policy.ResourceCategory, uuid.Nil); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	category, err := s.find(ctx, slug)
	if err != nil {
		return nil, err
	}

	if req.Slug != nil && *req.Slug != category.Slug {
		used, err := s.repo.Category.CountTitles(ctx, category.ID)
		if err != nil {
			return nil, fail(s.log, "count category titles", err, zap.String("slug", slug))
		}
		if used > 0 {
			return nil, apperror.Field("slug", "Slug cannot change while titles reference this category")
		}

		existing, err := s.repo.Category.FindBySlug(ctx, *req.Slug)
		if err != nil {
			return nil, fail(s.log, "check category slug", err, zap.String("slug", *req.Slug))
		}
		if existing != nil {
			return nil, apperror.Field("slug", "A category with this slug already exists")
		}
		category.Slug = *req.Slug
	}
	if req.Name != nil {
		category.Name = *req.Name
	}
	category.UpdatedAt = time.Now()

	if err := s.repo.Category.Update(ctx, category); err != nil {
		return nil, fail(s.log, "update category", err, zap.String("slug", slug))
	}

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

// Delete removes the category. Titles in it keep existing without one.
func (s *categoryService) Delete(ctx context.Context, slug string) error {
	if _, err := authorize(ctx, policy.ActionDelete, policy.ResourceCategory, uuid.Nil); err != nil {
		return err
	}

	category, err := s.find(ctx, slug)
	if err != nil {
		return err
	}

	if err := s.repo.Category.Delete(ctx, category.ID); err != nil {
		return fail(s.log, "delete category", err, zap.String("slug", slug))
	}

	s.log.Info("Category deleted", zap.String("slug", slug))
	return nil
}
