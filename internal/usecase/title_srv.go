package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/data/repository"
	"review-api/internal/dto/request"
	"review-api/internal/dto/response"
	"review-api/internal/policy"
	"review-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TitleService interface {
	List(ctx context.Context, req *request.TitleListRequest) (*response.PaginatedResponse[response.TitleResponse], error)
	Get(ctx context.Context, id string) (*response.TitleResponse, error)
	Create(ctx context.Context, req *request.CreateTitleRequest) (*response.TitleResponse, error)
	Update(ctx context.Context, id string, req *request.UpdateTitleRequest) (*response.TitleResponse, error)
	Delete(ctx context.Context, id string) error
}

type titleService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewTitleService(repo *repository.Repository, log *zap.Logger) TitleService {
	return &titleService{
		repo: repo,
		log:  log.With(zap.String("service", "title")),
	}
}

func (s *titleService) List(ctx context.Context, req *request.TitleListRequest) (*response.PaginatedResponse[response.TitleResponse], error) {
	req.Normalize()
	filter := entity.TitleFilter{
		CategorySlug: req.Category,
		GenreSlug:    req.Genre,
		Name:         req.Name,
		Year:         req.Year,
	}

	titles, err := s.repo.Title.FindAll(ctx, filter, req.Limit(), req.Offset())
	if err != nil {
		return nil, fail(s.log, "list titles", err)
	}
	total, err := s.repo.Title.CountAll(ctx, filter)
	if err != nil {
		return nil, fail(s.log, "count titles", err)
	}

	data := make([]response.TitleResponse, 0, len(titles))
	for _, title := range titles {
		resp, err := s.buildResponse(ctx, title)
		if err != nil {
			return nil, err
		}
		data = append(data, resp)
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *titleService) find(ctx context.Context, id string) (*entity.Title, error) {
	return findTitle(ctx, s.repo, s.log, id)
}

func (s *titleService) Get(ctx context.Context, id string) (*response.TitleResponse, error) {
	title, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	resp, err := s.buildResponse(ctx, title)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func checkYear(year int, errs map[string]string) {
	if current := time.Now().Year(); year > current {
		errs["year"] = fmt.Sprintf("Year cannot be later than %d", current)
	}
}

// resolveCategory maps a slug to its category id. A nil slug means none.
func (s *titleService) resolveCategory(ctx context.Context, slug *string, errs map[string]string) (*uuid.UUID, error) {
	if slug == nil {
		return nil, nil
	}

	category, err := s.repo.Category.FindBySlug(ctx, *slug)
	if err != nil {
		return nil, fail(s.log, "find category", err, zap.String("slug", *slug))
	}
	if category == nil {
		errs["category"] = fmt.Sprintf("Category %q does not exist", *slug)
		return nil, nil
	}
	return &category.ID, nil
}

func (s *titleService) resolveGenres(ctx context.Context, slugs []string, errs map[string]string) ([]*entity.Genre, error) {
	genres, err := s.repo.Genre.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, fail(s.log, "find genres", err, zap.Strings("slugs", slugs))
	}

	found := make(map[string]bool, len(genres))
	for _, g := range genres {
		found[g.Slug] = true
	}
	var missing []string
	for _, slug := range slugs {
		if !found[slug] {
			missing = append(missing, slug)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		errs["genre"] = "Unknown genre: " + strings.Join(missing, ", ")
	}
	return genres, nil
}

func genreLinks(titleID uuid.UUID, genres []*entity.Genre, now time.Time) []*entity.TitleGenre {
	links := make([]*entity.TitleGenre, 0, len(genres))
	for _, g := range genres {
		links = append(links, &entity.TitleGenre{
			BaseSimple: entity.NewBaseSimple(now),
			TitleID:    titleID,
			GenreID:    g.ID,
		})
	}
	return links
}

func (s *titleService) Create(ctx context.Context, req *request.CreateTitleRequest) (*response.TitleResponse, error) {
	if _, err := authorize(ctx, policy.ActionCreate, policy.ResourceTitle, uuid.Nil); err != nil {
		return nil, err
	}

	errs := merge(utils.ValidateStruct(req), nil)
	checkYear(req.Year, errs)
	categoryID, err := s.resolveCategory(ctx, req.Category, errs)
	if err != nil {
		return nil, err
	}
	genres, err := s.resolveGenres(ctx, req.Genre, errs)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	now := time.Now()
	title := &entity.Title{
		Base:        entity.NewBase(now),
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		CategoryID:  categoryID,
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Title.Create(ctx, title); err != nil {
			return err
		}
		return tx.TitleGenre.CreateBatch(ctx, genreLinks(title.ID, genres, now))
	})
	if err != nil {
		return nil, fail(s.log, "create title", err, zap.String("name", req.Name))
	}

	s.log.Info("Title created",
		zap.String("title_id", title.ID.String()),
		zap.String("name", title.Name),
	)

	resp, err := s.buildResponse(ctx, title)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *titleService) Update(ctx context.Context, id string, req *request.UpdateTitleRequest) (*response.TitleResponse, error) {
	if _, err := authorize(ctx, policy.ActionUpdate, policy.ResourceTitle, uuid.Nil); err != nil {
		return nil, err
	}

	title, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	errs := merge(utils.ValidateStruct(req), nil)
	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		checkYear(*req.Year, errs)
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = req.Description
	}
	if req.Category != nil {
		if title.CategoryID, err = s.resolveCategory(ctx, req.Category, errs); err != nil {
			return nil, err
		}
	}
	var genres []*entity.Genre
	if req.Genre != nil {
		if genres, err = s.resolveGenres(ctx, *req.Genre, errs); err != nil {
			return nil, err
		}
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	now := time.Now()
	title.UpdatedAt = now

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Title.Update(ctx, title); err != nil {
			return err
		}
		if req.Genre == nil {
			return nil
		}
		if err := tx.TitleGenre.DeleteByTitleID(ctx, title.ID); err != nil {
			return err
		}
		return tx.TitleGenre.CreateBatch(ctx, genreLinks(title.ID, genres, now))
	})
	if err != nil {
		return nil, fail(s.log, "update title", err, zap.String("title_id", id))
	}

	resp, err := s.buildResponse(ctx, title)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes the title with its reviews, comments and genre links.
func (s *titleService) Delete(ctx context.Context, id string) error {
	if _, err := authorize(ctx, policy.ActionDelete, policy.ResourceTitle, uuid.Nil); err != nil {
		return err
	}

	title, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Title.Delete(ctx, title.ID); err != nil {
		return fail(s.log, "delete title", err, zap.String("title_id", id))
	}

	s.log.Info("Title deleted", zap.String("title_id", id))
	return nil
}

func (s *titleService) buildResponse(ctx context.Context, title *entity.Title) (response.TitleResponse, error) {
	var category *entity.Category
	if title.CategoryID != nil {
		var err error
		category, err = s.repo.Category.FindByID(ctx, *title.CategoryID)
		if err != nil {
			return response.TitleResponse{}, fail(s.log, "find title category", err, zap.String("title_id", title.ID.String()))
		}
	}

	genres, err := s.repo.Genre.FindByTitleID(ctx, title.ID)
	if err != nil {
		return response.TitleResponse{}, fail(s.log, "find title genres", err, zap.String("title_id", title.ID.String()))
	}

	return response.TitleToResponse(title, category, genres), nil
}
