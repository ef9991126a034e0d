package usecase

import (
	"context"
	"fmt"
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

type ReviewService interface {
	List(ctx context.Context, titleID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error)
	Get(ctx context.Context, titleID, reviewID string) (*response.ReviewResponse, error)
	Create(ctx context.Context, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error)
	Update(ctx context.Context, titleID, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error)
	Delete(ctx context.Context, titleID, reviewID string) error
}

type reviewService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewReviewService(repo *repository.Repository, log *zap.Logger) ReviewService {
	return &reviewService{
		repo: repo,
		log:  log.With(zap.String("service", "review")),
	}
}

// recomputeRating sets the title rating to the mean review score, or nil
// when no reviews remain. It runs on the transaction of the triggering write.
func recomputeRating(ctx context.Context, tx *repository.Repository, titleID uuid.UUID) error {
	stats, err := tx.Review.GetTitleRatingStats(ctx, titleID)
	if err != nil {
		return err
	}
	return tx.Title.UpdateRating(ctx, titleID, stats.Average)
}

// writeReview locks the title, applies write and recomputes the rating in
// one transaction.
func (s *reviewService) writeReview(ctx context.Context, titleID uuid.UUID, write func(tx *repository.Repository) error) error {
	return s.repo.InTx(ctx, func(tx *repository.Repository) error {
		title, err := tx.Title.LockForUpdate(ctx, titleID)
		if err != nil {
			return err
		}
		if title == nil {
			return apperror.NotFound("title %s not found", titleID.String())
		}

		if err := write(tx); err != nil {
			return err
		}
		return recomputeRating(ctx, tx, titleID)
	})
}

func scoreError(errs map[string]string) {
	errs["score"] = fmt.Sprintf("Score must be between %d and %d", entity.MinScore, entity.MaxScore)
}

func findTitle(ctx context.Context, repo *repository.Repository, log *zap.Logger, id string) (*entity.Title, error) {
	titleID, err := parseID("title", id)
	if err != nil {
		return nil, err
	}

	title, err := repo.Title.FindByID(ctx, titleID)
	if err != nil {
		return nil, fail(log, "find title", err, zap.String("title_id", id))
	}
	if title == nil {
		return nil, apperror.NotFound("title %s not found", id)
	}
	return title, nil
}

// findReview loads a review and checks that it belongs to the title.
func findReview(ctx context.Context, repo *repository.Repository, log *zap.Logger, titleID, reviewID string) (*entity.Review, error) {
	title, err := findTitle(ctx, repo, log, titleID)
	if err != nil {
		return nil, err
	}

	id, err := parseID("review", reviewID)
	if err != nil {
		return nil, err
	}

	review, err := repo.Review.FindByID(ctx, id)
	if err != nil {
		return nil, fail(log, "find review", err, zap.String("review_id", reviewID))
	}
	if review == nil || review.TitleID != title.ID {
		return nil, apperror.NotFound("review %s not found", reviewID)
	}
	return review, nil
}

// usernames resolves author ids to usernames, one lookup per id.
type usernames struct {
	repo  repository.UserRepository
	cache map[uuid.UUID]string
}

func newUsernames(repo repository.UserRepository) *usernames {
	return &usernames{repo: repo, cache: map[uuid.UUID]string{}}
}

func (u *usernames) of(ctx context.Context, id uuid.UUID) (string, error) {
	if name, ok := u.cache[id]; ok {
		return name, nil
	}

	user, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	name := ""
	if user != nil {
		name = user.Username
	}
	u.cache[id] = name
	return name, nil
}

func (s *reviewService) toResponse(ctx context.Context, names *usernames, review *entity.Review) (response.ReviewResponse, error) {
	author, err := names.of(ctx, review.AuthorID)
	if err != nil {
		return response.ReviewResponse{}, fail(s.log, "find review author", err, zap.String("review_id", review.ID.String()))
	}
	return response.ReviewToResponse(review, author), nil
}

func (s *reviewService) List(ctx context.Context, titleID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReviewResponse], error) {
	title, err := findTitle(ctx, s.repo, s.log, titleID)
	if err != nil {
		return nil, err
	}
	req.Normalize()

	reviews, err := s.repo.Review.FindByTitleID(ctx, title.ID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fail(s.log, "list reviews", err, zap.String("title_id", titleID))
	}
	total, err := s.repo.Review.CountByTitleID(ctx, title.ID)
	if err != nil {
		return nil, fail(s.log, "count reviews", err, zap.String("title_id", titleID))
	}

	names := newUsernames(s.repo.User)
	data := make([]response.ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		resp, err := s.toResponse(ctx, names, review)
		if err != nil {
			return nil, err
		}
		data = append(data, resp)
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID string) (*response.ReviewResponse, error) {
	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	resp, err := s.toResponse(ctx, newUsernames(s.repo.User), review)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *reviewService) Create(ctx context.Context, titleID string, req *request.CreateReviewRequest) (*response.ReviewResponse, error) {
	c, err := authorize(ctx, policy.ActionCreate, policy.ResourceReview, uuid.Nil)
	if err != nil {
		return nil, err
	}

	title, err := findTitle(ctx, s.repo, s.log, titleID)
	if err != nil {
		return nil, err
	}

	errs := merge(utils.ValidateStruct(req), nil)
	if !entity.ValidScore(req.Score) {
		scoreError(errs)
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	existing, err := s.repo.Review.FindByTitleAndAuthor(ctx, title.ID, c.ID)
	if err != nil {
		return nil, fail(s.log, "check existing review", err, zap.String("title_id", titleID))
	}
	if existing != nil {
		return nil, apperror.Conflict("review already exists",
			map[string]string{"title": "You have already reviewed this title"})
	}

	review := &entity.Review{
		Base:     entity.NewBase(time.Now()),
		TitleID:  title.ID,
		AuthorID: c.ID,
		Text:     req.Text,
		Score:    req.Score,
	}

	err = s.writeReview(ctx, title.ID, func(tx *repository.Repository) error {
		return tx.Review.Create(ctx, review)
	})
	if err != nil {
		return nil, fail(s.log, "create review", err,
			zap.String("title_id", titleID),
			zap.String("author_id", c.ID.String()),
		)
	}

	s.log.Info("Review created",
		zap.String("review_id", review.ID.String()),
		zap.String("title_id", titleID),
		zap.Int("score", review.Score),
	)

	resp, err := s.toResponse(ctx, newUsernames(s.repo.User), review)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, titleID, reviewID string, req *request.UpdateReviewRequest) (*response.ReviewResponse, error) {
	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, policy.ActionUpdate, policy.ResourceReview, review.AuthorID); err != nil {
		return nil, err
	}

	errs := merge(utils.ValidateStruct(req), nil)
	if req.Score != nil && !entity.ValidScore(*req.Score) {
		scoreError(errs)
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	review.UpdatedAt = time.Now()

	err = s.writeReview(ctx, review.TitleID, func(tx *repository.Repository) error {
		return tx.Review.Update(ctx, review)
	})
	if err != nil {
		return nil, fail(s.log, "update review", err, zap.String("review_id", reviewID))
	}

	resp, err := s.toResponse(ctx, newUsernames(s.repo.User), review)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, titleID, reviewID string) error {
	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return err
	}
	if _, err := authorize(ctx, policy.ActionDelete, policy.ResourceReview, review.AuthorID); err != nil {
		return err
	}

	err = s.writeReview(ctx, review.TitleID, func(tx *repository.Repository) error {
		return tx.Review.Delete(ctx, review.ID)
	})
	if err != nil {
		return fail(s.log, "delete review", err, zap.String("review_id", reviewID))
	}

	s.log.Info("Review deleted",
		zap.String("review_id", reviewID),
		zap.String("title_id", titleID),
	)
	return nil
}
