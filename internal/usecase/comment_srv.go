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

type CommentService interface {
	List(ctx context.Context, titleID, reviewID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error)
	Get(ctx context.Context, titleID, reviewID, commentID string) (*response.CommentResponse, error)
	Create(ctx context.Context, titleID, reviewID string, req *request.CreateCommentRequest) (*response.CommentResponse, error)
	Update(ctx context.Context, titleID, reviewID, commentID string, req *request.UpdateCommentRequest) (*response.CommentResponse, error)
	Delete(ctx context.Context, titleID, reviewID, commentID string) error
}

type commentService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCommentService(repo *repository.Repository, log *zap.Logger) CommentService {
	return &commentService{
		repo: repo,
		log:  log.With(zap.String("service", "comment")),
	}
}

func (s *commentService) find(ctx context.Context, titleID, reviewID, commentID string) (*entity.Comment, error) {
	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	id, err := parseID("comment", commentID)
	if err != nil {
		return nil, err
	}

	comment, err := s.repo.Comment.FindByID(ctx, id)
	if err != nil {
		return nil, fail(s.log, "find comment", err, zap.String("comment_id", commentID))
	}
	if comment == nil || comment.ReviewID != review.ID {
		return nil, apperror.NotFound("comment %s not found", commentID)
	}
	return comment, nil
}

func (s *commentService) toResponse(ctx context.Context, names *usernames, comment *entity.Comment) (response.CommentResponse, error) {
	author, err := names.of(ctx, comment.AuthorID)
	if err != nil {
		return response.CommentResponse{}, fail(s.log, "find comment author", err, zap.String("comment_id", comment.ID.String()))
	}
	return response.CommentToResponse(comment, author), nil
}

func (s *commentService) List(ctx context.Context, titleID, reviewID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CommentResponse], error) {
	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	req.Normalize()

	comments, err := s.repo.Comment.FindByReviewID(ctx, review.ID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fail(s.log, "list comments", err, zap.String("review_id", reviewID))
	}
	total, err := s.repo.Comment.CountByReviewID(ctx, review.ID)
	if err != nil {
		return nil, fail(s.log, "count comments", err, zap.String("review_id", reviewID))
	}

	names := newUsernames(s.repo.User)
	data := make([]response.CommentResponse, 0, len(comments))
	for _, comment := range comments {
		resp, err := s.toResponse(ctx, names, comment)
		if err != nil {
			return nil, err
		}
		data = append(data, resp)
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID string) (*response.CommentResponse, error) {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}

	resp, err := s.toResponse(ctx, newUsernames(s.repo.User), comment)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, titleID, reviewID string, req *request.CreateCommentRequest) (*response.CommentResponse, error) {
	c, err := authorize(ctx, policy.ActionCreate, policy.ResourceComment, uuid.Nil)
	if err != nil {
		return nil, err
	}

	review, err := findReview(ctx, s.repo, s.log, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	comment := &entity.Comment{
		Base:     entity.NewBase(time.Now()),
		ReviewID: review.ID,
		AuthorID: c.ID,
		Text:     req.Text,
	}
	if err := s.repo.Comment.Create(ctx, comment); err != nil {
		return nil, fail(s.log, "create comment", err, zap.String("review_id", reviewID))
	}

	resp, err := s.toResponse(ctx, newUsernames(s.repo.User), comment)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, titleID, reviewID, commentID string, req *request.UpdateCommentRequest) (*response.CommentResponse, error) {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, policy.ActionUpdate, policy.ResourceComment, comment.AuthorID); err != nil {
		return nil, err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	if req.Text != nil {
		comment.Text = *req.Text
	}
	comment.UpdatedAt = time.Now()

	if err := s.repo.Comment.Update(ctx, comment); err != nil {
		return nil, fail(s.log, "update comment", err, zap.String("comment_id", commentID))
	}

	resp, err := s.toResponse(ctx, newUsernames(s.repo.User), comment)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, titleID, reviewID, commentID string) error {
	comment, err := s.find(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if _, err := authorize(ctx, policy.ActionDelete, policy.ResourceComment, comment.AuthorID); err != nil {
		return err
	}

	if err := s.repo.Comment.Delete(ctx, comment.ID); err != nil {
		return fail(s.log, "delete comment", err, zap.String("comment_id", commentID))
	}
	return nil
}
