package memory

import (
	"context"

	"review-api/internal/data/entity"
	"review-api/pkg/apperror"

	"github.com/google/uuid"
)

// deleteReview removes a review and its comments. The caller holds the lock.
func (s *store) deleteReview(id uuid.UUID) {
	delete(s.reviews, id)
	for commentID, comment := range s.comments {
		if comment.ReviewID == id {
			delete(s.comments, commentID)
		}
	}
}

type reviewRepository struct {
	s *store
}

func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	r.s.Lock()
	defer r.s.Unlock()

	for _, other := range r.s.reviews {
		if other.TitleID == review.TitleID && other.AuthorID == review.AuthorID {
			return apperror.Conflict("review already exists",
				map[string]string{"title": "You have already reviewed this title"})
		}
	}
	r.s.reviews[review.ID] = *review
	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	review, ok := r.s.reviews[id]
	if !ok {
		return nil, nil
	}
	return &review, nil
}

func (r *reviewRepository) byTitle(titleID uuid.UUID) []*entity.Review {
	r.s.RLock()
	defer r.s.RUnlock()

	var reviews []*entity.Review
	for _, review := range r.s.reviews {
		if review.TitleID == titleID {
			found := review
			reviews = append(reviews, &found)
		}
	}
	newestFirst(reviews, func(r *entity.Review) entity.Base { return r.Base })
	return reviews
}

func (r *reviewRepository) FindByTitleID(ctx context.Context, titleID uuid.UUID, limit, offset int) ([]*entity.Review, error) {
	return page(r.byTitle(titleID), limit, offset), nil
}

func (r *reviewRepository) CountByTitleID(ctx context.Context, titleID uuid.UUID) (int64, error) {
	return int64(len(r.byTitle(titleID))), nil
}

func (r *reviewRepository) FindByTitleAndAuthor(ctx context.Context, titleID, authorID uuid.UUID) (*entity.Review, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	for _, review := range r.s.reviews {
		if review.TitleID == titleID && review.AuthorID == authorID {
			found := review
			return &found, nil
		}
	}
	return nil, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	r.s.Lock()
	defer r.s.Unlock()

	current, ok := r.s.reviews[review.ID]
	if !ok {
		return apperror.NotFound("review %s not found", review.ID.String())
	}
	current.Text = review.Text
	current.Score = review.Score
	current.UpdatedAt = review.UpdatedAt
	r.s.reviews[review.ID] = current
	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.reviews[id]; !ok {
		return apperror.NotFound("review %s not found", id.String())
	}
	r.s.deleteReview(id)
	return nil
}

func (r *reviewRepository) GetTitleRatingStats(ctx context.Context, titleID uuid.UUID) (entity.RatingStats, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	var sum, count int64
	for _, review := range r.s.reviews {
		if review.TitleID == titleID {
			sum += int64(review.Score)
			count++
		}
	}

	stats := entity.RatingStats{Count: count}
	if count > 0 {
		avg := float64(sum) / float64(count)
		stats.Average = &avg
	}
	return stats, nil
}

func (r *reviewRepository) FindTitleIDsByAuthor(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, review := range r.s.reviews {
		if review.AuthorID == authorID && !seen[review.TitleID] {
			seen[review.TitleID] = true
			ids = append(ids, review.TitleID)
		}
	}
	return ids, nil
}

type commentRepository struct {
	s *store
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.reviews[comment.ReviewID]; !ok {
		return apperror.NotFound("review %s not found", comment.ReviewID.String())
	}
	r.s.comments[comment.ID] = *comment
	return nil
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	comment, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	return &comment, nil
}

func (r *commentRepository) byReview(reviewID uuid.UUID) []*entity.Comment {
	r.s.RLock()
	defer r.s.RUnlock()

	var comments []*entity.Comment
	for _, comment := range r.s.comments {
		if comment.ReviewID == reviewID {
			found := comment
			comments = append(comments, &found)
		}
	}
	newestFirst(comments, func(c *entity.Comment) entity.Base { return c.Base })
	return comments
}

func (r *commentRepository) FindByReviewID(ctx context.Context, reviewID uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	return page(r.byReview(reviewID), limit, offset), nil
}

func (r *commentRepository) CountByReviewID(ctx context.Context, reviewID uuid.UUID) (int64, error) {
	return int64(len(r.byReview(reviewID))), nil
}

func (r *commentRepository) Update(ctx context.Context, comment *entity.Comment) error {
	r.s.Lock()
	defer r.s.Unlock()

	current, ok := r.s.comments[comment.ID]
	if !ok {
		return apperror.NotFound("comment %s not found", comment.ID.String())
	}
	current.Text = comment.Text
	current.UpdatedAt = comment.UpdatedAt
	r.s.comments[comment.ID] = current
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return apperror.NotFound("comment %s not found", id.String())
	}
	delete(r.s.comments, id)
	return nil
}
