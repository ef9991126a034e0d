package memory

import (
	"context"
	"sort"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/data/repository"
	"review-api/pkg/apperror"

	"github.com/google/uuid"
)

type userRepository struct {
	s *store
}

func (r *userRepository) unique(user *entity.User) error {
	for id, other := range r.s.users {
		if id == user.ID {
			continue
		}
		if other.Username == user.Username {
			return apperror.Conflict("username already registered", map[string]string{"username": "A user with this username already exists"})
		}
		if other.Email == user.Email {
			return apperror.Conflict("email already registered", map[string]string{"email": "A user with this email already exists"})
		}
	}
	return nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	r.s.Lock()
	defer r.s.Unlock()

	if err := r.unique(user); err != nil {
		return err
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) find(match func(entity.User) bool) *entity.User {
	r.s.RLock()
	defer r.s.RUnlock()

	for _, user := range r.s.users {
		if match(user) {
			found := user
			return &found
		}
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.ID == id }), nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Email == email }), nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Username == username }), nil
}

func (r *userRepository) matching(search *string) []*entity.User {
	r.s.RLock()
	defer r.s.RUnlock()

	var users []*entity.User
	for _, user := range r.s.users {
		if contains(user.Username, search) {
			found := user
			users = append(users, &found)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users
}

func (r *userRepository) FindAll(ctx context.Context, search *string, limit, offset int) ([]*entity.User, error) {
	return page(r.matching(search), limit, offset), nil
}

func (r *userRepository) CountAll(ctx context.Context, search *string) (int64, error) {
	return int64(len(r.matching(search))), nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return apperror.NotFound("user %s not found", user.ID.String())
	}
	if err := r.unique(user); err != nil {
		return err
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.Lock()
	defer r.s.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return apperror.NotFound("user %s not found", id.String())
	}
	delete(r.s.users, id)

	for codeID, code := range r.s.codes {
		if code.UserID == id {
			delete(r.s.codes, codeID)
		}
	}
	for commentID, comment := range r.s.comments {
		if comment.AuthorID == id {
			delete(r.s.comments, commentID)
		}
	}
	for reviewID, review := range r.s.reviews {
		if review.AuthorID == id {
			r.s.deleteReview(reviewID)
		}
	}
	return nil
}

type confirmationRepository struct {
	s *store
}

func (r *confirmationRepository) Create(ctx context.Context, code *entity.ConfirmationCode) error {
	r.s.Lock()
	defer r.s.Unlock()

	r.s.codes[code.ID] = *code
	return nil
}

func (r *confirmationRepository) FindLatestUsable(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.ConfirmationCode, error) {
	r.s.RLock()
	defer r.s.RUnlock()

	var latest *entity.ConfirmationCode
	for _, code := range r.s.codes {
		if code.UserID != userID || !code.Usable(now) {
			continue
		}
		if latest == nil || code.CreatedAt.After(latest.CreatedAt) {
			found := code
			latest = &found
		}
	}
	return latest, nil
}

func (r *confirmationRepository) MarkAsUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.Lock()
	defer r.s.Unlock()

	code, ok := r.s.codes[id]
	if !ok || code.UsedAt != nil {
		return repository.ErrCodeUsed
	}
	code.UsedAt = &at
	r.s.codes[id] = code
	return nil
}

func (r *confirmationRepository) InvalidateForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	r.s.Lock()
	defer r.s.Unlock()

	for id, code := range r.s.codes {
		if code.UserID == userID && code.UsedAt == nil {
			code.UsedAt = &at
			r.s.codes[id] = code
		}
	}
	return nil
}
