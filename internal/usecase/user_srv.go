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

type UserService interface {
	List(ctx context.Context, req *request.ListRequest) (*response.PaginatedResponse[response.UserResponse], error)
	Create(ctx context.Context, req *request.CreateUserRequest) (*response.UserResponse, error)
	Get(ctx context.Context, username string) (*response.UserResponse, error)
	Update(ctx context.Context, username string, req *request.UpdateUserRequest) (*response.UserResponse, error)
	Delete(ctx context.Context, username string) error

	GetMe(ctx context.Context) (*response.UserResponse, error)
	UpdateMe(ctx context.Context, req *request.UpdateUserRequest) (*response.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	limits utils.ValidationConfig
	log    *zap.Logger
}

func NewUserService(repo *repository.Repository, limits utils.ValidationConfig, log *zap.Logger) UserService {
	return &userService{
		repo:   repo,
		limits: limits,
		log:    log.With(zap.String("service", "user")),
	}
}

// identityLimits applies the configured maximum lengths.
func identityLimits(limits utils.ValidationConfig, username, email string) map[string]string {
	errs := map[string]string{}
	if limits.UsernameMaxLength > 0 && len(username) > limits.UsernameMaxLength {
		errs["username"] = fmt.Sprintf("Maximum length is %d", limits.UsernameMaxLength)
	}
	if limits.EmailMaxLength > 0 && len(email) > limits.EmailMaxLength {
		errs["email"] = fmt.Sprintf("Maximum length is %d", limits.EmailMaxLength)
	}
	return errs
}

// identityTaken reports username and email already used by a user other
// than self.
func (s *userService) identityTaken(ctx context.Context, username, email string, self uuid.UUID) (map[string]string, error) {
	errs := map[string]string{}

	other, err := s.repo.User.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if other != nil && other.ID != self {
		errs["username"] = "A user with this username already exists"
	}

	other, err = s.repo.User.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if other != nil && other.ID != self {
		errs["email"] = "A user with this email already exists"
	}

	return errs, nil
}

func (s *userService) List(ctx context.Context, req *request.ListRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	if _, err := authorize(ctx, policy.ActionList, policy.ResourceUser, uuid.Nil); err != nil {
		return nil, err
	}
	req.Normalize()

	users, err := s.repo.User.FindAll(ctx, req.Search, req.Limit(), req.Offset())
	if err != nil {
		return nil, fail(s.log, "list users", err)
	}
	total, err := s.repo.User.CountAll(ctx, req.Search)
	if err != nil {
		return nil, fail(s.log, "count users", err)
	}

	data := make([]response.UserResponse, 0, len(users))
	for _, user := range users {
		data = append(data, response.UserToResponse(user))
	}

	return response.NewPaginatedResponse(data, req.Page, req.PerPage, total), nil
}

func (s *userService) Create(ctx context.Context, req *request.CreateUserRequest) (*response.UserResponse, error) {
	if _, err := authorize(ctx, policy.ActionCreate, policy.ResourceUser, uuid.Nil); err != nil {
		return nil, err
	}

	errs := merge(utils.ValidateStruct(req), identityLimits(s.limits, req.Username, req.Email))
	if len(errs) == 0 {
		taken, err := s.identityTaken(ctx, req.Username, req.Email, uuid.Nil)
		if err != nil {
			return nil, fail(s.log, "check identity", err)
		}
		errs = merge(errs, taken)
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	user := &entity.User{
		Base:     entity.NewBase(time.Now()),
		Username: req.Username,
		Email:    req.Email,
		Role:     entity.RoleUser,
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Role != nil {
		user.Role = entity.UserRole(*req.Role)
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		return nil, fail(s.log, "create user", err, zap.String("username", req.Username))
	}

	s.log.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) findByUsername(ctx context.Context, username string) (*entity.User, error) {
	user, err := s.repo.User.FindByUsername(ctx, username)
	if err != nil {
		return nil, fail(s.log, "find user", err, zap.String("username", username))
	}
	if user == nil {
		return nil, apperror.NotFound("user %s not found", username)
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, username string) (*response.UserResponse, error) {
	if _, err := authorize(ctx, policy.ActionRetrieve, policy.ResourceUser, uuid.Nil); err != nil {
		return nil, err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

// checkRoleChange rejects a role that differs from the caller's own unless
// the caller is an admin.
func checkRoleChange(c caller, role *string) error {
	if role == nil || c.isAdmin() || entity.UserRole(*role) == c.Actor.Role {
		return nil
	}
	return apperror.Field("role", "Only an administrator can change roles")
}

func (s *userService) Update(ctx context.Context, username string, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	c := callerFrom(ctx)
	if !c.Actor.Authenticated {
		return nil, apperror.Unauthorized("Authentication required")
	}
	if err := checkRoleChange(c, req.Role); err != nil {
		return nil, err
	}
	if _, err := authorize(ctx, policy.ActionUpdate, policy.ResourceUser, uuid.Nil); err != nil {
		return nil, err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	return s.update(ctx, user, req)
}

func (s *userService) update(ctx context.Context, user *entity.User, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	updated := *user
	if req.Username != nil {
		updated.Username = *req.Username
	}
	if req.Email != nil {
		updated.Email = *req.Email
	}
	if req.FirstName != nil {
		updated.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		updated.LastName = *req.LastName
	}
	if req.Bio != nil {
		updated.Bio = *req.Bio
	}
	if req.Role != nil {
		updated.Role = entity.UserRole(*req.Role)
	}

	errs := merge(utils.ValidateStruct(req), identityLimits(s.limits, updated.Username, updated.Email))
	if len(errs) == 0 {
		taken, err := s.identityTaken(ctx, updated.Username, updated.Email, user.ID)
		if err != nil {
			return nil, fail(s.log, "check identity", err)
		}
		errs = merge(errs, taken)
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	updated.UpdatedAt = time.Now()
	if err := s.repo.User.Update(ctx, &updated); err != nil {
		return nil, fail(s.log, "update user", err, zap.String("user_id", user.ID.String()))
	}

	resp := response.UserToResponse(&updated)
	return &resp, nil
}

// Delete removes the user with their reviews and comments and refreshes the
// rating of every title they had reviewed.
func (s *userService) Delete(ctx context.Context, username string) error {
	if _, err := authorize(ctx, policy.ActionDelete, policy.ResourceUser, uuid.Nil); err != nil {
		return err
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		titleIDs, err := tx.Review.FindTitleIDsByAuthor(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, id := range titleIDs {
			if _, err := tx.Title.LockForUpdate(ctx, id); err != nil {
				return err
			}
		}

		if err := tx.User.Delete(ctx, user.ID); err != nil {
			return err
		}

		for _, id := range titleIDs {
			if err := recomputeRating(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fail(s.log, "delete user", err, zap.String("user_id", user.ID.String()))
	}

	s.log.Info("User deleted", zap.String("user_id", user.ID.String()))
	return nil
}

func (s *userService) me(ctx context.Context, action policy.Action) (caller, *entity.User, error) {
	c, err := authorize(ctx, action, policy.ResourceSelf, uuid.Nil)
	if err != nil {
		return c, nil, err
	}

	user, err := s.repo.User.FindByID(ctx, c.ID)
	if err != nil {
		return c, nil, fail(s.log, "find user", err, zap.String("user_id", c.ID.String()))
	}
	if user == nil {
		return c, nil, apperror.Unauthorized("Authentication required")
	}
	return c, user, nil
}

func (s *userService) GetMe(ctx context.Context) (*response.UserResponse, error) {
	_, user, err := s.me(ctx, policy.ActionRetrieve)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *userService) UpdateMe(ctx context.Context, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	c, user, err := s.me(ctx, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := checkRoleChange(c, req.Role); err != nil {
		return nil, err
	}

	return s.update(ctx, user, req)
}
