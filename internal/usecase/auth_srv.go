package usecase

import (
	"context"
	"fmt"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/data/repository"
	"review-api/internal/dto/request"
	"review-api/internal/dto/response"
	"review-api/pkg/apperror"
	"review-api/pkg/mailer"
	"review-api/pkg/utils"

	"go.uber.org/zap"
)

const (
	defaultCodeExpiry   = 15 * time.Minute
	confirmationSubject = "Confirmation code"
)

type AuthService interface {
	// SignUp registers the pair, or re-sends a code when the exact pair is
	// already registered.
	SignUp(ctx context.Context, req *request.SignUpRequest) (*response.SignUpResponse, error)
	// Token exchanges a confirmation code for an access token.
	Token(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error)
}

type authService struct {
	repo   *repository.Repository
	config *utils.Config
	mail   mailer.Sender
	tokens *utils.TokenIssuer
	log    *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	mail mailer.Sender,
	tokens *utils.TokenIssuer,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:   repo,
		config: config,
		mail:   mail,
		tokens: tokens,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) codeExpiry() time.Duration {
	if s.config.Confirmation.ExpiryMinutes <= 0 {
		return defaultCodeExpiry
	}
	return time.Duration(s.config.Confirmation.ExpiryMinutes) * time.Minute
}

func (s *authService) SignUp(ctx context.Context, req *request.SignUpRequest) (*response.SignUpResponse, error) {
	errs := merge(utils.ValidateStruct(req), identityLimits(s.config.Validation, req.Username, req.Email))
	if len(errs) > 0 {
		s.log.Warn("Sign-up validation failed", zap.Any("errors", errs))
		return nil, validationFailed(errs)
	}

	byUsername, err := s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fail(s.log, "check username", err, zap.String("username", req.Username))
	}
	byEmail, err := s.repo.User.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fail(s.log, "check email", err, zap.String("email", req.Email))
	}

	// The exact pair is a resend; any other collision is an error.
	var user *entity.User
	if byUsername != nil && byEmail != nil && byUsername.ID == byEmail.ID {
		user = byUsername
	} else {
		if byUsername != nil {
			errs["username"] = "A user with this username already exists"
		}
		if byEmail != nil {
			errs["email"] = "A user with this email already exists"
		}
		if len(errs) > 0 {
			return nil, validationFailed(errs)
		}
	}

	code, err := utils.GenerateConfirmationCode(s.config.Confirmation.Length)
	if err != nil {
		return nil, fail(s.log, "generate confirmation code", err)
	}
	hash, err := utils.HashConfirmationCode(code)
	if err != nil {
		return nil, fail(s.log, "hash confirmation code", err)
	}

	now := time.Now()
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if user == nil {
			user = &entity.User{
				Base:     entity.NewBase(now),
				Username: req.Username,
				Email:    req.Email,
				Role:     entity.RoleUser,
			}
			if err := tx.User.Create(ctx, user); err != nil {
				return err
			}
		} else if err := tx.Confirmation.InvalidateForUser(ctx, user.ID, now); err != nil {
			return err
		}

		return tx.Confirmation.Create(ctx, &entity.ConfirmationCode{
			BaseSimple: entity.NewBaseSimple(now),
			UserID:     user.ID,
			CodeHash:   hash,
			ExpiresAt:  now.Add(s.codeExpiry()),
		})
	})
	if err != nil {
		return nil, fail(s.log, "sign up", err, zap.String("username", req.Username))
	}

	s.sendCode(ctx, user, code)

	s.log.Info("Confirmation code issued",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)

	return &response.SignUpResponse{
		Email:    user.Email,
		Username: user.Username,
	}, nil
}

// sendCode delivers the code. Failures are logged and not retried.
func (s *authService) sendCode(ctx context.Context, user *entity.User, code string) {
	body := fmt.Sprintf("Hello %s,\n\nYour confirmation code: %s\nIt expires in %d minutes.\n",
		user.Username, code, int(s.codeExpiry().Minutes()))

	if err := s.mail.Send(ctx, user.Email, confirmationSubject, body); err != nil {
		s.log.Error("Failed to send confirmation code",
			zap.Error(err),
			zap.String("user_id", user.ID.String()),
		)
	}
}

func (s *authService) Token(ctx context.Context, req *request.TokenRequest) (*response.TokenResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	user, err := s.repo.User.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, fail(s.log, "find user", err, zap.String("username", req.Username))
	}
	if user == nil {
		return nil, apperror.NotFound("user %s not found", req.Username)
	}

	now := time.Now()
	code, err := s.repo.Confirmation.FindLatestUsable(ctx, user.ID, now)
	if err != nil {
		return nil, fail(s.log, "find confirmation code", err, zap.String("user_id", user.ID.String()))
	}
	if code == nil || !utils.CheckConfirmationCode(req.ConfirmationCode, code.CodeHash) {
		s.log.Warn("Invalid confirmation code", zap.String("user_id", user.ID.String()))
		return nil, apperror.Field("confirmation_code", "Invalid or expired confirmation code")
	}

	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Confirmation.MarkAsUsed(ctx, code.ID, now); err != nil {
			return err
		}
		if user.IsActive {
			return nil
		}
		user.IsActive = true
		user.UpdatedAt = now
		return tx.User.Update(ctx, user)
	})
	if err != nil {
		return nil, fail(s.log, "activate user", err, zap.String("user_id", user.ID.String()))
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fail(s.log, "issue token", err, zap.String("user_id", user.ID.String()))
	}

	s.log.Info("Access token issued", zap.String("user_id", user.ID.String()))

	return &response.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}
