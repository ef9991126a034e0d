package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"review-api/internal/data/entity"
	"review-api/pkg/apperror"
	"review-api/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrCodeUsed is returned when a code was consumed by a concurrent exchange.
var ErrCodeUsed = apperror.Field("confirmation_code", "Confirmation code has already been used")

type ConfirmationCodeRepository interface {
	Create(ctx context.Context, code *entity.ConfirmationCode) error
	FindLatestUsable(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.ConfirmationCode, error)
	MarkAsUsed(ctx context.Context, id uuid.UUID, at time.Time) error
	InvalidateForUser(ctx context.Context, userID uuid.UUID, at time.Time) error
}

type confirmationCodeRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewConfirmationCodeRepository(db database.Querier, log *zap.Logger) ConfirmationCodeRepository {
	return &confirmationCodeRepository{
		db:  db,
		log: log.With(zap.String("repository", "confirmation_code")),
	}
}

func (r *confirmationCodeRepository) Create(ctx context.Context, code *entity.ConfirmationCode) error {
	query := `
		INSERT INTO confirmation_codes (id, user_id, code_hash, expires_at, used_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		code.ID,
		code.UserID,
		code.CodeHash,
		code.ExpiresAt,
		code.UsedAt,
		code.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create confirmation code",
			zap.Error(err),
			zap.String("user_id", code.UserID.String()),
		)
		return fmt.Errorf("create confirmation code for user %s: %w", code.UserID.String(), err)
	}

	return nil
}

func (r *confirmationCodeRepository) FindLatestUsable(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.ConfirmationCode, error) {
	query := `
		SELECT id, user_id, code_hash, expires_at, used_at, created_at
		FROM confirmation_codes
		WHERE user_id = $1
		  AND used_at IS NULL
		  AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var code entity.ConfirmationCode
	err := r.db.QueryRow(ctx, query, userID, now).Scan(
		&code.ID,
		&code.UserID,
		&code.CodeHash,
		&code.ExpiresAt,
		&code.UsedAt,
		&code.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find usable confirmation code",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find confirmation code for user %s: %w", userID.String(), err)
	}

	return &code, nil
}

func (r *confirmationCodeRepository) MarkAsUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE confirmation_codes
		SET used_at = $2
		WHERE id = $1 AND used_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		r.log.Error("Failed to mark confirmation code as used",
			zap.Error(err),
			zap.String("code_id", id.String()),
		)
		return fmt.Errorf("mark confirmation code %s as used: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return ErrCodeUsed
	}

	return nil
}

// InvalidateForUser retires every outstanding code of the user.
func (r *confirmationCodeRepository) InvalidateForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE confirmation_codes
		SET used_at = $2
		WHERE user_id = $1 AND used_at IS NULL
	`

	if _, err := r.db.Exec(ctx, query, userID, at); err != nil {
		r.log.Error("Failed to invalidate confirmation codes",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return fmt.Errorf("invalidate confirmation codes for user %s: %w", userID.String(), err)
	}

	return nil
}
