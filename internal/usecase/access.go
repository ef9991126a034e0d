package usecase

import (
	"context"

	"review-api/internal/data/entity"
	"review-api/internal/policy"
	"review-api/pkg/apperror"
	"review-api/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// caller is the actor of the current request as set by the auth middleware.
type caller struct {
	ID    uuid.UUID
	Actor policy.Actor
}

func callerFrom(ctx context.Context) caller {
	id, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return caller{Actor: policy.Anonymous()}
	}
	role, _ := utils.GetRoleFromContext(ctx)
	return caller{
		ID:    id,
		Actor: policy.Actor{Authenticated: true, Role: entity.UserRole(role)},
	}
}

func (c caller) isAdmin() bool {
	return c.Actor.Authenticated && c.Actor.Role == entity.RoleAdmin
}

// authorize checks the caller against the policy. ownerID is the author of
// the resource, or uuid.Nil when ownership does not apply.
func authorize(ctx context.Context, action policy.Action, resource policy.Resource, ownerID uuid.UUID) (caller, error) {
	c := callerFrom(ctx)
	owner := c.Actor.Authenticated && ownerID != uuid.Nil && c.ID == ownerID

	if policy.CanAct(c.Actor, action, resource, owner) {
		return c, nil
	}
	if !c.Actor.Authenticated {
		return c, apperror.Unauthorized("Authentication required")
	}
	return c, apperror.PermissionDenied("You do not have permission to perform this action")
}

func validationFailed(errs map[string]string) error {
	return apperror.Validation("validation failed", errs)
}

// fail returns domain errors unchanged. Anything else is logged and hidden
// behind an internal error.
func fail(log *zap.Logger, op string, err error, fields ...zap.Field) error {
	if apperror.KindOf(err) != apperror.KindInternal {
		return err
	}
	log.Error("Failed to "+op, append(fields, zap.Error(err))...)
	return apperror.Wrap(apperror.KindInternal, "failed to "+op, err)
}

// parseID turns a malformed path id into NotFound.
func parseID(kind, id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.NotFound("%s %s not found", kind, id)
	}
	return parsed, nil
}

func merge(dst, src map[string]string) map[string]string {
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
