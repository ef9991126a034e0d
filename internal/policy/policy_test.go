package policy

import (
	"testing"

	"review-api/internal/data/entity"

	"github.com/stretchr/testify/assert"
)

func TestCanAct(t *testing.T) {
	anon := Anonymous()
	user := Actor{Authenticated: true, Role: entity.RoleUser}
	moderator := Actor{Authenticated: true, Role: entity.RoleModerator}
	admin := Actor{Authenticated: true, Role: entity.RoleAdmin}

	tests := []struct {
		name     string
		actor    Actor
		action   Action
		resource Resource
		owner    bool
		want     bool
	}{
		{"anonymous lists titles", anon, ActionList, ResourceTitle, false, true},
		{"anonymous reads comment", anon, ActionRetrieve, ResourceComment, false, true},
		{"anonymous creates review", anon, ActionCreate, ResourceReview, false, false},
		{"user creates review", user, ActionCreate, ResourceReview, false, true},
		{"user creates comment", user, ActionCreate, ResourceComment, false, true},
		{"author updates review", user, ActionUpdate, ResourceReview, true, true},
		{"stranger updates review", user, ActionUpdate, ResourceReview, false, false},
		{"stranger deletes comment", user, ActionDelete, ResourceComment, false, false},
		{"moderator deletes comment", moderator, ActionDelete, ResourceComment, false, true},
		{"moderator updates review", moderator, ActionUpdate, ResourceReview, false, true},
		{"admin deletes review", admin, ActionDelete, ResourceReview, false, true},
		{"user creates category", user, ActionCreate, ResourceCategory, false, false},
		{"moderator updates genre", moderator, ActionUpdate, ResourceGenre, false, false},
		{"admin creates title", admin, ActionCreate, ResourceTitle, false, true},
		{"anonymous lists users", anon, ActionList, ResourceUser, false, false},
		{"user lists users", user, ActionList, ResourceUser, false, false},
		{"moderator retrieves user", moderator, ActionRetrieve, ResourceUser, false, false},
		{"admin deletes user", admin, ActionDelete, ResourceUser, false, true},
		{"user reads self", user, ActionRetrieve, ResourceSelf, false, true},
		{"user updates self", user, ActionUpdate, ResourceSelf, false, true},
		{"user deletes self", user, ActionDelete, ResourceSelf, false, false},
		{"anonymous reads self", anon, ActionRetrieve, ResourceSelf, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAct(tt.actor, tt.action, tt.resource, tt.owner))
		})
	}
}

func TestActorFor(t *testing.T) {
	assert.Equal(t, Anonymous(), ActorFor(nil))
	assert.Equal(t,
		Actor{Authenticated: true, Role: entity.RoleModerator},
		ActorFor(&entity.User{Role: entity.RoleModerator}),
	)
}
