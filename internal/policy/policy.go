// Package policy decides whether an actor may perform an action on a
// resource. It holds no state and performs no I/O.
package policy

import "review-api/internal/data/entity"

type Action int

const (
	ActionList Action = iota
	ActionRetrieve
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Safe reports whether the action only reads.
func (a Action) Safe() bool {
	return a == ActionList || a == ActionRetrieve
}

type Resource int

const (
	ResourceCategory Resource = iota
	ResourceGenre
	ResourceTitle
	ResourceReview
	ResourceComment
	ResourceUser
	// ResourceSelf is the actor's own user record.
	ResourceSelf
)

// Actor is the caller of a request. The zero value is anonymous.
type Actor struct {
	Authenticated bool
	Role          entity.UserRole
}

func Anonymous() Actor {
	return Actor{}
}

func ActorFor(user *entity.User) Actor {
	if user == nil {
		return Anonymous()
	}
	return Actor{Authenticated: true, Role: user.Role}
}

// CanAct evaluates access for one request. owner is true when the actor
// authored the resource.
func CanAct(actor Actor, action Action, resource Resource, owner bool) bool {
	if resource != ResourceUser && resource != ResourceSelf && action.Safe() {
		return true
	}
	if !actor.Authenticated {
		return false
	}
	if actor.Role == entity.RoleAdmin {
		return true
	}

	switch resource {
	case ResourceReview, ResourceComment:
		if action == ActionCreate {
			return true
		}
		return owner || actor.Role == entity.RoleModerator
	case ResourceSelf:
		return action == ActionRetrieve || action == ActionUpdate
	default:
		return false
	}
}
