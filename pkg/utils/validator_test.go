package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"alice", true},
		{"alice.smith+reviews@home-1_x", true},
		{"me", false},
		{"ME", false},
		{"al ice", false},
		{"alice!", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidUsername(tt.username))
		})
	}
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	type signUp struct {
		Username string `json:"username" validate:"required,username"`
		Email    string `json:"email" validate:"required,email"`
		Slug     string `json:"slug" validate:"omitempty,slug"`
	}

	errs := ValidateStruct(signUp{Username: "me", Email: "not-an-email", Slug: "bad slug"})

	assert.Contains(t, errs, "username")
	assert.Equal(t, "Invalid email format", errs["email"])
	assert.Contains(t, errs, "slug")

	assert.Nil(t, ValidateStruct(signUp{Username: "alice", Email: "a@x.com"}))
}
