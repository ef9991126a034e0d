package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/dto/request"
	"review-api/pkg/apperror"
	"review-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpTokenScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.Auth.SignUp(ctx, &request.SignUpRequest{Email: "a@x.com", Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", resp.Email)
	assert.Equal(t, "alice", resp.Username)

	code := f.mail.lastCode(t, "a@x.com")

	user, err := f.repo.User.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.False(t, user.IsActive)
	assert.Equal(t, entity.RoleUser, user.Role)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.service.Auth.Token(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: wrong})
	assertKind(t, err, apperror.KindValidation, "confirmation_code")

	token, err := f.service.Auth.Token(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: code})
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)

	userID, err := f.tokens.Parse(token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	user, err = f.repo.User.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, user.IsActive)

	// Codes are single use.
	_, err = f.service.Auth.Token(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: code})
	assertKind(t, err, apperror.KindValidation, "confirmation_code")

	// The identical pair re-sends a code instead of failing.
	_, err = f.service.Auth.SignUp(ctx, &request.SignUpRequest{Email: "a@x.com", Username: "alice"})
	require.NoError(t, err)
	assert.Len(t, f.mail.sent, 2)

	again, err := f.service.Auth.Token(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: f.mail.lastCode(t, "a@x.com")})
	require.NoError(t, err)
	assert.NotEmpty(t, again.Token)
}

func TestSignUpResendRetiresEarlierCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Auth.SignUp(ctx, &request.SignUpRequest{Email: "a@x.com", Username: "alice"})
	require.NoError(t, err)
	first := f.mail.lastCode(t, "a@x.com")

	_, err = f.service.Auth.SignUp(ctx, &request.SignUpRequest{Email: "a@x.com", Username: "alice"})
	require.NoError(t, err)
	second := f.mail.lastCode(t, "a@x.com")

	if first != second {
		_, err = f.service.Auth.Token(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: first})
		assertKind(t, err, apperror.KindValidation, "confirmation_code")
	}

	_, err = f.service.Auth.Token(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: second})
	require.NoError(t, err)
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Auth.SignUp(ctx, &request.SignUpRequest{Email: "a@x.com", Username: "alice"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		req   request.SignUpRequest
		field string
	}{
		{"reserved username", request.SignUpRequest{Email: "me@x.com", Username: "me"}, "username"},
		{"reserved username any case", request.SignUpRequest{Email: "me@x.com", Username: "Me"}, "username"},
		{"bad characters", request.SignUpRequest{Email: "b@x.com", Username: "bob!"}, "username"},
		{"too long username", request.SignUpRequest{Email: "b@x.com", Username: strings.Repeat("b", 151)}, "username"},
		{"malformed email", request.SignUpRequest{Email: "not-an-email", Username: "bob"}, "email"},
		{"too long email", request.SignUpRequest{Email: strings.Repeat("b", 250) + "@x.com", Username: "bob"}, "email"},
		{"username taken", request.SignUpRequest{Email: "other@x.com", Username: "alice"}, "username"},
		{"email taken", request.SignUpRequest{Email: "a@x.com", Username: "bob"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Auth.SignUp(ctx, &tt.req)
			assertKind(t, err, apperror.KindValidation, tt.field)
		})
	}

	assert.Len(t, f.mail.sent, 1)
}

func TestTokenUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Auth.Token(context.Background(), &request.TokenRequest{Username: "ghost", ConfirmationCode: "123456"})
	assertKind(t, err, apperror.KindNotFound, "")
}

func TestTokenExpiredCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "alice", entity.RoleUser)

	hash, err := utils.HashConfirmationCode("123456")
	require.NoError(t, err)

	issued := time.Now().Add(-time.Hour)
	require.NoError(t, f.repo.Confirmation.Create(ctx, &entity.ConfirmationCode{
		BaseSimple: entity.NewBaseSimple(issued),
		UserID:     user.ID,
		CodeHash:   hash,
		ExpiresAt:  issued.Add(15 * time.Minute),
	}))

	_, err = f.service.Auth.Token(ctx, &request.TokenRequest{Username: "alice", ConfirmationCode: "123456"})
	assertKind(t, err, apperror.KindValidation, "confirmation_code")
}
