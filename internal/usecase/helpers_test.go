package usecase

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/data/repository"
	"review-api/internal/data/repository/memory"
	"review-api/pkg/apperror"
	"review-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// lastCode returns the confirmation code of the latest mail to addr.
func (m *fakeMailer) lastCode(t *testing.T, addr string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == addr {
			code := codePattern.FindString(m.sent[i].Body)
			require.NotEmpty(t, code, "no code in %q", m.sent[i].Body)
			return code
		}
	}
	t.Fatalf("no mail sent to %s", addr)
	return ""
}

type fixture struct {
	repo    *repository.Repository
	mail    *fakeMailer
	tokens  *utils.TokenIssuer
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	config := &utils.Config{
		JWT:          utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		Confirmation: utils.ConfirmationConfig{ExpiryMinutes: 15, Length: 6},
		Validation:   utils.ValidationConfig{UsernameMaxLength: 150, EmailMaxLength: 254},
	}

	f := &fixture{
		repo:   memory.New(),
		mail:   &fakeMailer{},
		tokens: utils.NewTokenIssuer(config.JWT),
	}
	f.service = NewService(f.repo, config, f.mail, f.tokens, zap.NewNop())
	return f
}

func (f *fixture) user(t *testing.T, username string, role entity.UserRole) *entity.User {
	t.Helper()
	user := &entity.User{
		Base:     entity.NewBase(time.Now()),
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, f.repo.User.Create(context.Background(), user))
	return user
}

func (f *fixture) title(t *testing.T, name string) *entity.Title {
	t.Helper()
	title := &entity.Title{Base: entity.NewBase(time.Now()), Name: name, Year: 2000}
	require.NoError(t, f.repo.Title.Create(context.Background(), title))
	return title
}

func as(user *entity.User) context.Context {
	return utils.SetUserContext(context.Background(), user.ID, string(user.Role))
}

func ptr[T any](v T) *T {
	return &v
}

// assertKind checks the error kind and, when field is set, that the error
// names that field.
func assertKind(t *testing.T, err error, kind apperror.Kind, field string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "error: %v", err)

	if field == "" {
		return
	}
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, field)
}
