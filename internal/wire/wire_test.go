package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"review-api/internal/data/entity"
	"review-api/internal/data/repository"
	"review-api/internal/data/repository/memory"
	"review-api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type outbox struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (o *outbox) Send(ctx context.Context, to, subject, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bodies[to] = body
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (o *outbox) code(t *testing.T, to string) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	code := codePattern.FindString(o.bodies[to])
	require.NotEmpty(t, code, "no code mailed to %s", to)
	return code
}

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type api struct {
	t      *testing.T
	router http.Handler
	repo   *repository.Repository
	tokens *utils.TokenIssuer
	mail   *outbox
}

func newAPI(t *testing.T) *api {
	config := &utils.Config{
		JWT:          utils.JWTConfig{Secret: "wire-secret", ExpiryHours: 1},
		Confirmation: utils.ConfirmationConfig{ExpiryMinutes: 15, Length: 6},
		Validation:   utils.ValidationConfig{UsernameMaxLength: 150, EmailMaxLength: 254},
	}
	a := &api{
		t:      t,
		repo:   memory.New(),
		tokens: utils.NewTokenIssuer(config.JWT),
		mail:   &outbox{bodies: map[string]string{}},
	}
	a.router = Wiring(a.repo, config, a.mail, a.tokens, zap.NewNop()).Router
	return a
}

// do sends body as JSON and decodes the envelope when there is one.
func (a *api) do(method, path, token string, body any) (int, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

// seed stores an active user and returns a token for it.
func (a *api) seed(username string, role entity.UserRole) string {
	a.t.Helper()
	user := &entity.User{
		Base:     entity.NewBase(time.Now()),
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
	}
	require.NoError(a.t, a.repo.User.Create(context.Background(), user))
	token, _, err := a.tokens.Issue(user.ID)
	require.NoError(a.t, err)
	return token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestSignUpAndReviewFlow(t *testing.T) {
	a := newAPI(t)
	admin := a.seed("root", entity.RoleAdmin)

	status, _ := a.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "alice@example.com", "username": "alice",
	})
	require.Equal(t, http.StatusOK, status)

	status, env := a.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username": "alice", "confirmation_code": a.mail.code(t, "alice@example.com"),
	})
	require.Equal(t, http.StatusOK, status)
	alice := decode[struct {
		Token string `json:"token"`
	}](t, env.Data).Token
	require.NotEmpty(t, alice)

	status, env = a.do(http.MethodGet, "/api/v1/users/me", alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", decode[map[string]any](t, env.Data)["username"])

	status, _ = a.do(http.MethodPost, "/api/v1/genres", admin, map[string]string{"name": "Drama", "slug": "drama"})
	require.Equal(t, http.StatusCreated, status)

	status, env = a.do(http.MethodPost, "/api/v1/titles", admin, map[string]any{
		"name": "Stalker", "year": 1979, "genre": []string{"drama"},
	})
	require.Equal(t, http.StatusCreated, status)
	titleID := decode[map[string]any](t, env.Data)["id"].(string)
	reviews := "/api/v1/titles/" + titleID + "/reviews"

	status, _ = a.do(http.MethodPost, reviews, "", map[string]any{"text": "great", "score": 9})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env = a.do(http.MethodPost, reviews, alice, map[string]any{"text": "great", "score": 9})
	require.Equal(t, http.StatusCreated, status)
	review := decode[map[string]any](t, env.Data)
	assert.Equal(t, "alice", review["author"])

	status, env = a.do(http.MethodPost, reviews, alice, map[string]any{"text": "again", "score": 1})
	assert.Equal(t, http.StatusConflict, status)

	status, env = a.do(http.MethodGet, "/api/v1/titles/"+titleID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 9, decode[map[string]any](t, env.Data)["rating"])

	comments := reviews + "/" + review["id"].(string) + "/comments"
	status, _ = a.do(http.MethodPost, comments, admin, map[string]any{"text": "agreed"})
	require.Equal(t, http.StatusCreated, status)

	status, env = a.do(http.MethodGet, comments, "", nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}](t, env.Data)
	assert.Equal(t, 1, page.Pagination.Total)
	assert.Equal(t, "root", page.Data[0]["author"])

	status, _ = a.do(http.MethodDelete, reviews+"/"+review["id"].(string), alice, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, env = a.do(http.MethodGet, "/api/v1/titles/"+titleID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, decode[map[string]any](t, env.Data)["rating"])
}

func TestAccessGates(t *testing.T) {
	a := newAPI(t)
	user := a.seed("alice", entity.RoleUser)
	moderator := a.seed("mod", entity.RoleModerator)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"public list", http.MethodGet, "/api/v1/categories", "", nil, http.StatusOK},
		{"anonymous category write", http.MethodPost, "/api/v1/categories", "", map[string]string{"name": "A", "slug": "a"}, http.StatusUnauthorized},
		{"user category write", http.MethodPost, "/api/v1/categories", user, map[string]string{"name": "A", "slug": "a"}, http.StatusForbidden},
		{"moderator title write", http.MethodPost, "/api/v1/titles", moderator, map[string]any{"name": "A", "year": 2000}, http.StatusForbidden},
		{"user lists users", http.MethodGet, "/api/v1/users", user, nil, http.StatusForbidden},
		{"anonymous me", http.MethodGet, "/api/v1/users/me", "", nil, http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/categories", "not-a-token", nil, http.StatusUnauthorized},
		{"unknown title", http.MethodGet, "/api/v1/titles/00000000-0000-0000-0000-000000000000", "", nil, http.StatusNotFound},
		{"malformed title id", http.MethodGet, "/api/v1/titles/nope/reviews", "", nil, http.StatusNotFound},
		{"malformed body", http.MethodPost, "/api/v1/auth/signup", "", "{", http.StatusBadRequest},
		{"health", http.MethodGet, "/health", "", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := a.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestValidationErrorsCarryFields(t *testing.T) {
	a := newAPI(t)

	status, env := a.do(http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email": "not-an-email", "username": "me",
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Status)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "username")

	status, env = a.do(http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username": "ghost", "confirmation_code": "123456",
	})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPatchUser(t *testing.T) {
	a := newAPI(t)
	alice := a.seed("alice", entity.RoleUser)
	a.seed("bob", entity.RoleUser)
	admin := a.seed("root", entity.RoleAdmin)

	tests := []struct {
		name   string
		token  string
		body   map[string]string
		status int
		field  string
	}{
		{"anonymous", "", map[string]string{"role": "admin"}, http.StatusUnauthorized, ""},
		{"non-admin sets role", alice, map[string]string{"role": "admin"}, http.StatusBadRequest, "role"},
		{"non-admin edits bio", alice, map[string]string{"bio": "hi"}, http.StatusForbidden, ""},
		{"admin sets role", admin, map[string]string{"role": "moderator"}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := a.do(http.MethodPatch, "/api/v1/users/bob", tt.token, tt.body)
			assert.Equal(t, tt.status, status, env.Message)
			if tt.field != "" {
				assert.Contains(t, env.Errors, tt.field)
			}
		})
	}

	status, env := a.do(http.MethodGet, "/api/v1/users/bob", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "moderator", decode[map[string]any](t, env.Data)["role"])
}
