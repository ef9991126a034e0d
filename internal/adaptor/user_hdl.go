package adaptor

import (
	"net/http"

	"review-api/internal/dto/request"
	"review-api/internal/usecase"
	"review-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// List handles GET /api/v1/users (admin)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), parseList(r))
	if err != nil {
		writeServiceError(w, h.log, err, "list users")
		return
	}
	utils.ResponseSuccess(w, "success", users)
}

// Create handles POST /api/v1/users (admin)
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create user")
		return
	}
	utils.ResponseCreated(w, "User created", user)
}

// Get handles GET /api/v1/users/{username} (admin)
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeServiceError(w, h.log, err, "get user")
		return
	}
	utils.ResponseSuccess(w, "success", user)
}

// Update handles PATCH /api/v1/users/{username} (admin)
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.Update(r.Context(), chi.URLParam(r, "username"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update user")
		return
	}
	utils.ResponseSuccess(w, "User updated", user)
}

// Delete handles DELETE /api/v1/users/{username} (admin)
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "username")); err != nil {
		writeServiceError(w, h.log, err, "delete user")
		return
	}
	utils.ResponseNoContent(w)
}

// GetMe handles GET /api/v1/users/me
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetMe(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "get profile")
		return
	}
	utils.ResponseSuccess(w, "Profile retrieved successfully", user)
}

// UpdateMe handles PATCH /api/v1/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateMe(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update profile")
		return
	}
	utils.ResponseSuccess(w, "Profile updated successfully", user)
}
