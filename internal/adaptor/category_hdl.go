package adaptor

import (
	"net/http"

	"review-api/internal/dto/request"
	"review-api/internal/usecase"
	"review-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	service usecase.CategoryService
	log     *zap.Logger
}

func NewCategoryHandler(service usecase.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		log:     log.With(zap.String("handler", "category")),
	}
}

// List handles GET /api/v1/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context(), parseList(r))
	if err != nil {
		writeServiceError(w, h.log, err, "list categories")
		return
	}
	utils.ResponseSuccess(w, "success", categories)
}

// Get handles GET /api/v1/categories/{slug}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, h.log, err, "get category")
		return
	}
	utils.ResponseSuccess(w, "success", category)
}

// Create handles POST /api/v1/categories (admin)
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create category")
		return
	}
	utils.ResponseCreated(w, "Category created", category)
}

// Update handles PATCH /api/v1/categories/{slug} (admin)
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.Update(r.Context(), chi.URLParam(r, "slug"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update category")
		return
	}
	utils.ResponseSuccess(w, "Category updated", category)
}

// Delete handles DELETE /api/v1/categories/{slug} (admin)
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		writeServiceError(w, h.log, err, "delete category")
		return
	}
	utils.ResponseNoContent(w)
}
