package adaptor

import (
	"net/http"

	"review-api/internal/dto/request"
	"review-api/internal/usecase"
	"review-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// List handles GET /api/v1/titles/{title_id}/reviews (public)
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	reviews, err := h.service.List(r.Context(), chi.URLParam(r, "title_id"), &page)
	if err != nil {
		writeServiceError(w, h.log, err, "list reviews")
		return
	}
	utils.ResponseSuccess(w, "success", reviews)
}

// Get handles GET /api/v1/titles/{title_id}/reviews/{review_id} (public)
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.Get(r.Context(), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get review")
		return
	}
	utils.ResponseSuccess(w, "success", review)
}

// Create handles POST /api/v1/titles/{title_id}/reviews (authenticated)
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.Create(r.Context(), chi.URLParam(r, "title_id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create review")
		return
	}
	utils.ResponseCreated(w, "Review created", review)
}

// Update handles PATCH /api/v1/titles/{title_id}/reviews/{review_id} (author, moderator, admin)
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.Update(r.Context(), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update review")
		return
	}
	utils.ResponseSuccess(w, "Review updated", review)
}

// Delete handles DELETE /api/v1/titles/{title_id}/reviews/{review_id} (author, moderator, admin)
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id")); err != nil {
		writeServiceError(w, h.log, err, "delete review")
		return
	}
	utils.ResponseNoContent(w)
}
