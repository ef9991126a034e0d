package adaptor

import (
	"net/http"

	"review-api/internal/dto/request"
	"review-api/internal/usecase"
	"review-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CommentHandler struct {
	service usecase.CommentService
	log     *zap.Logger
}

func NewCommentHandler(service usecase.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		log:     log.With(zap.String("handler", "comment")),
	}
}

// List handles GET .../reviews/{review_id}/comments (public)
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	comments, err := h.service.List(r.Context(), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), &page)
	if err != nil {
		writeServiceError(w, h.log, err, "list comments")
		return
	}
	utils.ResponseSuccess(w, "success", comments)
}

// Get handles GET .../comments/{comment_id} (public)
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.service.Get(r.Context(),
		chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), chi.URLParam(r, "comment_id"))
	if err != nil {
		writeServiceError(w, h.log, err, "get comment")
		return
	}
	utils.ResponseSuccess(w, "success", comment)
}

// Create handles POST .../reviews/{review_id}/comments (authenticated)
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Create(r.Context(), chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create comment")
		return
	}
	utils.ResponseCreated(w, "Comment created", comment)
}

// Update handles PATCH .../comments/{comment_id} (author, moderator, admin)
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Update(r.Context(),
		chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), chi.URLParam(r, "comment_id"), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "update comment")
		return
	}
	utils.ResponseSuccess(w, "Comment updated", comment)
}

// Delete handles DELETE .../comments/{comment_id} (author, moderator, admin)
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(r.Context(),
		chi.URLParam(r, "title_id"), chi.URLParam(r, "review_id"), chi.URLParam(r, "comment_id"))
	if err != nil {
		writeServiceError(w, h.log, err, "delete comment")
		return
	}
	utils.ResponseNoContent(w)
}
